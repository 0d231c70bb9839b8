package ingestion

import "encoding/json"

// Row is the canonical representation of one extracted record, regardless of
// the input dialect it came from. All values are raw strings as read from the
// file; semantic validation happens in the LineValidator.
type Row struct {
	CUPS         string
	Installation string
	Type         string
	DateFrom     string
	DateTo       string
	NetGenerated [NumPeriods]string
	SelfConsumed [NumPeriods]string
	TollPayment  [NumPeriods]string
}

// Snapshot serializes the row for the raw-row column of a validation error.
func (r Row) Snapshot() string {
	payload := map[string]any{
		"cups_cliente":          r.CUPS,
		"instalacion_gen":       r.Installation,
		"tipo_autoconsumo":      r.Type,
		"fecha_desde":           r.DateFrom,
		"fecha_hasta":           r.DateTo,
		"energia_neta_gen":      r.NetGenerated,
		"energia_autoconsumida": r.SelfConsumed,
		"pago_tda":              r.TollPayment,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(data)
}
