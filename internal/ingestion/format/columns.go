package format

import (
	"errors"
	"strings"

	ingestion "energy-process/internal/ingestion/domain"
)

// ColumnMap maps canonical fields to header positions. -1 marks an absent
// column. Vector positions are indexed by sub-period (0..5).
type ColumnMap struct {
	CUPS         int
	Installation int
	Type         int
	DateFrom     int
	DateTo       int
	NetGenerated [ingestion.NumPeriods]int
	SelfConsumed [ingestion.NumPeriods]int
	TollPayment  [ingestion.NumPeriods]int
}

// Header aliases, lowercased. First matching header wins per field.
var (
	cupsAliases         = []string{"cups", "cups_cliente", "cupscliente"}
	typeAliases         = []string{"tipo", "tipo_autoconsumo", "tipoautoconsumo"}
	dateFromAliases     = []string{"fecha_desde", "fecha_desde_1", "fechadesde"}
	dateToAliases       = []string{"fecha_hasta", "fecha_hasta_1", "fechahasta"}
	installationAliases = []string{"instalacion", "instalacion_gen", "instalaciongen"}

	netPrefixes  = []string{"energia_neta_gen_", "p", "gen_p"}
	selfPrefixes = []string{"energia_autoconsumida_", "cons_p"}
	tollPrefixes = []string{"pago_tda_", "tda_p"}
)

func emptyColumnMap() ColumnMap {
	m := ColumnMap{CUPS: -1, Installation: -1, Type: -1, DateFrom: -1, DateTo: -1}
	for i := 0; i < ingestion.NumPeriods; i++ {
		m.NetGenerated[i] = -1
		m.SelfConsumed[i] = -1
		m.TollPayment[i] = -1
	}
	return m
}

// resolveColumns maps header names onto canonical fields via the alias
// tables. Matching is case-insensitive and tolerates surrounding whitespace.
func resolveColumns(header []string) ColumnMap {
	columns := emptyColumnMap()
	for idx, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		switch {
		case matchAlias(name, cupsAliases):
			setIfUnset(&columns.CUPS, idx)
		case matchAlias(name, typeAliases):
			setIfUnset(&columns.Type, idx)
		case matchAlias(name, dateFromAliases):
			setIfUnset(&columns.DateFrom, idx)
		case matchAlias(name, dateToAliases):
			setIfUnset(&columns.DateTo, idx)
		case matchAlias(name, installationAliases):
			setIfUnset(&columns.Installation, idx)
		default:
			if period, ok := matchVector(name, netPrefixes); ok {
				setIfUnset(&columns.NetGenerated[period], idx)
			} else if period, ok := matchVector(name, selfPrefixes); ok {
				setIfUnset(&columns.SelfConsumed[period], idx)
			} else if period, ok := matchVector(name, tollPrefixes); ok {
				setIfUnset(&columns.TollPayment[period], idx)
			}
		}
	}
	return columns
}

func matchAlias(name string, aliases []string) bool {
	for _, alias := range aliases {
		if name == alias {
			return true
		}
	}
	return false
}

// matchVector matches prefix+digit names such as p1, energia_neta_gen_3 or
// cons_p6 and returns the zero-based sub-period.
func matchVector(name string, prefixes []string) (int, bool) {
	for _, prefix := range prefixes {
		if len(name) != len(prefix)+1 || !strings.HasPrefix(name, prefix) {
			continue
		}
		digit := name[len(prefix)]
		if digit < '1' || digit > '0'+ingestion.NumPeriods {
			continue
		}
		return int(digit - '1'), true
	}
	return 0, false
}

func setIfUnset(target *int, idx int) {
	if *target < 0 {
		*target = idx
	}
}

// validate enforces the minimum header contract: a client-id column, both
// date columns and a type column must be recognizable.
func (m ColumnMap) validate() error {
	var missing []string
	if m.CUPS < 0 {
		missing = append(missing, "cups")
	}
	if m.DateFrom < 0 {
		missing = append(missing, "fecha_desde")
	}
	if m.DateTo < 0 {
		missing = append(missing, "fecha_hasta")
	}
	if m.Type < 0 {
		missing = append(missing, "tipo")
	}
	if len(missing) > 0 {
		return errors.New("header must include columns for CUPS, period dates and autoconsumption type; missing: " + strings.Join(missing, ", "))
	}
	return nil
}

// rowFromRecord builds a canonical row from one delimited record.
func (m ColumnMap) rowFromRecord(record []string) ingestion.Row {
	pick := func(idx int) string {
		if idx < 0 || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}
	row := ingestion.Row{
		CUPS:         pick(m.CUPS),
		Installation: pick(m.Installation),
		Type:         pick(m.Type),
		DateFrom:     pick(m.DateFrom),
		DateTo:       pick(m.DateTo),
	}
	for i := 0; i < ingestion.NumPeriods; i++ {
		row.NetGenerated[i] = pick(m.NetGenerated[i])
		row.SelfConsumed[i] = pick(m.SelfConsumed[i])
		row.TollPayment[i] = pick(m.TollPayment[i])
	}
	return row
}
