package format

import (
	"fmt"
	"io"

	ingestion "energy-process/internal/ingestion/domain"
)

const (
	registroTag = "registro"

	blockNetGenerated = "energiaNetaGen"
	blockSelfConsumed = "energiaAutoconsumida"
	blockTollPayment  = "pagoTDA"

	periodHourTag = "hora"
)

var registroScalarFields = []string{"cupsCliente", "instalacionGen", "fechaDesde", "fechaHasta", "tipoAutoconsumo"}

var periodPositionTags = [ingestion.NumPeriods]string{"p1", "p2", "p3", "p4", "p5", "p6"}

// schemaAExtractor walks the <registro> children of <energiaExcedentaria>.
// A registro failing structural validation yields a structural entry and no
// canonical row.
type schemaAExtractor struct {
	registros []*element
	index     int
}

func newSchemaAExtractor(root *element) (*schemaAExtractor, error) {
	registros := root.childrenNamed(registroTag)
	if len(registros) == 0 {
		return nil, &StructuralError{
			Line:        1,
			Description: fmt.Sprintf("no <%s> element found inside <%s>", registroTag, rootSchemaA),
		}
	}
	return &schemaAExtractor{registros: registros}, nil
}

func (e *schemaAExtractor) Next() (Entry, error) {
	if e.index >= len(e.registros) {
		return Entry{}, io.EOF
	}
	registro := e.registros[e.index]
	line := e.index + 2
	e.index++

	if structural := validateRegistro(registro); len(structural) > 0 {
		return Entry{Line: line, Structural: structural}, nil
	}

	row := ingestion.Row{
		CUPS:         registro.childText("cupsCliente"),
		Installation: registro.childText("instalacionGen"),
		DateFrom:     registro.childText("fechaDesde"),
		DateTo:       registro.childText("fechaHasta"),
		Type:         registro.childText("tipoAutoconsumo"),
	}
	row.NetGenerated, _ = periodValues(registro.child(blockNetGenerated))
	row.SelfConsumed, _ = periodValues(registro.child(blockSelfConsumed))
	row.TollPayment, _ = periodValues(registro.child(blockTollPayment))
	return Entry{Line: line, Row: row}, nil
}

// validateRegistro checks the mandatory scalar fields and that each of the
// three sub-blocks resolves to exactly six non-empty period values through
// either accepted encoding.
func validateRegistro(registro *element) []ingestion.RowError {
	var found []ingestion.RowError
	for _, field := range registroScalarFields {
		child := registro.child(field)
		switch {
		case child == nil:
			found = append(found, ingestion.RowError{
				Kind:        ingestion.ErrorStructuralInvalid,
				Description: fmt.Sprintf("missing mandatory element <%s>", field),
			})
		case registro.childText(field) == "":
			found = append(found, ingestion.RowError{
				Kind:        ingestion.ErrorStructuralInvalid,
				Description: fmt.Sprintf("element <%s> is empty", field),
			})
		}
	}
	for _, block := range []string{blockNetGenerated, blockSelfConsumed, blockTollPayment} {
		if _, err := periodValues(registro.child(block)); err != nil {
			found = append(found, ingestion.RowError{
				Kind:        ingestion.ErrorStructuralInvalid,
				Description: fmt.Sprintf("<%s>: %s", block, err.Description),
			})
		}
	}
	return found
}

// periodValues resolves one sub-block to its six raw values. Two encodings
// are accepted: six (or more) <hora> children, or the positional <p1>..<p6>
// elements. The <hora> form wins when at least six are present.
func periodValues(block *element) ([ingestion.NumPeriods]string, *StructuralError) {
	var values [ingestion.NumPeriods]string
	if block == nil {
		return values, &StructuralError{Description: "missing block"}
	}

	hours := block.childrenNamed(periodHourTag)
	if len(hours) >= ingestion.NumPeriods {
		for i := 0; i < ingestion.NumPeriods; i++ {
			values[i] = trimText(hours[i])
			if values[i] == "" {
				return values, &StructuralError{Description: fmt.Sprintf("some <%s> elements are empty", periodHourTag)}
			}
		}
		return values, nil
	}

	for i, tag := range periodPositionTags {
		child := block.child(tag)
		if child == nil {
			return values, &StructuralError{
				Description: fmt.Sprintf("expected six <%s> or <p1>..<p6>; missing <%s>", periodHourTag, tag),
			}
		}
		values[i] = trimText(child)
		if values[i] == "" {
			return values, &StructuralError{Description: fmt.Sprintf("element <%s> is empty", tag)}
		}
	}
	return values, nil
}

var _ Extractor = (*schemaAExtractor)(nil)
