package format

import (
	"fmt"
	"io"

	ingestion "energy-process/internal/ingestion/domain"
)

// schemaBExtractor folds an <AutoconsumoColectivo> document into a single
// synthetic row: the header carries the scalar fields and the first six
// <Registro> children supply one value per sub-block each, assembled
// positionally. Header-level structural problems surface as a single
// structural entry; the job itself still completes.
type schemaBExtractor struct {
	root *element
	done bool
}

func newSchemaBExtractor(root *element) *schemaBExtractor {
	return &schemaBExtractor{root: root}
}

func (e *schemaBExtractor) Next() (Entry, error) {
	if e.done {
		return Entry{}, io.EOF
	}
	e.done = true

	cabecera := e.root.child("Cabecera")
	container := e.root.child("Registros")
	if cabecera == nil || container == nil {
		return structuralEntry(1, fmt.Sprintf("<%s> must carry Cabecera and Registros", rootSchemaB)), nil
	}

	periodo := cabecera.child("PeriodoFacturacion")
	cups := cabecera.childText("CUPS")
	tipo := cabecera.childText("TipoAutoconsumo")
	var dateFrom, dateTo string
	if periodo != nil {
		dateFrom = periodo.childText("FechaDesde")
		dateTo = periodo.childText("FechaHasta")
	}
	if cups == "" || tipo == "" || dateFrom == "" || dateTo == "" {
		return structuralEntry(1, "Cabecera must carry CUPS, TipoAutoconsumo and PeriodoFacturacion (FechaDesde, FechaHasta)"), nil
	}

	registros := container.childrenNamed("Registro")
	if len(registros) < ingestion.NumPeriods {
		return structuralEntry(2, fmt.Sprintf("<%s> must carry at least %d Registro children, found %d", rootSchemaB, ingestion.NumPeriods, len(registros))), nil
	}

	row := ingestion.Row{
		CUPS:     cups,
		Type:     tipo,
		DateFrom: dateFrom,
		DateTo:   dateTo,
	}
	for i := 0; i < ingestion.NumPeriods; i++ {
		registro := registros[i]
		row.NetGenerated[i] = registro.childText("EnergiaNetaGenerada")
		row.SelfConsumed[i] = registro.childText("EnergiaAutoconsumida")
		row.TollPayment[i] = registro.childText("PagoTDA")
	}
	return Entry{Line: 2, Row: row}, nil
}

func structuralEntry(line int, description string) Entry {
	return Entry{
		Line: line,
		Structural: []ingestion.RowError{{
			Kind:        ingestion.ErrorStructuralInvalid,
			Description: description,
		}},
	}
}

var _ Extractor = (*schemaBExtractor)(nil)
