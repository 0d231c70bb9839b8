package format

import (
	"errors"

	ingestion "energy-process/internal/ingestion/domain"
)

// Entry is one extracted logical record. When Structural is non-empty the
// row failed structural validation and must be quarantined without running
// semantic validation; Row is only meaningful when Structural is empty.
type Entry struct {
	Line       int
	Row        ingestion.Row
	Structural []ingestion.RowError
}

// Extractor yields a finite, non-restartable sequence of entries, numbered
// from 2 (line 1 is the header). It returns io.EOF when exhausted.
type Extractor interface {
	Next() (Entry, error)
}

// NewExtractor builds the extractor for a sniffed input. The content must be
// the same bytes Sniff classified.
func NewExtractor(input InputFormat, content []byte) (Extractor, error) {
	switch input.Kind {
	case SchemaA:
		return newSchemaAExtractor(input.root)
	case SchemaB:
		return newSchemaBExtractor(input.root), nil
	case Delimited:
		return newDelimitedExtractor(stripBOM(content), input.Delimiter, input.Columns), nil
	default:
		return nil, errors.New("format: unresolved input format")
	}
}
