package format

import (
	"bytes"
	"encoding/csv"
	"io"
)

// delimitedExtractor streams data rows out of a CSV/TXT file. The header was
// already consumed and mapped by the sniffer; rows are numbered from 2.
type delimitedExtractor struct {
	reader  *csv.Reader
	columns ColumnMap
	line    int
	skipped bool
}

func newDelimitedExtractor(content []byte, delimiter rune, columns ColumnMap) *delimitedExtractor {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	return &delimitedExtractor{reader: reader, columns: columns, line: 1}
}

func (e *delimitedExtractor) Next() (Entry, error) {
	if !e.skipped {
		e.skipped = true
		if _, err := e.reader.Read(); err != nil {
			if err == io.EOF {
				return Entry{}, io.EOF
			}
			return Entry{}, err
		}
	}
	for {
		record, err := e.reader.Read()
		if err == io.EOF {
			return Entry{}, io.EOF
		}
		if err != nil {
			return Entry{}, err
		}
		e.line++
		if isBlankRecord(record) {
			continue
		}
		return Entry{Line: e.line, Row: e.columns.rowFromRecord(record)}, nil
	}
}

func isBlankRecord(record []string) bool {
	for _, field := range record {
		if len(bytes.TrimSpace([]byte(field))) > 0 {
			return false
		}
	}
	return true
}

// readHeader reads only the header line for column resolution.
func readHeader(content []byte, delimiter rune) ([]string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	return header, nil
}

var _ Extractor = (*delimitedExtractor)(nil)
