// Package format classifies uploaded billing files and extracts canonical
// rows from the supported dialects: two XML schemas and heuristically
// delimited text.
package format

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// Kind identifies the resolved input dialect.
type Kind int

const (
	// SchemaA is the <energiaExcedentaria> XML dialect: one row per
	// <registro> child.
	SchemaA Kind = iota + 1
	// SchemaB is the <AutoconsumoColectivo> XML dialect: header plus at
	// least six <Registro> children folded into one synthetic row.
	SchemaB
	// Delimited is CSV/TXT with an inferred delimiter and header mapping.
	Delimited
)

// InputFormat is the closed variant produced by Sniff and consumed by
// NewExtractor. Exactly one of the dialect-specific members is populated.
type InputFormat struct {
	Kind      Kind
	Delimiter rune
	Columns   ColumnMap

	root *element
}

// StructuralError is a file-level structural failure: unrecognized root,
// unreadable document, or a header missing required columns. Line is 0 or 1
// by convention for file-level findings.
type StructuralError struct {
	Line        int
	Description string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error (line %d): %s", e.Line, e.Description)
}

// rootSchemaA and rootSchemaB select between the two supported XML schemas.
const (
	rootSchemaA = "energiaExcedentaria"
	rootSchemaB = "AutoconsumoColectivo"
)

const peekSize = 512

// Sniff classifies raw bytes plus the filename extension. XML is recognized
// by the .xml extension or, for other extensions, by a document that starts
// with an XML prolog or a bare '<' within the first bytes. Everything else is
// treated as delimited text. The delimiter and column-alias inference is
// best effort: an unusual header order can still map columns unexpectedly.
func Sniff(filename string, content []byte) (InputFormat, error) {
	content = stripBOM(content)
	ext := strings.ToLower(filepath.Ext(filename))

	if ext == ".xml" || (ext != ".csv" && looksLikeXML(content)) {
		return sniffXML(content)
	}
	return sniffDelimited(content)
}

func looksLikeXML(content []byte) bool {
	peek := content
	if len(peek) > peekSize {
		peek = peek[:peekSize]
	}
	trimmed := bytes.TrimSpace(peek)
	if bytes.HasPrefix(trimmed, []byte("<?xml")) {
		return true
	}
	return len(trimmed) > 0 && trimmed[0] == '<' && bytes.ContainsRune(trimmed, '>')
}

func sniffXML(content []byte) (InputFormat, error) {
	root, err := parseRoot(content)
	if err != nil {
		return InputFormat{}, &StructuralError{Line: 0, Description: fmt.Sprintf("unreadable XML: %v", err)}
	}
	switch root.name {
	case rootSchemaA:
		return InputFormat{Kind: SchemaA, root: root}, nil
	case rootSchemaB:
		return InputFormat{Kind: SchemaB, root: root}, nil
	default:
		return InputFormat{}, &StructuralError{
			Line:        1,
			Description: fmt.Sprintf("XML root must be <%s> or <%s>, found <%s>", rootSchemaA, rootSchemaB, root.name),
		}
	}
}

func sniffDelimited(content []byte) (InputFormat, error) {
	delimiter := detectDelimiter(content)
	header, err := readHeader(content, delimiter)
	if err != nil {
		return InputFormat{}, &StructuralError{Line: 0, Description: fmt.Sprintf("unreadable header: %v", err)}
	}
	columns := resolveColumns(header)
	if err := columns.validate(); err != nil {
		return InputFormat{}, &StructuralError{Line: 1, Description: err.Error()}
	}
	return InputFormat{Kind: Delimited, Delimiter: delimiter, Columns: columns}, nil
}

func stripBOM(content []byte) []byte {
	return bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})
}
