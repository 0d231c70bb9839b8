package format

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// element is a minimal XML element tree. Element names are matched on their
// local part, so namespaced documents resolve the same as plain ones.
type element struct {
	name     string
	text     string
	children []*element
}

// parseRoot decodes the document's root element and everything below it.
// Decoding stops once the root closes, so trailing garbage after the closing
// root tag is tolerated.
func parseRoot(content []byte) (*element, error) {
	decoder := xml.NewDecoder(bytes.NewReader(content))
	var stack []*element
	var root *element
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			node := &element{name: t.Name.Local}
			if len(stack) == 0 {
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, node)
			}
			stack = append(stack, node)
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			}
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 && root != nil {
				return root, nil
			}
		}
	}
	if root == nil {
		return nil, io.ErrUnexpectedEOF
	}
	return root, nil
}

// child returns the first child with the given local name, or nil.
func (e *element) child(name string) *element {
	if e == nil {
		return nil
	}
	for _, c := range e.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// childText returns the trimmed text of the first child with the given name.
func (e *element) childText(name string) string {
	c := e.child(name)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.text)
}

// trimText returns the element's trimmed text, or "" for a nil element.
func trimText(e *element) string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.text)
}

// childrenNamed returns every direct child with the given local name.
func (e *element) childrenNamed(name string) []*element {
	if e == nil {
		return nil
	}
	var result []*element
	for _, c := range e.children {
		if c.name == name {
			result = append(result, c)
		}
	}
	return result
}
