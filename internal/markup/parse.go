package markup

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ParseError reports a document that could not be read as markup.
type ParseError struct {
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed document at byte %d: %v", e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	ErrNoRoot        = errors.New("no root element")
	ErrMultipleRoots = errors.New("more than one root element")
	ErrTextOutside   = errors.New("text outside of root element")
)

// Parse reads an XML document into a tree. Prefixes are kept verbatim in
// element and attribute names; comments, processing instructions and
// directives are dropped.
func Parse(data []byte) (*Node, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = true
	// Undeclared entities such as &nbsp; are common in hand-edited exports.
	d.Entity = xml.HTMLEntity

	doc := NewDocument()
	cur := doc
	for {
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Offset: d.InputOffset(), Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if cur == doc && doc.Root() != nil {
				return nil, &ParseError{Offset: d.InputOffset(), Err: ErrMultipleRoots}
			}
			el := NewElement(qualified(t.Name))
			for _, a := range t.Attr {
				el.Attrs = append(el.Attrs, Attr{Name: qualified(a.Name), Value: a.Value})
			}
			cur = cur.AppendChild(el)
		case xml.EndElement:
			name := qualified(t.Name)
			if cur == doc || cur.Name != name {
				return nil, &ParseError{
					Offset: d.InputOffset(),
					Err:    fmt.Errorf("unexpected end element </%s>", name),
				}
			}
			cur = cur.Parent
		case xml.CharData:
			if cur == doc {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, &ParseError{Offset: d.InputOffset(), Err: ErrTextOutside}
				}
				continue
			}
			// Adjacent runs (text split around a CDATA section) are merged.
			if last := cur.LastChild; last != nil && last.Type == TextNode {
				last.Data += string(t)
				continue
			}
			cur.AppendChild(NewText(string(t)))
		}
	}

	if cur != doc {
		return nil, &ParseError{Offset: d.InputOffset(), Err: io.ErrUnexpectedEOF}
	}
	if doc.Root() == nil {
		return nil, &ParseError{Offset: d.InputOffset(), Err: ErrNoRoot}
	}
	return doc, nil
}

// ParseFile picks the reader from the file name: .html and .htm go through
// the HTML parser, everything else is treated as XML.
func ParseFile(name string, data []byte) (*Node, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return ParseHTML(data)
	default:
		return Parse(data)
	}
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
