// Package convert turns a parsed markup document into a generic record.
//
// Elements become objects keyed by child tag name. A name seen once holds its
// value directly; a name seen again is promoted to a list, so the shape of a
// field depends on the document and callers must accept both (see Value.All).
package convert

import (
	"strings"

	"github.com/vrsandeep/xmlup/internal/markup"
)

const (
	// AttributesField holds an element's attributes, in document order.
	AttributesField = "attributes"
	// TextField holds text that sits next to attributes or child elements.
	TextField = "#text"
)

// Convert converts a document (or any subtree) into a record. The second
// result is false when the node contributes nothing, i.e. blank text.
func Convert(n *markup.Node) (Value, bool) {
	switch n.Type {
	case markup.TextNode:
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return Value{}, false
		}
		return Text(text), true
	case markup.ElementNode, markup.DocumentNode:
		return convertContainer(n), true
	default:
		return Value{}, false
	}
}

func convertContainer(n *markup.Node) Value {
	var b objectBuilder
	if n.Type == markup.ElementNode && len(n.Attrs) > 0 {
		attrs := make([]Field, 0, len(n.Attrs))
		for _, a := range n.Attrs {
			attrs = append(attrs, Field{Name: a.Name, Value: Text(a.Value)})
		}
		b.add(AttributesField, Object(attrs...))
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		v, ok := Convert(c)
		if !ok {
			continue
		}
		name := c.Name
		if c.Type == markup.TextNode {
			name = TextField
		}
		b.add(name, v)
	}

	// Pure text content collapses to the text itself.
	if len(b.fields) == 1 && b.fields[0].Name == TextField && b.fields[0].Value.kind == KindText {
		return b.fields[0].Value
	}
	return Object(b.fields...)
}

type objectBuilder struct {
	fields []Field
	index  map[string]int
}

func (b *objectBuilder) add(name string, v Value) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	i, seen := b.index[name]
	if !seen {
		b.index[name] = len(b.fields)
		b.fields = append(b.fields, Field{Name: name, Value: v})
		return
	}
	cur := b.fields[i].Value
	if cur.kind == KindList {
		cur.items = append(cur.items, v)
		b.fields[i].Value = cur
		return
	}
	b.fields[i].Value = List(cur, v)
}
