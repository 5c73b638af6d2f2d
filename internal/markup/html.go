package markup

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// nonContent elements carry code or markup templates, not document data.
const nonContent = "script, style, noscript, template"

// ParseHTML reads an HTML document into the same tree shape Parse produces.
// Comments, doctype nodes and nonContent elements are dropped. The HTML
// parser never rejects input, so the only error path is a reader failure.
func ParseHTML(data []byte) (*Node, error) {
	page, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	page.Find(nonContent).Remove()

	doc := NewDocument()
	for _, root := range page.Nodes {
		copyHTMLChildren(doc, root)
	}
	if doc.Root() == nil {
		return nil, &ParseError{Err: ErrNoRoot}
	}
	return doc, nil
}

func copyHTMLChildren(dst *Node, src *html.Node) {
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			el := NewElement(c.Data)
			for _, a := range c.Attr {
				name := a.Key
				if a.Namespace != "" {
					name = a.Namespace + ":" + a.Key
				}
				el.Attrs = append(el.Attrs, Attr{Name: name, Value: a.Val})
			}
			dst.AppendChild(el)
			copyHTMLChildren(el, c)
		case html.TextNode:
			dst.AppendChild(NewText(c.Data))
		}
	}
}
