// Package markup holds the parsed document tree shared by the XML and HTML
// readers, the record converter and the XPath-based classifier.

package markup

import "strings"

// NodeType identifies the kind of a Node.
type NodeType int

const (
	DocumentNode NodeType = iota
	ElementNode
	TextNode
)

// Attr is a single markup attribute. Name keeps its prefix, e.g. "xmlns:rsm".
type Attr struct {
	Name  string
	Value string
}

// Node is one node of a parsed document. Siblings are linked the same way
// golang.org/x/net/html links its nodes so the tree can be walked in
// document order without index bookkeeping.
type Node struct {
	Type NodeType
	// Name is the qualified tag name for elements, empty otherwise.
	Name string
	// Data is the raw character data for text nodes.
	Data  string
	Attrs []Attr

	Parent, FirstChild, LastChild, PrevSibling, NextSibling *Node
}

// NewDocument returns an empty document root.
func NewDocument() *Node {
	return &Node{Type: DocumentNode}
}

// NewElement returns a detached element.
func NewElement(name string, attrs ...Attr) *Node {
	return &Node{Type: ElementNode, Name: name, Attrs: attrs}
}

// NewText returns a detached text node.
func NewText(data string) *Node {
	return &Node{Type: TextNode, Data: data}
}

// AppendChild adds c as the last child of n and returns c.
func (n *Node) AppendChild(c *Node) *Node {
	c.Parent = n
	c.PrevSibling = n.LastChild
	c.NextSibling = nil
	if n.LastChild != nil {
		n.LastChild.NextSibling = c
	} else {
		n.FirstChild = c
	}
	n.LastChild = c
	return c
}

// Children returns the direct children of n in document order.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// Root returns the first element child of a document node, or nil.
func (n *Node) Root() *Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == ElementNode {
			return c
		}
	}
	return nil
}

// Prefix returns the namespace prefix of an element name, if any.
func (n *Node) Prefix() string {
	prefix, _ := splitName(n.Name)
	return prefix
}

// LocalName returns the element name without its prefix.
func (n *Node) LocalName() string {
	_, local := splitName(n.Name)
	return local
}

func splitName(name string) (prefix, local string) {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// InnerText concatenates all descendant text in document order.
func (n *Node) InnerText() string {
	if n.Type == TextNode {
		return n.Data
	}
	var b strings.Builder
	var walk func(*Node)
	walk = func(x *Node) {
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == TextNode {
				b.WriteString(c.Data)
			} else {
				walk(c)
			}
		}
	}
	walk(n)
	return b.String()
}
