package markup

import (
	"fmt"

	"github.com/antchfx/xpath"
)

// Navigator implements xpath.NodeNavigator over a parsed document.
type Navigator struct {
	node *Node
	// attr is 1-based while positioned on an attribute, 0 otherwise.
	attr int
}

// NewNavigator returns a navigator positioned on n.
func NewNavigator(n *Node) *Navigator {
	return &Navigator{node: n}
}

// Current returns the node the navigator is positioned on.
func (x *Navigator) Current() *Node {
	return x.node
}

func (x *Navigator) onAttr() bool {
	return x.attr > 0 && x.attr <= len(x.node.Attrs)
}

func (x *Navigator) NodeType() xpath.NodeType {
	switch x.node.Type {
	case DocumentNode:
		return xpath.RootNode
	case TextNode:
		return xpath.TextNode
	default:
		if x.onAttr() {
			return xpath.AttributeNode
		}
		return xpath.ElementNode
	}
}

func (x *Navigator) LocalName() string {
	if x.node.Type != ElementNode {
		return ""
	}
	if x.onAttr() {
		_, local := splitName(x.node.Attrs[x.attr-1].Name)
		return local
	}
	return x.node.LocalName()
}

func (x *Navigator) Prefix() string {
	if x.node.Type != ElementNode {
		return ""
	}
	if x.onAttr() {
		prefix, _ := splitName(x.node.Attrs[x.attr-1].Name)
		return prefix
	}
	return x.node.Prefix()
}

func (x *Navigator) Value() string {
	if x.onAttr() {
		return x.node.Attrs[x.attr-1].Value
	}
	return x.node.InnerText()
}

func (x *Navigator) Copy() xpath.NodeNavigator {
	n := *x
	return &n
}

func (x *Navigator) MoveToRoot() {
	for x.node.Parent != nil {
		x.node = x.node.Parent
	}
	x.attr = 0
}

func (x *Navigator) MoveToParent() bool {
	if x.attr != 0 {
		x.attr = 0
		return true
	}
	if x.node.Parent != nil {
		x.node = x.node.Parent
		return true
	}
	return false
}

func (x *Navigator) MoveToNextAttribute() bool {
	if x.node.Type == ElementNode && x.attr < len(x.node.Attrs) {
		x.attr++
		return true
	}
	return false
}

func (x *Navigator) MoveToChild() bool {
	if x.attr != 0 {
		return false
	}
	if x.node.FirstChild != nil {
		x.node = x.node.FirstChild
		return true
	}
	return false
}

func (x *Navigator) MoveToFirst() bool {
	if x.attr != 0 || x.node.Parent == nil {
		return false
	}
	x.node = x.node.Parent.FirstChild
	return true
}

func (x *Navigator) MoveToNext() bool {
	if x.attr != 0 || x.node.NextSibling == nil {
		return false
	}
	x.node = x.node.NextSibling
	return true
}

func (x *Navigator) MoveToPrevious() bool {
	if x.attr != 0 || x.node.PrevSibling == nil {
		return false
	}
	x.node = x.node.PrevSibling
	return true
}

func (x *Navigator) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*Navigator)
	if !ok {
		return false
	}
	x.node, x.attr = o.node, o.attr
	return true
}

func (x *Navigator) String() string {
	return x.Value()
}

// Matches reports whether expr selects anything in doc. Boolean and numeric
// expressions are accepted too: true and non-zero count as a match.
func Matches(doc *Node, expr *xpath.Expr) bool {
	switch v := expr.Evaluate(NewNavigator(doc)).(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	case *xpath.NodeIterator:
		return v.MoveNext()
	default:
		return false
	}
}

// Select returns the element and text nodes expr selects in doc.
func Select(doc *Node, expr string) ([]*Node, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to compile XPath expression '%s': %w", expr, err)
	}
	var out []*Node
	iter := compiled.Select(NewNavigator(doc))
	for iter.MoveNext() {
		if nav, ok := iter.Current().(*Navigator); ok && nav.attr == 0 {
			out = append(out, nav.node)
		}
	}
	return out, nil
}
