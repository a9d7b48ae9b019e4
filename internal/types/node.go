// Package types defines the core data model for shadowtpl: the markup node
// variants a template may contain, the TemplateDescription supplied by
// callers, and the Projection mapping used at instantiation.
//
// The node model is a closed variant type. Keeping it closed (rather than
// accepting arbitrary html.Node trees) makes slot markers and nested
// instances statically enumerable, which is what the compiler's validation
// and the renderer's projection logic rely on.
package types

import (
	"golang.org/x/net/html"
)

// Node is a renderable markup node. Implementations are TextNode,
// ElementNode, SlotMarker and InstanceNode; no other implementations exist.
type Node interface {
	node()
}

// TextNode is literal character data. It is escaped during serialization.
type TextNode struct {
	Text string
}

// Attribute is a single element attribute.
type Attribute struct {
	Key   string
	Value string
}

// ElementNode is a markup element with attributes and child nodes.
type ElementNode struct {
	Tag        string
	Attributes []Attribute
	Children   []Node
}

// SlotMarker is a named insertion point. During instantiation it is replaced
// by the projected content registered under Name. SlotMarkers are only
// meaningful inside a template's own markup; they carry no content of their
// own.
type SlotMarker struct {
	Name string
}

// InstanceNode embeds a live rendered unit (typically a renderer.Instance)
// inside other markup. The embedded unit brings its own encapsulation
// boundary with it.
type InstanceNode struct {
	Instance Renderable
}

// Renderable is implemented by live instances that can be nested inside
// other markup. Fragment returns the realized node forest, style element
// included.
type Renderable interface {
	Fragment() ([]*html.Node, error)
}

func (TextNode) node()     {}
func (ElementNode) node()  {}
func (SlotMarker) node()   {}
func (InstanceNode) node() {}

// TemplateDescription is the caller-supplied input to compilation: a style
// block scoped to the instance boundary, a markup tree that may contain
// SlotMarkers, and the declared slot names those markers may reference.
type TemplateDescription struct {
	Style     string
	Markup    []Node
	SlotNames []string
}

// Projection maps slot names to the content projected into them at
// instantiation. A present key with an empty slice is deliberate empty
// content; an absent key is an omission.
type Projection map[string][]Node

// Text returns a TextNode for s.
func Text(s string) TextNode {
	return TextNode{Text: s}
}

// Element returns an ElementNode with the given tag and children.
func Element(tag string, children ...Node) ElementNode {
	return ElementNode{Tag: tag, Children: children}
}

// ElementAttr returns an ElementNode with attributes.
func ElementAttr(tag string, attrs []Attribute, children ...Node) ElementNode {
	return ElementNode{Tag: tag, Attributes: attrs, Children: children}
}

// Slot returns a SlotMarker for name.
func Slot(name string) SlotMarker {
	return SlotMarker{Name: name}
}

// CloneNodes returns a deep copy of nodes. InstanceNodes share the embedded
// Renderable, since instances are live handles rather than value data.
func CloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	cloned := make([]Node, len(nodes))
	for i, n := range nodes {
		cloned[i] = cloneNode(n)
	}
	return cloned
}

func cloneNode(n Node) Node {
	switch node := n.(type) {
	case TextNode:
		return node
	case SlotMarker:
		return node
	case InstanceNode:
		return node
	case ElementNode:
		attrs := make([]Attribute, len(node.Attributes))
		copy(attrs, node.Attributes)
		return ElementNode{
			Tag:        node.Tag,
			Attributes: attrs,
			Children:   CloneNodes(node.Children),
		}
	default:
		return n
	}
}

// CloneProjection returns a deep copy of p, preserving the distinction
// between absent keys and present-but-empty content.
func CloneProjection(p Projection) Projection {
	if p == nil {
		return nil
	}
	cloned := make(Projection, len(p))
	for name, nodes := range p {
		if nodes == nil {
			cloned[name] = []Node{}
			continue
		}
		cloned[name] = CloneNodes(nodes)
	}
	return cloned
}
