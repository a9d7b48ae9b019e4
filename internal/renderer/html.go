package renderer

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/conneroisu/shadowtpl/internal/compiler"
	"github.com/conneroisu/shadowtpl/internal/types"
)

// buildNodes converts a types.Node forest into html.Nodes. When stamp is
// true the nodes originate from the Definition's own markup and every
// element receives the scope attribute; projected content is built with
// stamp false and stays outside the boundary.
func buildNodes(nodes []types.Node, scopeID string, slots types.Projection, stamp bool) ([]*html.Node, error) {
	var built []*html.Node

	for _, n := range nodes {
		switch node := n.(type) {
		case types.TextNode:
			built = append(built, &html.Node{
				Type: html.TextNode,
				Data: node.Text,
			})

		case types.ElementNode:
			element := &html.Node{
				Type:     html.ElementNode,
				Data:     node.Tag,
				DataAtom: atom.Lookup([]byte(node.Tag)),
			}
			for _, attr := range node.Attributes {
				element.Attr = append(element.Attr, html.Attribute{Key: attr.Key, Val: attr.Value})
			}
			if stamp {
				element.Attr = append(element.Attr, html.Attribute{Key: compiler.ScopeAttribute, Val: scopeID})
			}

			children, err := buildNodes(node.Children, scopeID, slots, stamp)
			if err != nil {
				return nil, err
			}
			for _, child := range children {
				element.AppendChild(child)
			}
			built = append(built, element)

		case types.SlotMarker:
			// Markers only carry meaning inside definition markup; a marker
			// that survived into projected content renders as nothing.
			if !stamp {
				continue
			}
			projected, err := buildNodes(slots[node.Name], scopeID, nil, false)
			if err != nil {
				return nil, err
			}
			built = append(built, projected...)

		case types.InstanceNode:
			if node.Instance == nil {
				continue
			}
			fragment, err := node.Instance.Fragment()
			if err != nil {
				return nil, err
			}
			built = append(built, fragment...)
		}
	}

	return built, nil
}

// styleNode wraps scoped CSS text in a style element tagged with the scope
// attribute so hosts can associate it with its boundary.
func styleNode(scopeID, style string) *html.Node {
	node := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
		Attr: []html.Attribute{
			{Key: compiler.ScopeAttribute, Val: scopeID},
		},
	}
	node.AppendChild(&html.Node{
		Type: html.TextNode,
		Data: style,
	})
	return node
}
