package compiler

import (
	"fmt"
	"hash/fnv"
	"io"
	"strings"
	"sync/atomic"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"

	"github.com/conneroisu/shadowtpl/internal/types"
)

// ScopeAttribute is the attribute stamped on every element a definition owns.
// Scoped style rules match on it, so they can never reach projected content,
// which is never stamped.
const ScopeAttribute = "data-shadow"

var scopeCounter uint64

// newScopeID derives a boundary identifier from the description's content
// plus a process-wide counter. The counter keeps IDs distinct across repeated
// compilations of equal descriptions.
func newScopeID(desc types.TemplateDescription) string {
	h := fnv.New64a()
	io.WriteString(h, desc.Style)
	for _, name := range desc.SlotNames {
		io.WriteString(h, name)
		io.WriteString(h, "\x00")
	}
	fingerprintNodes(h, desc.Markup)
	fmt.Fprintf(h, "#%d", atomic.AddUint64(&scopeCounter, 1))

	return fmt.Sprintf("s%08x", uint32(h.Sum64()))
}

func fingerprintNodes(w io.Writer, nodes []types.Node) {
	for _, n := range nodes {
		switch node := n.(type) {
		case types.TextNode:
			io.WriteString(w, "t:")
			io.WriteString(w, node.Text)
		case types.SlotMarker:
			io.WriteString(w, "s:")
			io.WriteString(w, node.Name)
		case types.InstanceNode:
			io.WriteString(w, "i")
		case types.ElementNode:
			io.WriteString(w, "e:")
			io.WriteString(w, node.Tag)
			for _, attr := range node.Attributes {
				io.WriteString(w, attr.Key)
				io.WriteString(w, "=")
				io.WriteString(w, attr.Value)
			}
			fingerprintNodes(w, node.Children)
		}
		io.WriteString(w, "\x00")
	}
}

// scopeStyle parses styleText and rewrites every selector so it only matches
// elements stamped with the definition's scope attribute. At-rules that group
// rules (@media, @supports) are rewritten recursively; @keyframes and
// declaration-only at-rules (@font-face) are left untouched.
func scopeStyle(styleText, scopeID string) (string, error) {
	if strings.TrimSpace(styleText) == "" {
		return "", nil
	}

	sheet, err := parser.Parse(styleText)
	if err != nil {
		return "", err
	}

	attr := fmt.Sprintf("[%s=%q]", ScopeAttribute, scopeID)
	for _, rule := range sheet.Rules {
		scopeRule(rule, attr)
	}

	return sheet.String(), nil
}

func scopeRule(rule *css.Rule, attr string) {
	if rule.Kind == css.AtRule {
		if isKeyframes(rule.Name) {
			return
		}
		for _, sub := range rule.Rules {
			scopeRule(sub, attr)
		}
		return
	}

	for i, sel := range rule.Selectors {
		rule.Selectors[i] = scopeSelector(sel, attr)
	}
	rule.Prelude = strings.Join(rule.Selectors, ", ")
}

func isKeyframes(name string) bool {
	return strings.HasSuffix(name, "keyframes")
}

// scopeSelector inserts attr into the subject (last compound) of sel, before
// any pseudo suffix, so ".card .title:hover" becomes
// `.card .title[data-shadow="id"]:hover`.
func scopeSelector(sel, attr string) string {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return attr
	}

	idx := strings.LastIndexAny(sel, " >+~")
	prefix, compound := sel[:idx+1], sel[idx+1:]

	if compound == "*" {
		return prefix + attr
	}
	if p := strings.Index(compound, ":"); p >= 0 {
		return prefix + compound[:p] + attr + compound[p:]
	}

	return sel + attr
}
