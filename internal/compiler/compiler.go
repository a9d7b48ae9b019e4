// Package compiler turns a TemplateDescription into an immutable, reusable
// Definition. Compilation validates the slot declarations, rewrites the style
// block so every selector is confined to the definition's encapsulation
// boundary, and deep-copies the markup so the Definition shares no mutable
// state with its description.
//
// Compilation is pure: no I/O, no global side effects. Compiling two
// structurally equal descriptions yields two independent Definitions with
// distinct scope IDs; deduplication is deliberately not attempted.
package compiler

import (
	stderrors "errors"

	"github.com/conneroisu/shadowtpl/internal/errors"
	"github.com/conneroisu/shadowtpl/internal/types"
)

// Definition is a compiled template: scoped style, markup with slot markers,
// and the declared slot names. Definitions are immutable once built and are
// shared read-only by every Instance created from them.
type Definition struct {
	scopeID   string
	style     string
	markup    []types.Node
	slotNames []string
	slotSet   map[string]struct{}
}

// Compile validates desc and produces a Definition.
//
// Validation failures:
//   - a slot name declared more than once: duplicate_slot
//   - a SlotMarker referencing an undeclared name: unknown_slot
//   - style text the CSS parser cannot read: malformed_style
//
// Style text is otherwise taken as-is; no semantic CSS validation happens.
func Compile(desc types.TemplateDescription) (*Definition, error) {
	slotSet := make(map[string]struct{}, len(desc.SlotNames))
	for _, name := range desc.SlotNames {
		if _, dup := slotSet[name]; dup {
			return nil, errors.NewDuplicateSlotError(name)
		}
		slotSet[name] = struct{}{}
	}

	if err := checkMarkers(desc.Markup, slotSet); err != nil {
		return nil, err
	}

	scopeID := newScopeID(desc)

	style, err := scopeStyle(desc.Style, scopeID)
	if err != nil {
		return nil, errors.NewMalformedStyleError(err)
	}

	slotNames := make([]string, len(desc.SlotNames))
	copy(slotNames, desc.SlotNames)

	return &Definition{
		scopeID:   scopeID,
		style:     style,
		markup:    types.CloneNodes(desc.Markup),
		slotNames: slotNames,
		slotSet:   slotSet,
	}, nil
}

// checkMarkers walks the markup tree and rejects the first marker whose name
// is not declared.
func checkMarkers(nodes []types.Node, slotSet map[string]struct{}) error {
	for _, n := range nodes {
		switch node := n.(type) {
		case types.SlotMarker:
			if _, ok := slotSet[node.Name]; !ok {
				return errors.NewUnknownSlotError(node.Name)
			}
		case types.ElementNode:
			if err := checkMarkers(node.Children, slotSet); err != nil {
				return err
			}
		}
	}
	return nil
}

// ScopeID returns the definition's boundary identifier. It is the value of
// the data-shadow attribute stamped on every element the definition owns.
func (d *Definition) ScopeID() string {
	return d.scopeID
}

// Style returns the compiled (scoped) style text.
func (d *Definition) Style() string {
	return d.style
}

// Markup returns a deep copy of the compiled markup. Callers may mutate the
// returned nodes freely without affecting the Definition.
func (d *Definition) Markup() []types.Node {
	return types.CloneNodes(d.markup)
}

// SlotNames returns the declared slot names in declaration order.
func (d *Definition) SlotNames() []string {
	names := make([]string, len(d.slotNames))
	copy(names, d.slotNames)
	return names
}

// HasSlot reports whether name is a declared slot.
func (d *Definition) HasSlot(name string) bool {
	_, ok := d.slotSet[name]
	return ok
}

// IsValidationError reports whether err came from description validation.
func IsValidationError(err error) bool {
	var se *errors.ShadowError
	if stderrors.As(err, &se) {
		return se.Type == errors.ErrorTypeValidation
	}
	return false
}
