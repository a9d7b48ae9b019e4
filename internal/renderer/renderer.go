// Package renderer creates encapsulated Instances from registered
// Definitions and projects caller-supplied content into their named slots.
//
// Encapsulation is structural: every element belonging to the Definition's
// own markup is stamped with the Definition's scope attribute, the compiled
// style only matches stamped elements, and projected content is never
// stamped. A Definition's rules therefore cannot reach projected nodes, and
// another boundary's rules cannot reach the Definition's markup.
package renderer

import (
	"github.com/conneroisu/shadowtpl/internal/compiler"
	"github.com/conneroisu/shadowtpl/internal/errors"
	"github.com/conneroisu/shadowtpl/internal/registry"
	"github.com/conneroisu/shadowtpl/internal/types"
)

// Renderer creates Instances from Definitions held in a registry.
type Renderer struct {
	registry *registry.DefinitionRegistry
}

// New creates a renderer backed by reg.
func New(reg *registry.DefinitionRegistry) *Renderer {
	return &Renderer{registry: reg}
}

// Instantiate looks up identity and builds an Instance with projection
// content wired into the Definition's slots.
//
// Failure modes:
//   - unknown_identity: identity is not registered
//   - unknown_slot_name: projection supplies a name the Definition does not
//     declare (named in the error)
//   - missing_slot_content: projection omits a declared slot (named in the
//     error). Omission is an error by policy; explicit empty content
//     (a present key with a zero-length node list) is valid.
//
// Repeated calls with equal arguments produce independent Instances;
// mutating one never affects another.
func (r *Renderer) Instantiate(identity string, projection types.Projection) (*Instance, error) {
	def, exists := r.registry.Get(identity)
	if !exists {
		return nil, errors.NewUnknownIdentityError(identity)
	}

	if err := validateProjection(identity, def, projection); err != nil {
		return nil, err
	}

	return &Instance{
		identity:   identity,
		definition: def,
		slots:      types.CloneProjection(projection),
		state:      StateCreated,
	}, nil
}

// validateProjection checks projection against def's declared slots. Every
// declared slot must be present, and no undeclared name may appear.
func validateProjection(identity string, def *compiler.Definition, projection types.Projection) error {
	for name := range projection {
		if !def.HasSlot(name) {
			return errors.NewUnknownSlotNameError(identity, name)
		}
	}

	for _, name := range def.SlotNames() {
		if _, ok := projection[name]; !ok {
			return errors.NewMissingSlotContentError(identity, name)
		}
	}

	return nil
}
