package renderer

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"golang.org/x/net/html"

	"github.com/conneroisu/shadowtpl/internal/compiler"
	"github.com/conneroisu/shadowtpl/internal/errors"
	"github.com/conneroisu/shadowtpl/internal/types"
)

// State represents an Instance's lifecycle state.
type State int

const (
	// StateCreated is the initial state after Instantiate.
	StateCreated State = iota
	// StateAttached means the instance has been placed into a visible or
	// active hosting context.
	StateAttached
	// StateDetached means the instance was removed from its hosting context;
	// content is frozen but still renderable.
	StateDetached
	// StateDestroyed is terminal; all operations fail.
	StateDestroyed
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateAttached:
		return "attached"
	case StateDetached:
		return "detached"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Instance is a live, encapsulated realization of a Definition with concrete
// projected content. The Definition is shared, read-only state; the slot
// content belongs to the Instance alone.
//
// Attach/Detach transitions are driven by the hosting context. The style and
// projection invariants hold in every reachable state.
type Instance struct {
	identity   string
	definition *compiler.Definition
	slots      types.Projection
	state      State
	mutex      sync.Mutex
}

var (
	_ templ.Component  = (*Instance)(nil)
	_ types.Renderable = (*Instance)(nil)
)

// Identity returns the registry identity the instance was created through.
func (i *Instance) Identity() string {
	return i.identity
}

// Definition returns the shared Definition backing the instance.
func (i *Instance) Definition() *compiler.Definition {
	return i.definition
}

// State returns the current lifecycle state.
func (i *Instance) State() State {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	return i.state
}

// SlotContent returns a deep copy of the content currently projected into
// the named slot, and whether the slot exists on the instance.
func (i *Instance) SlotContent(name string) ([]types.Node, bool) {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	nodes, ok := i.slots[name]
	if !ok {
		return nil, false
	}
	return types.CloneNodes(nodes), true
}

// Attach marks the instance as placed into an active hosting context.
func (i *Instance) Attach() error {
	return i.transition(StateAttached, StateCreated, StateDetached)
}

// Detach marks the instance as removed from its hosting context.
func (i *Instance) Detach() error {
	return i.transition(StateDetached, StateAttached)
}

// Destroy releases the instance. The transition is terminal; all subsequent
// operations fail with instance_destroyed.
func (i *Instance) Destroy() error {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	if i.state == StateDestroyed {
		return errors.NewInstanceDestroyedError(i.identity)
	}

	i.state = StateDestroyed
	i.slots = nil
	return nil
}

func (i *Instance) transition(to State, from ...State) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	if i.state == StateDestroyed {
		return errors.NewInstanceDestroyedError(i.identity)
	}
	for _, f := range from {
		if i.state == f {
			i.state = to
			return nil
		}
	}
	return errors.NewInvalidTransitionError(i.identity, i.state.String(), to.String())
}

// Update replaces the projected content for the instance's slots in place.
// The replacement is validated exactly like the original projection: every
// declared slot must receive content and no undeclared name may appear. The
// Definition is not recompiled, and the new content remains outside the
// instance's style boundary.
func (i *Instance) Update(projection types.Projection) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	if i.state == StateDestroyed {
		return errors.NewInstanceDestroyedError(i.identity)
	}

	if err := validateProjection(i.identity, i.definition, projection); err != nil {
		return err
	}

	i.slots = types.CloneProjection(projection)
	return nil
}

// Fragment realizes the instance as an html.Node forest: the scoped style
// element (when the Definition carries style text) followed by the markup
// with every slot marker replaced by its projected content in order.
// Definition-origin elements carry the scope attribute; projected nodes do
// not.
func (i *Instance) Fragment() ([]*html.Node, error) {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	if i.state == StateDestroyed {
		return nil, errors.NewInstanceDestroyedError(i.identity)
	}

	var fragment []*html.Node

	if style := i.definition.Style(); style != "" {
		fragment = append(fragment, styleNode(i.definition.ScopeID(), style))
	}

	markup, err := buildNodes(i.definition.Markup(), i.definition.ScopeID(), i.slots, true)
	if err != nil {
		return nil, err
	}

	return append(fragment, markup...), nil
}

// Render writes the instance's rendered HTML to w. It satisfies
// templ.Component, so instances compose directly into templ pages.
func (i *Instance) Render(ctx context.Context, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fragment, err := i.Fragment()
	if err != nil {
		return err
	}

	for _, node := range fragment {
		if err := html.Render(w, node); err != nil {
			return err
		}
	}

	return nil
}

// HTML returns the rendered instance as a string.
func (i *Instance) HTML() (string, error) {
	var sb strings.Builder
	if err := i.Render(context.Background(), &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
