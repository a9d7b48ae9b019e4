// Package registry manages the process-wide mapping from identity strings to
// compiled Definitions. Registration lifecycle is explicit: identities are
// claimed with Register, reclaimed with Unregister, and all mutations are
// atomic with respect to concurrent readers.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/conneroisu/shadowtpl/internal/compiler"
	"github.com/conneroisu/shadowtpl/internal/errors"
)

// DefinitionRegistry maps identities to Definitions.
type DefinitionRegistry struct {
	definitions map[string]*compiler.Definition
	mutex       sync.RWMutex
	watchers    []chan Event
}

// Event represents a change in the registry.
type Event struct {
	Type       EventType
	Identity   string
	Definition *compiler.Definition
	Timestamp  time.Time
}

// EventType represents the type of registry event.
type EventType int

const (
	EventTypeRegistered EventType = iota
	EventTypeUnregistered
)

// String returns the string representation of the EventType.
func (e EventType) String() string {
	switch e {
	case EventTypeRegistered:
		return "registered"
	case EventTypeUnregistered:
		return "unregistered"
	default:
		return "unknown"
	}
}

// RegistrationHandle represents a claimed identity. It allows the caller that
// registered a Definition to release the identity without holding a reference
// to the registry itself.
type RegistrationHandle struct {
	identity string
	registry *DefinitionRegistry
}

// Identity returns the registered identity string.
func (h *RegistrationHandle) Identity() string {
	return h.identity
}

// Unregister releases the handle's identity. Instances already created from
// the Definition remain valid; new instantiation via the identity fails.
func (h *RegistrationHandle) Unregister() error {
	return h.registry.Unregister(h.identity)
}

// New creates an empty registry.
func New() *DefinitionRegistry {
	return &DefinitionRegistry{
		definitions: make(map[string]*compiler.Definition),
		watchers:    make([]chan Event, 0),
	}
}

// Register claims identity for def. It fails with duplicate_identity if the
// identity is already taken; on success the registration is visible to
// concurrent readers before Register returns.
func (r *DefinitionRegistry) Register(identity string, def *compiler.Definition) (*RegistrationHandle, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.definitions[identity]; exists {
		return nil, errors.NewDuplicateIdentityError(identity)
	}

	r.definitions[identity] = def

	r.notify(Event{
		Type:       EventTypeRegistered,
		Identity:   identity,
		Definition: def,
		Timestamp:  time.Now(),
	})

	return &RegistrationHandle{identity: identity, registry: r}, nil
}

// Unregister releases identity. It fails with unknown_identity if the
// identity is not registered.
func (r *DefinitionRegistry) Unregister(identity string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	def, exists := r.definitions[identity]
	if !exists {
		return errors.NewUnknownIdentityError(identity)
	}

	delete(r.definitions, identity)

	r.notify(Event{
		Type:       EventTypeUnregistered,
		Identity:   identity,
		Definition: def,
		Timestamp:  time.Now(),
	})

	return nil
}

// Get retrieves the Definition registered under identity.
func (r *DefinitionRegistry) Get(identity string) (*compiler.Definition, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	def, exists := r.definitions[identity]
	return def, exists
}

// Identities returns all registered identities in sorted order.
func (r *DefinitionRegistry) Identities() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	identities := make([]string, 0, len(r.definitions))
	for identity := range r.definitions {
		identities = append(identities, identity)
	}
	sort.Strings(identities)
	return identities
}

// Count returns the number of registered identities.
func (r *DefinitionRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.definitions)
}

// Watch returns a channel that receives registry events.
func (r *DefinitionRegistry) Watch() <-chan Event {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan Event, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it.
func (r *DefinitionRegistry) UnWatch(ch <-chan Event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// notify delivers event to all watchers. Callers must hold the write lock.
func (r *DefinitionRegistry) notify(event Event) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}
