package ability

import (
	"fmt"
	"sort"
)

// Registry maps ids to handlers. Each game instance owns its registries;
// there is no process-wide table.
type Registry[H any] struct {
	name     string
	handlers map[string]H
}

// NewRegistry creates an empty registry. name appears in error messages.
func NewRegistry[H any](name string) *Registry[H] {
	return &Registry[H]{name: name, handlers: make(map[string]H)}
}

// Register adds a handler. Panics if id is empty or already registered.
func (r *Registry[H]) Register(id string, h H) {
	if id == "" {
		panic(fmt.Sprintf("%s registry: empty id", r.name))
	}
	if _, exists := r.handlers[id]; exists {
		panic(fmt.Sprintf("%s registry: %q already registered", r.name, id))
	}
	r.handlers[id] = h
}

// Resolve returns the handler for id.
func (r *Registry[H]) Resolve(id string) (H, bool) {
	h, ok := r.handlers[id]
	return h, ok
}

// ListRegisteredIDs returns every registered id, sorted.
func (r *Registry[H]) ListRegisteredIDs() []string {
	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clear removes every handler.
func (r *Registry[H]) Clear() {
	r.handlers = make(map[string]H)
}

// Name returns the registry name.
func (r *Registry[H]) Name() string {
	return r.name
}
