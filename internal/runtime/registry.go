package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"
)

// Handler executes one tool invocation. Arguments arrive as the raw JSON
// object the model produced; the return value is the observation text
// fed back into the conversation. Handlers report failure through the
// error return -- the executor converts it to an error observation.
type Handler func(ctx context.Context, args json.RawMessage) (string, error)

// Entry declares one registered tool.
type Entry struct {
	Name        string
	Description string
	// Parameters is the JSON Schema for the arguments object, shown to
	// the model alongside the description.
	Parameters *jsonschema.Schema
	Handler    Handler
}

// Spec is the model-facing half of an Entry.
type Spec struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

// Registry is a fixed name -> tool mapping. It is built once at startup
// and must not be mutated afterwards; the loop only reads it, so no
// locking is needed.
type Registry struct {
	entries map[string]Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds a tool. A repeated name returns ErrDuplicateTool -- the
// registered vocabulary is the only thing the loop may dispatch to, so
// silent replacement would hide misconfiguration.
func (r *Registry) Register(e Entry) error {
	if e.Name == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	if e.Handler == nil {
		return fmt.Errorf("tool %s has no handler", e.Name)
	}
	if _, exists := r.entries[e.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, e.Name)
	}
	r.entries[e.Name] = e
	return nil
}

// RegisterAll registers every entry, stopping at the first failure.
func (r *Registry) RegisterAll(entries ...Entry) error {
	for _, e := range entries {
		if err := r.Register(e); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns the entry for name, or ErrUnknownTool.
func (r *Registry) Resolve(name string) (Entry, error) {
	e, ok := r.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return e, nil
}

// Specs returns the model-facing declarations of every registered tool,
// sorted by name so the gateway presents a deterministic list.
func (r *Registry) Specs() []Spec {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	specs := make([]Spec, 0, len(names))
	for _, name := range names {
		e := r.entries[name]
		specs = append(specs, Spec{
			Name:        e.Name,
			Description: e.Description,
			Parameters:  e.Parameters,
		})
	}
	return specs
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.entries)
}
