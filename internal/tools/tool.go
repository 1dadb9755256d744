// Package tools provides tool registration and dispatch for the agent.
//
// A tool is a named external capability the model can request during a
// generation round. Tools return opaque result records; the only field
// given wire-level meaning downstream is "url".
package tools

import (
	"context"
)

// Definition describes a tool to the model. Parameters is a JSON-schema
// object for the tool's arguments.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Tool is a single invocable capability.
type Tool interface {
	Definition() Definition

	// Invoke executes the tool with the model-supplied arguments and
	// returns one record per result.
	Invoke(ctx context.Context, args map[string]any) ([]map[string]any, error)
}

// Registry holds the tools available to the agent, keyed by name.
// Registration happens at startup; lookups are safe for concurrent use.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Registering the same name twice replaces the
// earlier tool.
func (r *Registry) Register(t Tool) {
	name := t.Definition().Name
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Lookup returns the tool with the given name, or false if none is
// registered under it.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Definitions returns the definitions of all registered tools in
// registration order, for handing to the model.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}
