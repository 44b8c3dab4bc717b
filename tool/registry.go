package tool

import (
	"fmt"

	"github.com/scalisek3/CareCompanionAIWebsite/model"
)

// Registry is the static catalogue mapping tool names to implementations.
// It is built once at startup and immutable afterwards, so it is safe for
// concurrent use without synchronization. There is no runtime registration
// API; the set of callable tools is fixed at compile time.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry builds a registry from the given tools. Catalogue order follows
// argument order and stays stable across calls. Duplicate names are a
// programming error and rejected.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		name := t.Name()
		if _, exists := r.tools[name]; exists {
			return nil, fmt.Errorf("duplicate tool name %q", name)
		}
		r.tools[name] = t
		r.order = append(r.order, name)
	}
	return r, nil
}

// Lookup resolves a tool by name. The second return reports whether the name
// is part of the catalogue.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Catalogue returns the registered tools in stable registration order.
func (r *Registry) Catalogue() []Tool {
	out := make([]Tool, len(r.order))
	for i, name := range r.order {
		out[i] = r.tools[name]
	}
	return out
}

// Definitions returns the catalogue in the shape advertised to the model,
// in the same stable order as Catalogue.
func (r *Registry) Definitions() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, len(r.order))
	for i, name := range r.order {
		defs[i] = Definition(r.tools[name])
	}
	return defs
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.order) }
