package toolserver

import (
	"fmt"
	"slices"
	"strings"
)

// Registry is the static catalog of tools. The set of tools is fixed at construction and never changes,
// so a Registry is safe for concurrent use without locking.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry builds a Registry from tools in declaration order. Names must be non-empty and unique.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		order: make([]string, 0, len(tools)),
		tools: make(map[string]Tool, len(tools)),
	}
	for i, t := range tools {
		if t == nil {
			return nil, fmt.Errorf("tool at index %d is nil", i)
		}
		name := t.Name()
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("tool at index %d has an empty name", i)
		}
		if _, ok := r.tools[name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTool, name)
		}
		r.order = append(r.order, name)
		r.tools[name] = t
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error. Use it for static wiring only.
func MustRegistry(tools ...Tool) *Registry {
	r, err := NewRegistry(tools...)
	if err != nil {
		panic("toolserver: " + err.Error())
	}
	return r
}

// ListTools returns the descriptors of all tools in declaration order. Each call returns a fresh slice.
func (r *Registry) ListTools() []ToolDescriptor {
	out := make([]ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, Descriptor(r.tools[name]))
	}
	return out
}

// Names returns tool names in declaration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// Lookup returns the tool with the given name, or (nil, false) if not found.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Len returns the number of tools.
func (r *Registry) Len() int { return len(r.order) }
