package tools

import (
	"context"
	"fmt"
	"sync"
)

// Registry maps tool names to implementations. Constructed explicitly at
// startup and passed by reference; registering a duplicate name overwrites
// the earlier tool.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

func (r *Registry) Register(tool Tool) {
	name := tool.Definition().Name
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
}

// Definitions returns every tool's schema in registration order, for the
// model's function-calling declarations.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute dispatches a tool call by name. ErrToolNotFound for unregistered
// names; any other error came from the tool itself.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (*Result, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return tool.Execute(ctx, args)
}
