package promptic

import (
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

// Registry holds the tools available for dispatch, keyed by spec name.
// It is an explicit dependency: construct one, register tools, and hand it
// to a Runner or ModelClient. There is no package-level registry.
//
// Registration order is preserved so that tool declarations reach the model
// in a stable order.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	names []string
}

// NewRegistry creates a registry holding the given tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{
		tools: make(map[string]Tool),
	}
	for _, tool := range tools {
		r.Register(tool)
	}
	return r
}

// Register adds a tool to the registry. Registering a name that already
// exists replaces the previous tool and keeps its original position.
func (r *Registry) Register(tool Tool) {
	name := tool.Spec().Name

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tools[name]; !ok {
		r.names = append(r.names, name)
	}
	r.tools[name] = tool
}

// Resolve returns the tool registered under name. The error of an unknown
// name lists every currently registered name.
func (r *Registry) Resolve(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return nil, goerr.Wrap(ErrToolNotFound,
			name+" is not registered (known tools: "+strings.Join(r.names, ", ")+")",
			goerr.V("tool", name),
			goerr.V("known", r.names),
		)
	}
	return tool, nil
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// All returns the registered tools in registration order.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.names))
	for _, name := range r.names {
		tools = append(tools, r.tools[name])
	}
	return tools
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Specs returns the specifications of the named tools for declaration to a
// model. With no arguments it returns the specs of all registered tools in
// registration order. An unknown name fails with the same error as Resolve.
func (r *Registry) Specs(names ...string) ([]ToolSpec, error) {
	if len(names) == 0 {
		names = r.Names()
	}

	specs := make([]ToolSpec, 0, len(names))
	for _, name := range names {
		tool, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		specs = append(specs, tool.Spec())
	}
	return specs, nil
}
