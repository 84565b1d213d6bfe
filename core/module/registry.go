package module

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/artpar/modgate/core/schema"
)

// Registry holds live module instances keyed by case-insensitive name.
// Modules are registered once at startup; the route compiler resolves
// names into stable references so dispatch never repeats the lookup.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module // lowercased name -> instance
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// Register adds a module. Duplicate names are rejected.
func (r *Registry) Register(m Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(m.Name())
	if key == "" {
		return fmt.Errorf("module has empty name")
	}
	if _, exists := r.modules[key]; exists {
		return fmt.Errorf("module %q already registered", m.Name())
	}
	r.modules[key] = m
	return nil
}

// Get returns a module by case-insensitive name.
func (r *Registry) Get(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.modules[strings.ToLower(name)]
	return m, ok
}

// List returns all modules sorted by name.
func (r *Registry) List() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Module, 0, len(r.modules))
	for _, m := range r.modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name() < out[j].Name()
	})
	return out
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}

// Info is the JSON-shaped description of a registered module.
type Info struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Commands    []CommandInfo `json:"commands"`
}

// CommandInfo is the JSON-shaped description of a command.
type CommandInfo struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  []schema.Parameter `json:"parameters"`
}

// Describe returns a metadata snapshot of every registered module,
// sorted by name. Used for documentation surfaces.
func (r *Registry) Describe() []Info {
	mods := r.List()

	out := make([]Info, 0, len(mods))
	for _, m := range mods {
		info := Info{
			Name:        m.Name(),
			Description: m.Description(),
		}
		for _, c := range m.Commands() {
			ci := CommandInfo{
				Name:        c.Name,
				Description: c.Description,
				Parameters:  []schema.Parameter{},
			}
			if c.Parameters != nil {
				ci.Parameters = c.Parameters.All()
			}
			info.Commands = append(info.Commands, ci)
		}
		out = append(out, info)
	}
	return out
}
