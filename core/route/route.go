// Package route compiles declarative route specifications into
// executable multi-step pipelines and dispatches them against live
// module instances.
//
// A route is an ordered list of "<module> <command> [--flag value]"
// steps. Compilation resolves module references, validates commands,
// parses compiled-in static arguments and infers the aggregate
// caller-settable parameter list. Dispatch runs the compiled steps
// sequentially with security-filtered arguments.
package route

import (
	"sort"
	"strings"

	"github.com/artpar/modgate/core/module"
	"github.com/artpar/modgate/core/schema"
)

// Spec is the raw, configuration-shaped definition of a route.
type Spec struct {
	Name        string
	Description string
	Broadcast   bool
	Schedule    string
	Paths       []string
}

// Step is one compiled pipeline stage: a resolved module reference, a
// validated lowercased command and the static arguments compiled into
// the route definition. The module reference is borrowed from the
// registry; the route does not own its lifetime.
type Step struct {
	Module     module.Module
	Command    string
	StaticArgs map[string]any
}

// Route is a compiled pipeline. Immutable once built; mutation is only
// ever whole-table replacement.
type Route struct {
	Name        string
	Description string
	Broadcast   bool
	Schedule    string

	// Parameters is the de-duplicated union of every step command's
	// declared parameters, minus any name bound by a step's static
	// arguments. It is the sole sanitization boundary for caller input.
	Parameters *schema.ParameterList

	Steps []Step
}

// Table maps lowercased route names to compiled routes. A table is
// built fresh per reload and swapped atomically; it is never mutated
// while serving.
type Table struct {
	routes map[string]*Route
}

// Get returns the route with the given name, case-insensitively.
func (t *Table) Get(name string) (*Route, bool) {
	r, ok := t.routes[strings.ToLower(name)]
	return r, ok
}

// Names returns all route names, sorted.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.routes))
	for name := range t.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of compiled routes.
func (t *Table) Len() int {
	return len(t.routes)
}

// Description is the JSON-shaped self-description of a compiled route,
// used to render API documentation.
type Description struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Broadcast   bool               `json:"broadcast,omitempty"`
	Schedule    string             `json:"schedule,omitempty"`
	Parameters  []schema.Parameter `json:"parameters"`
	Steps       []string           `json:"steps"`
}

// Describe returns the self-description of every route, sorted by name.
func (t *Table) Describe() []Description {
	out := make([]Description, 0, len(t.routes))
	for _, name := range t.Names() {
		r := t.routes[name]
		d := Description{
			Name:        r.Name,
			Description: r.Description,
			Broadcast:   r.Broadcast,
			Schedule:    r.Schedule,
			Parameters:  r.Parameters.All(),
		}
		for _, step := range r.Steps {
			d.Steps = append(d.Steps, step.Module.Name()+" "+step.Command)
		}
		out = append(out, d)
	}
	return out
}
