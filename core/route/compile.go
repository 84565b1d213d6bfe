package route

import (
	"fmt"
	"strings"

	"github.com/artpar/modgate/core/module"
	"github.com/artpar/modgate/core/schema"
)

// ConfigError reports a malformed route specification. Compilation is
// all-or-nothing: any ConfigError aborts the whole table rebuild and
// the caller keeps its previous table.
type ConfigError struct {
	Route  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Route == "" {
		return e.Reason
	}
	return fmt.Sprintf("route %q: %s", e.Route, e.Reason)
}

// Compile builds a route table from specs, resolving every step
// against the registry's command metadata at call time. Specs are
// processed in slice order; a later spec with the same lowercased name
// overwrites an earlier one.
func Compile(specs []Spec, reg *module.Registry) (*Table, error) {
	table := &Table{routes: make(map[string]*Route, len(specs))}

	for i, spec := range specs {
		r, err := compileRoute(i, spec, reg)
		if err != nil {
			return nil, err
		}
		table.routes[strings.ToLower(spec.Name)] = r
	}
	return table, nil
}

func compileRoute(index int, spec Spec, reg *module.Registry) (*Route, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, &ConfigError{Reason: fmt.Sprintf("invalid route name at index %d", index)}
	}
	if len(spec.Paths) == 0 {
		return nil, &ConfigError{Route: spec.Name, Reason: "route needs at least one path"}
	}

	r := &Route{
		Name:        spec.Name,
		Description: spec.Description,
		Broadcast:   spec.Broadcast,
		Schedule:    spec.Schedule,
		Parameters:  schema.NewParameterList(),
		Steps:       make([]Step, 0, len(spec.Paths)),
	}

	// Names bound by any step's static arguments, lowercased. These
	// must never reappear as caller-settable parameters.
	staticKeys := make(map[string]struct{})

	for i, path := range spec.Paths {
		tokens := strings.Fields(path)
		if len(tokens) == 0 {
			return nil, &ConfigError{Route: spec.Name, Reason: fmt.Sprintf("missing command at path index %d", i)}
		}

		mod, ok := reg.Get(tokens[0])
		if !ok {
			return nil, &ConfigError{Route: spec.Name, Reason: fmt.Sprintf("module %s does not exist", tokens[0])}
		}
		if len(tokens) < 2 {
			return nil, &ConfigError{Route: spec.Name, Reason: fmt.Sprintf("missing command at path index %d", i)}
		}

		command := strings.ToLower(tokens[1])
		cmd, ok := findCommand(mod, command)
		if !ok {
			return nil, &ConfigError{Route: spec.Name, Reason: fmt.Sprintf("invalid command at path index %d", i)}
		}

		staticArgs, err := ParseArgs(tokens[2:])
		if err != nil {
			return nil, &ConfigError{Route: spec.Name, Reason: fmt.Sprintf("bad arguments at path index %d: %v", i, err)}
		}

		// Static keys are rebound to the declared parameter name and
		// their values coerced now, so a mixed-case flag or bad value
		// rejects or normalizes at rebuild instead of surfacing at
		// dispatch time. Keys the command does not declare are
		// lowercased and forwarded as strings.
		normalized := make(map[string]any, len(staticArgs))
		for key, val := range staticArgs {
			if cmd.Parameters != nil {
				if p, ok := cmd.Parameters.Get(key); ok {
					coerced, err := schema.Coerce(p.Name, val, p.Type)
					if err != nil {
						return nil, &ConfigError{Route: spec.Name, Reason: fmt.Sprintf("bad arguments at path index %d: %v", i, err)}
					}
					normalized[p.Name] = coerced
					continue
				}
			}
			normalized[strings.ToLower(key)] = val
		}
		staticArgs = normalized

		// Accumulate the aggregate parameter list, first-seen order.
		if cmd.Parameters != nil {
			for _, p := range cmd.Parameters.All() {
				r.Parameters.Add(p)
			}
		}
		for key := range staticArgs {
			staticKeys[strings.ToLower(key)] = struct{}{}
		}

		r.Steps = append(r.Steps, Step{
			Module:     mod,
			Command:    command,
			StaticArgs: staticArgs,
		})
	}

	// Static values are compiled in; remove them from the exposed
	// parameter list so callers can never override them.
	for key := range staticKeys {
		r.Parameters.Remove(key)
	}

	return r, nil
}

func findCommand(mod module.Module, name string) (module.Command, bool) {
	for _, c := range mod.Commands() {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return module.Command{}, false
}
