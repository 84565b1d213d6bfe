// Package schema defines the parameter declarations exposed by module
// commands and the filtering that sanitizes caller-supplied arguments
// against them. Filtering is the only point where raw caller input is
// allowed to reach a module.
package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// ParamType is the declared type of a command parameter.
type ParamType string

const (
	TypeString ParamType = "string"
	TypeInt    ParamType = "int"
	TypeFloat  ParamType = "float"
	TypeBool   ParamType = "bool"
)

// Parameter describes a single named argument accepted by a command.
type Parameter struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description,omitempty"`
	Optional    bool      `json:"optional,omitempty"`
	Default     any       `json:"default,omitempty"`
}

// Required reports whether the caller must supply this parameter.
// A parameter with a default is never required.
func (p Parameter) Required() bool {
	return !p.Optional && p.Default == nil
}

// MissingParameterError reports a required parameter absent from the
// argument bag during strict filtering.
type MissingParameterError struct {
	Name string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Name)
}

// CoerceError reports a supplied value that cannot be converted to the
// parameter's declared type.
type CoerceError struct {
	Name string
	Type ParamType
}

func (e *CoerceError) Error() string {
	return fmt.Sprintf("parameter %q is not a valid %s", e.Name, e.Type)
}

// ParameterList is an ordered set of parameters, unique by
// case-insensitive name. The zero value is ready to use.
type ParameterList struct {
	params []Parameter
	index  map[string]int // lowercased name -> position in params
}

// NewParameterList builds a list from the given parameters.
// Later duplicates (by case-insensitive name) are dropped.
func NewParameterList(params ...Parameter) *ParameterList {
	l := &ParameterList{}
	for _, p := range params {
		l.Add(p)
	}
	return l
}

// Add appends a parameter, preserving insertion order.
// It returns false if a parameter with the same name already exists.
func (l *ParameterList) Add(p Parameter) bool {
	key := strings.ToLower(p.Name)
	if l.index == nil {
		l.index = make(map[string]int)
	}
	if _, exists := l.index[key]; exists {
		return false
	}
	l.index[key] = len(l.params)
	l.params = append(l.params, p)
	return true
}

// Has reports whether a parameter with the given name exists.
func (l *ParameterList) Has(name string) bool {
	_, ok := l.index[strings.ToLower(name)]
	return ok
}

// Get returns the parameter with the given name.
func (l *ParameterList) Get(name string) (Parameter, bool) {
	i, ok := l.index[strings.ToLower(name)]
	if !ok {
		return Parameter{}, false
	}
	return l.params[i], true
}

// Remove deletes the parameter with the given name, preserving the
// order of the remaining parameters.
func (l *ParameterList) Remove(name string) bool {
	key := strings.ToLower(name)
	i, ok := l.index[key]
	if !ok {
		return false
	}
	l.params = append(l.params[:i], l.params[i+1:]...)
	delete(l.index, key)
	for k, pos := range l.index {
		if pos > i {
			l.index[k] = pos - 1
		}
	}
	return true
}

// Len returns the number of parameters.
func (l *ParameterList) Len() int {
	return len(l.params)
}

// All returns the parameters in declaration order.
func (l *ParameterList) All() []Parameter {
	out := make([]Parameter, len(l.params))
	copy(out, l.params)
	return out
}

// Filter validates a raw argument bag against the list and returns the
// sanitized bag. Keys not declared in the list are silently dropped;
// declared keys are coerced to their declared type. A missing required
// parameter fails with MissingParameterError in strict mode and falls
// back to the declared default otherwise.
func (l *ParameterList) Filter(raw map[string]any, strict bool) (map[string]any, error) {
	lowered := make(map[string]any, len(raw))
	for k, v := range raw {
		lowered[strings.ToLower(k)] = v
	}

	safe := make(map[string]any, len(l.params))
	for _, p := range l.params {
		val, present := lowered[strings.ToLower(p.Name)]
		if !present {
			if p.Default != nil {
				safe[p.Name] = p.Default
				continue
			}
			if !p.Optional && strict {
				return nil, &MissingParameterError{Name: p.Name}
			}
			continue
		}

		coerced, err := Coerce(p.Name, val, p.Type)
		if err != nil {
			return nil, err
		}
		safe[p.Name] = coerced
	}
	return safe, nil
}

// Coerce converts a raw value to the given parameter type.
func Coerce(name string, val any, typ ParamType) (any, error) {
	switch typ {
	case TypeString, "":
		switch v := val.(type) {
		case string:
			return v, nil
		case fmt.Stringer:
			return v.String(), nil
		default:
			return fmt.Sprintf("%v", v), nil
		}

	case TypeInt:
		switch v := val.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			if v == float64(int(v)) {
				return int(v), nil
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n, nil
			}
		}
		return nil, &CoerceError{Name: name, Type: typ}

	case TypeFloat:
		switch v := val.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, nil
			}
		}
		return nil, &CoerceError{Name: name, Type: typ}

	case TypeBool:
		switch v := val.(type) {
		case bool:
			return v, nil
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return b, nil
			}
		}
		return nil, &CoerceError{Name: name, Type: typ}
	}

	return nil, &CoerceError{Name: name, Type: typ}
}
