// Package module defines the contract between the route engine and the
// feature modules it dispatches to, and the registry holding the live
// module instances.
package module

import (
	"context"
	"fmt"
	"strings"

	"github.com/artpar/modgate/core/schema"
)

// Command describes a single operation exposed by a module, including
// the parameters it declares. The compiler reads this metadata once
// per table rebuild.
type Command struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Parameters  *schema.ParameterList `json:"-"`
}

// Module is an independently registered feature unit. Its internals
// are opaque to the engine; only the command table and Execute matter.
type Module interface {
	// Name returns the unique module name used in route paths.
	Name() string

	// Description returns a short human-readable description.
	Description() string

	// Has reports whether the module exposes a command, matched
	// case-insensitively.
	Has(command string) bool

	// Commands returns the command table metadata snapshot.
	Commands() []Command

	// Execute runs a command with sanitized arguments. A nil response
	// with a nil error means "not applicable": the route chain
	// continues without altering its running result.
	Execute(ctx context.Context, command string, args map[string]any) (*Response, error)
}

// DomainError is an application-level failure whose message is safe to
// surface to callers. The dispatcher translates it to a Forbidden
// response; every other error becomes a generic internal error.
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Domainf builds a DomainError from a format string.
func Domainf(format string, args ...any) *DomainError {
	return &DomainError{Message: fmt.Sprintf(format, args...)}
}

// CommandSet implements the command-table half of the Module interface.
// Modules embed it and keep Execute to themselves.
type CommandSet struct {
	commands []Command
}

// NewCommandSet builds a command set from the given commands.
func NewCommandSet(commands ...Command) CommandSet {
	return CommandSet{commands: commands}
}

// Has reports whether a command exists, case-insensitively.
func (s CommandSet) Has(name string) bool {
	_, ok := s.Find(name)
	return ok
}

// Find returns the command with the given name, case-insensitively.
func (s CommandSet) Find(name string) (Command, bool) {
	for _, c := range s.commands {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Command{}, false
}

// Commands returns the command table.
func (s CommandSet) Commands() []Command {
	out := make([]Command, len(s.commands))
	copy(out, s.commands)
	return out
}
