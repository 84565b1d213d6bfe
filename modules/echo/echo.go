// Package echo provides utility commands for examples, smoke tests and
// route experiments.
package echo

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/artpar/modgate/core/module"
	"github.com/artpar/modgate/core/schema"
)

// Module implements simple diagnostic commands.
type Module struct {
	module.CommandSet
	start   time.Time
	version string
}

// New creates the echo module.
func New(version string) *Module {
	sayParams := schema.NewParameterList(
		schema.Parameter{Name: "text", Type: schema.TypeString, Description: "text to echo back"},
		schema.Parameter{Name: "repeat", Type: schema.TypeInt, Description: "times to repeat", Optional: true, Default: 1},
	)
	failParams := schema.NewParameterList(
		schema.Parameter{Name: "code", Type: schema.TypeInt, Description: "status code to return", Optional: true, Default: 500},
		schema.Parameter{Name: "message", Type: schema.TypeString, Description: "error body", Optional: true},
	)

	return &Module{
		CommandSet: module.NewCommandSet(
			module.Command{Name: "say", Description: "echo the given text", Parameters: sayParams},
			module.Command{Name: "status", Description: "report shell status"},
			module.Command{Name: "fail", Description: "return a configurable error", Parameters: failParams},
			module.Command{Name: "ping", Description: "empty success"},
		),
		start:   time.Now(),
		version: version,
	}
}

func (m *Module) Name() string        { return "echo" }
func (m *Module) Description() string { return "diagnostic and example commands" }

// Execute runs an echo command.
func (m *Module) Execute(ctx context.Context, command string, args map[string]any) (*module.Response, error) {
	switch command {
	case "say":
		text, _ := args["text"].(string)
		repeat, _ := args["repeat"].(int)
		if repeat < 1 {
			repeat = 1
		}
		out := ""
		for i := 0; i < repeat; i++ {
			if i > 0 {
				out += " "
			}
			out += text
		}
		return module.Text(http.StatusOK, out), nil

	case "status":
		return module.JSON(http.StatusOK, map[string]any{
			"version":    m.version,
			"uptime":     time.Since(m.start).Round(time.Second).String(),
			"go":         runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		}), nil

	case "fail":
		code, _ := args["code"].(int)
		if code < 400 || code > 599 {
			code = http.StatusInternalServerError
		}
		msg, _ := args["message"].(string)
		if msg == "" {
			msg = http.StatusText(code)
		}
		return module.Text(code, msg), nil

	case "ping":
		return module.NoContent(), nil
	}

	return nil, module.Domainf("echo: unknown command %q", command)
}
