package route

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/artpar/modgate/core/events"
	"github.com/artpar/modgate/core/module"
	"github.com/artpar/modgate/core/schema"
)

// Dispatcher executes compiled routes against live module instances.
// It owns the sanitization boundary, the short-circuit/broadcast walk
// over steps and the translation of failures into responses. Errors
// never propagate past Execute.
type Dispatcher struct {
	verbose bool
	logger  zerolog.Logger
	faults  *events.Bus
}

// NewDispatcher creates a dispatcher. In verbose mode an unknown route
// yields a Forbidden response with a message; otherwise a silent
// NoContent, so production deployments leak nothing about the table.
func NewDispatcher(verbose bool, logger zerolog.Logger, faults *events.Bus) *Dispatcher {
	return &Dispatcher{
		verbose: verbose,
		logger:  logger.With().Str("component", "dispatcher").Logger(),
		faults:  faults,
	}
}

// Execute runs the named route against the given table with the raw
// caller argument bag. An empty name returns the table's
// self-description. The table reference is captured for the whole
// call, so a concurrent swap never affects an in-flight execution.
func (d *Dispatcher) Execute(ctx context.Context, table *Table, name string, raw map[string]any) *module.Response {
	if name == "" {
		if table == nil {
			return module.JSON(http.StatusOK, []Description{})
		}
		return module.JSON(http.StatusOK, table.Describe())
	}

	var rt *Route
	if table != nil {
		rt, _ = table.Get(name)
	}
	if rt == nil {
		d.logger.Debug().Str("route", name).Msg("unknown route requested")
		if d.verbose {
			return module.Forbidden(fmt.Sprintf("invalid route %q", name))
		}
		return module.NoContent()
	}

	logger := d.logger.With().
		Str("route", rt.Name).
		Str("exec_id", uuid.NewString()).
		Logger()

	// The only point where caller-supplied data enters module
	// execution. Unknown keys are dropped, never forwarded.
	safe, err := rt.Parameters.Filter(raw, false)
	if err != nil {
		return d.translate(ctx, logger, rt, "", "", err)
	}

	return d.walk(ctx, logger, rt, safe)
}

// walk runs the steps in declared order, strictly sequentially.
func (d *Dispatcher) walk(ctx context.Context, logger zerolog.Logger, rt *Route, safe map[string]any) *module.Response {
	var result *module.Response

	for i, step := range rt.Steps {
		// Static values always win. Compilation already excludes
		// static keys from the parameter list; overwriting here is
		// defense in depth.
		for k, v := range step.StaticArgs {
			safe[k] = v
		}

		resp, err := d.invoke(ctx, step, safe)
		if err != nil {
			return d.translate(ctx, logger, rt, step.Module.Name(), step.Command, err)
		}

		if resp == nil {
			// Step signalled "not applicable"; the running result is
			// untouched.
			continue
		}
		result = resp

		if resp.IsError() {
			// A failing step always aborts the chain, broadcast or not.
			logger.Debug().
				Int("step", i).
				Int("code", resp.Code).
				Msg("route step returned error, stopping chain")
			return resp
		}
		if !rt.Broadcast {
			return resp
		}
	}

	if result != nil {
		return result
	}
	return module.OK()
}

// invoke runs a single step, converting a panic inside the module into
// an ordinary error so it is handled at the dispatcher boundary.
func (d *Dispatcher) invoke(ctx context.Context, step Step, args map[string]any) (resp *module.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s %s: %v", step.Module.Name(), step.Command, r)
		}
	}()
	return step.Module.Execute(ctx, step.Command, args)
}

// translate maps a failure to a caller-facing response. Recognized
// domain errors surface their message; everything else becomes the
// fixed internal-error response and is reported on the fault bus.
func (d *Dispatcher) translate(ctx context.Context, logger zerolog.Logger, rt *Route, modName, command string, err error) *module.Response {
	var derr *module.DomainError
	if errors.As(err, &derr) {
		logger.Warn().Str("reason", derr.Message).Msg("route rejected")
		return module.Forbidden(derr.Message)
	}

	var merr *schema.MissingParameterError
	if errors.As(err, &merr) {
		return module.Forbidden(merr.Error())
	}

	var cerr *schema.CoerceError
	if errors.As(err, &cerr) {
		return module.Forbidden(cerr.Error())
	}

	logger.Error().Err(err).Str("module", modName).Str("command", command).Msg("route step failed")
	if d.faults != nil {
		d.faults.Publish(ctx, events.Event{
			Name:    events.DispatchFault,
			Route:   rt.Name,
			Module:  modName,
			Command: command,
			Err:     err,
		})
	}
	return module.Internal()
}
