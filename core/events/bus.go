// Package events provides the observation channel the engine reports
// on: dispatch faults, table reloads, scheduled runs. Subscribers hook
// logging, alerting or test assertions without coupling the engine to
// any particular transport.
package events

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Well-known event names published by the shell.
const (
	DispatchFault  = "dispatch.fault"
	RoutesReloaded = "routes.reloaded"
	RoutesRejected = "routes.rejected"
	ScheduleFired  = "schedule.fired"
)

// Event is a single observation.
type Event struct {
	// Name is the event name (e.g., "dispatch.fault").
	Name string

	// Route is the route involved, if any.
	Route string

	// Module and Command identify the step involved, if any.
	Module  string
	Command string

	// Err carries the underlying error for fault events. It is never
	// surfaced to callers; only subscribers see it.
	Err error

	// Data carries event-specific payload.
	Data map[string]any
}

// Handler processes an event.
type Handler func(ctx context.Context, event Event) error

// Bus is a simple publish/subscribe event bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   zerolog.Logger
}

// NewBus creates a new event bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for an event name.
// Supports wildcard subscriptions:
//   - "dispatch.fault" - exact match
//   - "dispatch.*" - all dispatch events
//   - "*" - all events
func (b *Bus) Subscribe(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

// Publish delivers an event to all matching handlers, synchronously
// and in registration order. Handler errors are logged, never
// propagated: observation must not disturb dispatch.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var matched []Handler

	if handlers, ok := b.handlers[event.Name]; ok {
		matched = append(matched, handlers...)
	}

	if i := strings.IndexByte(event.Name, '.'); i > 0 {
		wildcard := event.Name[:i] + ".*"
		if handlers, ok := b.handlers[wildcard]; ok {
			matched = append(matched, handlers...)
		}
	}

	if handlers, ok := b.handlers["*"]; ok {
		matched = append(matched, handlers...)
	}

	for _, handler := range matched {
		if err := handler(ctx, event); err != nil {
			b.logger.Error().
				Err(err).
				Str("event", event.Name).
				Msg("event handler error")
		}
	}
}

// PublishAsync delivers an event in a background goroutine.
func (b *Bus) PublishAsync(ctx context.Context, event Event) {
	go b.Publish(ctx, event)
}

// HasSubscribers reports whether any handler would receive the event.
func (b *Bus) HasSubscribers(event string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.handlers[event]) > 0 {
		return true
	}
	if i := strings.IndexByte(event, '.'); i > 0 {
		if len(b.handlers[event[:i]+".*"]) > 0 {
			return true
		}
	}
	return len(b.handlers["*"]) > 0
}
