// Package app provides application services that orchestrate the
// route engine: table lifecycle, dispatch accounting and scheduling.
package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/artpar/modgate/adapters/metrics"
	"github.com/artpar/modgate/core/events"
	"github.com/artpar/modgate/core/module"
	"github.com/artpar/modgate/core/route"
)

// RouteService owns the compiled route table. Rebuilds happen fully
// off to the side and are installed with one atomic swap, so dispatch
// never observes a partially built table; a failed rebuild leaves the
// previous table in effect.
type RouteService struct {
	registry   *module.Registry
	dispatcher *route.Dispatcher
	bus        *events.Bus
	metrics    *metrics.Collector
	logger     zerolog.Logger

	table atomic.Pointer[route.Table]

	// Guards cron rebuilds; dispatch never takes this lock.
	mu   sync.Mutex
	cron *cron.Cron
}

// NewRouteService creates a route service. The metrics collector may
// be nil.
func NewRouteService(
	registry *module.Registry,
	dispatcher *route.Dispatcher,
	bus *events.Bus,
	m *metrics.Collector,
	logger zerolog.Logger,
) *RouteService {
	return &RouteService{
		registry:   registry,
		dispatcher: dispatcher,
		bus:        bus,
		metrics:    m,
		logger:     logger.With().Str("service", "route").Logger(),
	}
}

// Reload compiles the given specs against the registry's current
// command metadata and atomically swaps the new table in. On any
// error the previous table (and schedule set) stays live. In-flight
// executions keep the table reference they captured.
func (s *RouteService) Reload(specs []route.Spec) error {
	table, err := route.Compile(specs, s.registry)
	if err != nil {
		s.metrics.ObserveReload(0, err)
		s.logger.Error().Err(err).Msg("route table rebuild rejected")
		s.bus.Publish(context.Background(), events.Event{
			Name: events.RoutesRejected,
			Err:  err,
		})
		return err
	}

	// Validate schedules before the swap so a bad cron expression
	// cannot retire a working table.
	entries, err := scheduleEntries(table)
	if err != nil {
		s.metrics.ObserveReload(0, err)
		s.logger.Error().Err(err).Msg("route table rebuild rejected")
		s.bus.Publish(context.Background(), events.Event{
			Name: events.RoutesRejected,
			Err:  err,
		})
		return err
	}

	s.table.Store(table)
	s.rebuildSchedules(entries)

	s.metrics.ObserveReload(table.Len(), nil)
	s.logger.Info().
		Int("routes", table.Len()).
		Int("scheduled", len(entries)).
		Msg("route table reloaded")
	s.bus.Publish(context.Background(), events.Event{
		Name: events.RoutesReloaded,
		Data: map[string]any{"routes": table.Len()},
	})
	return nil
}

// Execute dispatches the named route with the raw caller arguments.
func (s *RouteService) Execute(ctx context.Context, name string, raw map[string]any) *module.Response {
	start := time.Now()
	resp := s.dispatcher.Execute(ctx, s.table.Load(), name, raw)
	s.metrics.ObserveDispatch(name, resp.Code, time.Since(start))
	return resp
}

// Table returns the active compiled table, or nil before the first
// successful reload.
func (s *RouteService) Table() *route.Table {
	return s.table.Load()
}

// Modules describes every registered module and its command table.
func (s *RouteService) Modules() []module.Info {
	return s.registry.Describe()
}

// Stop halts the schedule runner. The table stays readable.
func (s *RouteService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
}

type scheduleEntry struct {
	route    string
	schedule cron.Schedule
	spec     string
}

// scheduleEntries extracts and validates the cron entries of a table.
func scheduleEntries(table *route.Table) ([]scheduleEntry, error) {
	var entries []scheduleEntry
	for _, name := range table.Names() {
		rt, _ := table.Get(name)
		if rt.Schedule == "" {
			continue
		}
		sched, err := cron.ParseStandard(rt.Schedule)
		if err != nil {
			return nil, fmt.Errorf("route %q: bad schedule %q: %w", rt.Name, rt.Schedule, err)
		}
		entries = append(entries, scheduleEntry{route: rt.Name, schedule: sched, spec: rt.Schedule})
	}
	return entries, nil
}

// rebuildSchedules replaces the running cron set with the given
// entries. Scheduled executions run with an empty argument bag.
func (s *RouteService) rebuildSchedules(entries []scheduleEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
	if len(entries) == 0 {
		return
	}

	c := cron.New()
	for _, e := range entries {
		name := e.route
		c.Schedule(e.schedule, cron.FuncJob(func() {
			s.logger.Debug().Str("route", name).Msg("scheduled route fired")
			s.metrics.ObserveScheduledRun(name)
			s.bus.Publish(context.Background(), events.Event{
				Name:  events.ScheduleFired,
				Route: name,
			})
			resp := s.Execute(context.Background(), name, map[string]any{})
			if resp.IsError() {
				s.logger.Warn().
					Str("route", name).
					Int("code", resp.Code).
					Msg("scheduled route returned error")
			}
		}))
	}
	c.Start()
	s.cron = c
}
