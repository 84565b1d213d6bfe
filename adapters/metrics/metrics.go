// Package metrics provides Prometheus metrics collection for modgate.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for modgate.
type Collector struct {
	// Dispatch metrics
	DispatchesTotal  *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec
	StepsTotal       *prometheus.CounterVec

	// Route table metrics
	RoutesLoaded       prometheus.Gauge
	TableReloads       prometheus.Counter
	TableReloadErrors  prometheus.Counter
	ScheduledRunsTotal *prometheus.CounterVec
}

// New creates a new metrics collector with all metrics registered.
func New() *Collector {
	return &Collector{
		DispatchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "modgate",
				Name:      "dispatches_total",
				Help:      "Total number of route dispatches",
			},
			[]string{"route", "code"},
		),
		DispatchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "modgate",
				Name:      "dispatch_duration_seconds",
				Help:      "Route dispatch duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"route"},
		),
		StepsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "modgate",
				Name:      "steps_total",
				Help:      "Total number of module command invocations",
			},
			[]string{"module", "command"},
		),
		RoutesLoaded: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "modgate",
				Name:      "routes_loaded",
				Help:      "Number of routes in the active table",
			},
		),
		TableReloads: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "modgate",
				Name:      "table_reloads_total",
				Help:      "Total number of successful route table rebuilds",
			},
		),
		TableReloadErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "modgate",
				Name:      "table_reload_errors_total",
				Help:      "Total number of rejected route table rebuilds",
			},
		),
		ScheduledRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "modgate",
				Name:      "scheduled_runs_total",
				Help:      "Total number of cron-triggered route executions",
			},
			[]string{"route"},
		),
	}
}

// ObserveDispatch records one route dispatch. Nil-safe so callers can
// run without metrics.
func (c *Collector) ObserveDispatch(route string, code int, duration time.Duration) {
	if c == nil {
		return
	}
	c.DispatchesTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	c.DispatchDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// ObserveReload records the outcome of a table rebuild.
func (c *Collector) ObserveReload(routes int, err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.TableReloadErrors.Inc()
		return
	}
	c.TableReloads.Inc()
	c.RoutesLoaded.Set(float64(routes))
}

// ObserveScheduledRun records a cron-triggered execution.
func (c *Collector) ObserveScheduledRun(route string) {
	if c == nil {
		return
	}
	c.ScheduledRunsTotal.WithLabelValues(route).Inc()
}
