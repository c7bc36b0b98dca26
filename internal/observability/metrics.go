// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/forecast"
	"clmm-backtest/internal/simulation"
)

// Metrics holds all Prometheus metrics for the application.
// It implements simulation.EventSink and is safe for concurrent runs.
type Metrics struct {
	// Simulation metrics
	StepsTotal            prometheus.Counter
	SwapsAttributed       prometheus.Counter
	FeesAccrued           *prometheus.CounterVec
	AllocationsTotal      prometheus.Counter
	ResetsTotal           *prometheus.CounterVec
	VolatilityChecksTotal *prometheus.CounterVec
	ForecastStdDev        prometheus.Gauge

	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram
	SweepCells  *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered on reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "clmm_backtest"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Simulation metrics
		StepsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "steps_total",
			Help:      "Total number of simulated steps after initial deployment",
		}),
		SwapsAttributed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "swaps_total",
			Help:      "Total number of swaps offered to fee attribution",
		}),
		FeesAccrued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "fees_accrued_total",
			Help:      "Fees accrued by the strategy, in human token units",
		}, []string{"token"}),
		AllocationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "allocations_total",
			Help:      "Total number of base/limit deployments",
		}),
		ResetsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "resets_total",
			Help:      "Total number of resets by trigger",
		}, []string{"trigger"}),
		VolatilityChecksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "volatility_checks_total",
			Help:      "Total number of scheduled volatility checks by outcome",
		}, []string{"outcome"}),
		ForecastStdDev: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "forecast_stddev",
			Help:      "Return std of the most recent deployment forecast",
		}),

		// Run metrics
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "total",
			Help:      "Total number of backtest runs by status",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "duration_seconds",
			Help:      "Backtest run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}),
		SweepCells: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "cells_total",
			Help:      "Total number of parameter sweep cells by status",
		}, []string{"status"}),

		// Health metrics
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful run",
		}),
	}
}

// NewRegistry returns a registry with the Go and process collectors attached.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns an HTTP handler for the /metrics endpoint of the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor returns an HTTP handler for the /metrics endpoint of g.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Emit implements simulation.EventSink.
func (m *Metrics) Emit(e simulation.Event) {
	switch e.Kind {
	case simulation.EventFeesAccrued:
		m.StepsTotal.Inc()
		m.SwapsAttributed.Add(float64(e.Swaps))
		addFinite(m.FeesAccrued.WithLabelValues("token0"), e.Fee0)
		addFinite(m.FeesAccrued.WithLabelValues("token1"), e.Fee1)
	case simulation.EventAllocated:
		m.AllocationsTotal.Inc()
		m.ForecastStdDev.Set(e.Forecast.StdDev())
	case simulation.EventVolatilityChecked:
		outcome := "stable"
		if e.Triggers.Has(domain.TriggerVolatilityDecay) {
			outcome = "decayed"
		}
		m.VolatilityChecksTotal.WithLabelValues(outcome).Inc()
	case simulation.EventReset:
		for _, trigger := range []domain.ResetTrigger{
			domain.TriggerBandBreach,
			domain.TriggerImbalance,
			domain.TriggerVolatilityDecay,
		} {
			if e.Triggers.Has(trigger) {
				m.ResetsTotal.WithLabelValues(trigger.String()).Inc()
			}
		}
	}
}

// ObserveRun records a finished run with its duration and outcome.
func (m *Metrics) ObserveRun(duration time.Duration, err error) {
	m.RunDuration.Observe(duration.Seconds())
	status := RunStatus(err)
	m.RunsTotal.WithLabelValues(status).Inc()
	if status == "ok" {
		m.LastSuccessfulRun.Set(float64(time.Now().Unix()))
	}
}

// ObserveSweepCell records one parameter sweep cell.
func (m *Metrics) ObserveSweepCell(err error) {
	m.SweepCells.WithLabelValues(RunStatus(err)).Inc()
}

// RunStatus classifies a run error into a low-cardinality label.
func RunStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, simulation.ErrInvalidInput),
		errors.Is(err, simulation.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidParams):
		return "invalid_input"
	case errors.Is(err, forecast.ErrNoConvergence),
		errors.Is(err, forecast.ErrInsufficientHistory),
		errors.Is(err, forecast.ErrInvalidHistory):
		return "forecast_error"
	default:
		return "error"
	}
}

func addFinite(c prometheus.Counter, v float64) {
	if v > 0 && !math.IsInf(v, 0) {
		c.Add(v)
	}
}

var _ simulation.EventSink = (*Metrics)(nil)
