package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "delayrun",
			Subsystem: "run",
			Name:      "runs_total",
			Help:      "Number of finished runs by strategy and result.",
		}, []string{"strategy", "result"},
	)
	runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "delayrun",
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of finished runs.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"strategy"},
	)
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "delayrun",
			Subsystem: "engine",
			Name:      "events_total",
			Help:      "Number of lifecycle events emitted by kind.",
		}, []string{"kind"},
	)
	elementDelay = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "delayrun",
			Subsystem: "engine",
			Name:      "element_delay_seconds",
			Help:      "Observed per-element delay weights.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{runsTotal, runDuration, eventsTotal, elementDelay}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncRun(strategy, result string) {
	if regOK.Load() {
		runsTotal.WithLabelValues(strategy, result).Inc()
	}
}

func ObserveRunDuration(strategy string, seconds float64) {
	if regOK.Load() {
		runDuration.WithLabelValues(strategy).Observe(seconds)
	}
}

func incEvent(kind string) {
	if regOK.Load() {
		eventsTotal.WithLabelValues(kind).Inc()
	}
}

func observeElementDelay(seconds float64) {
	if regOK.Load() {
		elementDelay.Observe(seconds)
	}
}
