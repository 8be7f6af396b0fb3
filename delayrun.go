package delayrun

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/loykin/delayrun/internal/config"
	"github.com/loykin/delayrun/internal/element"
	"github.com/loykin/delayrun/internal/event"
	"github.com/loykin/delayrun/internal/history"
	hfactory "github.com/loykin/delayrun/internal/history/factory"
	"github.com/loykin/delayrun/internal/logger"
	"github.com/loykin/delayrun/internal/metrics"
	"github.com/loykin/delayrun/internal/notifier"
	"github.com/loykin/delayrun/internal/observer"
	"github.com/loykin/delayrun/internal/runner"
	iapi "github.com/loykin/delayrun/internal/server"
	"github.com/loykin/delayrun/internal/strategy"
	"github.com/loykin/delayrun/internal/token"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Element = element.Element

type Event = event.Event

type Kind = event.Kind

const (
	KindStarted          = event.KindStarted
	KindElementCompleted = event.KindElementCompleted
	KindCompleted        = event.KindCompleted
	KindError            = event.KindError
)

type Observer = notifier.Observer

type Notifier = notifier.Notifier

type Token = token.Token

type Strategy = strategy.Strategy

type Result = runner.Result

type Hooks = runner.Hooks

type Stats = observer.Stats

type HistorySink = history.Sink

// Built-in strategy names.
const (
	StrategyImmediate = strategy.Immediate
	StrategyDelayed   = strategy.Delayed
)

// NewElement constructs an element with the given delay weight.
func NewElement(weight time.Duration) Element { return element.New(weight) }

// Elements builds an element sequence from raw weights in the given unit.
func Elements(weights []float64, unit time.Duration) []Element {
	return element.FromWeights(weights, unit)
}

// NewToken returns a fresh, untripped cancellation token.
func NewToken() *Token { return token.New() }

// Runner is a thin facade over internal/runner.Runner.
// It provides a stable public API for embedding.

type Runner struct{ inner *runner.Runner }

// RunnerOption mirrors internal runner options on the facade.
type RunnerOption = runner.Option

// WithObserver attaches an observer to every run of the runner being built.
func WithObserver(o Observer) RunnerOption { return runner.WithObserver(o) }

// WithHooks installs before/after run hooks.
func WithHooks(h Hooks) RunnerOption { return runner.WithHooks(h) }

// New builds a runner.
func New(opts ...RunnerOption) *Runner { return &Runner{inner: runner.New(opts...)} }

// Run performs one run. See internal/runner.Runner.Run.
func (r *Runner) Run(ctx context.Context, name string, elems []Element, tok *Token, extra ...Observer) (Result, error) {
	return r.inner.Run(ctx, name, elems, tok, extra...)
}

// Manager facade: runner plus bounded run bookkeeping for diagnostics.

type Manager struct{ inner *runner.Manager }

type RunSummary = runner.Summary

func NewManager(r *Runner, maxRuns int) *Manager {
	var inner *runner.Runner
	if r != nil {
		inner = r.inner
	}
	return &Manager{inner: runner.NewManager(inner, maxRuns)}
}

func (m *Manager) Run(ctx context.Context, name string, elems []Element, tok *Token, extra ...Observer) (RunSummary, Result, error) {
	return m.inner.Run(ctx, name, elems, tok, extra...)
}
func (m *Manager) Runs() []RunSummary              { return m.inner.Runs() }
func (m *Manager) Events(id int64) ([]Event, error) { return m.inner.Events(id) }
func (m *Manager) Stats() Stats                    { return m.inner.Stats() }
func (m *Manager) ResetStats()                     { m.inner.ResetStats() }

// Observer constructors.

type LogConfig = observer.LogConfig

func NewLoggingObserver(c LogConfig) Observer { return observer.NewLogging(c, nil) }
func NewStatisticsObserver() *observer.StatisticsObserver {
	return observer.NewStatistics()
}
func NewHistoryObserver() *observer.HistoryObserver { return observer.NewHistory() }

// NewHistorySink resolves an audit sink from a DSN
// (sqlite/postgres/clickhouse/opensearch).
func NewHistorySink(dsn string) (HistorySink, error) { return hfactory.NewSinkFromDSN(dsn) }

// NewSinkObserver adapts a sink to the Observer interface; sink failures are
// logged and never fault a run.
func NewSinkObserver(sink HistorySink) Observer { return history.NewSinkObserver(sink, nil) }

// RegisterStrategy adds a custom strategy variant to the registry.
func RegisterStrategy(name string, f strategy.Factory) error { return strategy.Register(name, f) }

// Strategies returns the registered strategy names.
func Strategies() []string { return strategy.Names() }

// LoadConfig reads a TOML config file (empty path gives defaults).
func LoadConfig(path string) (*cfg.Config, error) { return cfg.Load(path) }

// LoggerConfig describes the slog stack (level, color, rotating file).
type LoggerConfig = logger.Config

// NewLogger builds a slog.Logger per the config: colored text on stdout plus
// an optional rotating JSON file. The returned close function releases the
// file writer.
func NewLogger(c LoggerConfig, name string) (*slog.Logger, func() error, error) {
	return logger.New(c, name)
}

// NewHTTPServer starts an HTTP server exposing the internal API using the given manager.
func NewHTTPServer(addr, basePath string, m *Manager) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, m.inner)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// NewMetricsObserver returns an observer feeding the Prometheus collectors.
func NewMetricsObserver() Observer { return metrics.NewObserver() }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the default registry.
// It returns any immediate listen error; otherwise it runs the server in the caller goroutine.
func ServeMetrics(addr string) error {
	http.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
