package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/loykin/delayrun/internal/element"
	"github.com/loykin/delayrun/internal/event"
	"github.com/loykin/delayrun/internal/metrics"
	"github.com/loykin/delayrun/internal/notifier"
	"github.com/loykin/delayrun/internal/observer"
	"github.com/loykin/delayrun/internal/token"
)

// DefaultMaxRuns bounds the number of retained run records when the caller
// passes no limit.
const DefaultMaxRuns = 64

// Summary is a lightweight view of one finished run, kept for diagnostics
// surfaces (HTTP API, CLI).
type Summary struct {
	ID        int64  `json:"id"`
	Strategy  string `json:"strategy"`
	StartedAt string `json:"started_at"`
	Duration  string `json:"duration"`
	Elements  int    `json:"elements"`
	Completed int    `json:"completed"`
	Result    string `json:"result"`
	Error     string `json:"error,omitempty"`
	Events    int    `json:"events"`
}

type runRecord struct {
	summary Summary
	history []event.Event
}

// Manager wraps a Runner and retains bounded summaries of recent runs plus
// an aggregate statistics observer attached to every run. Finished runs are
// also counted into the run-level metric collectors. It is safe for
// concurrent use; concurrent runs each get their own notifier.
type Manager struct {
	runner *Runner
	stats  *observer.StatisticsObserver

	mu   sync.Mutex
	seq  int64
	runs []runRecord
	max  int
}

// NewManager builds a manager around the given runner. maxRuns <= 0 selects
// DefaultMaxRuns.
func NewManager(r *Runner, maxRuns int) *Manager {
	if r == nil {
		r = New()
	}
	if maxRuns <= 0 {
		maxRuns = DefaultMaxRuns
	}
	return &Manager{runner: r, stats: observer.NewStatistics(), max: maxRuns}
}

// Runner returns the underlying runner.
func (m *Manager) Runner() *Runner { return m.runner }

// Stats returns the aggregate statistics snapshot across all managed runs.
func (m *Manager) Stats() observer.Stats { return m.stats.Snapshot() }

// ResetStats zeroes the aggregate statistics.
func (m *Manager) ResetStats() { m.stats.Reset() }

// Run executes one run and records its summary and history.
func (m *Manager) Run(ctx context.Context, name string, elems []element.Element, tok *token.Token, extra ...notifier.Observer) (Summary, Result, error) {
	obs := append([]notifier.Observer{m.stats}, extra...)
	res, err := m.runner.Run(ctx, name, elems, tok, obs...)

	completed := 0
	for _, e := range res.History {
		if e.Kind == event.KindElementCompleted {
			completed++
		}
	}

	sum := Summary{
		Strategy:  name,
		StartedAt: res.Started.Format("2006-01-02T15:04:05.000Z07:00"),
		Duration:  res.Duration.String(),
		Elements:  len(elems),
		Completed: completed,
		Events:    len(res.History),
		Result:    "ok",
	}
	if err != nil {
		sum.Result = "error"
		sum.Error = err.Error()
	}

	metrics.IncRun(name, sum.Result)
	metrics.ObserveRunDuration(name, res.Duration.Seconds())

	m.mu.Lock()
	m.seq++
	sum.ID = m.seq
	m.runs = append(m.runs, runRecord{summary: sum, history: res.History})
	if len(m.runs) > m.max {
		m.runs = m.runs[len(m.runs)-m.max:]
	}
	m.mu.Unlock()

	return sum, res, err
}

// Runs returns summaries of retained runs, newest last.
func (m *Manager) Runs() []Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Summary, 0, len(m.runs))
	for _, rec := range m.runs {
		out = append(out, rec.summary)
	}
	return out
}

// Events returns the emitted event history of a retained run by id.
func (m *Manager) Events(id int64) ([]event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.runs {
		if rec.summary.ID == id {
			out := make([]event.Event, len(rec.history))
			copy(out, rec.history)
			return out, nil
		}
	}
	return nil, fmt.Errorf("run %d not found", id)
}
