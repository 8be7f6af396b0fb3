package runner

import (
	"context"
	"time"

	"github.com/loykin/delayrun/internal/element"
	"github.com/loykin/delayrun/internal/event"
	"github.com/loykin/delayrun/internal/notifier"
	"github.com/loykin/delayrun/internal/strategy"
	"github.com/loykin/delayrun/internal/token"
)

// Hooks are optional extension points around a run. Neither hook is required
// to do anything; a concrete runner may log, collect metrics, etc. AfterRun
// runs even when the strategy failed.
type Hooks struct {
	BeforeRun func(strategyName string, count int)
	AfterRun  func(res Result, err error)
}

// Result is the outcome of one run. Elements are in completion order.
// History is the full emitted event log, available for both successful and
// failed runs.
type Result struct {
	Strategy string            `json:"strategy"`
	Elements []element.Element `json:"elements"`
	History  []event.Event     `json:"history"`
	Started  time.Time         `json:"started"`
	Duration time.Duration     `json:"duration"`
}

// Runner orchestrates runs: resolve strategy, build a fresh notifier,
// attach observers, execute, return the result or the failure. A Runner
// carries no state between runs; each Run call is independent and distinct
// Runner instances may run concurrently.
type Runner struct {
	hooks     Hooks
	observers []notifier.Observer
}

// Option customizes a Runner.
type Option func(*Runner)

// WithObserver attaches an observer to every run this runner performs.
func WithObserver(o notifier.Observer) Option {
	return func(r *Runner) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// WithHooks installs the before/after run hooks.
func WithHooks(h Hooks) Option {
	return func(r *Runner) { r.hooks = h }
}

// New builds a runner.
func New(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs one run of the named strategy over elems. tok may be nil for
// a non-cancellable run; extra observers are attached for this run only.
//
// On failure the returned Result still carries the history emitted up to
// the failure point. A strategy resolution or validation failure emits no
// events at all.
func (r *Runner) Run(ctx context.Context, name string, elems []element.Element, tok *token.Token, extra ...notifier.Observer) (Result, error) {
	strat, err := strategy.New(name)
	if err != nil {
		return Result{Strategy: name}, err
	}

	if r.hooks.BeforeRun != nil {
		r.hooks.BeforeRun(name, len(elems))
	}

	n := notifier.New(name)
	for _, o := range r.observers {
		n.Attach(o)
	}
	for _, o := range extra {
		n.Attach(o)
	}

	started := time.Now()
	out, execErr := strat.Execute(ctx, elems, n, tok)
	res := Result{
		Strategy: name,
		Elements: out,
		History:  n.History(),
		Started:  started.UTC(),
		Duration: time.Since(started),
	}

	if r.hooks.AfterRun != nil {
		r.hooks.AfterRun(res, execErr)
	}
	return res, execErr
}
