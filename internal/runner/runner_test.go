package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/loykin/delayrun/internal/element"
	"github.com/loykin/delayrun/internal/event"
	"github.com/loykin/delayrun/internal/strategy"
	"github.com/loykin/delayrun/internal/token"
)

type captureObserver struct {
	mu     sync.Mutex
	events []event.Event
}

func (o *captureObserver) OnEvent(e event.Event) {
	o.mu.Lock()
	o.events = append(o.events, e)
	o.mu.Unlock()
}

func (o *captureObserver) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.events)
}

func TestRunnerDelayedRun(t *testing.T) {
	obs := &captureObserver{}
	r := New(WithObserver(obs))

	elems := element.FromWeights([]float64{10, 5}, time.Millisecond)
	res, err := r.Run(context.Background(), strategy.Delayed, elems, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Strategy != strategy.Delayed {
		t.Fatalf("strategy: %s", res.Strategy)
	}
	if len(res.Elements) != 2 {
		t.Fatalf("elements: %d", len(res.Elements))
	}
	if len(res.History) != 4 {
		t.Fatalf("history: %d events", len(res.History))
	}
	if obs.len() != len(res.History) {
		t.Fatalf("observer saw %d events, history has %d", obs.len(), len(res.History))
	}
	if res.Duration <= 0 || res.Started.IsZero() {
		t.Fatalf("timing not recorded: %+v", res)
	}
}

func TestRunnerHooksFire(t *testing.T) {
	var beforeName string
	var beforeCount int
	var afterErr error
	afterCalled := false

	r := New(WithHooks(Hooks{
		BeforeRun: func(name string, count int) { beforeName, beforeCount = name, count },
		AfterRun:  func(res Result, err error) { afterCalled, afterErr = true, err },
	}))

	elems := element.FromWeights([]float64{1}, time.Millisecond)
	if _, err := r.Run(context.Background(), strategy.Immediate, elems, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if beforeName != strategy.Immediate || beforeCount != 1 {
		t.Fatalf("before hook: %q %d", beforeName, beforeCount)
	}
	if !afterCalled || afterErr != nil {
		t.Fatalf("after hook: called=%v err=%v", afterCalled, afterErr)
	}
}

func TestRunnerAfterRunSeesFailure(t *testing.T) {
	var afterErr error
	r := New(WithHooks(Hooks{AfterRun: func(res Result, err error) { afterErr = err }}))

	tok := token.New()
	tok.Trip()
	_, err := r.Run(context.Background(), strategy.Delayed, element.FromWeights([]float64{10}, time.Millisecond), tok)
	if !errors.Is(err, strategy.ErrCancelled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if !errors.Is(afterErr, strategy.ErrCancelled) {
		t.Fatalf("after hook must see the failure, got %v", afterErr)
	}
}

func TestRunnerUnknownStrategy(t *testing.T) {
	r := New()
	_, err := r.Run(context.Background(), "nope", nil, nil)
	if err == nil {
		t.Fatalf("unknown strategy must fail")
	}
}

func TestRunnerExtraObserverScopedToRun(t *testing.T) {
	r := New()
	extra := &captureObserver{}

	elems := element.FromWeights([]float64{1}, time.Millisecond)
	if _, err := r.Run(context.Background(), strategy.Immediate, elems, nil, extra); err != nil {
		t.Fatalf("run: %v", err)
	}
	first := extra.len()
	if first == 0 {
		t.Fatalf("extra observer received nothing")
	}
	if _, err := r.Run(context.Background(), strategy.Immediate, elems, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if extra.len() != first {
		t.Fatalf("per-run observer leaked into the next run")
	}
}

func TestRunnerConcurrentRuns(t *testing.T) {
	r := New()
	elems := element.FromWeights([]float64{5, 10}, time.Millisecond)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Run(context.Background(), strategy.Delayed, elems, nil)
			if err != nil {
				errs <- err
				return
			}
			if len(res.History) != 4 {
				errs <- errors.New("history leaked between concurrent runs")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent run: %v", err)
	}
}
