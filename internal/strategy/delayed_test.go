package strategy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/loykin/delayrun/internal/element"
	"github.com/loykin/delayrun/internal/event"
	"github.com/loykin/delayrun/internal/notifier"
	"github.com/loykin/delayrun/internal/token"
)

func kinds(events []event.Event) []event.Kind {
	out := make([]event.Kind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}

func TestDelayedCompletesAllElements(t *testing.T) {
	elems := element.FromWeights([]float64{30, 10, 20}, time.Millisecond)
	n := notifier.New(Delayed)
	s := &DelayedStrategy{}

	out, err := s.Execute(context.Background(), elems, n, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 completed elements, got %d", len(out))
	}

	h := n.History()
	if len(h) != 5 {
		t.Fatalf("expected 5 events, got %d: %v", len(h), kinds(h))
	}
	if h[0].Kind != event.KindStarted {
		t.Fatalf("first event must be started, got %s", h[0].Kind)
	}
	if h[len(h)-1].Kind != event.KindCompleted {
		t.Fatalf("last event must be completed, got %s", h[len(h)-1].Kind)
	}

	// Each original index appears exactly once with its own weight as delay.
	seen := map[int]time.Duration{}
	for _, e := range h {
		if e.Kind != event.KindElementCompleted {
			continue
		}
		if _, dup := seen[e.Index]; dup {
			t.Fatalf("index %d completed twice", e.Index)
		}
		seen[e.Index] = e.Delay
	}
	for i, el := range elems {
		if seen[i] != el.Weight {
			t.Fatalf("index %d: delay %s, want %s", i, seen[i], el.Weight)
		}
	}
}

func TestDelayedFiringOrderFollowsWeights(t *testing.T) {
	// Generous spacing so scheduler jitter cannot reorder.
	elems := element.FromWeights([]float64{120, 20, 70}, time.Millisecond)
	n := notifier.New(Delayed)
	s := &DelayedStrategy{}

	out, err := s.Execute(context.Background(), elems, n, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	want := []time.Duration{20 * time.Millisecond, 70 * time.Millisecond, 120 * time.Millisecond}
	for i, el := range out {
		if el.Weight != want[i] {
			t.Fatalf("completion order[%d] = %s, want %s", i, el.Weight, want[i])
		}
	}
}

func TestDelayedEmptySequence(t *testing.T) {
	n := notifier.New(Delayed)
	s := &DelayedStrategy{}

	out, err := s.Execute(context.Background(), nil, n, token.New())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty (non-nil) result, got %#v", out)
	}

	h := kinds(n.History())
	if len(h) != 2 || h[0] != event.KindStarted || h[1] != event.KindCompleted {
		t.Fatalf("expected [started completed], got %v", h)
	}
}

func TestDelayedZeroWeights(t *testing.T) {
	elems := element.FromWeights([]float64{0, 0, 0}, time.Millisecond)
	n := notifier.New(Delayed)
	s := &DelayedStrategy{}

	out, err := s.Execute(context.Background(), elems, n, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 completions, got %d", len(out))
	}
}

func TestDelayedCancellationMidRun(t *testing.T) {
	elems := element.FromWeights([]float64{500, 1000}, time.Millisecond)
	n := notifier.New(Delayed)
	s := &DelayedStrategy{}
	tok := token.New()
	timer := time.AfterFunc(30*time.Millisecond, tok.Trip)
	defer timer.Stop()

	_, err := s.Execute(context.Background(), elems, n, tok)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}

	var sawCompleted bool
	var errorEvents int
	for _, e := range n.History() {
		switch e.Kind {
		case event.KindCompleted:
			sawCompleted = true
		case event.KindError:
			errorEvents++
		case event.KindElementCompleted:
			t.Fatalf("no timer should have fired before the trip")
		}
	}
	if sawCompleted {
		t.Fatalf("completed must never be emitted on a cancelled run")
	}
	if errorEvents != 1 {
		t.Fatalf("exactly one error event expected, got %d", errorEvents)
	}
}

func TestDelayedCancelledBeforeStart(t *testing.T) {
	elems := element.FromWeights([]float64{10}, time.Millisecond)
	n := notifier.New(Delayed)
	s := &DelayedStrategy{}
	tok := token.New()
	tok.Trip()

	_, err := s.Execute(context.Background(), elems, n, tok)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	h := kinds(n.History())
	if len(h) != 2 || h[0] != event.KindStarted || h[1] != event.KindError {
		t.Fatalf("expected [started error], got %v", h)
	}
}

func TestDelayedTripAfterCompletionIsNoOp(t *testing.T) {
	elems := element.FromWeights([]float64{5}, time.Millisecond)
	n := notifier.New(Delayed)
	s := &DelayedStrategy{}
	tok := token.New()

	out, err := s.Execute(context.Background(), elems, n, tok)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 completion")
	}

	tok.Trip()

	for _, e := range n.History() {
		if e.Kind == event.KindError {
			t.Fatalf("trip after completion must not produce an error event")
		}
	}
}

func TestDelayedValidationFailureEmitsNothing(t *testing.T) {
	elems := []element.Element{{Weight: -time.Millisecond}}
	n := notifier.New(Delayed)
	s := &DelayedStrategy{}

	_, err := s.Execute(context.Background(), elems, n, nil)
	var ve *element.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(n.History()) != 0 {
		t.Fatalf("validation failure must emit no events, got %v", kinds(n.History()))
	}
}

func TestDelayedContextCancellation(t *testing.T) {
	elems := element.FromWeights([]float64{500}, time.Millisecond)
	n := notifier.New(Delayed)
	s := &DelayedStrategy{}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Execute(ctx, elems, n, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	h := kinds(n.History())
	if h[len(h)-1] != event.KindError {
		t.Fatalf("context cancellation must end with an error event, got %v", h)
	}
}

func TestDelayedExactlyOneTerminalEvent(t *testing.T) {
	cases := []struct {
		name    string
		weights []float64
		cancel  time.Duration
	}{
		{"completes", []float64{5, 15}, 0},
		{"cancelled", []float64{200, 400}, 20 * time.Millisecond},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			elems := element.FromWeights(tc.weights, time.Millisecond)
			n := notifier.New(Delayed)
			s := &DelayedStrategy{}
			var tok *token.Token
			if tc.cancel > 0 {
				tok = token.New()
				timer := time.AfterFunc(tc.cancel, tok.Trip)
				defer timer.Stop()
			}

			_, _ = s.Execute(context.Background(), elems, n, tok)

			terminal := 0
			for _, e := range n.History() {
				if e.Kind == event.KindCompleted || e.Kind == event.KindError {
					terminal++
				}
			}
			if terminal != 1 {
				t.Fatalf("expected exactly one terminal event, got %d: %v", terminal, kinds(n.History()))
			}
		})
	}
}
