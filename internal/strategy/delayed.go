package strategy

import (
	"context"
	"time"

	"github.com/loykin/delayrun/internal/element"
	"github.com/loykin/delayrun/internal/notifier"
	"github.com/loykin/delayrun/internal/token"
)

// DelayedStrategy schedules one independent timer per element and makes each
// element's completion visible only after its own weight has elapsed.
//
// Guarantees:
//   - started is emitted exactly once, before any element_completed.
//   - exactly one element_completed per element, carrying its original index
//     and weight.
//   - completed is emitted exactly once, after every element completed, and
//     only if the token never tripped.
//   - a tripped token yields exactly one error event, never a completed
//     event, and suppresses completions for timers firing after the trip.
//
// All events are emitted from the single goroutine running Execute; timer
// goroutines only deliver indices on a buffered channel. The per-run state
// (timers, completion slice) is owned exclusively by that goroutine and is
// never shared across runs.
type DelayedStrategy struct{}

func (s *DelayedStrategy) Name() string { return Delayed }

func (s *DelayedStrategy) Execute(ctx context.Context, elems []element.Element, n *notifier.Notifier, tok *token.Token) ([]element.Element, error) {
	if err := element.ValidateAll(elems); err != nil {
		return nil, err
	}

	n.EmitStarted(len(elems))

	if tok != nil && tok.IsTripped() {
		n.EmitError(ErrCancelled.Error())
		return nil, ErrCancelled
	}

	if len(elems) == 0 {
		n.EmitCompleted()
		return []element.Element{}, nil
	}

	// Buffered to the element count so a timer goroutine never blocks, even
	// when the loop has already returned after cancellation.
	fired := make(chan int, len(elems))
	timers := make([]*time.Timer, len(elems))
	for i, el := range elems {
		idx := i
		timers[i] = time.AfterFunc(el.Weight, func() { fired <- idx })
	}
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	var done <-chan struct{}
	if tok != nil {
		done = tok.Done()
	}

	completed := make([]element.Element, 0, len(elems))
	for {
		select {
		case idx := <-fired:
			el := elems[idx]
			n.EmitElementCompleted(el, idx, el.Weight)
			completed = append(completed, el)
			if len(completed) == len(elems) {
				n.EmitCompleted()
				return completed, nil
			}
		case <-done:
			n.EmitError(ErrCancelled.Error())
			return nil, ErrCancelled
		case <-ctx.Done():
			n.EmitError(ctx.Err().Error())
			return nil, ctx.Err()
		}
	}
}
