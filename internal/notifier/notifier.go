package notifier

import (
	"strconv"
	"sync"
	"time"

	"github.com/loykin/delayrun/internal/element"
	"github.com/loykin/delayrun/internal/event"
)

// Observer consumes lifecycle events emitted during a run.
//
// Handlers run synchronously on the emitting call stack. A handler that
// panics aborts the remainder of that emission and propagates to the
// emitter; the engine does not swallow observer faults. This is a hazard to
// be aware of when writing observers, not a recovery mechanism.
type Observer interface {
	OnEvent(e event.Event)
}

// Notifier fans emitted events out to attached observers and keeps an
// append-only history of everything emitted during the run it belongs to.
//
// A Notifier is created per run and must not be shared across concurrent
// runs. Attach/Detach/Emit are safe to call concurrently.
type Notifier struct {
	name string

	mu        sync.Mutex
	observers []Observer
	history   []event.Event
}

// New returns a notifier bound to a strategy name. The name is stamped into
// every emitted event's metadata.
func New(name string) *Notifier {
	return &Notifier{name: name}
}

// Name returns the strategy name this notifier is bound to.
func (n *Notifier) Name() string { return n.name }

// Attach adds an observer to the fan-out set. Attaching the same observer
// twice has no additional effect.
func (n *Notifier) Attach(o Observer) {
	if o == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, cur := range n.observers {
		if cur == o {
			return
		}
	}
	n.observers = append(n.observers, o)
}

// Detach removes an observer. It is a no-op if the observer is absent.
func (n *Notifier) Detach(o Observer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, cur := range n.observers {
		if cur == o {
			n.observers = append(n.observers[:i], n.observers[i+1:]...)
			return
		}
	}
}

// Emit appends the event to the history and then invokes every currently
// attached observer with it. Iteration order follows attach order but is
// not part of the contract; observers must not rely on it.
func (n *Notifier) Emit(e event.Event) {
	n.mu.Lock()
	n.history = append(n.history, e)
	obs := make([]Observer, len(n.observers))
	copy(obs, n.observers)
	n.mu.Unlock()

	for _, o := range obs {
		o.OnEvent(e)
	}
}

func (n *Notifier) meta(extra map[string]string) map[string]string {
	m := map[string]string{"strategy": n.name}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

// EmitStarted emits the started event for a run over count elements.
func (n *Notifier) EmitStarted(count int) {
	n.Emit(event.NewStarted(n.meta(map[string]string{"elements": strconv.Itoa(count)})))
}

// EmitElementCompleted emits the completion of a single element.
func (n *Notifier) EmitElementCompleted(el element.Element, index int, delay time.Duration) {
	n.Emit(event.NewElementCompleted(el, index, delay, n.meta(nil)))
}

// EmitCompleted emits the terminal completed event.
func (n *Notifier) EmitCompleted() {
	n.Emit(event.NewCompleted(n.meta(nil)))
}

// EmitError emits the terminal error event with the given reason.
func (n *Notifier) EmitError(reason string) {
	n.Emit(event.NewError(reason, n.meta(nil)))
}

// History returns a copy of the event log in emission order. Mutating the
// returned slice does not affect the notifier.
func (n *Notifier) History() []event.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]event.Event, len(n.history))
	copy(out, n.history)
	return out
}
