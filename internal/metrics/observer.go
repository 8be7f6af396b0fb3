package metrics

import (
	"github.com/loykin/delayrun/internal/event"
)

// Observer bridges engine events to the Prometheus collectors. Attach one to
// a notifier (or a runner's default observer set) to count every emitted
// event and observe per-element delays.
type Observer struct{}

// NewObserver returns a metrics observer. All instances share the
// package-level collectors.
func NewObserver() *Observer { return &Observer{} }

func (o *Observer) OnEvent(e event.Event) {
	incEvent(string(e.Kind))
	if e.Kind == event.KindElementCompleted {
		observeElementDelay(e.Delay.Seconds())
	}
}
