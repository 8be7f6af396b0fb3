package observer

import (
	"sync"
	"time"

	"github.com/loykin/delayrun/internal/event"
)

// ReceivedEvent pairs an event with the formatted time at which this
// observer received it (which trails the emission timestamp).
type ReceivedEvent struct {
	Event      event.Event `json:"event"`
	ReceivedAt string      `json:"received_at"`
}

// HistoryObserver appends every received event to an internal ordered log.
// It is independent from the notifier's own history: it records receipt,
// and it can be cleared without touching the run.
type HistoryObserver struct {
	mu      sync.Mutex
	records []ReceivedEvent
}

// NewHistory returns an empty history observer.
func NewHistory() *HistoryObserver { return &HistoryObserver{} }

func (o *HistoryObserver) OnEvent(e event.Event) {
	rec := ReceivedEvent{
		Event:      e,
		ReceivedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	o.mu.Lock()
	o.records = append(o.records, rec)
	o.mu.Unlock()
}

// Snapshot returns a copy of the recorded sequence in receipt order.
func (o *HistoryObserver) Snapshot() []ReceivedEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]ReceivedEvent, len(o.records))
	copy(out, o.records)
	return out
}

// Len reports the number of recorded events.
func (o *HistoryObserver) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.records)
}

// Clear empties the record log.
func (o *HistoryObserver) Clear() {
	o.mu.Lock()
	o.records = nil
	o.mu.Unlock()
}
