package history

import (
	"context"
	"time"

	"github.com/loykin/delayrun/internal/event"
)

// Event is the flattened record exported to external audit/analytics
// systems. It is derived from an engine event and carries only
// serialization-friendly fields.
type Event struct {
	Strategy   string        `json:"strategy"`
	Kind       string        `json:"kind"`
	OccurredAt time.Time     `json:"occurred_at"`
	Index      int           `json:"index"`
	Delay      time.Duration `json:"delay"`
	Reason     string        `json:"reason,omitempty"`
}

// FromEngine flattens an engine event for export. The strategy name comes
// from the event metadata stamped by the notifier.
func FromEngine(e event.Event) Event {
	return Event{
		Strategy:   e.Meta["strategy"],
		Kind:       string(e.Kind),
		OccurredAt: e.Timestamp,
		Index:      e.Index,
		Delay:      e.Delay,
		Reason:     e.Reason,
	}
}

// Sink is a destination for run events (audit/statistics systems).
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}
