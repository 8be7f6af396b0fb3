package event

import (
	"time"

	"github.com/loykin/delayrun/internal/element"
)

// Kind identifies one class of lifecycle occurrence.
type Kind string

const (
	KindStarted          Kind = "started"
	KindElementCompleted Kind = "element_completed"
	KindCompleted        Kind = "completed"
	KindError            Kind = "error"
)

// Event is an immutable record of something that happened during a run.
// Events are constructed only by the emit helpers below (used by the
// notifier) and are never mutated after creation.
//
// Element and Index are set only for element_completed events; started and
// completed events never carry them. Reason is set only for error events.
type Event struct {
	Kind      Kind              `json:"kind"`
	Timestamp time.Time         `json:"timestamp"`
	Element   *element.Element  `json:"element,omitempty"`
	Index     int               `json:"index"`
	Delay     time.Duration     `json:"delay"`
	Reason    string            `json:"reason,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// HasElement reports whether the event carries an element reference.
func (e Event) HasElement() bool { return e.Element != nil }

func newEvent(kind Kind, meta map[string]string) Event {
	var m map[string]string
	if len(meta) > 0 {
		m = make(map[string]string, len(meta))
		for k, v := range meta {
			m[k] = v
		}
	}
	return Event{Kind: kind, Timestamp: time.Now().UTC(), Index: -1, Meta: m}
}

// NewStarted builds a started event. It carries no element reference.
func NewStarted(meta map[string]string) Event {
	return newEvent(KindStarted, meta)
}

// NewElementCompleted builds an element_completed event carrying the
// element's original index and its weight as the observed delay.
func NewElementCompleted(el element.Element, index int, delay time.Duration, meta map[string]string) Event {
	e := newEvent(KindElementCompleted, meta)
	cp := el
	e.Element = &cp
	e.Index = index
	e.Delay = delay
	return e
}

// NewCompleted builds a completed event. It carries no element reference.
func NewCompleted(meta map[string]string) Event {
	return newEvent(KindCompleted, meta)
}

// NewError builds an error event with a human-readable reason.
func NewError(reason string, meta map[string]string) Event {
	e := newEvent(KindError, meta)
	e.Reason = reason
	return e
}
