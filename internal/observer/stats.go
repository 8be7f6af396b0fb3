package observer

import (
	"sync"
	"time"

	"github.com/loykin/delayrun/internal/event"
)

// Stats is a derived snapshot of everything a StatisticsObserver has seen.
// Duration is zero until both a started and a completed event arrived.
type Stats struct {
	StartedAt    time.Time          `json:"started_at"`
	CompletedAt  time.Time          `json:"completed_at"`
	Duration     time.Duration      `json:"duration"`
	Count        int                `json:"count"`
	TotalDelay   time.Duration      `json:"total_delay"`
	AverageDelay time.Duration      `json:"average_delay"`
	EventCounts  map[event.Kind]int `json:"event_counts"`
}

// StatisticsObserver accumulates running counters from the events it
// receives. Start and end timestamps are captured from the started/completed
// events themselves, not from an independent clock read. It derives,
// it never mutates the run's history.
//
// The observer is safe to attach to concurrent runs, though per-run
// timestamps then interleave; counters stay accurate.
type StatisticsObserver struct {
	mu          sync.Mutex
	startedAt   time.Time
	completedAt time.Time
	count       int
	totalDelay  time.Duration
	eventCounts map[event.Kind]int
}

// NewStatistics returns an observer with all counters zeroed.
func NewStatistics() *StatisticsObserver {
	return &StatisticsObserver{eventCounts: map[event.Kind]int{}}
}

func (o *StatisticsObserver) OnEvent(e event.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.eventCounts[e.Kind]++
	switch e.Kind {
	case event.KindStarted:
		o.startedAt = e.Timestamp
	case event.KindCompleted:
		o.completedAt = e.Timestamp
	case event.KindElementCompleted:
		o.count++
		o.totalDelay += e.Delay
	}
}

// Snapshot returns the current derived view.
func (o *StatisticsObserver) Snapshot() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := Stats{
		StartedAt:   o.startedAt,
		CompletedAt: o.completedAt,
		Count:       o.count,
		TotalDelay:  o.totalDelay,
		EventCounts: make(map[event.Kind]int, len(o.eventCounts)),
	}
	for k, v := range o.eventCounts {
		s.EventCounts[k] = v
	}
	if o.count > 0 {
		s.AverageDelay = o.totalDelay / time.Duration(o.count)
	}
	if !o.startedAt.IsZero() && !o.completedAt.IsZero() {
		s.Duration = o.completedAt.Sub(o.startedAt)
	}
	return s
}

// Reset zeroes all accumulated state. Subsequent runs accumulate
// independently.
func (o *StatisticsObserver) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.startedAt = time.Time{}
	o.completedAt = time.Time{}
	o.count = 0
	o.totalDelay = 0
	o.eventCounts = map[event.Kind]int{}
}
