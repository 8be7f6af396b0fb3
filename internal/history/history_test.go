package history

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/loykin/delayrun/internal/element"
	"github.com/loykin/delayrun/internal/event"
)

type memorySink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *memorySink) Send(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

func TestFromEngineFlattens(t *testing.T) {
	meta := map[string]string{"strategy": "delayed"}
	src := event.NewElementCompleted(element.New(15*time.Millisecond), 2, 15*time.Millisecond, meta)

	e := FromEngine(src)
	if e.Strategy != "delayed" || e.Kind != "element_completed" {
		t.Fatalf("flattened: %+v", e)
	}
	if e.Index != 2 || e.Delay != 15*time.Millisecond {
		t.Fatalf("index/delay: %+v", e)
	}
	if e.OccurredAt.IsZero() {
		t.Fatalf("occurred_at missing")
	}
}

func TestFromEngineErrorReason(t *testing.T) {
	e := FromEngine(event.NewError("run cancelled", map[string]string{"strategy": "delayed"}))
	if e.Kind != "error" || e.Reason != "run cancelled" {
		t.Fatalf("flattened error: %+v", e)
	}
}

func TestSinkObserverForwardsEvents(t *testing.T) {
	sink := &memorySink{}
	o := NewSinkObserver(sink, nil)

	o.OnEvent(event.NewStarted(map[string]string{"strategy": "delayed"}))
	o.OnEvent(event.NewCompleted(map[string]string{"strategy": "delayed"}))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 2 {
		t.Fatalf("expected 2 forwarded events, got %d", len(sink.events))
	}
	if sink.events[0].Kind != "started" || sink.events[1].Kind != "completed" {
		t.Fatalf("forwarded kinds: %v %v", sink.events[0].Kind, sink.events[1].Kind)
	}
}

func TestSinkObserverLogsAndDropsFailures(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	sink := &memorySink{err: errors.New("backend down")}
	o := NewSinkObserver(sink, log)

	// Must not panic or propagate; the run is never faulted by the sink.
	o.OnEvent(event.NewStarted(nil))

	if !strings.Contains(buf.String(), "history sink send failed") {
		t.Fatalf("failure not logged: %s", buf.String())
	}
}

func TestSinkObserverNilSink(t *testing.T) {
	o := NewSinkObserver(nil, nil)
	o.OnEvent(event.NewStarted(nil))
}
