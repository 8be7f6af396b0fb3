package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/loykin/delayrun/internal/event"
)

// DefaultSendTimeout bounds a single sink write.
const DefaultSendTimeout = 5 * time.Second

// SinkObserver adapts a Sink to the engine observer interface, forwarding
// every emitted event. Sink failures are logged and dropped: the audit trail
// is best-effort and a broken backend must never fault a run.
type SinkObserver struct {
	sink    Sink
	log     *slog.Logger
	timeout time.Duration
}

// NewSinkObserver wraps sink. A nil log falls back to slog.Default().
func NewSinkObserver(sink Sink, log *slog.Logger) *SinkObserver {
	if log == nil {
		log = slog.Default()
	}
	return &SinkObserver{sink: sink, log: log, timeout: DefaultSendTimeout}
}

func (o *SinkObserver) OnEvent(e event.Event) {
	if o.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()
	if err := o.sink.Send(ctx, FromEngine(e)); err != nil {
		o.log.Warn("history sink send failed",
			slog.String("kind", string(e.Kind)), slog.Any("err", err))
	}
}
