package observer

import (
	"log/slog"

	"github.com/loykin/delayrun/internal/event"
)

// LogConfig controls the logging observer. It is passed explicitly at
// construction; there is no process-wide logging toggle.
type LogConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Prefix         string `mapstructure:"prefix"`
	ShowTimestamps bool   `mapstructure:"show_timestamps"`
}

// LoggingObserver formats every received event for human consumption. It is
// stateless and never affects engine state. When the config disables it, it
// drops everything.
type LoggingObserver struct {
	cfg LogConfig
	log *slog.Logger
}

// NewLogging builds a logging observer writing through log. A nil log falls
// back to slog.Default().
func NewLogging(cfg LogConfig, log *slog.Logger) *LoggingObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LoggingObserver{cfg: cfg, log: log}
}

func (o *LoggingObserver) OnEvent(e event.Event) {
	if !o.cfg.Enabled {
		return
	}

	msg := string(e.Kind)
	if o.cfg.Prefix != "" {
		msg = o.cfg.Prefix + " " + msg
	}

	attrs := make([]any, 0, 8)
	if s, ok := e.Meta["strategy"]; ok {
		attrs = append(attrs, slog.String("strategy", s))
	}
	if o.cfg.ShowTimestamps {
		attrs = append(attrs, slog.Time("emitted_at", e.Timestamp))
	}

	switch e.Kind {
	case event.KindStarted:
		if cnt, ok := e.Meta["elements"]; ok {
			attrs = append(attrs, slog.String("elements", cnt))
		}
	case event.KindElementCompleted:
		attrs = append(attrs, slog.Int("index", e.Index), slog.Duration("delay", e.Delay))
	case event.KindError:
		attrs = append(attrs, slog.String("reason", e.Reason))
		o.log.Error(msg, attrs...)
		return
	}
	o.log.Info(msg, attrs...)
}
