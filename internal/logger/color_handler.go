package logger

import (
	"context"
	"io"
	"log/slog"
)

const ansiReset = "\033[0m"

// levelColor picks the ANSI sequence for a record level. Unknown levels get
// the reset sequence so they render uncolored.
func levelColor(l slog.Level) string {
	switch l {
	case slog.LevelDebug:
		return "\033[36m" // cyan
	case slog.LevelInfo:
		return "\033[32m" // green
	case slog.LevelWarn:
		return "\033[33m" // yellow
	case slog.LevelError:
		return "\033[31m" // red
	default:
		return ansiReset
	}
}

// ColorTextHandler prefixes every record message with a colored level tag
// before handing the record to an embedded slog.TextHandler. Attribute
// formatting, level filtering and output locking stay with the embedded
// handler.
type ColorTextHandler struct {
	*slog.TextHandler
}

// NewColorTextHandler returns a handler writing colored text records to w.
func NewColorTextHandler(w io.Writer, opts *slog.HandlerOptions) *ColorTextHandler {
	return &ColorTextHandler{TextHandler: slog.NewTextHandler(w, opts)}
}

func (h *ColorTextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.Message = levelColor(r.Level) + r.Level.String() + ansiReset + "  " + r.Message
	return h.TextHandler.Handle(ctx, r)
}
