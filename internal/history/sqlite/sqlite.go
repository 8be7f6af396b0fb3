package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/loykin/delayrun/internal/history"
)

// Sink writes run events to a SQLite database.
type Sink struct {
	db *sql.DB
}

// New creates a new SQLite history sink.
// DSN format:
//   - "sqlite:///path/to/file.db"
//   - "sqlite://:memory:"
//   - "/path/to/file.db" (without prefix)
//   - ":memory:" (in-memory database)
func New(dsn string) (*Sink, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("empty SQLite DSN")
	}

	if strings.HasPrefix(strings.ToLower(dsn), "sqlite://") {
		dsn = strings.TrimPrefix(dsn, "sqlite://")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	sink := &Sink{db: db}
	if err := sink.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return sink, nil
}

func (s *Sink) ensureSchema(ctx context.Context) error {
	// Append-only audit table; no primary key needed.
	stmt := `CREATE TABLE IF NOT EXISTS run_events(
		occurred_at TIMESTAMP NOT NULL DEFAULT (CURRENT_TIMESTAMP),
		strategy TEXT NOT NULL,
		kind TEXT NOT NULL,
		idx INTEGER NOT NULL,
		delay_ms INTEGER NOT NULL,
		reason TEXT
	);`
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

func (s *Sink) Send(ctx context.Context, e history.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_events(occurred_at, strategy, kind, idx, delay_ms, reason)
		VALUES(?, ?, ?, ?, ?, ?);`,
		e.OccurredAt.UTC(), e.Strategy, e.Kind, e.Index, e.Delay.Milliseconds(), nullable(e.Reason))
	return err
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (s *Sink) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
