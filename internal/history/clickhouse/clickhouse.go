package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/loykin/delayrun/internal/history"
)

// Sink sends run events to ClickHouse using the official ClickHouse Go client.
type Sink struct {
	conn  driver.Conn
	table string
}

// New connects to the ClickHouse native endpoint at addr ("host:port") and
// writes into table, creating it when missing.
func New(addr, table string) (*Sink, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: "default",
			Username: "default",
			Password: "",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	s := &Sink{conn: conn, table: table}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sink) ensureSchema(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		occurred_at DateTime64(3, 'UTC'),
		strategy String,
		kind String,
		idx Int32,
		delay_ms Int64,
		reason String
	) ENGINE = MergeTree() ORDER BY occurred_at`, s.table)
	if err := s.conn.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create ClickHouse table: %w", err)
	}
	return nil
}

func (s *Sink) Send(ctx context.Context, e history.Event) error {
	query := fmt.Sprintf(`INSERT INTO %s (occurred_at, strategy, kind, idx, delay_ms, reason) VALUES (?, ?, ?, ?, ?, ?)`, s.table)

	err := s.conn.Exec(ctx, query,
		e.OccurredAt.UTC(),
		e.Strategy,
		e.Kind,
		int32(e.Index),
		e.Delay.Milliseconds(),
		e.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event into ClickHouse: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
