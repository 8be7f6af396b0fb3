package factory

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/loykin/delayrun/internal/history"
	"github.com/loykin/delayrun/internal/history/opensearch"
	"github.com/loykin/delayrun/internal/history/sqlite"
)

func closeSink(t *testing.T, s history.Sink) {
	t.Helper()
	if c, ok := s.(io.Closer); ok {
		_ = c.Close()
	}
}

func TestNewSinkFromDSN_SQLitePrefixed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	sink, err := NewSinkFromDSN("sqlite://" + path)
	if err != nil {
		t.Fatalf("sqlite DSN: %v", err)
	}
	defer closeSink(t, sink)

	if _, ok := sink.(*sqlite.Sink); !ok {
		t.Fatalf("expected *sqlite.Sink, got %T", sink)
	}
	e := history.Event{Strategy: "delayed", Kind: "started", OccurredAt: time.Now().UTC(), Index: -1}
	if err := sink.Send(context.Background(), e); err != nil {
		t.Fatalf("send: %v", err)
	}
}

func TestNewSinkFromDSN_BarePathDefaultsToSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	sink, err := NewSinkFromDSN(path)
	if err != nil {
		t.Fatalf("bare path DSN: %v", err)
	}
	defer closeSink(t, sink)

	if _, ok := sink.(*sqlite.Sink); !ok {
		t.Fatalf("expected *sqlite.Sink, got %T", sink)
	}
}

func TestNewSinkFromDSN_OpenSearch(t *testing.T) {
	sink, err := NewSinkFromDSN("opensearch://localhost:9200/run-audit")
	if err != nil {
		t.Fatalf("opensearch DSN: %v", err)
	}
	if _, ok := sink.(*opensearch.Sink); !ok {
		t.Fatalf("expected *opensearch.Sink, got %T", sink)
	}
}

func TestNewSinkFromDSN_ElasticsearchAlias(t *testing.T) {
	sink, err := NewSinkFromDSN("elasticsearch://localhost:9200")
	if err != nil {
		t.Fatalf("elasticsearch DSN: %v", err)
	}
	if _, ok := sink.(*opensearch.Sink); !ok {
		t.Fatalf("expected *opensearch.Sink, got %T", sink)
	}
}

func TestNewSinkFromDSN_Empty(t *testing.T) {
	if _, err := NewSinkFromDSN("   "); err == nil {
		t.Fatalf("empty DSN must fail")
	}
}

func TestNewSinkFromDSN_Unsupported(t *testing.T) {
	if _, err := NewSinkFromDSN("redis://localhost:6379"); err == nil {
		t.Fatalf("unsupported scheme must fail")
	}
}
