package observability

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/riskibarqy/zeal-league/internal/platform/logging"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
)

type recordingLogger struct {
	embedded.Logger

	mu      sync.Mutex
	records []otellog.Record
}

func (l *recordingLogger) Emit(_ context.Context, r otellog.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, r.Clone())
}

func (l *recordingLogger) Enabled(context.Context, otellog.EnabledParameters) bool { return true }

func attributesOf(r otellog.Record) map[string]otellog.Value {
	out := map[string]otellog.Value{}
	r.WalkAttributes(func(kv otellog.KeyValue) bool {
		out[kv.Key] = kv.Value
		return true
	})
	return out
}

func TestLogMirror_EmitsRecordWithTypedAttributes(t *testing.T) {
	t.Parallel()

	rec := &recordingLogger{}
	mirror := newLogMirror(rec, logging.LevelInfo)

	mirror(context.Background(), logging.LevelError, "user write failed after game write",
		"game_id", "g-2026-10-24",
		"attempt", 2,
		"positions", []string{"GK", "DEF"},
		"error", errors.New("version conflict"),
		"dangling",
	)

	if len(rec.records) != 1 {
		t.Fatalf("unexpected record count: got=%d want=1", len(rec.records))
	}
	r := rec.records[0]
	if r.Severity() != otellog.SeverityError || r.SeverityText() != "ERROR" {
		t.Fatalf("unexpected severity: %v %s", r.Severity(), r.SeverityText())
	}
	attrs := attributesOf(r)
	if attrs["game_id"].AsString() != "g-2026-10-24" {
		t.Fatalf("unexpected game_id attribute: %v", attrs["game_id"])
	}
	if attrs["attempt"].AsInt64() != 2 {
		t.Fatalf("unexpected attempt attribute: %v", attrs["attempt"])
	}
	if attrs["positions"].Kind() != otellog.KindSlice || len(attrs["positions"].AsSlice()) != 2 {
		t.Fatalf("unexpected positions attribute: %v", attrs["positions"])
	}
	if attrs["error"].AsString() != "version conflict" {
		t.Fatalf("unexpected error attribute: %v", attrs["error"])
	}
	if attrs["dangling"].Kind() != otellog.KindEmpty {
		t.Fatalf("unexpected dangling attribute: %v", attrs["dangling"])
	}
}

func TestLogMirror_SkipsProbesAndLowLevels(t *testing.T) {
	t.Parallel()

	rec := &recordingLogger{}
	mirror := newLogMirror(rec, logging.LevelInfo)

	mirror(context.Background(), logging.LevelInfo, "http request", "method", "GET", "path", "/healthz")
	mirror(context.Background(), logging.LevelDebug, "lock acquired", "game_id", "g1")
	mirror(context.Background(), logging.LevelInfo, "http request", "path", "/v1/games")

	if len(rec.records) != 1 {
		t.Fatalf("unexpected record count: got=%d want=1", len(rec.records))
	}
}

func TestOtelValue_MapIsSorted(t *testing.T) {
	t.Parallel()

	v := otelValue(map[string]any{"refunded": true, "goals": 2})
	if v.Kind() != otellog.KindMap {
		t.Fatalf("expected map value, got %s", v.Kind())
	}
	items := v.AsMap()
	if len(items) != 2 || items[0].Key != "goals" || items[0].Value.AsInt64() != 2 {
		t.Fatalf("unexpected map items: %v", items)
	}
}
