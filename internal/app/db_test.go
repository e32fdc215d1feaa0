package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFormatDBQueryForTrace(t *testing.T) {
	got := formatDBQueryForTrace(" SELECT   *\nFROM games \t WHERE public_id = $1 ")
	want := "SELECT * FROM games WHERE public_id = $1"
	if got != want {
		t.Fatalf("unexpected formatted query: %q", got)
	}
}

func TestFormatDBQueryForTrace_TruncatesOnRuneBoundary(t *testing.T) {
	got := formatDBQueryForTrace("SELECT '" + strings.Repeat("é", maxTracedQueryLength) + "'")
	if !utf8.ValidString(got) || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected valid truncated query, got %q", got)
	}
	if len(got) > maxTracedQueryLength+3 {
		t.Fatalf("truncated query too long: got=%d", len(got))
	}
}

func TestFormatDBQueryForTrace_Truncates(t *testing.T) {
	got := formatDBQueryForTrace("SELECT " + strings.Repeat("x", 2*maxTracedQueryLength))
	if len(got) != maxTracedQueryLength+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("unexpected truncated query length: got=%d want=%d", len(got), maxTracedQueryLength+3)
	}
}

func TestClosers_RunInReverse(t *testing.T) {
	var order []int
	c := closers{
		func(context.Context) error { order = append(order, 1); return nil },
		func(context.Context) error { order = append(order, 2); return errors.New("redis close") },
	}

	err := c.close(context.Background())
	if err == nil || !strings.Contains(err.Error(), "redis close") {
		t.Fatalf("expected joined close error, got %v", err)
	}
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Fatalf("unexpected close order: %v", order)
	}
}
