package postgres

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsStalePreparedStatement(t *testing.T) {
	t.Run("matches bind mismatch error", func(t *testing.T) {
		err := fakeErr("pq: bind message supplies 2 parameters, but prepared statement \"\" requires 1 (08P01)")
		if !isStalePreparedStatement(err) {
			t.Fatalf("expected true for bind mismatch error")
		}
	})

	t.Run("matches statement missing message", func(t *testing.T) {
		err := fakeErr("pq: unnamed prepared statement does not exist (26000)")
		if !isStalePreparedStatement(err) {
			t.Fatalf("expected true for statement missing error")
		}
	})

	t.Run("ignores unrelated error", func(t *testing.T) {
		err := fakeErr("pq: relation games does not exist")
		if isStalePreparedStatement(err) {
			t.Fatalf("expected false for unrelated error")
		}
	})
}

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert user: %w", &pq.Error{Code: "23505"})
	if !isUniqueViolation(wrapped) {
		t.Fatalf("expected true for wrapped unique violation")
	}
	if isUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Fatalf("expected false for foreign key violation")
	}
	if isUniqueViolation(sql.ErrNoRows) {
		t.Fatalf("expected false for non pq error")
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("get game: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped ErrNoRows to be not found")
	}
}

func TestDecodeJSON_EmptyKeepsZeroValue(t *testing.T) {
	var got []string
	if err := decodeJSON(nil, &got); err != nil {
		t.Fatalf("decode empty: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil slice, got %v", got)
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
