package postgres

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/lib/pq"
)

const uniqueViolationCode = "23505"

// immutableColumns are never rewritten by an update. version is bumped by
// the statement itself.
var immutableColumns = []string{"public_id", "version", "created_at"}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}

// isStalePreparedStatement reports errors raised when a pooler in
// transaction mode hands the statement to a different backend.
func isStalePreparedStatement(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "bind message supplies") {
		return true
	}
	return strings.Contains(msg, "prepared statement") &&
		(strings.Contains(msg, "does not exist") || strings.Contains(msg, "(26000)"))
}

func encodeJSON(value any) ([]byte, error) {
	return sonic.Marshal(value)
}

func decodeJSON(raw []byte, out any) error {
	if len(raw) == 0 {
		return nil
	}
	return sonic.Unmarshal(raw, out)
}

// withStaleRetry runs fn again once when the first attempt hit a stale
// prepared statement.
func withStaleRetry(fn func() error) error {
	err := fn()
	if isStalePreparedStatement(err) {
		return fn()
	}
	return err
}
