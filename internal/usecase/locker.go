package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/zeal-league/internal/domain/game"
)

const maxVersionRetries = 3

// Locker serializes work on a key across callers. unlock must be called
// exactly once after a successful Lock.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

func gameLockKey(gameID string) string { return "game:" + gameID }
func userLockKey(userID string) string { return "user:" + userID }

// withGameUserLock holds the game lock, then the user lock, while fn runs.
// A game-side version conflict means nothing was written yet, so fn is
// retried with fresh reads.
func withGameUserLock(ctx context.Context, locker Locker, gameID, userID string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < maxVersionRetries; attempt++ {
		err := runLocked(ctx, locker, []string{gameLockKey(gameID), userLockKey(userID)}, fn)
		if !errors.Is(err, game.ErrVersionConflict) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: game %s kept changing: %v", ErrConflict, gameID, lastErr)
}

func withGameLock(ctx context.Context, locker Locker, gameID string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < maxVersionRetries; attempt++ {
		err := runLocked(ctx, locker, []string{gameLockKey(gameID)}, fn)
		if !errors.Is(err, game.ErrVersionConflict) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: game %s kept changing: %v", ErrConflict, gameID, lastErr)
}

func runLocked(ctx context.Context, locker Locker, keys []string, fn func(ctx context.Context) error) error {
	for _, key := range keys {
		unlock, err := locker.Lock(ctx, key)
		if err != nil {
			return fmt.Errorf("%w: acquire lock %s: %w", ErrDependencyUnavailable, key, err)
		}
		defer unlock()
	}
	return fn(ctx)
}
