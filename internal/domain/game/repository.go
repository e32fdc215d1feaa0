package game

import (
	"context"
	"time"
)

type Repository interface {
	GetByID(ctx context.Context, gameID string) (Game, bool, error)
	List(ctx context.Context) ([]Game, error)
	// ListUpcoming returns upcoming games dated on or after from, by date then time.
	ListUpcoming(ctx context.Context, from time.Time) ([]Game, error)
	Create(ctx context.Context, g Game) error
	// Update persists g when the stored version still equals g.Version and
	// returns the stored game with its bumped version. A stale version
	// yields ErrVersionConflict.
	Update(ctx context.Context, g Game) (Game, error)
}
