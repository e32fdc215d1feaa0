package user

import "context"

// Repository describes user persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, userID string) (User, bool, error)
	GetByEmail(ctx context.Context, email string) (User, bool, error)
	Create(ctx context.Context, u User) error
	// Update persists u when the stored version still equals u.Version and
	// returns the stored user with its bumped version. A stale version
	// yields ErrVersionConflict.
	Update(ctx context.Context, u User) (User, error)
	// ListTopByPoints orders by points, then wins, then id.
	ListTopByPoints(ctx context.Context, limit int) ([]User, error)
}
