package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/zeal-league/internal/infrastructure/repository/memory"
)

// BootstrapSeed upserts the default admins and, on an empty users table,
// inserts the demo players.
func BootstrapSeed(ctx context.Context, db *sqlx.DB, now time.Time) error {
	admins := NewAdminRepository(db)
	for _, a := range memory.SeedAdmins() {
		if err := admins.Upsert(ctx, a); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	}

	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM users WHERE deleted_at IS NULL`); err != nil {
		return fmt.Errorf("count users for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	users := NewUserRepository(db)
	for _, u := range memory.SeedUsers(now) {
		if err := users.Create(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}
	return nil
}
