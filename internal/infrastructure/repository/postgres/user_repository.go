package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/zeal-league/internal/domain/user"
	qb "github.com/riskibarqy/zeal-league/internal/platform/querybuilder"
)

const userColumns = "public_id, email, first_name, last_name, phone_number, position, points, wins, " +
	"stats, games, credits, subscription, applied_grants, version, created_at, updated_at"

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (user.User, bool, error) {
	return r.getOne(ctx, "get user by id", qb.Eq("public_id", userID))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (user.User, bool, error) {
	return r.getOne(ctx, "get user by email", qb.EqFold("email", email))
}

func (r *UserRepository) Create(ctx context.Context, u user.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	row, err := userToRow(u)
	if err != nil {
		return err
	}

	query, args, err := qb.InsertModel("users", row).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert user query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s or email %s already exists: %w", u.ID, u.Email, err)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update writes u only when the stored version still equals u.Version.
func (r *UserRepository) Update(ctx context.Context, u user.User) (user.User, error) {
	row, err := userToRow(u)
	if err != nil {
		return user.User{}, err
	}

	query, args, err := qb.UpdateModel("users", row, immutableColumns...).
		Increment("version", 1).
		Where(
			qb.Eq("public_id", row.PublicID),
			qb.Eq("version", row.Version),
			qb.IsNull("deleted_at"),
		).
		Returning("version", "updated_at").
		ToSQL()
	if err != nil {
		return user.User{}, fmt.Errorf("build update user query: %w", err)
	}

	var saved struct {
		Version   int64     `db:"version"`
		UpdatedAt time.Time `db:"updated_at"`
	}
	if err := r.db.GetContext(ctx, &saved, query, args...); err != nil {
		if isNotFound(err) {
			return user.User{}, fmt.Errorf("update user %s at version %d: %w", u.ID, u.Version, user.ErrVersionConflict)
		}
		return user.User{}, fmt.Errorf("update user: %w", err)
	}

	out := u.Clone()
	out.Version = saved.Version
	out.UpdatedAt = saved.UpdatedAt
	return out, nil
}

func (r *UserRepository) ListTopByPoints(ctx context.Context, limit int) ([]user.User, error) {
	query, args, err := qb.Select(userColumns).From("users").
		Where(qb.IsNull("deleted_at")).
		OrderBy("points DESC", "wins DESC", "public_id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build leaderboard query: %w", err)
	}

	var rows []userTableModel
	err = withStaleRetry(func() error {
		rows = rows[:0]
		return r.db.SelectContext(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("select leaderboard users: %w", err)
	}

	out := make([]user.User, 0, len(rows))
	for _, row := range rows {
		u, err := userFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *UserRepository) getOne(ctx context.Context, op string, match qb.Condition) (user.User, bool, error) {
	query, args, err := qb.Select(userColumns).From("users").
		Where(match, qb.IsNull("deleted_at")).
		ToSQL()
	if err != nil {
		return user.User{}, false, fmt.Errorf("build %s query: %w", op, err)
	}

	var row userTableModel
	err = withStaleRetry(func() error {
		return r.db.GetContext(ctx, &row, query, args...)
	})
	if err != nil {
		if isNotFound(err) {
			return user.User{}, false, nil
		}
		return user.User{}, false, fmt.Errorf("%s: %w", op, err)
	}

	u, err := userFromRow(row)
	if err != nil {
		return user.User{}, false, err
	}
	return u, true, nil
}
