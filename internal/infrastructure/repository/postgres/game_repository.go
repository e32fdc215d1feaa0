package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/zeal-league/internal/domain/game"
	qb "github.com/riskibarqy/zeal-league/internal/platform/querybuilder"
)

const gameColumns = "public_id, status, game_date, kickoff_time, duration_minutes, game_type, " +
	"stadium, host, teams, waitlist, result, version, created_at, updated_at"

type GameRepository struct {
	db *sqlx.DB
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) GetByID(ctx context.Context, gameID string) (game.Game, bool, error) {
	query, args, err := qb.Select(gameColumns).From("games").
		Where(
			qb.Eq("public_id", gameID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build get game by id query: %w", err)
	}

	var row gameTableModel
	err = withStaleRetry(func() error {
		return r.db.GetContext(ctx, &row, query, args...)
	})
	if err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("get game by id: %w", err)
	}

	g, err := gameFromRow(row)
	if err != nil {
		return game.Game{}, false, err
	}
	return g, true, nil
}

func (r *GameRepository) List(ctx context.Context) ([]game.Game, error) {
	query, args, err := qb.Select(gameColumns).From("games").
		Where(qb.IsNull("deleted_at")).
		OrderBy("game_date DESC", "kickoff_time DESC", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select games query: %w", err)
	}
	return r.selectGames(ctx, query, args)
}

func (r *GameRepository) ListUpcoming(ctx context.Context, from time.Time) ([]game.Game, error) {
	query, args, err := qb.Select(gameColumns).From("games").
		Where(
			qb.Eq("status", string(game.StatusUpcoming)),
			qb.Gte("game_date", from),
			qb.IsNull("deleted_at"),
		).
		OrderBy("game_date", "kickoff_time", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select upcoming games query: %w", err)
	}
	return r.selectGames(ctx, query, args)
}

func (r *GameRepository) Create(ctx context.Context, g game.Game) error {
	row, err := gameToRow(g)
	if err != nil {
		return err
	}

	query, args, err := qb.InsertModel("games", row).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert game query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("game %s already exists: %w", g.ID, err)
		}
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

// Update writes g only when the stored version still equals g.Version.
func (r *GameRepository) Update(ctx context.Context, g game.Game) (game.Game, error) {
	row, err := gameToRow(g)
	if err != nil {
		return game.Game{}, err
	}

	query, args, err := qb.UpdateModel("games", row, immutableColumns...).
		Increment("version", 1).
		Where(
			qb.Eq("public_id", row.PublicID),
			qb.Eq("version", row.Version),
			qb.IsNull("deleted_at"),
		).
		Returning("version", "updated_at").
		ToSQL()
	if err != nil {
		return game.Game{}, fmt.Errorf("build update game query: %w", err)
	}

	var saved struct {
		Version   int64     `db:"version"`
		UpdatedAt time.Time `db:"updated_at"`
	}
	if err := r.db.GetContext(ctx, &saved, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, fmt.Errorf("update game %s at version %d: %w", g.ID, g.Version, game.ErrVersionConflict)
		}
		return game.Game{}, fmt.Errorf("update game: %w", err)
	}

	out := g.Clone()
	out.Version = saved.Version
	out.UpdatedAt = saved.UpdatedAt
	return out, nil
}

func (r *GameRepository) selectGames(ctx context.Context, query string, args []any) ([]game.Game, error) {
	var rows []gameTableModel
	err := withStaleRetry(func() error {
		rows = rows[:0]
		return r.db.SelectContext(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("select games: %w", err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		g, err := gameFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}
