package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/zeal-league/internal/domain/game"
	"github.com/riskibarqy/zeal-league/internal/domain/user"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
)

func normalizeIDs(gameID, userID string) (string, string, error) {
	gameID = strings.TrimSpace(gameID)
	userID = strings.TrimSpace(userID)
	if gameID == "" {
		return "", "", fmt.Errorf("%w: game_id is required", ErrInvalidInput)
	}
	if userID == "" {
		return "", "", fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	return gameID, userID, nil
}

func loadUser(ctx context.Context, repo user.Repository, userID string) (user.User, error) {
	u, exists, err := repo.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user by id: %w", err)
	}
	if !exists {
		return user.User{}, fmt.Errorf("%w: user=%s", ErrNotFound, userID)
	}
	return u, nil
}

func loadGame(ctx context.Context, repo game.Repository, gameID string) (game.Game, error) {
	g, exists, err := repo.GetByID(ctx, gameID)
	if err != nil {
		return game.Game{}, fmt.Errorf("get game by id: %w", err)
	}
	if !exists {
		return game.Game{}, fmt.Errorf("%w: game=%s", ErrNotFound, gameID)
	}
	return g, nil
}

// pairWriter persists a game and then its user. The game write is
// authoritative; a failed user write after it is logged for manual
// reconciliation and surfaced as an internal error.
type pairWriter struct {
	games  game.Repository
	users  user.Repository
	logger *logging.Logger
}

func (w pairWriter) save(ctx context.Context, op string, g game.Game, u user.User) (game.Game, user.User, error) {
	savedGame, err := w.games.Update(ctx, g)
	if err != nil {
		return game.Game{}, user.User{}, fmt.Errorf("update game: %w", err)
	}

	savedUser, err := w.users.Update(ctx, u)
	if err != nil {
		w.logger.ErrorContext(ctx, "user write failed after game write",
			"operation", op,
			"game_id", g.ID,
			"user_id", u.ID,
			"step", "update_user",
			"error", err,
		)
		return game.Game{}, user.User{}, fmt.Errorf("update user after game write: %w", err)
	}

	return savedGame, savedUser, nil
}
