package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/zeal-league/internal/domain/admin"
	"github.com/riskibarqy/zeal-league/internal/domain/game"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
	"github.com/riskibarqy/zeal-league/internal/platform/tracing"
)

type UpdateGameStatusInput struct {
	GameID   string
	CallerID string
	Status   string
	Stats    []game.StatDelta
}

type UpdateGameStatusResult struct {
	Game            game.Game
	UnmatchedEmails []string
	// Aggregation is set only when the game moved to finished.
	Aggregation *AggregationReport
}

type GameStatusService struct {
	games      game.Repository
	admins     admin.Repository
	locker     Locker
	aggregator *StatsAggregator
	logger     *logging.Logger
	now        func() time.Time
}

func NewGameStatusService(
	games game.Repository,
	admins admin.Repository,
	locker Locker,
	aggregator *StatsAggregator,
	logger *logging.Logger,
) *GameStatusService {
	if logger == nil {
		logger = logging.Default()
	}

	return &GameStatusService{
		games:      games,
		admins:     admins,
		locker:     locker,
		aggregator: aggregator,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *GameStatusService) UpdateStatus(ctx context.Context, input UpdateGameStatusInput) (UpdateGameStatusResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameStatusService.UpdateStatus", tracing.GameID(input.GameID))
	defer span.End()

	input.GameID = strings.TrimSpace(input.GameID)
	input.CallerID = strings.TrimSpace(input.CallerID)
	if input.GameID == "" {
		return UpdateGameStatusResult{}, fmt.Errorf("%w: game_id is required", ErrInvalidInput)
	}
	if input.CallerID == "" {
		return UpdateGameStatusResult{}, fmt.Errorf("%w: caller_id is required", ErrInvalidInput)
	}
	status, err := game.ParseStatus(input.Status)
	if err != nil {
		return UpdateGameStatusResult{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	callerIsAdmin, err := isAdmin(ctx, s.admins, input.CallerID)
	if err != nil {
		return UpdateGameStatusResult{}, err
	}

	var result UpdateGameStatusResult
	err = withGameLock(ctx, s.locker, input.GameID, func(ctx context.Context) error {
		g, err := loadGame(ctx, s.games, input.GameID)
		if err != nil {
			return err
		}
		if !callerIsAdmin && g.Host.ID != input.CallerID {
			return fmt.Errorf("%w: only an admin or the game host may update status", ErrForbidden)
		}

		unmatched, err := g.Transition(status, input.Stats)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		g.UpdatedAt = s.now()

		saved, err := s.games.Update(ctx, g)
		if err != nil {
			return fmt.Errorf("update game: %w", err)
		}
		result = UpdateGameStatusResult{Game: saved, UnmatchedEmails: unmatched}

		if saved.Status != game.StatusFinished {
			return nil
		}
		report, err := s.aggregator.Aggregate(ctx, saved)
		result.Aggregation = &report
		if err != nil {
			s.logger.ErrorContext(ctx, "aggregation failed after status write",
				"game_id", saved.ID,
				"step", "aggregate",
				"error", err,
			)
			return fmt.Errorf("aggregate game stats: %w", err)
		}
		return nil
	})
	if err != nil {
		return UpdateGameStatusResult{}, err
	}

	if len(result.UnmatchedEmails) > 0 {
		s.logger.WarnContext(ctx, "stats for players not on roster ignored",
			"game_id", input.GameID,
			"emails", result.UnmatchedEmails,
		)
	}
	s.logger.InfoContext(ctx, "game status updated",
		"game_id", input.GameID,
		"caller_id", input.CallerID,
		"status", string(status),
		"outcome", string(result.Game.Result.Outcome),
	)

	return result, nil
}

func isAdmin(ctx context.Context, admins admin.Repository, id string) (bool, error) {
	_, exists, err := admins.GetByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get admin by id: %w", err)
	}
	return exists, nil
}
