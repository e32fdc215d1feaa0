package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/zeal-league/internal/domain/admin"
	"github.com/riskibarqy/zeal-league/internal/domain/game"
	"github.com/riskibarqy/zeal-league/internal/platform/id"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
)

type CreateGameInput struct {
	CallerID string
	// HostID defaults to the caller.
	HostID          string
	StadiumName     string
	StadiumAddress  string
	StadiumImage    string
	Capacity        int
	Date            string
	Time            string
	DurationMinutes int
	Type            string
}

type GameService struct {
	games    game.Repository
	admins   admin.Repository
	idGen    id.Generator
	location *time.Location
	logger   *logging.Logger
	now      func() time.Time
}

func NewGameService(
	games game.Repository,
	admins admin.Repository,
	idGen id.Generator,
	location *time.Location,
	logger *logging.Logger,
) *GameService {
	if logger == nil {
		logger = logging.Default()
	}
	if location == nil {
		location = time.UTC
	}

	return &GameService{
		games:    games,
		admins:   admins,
		idGen:    idGen,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *GameService) GetGame(ctx context.Context, gameID string) (game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.GetGame")
	defer span.End()

	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return game.Game{}, fmt.Errorf("%w: game_id is required", ErrInvalidInput)
	}
	return loadGame(ctx, s.games, gameID)
}

func (s *GameService) ListGames(ctx context.Context) ([]game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.ListGames")
	defer span.End()

	items, err := s.games.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return items, nil
}

// ListUpcomingGames returns upcoming games dated today or later in the
// league's timezone.
func (s *GameService) ListUpcomingGames(ctx context.Context) ([]game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.ListUpcomingGames")
	defer span.End()

	y, m, d := s.now().In(s.location).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	items, err := s.games.ListUpcoming(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("list upcoming games: %w", err)
	}
	return items, nil
}

func (s *GameService) CreateGame(ctx context.Context, input CreateGameInput) (game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.CreateGame")
	defer span.End()

	input.CallerID = strings.TrimSpace(input.CallerID)
	input.HostID = strings.TrimSpace(input.HostID)
	if input.HostID == "" {
		input.HostID = input.CallerID
	}

	callerIsAdmin, err := isAdmin(ctx, s.admins, input.CallerID)
	if err != nil {
		return game.Game{}, err
	}
	if !callerIsAdmin {
		return game.Game{}, fmt.Errorf("%w: only admins may create games", ErrForbidden)
	}

	host, exists, err := s.admins.GetByID(ctx, input.HostID)
	if err != nil {
		return game.Game{}, fmt.Errorf("get host admin: %w", err)
	}
	if !exists {
		return game.Game{}, fmt.Errorf("%w: host admin=%s", ErrNotFound, input.HostID)
	}

	date, err := game.ParseDate(input.Date)
	if err != nil {
		return game.Game{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	gameID, err := s.idGen.NewID()
	if err != nil {
		return game.Game{}, fmt.Errorf("generate game id: %w", err)
	}

	g, err := game.New(game.NewGameParams{
		ID: gameID,
		Stadium: game.Stadium{
			Name:     strings.TrimSpace(input.StadiumName),
			Address:  strings.TrimSpace(input.StadiumAddress),
			Image:    strings.TrimSpace(input.StadiumImage),
			Capacity: input.Capacity,
		},
		Host:            host.HostSnapshot(),
		Date:            date,
		Time:            strings.TrimSpace(input.Time),
		DurationMinutes: input.DurationMinutes,
		Type:            strings.TrimSpace(input.Type),
		Now:             s.now(),
	})
	if err != nil {
		return game.Game{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if err := s.games.Create(ctx, g); err != nil {
		return game.Game{}, fmt.Errorf("create game: %w", err)
	}

	s.logger.InfoContext(ctx, "game created",
		"game_id", g.ID,
		"host_id", g.Host.ID,
		"team_size", g.TeamSize(),
	)
	return g, nil
}
