package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/zeal-league/internal/domain/admin"
	"github.com/riskibarqy/zeal-league/internal/domain/game"
	"github.com/riskibarqy/zeal-league/internal/domain/notification"
	"github.com/riskibarqy/zeal-league/internal/domain/user"
	adminmock "github.com/riskibarqy/zeal-league/internal/mocks/domain/admin"
	gamemock "github.com/riskibarqy/zeal-league/internal/mocks/domain/game"
	notificationmock "github.com/riskibarqy/zeal-league/internal/mocks/domain/notification"
	usermock "github.com/riskibarqy/zeal-league/internal/mocks/domain/user"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func TestGameService_CreateGame_SuccessUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gameRepo := gamemock.NewRepository(t)
	adminRepo := adminmock.NewRepository(t)

	host := admin.Admin{ID: "admin-ops", Email: "ops@zeal.test", FirstName: "Rina", LastName: "Putri", Role: admin.RoleSuperAdmin}
	adminRepo.On("GetByID", mock.Anything, "admin-ops").Return(host, true, nil).Twice()
	gameRepo.
		On("Create", mock.Anything, mock.MatchedBy(func(g game.Game) bool {
			return g.ID == "game-new" && g.Host.ID == host.ID && g.TeamSize() == 7
		})).
		Return(nil).
		Once()

	service := NewGameService(gameRepo, adminRepo, staticIDGenerator{id: "game-new"}, time.UTC, logging.NewNop())
	service.now = func() time.Time { return testNow }

	got, err := service.CreateGame(ctx, CreateGameInput{
		CallerID:        "admin-ops",
		StadiumName:     "Lapangan Banteng",
		Capacity:        14,
		Date:            "2026-03-14",
		Time:            "07:30",
		DurationMinutes: 60,
		Type:            "7v7",
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if got.Status != game.StatusUpcoming {
		t.Fatalf("unexpected status: got=%s want=%s", got.Status, game.StatusUpcoming)
	}
	if got.Host.Email != host.Email {
		t.Fatalf("unexpected host email: got=%s want=%s", got.Host.Email, host.Email)
	}
}

func TestGameService_CreateGame_RejectsUsingMockery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(*adminmock.Repository)
		input CreateGameInput
		want  error
	}{
		{
			name: "caller is not an admin",
			setup: func(r *adminmock.Repository) {
				r.On("GetByID", mock.Anything, "user-1").Return(admin.Admin{}, false, nil).Once()
			},
			input: CreateGameInput{CallerID: "user-1"},
			want:  ErrForbidden,
		},
		{
			name: "host does not exist",
			setup: func(r *adminmock.Repository) {
				r.On("GetByID", mock.Anything, "admin-ops").Return(admin.Admin{ID: "admin-ops"}, true, nil).Once()
				r.On("GetByID", mock.Anything, "admin-gone").Return(admin.Admin{}, false, nil).Once()
			},
			input: CreateGameInput{CallerID: "admin-ops", HostID: "admin-gone"},
			want:  ErrNotFound,
		},
		{
			name: "capacity below two",
			setup: func(r *adminmock.Repository) {
				r.On("GetByID", mock.Anything, "admin-ops").Return(admin.Admin{ID: "admin-ops"}, true, nil).Twice()
			},
			input: CreateGameInput{
				CallerID: "admin-ops", StadiumName: "GBK", Capacity: 1,
				Date: "2026-03-14", Time: "07:30", DurationMinutes: 60, Type: "5v5",
			},
			want: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			adminRepo := adminmock.NewRepository(t)
			tt.setup(adminRepo)
			service := NewGameService(gamemock.NewRepository(t), adminRepo, staticIDGenerator{id: "game-new"}, time.UTC, logging.NewNop())

			_, err := service.CreateGame(context.Background(), tt.input)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestGameService_ListUpcomingGames_UsesLeagueDateUsingMockery(t *testing.T) {
	t.Parallel()

	jakarta := time.FixedZone("WIB", 7*60*60)
	gameRepo := gamemock.NewRepository(t)
	gameRepo.
		On("ListUpcoming", mock.Anything, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)).
		Return([]game.Game{{ID: "g-next"}}, nil).
		Once()

	service := NewGameService(gameRepo, adminmock.NewRepository(t), staticIDGenerator{}, jakarta, logging.NewNop())
	// 20:00 UTC on March 1 is already March 2 in Jakarta.
	service.now = func() time.Time { return time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC) }

	got, err := service.ListUpcomingGames(context.Background())
	if err != nil {
		t.Fatalf("list upcoming games: %v", err)
	}
	if len(got) != 1 || got[0].ID != "g-next" {
		t.Fatalf("unexpected games: %+v", got)
	}
}

func TestGameService_GetGame_NotFoundUsingMockery(t *testing.T) {
	t.Parallel()

	gameRepo := gamemock.NewRepository(t)
	gameRepo.On("GetByID", mock.Anything, "missing").Return(game.Game{}, false, nil).Once()

	service := NewGameService(gameRepo, adminmock.NewRepository(t), staticIDGenerator{}, time.UTC, logging.NewNop())
	_, err := service.GetGame(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLeaderboardService_Top_RanksUsingMockery(t *testing.T) {
	t.Parallel()

	userRepo := usermock.NewRepository(t)
	userRepo.
		On("ListTopByPoints", mock.Anything, MaxLeaderboardSize).
		Return([]user.User{
			{ID: "u-a", FirstName: "Adi", Stats: user.Stats{Points: 9, Wins: 3}},
			{ID: "u-b", FirstName: "Budi", Stats: user.Stats{Points: 4, Wins: 1, Draws: 1}},
		}, nil).
		Once()

	got, err := NewLeaderboardService(userRepo).Top(context.Background(), 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected entry count: got=%d want=2", len(got))
	}
	if got[0].Rank != 1 || got[1].Rank != 2 {
		t.Fatalf("unexpected ranks: got=%d,%d want=1,2", got[0].Rank, got[1].Rank)
	}
	if got[1].Stats.Points != 4 {
		t.Fatalf("unexpected points: got=%d want=4", got[1].Stats.Points)
	}
}

func TestNotificationDelivery_DeliverUsingMockery(t *testing.T) {
	t.Parallel()

	msg := notification.Message{
		To:      notification.Recipient{Email: "p1@zeal.test", Name: "Player One"},
		Subject: "Spot Available for Game",
		Text:    "A spot has opened up.",
	}

	sender := notificationmock.NewSender(t)
	sender.On("Send", mock.Anything, msg).Return(nil).Once()
	if err := NewNotificationDelivery(sender, logging.NewNop()).Deliver(context.Background(), msg); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	failing := notificationmock.NewSender(t)
	failing.On("Send", mock.Anything, msg).Return(errors.New("rate limited")).Once()
	err := NewNotificationDelivery(failing, logging.NewNop()).Deliver(context.Background(), msg)
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}

	err = NewNotificationDelivery(notificationmock.NewSender(t), logging.NewNop()).
		Deliver(context.Background(), notification.Message{Subject: "no recipient"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
