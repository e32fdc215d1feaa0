package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/zeal-league/internal/domain/admin"
	"github.com/riskibarqy/zeal-league/internal/domain/credit"
	"github.com/riskibarqy/zeal-league/internal/domain/game"
	"github.com/riskibarqy/zeal-league/internal/domain/notification"
	"github.com/riskibarqy/zeal-league/internal/domain/user"
	"github.com/riskibarqy/zeal-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/zeal-league/internal/platform/lock"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
)

const testAdminID = "admin-1"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type staticIDGenerator struct {
	id string
}

func (g staticIDGenerator) NewID() (string, error) {
	return g.id, nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []notification.Message
	fail map[string]error
}

func (s *recordingSender) Send(_ context.Context, msg notification.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.fail[msg.To.Email]; ok {
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) subjectsFor(email string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for _, msg := range s.sent {
		if msg.To.Email == email {
			out = append(out, msg.Subject)
		}
	}
	return out
}

type fixture struct {
	games   *memory.GameRepository
	users   *memory.UserRepository
	admins  *memory.AdminRepository
	sender  *recordingSender
	signup  *SignupService
	status  *GameStatusService
	gameSvc *GameService
	logger  *logging.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewUserRepository()
	return buildFixture(t, store, store, logging.NewNop())
}

func buildFixture(t *testing.T, store *memory.UserRepository, users user.Repository, logger *logging.Logger) *fixture {
	t.Helper()

	games := memory.NewGameRepository()
	admins := memory.NewAdminRepository(admin.Admin{
		ID:        testAdminID,
		Email:     "host@zeal.test",
		FirstName: "Host",
		Role:      admin.RoleAdmin,
	})
	sender := &recordingSender{}
	locker := lock.NewKeyedMutex(time.Second)
	notifier := NewNotificationDispatcher(sender, 4, logger)

	signup := NewSignupService(games, users, locker, notifier, SignupServiceConfig{}, logger)
	signup.now = func() time.Time { return testNow }

	aggregator := NewStatsAggregator(users, locker, 4, logger)
	aggregator.now = func() time.Time { return testNow }

	status := NewGameStatusService(games, admins, locker, aggregator, logger)
	status.now = func() time.Time { return testNow }

	gameSvc := NewGameService(games, admins, staticIDGenerator{id: "game-created"}, time.UTC, logger)
	gameSvc.now = func() time.Time { return testNow }

	return &fixture{
		games:   games,
		users:   store,
		admins:  admins,
		sender:  sender,
		signup:  signup,
		status:  status,
		gameSvc: gameSvc,
		logger:  logger,
	}
}

func (f *fixture) addUser(t *testing.T, n int, lots ...credit.Lot) user.User {
	t.Helper()

	u := user.User{
		ID:        fmt.Sprintf("user-%d", n),
		Email:     fmt.Sprintf("p%d@zeal.test", n),
		FirstName: fmt.Sprintf("Player%d", n),
		LastName:  "Test",
		Credits:   lots,
	}
	if err := f.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// addGame stores an upcoming game whose kickoff is at, in UTC.
func (f *fixture) addGame(t *testing.T, id string, capacity int, at time.Time) game.Game {
	t.Helper()

	g, err := game.New(game.NewGameParams{
		ID:              id,
		Stadium:         game.Stadium{Name: "Senayan Mini", Capacity: capacity},
		Host:            game.Host{ID: testAdminID, Email: "host@zeal.test"},
		Date:            at,
		Time:            at.Format(game.TimeLayout),
		DurationMinutes: 90,
		Type:            "5v5",
		Now:             testNow,
	})
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	if err := f.games.Create(context.Background(), g); err != nil {
		t.Fatalf("create game: %v", err)
	}
	return g
}

func (f *fixture) game(t *testing.T, id string) game.Game {
	t.Helper()

	g, ok, err := f.games.GetByID(context.Background(), id)
	if err != nil || !ok {
		t.Fatalf("get game %s: ok=%v err=%v", id, ok, err)
	}
	return g
}

func (f *fixture) user(t *testing.T, id string) user.User {
	t.Helper()

	u, ok, err := f.users.GetByID(context.Background(), id)
	if err != nil || !ok {
		t.Fatalf("get user %s: ok=%v err=%v", id, ok, err)
	}
	return u
}

func permanent(n int) credit.Lot {
	return credit.Lot{Amount: n, Type: credit.LotTypePermanent}
}

func expiringLot(n int, at time.Time) credit.Lot {
	return credit.Lot{Amount: n, Type: credit.LotTypeSubscription, ExpiresAt: &at}
}

// assertExclusive fails when an email sits in more than one of team 0, team 1 and the waitlist.
func assertExclusive(t *testing.T, g game.Game) {
	t.Helper()

	seen := map[string]string{}
	mark := func(email, where string) {
		if prev, ok := seen[email]; ok {
			t.Fatalf("email %s appears in %s and %s", email, prev, where)
		}
		seen[email] = where
	}
	for teamIdx, team := range g.Teams {
		for _, slot := range team {
			if slot != nil {
				mark(slot.Email, fmt.Sprintf("team%d", teamIdx))
			}
		}
	}
	for _, w := range g.Waitlist {
		mark(w.Email, "waitlist")
	}
}
