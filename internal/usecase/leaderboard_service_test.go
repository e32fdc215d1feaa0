package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/riskibarqy/zeal-league/internal/domain/user"
	"github.com/riskibarqy/zeal-league/internal/infrastructure/repository/memory"
)

func TestLeaderboardService_TopOrdersByPointsThenWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewUserRepository()
	seed := []user.User{
		{ID: "u-c", Email: "c@zeal.test", Stats: user.Stats{Points: 6, Wins: 2}},
		{ID: "u-a", Email: "a@zeal.test", Stats: user.Stats{Points: 9, Wins: 3}},
		{ID: "u-b", Email: "b@zeal.test", Stats: user.Stats{Points: 6, Wins: 1, Draws: 3}},
		{ID: "u-d", Email: "d@zeal.test", Stats: user.Stats{Points: 6, Wins: 2}},
	}
	for _, u := range seed {
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("create user %s: %v", u.ID, err)
		}
	}

	entries, err := NewLeaderboardService(repo).Top(ctx, 0)
	if err != nil {
		t.Fatalf("top: %v", err)
	}

	want := []string{"u-a", "u-c", "u-d", "u-b"}
	if len(entries) != len(want) {
		t.Fatalf("unexpected entry count: got=%d want=%d", len(entries), len(want))
	}
	for i, id := range want {
		if entries[i].UserID != id {
			t.Fatalf("unexpected user at rank %d: got=%s want=%s", i+1, entries[i].UserID, id)
		}
		if entries[i].Rank != i+1 {
			t.Fatalf("unexpected rank: got=%d want=%d", entries[i].Rank, i+1)
		}
	}
}

func TestLeaderboardService_TopCapsLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewUserRepository()
	for i := 0; i < MaxLeaderboardSize+5; i++ {
		u := user.User{ID: fmt.Sprintf("u-%03d", i), Email: fmt.Sprintf("p%03d@zeal.test", i)}
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	entries, err := NewLeaderboardService(repo).Top(ctx, 500)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(entries) != MaxLeaderboardSize {
		t.Fatalf("unexpected entry count: got=%d want=%d", len(entries), MaxLeaderboardSize)
	}
}
