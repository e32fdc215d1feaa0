package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/zeal-league/internal/domain/user"
)

const MaxLeaderboardSize = 100

type LeaderboardEntry struct {
	Rank      int
	UserID    string
	FirstName string
	LastName  string
	Stats     user.Stats
}

type LeaderboardService struct {
	users user.Repository
}

func NewLeaderboardService(users user.Repository) *LeaderboardService {
	return &LeaderboardService{users: users}
}

func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.Top")
	defer span.End()

	if limit <= 0 || limit > MaxLeaderboardSize {
		limit = MaxLeaderboardSize
	}

	items, err := s.users.ListTopByPoints(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list top users: %w", err)
	}

	out := make([]LeaderboardEntry, 0, len(items))
	for i, u := range items {
		out = append(out, LeaderboardEntry{
			Rank:      i + 1,
			UserID:    u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Stats:     u.Stats,
		})
	}
	return out, nil
}
