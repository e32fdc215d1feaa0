package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/zeal-league/internal/domain/game"
)

type GameRepository struct {
	mu    sync.RWMutex
	items map[string]game.Game
}

func NewGameRepository() *GameRepository {
	return &GameRepository{items: make(map[string]game.Game)}
}

func (r *GameRepository) GetByID(_ context.Context, gameID string) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[gameID]
	if !ok {
		return game.Game{}, false, nil
	}
	return item.Clone(), true, nil
}

func (r *GameRepository) List(_ context.Context) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]game.Game, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		if out[i].Time != out[j].Time {
			return out[i].Time > out[j].Time
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *GameRepository) ListUpcoming(_ context.Context, from time.Time) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]game.Game, 0)
	for _, item := range r.items {
		if item.Status != game.StatusUpcoming || item.Date.Before(from) {
			continue
		}
		out = append(out, item.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *GameRepository) Create(_ context.Context, g game.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[g.ID]; exists {
		return fmt.Errorf("game %s already exists", g.ID)
	}
	r.items[g.ID] = g.Clone()
	return nil
}

func (r *GameRepository) Update(_ context.Context, g game.Game) (game.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.items[g.ID]
	if !exists {
		return game.Game{}, fmt.Errorf("game %s does not exist", g.ID)
	}
	if stored.Version != g.Version {
		return game.Game{}, fmt.Errorf("%w: game=%s stored=%d given=%d", game.ErrVersionConflict, g.ID, stored.Version, g.Version)
	}

	next := g.Clone()
	next.Version++
	r.items[g.ID] = next
	return next.Clone(), nil
}
