// Package cache decorates repositories with read-through caching of list
// queries. Writes through a decorator invalidate the lists they can affect.
package cache

import (
	"context"
	"slices"
	"strconv"
	"time"

	"github.com/riskibarqy/zeal-league/internal/domain/admin"
	"github.com/riskibarqy/zeal-league/internal/domain/game"
	"github.com/riskibarqy/zeal-league/internal/domain/user"
	basecache "github.com/riskibarqy/zeal-league/internal/platform/cache"
)

// GameRepository caches list reads. GetByID always reaches the next
// repository because workflows read it under lock before writing.
type GameRepository struct {
	game.Repository
	lists basecache.Namespace[[]game.Game]
}

func NewGameRepository(next game.Repository, store *basecache.Store) *GameRepository {
	return &GameRepository{
		Repository: next,
		lists:      basecache.NewNamespace[[]game.Game](store, "game:"),
	}
}

func (r *GameRepository) List(ctx context.Context) ([]game.Game, error) {
	return r.lists.GetOrLoad(ctx, "all", r.Repository.List, cloneGames)
}

func (r *GameRepository) ListUpcoming(ctx context.Context, from time.Time) ([]game.Game, error) {
	return r.lists.GetOrLoad(ctx, "upcoming:"+from.Format(game.DateLayout), func(ctx context.Context) ([]game.Game, error) {
		return r.Repository.ListUpcoming(ctx, from)
	}, cloneGames)
}

func (r *GameRepository) Create(ctx context.Context, g game.Game) error {
	if err := r.Repository.Create(ctx, g); err != nil {
		return err
	}
	r.lists.Invalidate(ctx)
	return nil
}

func (r *GameRepository) Update(ctx context.Context, g game.Game) (game.Game, error) {
	saved, err := r.Repository.Update(ctx, g)
	if err != nil {
		return game.Game{}, err
	}
	r.lists.Invalidate(ctx)
	return saved, nil
}

func cloneGames(items []game.Game) []game.Game {
	out := slices.Clone(items)
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out
}

// UserRepository caches the leaderboard only. Profile and ledger reads go
// straight to storage.
type UserRepository struct {
	user.Repository
	leaderboard basecache.Namespace[[]user.User]
}

func NewUserRepository(next user.Repository, store *basecache.Store) *UserRepository {
	return &UserRepository{
		Repository:  next,
		leaderboard: basecache.NewNamespace[[]user.User](store, "user:top:"),
	}
}

func (r *UserRepository) Create(ctx context.Context, u user.User) error {
	if err := r.Repository.Create(ctx, u); err != nil {
		return err
	}
	r.leaderboard.Invalidate(ctx)
	return nil
}

func (r *UserRepository) Update(ctx context.Context, u user.User) (user.User, error) {
	saved, err := r.Repository.Update(ctx, u)
	if err != nil {
		return user.User{}, err
	}
	r.leaderboard.Invalidate(ctx)
	return saved, nil
}

func (r *UserRepository) ListTopByPoints(ctx context.Context, limit int) ([]user.User, error) {
	return r.leaderboard.GetOrLoad(ctx, strconv.Itoa(limit), func(ctx context.Context) ([]user.User, error) {
		return r.Repository.ListTopByPoints(ctx, limit)
	}, cloneUsers)
}

func cloneUsers(items []user.User) []user.User {
	out := slices.Clone(items)
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out
}

// AdminRepository caches lookups, misses included, since the admin set only
// changes through seeding.
type AdminRepository struct {
	admin.Repository
	byID basecache.Namespace[adminLookup]
}

type adminLookup struct {
	value  admin.Admin
	exists bool
}

func NewAdminRepository(next admin.Repository, store *basecache.Store) *AdminRepository {
	return &AdminRepository{
		Repository: next,
		byID:       basecache.NewNamespace[adminLookup](store, "admin:id:"),
	}
}

func (r *AdminRepository) GetByID(ctx context.Context, adminID string) (admin.Admin, bool, error) {
	found, err := r.byID.GetOrLoad(ctx, adminID, func(ctx context.Context) (adminLookup, error) {
		a, exists, err := r.Repository.GetByID(ctx, adminID)
		return adminLookup{value: a, exists: exists}, err
	}, nil)
	if err != nil {
		return admin.Admin{}, false, err
	}
	return found.value, found.exists, nil
}
