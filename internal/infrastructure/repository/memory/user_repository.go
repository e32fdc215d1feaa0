package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/riskibarqy/zeal-league/internal/domain/user"
)

type UserRepository struct {
	mu      sync.RWMutex
	items   map[string]user.User
	byEmail map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		items:   make(map[string]user.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) GetByID(_ context.Context, userID string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[userID]
	if !ok {
		return user.User{}, false, nil
	}
	return item.Clone(), true, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return user.User{}, false, nil
	}
	return r.items[id].Clone(), true, nil
}

func (r *UserRepository) Create(_ context.Context, u user.User) error {
	if err := u.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[u.ID]; exists {
		return fmt.Errorf("user %s already exists", u.ID)
	}
	if _, exists := r.byEmail[emailKey(u.Email)]; exists {
		return fmt.Errorf("user email %s already exists", u.Email)
	}
	r.items[u.ID] = u.Clone()
	r.byEmail[emailKey(u.Email)] = u.ID
	return nil
}

func (r *UserRepository) Update(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.items[u.ID]
	if !exists {
		return user.User{}, fmt.Errorf("user %s does not exist", u.ID)
	}
	if stored.Version != u.Version {
		return user.User{}, fmt.Errorf("%w: user=%s stored=%d given=%d", user.ErrVersionConflict, u.ID, stored.Version, u.Version)
	}

	next := u.Clone()
	next.Version++
	if emailKey(stored.Email) != emailKey(next.Email) {
		delete(r.byEmail, emailKey(stored.Email))
		r.byEmail[emailKey(next.Email)] = next.ID
	}
	r.items[u.ID] = next
	return next.Clone(), nil
}

func (r *UserRepository) ListTopByPoints(_ context.Context, limit int) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stats.Points != out[j].Stats.Points {
			return out[i].Stats.Points > out[j].Stats.Points
		}
		if out[i].Stats.Wins != out[j].Stats.Wins {
			return out[i].Stats.Wins > out[j].Stats.Wins
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
