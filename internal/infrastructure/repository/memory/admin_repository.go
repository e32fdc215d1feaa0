package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/zeal-league/internal/domain/admin"
)

type AdminRepository struct {
	mu    sync.RWMutex
	items map[string]admin.Admin
}

func NewAdminRepository(seed ...admin.Admin) *AdminRepository {
	items := make(map[string]admin.Admin, len(seed))
	for _, a := range seed {
		items[a.ID] = a
	}
	return &AdminRepository{items: items}
}

func (r *AdminRepository) GetByID(_ context.Context, adminID string) (admin.Admin, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[adminID]
	return item, ok, nil
}

func (r *AdminRepository) Upsert(_ context.Context, a admin.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[a.ID] = a
	return nil
}
