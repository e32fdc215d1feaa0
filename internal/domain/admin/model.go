package admin

import (
	"context"

	"github.com/riskibarqy/zeal-league/internal/domain/game"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Admin is a platform administrator. ID equals the identity provider subject.
type Admin struct {
	ID          string
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
	Role        Role
}

// HostSnapshot copies the fields a game keeps about its host.
func (a Admin) HostSnapshot() game.Host {
	return game.Host{
		ID:          a.ID,
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		PhoneNumber: a.PhoneNumber,
	}
}

type Repository interface {
	GetByID(ctx context.Context, adminID string) (Admin, bool, error)
}
