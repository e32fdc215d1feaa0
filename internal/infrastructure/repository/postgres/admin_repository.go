package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/zeal-league/internal/domain/admin"
	qb "github.com/riskibarqy/zeal-league/internal/platform/querybuilder"
)

type adminTableModel struct {
	PublicID    string `db:"public_id"`
	Email       string `db:"email"`
	FirstName   string `db:"first_name"`
	LastName    string `db:"last_name"`
	PhoneNumber string `db:"phone_number"`
	Role        string `db:"role"`
}

type AdminRepository struct {
	db *sqlx.DB
}

func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetByID(ctx context.Context, adminID string) (admin.Admin, bool, error) {
	query, args, err := qb.Select("public_id, email, first_name, last_name, phone_number, role").
		From("admins").
		Where(
			qb.Eq("public_id", adminID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return admin.Admin{}, false, fmt.Errorf("build get admin by id query: %w", err)
	}

	var row adminTableModel
	err = withStaleRetry(func() error {
		return r.db.GetContext(ctx, &row, query, args...)
	})
	if err != nil {
		if isNotFound(err) {
			return admin.Admin{}, false, nil
		}
		return admin.Admin{}, false, fmt.Errorf("get admin by id: %w", err)
	}

	return admin.Admin{
		ID:          row.PublicID,
		Email:       row.Email,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		PhoneNumber: row.PhoneNumber,
		Role:        admin.Role(row.Role),
	}, true, nil
}

// Upsert inserts or refreshes an admin row by public id.
func (r *AdminRepository) Upsert(ctx context.Context, a admin.Admin) error {
	query, args, err := qb.InsertModel("admins", adminTableModel{
		PublicID:    a.ID,
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		PhoneNumber: a.PhoneNumber,
		Role:        string(a.Role),
	}).
		OnConflict("public_id").
		UpdateExcluded("email", "first_name", "last_name", "phone_number", "role").
		UpdateRaw("deleted_at", "NULL").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert admin query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert admin %s: %w", a.ID, err)
	}
	return nil
}
