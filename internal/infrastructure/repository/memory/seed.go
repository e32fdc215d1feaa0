package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/zeal-league/internal/domain/admin"
	"github.com/riskibarqy/zeal-league/internal/domain/credit"
	"github.com/riskibarqy/zeal-league/internal/domain/user"
)

const (
	AdminIDDefault = "admin-zeal-ops"
	UserIDDemo     = "user-demo-striker"
)

func SeedAdmins() []admin.Admin {
	return []admin.Admin{
		{
			ID:          AdminIDDefault,
			Email:       "ops@zealfc.test",
			FirstName:   "Zeal",
			LastName:    "Ops",
			PhoneNumber: "+6281200000000",
			Role:        admin.RoleSuperAdmin,
		},
	}
}

// SeedUsers returns demo players; the first holds one permanent credit and a
// monthly subscription lot.
func SeedUsers(now time.Time) []user.User {
	periodEnd := now.AddDate(0, 1, 0)
	return []user.User{
		{
			ID:        UserIDDemo,
			Email:     "striker@zealfc.test",
			FirstName: "Demo",
			LastName:  "Striker",
			Position:  "Forward",
			Credits: []credit.Lot{
				{Amount: 10, Type: credit.LotTypeSubscription, ExpiresAt: &periodEnd},
				{Amount: 1, Type: credit.LotTypePermanent},
			},
			Subscription: user.Subscription{
				Status:           user.SubscriptionActive,
				Plan:             user.PlanBasic,
				CurrentPeriodEnd: &periodEnd,
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        "user-demo-keeper",
			Email:     "keeper@zealfc.test",
			FirstName: "Demo",
			LastName:  "Keeper",
			Position:  "Goalkeeper",
			Credits:   []credit.Lot{{Amount: 0, Type: credit.LotTypePermanent}},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// SeedUserRepository loads users into repo, failing on the first error.
func SeedUserRepository(ctx context.Context, repo *UserRepository, users []user.User) error {
	for _, u := range users {
		if err := repo.Create(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}
	return nil
}
