package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/zeal-league/internal/domain/credit"
	"github.com/riskibarqy/zeal-league/internal/domain/user"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
	"github.com/riskibarqy/zeal-league/internal/platform/tracing"
)

const DefaultCreditsPerPeriod = 10

// GrantCreditsInput is a billing outcome. A subscription grant expires at
// the end of the paid period; a permanent grant never expires.
type GrantCreditsInput struct {
	GrantID        string
	UserID         string
	Type           credit.LotType
	Amount         int
	SubscriptionID string
	Plan           user.Plan
	PeriodEnd      *time.Time
}

type GrantCreditsResult struct {
	User user.User
	// Applied is false when the grant id was already credited.
	Applied          bool
	CreditsAvailable int
}

type Profile struct {
	User             user.User
	CreditsAvailable int
}

type CreditService struct {
	users            user.Repository
	locker           Locker
	creditsPerPeriod int
	logger           *logging.Logger
	now              func() time.Time
}

func NewCreditService(users user.Repository, locker Locker, creditsPerPeriod int, logger *logging.Logger) *CreditService {
	if logger == nil {
		logger = logging.Default()
	}
	if creditsPerPeriod <= 0 {
		creditsPerPeriod = DefaultCreditsPerPeriod
	}

	return &CreditService{
		users:            users,
		locker:           locker,
		creditsPerPeriod: creditsPerPeriod,
		logger:           logger,
		now:              time.Now,
	}
}

func (s *CreditService) Grant(ctx context.Context, input GrantCreditsInput) (GrantCreditsResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CreditService.Grant", tracing.UserID(input.UserID))
	defer span.End()

	input.GrantID = strings.TrimSpace(input.GrantID)
	input.UserID = strings.TrimSpace(input.UserID)
	if input.GrantID == "" {
		return GrantCreditsResult{}, fmt.Errorf("%w: grant_id is required", ErrInvalidInput)
	}
	if input.UserID == "" {
		return GrantCreditsResult{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	lot := credit.Lot{Type: input.Type, Amount: input.Amount}
	switch input.Type {
	case credit.LotTypeSubscription:
		if input.PeriodEnd == nil {
			return GrantCreditsResult{}, fmt.Errorf("%w: period_end is required for subscription grants", ErrInvalidInput)
		}
		end := *input.PeriodEnd
		lot.ExpiresAt = &end
		if lot.Amount == 0 {
			lot.Amount = s.creditsPerPeriod
		}
	case credit.LotTypePermanent:
		if lot.Amount <= 0 {
			return GrantCreditsResult{}, fmt.Errorf("%w: amount must be > 0 for permanent grants", ErrInvalidInput)
		}
	default:
		return GrantCreditsResult{}, fmt.Errorf("%w: unknown credit type %q", ErrInvalidInput, input.Type)
	}

	var result GrantCreditsResult
	for attempt := 0; ; attempt++ {
		err := runLocked(ctx, s.locker, []string{userLockKey(input.UserID)}, func(ctx context.Context) error {
			u, err := loadUser(ctx, s.users, input.UserID)
			if err != nil {
				return err
			}
			if u.HasGrant(input.GrantID) {
				result = GrantCreditsResult{User: u, CreditsAvailable: credit.TotalAvailable(u.Credits)}
				return nil
			}

			lots, err := credit.Grant(u.Credits, lot)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidInput, err)
			}
			u.Credits = lots
			u.AppliedGrants = append(u.AppliedGrants, input.GrantID)
			if input.Type == credit.LotTypeSubscription {
				u.Subscription = user.Subscription{
					ID:               strings.TrimSpace(input.SubscriptionID),
					Status:           user.SubscriptionActive,
					Plan:             input.Plan,
					CurrentPeriodEnd: lot.ExpiresAt,
				}
			}
			u.UpdatedAt = s.now()

			saved, err := s.users.Update(ctx, u)
			if err != nil {
				return fmt.Errorf("update user: %w", err)
			}
			result = GrantCreditsResult{User: saved, Applied: true, CreditsAvailable: credit.TotalAvailable(saved.Credits)}
			return nil
		})
		if errors.Is(err, user.ErrVersionConflict) && attempt+1 < maxVersionRetries {
			continue
		}
		if err != nil {
			return GrantCreditsResult{}, err
		}
		break
	}

	if result.Applied {
		s.logger.InfoContext(ctx, "credits granted",
			"user_id", input.UserID,
			"grant_id", input.GrantID,
			"type", string(lot.Type),
			"amount", lot.Amount,
		)
	}
	return result, nil
}

// GetProfile returns the user with credits swept of expired lots. The sweep
// is not persisted.
func (s *CreditService) GetProfile(ctx context.Context, userID string) (Profile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CreditService.GetProfile")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Profile{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	u, err := loadUser(ctx, s.users, userID)
	if err != nil {
		return Profile{}, err
	}
	u.Credits = credit.RemoveExpired(u.Credits, s.now())

	return Profile{User: u, CreditsAvailable: credit.TotalAvailable(u.Credits)}, nil
}
