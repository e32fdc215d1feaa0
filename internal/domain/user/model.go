package user

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/zeal-league/internal/domain/credit"
	"github.com/riskibarqy/zeal-league/internal/domain/game"
)

var ErrVersionConflict = errors.New("user was modified concurrently")

const DefaultPosition = "Unknown"

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionInactive SubscriptionStatus = "inactive"
)

type Plan string

const (
	PlanBasic   Plan = "Basic"
	PlanPremium Plan = "Premium"
	PlanMate    Plan = "Mate"
)

type Subscription struct {
	ID               string
	Status           SubscriptionStatus
	Plan             Plan
	CurrentPeriodEnd *time.Time
}

// User is a league player. ID equals the identity provider subject.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PhoneNumber  string
	Position     string
	Stats        Stats
	Games        []GameRecord
	Credits      []credit.Lot
	Subscription Subscription
	// AppliedGrants holds billing grant ids already credited.
	AppliedGrants []string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("user email is required")
	}
	for _, lot := range u.Credits {
		if err := lot.Validate(); err != nil {
			return fmt.Errorf("user %s credits: %w", u.ID, err)
		}
	}
	return nil
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// RosterEntry copies identity fields into a fresh per-game record.
func (u User) RosterEntry() game.RosterEntry {
	return game.RosterEntry{
		UserID:     u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		Position:   u.position(),
		Attendance: game.AttendanceRegistered,
	}
}

func (u User) WaitlistEntry(now time.Time) game.WaitlistEntry {
	return game.WaitlistEntry{
		UserID:    u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Position:  u.position(),
		JoinedAt:  now,
	}
}

func (u User) position() string {
	if strings.TrimSpace(u.Position) == "" {
		return DefaultPosition
	}
	return u.Position
}

func (u User) HasGrant(grantID string) bool {
	for _, id := range u.AppliedGrants {
		if id == grantID {
			return true
		}
	}
	return false
}

// Clone deep-copies history, credits and grants.
func (u User) Clone() User {
	out := u
	out.Games = append([]GameRecord(nil), u.Games...)
	out.Credits = credit.CloneLots(u.Credits)
	out.AppliedGrants = append([]string(nil), u.AppliedGrants...)
	if u.Subscription.CurrentPeriodEnd != nil {
		t := *u.Subscription.CurrentPeriodEnd
		out.Subscription.CurrentPeriodEnd = &t
	}
	return out
}
