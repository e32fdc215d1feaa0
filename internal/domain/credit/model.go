package credit

import (
	"errors"
	"fmt"
	"time"
)

var ErrInsufficientCredits = errors.New("insufficient credits")

// LotType tells whether a lot expires.
type LotType string

const (
	LotTypeSubscription LotType = "subscription"
	LotTypePermanent    LotType = "permanent"
)

// Lot is a discrete quantity of credits sharing one expiry policy.
// The same shape is used for the snapshot of what a signup consumed.
type Lot struct {
	Amount    int        `json:"amount"`
	Type      LotType    `json:"type"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (l Lot) Validate() error {
	if l.Amount < 0 {
		return fmt.Errorf("lot amount must be >= 0")
	}
	switch l.Type {
	case LotTypePermanent:
		if l.ExpiresAt != nil {
			return fmt.Errorf("permanent lot cannot expire")
		}
	case LotTypeSubscription:
		if l.ExpiresAt == nil {
			return fmt.Errorf("subscription lot requires expires_at")
		}
	default:
		return fmt.Errorf("unknown lot type %q", l.Type)
	}

	return nil
}

// Expired reports whether a subscription lot is past its expiry at now.
func (l Lot) Expired(now time.Time) bool {
	return l.Type == LotTypeSubscription && l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

func cloneLot(l Lot) Lot {
	out := l
	if l.ExpiresAt != nil {
		t := *l.ExpiresAt
		out.ExpiresAt = &t
	}
	return out
}

// CloneLots returns a deep copy so callers never share expiry pointers.
func CloneLots(lots []Lot) []Lot {
	if lots == nil {
		return nil
	}
	out := make([]Lot, len(lots))
	for i, l := range lots {
		out[i] = cloneLot(l)
	}
	return out
}
