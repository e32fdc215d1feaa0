package credit

import (
	"fmt"
	"sort"
	"time"
)

// RemoveExpired drops subscription lots whose expiry is before now.
// Permanent lots are always kept.
func RemoveExpired(lots []Lot, now time.Time) []Lot {
	out := make([]Lot, 0, len(lots))
	for _, l := range lots {
		if l.Expired(now) {
			continue
		}
		out = append(out, cloneLot(l))
	}
	return out
}

// TotalAvailable sums every lot without filtering by expiry.
func TotalAvailable(lots []Lot) int {
	total := 0
	for _, l := range lots {
		total += l.Amount
	}
	return total
}

// Consume takes n credits, spending the soonest-expiring lots first and
// permanent lots last. The input is never modified: on success the returned
// slice is the new ledger and used lists what was taken, in order. On
// shortfall it returns ErrInsufficientCredits and the caller keeps lots.
func Consume(lots []Lot, n int) ([]Lot, []Lot, error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("consume amount must be > 0, got %d", n)
	}
	if TotalAvailable(lots) < n {
		return nil, nil, fmt.Errorf("%w: need=%d available=%d", ErrInsufficientCredits, n, TotalAvailable(lots))
	}

	working := CloneLots(lots)
	order := consumptionOrder(working)

	remaining := n
	used := make([]Lot, 0, 1)
	for _, idx := range order {
		if remaining == 0 {
			break
		}
		lot := &working[idx]
		if lot.Amount <= 0 {
			continue
		}

		take := min(lot.Amount, remaining)
		lot.Amount -= take
		remaining -= take

		taken := cloneLot(*lot)
		taken.Amount = take
		used = append(used, taken)
	}
	if remaining > 0 {
		// Amounts went negative somewhere upstream; treat as a shortfall.
		return nil, nil, fmt.Errorf("%w: need=%d short=%d", ErrInsufficientCredits, n, remaining)
	}

	out := make([]Lot, 0, len(working))
	for _, l := range working {
		if l.Amount == 0 && l.Type != LotTypePermanent {
			continue
		}
		out = append(out, l)
	}

	return out, used, nil
}

// Refund puts previously consumed lots back with their original type and
// expiry. A lot with the same type and expiry absorbs the amount, otherwise
// a new lot is appended.
func Refund(lots []Lot, used []Lot) []Lot {
	out := CloneLots(lots)
	for _, u := range used {
		if u.Amount <= 0 {
			continue
		}
		merged := false
		for i := range out {
			if sameBucket(out[i], u) {
				out[i].Amount += u.Amount
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, cloneLot(u))
		}
	}
	return out
}

// Grant appends a fresh lot.
func Grant(lots []Lot, lot Lot) ([]Lot, error) {
	if err := lot.Validate(); err != nil {
		return nil, fmt.Errorf("grant lot: %w", err)
	}
	if lot.Amount == 0 {
		return nil, fmt.Errorf("grant lot: amount must be > 0")
	}
	return append(CloneLots(lots), cloneLot(lot)), nil
}

func consumptionOrder(lots []Lot) []int {
	order := make([]int, len(lots))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		left, right := lots[order[a]].ExpiresAt, lots[order[b]].ExpiresAt
		switch {
		case left == nil:
			return false
		case right == nil:
			return true
		default:
			return left.Before(*right)
		}
	})
	return order
}

func sameBucket(a, b Lot) bool {
	if a.Type != b.Type {
		return false
	}
	if a.ExpiresAt == nil || b.ExpiresAt == nil {
		return a.ExpiresAt == nil && b.ExpiresAt == nil
	}
	return a.ExpiresAt.Equal(*b.ExpiresAt)
}
