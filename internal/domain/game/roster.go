package game

import "fmt"

// SlotRef addresses one slot in one team.
type SlotRef struct {
	TeamIndex int
	SlotIndex int
}

// Assign places entry in the first empty slot of team 0, then team 1.
// On ErrGameFull the game is unchanged.
func (g *Game) Assign(entry RosterEntry) (SlotRef, error) {
	if g.IsSignedUp(entry.Email) {
		return SlotRef{}, fmt.Errorf("%w: email=%s", ErrAlreadyOnRoster, entry.Email)
	}

	for teamIdx, team := range g.Teams {
		for slotIdx, slot := range team {
			if slot != nil {
				continue
			}
			e := entry
			g.Teams[teamIdx][slotIdx] = &e
			return SlotRef{TeamIndex: teamIdx, SlotIndex: slotIdx}, nil
		}
	}

	return SlotRef{}, ErrGameFull
}

// Remove empties the slot holding email and returns what was there,
// including the credit lots the signup consumed.
func (g *Game) Remove(email string) (RosterEntry, SlotRef, error) {
	entry, ref, ok := g.Entry(email)
	if !ok {
		return RosterEntry{}, SlotRef{}, fmt.Errorf("%w: email=%s", ErrNotOnRoster, email)
	}
	g.Teams[ref.TeamIndex][ref.SlotIndex] = nil
	return *entry, ref, nil
}

func (g Game) IsSignedUp(email string) bool {
	_, _, ok := g.Entry(email)
	return ok
}

// Entry finds the slot holding email, scanning team 0 then team 1.
func (g Game) Entry(email string) (*RosterEntry, SlotRef, bool) {
	for teamIdx, team := range g.Teams {
		for slotIdx, slot := range team {
			if slot != nil && sameEmail(slot.Email, email) {
				return slot, SlotRef{TeamIndex: teamIdx, SlotIndex: slotIdx}, true
			}
		}
	}
	return nil, SlotRef{}, false
}

// Occupied returns every filled slot in team then slot order.
func (g Game) Occupied() []SlotRef {
	out := make([]SlotRef, 0, 2*g.TeamSize())
	for teamIdx, team := range g.Teams {
		for slotIdx, slot := range team {
			if slot != nil {
				out = append(out, SlotRef{TeamIndex: teamIdx, SlotIndex: slotIdx})
			}
		}
	}
	return out
}

func (g Game) Slot(ref SlotRef) *RosterEntry {
	if ref.TeamIndex < 0 || ref.TeamIndex >= TeamCount {
		return nil
	}
	team := g.Teams[ref.TeamIndex]
	if ref.SlotIndex < 0 || ref.SlotIndex >= len(team) {
		return nil
	}
	return team[ref.SlotIndex]
}

func (g Game) OnWaitlist(email string) bool {
	return g.waitlistIndex(email) >= 0
}

// JoinWaitlist appends entry. A player may not be both rostered and waitlisted.
func (g *Game) JoinWaitlist(entry WaitlistEntry) error {
	if g.IsSignedUp(entry.Email) {
		return fmt.Errorf("%w: email=%s", ErrAlreadyOnRoster, entry.Email)
	}
	if g.OnWaitlist(entry.Email) {
		return fmt.Errorf("%w: email=%s", ErrAlreadyOnWaitlist, entry.Email)
	}
	g.Waitlist = append(g.Waitlist, entry)
	return nil
}

// LeaveWaitlist removes email from the waitlist and reports whether it was there.
func (g *Game) LeaveWaitlist(email string) bool {
	idx := g.waitlistIndex(email)
	if idx < 0 {
		return false
	}
	g.Waitlist = append(g.Waitlist[:idx:idx], g.Waitlist[idx+1:]...)
	return true
}

func (g Game) waitlistIndex(email string) int {
	for i, w := range g.Waitlist {
		if sameEmail(w.Email, email) {
			return i
		}
	}
	return -1
}
