package game

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"
)

func newTestGame(t *testing.T, capacity int) Game {
	t.Helper()

	g, err := New(NewGameParams{
		ID:              "game-1",
		Stadium:         Stadium{Name: "Senayan Mini", Capacity: capacity},
		Host:            Host{ID: "admin-1", Email: "host@zeal.test"},
		Date:            time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Time:            "19:30",
		DurationMinutes: 90,
		Type:            "5v5",
		Now:             time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	return g
}

func player(i int) RosterEntry {
	return RosterEntry{
		UserID:     fmt.Sprintf("user-%d", i),
		Email:      fmt.Sprintf("p%d@zeal.test", i),
		Position:   "Unknown",
		Attendance: AttendanceRegistered,
	}
}

func TestNew_SplitsCapacityIntoTwoTeams(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 21)
	if g.Status != StatusUpcoming {
		t.Fatalf("unexpected status: got=%q want=%q", g.Status, StatusUpcoming)
	}
	for teamIdx, team := range g.Teams {
		if len(team) != 10 {
			t.Fatalf("unexpected team %d size: got=%d want=10", teamIdx, len(team))
		}
		for slotIdx, slot := range team {
			if slot != nil {
				t.Fatalf("slot %d/%d should start empty", teamIdx, slotIdx)
			}
		}
	}
}

func TestNew_RejectsTinyCapacity(t *testing.T) {
	t.Parallel()

	_, err := New(NewGameParams{
		ID:              "g",
		Stadium:         Stadium{Name: "Cage", Capacity: 1},
		Host:            Host{ID: "h"},
		Date:            time.Now(),
		Time:            "10:00",
		DurationMinutes: 60,
		Type:            "futsal",
	})
	if err == nil {
		t.Fatalf("expected capacity error")
	}
}

func TestAssign_FillsTeamZeroThenTeamOne(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 20)

	for i := 0; i < 10; i++ {
		ref, err := g.Assign(player(i))
		if err != nil {
			t.Fatalf("assign #%d: %v", i+1, err)
		}
		if ref.TeamIndex != 0 || ref.SlotIndex != i {
			t.Fatalf("unexpected slot for signup #%d: got=%+v", i+1, ref)
		}
	}

	ref, err := g.Assign(player(10))
	if err != nil {
		t.Fatalf("assign #11: %v", err)
	}
	if want := (SlotRef{TeamIndex: 1, SlotIndex: 0}); ref != want {
		t.Fatalf("unexpected slot for signup #11: got=%+v want=%+v", ref, want)
	}

	for i := 11; i < 20; i++ {
		if _, err := g.Assign(player(i)); err != nil {
			t.Fatalf("assign #%d: %v", i+1, err)
		}
	}

	before := g.Clone()
	_, err = g.Assign(player(20))
	if !errors.Is(err, ErrGameFull) {
		t.Fatalf("expected ErrGameFull, got %v", err)
	}
	if !reflect.DeepEqual(before, g) {
		t.Fatalf("full game changed on rejected assign")
	}
}

func TestAssign_ReusesFirstFreedSlot(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 4)
	for i := 0; i < 3; i++ {
		if _, err := g.Assign(player(i)); err != nil {
			t.Fatalf("assign #%d: %v", i+1, err)
		}
	}

	freed := SlotRef{TeamIndex: 0, SlotIndex: 1}
	removed, ref, err := g.Remove(player(1).Email)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed.UserID != "user-1" || ref != freed {
		t.Fatalf("unexpected removal: entry=%+v slot=%+v", removed, ref)
	}
	if g.IsSignedUp(player(1).Email) {
		t.Fatalf("removed player still signed up")
	}

	ref, err = g.Assign(player(9))
	if err != nil {
		t.Fatalf("assign after remove: %v", err)
	}
	if ref != freed {
		t.Fatalf("unexpected slot: got=%+v want=%+v", ref, freed)
	}
}

func TestRemove_NotOnRoster(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 4)
	if _, _, err := g.Remove("ghost@zeal.test"); !errors.Is(err, ErrNotOnRoster) {
		t.Fatalf("expected ErrNotOnRoster, got %v", err)
	}
}

func TestRosterExclusivity(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 4)
	p := player(1)

	if _, err := g.Assign(p); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := g.Assign(p); !errors.Is(err, ErrAlreadyOnRoster) {
		t.Fatalf("expected ErrAlreadyOnRoster on second assign, got %v", err)
	}
	if err := g.JoinWaitlist(WaitlistEntry{UserID: p.UserID, Email: p.Email}); !errors.Is(err, ErrAlreadyOnRoster) {
		t.Fatalf("expected ErrAlreadyOnRoster on waitlist join, got %v", err)
	}

	other := player(2)
	if err := g.JoinWaitlist(WaitlistEntry{UserID: other.UserID, Email: other.Email}); err != nil {
		t.Fatalf("join waitlist: %v", err)
	}
	if err := g.JoinWaitlist(WaitlistEntry{UserID: other.UserID, Email: "P2@zeal.test"}); !errors.Is(err, ErrAlreadyOnWaitlist) {
		t.Fatalf("expected case-insensitive ErrAlreadyOnWaitlist, got %v", err)
	}

	if !g.LeaveWaitlist(other.Email) {
		t.Fatalf("expected waitlist entry to be removed")
	}
	if g.LeaveWaitlist(other.Email) {
		t.Fatalf("second leave should report false")
	}
	if len(g.Waitlist) != 0 {
		t.Fatalf("unexpected waitlist: %+v", g.Waitlist)
	}
}

func TestKickoffAt(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("WIB", 7*3600)
	g := newTestGame(t, 10)

	got, err := g.KickoffAt(loc)
	if err != nil {
		t.Fatalf("kickoff: %v", err)
	}
	want := time.Date(2026, 3, 10, 19, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("unexpected kickoff: got=%s want=%s", got, want)
	}
}
