package game

import (
	"errors"
	"reflect"
	"slices"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestParseStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    Status
		wantErr bool
	}{
		{raw: "upcoming", want: StatusUpcoming},
		{raw: "in progress", want: StatusInProgress},
		{raw: " finished ", want: StatusFinished},
		{raw: "in_progress", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseStatus(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidStatus) {
					t.Fatalf("expected ErrInvalidStatus, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse %q: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Fatalf("unexpected status: got=%q want=%q", got, tt.want)
			}
		})
	}
}

func assignPlayers(t *testing.T, g *Game, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := g.Assign(player(i)); err != nil {
			t.Fatalf("assign player %d: %v", i, err)
		}
	}
}

func TestTransition_TeamOneWins(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 4)
	assignPlayers(t, &g, 4)

	unmatched, err := g.Transition(StatusFinished, []StatDelta{
		{Email: player(0).Email, Goals: intPtr(2), Attendance: "present"},
		{Email: player(1).Email, Goals: intPtr(1), Assists: intPtr(1), Attendance: "late"},
		{Email: player(2).Email, Goals: intPtr(1), Attendance: "present"},
		{Email: player(3).Email, Goals: intPtr(4)},
		{Email: "ghost@zeal.test", Goals: intPtr(9), Attendance: "present"},
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if !slices.Equal(unmatched, []string{"ghost@zeal.test"}) {
		t.Fatalf("unexpected unmatched emails: %v", unmatched)
	}

	if g.Status != StatusFinished {
		t.Fatalf("unexpected status: got=%q want=%q", g.Status, StatusFinished)
	}
	want := Result{Team1Goals: 3, Team2Goals: 1, Outcome: OutcomeTeam1Wins}
	if g.Result == nil || *g.Result != want {
		t.Fatalf("unexpected result: got=%+v want=%+v", g.Result, want)
	}

	// goals are recorded even when they do not count
	absent, _, _ := g.Entry(player(3).Email)
	if absent.Attendance != AttendanceAbsent || absent.Goals != 4 {
		t.Fatalf("unexpected entry for unnamed attendance: %+v", absent)
	}

	if got := g.Result.TeamResult(0); got != TeamResultWin {
		t.Fatalf("unexpected team 1 result: got=%q want=%q", got, TeamResultWin)
	}
	if got := g.Result.TeamResult(1); got != TeamResultLoss {
		t.Fatalf("unexpected team 2 result: got=%q want=%q", got, TeamResultLoss)
	}
}

func TestApplyStats_IsAdditive(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 2)
	assignPlayers(t, &g, 1)

	delta := []StatDelta{{Email: player(0).Email, Goals: intPtr(1), YellowCards: intPtr(1), Attendance: "present"}}
	for i := 0; i < 2; i++ {
		if _, err := g.ApplyStats(delta); err != nil {
			t.Fatalf("apply stats #%d: %v", i+1, err)
		}
	}

	entry, _, _ := g.Entry(player(0).Email)
	if entry.Goals != 2 || entry.YellowCards != 2 || entry.RedCards != 0 {
		t.Fatalf("unexpected entry: goals=%d yellow=%d red=%d", entry.Goals, entry.YellowCards, entry.RedCards)
	}
}

func TestApplyStats_InvalidDeltaChangesNothing(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 2)
	assignPlayers(t, &g, 1)
	before := g.Clone()

	_, err := g.ApplyStats([]StatDelta{
		{Email: player(0).Email, Goals: intPtr(1), Attendance: "present"},
		{Email: player(0).Email, Attendance: "sleeping"},
	})
	if !errors.Is(err, ErrInvalidAttendance) {
		t.Fatalf("expected ErrInvalidAttendance, got %v", err)
	}
	if !reflect.DeepEqual(before, g) {
		t.Fatalf("rejected stats changed the game")
	}

	if _, err := g.ApplyStats([]StatDelta{{Email: player(0).Email, Goals: intPtr(-1)}}); !errors.Is(err, ErrInvalidStatDelta) {
		t.Fatalf("expected ErrInvalidStatDelta, got %v", err)
	}
}

func TestComputeResult_Draw(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 2)
	res := g.ComputeResult()
	if res.Outcome != OutcomeDraw {
		t.Fatalf("unexpected outcome: got=%q want=%q", res.Outcome, OutcomeDraw)
	}
	for team := 0; team < 2; team++ {
		if got := res.TeamResult(team); got != TeamResultDraw {
			t.Fatalf("unexpected team %d result: got=%q want=%q", team, got, TeamResultDraw)
		}
	}
}
