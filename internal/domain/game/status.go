package game

import (
	"fmt"
	"strings"
)

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.TrimSpace(raw)); s {
	case StatusUpcoming, StatusInProgress, StatusFinished:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// ParseStatAttendance accepts the values a stats report may carry.
// Empty means the player was not reported and counts as absent.
func ParseStatAttendance(raw string) (Attendance, error) {
	switch a := Attendance(strings.TrimSpace(raw)); a {
	case "":
		return AttendanceAbsent, nil
	case AttendancePresent, AttendanceLate, AttendanceAbsent:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAttendance, raw)
	}
}

// StatDelta is one player's reported increments. Nil counters add nothing.
type StatDelta struct {
	Email       string
	Goals       *int
	Assists     *int
	YellowCards *int
	RedCards    *int
	Attendance  string
}

func (d StatDelta) validate() error {
	if strings.TrimSpace(d.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidStatDelta)
	}
	for name, v := range map[string]*int{
		"goals":        d.Goals,
		"assists":      d.Assists,
		"yellow_cards": d.YellowCards,
		"red_cards":    d.RedCards,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: %s must be >= 0 for %s", ErrInvalidStatDelta, name, d.Email)
		}
	}
	if _, err := ParseStatAttendance(d.Attendance); err != nil {
		return err
	}
	return nil
}

// ApplyStats adds each delta to the matching roster entry and overwrites its
// attendance. Deltas are validated up front so a bad one changes nothing.
// Emails that match no rostered player are returned and otherwise ignored.
func (g *Game) ApplyStats(deltas []StatDelta) ([]string, error) {
	for _, d := range deltas {
		if err := d.validate(); err != nil {
			return nil, err
		}
	}

	var unmatched []string
	for _, d := range deltas {
		entry, _, ok := g.Entry(d.Email)
		if !ok {
			unmatched = append(unmatched, d.Email)
			continue
		}
		entry.Goals += deref(d.Goals)
		entry.Assists += deref(d.Assists)
		entry.YellowCards += deref(d.YellowCards)
		entry.RedCards += deref(d.RedCards)
		entry.Attendance, _ = ParseStatAttendance(d.Attendance)
	}

	return unmatched, nil
}

// ComputeResult sums goals of present and late players per team.
func (g Game) ComputeResult() Result {
	var goals [TeamCount]int
	for teamIdx, team := range g.Teams {
		for _, entry := range team {
			if entry != nil && entry.Attendance.Played() {
				goals[teamIdx] += entry.Goals
			}
		}
	}

	res := Result{Team1Goals: goals[0], Team2Goals: goals[1]}
	switch {
	case goals[0] > goals[1]:
		res.Outcome = OutcomeTeam1Wins
	case goals[1] > goals[0]:
		res.Outcome = OutcomeTeam2Wins
	default:
		res.Outcome = OutcomeDraw
	}
	return res
}

// TeamResult maps the game outcome to win, loss or draw for teamIdx.
func (r Result) TeamResult(teamIdx int) TeamResult {
	switch r.Outcome {
	case OutcomeTeam1Wins:
		if teamIdx == 0 {
			return TeamResultWin
		}
		return TeamResultLoss
	case OutcomeTeam2Wins:
		if teamIdx == 1 {
			return TeamResultWin
		}
		return TeamResultLoss
	default:
		return TeamResultDraw
	}
}

// Transition applies deltas, recomputes the result and sets status.
// The result is recomputed on every transition, whatever the target status.
func (g *Game) Transition(status Status, deltas []StatDelta) ([]string, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return nil, err
	}
	unmatched, err := g.ApplyStats(deltas)
	if err != nil {
		return nil, err
	}
	res := g.ComputeResult()
	g.Result = &res
	g.Status = status
	return unmatched, nil
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
