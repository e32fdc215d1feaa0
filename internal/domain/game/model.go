package game

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/zeal-league/internal/domain/credit"
)

var (
	ErrGameFull          = errors.New("game is full")
	ErrNotOnRoster       = errors.New("player is not on the roster")
	ErrAlreadyOnRoster   = errors.New("player is already on the roster")
	ErrAlreadyOnWaitlist = errors.New("player is already on the waitlist")
	ErrNotOnWaitlist     = errors.New("player is not on the waitlist")
	ErrInvalidStatus     = errors.New("invalid game status")
	ErrInvalidAttendance = errors.New("invalid attendance")
	ErrInvalidStatDelta  = errors.New("invalid stat delta")
	ErrVersionConflict   = errors.New("game was modified concurrently")
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	TeamCount = 2
)

type Status string

const (
	StatusUpcoming   Status = "upcoming"
	StatusInProgress Status = "in progress"
	StatusFinished   Status = "finished"
)

type Attendance string

const (
	AttendanceRegistered Attendance = "registered"
	AttendanceWaitlist   Attendance = "waitlist"
	AttendancePresent    Attendance = "present"
	AttendanceLate       Attendance = "late"
	AttendanceAbsent     Attendance = "absent"
)

// Played reports whether the attendance counts toward goals and points.
func (a Attendance) Played() bool {
	return a == AttendancePresent || a == AttendanceLate
}

type Outcome string

const (
	OutcomeTeam1Wins Outcome = "Team 1 wins"
	OutcomeTeam2Wins Outcome = "Team 2 wins"
	OutcomeDraw      Outcome = "Draw"
)

// TeamResult is the result label from one team's point of view.
type TeamResult string

const (
	TeamResultWin  TeamResult = "win"
	TeamResultLoss TeamResult = "loss"
	TeamResultDraw TeamResult = "draw"
)

// RosterEntry is a player's per-game record inside a team slot.
type RosterEntry struct {
	UserID      string
	FirstName   string
	LastName    string
	Email       string
	Position    string
	Goals       int
	Assists     int
	YellowCards int
	RedCards    int
	Attendance  Attendance
	UsedCredits []credit.Lot
}

// WaitlistEntry keeps identity only; waitlisted players have no stats.
type WaitlistEntry struct {
	UserID    string
	FirstName string
	LastName  string
	Email     string
	Position  string
	JoinedAt  time.Time
}

// Team is a fixed-length slot array. A nil slot is empty.
type Team []*RosterEntry

type Stadium struct {
	Name     string
	Address  string
	Image    string
	Capacity int
}

type Host struct {
	ID          string
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
}

type Result struct {
	Team1Goals int
	Team2Goals int
	Outcome    Outcome
}

// Game is a scheduled match. Stadium and Host are snapshots taken at creation.
type Game struct {
	ID              string
	Teams           [TeamCount]Team
	Waitlist        []WaitlistEntry
	Status          Status
	Result          *Result
	Date            time.Time
	Time            string
	DurationMinutes int
	Type            string
	Stadium         Stadium
	Host            Host
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewGameParams is the input for New.
type NewGameParams struct {
	ID              string
	Stadium         Stadium
	Host            Host
	Date            time.Time
	Time            string
	DurationMinutes int
	Type            string
	Now             time.Time
}

// New builds an upcoming game with capacity/2 empty slots per team.
func New(p NewGameParams) (Game, error) {
	if strings.TrimSpace(p.ID) == "" {
		return Game{}, fmt.Errorf("game id is required")
	}
	if p.Stadium.Capacity < TeamCount {
		return Game{}, fmt.Errorf("stadium capacity must be >= %d", TeamCount)
	}
	if strings.TrimSpace(p.Stadium.Name) == "" {
		return Game{}, fmt.Errorf("stadium name is required")
	}
	if strings.TrimSpace(p.Host.ID) == "" {
		return Game{}, fmt.Errorf("host id is required")
	}
	if p.Date.IsZero() {
		return Game{}, fmt.Errorf("game date is required")
	}
	if _, err := time.Parse(TimeLayout, p.Time); err != nil {
		return Game{}, fmt.Errorf("game time must be HH:MM: %w", err)
	}
	if p.DurationMinutes <= 0 {
		return Game{}, fmt.Errorf("game duration must be > 0")
	}
	if strings.TrimSpace(p.Type) == "" {
		return Game{}, fmt.Errorf("game type is required")
	}

	teamSize := p.Stadium.Capacity / TeamCount
	g := Game{
		ID:              p.ID,
		Status:          StatusUpcoming,
		Date:            dateOnly(p.Date),
		Time:            p.Time,
		DurationMinutes: p.DurationMinutes,
		Type:            p.Type,
		Stadium:         p.Stadium,
		Host:            p.Host,
		CreatedAt:       p.Now,
		UpdatedAt:       p.Now,
	}
	for i := range g.Teams {
		g.Teams[i] = make(Team, teamSize)
	}

	return g, nil
}

// TeamSize is the fixed slot count of each team.
func (g Game) TeamSize() int {
	return len(g.Teams[0])
}

// KickoffAt combines the date and HH:MM time in loc.
func (g Game) KickoffAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	clock, err := time.Parse(TimeLayout, g.Time)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse game time %q: %w", g.Time, err)
	}
	y, m, d := g.Date.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, loc), nil
}

// Clone deep-copies slots, waitlist, result and credit snapshots.
func (g Game) Clone() Game {
	out := g
	for i, team := range g.Teams {
		if team == nil {
			continue
		}
		copied := make(Team, len(team))
		for j, entry := range team {
			if entry == nil {
				continue
			}
			e := *entry
			e.UsedCredits = credit.CloneLots(entry.UsedCredits)
			copied[j] = &e
		}
		out.Teams[i] = copied
	}
	out.Waitlist = append([]WaitlistEntry(nil), g.Waitlist...)
	if g.Result != nil {
		r := *g.Result
		out.Result = &r
	}
	return out
}

func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("game date must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
