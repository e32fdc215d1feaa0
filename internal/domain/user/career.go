package user

import (
	"time"

	"github.com/riskibarqy/zeal-league/internal/domain/game"
)

const (
	PointsWin  = 3
	PointsDraw = 1
	PointsLoss = 0
)

// Stats are a player's durable career totals.
type Stats struct {
	GamesPlayed     int
	Goals           int
	Assists         int
	YellowCards     int
	RedCards        int
	Points          int
	Wins            int
	Losses          int
	Draws           int
	AttendanceCount int
	LateCount       int
	AbsenceCount    int
}

func (s Stats) Add(o Stats) Stats {
	return Stats{
		GamesPlayed:     s.GamesPlayed + o.GamesPlayed,
		Goals:           s.Goals + o.Goals,
		Assists:         s.Assists + o.Assists,
		YellowCards:     s.YellowCards + o.YellowCards,
		RedCards:        s.RedCards + o.RedCards,
		Points:          s.Points + o.Points,
		Wins:            s.Wins + o.Wins,
		Losses:          s.Losses + o.Losses,
		Draws:           s.Draws + o.Draws,
		AttendanceCount: s.AttendanceCount + o.AttendanceCount,
		LateCount:       s.LateCount + o.LateCount,
		AbsenceCount:    s.AbsenceCount + o.AbsenceCount,
	}
}

func (s Stats) Sub(o Stats) Stats {
	return s.Add(Stats{
		GamesPlayed:     -o.GamesPlayed,
		Goals:           -o.Goals,
		Assists:         -o.Assists,
		YellowCards:     -o.YellowCards,
		RedCards:        -o.RedCards,
		Points:          -o.Points,
		Wins:            -o.Wins,
		Losses:          -o.Losses,
		Draws:           -o.Draws,
		AttendanceCount: -o.AttendanceCount,
		LateCount:       -o.LateCount,
		AbsenceCount:    -o.AbsenceCount,
	})
}

// GameRecord is one entry of a user's per-game history, keyed by GameID.
type GameRecord struct {
	GameID       string
	Date         time.Time
	StadiumName  string
	TeamIndex    int
	Attendance   game.Attendance
	Result       game.TeamResult
	PointsEarned int
	Goals        int
	Assists      int
	YellowCards  int
	RedCards     int
	Status       game.Status
	// Aggregated marks that Contribution has been added to the user's Stats.
	Aggregated   bool
	Contribution Stats
	UpdatedAt    time.Time
}

// NewSignupRecord is the history entry written when a user joins a roster or waitlist.
func NewSignupRecord(g game.Game, teamIndex int, attendance game.Attendance, now time.Time) GameRecord {
	return GameRecord{
		GameID:      g.ID,
		Date:        g.Date,
		StadiumName: g.Stadium.Name,
		TeamIndex:   teamIndex,
		Attendance:  attendance,
		Status:      g.Status,
		UpdatedAt:   now,
	}
}

// FinishedRecord builds the history entry and stat contribution for a
// rostered player of a finished game. ok is false when the player has no
// recorded attendance and should be skipped.
func FinishedRecord(g game.Game, teamIndex int, entry game.RosterEntry, now time.Time) (GameRecord, bool) {
	rec := GameRecord{
		GameID:      g.ID,
		Date:        g.Date,
		StadiumName: g.Stadium.Name,
		TeamIndex:   teamIndex,
		Attendance:  entry.Attendance,
		Status:      game.StatusFinished,
		UpdatedAt:   now,
	}

	switch {
	case entry.Attendance.Played():
		res := game.Result{}
		if g.Result != nil {
			res = *g.Result
		}
		rec.Result = res.TeamResult(teamIndex)
		rec.Goals = entry.Goals
		rec.Assists = entry.Assists
		rec.YellowCards = entry.YellowCards
		rec.RedCards = entry.RedCards

		c := Stats{
			GamesPlayed:     1,
			Goals:           entry.Goals,
			Assists:         entry.Assists,
			YellowCards:     entry.YellowCards,
			RedCards:        entry.RedCards,
			AttendanceCount: 1,
		}
		switch rec.Result {
		case game.TeamResultWin:
			c.Points, c.Wins = PointsWin, 1
		case game.TeamResultDraw:
			c.Points, c.Draws = PointsDraw, 1
		default:
			c.Points, c.Losses = PointsLoss, 1
		}
		if entry.Attendance == game.AttendanceLate {
			c.LateCount = 1
		}
		rec.PointsEarned = c.Points
		rec.Contribution = c
		return rec, true
	case entry.Attendance == game.AttendanceAbsent:
		rec.Contribution = Stats{AbsenceCount: 1}
		return rec, true
	default:
		return GameRecord{}, false
	}
}

func (u User) HistoryFor(gameID string) (GameRecord, bool) {
	for _, rec := range u.Games {
		if rec.GameID == gameID {
			return rec, true
		}
	}
	return GameRecord{}, false
}

// UpsertGame replaces the entry for rec.GameID or appends it.
func (u *User) UpsertGame(rec GameRecord) {
	for i := range u.Games {
		if u.Games[i].GameID == rec.GameID {
			u.Games[i] = rec
			return
		}
	}
	u.Games = append(u.Games, rec)
}

// RemoveGame drops the history entry for gameID and reports whether one existed.
// An aggregated entry takes its contribution out of the career totals with it,
// so a later aggregation of the same game starts from a clean slate.
func (u *User) RemoveGame(gameID string) bool {
	for i := range u.Games {
		if u.Games[i].GameID == gameID {
			if u.Games[i].Aggregated {
				u.Stats = u.Stats.Sub(u.Games[i].Contribution)
			}
			u.Games = append(u.Games[:i:i], u.Games[i+1:]...)
			return true
		}
	}
	return false
}

// ApplyAggregation commits rec into the career totals at most once per game:
// a contribution previously applied for the same game is reverted first.
// It reports whether the totals changed.
func (u *User) ApplyAggregation(rec GameRecord) bool {
	before := u.Stats
	if prev, ok := u.HistoryFor(rec.GameID); ok && prev.Aggregated {
		u.Stats = u.Stats.Sub(prev.Contribution)
	}
	u.Stats = u.Stats.Add(rec.Contribution)
	rec.Aggregated = true
	u.UpsertGame(rec)
	return u.Stats != before
}

// WaitlistTeamIndex marks a history entry for a waitlisted player.
const WaitlistTeamIndex = -1
