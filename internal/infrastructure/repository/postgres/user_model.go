package postgres

import (
	"fmt"
	"time"

	"github.com/riskibarqy/zeal-league/internal/domain/credit"
	"github.com/riskibarqy/zeal-league/internal/domain/game"
	"github.com/riskibarqy/zeal-league/internal/domain/user"
)

// userTableModel stores career totals and history as JSONB. Points and wins
// are duplicated into columns so the leaderboard can sort in SQL.
type userTableModel struct {
	PublicID      string    `db:"public_id"`
	Email         string    `db:"email"`
	FirstName     string    `db:"first_name"`
	LastName      string    `db:"last_name"`
	PhoneNumber   string    `db:"phone_number"`
	Position      string    `db:"position"`
	Points        int       `db:"points"`
	Wins          int       `db:"wins"`
	Stats         []byte    `db:"stats"`
	Games         []byte    `db:"games"`
	Credits       []byte    `db:"credits"`
	Subscription  []byte    `db:"subscription"`
	AppliedGrants []byte    `db:"applied_grants"`
	Version       int64     `db:"version"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type statsDocument struct {
	GamesPlayed     int `json:"games_played"`
	Goals           int `json:"goals"`
	Assists         int `json:"assists"`
	YellowCards     int `json:"yellow_cards"`
	RedCards        int `json:"red_cards"`
	Points          int `json:"points"`
	Wins            int `json:"wins"`
	Losses          int `json:"losses"`
	Draws           int `json:"draws"`
	AttendanceCount int `json:"attendance_count"`
	LateCount       int `json:"late_count"`
	AbsenceCount    int `json:"absence_count"`
}

type gameRecordDocument struct {
	GameID       string        `json:"game_id"`
	Date         time.Time     `json:"date"`
	StadiumName  string        `json:"stadium_name"`
	TeamIndex    int           `json:"team_index"`
	Attendance   string        `json:"attendance"`
	Result       string        `json:"result,omitempty"`
	PointsEarned int           `json:"points_earned"`
	Goals        int           `json:"goals"`
	Assists      int           `json:"assists"`
	YellowCards  int           `json:"yellow_cards"`
	RedCards     int           `json:"red_cards"`
	Status       string        `json:"status"`
	Aggregated   bool          `json:"aggregated"`
	Contribution statsDocument `json:"contribution"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type subscriptionDocument struct {
	ID               string     `json:"id,omitempty"`
	Status           string     `json:"status,omitempty"`
	Plan             string     `json:"plan,omitempty"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
}

func userToRow(u user.User) (userTableModel, error) {
	games := make([]gameRecordDocument, 0, len(u.Games))
	for _, rec := range u.Games {
		games = append(games, gameRecordDocument{
			GameID:       rec.GameID,
			Date:         rec.Date,
			StadiumName:  rec.StadiumName,
			TeamIndex:    rec.TeamIndex,
			Attendance:   string(rec.Attendance),
			Result:       string(rec.Result),
			PointsEarned: rec.PointsEarned,
			Goals:        rec.Goals,
			Assists:      rec.Assists,
			YellowCards:  rec.YellowCards,
			RedCards:     rec.RedCards,
			Status:       string(rec.Status),
			Aggregated:   rec.Aggregated,
			Contribution: statsDocument(rec.Contribution),
			UpdatedAt:    rec.UpdatedAt,
		})
	}

	credits := u.Credits
	if credits == nil {
		credits = []credit.Lot{}
	}
	grants := u.AppliedGrants
	if grants == nil {
		grants = []string{}
	}

	row := userTableModel{
		PublicID:    u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		Position:    u.Position,
		Points:      u.Stats.Points,
		Wins:        u.Stats.Wins,
		Version:     u.Version,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}

	var err error
	if row.Stats, err = encodeJSON(statsDocument(u.Stats)); err != nil {
		return userTableModel{}, fmt.Errorf("encode stats: %w", err)
	}
	if row.Games, err = encodeJSON(games); err != nil {
		return userTableModel{}, fmt.Errorf("encode game history: %w", err)
	}
	if row.Credits, err = encodeJSON(credits); err != nil {
		return userTableModel{}, fmt.Errorf("encode credits: %w", err)
	}
	sub := subscriptionDocument{
		ID:               u.Subscription.ID,
		Status:           string(u.Subscription.Status),
		Plan:             string(u.Subscription.Plan),
		CurrentPeriodEnd: u.Subscription.CurrentPeriodEnd,
	}
	if row.Subscription, err = encodeJSON(sub); err != nil {
		return userTableModel{}, fmt.Errorf("encode subscription: %w", err)
	}
	if row.AppliedGrants, err = encodeJSON(grants); err != nil {
		return userTableModel{}, fmt.Errorf("encode applied grants: %w", err)
	}
	return row, nil
}

func userFromRow(row userTableModel) (user.User, error) {
	u := user.User{
		ID:          row.PublicID,
		Email:       row.Email,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		PhoneNumber: row.PhoneNumber,
		Position:    row.Position,
		Version:     row.Version,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}

	var (
		stats statsDocument
		games []gameRecordDocument
		sub   subscriptionDocument
	)
	if err := decodeJSON(row.Stats, &stats); err != nil {
		return user.User{}, fmt.Errorf("decode stats of user %s: %w", row.PublicID, err)
	}
	if err := decodeJSON(row.Games, &games); err != nil {
		return user.User{}, fmt.Errorf("decode game history of user %s: %w", row.PublicID, err)
	}
	if err := decodeJSON(row.Credits, &u.Credits); err != nil {
		return user.User{}, fmt.Errorf("decode credits of user %s: %w", row.PublicID, err)
	}
	if err := decodeJSON(row.Subscription, &sub); err != nil {
		return user.User{}, fmt.Errorf("decode subscription of user %s: %w", row.PublicID, err)
	}
	if err := decodeJSON(row.AppliedGrants, &u.AppliedGrants); err != nil {
		return user.User{}, fmt.Errorf("decode applied grants of user %s: %w", row.PublicID, err)
	}

	u.Stats = user.Stats(stats)
	u.Subscription = user.Subscription{
		ID:               sub.ID,
		Status:           user.SubscriptionStatus(sub.Status),
		Plan:             user.Plan(sub.Plan),
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
	}
	for _, doc := range games {
		u.Games = append(u.Games, user.GameRecord{
			GameID:       doc.GameID,
			Date:         doc.Date,
			StadiumName:  doc.StadiumName,
			TeamIndex:    doc.TeamIndex,
			Attendance:   game.Attendance(doc.Attendance),
			Result:       game.TeamResult(doc.Result),
			PointsEarned: doc.PointsEarned,
			Goals:        doc.Goals,
			Assists:      doc.Assists,
			YellowCards:  doc.YellowCards,
			RedCards:     doc.RedCards,
			Status:       game.Status(doc.Status),
			Aggregated:   doc.Aggregated,
			Contribution: user.Stats(doc.Contribution),
			UpdatedAt:    doc.UpdatedAt,
		})
	}
	return u, nil
}
