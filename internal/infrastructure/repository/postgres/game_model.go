package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/riskibarqy/zeal-league/internal/domain/credit"
	"github.com/riskibarqy/zeal-league/internal/domain/game"
)

type gameTableModel struct {
	PublicID        string           `db:"public_id"`
	Status          string           `db:"status"`
	GameDate        time.Time        `db:"game_date"`
	KickoffTime     string           `db:"kickoff_time"`
	DurationMinutes int              `db:"duration_minutes"`
	GameType        string           `db:"game_type"`
	Stadium         []byte           `db:"stadium"`
	Host            []byte           `db:"host"`
	Teams           []byte           `db:"teams"`
	Waitlist        []byte           `db:"waitlist"`
	Result          sql.Null[[]byte] `db:"result"`
	Version         int64            `db:"version"`
	CreatedAt       time.Time        `db:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at"`
}

type rosterEntryDocument struct {
	UserID      string       `json:"user_id"`
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	Email       string       `json:"email"`
	Position    string       `json:"position"`
	Goals       int          `json:"goals"`
	Assists     int          `json:"assists"`
	YellowCards int          `json:"yellow_cards"`
	RedCards    int          `json:"red_cards"`
	Attendance  string       `json:"attendance"`
	UsedCredits []credit.Lot `json:"used_credits,omitempty"`
}

type waitlistEntryDocument struct {
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Position  string    `json:"position"`
	JoinedAt  time.Time `json:"joined_at"`
}

type stadiumDocument struct {
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	Image    string `json:"image,omitempty"`
	Capacity int    `json:"capacity"`
}

type hostDocument struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type resultDocument struct {
	Team1Goals int    `json:"team1_goals"`
	Team2Goals int    `json:"team2_goals"`
	Outcome    string `json:"outcome"`
}

// teamsDocument keeps empty slots as JSON null so slot indexes survive a round trip.
type teamsDocument [game.TeamCount][]*rosterEntryDocument

func gameToRow(g game.Game) (gameTableModel, error) {
	var teams teamsDocument
	for teamIdx, team := range g.Teams {
		teams[teamIdx] = make([]*rosterEntryDocument, len(team))
		for slotIdx, entry := range team {
			if entry == nil {
				continue
			}
			teams[teamIdx][slotIdx] = &rosterEntryDocument{
				UserID:      entry.UserID,
				FirstName:   entry.FirstName,
				LastName:    entry.LastName,
				Email:       entry.Email,
				Position:    entry.Position,
				Goals:       entry.Goals,
				Assists:     entry.Assists,
				YellowCards: entry.YellowCards,
				RedCards:    entry.RedCards,
				Attendance:  string(entry.Attendance),
				UsedCredits: entry.UsedCredits,
			}
		}
	}

	waitlist := make([]waitlistEntryDocument, 0, len(g.Waitlist))
	for _, w := range g.Waitlist {
		waitlist = append(waitlist, waitlistEntryDocument{
			UserID:    w.UserID,
			FirstName: w.FirstName,
			LastName:  w.LastName,
			Email:     w.Email,
			Position:  w.Position,
			JoinedAt:  w.JoinedAt,
		})
	}

	row := gameTableModel{
		PublicID:        g.ID,
		Status:          string(g.Status),
		GameDate:        g.Date,
		KickoffTime:     g.Time,
		DurationMinutes: g.DurationMinutes,
		GameType:        g.Type,
		Version:         g.Version,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}

	var err error
	if row.Stadium, err = encodeJSON(stadiumDocument(g.Stadium)); err != nil {
		return gameTableModel{}, fmt.Errorf("encode stadium: %w", err)
	}
	if row.Host, err = encodeJSON(hostDocument(g.Host)); err != nil {
		return gameTableModel{}, fmt.Errorf("encode host: %w", err)
	}
	if row.Teams, err = encodeJSON(teams); err != nil {
		return gameTableModel{}, fmt.Errorf("encode teams: %w", err)
	}
	if row.Waitlist, err = encodeJSON(waitlist); err != nil {
		return gameTableModel{}, fmt.Errorf("encode waitlist: %w", err)
	}
	if g.Result != nil {
		doc := resultDocument{
			Team1Goals: g.Result.Team1Goals,
			Team2Goals: g.Result.Team2Goals,
			Outcome:    string(g.Result.Outcome),
		}
		raw, err := encodeJSON(doc)
		if err != nil {
			return gameTableModel{}, fmt.Errorf("encode result: %w", err)
		}
		row.Result = sql.Null[[]byte]{V: raw, Valid: true}
	}
	return row, nil
}

func gameFromRow(row gameTableModel) (game.Game, error) {
	g := game.Game{
		ID:              row.PublicID,
		Status:          game.Status(row.Status),
		Date:            time.Date(row.GameDate.Year(), row.GameDate.Month(), row.GameDate.Day(), 0, 0, 0, 0, time.UTC),
		Time:            row.KickoffTime,
		DurationMinutes: row.DurationMinutes,
		Type:            row.GameType,
		Version:         row.Version,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}

	var (
		stadium  stadiumDocument
		host     hostDocument
		teams    teamsDocument
		waitlist []waitlistEntryDocument
	)
	if err := decodeJSON(row.Stadium, &stadium); err != nil {
		return game.Game{}, fmt.Errorf("decode stadium of game %s: %w", row.PublicID, err)
	}
	if err := decodeJSON(row.Host, &host); err != nil {
		return game.Game{}, fmt.Errorf("decode host of game %s: %w", row.PublicID, err)
	}
	if err := decodeJSON(row.Teams, &teams); err != nil {
		return game.Game{}, fmt.Errorf("decode teams of game %s: %w", row.PublicID, err)
	}
	if err := decodeJSON(row.Waitlist, &waitlist); err != nil {
		return game.Game{}, fmt.Errorf("decode waitlist of game %s: %w", row.PublicID, err)
	}
	g.Stadium = game.Stadium(stadium)
	g.Host = game.Host(host)

	for teamIdx, slots := range teams {
		team := make(game.Team, len(slots))
		for slotIdx, doc := range slots {
			if doc == nil {
				continue
			}
			team[slotIdx] = &game.RosterEntry{
				UserID:      doc.UserID,
				FirstName:   doc.FirstName,
				LastName:    doc.LastName,
				Email:       doc.Email,
				Position:    doc.Position,
				Goals:       doc.Goals,
				Assists:     doc.Assists,
				YellowCards: doc.YellowCards,
				RedCards:    doc.RedCards,
				Attendance:  game.Attendance(doc.Attendance),
				UsedCredits: doc.UsedCredits,
			}
		}
		g.Teams[teamIdx] = team
	}

	for _, w := range waitlist {
		g.Waitlist = append(g.Waitlist, game.WaitlistEntry{
			UserID:    w.UserID,
			FirstName: w.FirstName,
			LastName:  w.LastName,
			Email:     w.Email,
			Position:  w.Position,
			JoinedAt:  w.JoinedAt,
		})
	}

	if row.Result.Valid {
		var res resultDocument
		if err := decodeJSON(row.Result.V, &res); err != nil {
			return game.Game{}, fmt.Errorf("decode result of game %s: %w", row.PublicID, err)
		}
		g.Result = &game.Result{
			Team1Goals: res.Team1Goals,
			Team2Goals: res.Team2Goals,
			Outcome:    game.Outcome(res.Outcome),
		}
	}
	return g, nil
}
