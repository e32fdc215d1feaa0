package httpapi

import (
	"strings"
	"time"

	"github.com/riskibarqy/zeal-league/internal/domain/credit"
	"github.com/riskibarqy/zeal-league/internal/domain/game"
	"github.com/riskibarqy/zeal-league/internal/domain/user"
	"github.com/riskibarqy/zeal-league/internal/usecase"
)

type stadiumRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Address  string `json:"address" validate:"omitempty,max=500"`
	Image    string `json:"image" validate:"omitempty,url"`
	Capacity int    `json:"capacity" validate:"required,min=2,max=200"`
}

type createGameRequest struct {
	Stadium         stadiumRequest `json:"stadium"`
	Date            string         `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string         `json:"time" validate:"required,datetime=15:04"`
	DurationMinutes int            `json:"duration_minutes" validate:"required,min=1,max=600"`
	Type            string         `json:"type" validate:"required,max=50"`
	HostID          string         `json:"host_id" validate:"omitempty,max=100"`
}

type statDeltaRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Goals       *int   `json:"goals" validate:"omitempty,min=0"`
	Assists     *int   `json:"assists" validate:"omitempty,min=0"`
	YellowCards *int   `json:"yellow_cards" validate:"omitempty,min=0"`
	RedCards    *int   `json:"red_cards" validate:"omitempty,min=0"`
	Attendance  string `json:"attendance" validate:"omitempty,oneof=present late absent"`
}

type updateGameStatusRequest struct {
	Status string             `json:"status" validate:"required"`
	Stats  []statDeltaRequest `json:"stats" validate:"omitempty,dive"`
}

func (r updateGameStatusRequest) statDeltas() []game.StatDelta {
	if len(r.Stats) == 0 {
		return nil
	}
	out := make([]game.StatDelta, 0, len(r.Stats))
	for _, s := range r.Stats {
		out = append(out, game.StatDelta{
			Email:       strings.TrimSpace(s.Email),
			Goals:       s.Goals,
			Assists:     s.Assists,
			YellowCards: s.YellowCards,
			RedCards:    s.RedCards,
			Attendance:  s.Attendance,
		})
	}
	return out
}

type grantCreditsRequest struct {
	GrantID        string     `json:"grant_id" validate:"required,max=200"`
	UserID         string     `json:"user_id" validate:"required,max=100"`
	Type           string     `json:"type" validate:"required,oneof=subscription permanent"`
	Amount         int        `json:"amount" validate:"omitempty,min=1"`
	SubscriptionID string     `json:"subscription_id" validate:"omitempty,max=200"`
	Plan           string     `json:"plan" validate:"omitempty,oneof=Basic Premium Mate"`
	PeriodEnd      *time.Time `json:"period_end"`
}

type notificationJobRequest struct {
	ToEmail string `json:"to_email" validate:"required,email"`
	ToName  string `json:"to_name"`
	Subject string `json:"subject" validate:"required"`
	HTML    string `json:"html"`
	Text    string `json:"text" validate:"required"`
}

type stadiumDTO struct {
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	Image    string `json:"image,omitempty"`
	Capacity int    `json:"capacity"`
}

type hostDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type rosterEntryDTO struct {
	UserID      string `json:"user_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Position    string `json:"position"`
	Goals       int    `json:"goals"`
	Assists     int    `json:"assists"`
	YellowCards int    `json:"yellow_cards"`
	RedCards    int    `json:"red_cards"`
	Attendance  string `json:"attendance"`
}

type waitlistEntryDTO struct {
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Position  string    `json:"position"`
	JoinedAt  time.Time `json:"joined_at"`
}

type resultDTO struct {
	Team1Goals int    `json:"team1_goals"`
	Team2Goals int    `json:"team2_goals"`
	Outcome    string `json:"outcome"`
}

// gameDTO keeps empty slots as null so clients can render fixed team sizes.
type gameDTO struct {
	ID              string              `json:"id"`
	Status          string              `json:"status"`
	Date            string              `json:"date"`
	Time            string              `json:"time"`
	DurationMinutes int                 `json:"duration_minutes"`
	Type            string              `json:"type"`
	Stadium         stadiumDTO          `json:"stadium"`
	Host            hostDTO             `json:"host"`
	TeamSize        int                 `json:"team_size"`
	Teams           [][]*rosterEntryDTO `json:"teams"`
	Waitlist        []waitlistEntryDTO  `json:"waitlist"`
	Result          *resultDTO          `json:"result,omitempty"`
	Version         int64               `json:"version"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func gameToDTO(g game.Game) gameDTO {
	out := gameDTO{
		ID:              g.ID,
		Status:          string(g.Status),
		Date:            g.Date.Format(game.DateLayout),
		Time:            g.Time,
		DurationMinutes: g.DurationMinutes,
		Type:            g.Type,
		Stadium: stadiumDTO{
			Name:     g.Stadium.Name,
			Address:  g.Stadium.Address,
			Image:    g.Stadium.Image,
			Capacity: g.Stadium.Capacity,
		},
		Host: hostDTO{
			ID:          g.Host.ID,
			Email:       g.Host.Email,
			FirstName:   g.Host.FirstName,
			LastName:    g.Host.LastName,
			PhoneNumber: g.Host.PhoneNumber,
		},
		TeamSize:  g.TeamSize(),
		Teams:     make([][]*rosterEntryDTO, 0, len(g.Teams)),
		Waitlist:  make([]waitlistEntryDTO, 0, len(g.Waitlist)),
		Version:   g.Version,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}

	for _, team := range g.Teams {
		slots := make([]*rosterEntryDTO, len(team))
		for i, entry := range team {
			if entry == nil {
				continue
			}
			slots[i] = &rosterEntryDTO{
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
			}
		}
		out.Teams = append(out.Teams, slots)
	}
	for _, w := range g.Waitlist {
		out.Waitlist = append(out.Waitlist, waitlistEntryDTO{
			UserID:    w.UserID,
			FirstName: w.FirstName,
			LastName:  w.LastName,
			Email:     w.Email,
			Position:  w.Position,
			JoinedAt:  w.JoinedAt,
		})
	}
	if g.Result != nil {
		out.Result = &resultDTO{
			Team1Goals: g.Result.Team1Goals,
			Team2Goals: g.Result.Team2Goals,
			Outcome:    string(g.Result.Outcome),
		}
	}

	return out
}

func gamesToDTO(items []game.Game) []gameDTO {
	out := make([]gameDTO, 0, len(items))
	for _, g := range items {
		out = append(out, gameToDTO(g))
	}
	return out
}

type creditLotDTO struct {
	Amount    int        `json:"amount"`
	Type      string     `json:"type"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func lotsToDTO(lots []credit.Lot) []creditLotDTO {
	out := make([]creditLotDTO, 0, len(lots))
	for _, l := range lots {
		out = append(out, creditLotDTO{Amount: l.Amount, Type: string(l.Type), ExpiresAt: l.ExpiresAt})
	}
	return out
}

type slotDTO struct {
	TeamIndex int `json:"team_index"`
	SlotIndex int `json:"slot_index"`
}

type signupResultDTO struct {
	Game             gameDTO        `json:"game"`
	Slot             slotDTO        `json:"slot"`
	CreditsUsed      []creditLotDTO `json:"credits_used"`
	CreditsAvailable int            `json:"credits_available"`
}

func signupResultToDTO(r usecase.SignupResult) signupResultDTO {
	return signupResultDTO{
		Game:             gameToDTO(r.Game),
		Slot:             slotDTO{TeamIndex: r.Slot.TeamIndex, SlotIndex: r.Slot.SlotIndex},
		CreditsUsed:      lotsToDTO(r.CreditsUsed),
		CreditsAvailable: r.CreditsAvailable,
	}
}

type cancelResultDTO struct {
	Game             gameDTO        `json:"game"`
	Refunded         bool           `json:"refunded"`
	RefundedCredits  []creditLotDTO `json:"refunded_credits"`
	CreditsAvailable int            `json:"credits_available"`
}

func cancelResultToDTO(r usecase.CancelResult) cancelResultDTO {
	return cancelResultDTO{
		Game:             gameToDTO(r.Game),
		Refunded:         r.Refunded,
		RefundedCredits:  lotsToDTO(r.RefundedCredits),
		CreditsAvailable: r.CreditsAvailable,
	}
}

type aggregationDTO struct {
	Updated   int      `json:"updated"`
	Unchanged int      `json:"unchanged"`
	Skipped   int      `json:"skipped"`
	Missing   []string `json:"missing_users"`
}

type gameStatusResultDTO struct {
	Game            gameDTO         `json:"game"`
	UnmatchedEmails []string        `json:"unmatched_emails"`
	Aggregation     *aggregationDTO `json:"aggregation,omitempty"`
}

func gameStatusResultToDTO(r usecase.UpdateGameStatusResult) gameStatusResultDTO {
	out := gameStatusResultDTO{
		Game:            gameToDTO(r.Game),
		UnmatchedEmails: append([]string{}, r.UnmatchedEmails...),
	}
	if r.Aggregation != nil {
		out.Aggregation = &aggregationDTO{
			Updated:   r.Aggregation.Updated,
			Unchanged: r.Aggregation.Unchanged,
			Skipped:   r.Aggregation.Skipped,
			Missing:   append([]string{}, r.Aggregation.Missing...),
		}
	}
	return out
}

type statsDTO struct {
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

func statsToDTO(s user.Stats) statsDTO {
	return statsDTO{
		GamesPlayed:     s.GamesPlayed,
		Goals:           s.Goals,
		Assists:         s.Assists,
		YellowCards:     s.YellowCards,
		RedCards:        s.RedCards,
		Points:          s.Points,
		Wins:            s.Wins,
		Losses:          s.Losses,
		Draws:           s.Draws,
		AttendanceCount: s.AttendanceCount,
		LateCount:       s.LateCount,
		AbsenceCount:    s.AbsenceCount,
	}
}

type gameRecordDTO struct {
	GameID       string `json:"game_id"`
	Date         string `json:"date"`
	StadiumName  string `json:"stadium"`
	TeamIndex    int    `json:"team_index"`
	Attendance   string `json:"attendance"`
	Result       string `json:"result,omitempty"`
	PointsEarned int    `json:"points_earned"`
	Goals        int    `json:"goals"`
	Assists      int    `json:"assists"`
	YellowCards  int    `json:"yellow_cards"`
	RedCards     int    `json:"red_cards"`
	Status       string `json:"status"`
}

type subscriptionDTO struct {
	ID               string     `json:"id,omitempty"`
	Status           string     `json:"status"`
	Plan             string     `json:"plan,omitempty"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
}

type profileDTO struct {
	UserID           string          `json:"user_id"`
	Email            string          `json:"email"`
	FirstName        string          `json:"first_name"`
	LastName         string          `json:"last_name"`
	PhoneNumber      string          `json:"phone_number,omitempty"`
	Position         string          `json:"position"`
	Stats            statsDTO        `json:"stats"`
	Games            []gameRecordDTO `json:"games"`
	Credits          []creditLotDTO  `json:"credits"`
	CreditsAvailable int             `json:"credits_available"`
	Subscription     subscriptionDTO `json:"subscription"`
}

func profileToDTO(p usecase.Profile) profileDTO {
	u := p.User
	games := make([]gameRecordDTO, 0, len(u.Games))
	for _, rec := range u.Games {
		games = append(games, gameRecordDTO{
			GameID:       rec.GameID,
			Date:         rec.Date.Format(game.DateLayout),
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
		})
	}

	return profileDTO{
		UserID:           u.ID,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		PhoneNumber:      u.PhoneNumber,
		Position:         u.Position,
		Stats:            statsToDTO(u.Stats),
		Games:            games,
		Credits:          lotsToDTO(u.Credits),
		CreditsAvailable: p.CreditsAvailable,
		Subscription: subscriptionDTO{
			ID:               u.Subscription.ID,
			Status:           string(u.Subscription.Status),
			Plan:             string(u.Subscription.Plan),
			CurrentPeriodEnd: u.Subscription.CurrentPeriodEnd,
		},
	}
}

type leaderboardEntryDTO struct {
	Rank      int      `json:"rank"`
	UserID    string   `json:"user_id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Stats     statsDTO `json:"stats"`
}

func leaderboardEntryToDTO(e usecase.LeaderboardEntry) leaderboardEntryDTO {
	return leaderboardEntryDTO{
		Rank:      e.Rank,
		UserID:    e.UserID,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Stats:     statsToDTO(e.Stats),
	}
}

type grantResultDTO struct {
	GrantID          string `json:"grant_id"`
	UserID           string `json:"user_id"`
	Applied          bool   `json:"applied"`
	CreditsAvailable int    `json:"credits_available"`
}
