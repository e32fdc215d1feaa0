package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riskibarqy/zeal-league/internal/domain/credit"
	"github.com/riskibarqy/zeal-league/internal/domain/game"
	"github.com/riskibarqy/zeal-league/internal/domain/notification"
	"github.com/riskibarqy/zeal-league/internal/domain/user"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
	"github.com/riskibarqy/zeal-league/internal/platform/tracing"
)

const (
	DefaultRefundThreshold = 48 * time.Hour
	signupCreditCost       = 1
)

type SignupResult struct {
	Game             game.Game
	Slot             game.SlotRef
	CreditsUsed      []credit.Lot
	CreditsAvailable int
}

type CancelResult struct {
	Game             game.Game
	Refunded         bool
	RefundedCredits  []credit.Lot
	CreditsAvailable int
}

type SignupServiceConfig struct {
	RefundThreshold time.Duration
	// Location interprets game date and time when computing kickoff.
	Location *time.Location
}

// SignupService owns every mutation of roster slots, waitlists and credit
// lots for a game and user pair.
type SignupService struct {
	games    game.Repository
	users    user.Repository
	locker   Locker
	notifier *NotificationDispatcher
	writer   pairWriter
	cfg      SignupServiceConfig
	logger   *logging.Logger
	now      func() time.Time
	consume  func(lots []credit.Lot, amount int) ([]credit.Lot, []credit.Lot, error)
}

func NewSignupService(
	games game.Repository,
	users user.Repository,
	locker Locker,
	notifier *NotificationDispatcher,
	cfg SignupServiceConfig,
	logger *logging.Logger,
) *SignupService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.RefundThreshold <= 0 {
		cfg.RefundThreshold = DefaultRefundThreshold
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &SignupService{
		games:    games,
		users:    users,
		locker:   locker,
		notifier: notifier,
		writer:   pairWriter{games: games, users: users, logger: logger},
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		consume:  credit.Consume,
	}
}

func (s *SignupService) Signup(ctx context.Context, gameID, userID string) (SignupResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SignupService.Signup", tracing.GameID(gameID), tracing.UserID(userID))
	defer span.End()

	gameID, userID, err := normalizeIDs(gameID, userID)
	if err != nil {
		return SignupResult{}, err
	}

	var (
		result SignupResult
		player user.User
	)
	err = withGameUserLock(ctx, s.locker, gameID, userID, func(ctx context.Context) error {
		u, err := loadUser(ctx, s.users, userID)
		if err != nil {
			return err
		}
		g, err := loadGame(ctx, s.games, gameID)
		if err != nil {
			return err
		}
		if g.IsSignedUp(u.Email) {
			return fmt.Errorf("%w: %w", ErrConflict, game.ErrAlreadyOnRoster)
		}

		now := s.now()
		u.Credits = credit.RemoveExpired(u.Credits, now)
		if available := credit.TotalAvailable(u.Credits); available < signupCreditCost {
			return fmt.Errorf("%w: available=%d", ErrInsufficientCredits, available)
		}

		g.LeaveWaitlist(u.Email)

		ref, err := g.Assign(u.RosterEntry())
		if err != nil {
			if errors.Is(err, game.ErrGameFull) {
				return fmt.Errorf("%w: %w", ErrConflict, err)
			}
			return fmt.Errorf("assign roster slot: %w", err)
		}

		remaining, used, err := s.consume(u.Credits, signupCreditCost)
		if err != nil {
			if _, _, undoErr := g.Remove(u.Email); undoErr != nil {
				s.logger.ErrorContext(ctx, "undo roster assignment failed",
					"game_id", g.ID,
					"user_id", u.ID,
					"step", "compensate_assign",
					"error", undoErr,
				)
				return fmt.Errorf("undo roster assignment after credit failure: %w", undoErr)
			}
			if errors.Is(err, credit.ErrInsufficientCredits) {
				return fmt.Errorf("%w: %w", ErrInsufficientCredits, err)
			}
			return fmt.Errorf("consume credits: %w", err)
		}

		g.Slot(ref).UsedCredits = used
		g.UpdatedAt = now
		u.Credits = remaining
		u.UpsertGame(user.NewSignupRecord(g, ref.TeamIndex, game.AttendanceRegistered, now))
		u.UpdatedAt = now

		savedGame, savedUser, err := s.writer.save(ctx, "signup", g, u)
		if err != nil {
			return err
		}

		player = savedUser
		result = SignupResult{
			Game:             savedGame,
			Slot:             ref,
			CreditsUsed:      used,
			CreditsAvailable: credit.TotalAvailable(savedUser.Credits),
		}
		return nil
	})
	if err != nil {
		return SignupResult{}, err
	}

	s.logger.InfoContext(ctx, "game signup completed",
		"game_id", gameID,
		"user_id", userID,
		"team_index", result.Slot.TeamIndex,
		"slot_index", result.Slot.SlotIndex,
	)
	s.notifier.Notify(ctx, renderGameMail(gameMail{
		kind:      mailSignupConfirmation,
		to:        recipientOf(player),
		firstName: player.FirstName,
		game:      result.Game,
	}))

	return result, nil
}

func (s *SignupService) Cancel(ctx context.Context, gameID, userID string) (CancelResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SignupService.Cancel", tracing.GameID(gameID), tracing.UserID(userID))
	defer span.End()

	gameID, userID, err := normalizeIDs(gameID, userID)
	if err != nil {
		return CancelResult{}, err
	}

	var (
		result CancelResult
		player user.User
	)
	err = withGameUserLock(ctx, s.locker, gameID, userID, func(ctx context.Context) error {
		u, err := loadUser(ctx, s.users, userID)
		if err != nil {
			return err
		}
		g, err := loadGame(ctx, s.games, gameID)
		if err != nil {
			return err
		}

		removed, _, err := g.Remove(u.Email)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		u.RemoveGame(g.ID)

		kickoff, err := g.KickoffAt(s.cfg.Location)
		if err != nil {
			return fmt.Errorf("compute kickoff: %w", err)
		}
		now := s.now()
		refunded := kickoff.Sub(now) >= s.cfg.RefundThreshold
		if refunded {
			u.Credits = credit.Refund(u.Credits, removed.UsedCredits)
		}

		g.UpdatedAt = now
		u.UpdatedAt = now
		savedGame, savedUser, err := s.writer.save(ctx, "cancel", g, u)
		if err != nil {
			return err
		}

		player = savedUser
		result = CancelResult{
			Game:             savedGame,
			Refunded:         refunded,
			CreditsAvailable: credit.TotalAvailable(savedUser.Credits),
		}
		if refunded {
			result.RefundedCredits = credit.CloneLots(removed.UsedCredits)
		}
		return nil
	})
	if err != nil {
		return CancelResult{}, err
	}

	s.logger.InfoContext(ctx, "game signup canceled",
		"game_id", gameID,
		"user_id", userID,
		"refunded", result.Refunded,
	)

	s.notifier.Notify(ctx, renderGameMail(gameMail{
		kind:      mailCancellation,
		to:        recipientOf(player),
		firstName: player.FirstName,
		game:      result.Game,
		refunded:  result.Refunded,
	}))
	s.notifier.Broadcast(ctx, spotAvailableMails(result.Game))

	return result, nil
}

func (s *SignupService) JoinWaitlist(ctx context.Context, gameID, userID string) (game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SignupService.JoinWaitlist", tracing.GameID(gameID), tracing.UserID(userID))
	defer span.End()

	gameID, userID, err := normalizeIDs(gameID, userID)
	if err != nil {
		return game.Game{}, err
	}

	var (
		saved  game.Game
		player user.User
	)
	err = withGameUserLock(ctx, s.locker, gameID, userID, func(ctx context.Context) error {
		u, err := loadUser(ctx, s.users, userID)
		if err != nil {
			return err
		}
		g, err := loadGame(ctx, s.games, gameID)
		if err != nil {
			return err
		}

		now := s.now()
		if err := g.JoinWaitlist(u.WaitlistEntry(now)); err != nil {
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
		u.UpsertGame(user.NewSignupRecord(g, user.WaitlistTeamIndex, game.AttendanceWaitlist, now))
		g.UpdatedAt = now
		u.UpdatedAt = now

		savedGame, savedUser, err := s.writer.save(ctx, "join_waitlist", g, u)
		if err != nil {
			return err
		}
		saved, player = savedGame, savedUser
		return nil
	})
	if err != nil {
		return game.Game{}, err
	}

	s.logger.InfoContext(ctx, "waitlist joined", "game_id", gameID, "user_id", userID)
	s.notifier.Notify(ctx, renderGameMail(gameMail{
		kind:      mailWaitlistJoined,
		to:        recipientOf(player),
		firstName: player.FirstName,
		game:      saved,
	}))

	return saved, nil
}

func (s *SignupService) LeaveWaitlist(ctx context.Context, gameID, userID string) (game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SignupService.LeaveWaitlist", tracing.GameID(gameID), tracing.UserID(userID))
	defer span.End()

	gameID, userID, err := normalizeIDs(gameID, userID)
	if err != nil {
		return game.Game{}, err
	}

	var (
		saved  game.Game
		player user.User
	)
	err = withGameUserLock(ctx, s.locker, gameID, userID, func(ctx context.Context) error {
		u, err := loadUser(ctx, s.users, userID)
		if err != nil {
			return err
		}
		g, err := loadGame(ctx, s.games, gameID)
		if err != nil {
			return err
		}

		if !g.LeaveWaitlist(u.Email) {
			return fmt.Errorf("%w: %w", ErrNotFound, game.ErrNotOnWaitlist)
		}
		u.RemoveGame(g.ID)

		now := s.now()
		g.UpdatedAt = now
		u.UpdatedAt = now
		savedGame, savedUser, err := s.writer.save(ctx, "leave_waitlist", g, u)
		if err != nil {
			return err
		}
		saved, player = savedGame, savedUser
		return nil
	})
	if err != nil {
		return game.Game{}, err
	}

	s.logger.InfoContext(ctx, "waitlist left", "game_id", gameID, "user_id", userID)
	s.notifier.Notify(ctx, renderGameMail(gameMail{
		kind:      mailWaitlistLeft,
		to:        recipientOf(player),
		firstName: player.FirstName,
		game:      saved,
	}))

	return saved, nil
}

func spotAvailableMails(g game.Game) []notification.Message {
	out := make([]notification.Message, 0, len(g.Waitlist))
	for _, w := range g.Waitlist {
		out = append(out, renderGameMail(gameMail{
			kind:      mailSpotAvailable,
			to:        notification.Recipient{Email: w.Email, Name: fullName(w.FirstName, w.LastName)},
			firstName: w.FirstName,
			game:      g,
		}))
	}
	return out
}

func recipientOf(u user.User) notification.Recipient {
	return notification.Recipient{Email: u.Email, Name: u.FullName()}
}

func fullName(first, last string) string {
	return user.User{FirstName: first, LastName: last}.FullName()
}
