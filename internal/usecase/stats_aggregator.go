package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/zeal-league/internal/domain/game"
	"github.com/riskibarqy/zeal-league/internal/domain/user"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
	"github.com/riskibarqy/zeal-league/internal/platform/tracing"
	"github.com/sourcegraph/conc/pool"
)

const defaultAggregateWorkers = 8

type AggregationReport struct {
	Updated   int
	Unchanged int
	// Skipped counts rostered players with no recorded attendance.
	Skipped int
	Missing []string
}

// StatsAggregator commits a finished game's roster into each player's
// career totals. Re-running it for the same game replaces the previous
// contribution instead of adding to it.
type StatsAggregator struct {
	users   user.Repository
	locker  Locker
	workers int
	logger  *logging.Logger
	now     func() time.Time
}

func NewStatsAggregator(users user.Repository, locker Locker, workers int, logger *logging.Logger) *StatsAggregator {
	if logger == nil {
		logger = logging.Default()
	}
	if workers <= 0 {
		workers = defaultAggregateWorkers
	}

	return &StatsAggregator{
		users:   users,
		locker:  locker,
		workers: workers,
		logger:  logger,
		now:     time.Now,
	}
}

type aggregationTask struct {
	email  string
	record user.GameRecord
}

func (a *StatsAggregator) Aggregate(ctx context.Context, g game.Game) (AggregationReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsAggregator.Aggregate", tracing.GameID(g.ID))
	defer span.End()

	if g.Status != game.StatusFinished {
		return AggregationReport{}, fmt.Errorf("%w: game %s is %q, not finished", ErrInvalidInput, g.ID, g.Status)
	}

	now := a.now()
	var (
		report AggregationReport
		tasks  []aggregationTask
	)
	for teamIdx, team := range g.Teams {
		for _, entry := range team {
			if entry == nil {
				continue
			}
			rec, ok := user.FinishedRecord(g, teamIdx, *entry, now)
			if !ok {
				report.Skipped++
				continue
			}
			tasks = append(tasks, aggregationTask{email: entry.Email, record: rec})
		}
	}

	var mu sync.Mutex
	p := pool.New().WithErrors().WithMaxGoroutines(a.workers)
	for _, task := range tasks {
		task := task
		p.Go(func() error {
			outcome, err := a.apply(ctx, task)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeUpdated:
				report.Updated++
			case outcomeUnchanged:
				report.Unchanged++
			case outcomeMissing:
				report.Missing = append(report.Missing, task.email)
			}
			return err
		})
	}
	err := p.Wait()

	a.logger.InfoContext(ctx, "game stats aggregated",
		"game_id", g.ID,
		"updated", report.Updated,
		"unchanged", report.Unchanged,
		"skipped", report.Skipped,
		"missing", len(report.Missing),
	)
	if err != nil {
		return report, fmt.Errorf("aggregate game %s: %w", g.ID, err)
	}
	return report, nil
}

type aggregationOutcome int

const (
	outcomeFailed aggregationOutcome = iota
	outcomeUpdated
	outcomeUnchanged
	outcomeMissing
)

func (a *StatsAggregator) apply(ctx context.Context, task aggregationTask) (aggregationOutcome, error) {
	for attempt := 0; attempt < maxVersionRetries; attempt++ {
		outcome, err := a.applyOnce(ctx, task)
		if !errors.Is(err, user.ErrVersionConflict) {
			return outcome, err
		}
	}
	return outcomeFailed, fmt.Errorf("user %s kept changing during aggregation", task.email)
}

func (a *StatsAggregator) applyOnce(ctx context.Context, task aggregationTask) (aggregationOutcome, error) {
	u, exists, err := a.users.GetByEmail(ctx, task.email)
	if err != nil {
		return outcomeFailed, fmt.Errorf("get user by email: %w", err)
	}
	if !exists {
		a.logger.WarnContext(ctx, "aggregation skipped missing user",
			"game_id", task.record.GameID,
			"email", task.email,
		)
		return outcomeMissing, nil
	}

	unlock, err := a.locker.Lock(ctx, userLockKey(u.ID))
	if err != nil {
		return outcomeFailed, fmt.Errorf("%w: acquire lock for user %s: %w", ErrDependencyUnavailable, u.ID, err)
	}
	defer unlock()

	// Re-read under the lock so a concurrent signup is not overwritten.
	u, exists, err = a.users.GetByID(ctx, u.ID)
	if err != nil {
		return outcomeFailed, fmt.Errorf("get user by id: %w", err)
	}
	if !exists {
		return outcomeMissing, nil
	}

	prev, hadPrev := u.HistoryFor(task.record.GameID)
	changed := u.ApplyAggregation(task.record)
	if !changed && hadPrev && prev.Aggregated && sameOutcome(prev, task.record) {
		return outcomeUnchanged, nil
	}

	u.UpdatedAt = task.record.UpdatedAt
	if _, err := a.users.Update(ctx, u); err != nil {
		if errors.Is(err, user.ErrVersionConflict) {
			return outcomeFailed, err
		}
		a.logger.ErrorContext(ctx, "aggregation user write failed",
			"game_id", task.record.GameID,
			"user_id", u.ID,
			"step", "aggregate_user",
			"error", err,
		)
		return outcomeFailed, fmt.Errorf("update user %s: %w", u.ID, err)
	}
	return outcomeUpdated, nil
}

func sameOutcome(prev, next user.GameRecord) bool {
	prev.UpdatedAt, next.UpdatedAt = time.Time{}, time.Time{}
	next.Aggregated = true
	return prev == next
}
