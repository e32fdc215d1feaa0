package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/zeal-league/internal/domain/notification"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
)

const defaultNotifyWorkers = 8

// NotificationDispatcher sends workflow notifications. Failures are logged
// and never returned to the workflow.
type NotificationDispatcher struct {
	sender  notification.Sender
	workers int
	logger  *logging.Logger
}

func NewNotificationDispatcher(sender notification.Sender, workers int, logger *logging.Logger) *NotificationDispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	if workers <= 0 {
		workers = defaultNotifyWorkers
	}

	return &NotificationDispatcher{
		sender:  sender,
		workers: workers,
		logger:  logger,
	}
}

func (d *NotificationDispatcher) Notify(ctx context.Context, msg notification.Message) {
	if d == nil || d.sender == nil {
		return
	}

	ctx, span := startUsecaseSpan(ctx, "usecase.NotificationDispatcher.Notify")
	defer span.End()

	if err := d.sender.Send(ctx, msg); err != nil {
		d.logger.WarnContext(ctx, "notification failed",
			"subject", msg.Subject,
			"recipient", msg.To.Email,
			"error", err,
		)
	}
}

// Broadcast sends every message independently and waits for all of them.
func (d *NotificationDispatcher) Broadcast(ctx context.Context, msgs []notification.Message) {
	if d == nil || d.sender == nil || len(msgs) == 0 {
		return
	}

	ctx, span := startUsecaseSpan(ctx, "usecase.NotificationDispatcher.Broadcast")
	defer span.End()

	workerCount := min(d.workers, len(msgs))
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		d.logger.WarnContext(ctx, "create notification worker pool failed, sending sequentially", "error", err)
		for _, msg := range msgs {
			d.Notify(ctx, msg)
		}
		return
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, msg := range msgs {
		msg := msg
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			d.Notify(ctx, msg)
		}); err != nil {
			workers.Done()
			d.logger.WarnContext(ctx, "submit notification failed",
				"subject", msg.Subject,
				"recipient", msg.To.Email,
				"error", err,
			)
		}
	}
	workers.Wait()
}

// NotificationDelivery sends queued messages. Unlike the dispatcher it
// returns failures so the queue can retry.
type NotificationDelivery struct {
	sender notification.Sender
	logger *logging.Logger
}

func NewNotificationDelivery(sender notification.Sender, logger *logging.Logger) *NotificationDelivery {
	if logger == nil {
		logger = logging.Default()
	}
	return &NotificationDelivery{sender: sender, logger: logger}
}

func (d *NotificationDelivery) Deliver(ctx context.Context, msg notification.Message) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.NotificationDelivery.Deliver")
	defer span.End()

	if strings.TrimSpace(msg.To.Email) == "" {
		return fmt.Errorf("%w: recipient email is required", ErrInvalidInput)
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}
	if d.sender == nil {
		return fmt.Errorf("%w: no notification sender configured", ErrDependencyUnavailable)
	}

	if err := d.sender.Send(ctx, msg); err != nil {
		d.logger.WarnContext(ctx, "queued notification delivery failed",
			"subject", msg.Subject,
			"recipient", msg.To.Email,
			"error", err,
		)
		return fmt.Errorf("%w: send notification: %w", ErrDependencyUnavailable, err)
	}
	return nil
}
