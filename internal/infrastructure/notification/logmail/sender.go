package logmail

import (
	"context"

	"github.com/riskibarqy/zeal-league/internal/domain/notification"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
)

// Sender writes messages to the log instead of delivering them. Used in dev.
type Sender struct {
	logger *logging.Logger
}

func NewSender(logger *logging.Logger) *Sender {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, msg notification.Message) error {
	s.logger.InfoContext(ctx, "email (log driver)",
		"to", msg.To.Email,
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return nil
}
