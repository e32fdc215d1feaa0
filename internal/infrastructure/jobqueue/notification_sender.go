package jobqueue

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/riskibarqy/zeal-league/internal/domain/notification"
)

// NotificationJobPath is the internal endpoint QStash calls back.
const NotificationJobPath = "/v1/internal/jobs/notifications"

// NotificationJob is the queued wire form of a notification.Message.
type NotificationJob struct {
	ToEmail string `json:"to_email"`
	ToName  string `json:"to_name,omitempty"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

func NewNotificationJob(msg notification.Message) NotificationJob {
	return NotificationJob{
		ToEmail: msg.To.Email,
		ToName:  msg.To.Name,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}
}

func (j NotificationJob) Message() notification.Message {
	return notification.Message{
		To:      notification.Recipient{Email: j.ToEmail, Name: j.ToName},
		Subject: j.Subject,
		HTML:    j.HTML,
		Text:    j.Text,
	}
}

// NotificationSender satisfies notification.Sender by queueing each message
// on QStash; delivery happens when QStash calls NotificationJobPath.
type NotificationSender struct {
	publisher *QStashPublisher
}

func NewNotificationSender(publisher *QStashPublisher) *NotificationSender {
	return &NotificationSender{publisher: publisher}
}

func (s *NotificationSender) Send(ctx context.Context, msg notification.Message) error {
	return s.publisher.Publish(ctx, Job{
		Path:            NotificationJobPath,
		Payload:         NewNotificationJob(msg),
		DeduplicationID: deduplicationID(msg),
	})
}

// deduplicationID collapses byte-identical messages to the same recipient
// inside the QStash deduplication window.
func deduplicationID(msg notification.Message) string {
	h := sha256.New()
	for _, part := range []string{msg.To.Email, msg.Subject, msg.Text} {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}
	return "notify-" + hex.EncodeToString(h.Sum(nil))[:32]
}
