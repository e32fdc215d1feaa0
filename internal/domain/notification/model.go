package notification

import "context"

type Recipient struct {
	Email string
	Name  string
}

type Message struct {
	To      Recipient
	Subject string
	HTML    string
	Text    string
}

// Sender delivers one message. Callers treat failures as best-effort.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
