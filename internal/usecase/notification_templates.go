package usecase

import (
	"html"
	"strings"

	"github.com/riskibarqy/zeal-league/internal/domain/game"
	"github.com/riskibarqy/zeal-league/internal/domain/notification"
	"github.com/valyala/bytebufferpool"
)

const mailSignature = "Zeal FC Team"

type gameMailKind string

const (
	mailSignupConfirmation gameMailKind = "signup_confirmation"
	mailCancellation       gameMailKind = "cancellation"
	mailSpotAvailable      gameMailKind = "spot_available"
	mailWaitlistJoined     gameMailKind = "waitlist_joined"
	mailWaitlistLeft       gameMailKind = "waitlist_left"
)

type gameMailTemplate struct {
	subject string
	// lines are rendered after the greeting; {venue} is replaced with the game location and time.
	lines []string
}

var gameMailTemplates = map[gameMailKind]gameMailTemplate{
	mailSignupConfirmation: {
		subject: "Game Signup Confirmation",
		lines: []string{
			"You have successfully signed up for the game at {venue}.",
			"One credit has been deducted from your account.",
			"Thank you for joining!",
		},
	},
	mailCancellation: {
		subject: "Game Cancellation",
		lines: []string{
			"You have successfully canceled your registration for the game at {venue}.",
		},
	},
	mailSpotAvailable: {
		subject: "Spot Available for Game",
		lines: []string{
			"A spot has opened up for the game at {venue}.",
			"Sign up quickly if you wish to join!",
		},
	},
	mailWaitlistJoined: {
		subject: "Waitlist Confirmation for Game",
		lines: []string{
			"You have been added to the waitlist for the game at {venue}. You will receive an email if a spot becomes available.",
		},
	},
	mailWaitlistLeft: {
		subject: "Removed from Waitlist for Game",
		lines: []string{
			"You have been removed from the waitlist for the game at {venue}. You will no longer receive notifications about available spots for this game.",
		},
	},
}

type gameMail struct {
	kind      gameMailKind
	to        notification.Recipient
	firstName string
	game      game.Game
	refunded  bool
}

func renderGameMail(m gameMail) notification.Message {
	tmpl := gameMailTemplates[m.kind]

	lines := append([]string(nil), tmpl.lines...)
	if m.kind == mailCancellation {
		if m.refunded {
			lines = append(lines, "Your credit has been refunded.")
		}
		lines = append(lines, "Thank you!")
	}

	venue := m.game.Stadium.Name + " on " + m.game.Date.Format("2006-01-02") + " at " + m.game.Time
	htmlVenue := "<strong>" + html.EscapeString(m.game.Stadium.Name) + "</strong> on <strong>" +
		m.game.Date.Format("2006-01-02") + " at " + html.EscapeString(m.game.Time) + "</strong>"

	htmlBuf := bytebufferpool.Get()
	defer bytebufferpool.Put(htmlBuf)
	textBuf := bytebufferpool.Get()
	defer bytebufferpool.Put(textBuf)

	_, _ = htmlBuf.WriteString("<p>Hello " + html.EscapeString(m.firstName) + ",</p>")
	_, _ = textBuf.WriteString("Hello " + m.firstName + ",\n\n")
	for _, line := range lines {
		_, _ = htmlBuf.WriteString("<p>" + strings.ReplaceAll(html.EscapeString(line), "{venue}", htmlVenue) + "</p>")
		_, _ = textBuf.WriteString(strings.ReplaceAll(line, "{venue}", venue) + "\n\n")
	}
	_, _ = htmlBuf.WriteString("<p>Best regards,<br>" + mailSignature + "</p>")
	_, _ = textBuf.WriteString("Best regards,\n" + mailSignature)

	return notification.Message{
		To:      m.to,
		Subject: tmpl.subject,
		HTML:    htmlBuf.String(),
		Text:    textBuf.String(),
	}
}
