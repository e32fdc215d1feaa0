package mailersend

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/zeal-league/internal/domain/notification"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
	"github.com/riskibarqy/zeal-league/internal/platform/resilience"
	"github.com/valyala/fasthttp"
)

const (
	defaultBaseURL = "https://api.mailersend.com"
	defaultTimeout = 10 * time.Second
	emailPath      = "/v1/email"
)

var (
	errMailerSendTransient = crerr.New("mailersend transient failure")
	// ErrRejected marks a message MailerSend refused; retrying will not help.
	ErrRejected = crerr.New("mailersend rejected message")
)

type Config struct {
	BaseURL        string
	Token          string
	FromEmail      string
	FromName       string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Sender delivers notification.Message through the MailerSend email API.
type Sender struct {
	client    *fasthttp.Client
	endpoint  string
	token     string
	fromEmail string
	fromName  string
	timeout   time.Duration
	breaker   *resilience.CircuitBreaker
	logger    *logging.Logger
}

func NewSender(cfg Config, logger *logging.Logger) (*Sender, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, crerr.New("mailersend token is required")
	}
	if strings.TrimSpace(cfg.FromEmail) == "" {
		return nil, crerr.New("mailersend from email is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Sender{
		client: &fasthttp.Client{
			Name:                "zeal-league",
			MaxIdleConnDuration: 30 * time.Second,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
		},
		endpoint:  baseURL + emailPath,
		token:     strings.TrimSpace(cfg.Token),
		fromEmail: strings.TrimSpace(cfg.FromEmail),
		fromName:  strings.TrimSpace(cfg.FromName),
		timeout:   timeout,
		breaker:   resilience.NewCircuitBreaker("mailersend", cfg.CircuitBreaker),
		logger:    logger,
	}, nil
}

func (s *Sender) Send(ctx context.Context, msg notification.Message) error {
	if strings.TrimSpace(msg.To.Email) == "" {
		return crerr.New("recipient email is required")
	}
	if err := ctx.Err(); err != nil {
		return crerr.Wrap(err, "send email")
	}

	if err := s.breaker.Allow(); err != nil {
		s.logger.WarnContext(ctx, "mailersend circuit breaker rejected request", "state", string(s.breaker.State()))
		return crerr.Wrap(err, "mailersend is temporarily unavailable")
	}

	err := s.send(ctx, msg)
	s.breaker.Record(err, isMailerSendTransient)
	return err
}

func isMailerSendTransient(err error) bool {
	return stderrors.Is(err, errMailerSendTransient)
}

func (s *Sender) send(ctx context.Context, msg notification.Message) error {
	body, err := sonic.Marshal(newEmailRequest(s.fromEmail, s.fromName, msg))
	if err != nil {
		return crerr.Wrap(err, "marshal email request")
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.SetBodyRaw(body)

	if err := s.client.DoTimeout(req, resp, s.requestTimeout(ctx)); err != nil {
		return fmt.Errorf("%w: post email: %v", errMailerSendTransient, err)
	}

	status := resp.StatusCode()
	if status/100 == 2 {
		s.logger.DebugContext(ctx, "email accepted",
			"subject", msg.Subject,
			"message_id", string(resp.Header.Peek("X-Message-Id")),
		)
		return nil
	}

	cause := ErrRejected
	if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		cause = errMailerSendTransient
	}
	return fmt.Errorf("%w: status=%d body=%s", cause, status, abbreviateBody(resp.Body()))
}

// requestTimeout honours the caller's deadline when it is tighter than the
// configured timeout; fasthttp has no context support.
func (s *Sender) requestTimeout(ctx context.Context) time.Duration {
	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = max(remaining, time.Millisecond)
		}
	}
	return timeout
}

type emailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type emailRequest struct {
	From    emailAddress   `json:"from"`
	To      []emailAddress `json:"to"`
	Subject string         `json:"subject"`
	HTML    string         `json:"html,omitempty"`
	Text    string         `json:"text,omitempty"`
}

func newEmailRequest(fromEmail, fromName string, msg notification.Message) emailRequest {
	return emailRequest{
		From:    emailAddress{Email: fromEmail, Name: fromName},
		To:      []emailAddress{{Email: msg.To.Email, Name: msg.To.Name}},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
