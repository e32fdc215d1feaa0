package mailersend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/zeal-league/internal/domain/notification"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
	"github.com/riskibarqy/zeal-league/internal/platform/resilience"
)

var testMessage = notification.Message{
	To:      notification.Recipient{Email: "p1@zeal.test", Name: "Player One"},
	Subject: "Game Signup Confirmation",
	HTML:    "<p>See you there</p>",
	Text:    "See you there",
}

func newTestSender(t *testing.T, baseURL string, breaker resilience.CircuitBreakerConfig) *Sender {
	t.Helper()

	sender, err := NewSender(Config{
		BaseURL:        baseURL,
		Token:          "ms-token",
		FromEmail:      "noreply@zeal.test",
		FromName:       "Zeal FC",
		Timeout:        2 * time.Second,
		CircuitBreaker: breaker,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	return sender
}

func TestSender_PostsEmailRequest(t *testing.T) {
	t.Parallel()

	var got emailRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != emailPath {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer ms-token" {
			t.Errorf("unexpected authorization: %s", auth)
		}
		raw, _ := io.ReadAll(r.Body)
		if err := sonic.Unmarshal(raw, &got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("X-Message-Id", "msg-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := newTestSender(t, srv.URL, resilience.CircuitBreakerConfig{})
	if err := sender.Send(context.Background(), testMessage); err != nil {
		t.Fatalf("send: %v", err)
	}

	if got.From.Email != "noreply@zeal.test" || got.From.Name != "Zeal FC" {
		t.Fatalf("unexpected from: %+v", got.From)
	}
	if len(got.To) != 1 || got.To[0].Email != "p1@zeal.test" {
		t.Fatalf("unexpected recipients: %+v", got.To)
	}
	if got.Subject != testMessage.Subject || got.Text != testMessage.Text || got.HTML != testMessage.HTML {
		t.Fatalf("unexpected content: %+v", got)
	}
}

func TestSender_ClassifiesFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		status   int
		rejected bool
	}{
		{name: "validation error", status: http.StatusUnprocessableEntity, rejected: true},
		{name: "rate limited", status: http.StatusTooManyRequests, rejected: false},
		{name: "server error", status: http.StatusInternalServerError, rejected: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}))
			defer srv.Close()

			err := newTestSender(t, srv.URL, resilience.CircuitBreakerConfig{}).Send(context.Background(), testMessage)
			if err == nil {
				t.Fatalf("expected send error")
			}
			if got := errors.Is(err, ErrRejected); got != tc.rejected {
				t.Fatalf("unexpected rejected classification: got=%v want=%v err=%v", got, tc.rejected, err)
			}
			if got := errors.Is(err, errMailerSendTransient); got == tc.rejected {
				t.Fatalf("unexpected transient classification: got=%v err=%v", got, err)
			}
		})
	}
}

func TestSender_CircuitOpensOnTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := newTestSender(t, srv.URL, resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	})

	for i := 0; i < 2; i++ {
		_ = sender.Send(context.Background(), testMessage)
	}
	if err := sender.Send(context.Background(), testMessage); !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("unexpected upstream calls: got=%d want=2", got)
	}
}

func TestNewSender_RequiresCredentials(t *testing.T) {
	t.Parallel()

	if _, err := NewSender(Config{FromEmail: "noreply@zeal.test"}, nil); err == nil {
		t.Fatalf("expected missing token error")
	}
	if _, err := NewSender(Config{Token: "t"}, nil); err == nil {
		t.Fatalf("expected missing from email error")
	}
}

func TestSender_RejectsEmptyRecipient(t *testing.T) {
	t.Parallel()

	sender := newTestSender(t, "http://127.0.0.1:1", resilience.CircuitBreakerConfig{})
	if err := sender.Send(context.Background(), notification.Message{Subject: "x"}); err == nil {
		t.Fatalf("expected recipient error")
	}
}
