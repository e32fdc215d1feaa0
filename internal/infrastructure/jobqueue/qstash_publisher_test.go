package jobqueue

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/zeal-league/internal/domain/notification"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
	"github.com/riskibarqy/zeal-league/internal/platform/resilience"
)

func TestNotificationSender_PublishesToNotificationJobPath(t *testing.T) {
	t.Parallel()

	var (
		gotPath    string
		gotHeaders http.Header
		gotJob     NotificationJob
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeaders = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		if err := sonic.Unmarshal(raw, &gotJob); err != nil {
			t.Errorf("decode job: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:          srv.URL,
		Token:            "qstash-token",
		TargetBaseURL:    "https://api.zeal.test/",
		Retries:          3,
		InternalJobToken: "job-secret",
	}, srv.Client(), logging.NewNop())
	sender := NewNotificationSender(publisher)

	msg := notification.Message{
		To:      notification.Recipient{Email: "p1@zeal.test", Name: "Player One"},
		Subject: "Spot Available for Game",
		HTML:    "<p>hi</p>",
		Text:    "hi",
	}
	if err := sender.Send(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}

	if want := "/v2/publish/https://api.zeal.test" + NotificationJobPath; gotPath != want {
		t.Fatalf("unexpected publish path: got=%s want=%s", gotPath, want)
	}
	if got := gotHeaders.Get("Authorization"); got != "Bearer qstash-token" {
		t.Fatalf("unexpected authorization header: %s", got)
	}
	if got := gotHeaders.Get("Upstash-Forward-X-Internal-Job-Token"); got != "job-secret" {
		t.Fatalf("unexpected forwarded job token: %s", got)
	}
	if got := gotHeaders.Get("Upstash-Retries"); got != "3" {
		t.Fatalf("unexpected retries header: %s", got)
	}
	if got := gotHeaders.Get("Upstash-Deduplication-Id"); !strings.HasPrefix(got, "notify-") {
		t.Fatalf("unexpected deduplication id: %s", got)
	}
	if gotJob.Message() != msg {
		t.Fatalf("unexpected job payload: %+v", gotJob)
	}
}

func TestQStashPublisher_ClassifiesFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		status    int
		transient bool
	}{
		{name: "bad request", status: http.StatusBadRequest, transient: false},
		{name: "rate limited", status: http.StatusTooManyRequests, transient: true},
		{name: "server error", status: http.StatusBadGateway, transient: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			publisher := NewQStashPublisher(QStashPublisherConfig{
				BaseURL:       srv.URL,
				TargetBaseURL: "https://api.zeal.test",
			}, srv.Client(), logging.NewNop())

			err := publisher.Publish(context.Background(), Job{Path: NotificationJobPath})
			if err == nil {
				t.Fatalf("expected publish error")
			}
			if got := errors.Is(err, errQStashTransient); got != tc.transient {
				t.Fatalf("unexpected transient classification: got=%v want=%v", got, tc.transient)
			}
			if got := errors.Is(err, ErrPublishRejected); got == tc.transient {
				t.Fatalf("unexpected rejected classification: got=%v", got)
			}
		})
	}
}

func TestQStashPublisher_CircuitOpensAfterTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:       srv.URL,
		TargetBaseURL: "https://api.zeal.test",
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
		},
	}, srv.Client(), logging.NewNop())

	_ = publisher.Publish(context.Background(), Job{Path: NotificationJobPath})
	err := publisher.Publish(context.Background(), Job{Path: NotificationJobPath})
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("unexpected upstream calls: got=%d want=1", got)
	}
}

func TestQStashPublisher_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:       "ftp://qstash.example.com",
		TargetBaseURL: "https://api.zeal.test",
	}, nil, logging.NewNop())

	if err := publisher.Publish(context.Background(), Job{Path: "/x"}); err == nil {
		t.Fatalf("expected invalid base url error")
	}
	if err := publisher.Publish(context.Background(), Job{Path: " "}); err == nil {
		t.Fatalf("expected missing path error")
	}
}

func TestNormalizeDelay(t *testing.T) {
	t.Parallel()

	if got := normalizeDelay(0); got != "0s" {
		t.Fatalf("unexpected delay: %s", got)
	}
	if got := normalizeDelay(1500 * time.Millisecond); got != "2s" {
		t.Fatalf("unexpected delay: %s", got)
	}
}
