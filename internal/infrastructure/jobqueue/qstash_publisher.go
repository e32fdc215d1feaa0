package jobqueue

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
	"github.com/riskibarqy/zeal-league/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	errQStashTransient = crerr.New("qstash transient failure")
	// ErrPublishRejected marks a non-retryable QStash response.
	ErrPublishRejected = crerr.New("qstash rejected publish")
)

type QStashPublisherConfig struct {
	BaseURL          string
	Token            string
	TargetBaseURL    string
	Retries          int
	InternalJobToken string
	Timeout          time.Duration
	CircuitBreaker   resilience.CircuitBreakerConfig
}

// Job is one HTTP callback QStash will deliver to this service.
type Job struct {
	Path            string
	Payload         any
	Delay           time.Duration
	DeduplicationID string
}

type QStashPublisher struct {
	client           *http.Client
	baseURL          string
	token            string
	targetBaseURL    string
	retries          int
	internalJobToken string
	logger           *logging.Logger
	breaker          *resilience.CircuitBreaker
}

func NewQStashPublisher(cfg QStashPublisherConfig, httpClient *http.Client, logger *logging.Logger) *QStashPublisher {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &QStashPublisher{
		client:           httpClient,
		baseURL:          strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:            strings.TrimSpace(cfg.Token),
		targetBaseURL:    strings.TrimRight(strings.TrimSpace(cfg.TargetBaseURL), "/"),
		retries:          cfg.Retries,
		internalJobToken: strings.TrimSpace(cfg.InternalJobToken),
		logger:           logger,
		breaker:          resilience.NewCircuitBreaker("qstash", cfg.CircuitBreaker),
	}
}

func (p *QStashPublisher) Publish(ctx context.Context, job Job) error {
	path := "/" + strings.TrimLeft(strings.TrimSpace(job.Path), "/")
	if path == "/" {
		return crerr.New("job path is required")
	}

	baseURL, err := validateHTTPBaseURL(p.baseURL)
	if err != nil {
		return crerr.Wrap(err, "invalid QSTASH_BASE_URL")
	}
	targetBaseURL, err := validateHTTPBaseURL(p.targetBaseURL)
	if err != nil {
		return crerr.Wrap(err, "invalid QSTASH_TARGET_BASE_URL")
	}

	if err := p.breaker.Allow(); err != nil {
		p.logger.WarnContext(ctx, "qstash circuit breaker rejected request", "state", string(p.breaker.State()))
		return crerr.Wrap(err, "qstash is temporarily unavailable")
	}

	err = p.publish(ctx, baseURL, targetBaseURL+path, path, job)
	p.breaker.Record(err, isQStashTransient)
	return err
}

func (p *QStashPublisher) publish(ctx context.Context, baseURL, targetURL, path string, job Job) error {
	publishURL := baseURL + "/v2/publish/" + targetURL
	payload := job.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	body, err := sonic.Marshal(payload)
	if err != nil {
		return crerr.Wrap(err, "marshal job payload")
	}
	delay := normalizeDelay(job.Delay)
	dedupID := strings.TrimSpace(job.DeduplicationID)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("qstash.publish_url", publishURL),
			attribute.String("qstash.target_url", targetURL),
			attribute.String("qstash.path", path),
		)
	}
	p.logger.DebugContext(ctx, "qstash publish request",
		"path", path,
		"target_url", targetURL,
		"curl_preview", buildQStashCurlPreview(publishURL, path, delay, p.retries, dedupID, p.internalJobToken != ""),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, publishURL, strings.NewReader(string(body)))
	if err != nil {
		return crerr.Wrap(err, "create qstash request")
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Upstash-Method", http.MethodPost)
	if p.retries > 0 {
		req.Header.Set("Upstash-Retries", strconv.Itoa(p.retries))
	}
	if job.Delay > 0 {
		req.Header.Set("Upstash-Delay", delay)
	}
	if dedupID != "" {
		req.Header.Set("Upstash-Deduplication-Id", dedupID)
	}
	if p.internalJobToken != "" {
		req.Header.Set("Upstash-Forward-X-Internal-Job-Token", p.internalJobToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: publish qstash job target_url=%s: %v", errQStashTransient, targetURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		cause := ErrPublishRejected
		if isQStashRetryableStatus(resp.StatusCode) {
			cause = errQStashTransient
		}
		return fmt.Errorf("%w: publish qstash job status=%d target_url=%s body=%s",
			cause,
			resp.StatusCode,
			targetURL,
			strings.TrimSpace(string(raw)),
		)
	}

	p.logger.InfoContext(ctx, "qstash job published", "path", path, "delay", delay, "deduplication_id", dedupID)
	return nil
}

func normalizeDelay(delay time.Duration) string {
	if delay <= 0 {
		return "0s"
	}
	return strconv.Itoa(int(delay.Round(time.Second).Seconds())) + "s"
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

// buildQStashCurlPreview renders a redacted curl line for debug logs. The
// body is omitted because notification payloads carry email addresses.
func buildQStashCurlPreview(publishURL, path, delay string, retries int, deduplicationID string, withForwardToken bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	appendHeader := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl -X POST")
	appendPart(shellQuote(publishURL))
	appendHeader("Authorization: Bearer ***")
	appendHeader("Content-Type: application/json")
	appendHeader("Upstash-Method: POST")
	if retries > 0 {
		appendHeader("Upstash-Retries: " + strconv.Itoa(retries))
	}
	if delay != "" && delay != "0s" {
		appendHeader("Upstash-Delay: " + delay)
	}
	if deduplicationID != "" {
		appendHeader("Upstash-Deduplication-Id: " + deduplicationID)
	}
	if withForwardToken {
		appendHeader("Upstash-Forward-X-Internal-Job-Token: ***")
	}
	appendPart("#")
	appendPart(shellQuote("path=" + path))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func isQStashTransient(err error) bool {
	return stderrors.Is(err, errQStashTransient)
}

func isQStashRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
