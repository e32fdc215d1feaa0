package anubis

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/zeal-league/internal/domain/user"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
	"github.com/riskibarqy/zeal-league/internal/platform/resilience"
	"github.com/riskibarqy/zeal-league/internal/usecase"
)

const (
	defaultPrincipalCacheTTL = 30 * time.Second
	maxPrincipalCacheEntries = 10000
	maxIntrospectBodyBytes   = 1 << 20
)

var errAnubisTransient = errors.New("anubis transient failure")

// Client resolves bearer tokens through the Anubis introspection endpoint.
type Client struct {
	httpClient    *http.Client
	introspectURL string
	adminKey      string
	breaker       *resilience.CircuitBreaker
	inflight      resilience.Group[user.Principal]
	cache         *inMemoryPrincipalCache
	logger        *logging.Logger
}

type Options struct {
	BaseURL        string
	IntrospectPath string
	AdminKey       string
	CacheTTL       time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

func NewClient(httpClient *http.Client, opts Options, logger *logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = defaultPrincipalCacheTTL
	}

	introspectURL, err := resolveEndpoint(opts.BaseURL, opts.IntrospectPath)
	if err != nil {
		return nil, fmt.Errorf("anubis introspect url: %w", err)
	}

	return &Client{
		httpClient:    httpClient,
		introspectURL: introspectURL,
		adminKey:      strings.TrimSpace(opts.AdminKey),
		breaker:       resilience.NewCircuitBreaker("anubis", opts.CircuitBreaker),
		cache:         newInMemoryPrincipalCache(opts.CacheTTL, maxPrincipalCacheEntries),
		logger:        logger,
	}, nil
}

// VerifyAccessToken resolves a bearer token to a principal. Concurrent
// requests carrying the same token share one introspection call.
func (c *Client) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: %w", usecase.ErrUnauthorized, user.ErrTokenMissing)
	}

	key := hashToken(token)
	if principal, ok := c.cache.Get(key); ok {
		return principal, nil
	}

	principal, err, _ := c.inflight.Do(key, func() (user.Principal, error) {
		if err := c.breaker.Allow(); err != nil {
			return user.Principal{}, fmt.Errorf("%w: %w: %w", usecase.ErrDependencyUnavailable, user.ErrIdentityUnavailable, err)
		}

		principal, err := c.introspect(ctx, token)
		c.breaker.Record(err, isTransient)
		if err != nil {
			return user.Principal{}, err
		}
		c.cache.Set(key, principal)
		return principal, nil
	})
	return principal, err
}

func (c *Client) introspect(ctx context.Context, token string) (user.Principal, error) {
	encoded, err := sonic.Marshal(introspectRequest{Token: token})
	if err != nil {
		return user.Principal{}, fmt.Errorf("marshal introspect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectURL, bytes.NewReader(encoded))
	if err != nil {
		return user.Principal{}, fmt.Errorf("create introspect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.adminKey != "" {
		req.Header.Set("x-admin-key", c.adminKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return user.Principal{}, unavailable(fmt.Errorf("request introspection to anubis: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxIntrospectBodyBytes))
	if err != nil {
		return user.Principal{}, unavailable(fmt.Errorf("read introspect response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return user.Principal{}, fmt.Errorf("%w: %w", usecase.ErrUnauthorized, user.ErrTokenInvalid)
	case resp.StatusCode == http.StatusForbidden:
		// A rejected admin key is our misconfiguration, not the caller's.
		c.logger.ErrorContext(ctx, "anubis rejected admin key", "status_code", resp.StatusCode)
		return user.Principal{}, fmt.Errorf("%w: %w: introspection forbidden", usecase.ErrDependencyUnavailable, user.ErrIdentityUnavailable)
	case resp.StatusCode != http.StatusOK:
		c.logger.WarnContext(ctx, "anubis introspection non-200", "status_code", resp.StatusCode)
		return user.Principal{}, unavailable(fmt.Errorf("anubis introspection failed with status %d", resp.StatusCode))
	}

	var decoded introspectResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return user.Principal{}, fmt.Errorf("%w: %w: decode introspect response: %w", usecase.ErrDependencyUnavailable, user.ErrIdentityUnavailable, err)
	}

	if !decoded.Active {
		return user.Principal{}, fmt.Errorf("%w: %w", usecase.ErrUnauthorized, user.ErrTokenInactive)
	}
	if decoded.ExpiresAt > 0 && time.Unix(decoded.ExpiresAt, 0).Before(time.Now()) {
		return user.Principal{}, fmt.Errorf("%w: %w", usecase.ErrUnauthorized, user.ErrTokenExpired)
	}
	if strings.TrimSpace(decoded.UserID) == "" {
		return user.Principal{}, fmt.Errorf("%w: %w: user_id is empty", usecase.ErrUnauthorized, user.ErrTokenInvalid)
	}

	return user.Principal{
		UserID: decoded.UserID,
		Email:  strings.TrimSpace(decoded.Email),
	}, nil
}

func isTransient(err error) bool {
	return errors.Is(err, errAnubisTransient)
}

// hashToken keeps raw bearer tokens out of cache and singleflight keys.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// resolveEndpoint joins base and path; an absolute path wins over base.
func resolveEndpoint(baseURL, path string) (string, error) {
	path = strings.TrimSpace(path)
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return u.String(), nil
	}

	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", err
	}
	if !base.IsAbs() {
		return "", fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if path == "" {
		return base.String(), nil
	}
	return base.JoinPath(path).String(), nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w: %w: %w", usecase.ErrDependencyUnavailable, user.ErrIdentityUnavailable, errAnubisTransient, err)
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active    bool   `json:"active"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	ExpiresAt int64  `json:"exp"`
}
