package redislock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/zeal-league/internal/platform/lock"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
)

const (
	defaultTTL          = 10 * time.Second
	defaultWaitTimeout  = 5 * time.Second
	defaultPollInterval = 25 * time.Millisecond
	keyPrefix           = "zeal:lock:"
)

// releaseScript deletes the key only while it still holds our token, so a
// holder whose lease expired cannot release a successor's lock.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// client is the subset of redis.Cmdable the locker needs.
type client interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

type Options struct {
	TTL          time.Duration
	WaitTimeout  time.Duration
	PollInterval time.Duration
}

// Locker is a lease-based per-key lock shared by every API replica.
type Locker struct {
	client client
	opts   Options
	logger *logging.Logger
}

func New(c client, opts Options, logger *logging.Logger) *Locker {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = defaultWaitTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Locker{client: c, opts: opts, logger: logger}
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("generate lock token: %w", err)
	}

	redisKey := keyPrefix + key
	ctx, cancel := context.WithTimeout(ctx, l.opts.WaitTimeout)
	defer cancel()

	ticker := time.NewTicker(l.opts.PollInterval)
	defer ticker.Stop()

	for {
		acquired, err := l.client.SetNX(ctx, redisKey, token, l.opts.TTL).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("acquire redis lock %s: %w", key, err)
		}
		if acquired {
			return l.releaser(redisKey, token), nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: key=%s", lock.ErrLockTimeout, key)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *Locker) releaser(redisKey, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() { l.release(redisKey, token) })
	}
}

func (l *Locker) release(redisKey, token string) {
	// The caller's context may already be done; release on a fresh one.
	ctx, cancel := context.WithTimeout(context.Background(), l.opts.WaitTimeout)
	defer cancel()

	deleted, err := l.client.Eval(ctx, releaseScript, []string{redisKey}, token).Int64()
	if err != nil {
		l.logger.Warn("release redis lock failed", "key", redisKey, "error", err)
		return
	}
	if deleted == 0 {
		l.logger.Warn("redis lock lease expired before release", "key", redisKey, "ttl", l.opts.TTL)
	}
}

func newToken() (string, error) {
	token, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return token.String(), nil
}
