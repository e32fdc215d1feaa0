package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/zeal-league/internal/config"
	"github.com/riskibarqy/zeal-league/internal/domain/admin"
	"github.com/riskibarqy/zeal-league/internal/domain/game"
	"github.com/riskibarqy/zeal-league/internal/domain/notification"
	"github.com/riskibarqy/zeal-league/internal/domain/user"
	"github.com/riskibarqy/zeal-league/internal/infrastructure/account/anubis"
	"github.com/riskibarqy/zeal-league/internal/infrastructure/account/jwtauth"
	"github.com/riskibarqy/zeal-league/internal/infrastructure/jobqueue"
	"github.com/riskibarqy/zeal-league/internal/infrastructure/lock/redislock"
	"github.com/riskibarqy/zeal-league/internal/infrastructure/notification/logmail"
	"github.com/riskibarqy/zeal-league/internal/infrastructure/notification/mailersend"
	"github.com/riskibarqy/zeal-league/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/zeal-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/zeal-league/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/zeal-league/internal/interfaces/httpapi"
	basecache "github.com/riskibarqy/zeal-league/internal/platform/cache"
	idgen "github.com/riskibarqy/zeal-league/internal/platform/id"
	"github.com/riskibarqy/zeal-league/internal/platform/lock"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
	"github.com/riskibarqy/zeal-league/internal/platform/pgdsn"
	"github.com/riskibarqy/zeal-league/internal/platform/resilience"
	"github.com/riskibarqy/zeal-league/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type repositories struct {
	games  game.Repository
	users  user.Repository
	admins admin.Repository
}

// closers run in reverse registration order on shutdown.
type closers []func(context.Context) error

func (c closers) close(ctx context.Context) error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewHTTPServer wires storage, locking, identity and notification drivers
// into the HTTP API. The returned func releases every opened resource.
func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*http.Server, func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	var cleanup closers
	fail := func(err error) (*http.Server, func(context.Context) error, error) {
		_ = cleanup.close(context.Background())
		return nil, nil, err
	}

	repos, closeRepos, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanup = append(cleanup, closeRepos)

	locker, closeLocker, err := buildLocker(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanup = append(cleanup, closeLocker)

	verifier, err := buildIdentityVerifier(cfg, logger)
	if err != nil {
		return fail(err)
	}

	dispatchSender, deliverySender, err := buildNotificationSenders(cfg, logger)
	if err != nil {
		return fail(err)
	}

	notifier := usecase.NewNotificationDispatcher(dispatchSender, cfg.NotifyWorkers, logger)
	aggregator := usecase.NewStatsAggregator(repos.users, locker, cfg.NotifyWorkers, logger)

	handler := httpapi.NewHandler(
		usecase.NewGameService(repos.games, repos.admins, idgen.NewUUIDGenerator(), cfg.Location, logger),
		usecase.NewSignupService(repos.games, repos.users, locker, notifier, usecase.SignupServiceConfig{
			RefundThreshold: cfg.RefundThreshold,
			Location:        cfg.Location,
		}, logger),
		usecase.NewGameStatusService(repos.games, repos.admins, locker, aggregator, logger),
		usecase.NewCreditService(repos.users, locker, cfg.CreditsPerPeriod, logger),
		usecase.NewLeaderboardService(repos.users),
		usecase.NewNotificationDelivery(deliverySender, logger),
		logger,
	)
	router := httpapi.NewRouter(handler, verifier, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("app wired",
		"storage", cfg.StorageDriver,
		"cache_enabled", cfg.CacheEnabled,
		"lock_backend", cfg.LockBackend,
		"identity", cfg.IdentityProvider,
		"notify", cfg.NotifyDriver,
	)
	return server, cleanup.close, nil
}

func buildRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, func(context.Context) error, error) {
	if cfg.StorageDriver == config.StorageMemory {
		users := memory.NewUserRepository()
		if err := memory.SeedUserRepository(ctx, users, memory.SeedUsers(time.Now())); err != nil {
			return repositories{}, nil, fmt.Errorf("seed memory users: %w", err)
		}
		logger.Warn("memory storage in use", "reason", "STORAGE_DRIVER=memory")
		return repositories{
			games:  memory.NewGameRepository(),
			users:  users,
			admins: memory.NewAdminRepository(memory.SeedAdmins()...),
		}, func(context.Context) error { return nil }, nil
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return repositories{}, nil, err
	}
	closeDB := func(context.Context) error { return db.Close() }

	repos := repositories{
		games:  postgres.NewGameRepository(db),
		users:  postgres.NewUserRepository(db),
		admins: postgres.NewAdminRepository(db),
	}
	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL, basecache.WithMaxEntries(cfg.CacheMaxEntries))
		repos = repositories{
			games:  cache.NewGameRepository(repos.games, store),
			users:  cache.NewUserRepository(repos.users, store),
			admins: cache.NewAdminRepository(repos.admins, store),
		}
	}
	return repos, closeDB, nil
}

func openDatabase(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := pgdsn.Normalize(cfg.DBURL, pgdsn.Options{BinaryParameters: !cfg.DBDisablePreparedBinary})
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(pgdsn.DatabaseName(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func buildLocker(ctx context.Context, cfg config.Config, logger *logging.Logger) (usecase.Locker, func(context.Context) error, error) {
	if cfg.LockBackend != config.LockRedis {
		return lock.NewKeyedMutex(cfg.LockWaitTimeout), func(context.Context) error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	locker := redislock.New(client, redislock.Options{
		TTL:         cfg.LockTTL,
		WaitTimeout: cfg.LockWaitTimeout,
	}, logger)
	return locker, func(context.Context) error { return client.Close() }, nil
}

func buildIdentityVerifier(cfg config.Config, logger *logging.Logger) (user.IdentityVerifier, error) {
	if cfg.IdentityProvider == config.IdentityJWT {
		verifier, err := jwtauth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
		if err != nil {
			return nil, fmt.Errorf("build jwt verifier: %w", err)
		}
		return verifier, nil
	}

	client, err := anubis.NewClient(
		tracedHTTPClient(cfg.AnubisTimeout),
		anubis.Options{
			BaseURL:        cfg.AnubisBaseURL,
			IntrospectPath: cfg.AnubisIntrospectURL,
			AdminKey:       cfg.AnubisAdminKey,
			CacheTTL:       cfg.AnubisCacheTTL,
			CircuitBreaker: breakerConfig(cfg.AnubisCircuit, logger),
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("build anubis client: %w", err)
	}
	return client, nil
}

// buildNotificationSenders returns the sender used by workflows and the one
// used by the delivery callback. They differ only when QStash queues mail.
func buildNotificationSenders(cfg config.Config, logger *logging.Logger) (notification.Sender, notification.Sender, error) {
	switch cfg.NotifyDriver {
	case config.NotifyMailerSend:
		sender, err := newMailerSend(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return sender, sender, nil
	case config.NotifyQStash:
		delivery, err := newMailerSend(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		publisher := jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			CircuitBreaker:   breakerConfig(cfg.QStashCircuit, logger),
		}, tracedHTTPClient(10*time.Second), logger)
		return jobqueue.NewNotificationSender(publisher), delivery, nil
	default:
		sender := logmail.NewSender(logger)
		return sender, sender, nil
	}
}

func newMailerSend(cfg config.Config, logger *logging.Logger) (*mailersend.Sender, error) {
	sender, err := mailersend.NewSender(mailersend.Config{
		BaseURL:        cfg.MailerSendBaseURL,
		Token:          cfg.MailerSendToken,
		FromEmail:      cfg.MailerSendFromEmail,
		FromName:       cfg.MailerSendFromName,
		Timeout:        cfg.MailerSendTimeout,
		CircuitBreaker: breakerConfig(cfg.MailerSendCircuit, logger),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build mailersend sender: %w", err)
	}
	return sender, nil
}

func tracedHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func breakerConfig(c config.CircuitConfig, logger *logging.Logger) resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		Enabled:          c.Enabled,
		FailureThreshold: c.FailureThreshold,
		OpenTimeout:      c.OpenTimeout,
		HalfOpenMaxReq:   c.HalfOpenMaxReq,
		OnStateChange: func(name string, from, to resilience.CircuitState) {
			if to == resilience.CircuitStateOpen {
				logger.Warn("circuit breaker opened", "dependency", name, "from", string(from))
				return
			}
			logger.Info("circuit breaker state changed", "dependency", name, "from", string(from), "to", string(to))
		},
	}
}
