package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/arklim/guestbook-api/internal/core/port"
	"github.com/arklim/guestbook-api/internal/infra/config"
	"github.com/arklim/guestbook-api/internal/infra/database"
	kafkainfra "github.com/arklim/guestbook-api/internal/infra/kafka"
	"github.com/arklim/guestbook-api/internal/infra/logger"
	redisinfra "github.com/arklim/guestbook-api/internal/infra/redis"
	"github.com/arklim/guestbook-api/internal/infra/security"
	"github.com/arklim/guestbook-api/internal/infra/telemetry"
	postgresrepo "github.com/arklim/guestbook-api/internal/repository/postgres"
	redisrepo "github.com/arklim/guestbook-api/internal/repository/redis"
	"github.com/arklim/guestbook-api/internal/transport/http/middleware"
	"github.com/arklim/guestbook-api/internal/transport/http/routes"
	"github.com/arklim/guestbook-api/internal/usecase"
)

const (
	shutdownTimeout    = 10 * time.Second
	rateLimitKeyPrefix = "guestbook:rate-limit"
	metricsNamespace   = "guestbook"
)

type Application struct {
	cfg         *config.AppConfig
	engine      *gin.Engine
	logger      *zap.Logger
	pool        *pgxpool.Pool
	redis       *redisinfra.Client
	producer    *kafkainfra.Producer
	tracer      *telemetry.TracerProvider
	revocations *security.RevocationCache
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &Application{cfg: cfg, logger: log}
	ok := false
	defer func() {
		if !ok {
			a.close(context.Background())
		}
	}()

	if a.tracer, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log); err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	if cfg.Postgres.MigrateOnStart {
		if err := migrateUp(database.ConnString(cfg.Postgres), log); err != nil {
			return nil, err
		}
	}

	if a.pool, err = database.NewPostgresPool(ctx, cfg.Postgres, log); err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	var (
		revocations    port.RevocationStore
		rateLimitStore port.RateLimitStore
	)
	switch cfg.Revocation.Backend {
	case config.RevocationBackendMemory:
		a.revocations = security.NewRevocationCache(security.RevocationCacheOptions{MaxEntries: cfg.Revocation.MaxEntries})
		revocations = a.revocations
		log.Warn("using in-memory revocation store, logouts are not shared between instances")
	default:
		if a.redis, err = redisinfra.NewClient(ctx, cfg.Redis, log); err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		revocations = redisrepo.NewRevocationRepository(a.redis.Client(), cfg.Revocation.KeyPrefix, cfg.Revocation.Timeout)
		rateLimitStore = redisrepo.NewRateLimitRepository(a.redis.Client(), rateLimitKeyPrefix)
	}

	events := a.newEventPublisher(cfg, log)

	codec, err := security.NewHMACTokenCodec(cfg.JWT.Secret, cfg.App.Name)
	if err != nil {
		return nil, fmt.Errorf("init token codec: %w", err)
	}

	hasher, err := security.NewArgon2Hasher(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	if err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	credentials, err := security.NewAdminCredentialVerifier(security.AdminCredentialOptions{
		Username:     cfg.Admin.Username,
		Password:     cfg.Admin.Password,
		PasswordHash: cfg.Admin.PasswordHash,
		Hasher:       hasher,
	})
	if err != nil {
		return nil, fmt.Errorf("init admin credential: %w", err)
	}

	repos := postgresrepo.NewRepositories(a.pool)

	sessions := usecase.NewSessionService(credentials, codec, revocations, events, usecase.SessionOptions{
		TokenLifetime: cfg.JWT.TokenTTL,
		StoreTimeout:  cfg.Revocation.Timeout,
	}, log)
	guests := usecase.NewGuestService(repos.Guests, events, log)
	guard := usecase.NewAuthGuard(codec, revocations, cfg.Revocation.Timeout, log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{
		Registerer: registry,
		Namespace:  metricsNamespace,
	})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}
	authMetrics, err := middleware.NewAuthMetrics(registry, metricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("init auth metrics: %w", err)
	}

	var rateLimiter *middleware.RateLimiter
	if rateLimitStore != nil {
		rateLimiter = middleware.NewRateLimiter(rateLimitStore, log)
	}

	deps := routes.Dependencies{
		Config:         cfg,
		Logger:         log,
		RateLimiter:    rateLimiter,
		HTTPMetrics:    httpMetrics,
		AuthMetrics:    authMetrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		TracerProvider: a.tracer.Provider(),
		Propagator:     otel.GetTextMapPropagator(),
		Database:       a.pool,
		Services: routes.ServiceSet{
			Sessions:   sessions,
			Guests:     guests,
			Authorizer: guard,
		},
	}
	if a.redis != nil {
		deps.Cache = a.redis
	}
	a.engine = routes.Register(deps)

	ok = true
	return a, nil
}

func (a *Application) newEventPublisher(cfg *config.AppConfig, log *zap.Logger) port.EventPublisher {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("kafka brokers not configured, using stub publisher")
		return kafkainfra.NewStubPublisher(cfg.Kafka.TopicPrefix, log)
	}

	producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
	if err != nil {
		log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
		return kafkainfra.NewStubPublisher(cfg.Kafka.TopicPrefix, log)
	}

	a.producer = producer
	log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	return kafkainfra.NewEventPublisher(producer, cfg.App, log)
}

func migrateUp(dsn string, log *zap.Logger) error {
	migrator, err := database.NewMigrator(dsn, log)
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}
	defer func() {
		_ = migrator.Close()
	}()

	if _, err := migrator.Up(0); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Handler exposes the HTTP engine, mainly for tests.
func (a *Application) Handler() http.Handler {
	return a.engine
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.close(context.Background())

	if a.revocations != nil {
		go a.revocations.Run(ctx, a.cfg.Revocation.PruneInterval)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting guestbook API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
		zap.String("revocation_backend", a.cfg.Revocation.Backend),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received, draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}

// close releases every dependency that was opened, in reverse order of construction.
func (a *Application) close(ctx context.Context) {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("failed to close kafka producer", zap.Error(err))
		}
		a.producer = nil
	}
	if a.redis != nil {
		_ = a.redis.Close()
		a.redis = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Warn("failed to shutdown tracer provider", zap.Error(err))
		}
		a.tracer = nil
	}
}
