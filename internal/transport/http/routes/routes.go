package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/arklim/guestbook-api/internal/infra/config"
	"github.com/arklim/guestbook-api/internal/transport/http/handlers"
	"github.com/arklim/guestbook-api/internal/transport/http/middleware"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Sessions   handlers.SessionManager
	Guests     handlers.GuestManager
	Authorizer middleware.Authorizer
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config         *config.AppConfig
	Logger         *zap.Logger
	RateLimiter    *middleware.RateLimiter
	Services       ServiceSet
	HTTPMetrics    *middleware.HTTPMetrics
	AuthMetrics    *middleware.AuthMetrics
	MetricsHandler http.Handler
	TracerProvider trace.TracerProvider
	Propagator     propagation.TextMapPropagator
	Database       DatabaseChecker
	Cache          CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config != nil && deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Tracing(deps.TracerProvider, deps.Propagator))
	r.Use(middleware.RequestID())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(deps.HTTPMetrics.Handler())
	r.Use(middleware.CORS(allowedOrigins(deps.Config)))

	checks := make([]handlers.ReadinessCheck, 0, 2)
	if deps.Database != nil {
		checks = append(checks, handlers.ReadinessCheck{Name: "postgres", Probe: deps.Database.Ping})
	}
	if deps.Cache != nil {
		checks = append(checks, handlers.ReadinessCheck{Name: "redis", Probe: deps.Cache.HealthCheck})
	}
	handlers.NewHealthHandler(checks...).RegisterRoutes(r)

	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.GET("/metrics", gin.WrapH(metricsHandler))

	authHandler := handlers.NewAuthHandler(deps.Services.Sessions, deps.Services.Authorizer, deps.AuthMetrics)
	authHandler.RegisterRoutes(r, buildLoginMiddlewares(deps)...)

	guestHandler := handlers.NewGuestHandler(deps.Services.Guests, deps.Services.Authorizer, deps.AuthMetrics)
	guestHandler.RegisterRoutes(r)

	return r
}

func allowedOrigins(cfg *config.AppConfig) []string {
	if cfg == nil || len(cfg.CORS.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORS.AllowedOrigins
}

func buildLoginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.LoginMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       "login_ip",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
