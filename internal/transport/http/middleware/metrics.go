package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arklim/guestbook-api/internal/usecase"
)

const defaultMetricsNamespace = "guestbook"

// HTTPMetricsOptions configures the HTTP metrics middleware.
type HTTPMetricsOptions struct {
	Registerer prometheus.Registerer
	Namespace  string
	Subsystem  string
	Buckets    []float64
}

// HTTPMetrics exposes Prometheus collectors for request instrumentation.
type HTTPMetrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

// register adds c to reg, reusing an identical collector registered earlier.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return c, err
		}
		existing, ok := already.ExistingCollector.(T)
		if !ok {
			return c, fmt.Errorf("existing collector has unexpected type %T", already.ExistingCollector)
		}
		return existing, nil
	}
	return c, nil
}

// NewHTTPMetrics constructs collectors for HTTP request metrics and registers them with the provided registerer.
func NewHTTPMetrics(opts HTTPMetricsOptions) (*HTTPMetrics, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = defaultMetricsNamespace
	}

	subsystem := opts.Subsystem
	if subsystem == "" {
		subsystem = "http"
	}

	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	buckets := opts.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "requests_total",
		Help:      "Total number of HTTP requests partitioned by method, route, and status code.",
	}, []string{"method", "route", "status"}))
	if err != nil {
		return nil, fmt.Errorf("register requests collector: %w", err)
	}

	duration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of HTTP request latencies in seconds partitioned by method, route, and status code.",
		Buckets:   buckets,
	}, []string{"method", "route", "status"}))
	if err != nil {
		return nil, fmt.Errorf("register duration collector: %w", err)
	}

	inFlight, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "in_flight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	}))
	if err != nil {
		return nil, fmt.Errorf("register inflight collector: %w", err)
	}

	return &HTTPMetrics{
		Requests: requests,
		Duration: duration,
		InFlight: inFlight,
	}, nil
}

// Handler returns a Gin middleware that records the HTTP metrics.
func (m *HTTPMetrics) Handler() gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		m.InFlight.Inc()
		defer m.InFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		labels := prometheus.Labels{
			"method": c.Request.Method,
			"route":  route,
			"status": strconv.Itoa(c.Writer.Status()),
		}

		m.Requests.With(labels).Inc()
		m.Duration.With(labels).Observe(time.Since(start).Seconds())
	}
}

// AuthMetrics counts authorization decisions made by RequireAuth.
type AuthMetrics struct {
	Decisions *prometheus.CounterVec
}

// NewAuthMetrics registers the auth decision counter.
func NewAuthMetrics(reg prometheus.Registerer, namespace string) (*AuthMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = defaultMetricsNamespace
	}

	decisions, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "decisions_total",
		Help:      "Authorization decisions for protected routes partitioned by outcome.",
	}, []string{"outcome"}))
	if err != nil {
		return nil, fmt.Errorf("register auth decisions collector: %w", err)
	}

	return &AuthMetrics{Decisions: decisions}, nil
}

// AuthOutcome names the decision recorded for err.
func AuthOutcome(err error) string {
	switch {
	case err == nil:
		return "authorized"
	case errors.Is(err, usecase.ErrMissingToken):
		return "missing"
	case errors.Is(err, usecase.ErrTokenRevoked):
		return "revoked"
	case errors.Is(err, usecase.ErrTokenExpired):
		return "expired"
	case errors.Is(err, usecase.ErrTokenInvalid):
		return "invalid"
	case errors.Is(err, usecase.ErrRevocationStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}

func (m *AuthMetrics) observe(err error) {
	if m == nil || m.Decisions == nil {
		return
	}
	m.Decisions.WithLabelValues(AuthOutcome(err)).Inc()
}
