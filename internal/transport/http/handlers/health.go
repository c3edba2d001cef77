package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	indexBanner          = "<h1>Backend API is Running!</h1>"
	defaultCheckTimeout  = 2 * time.Second
	readinessStatusOK    = "ok"
	readinessStatusError = "unavailable"
)

// ReadinessCheck probes one dependency.
type ReadinessCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// HealthHandler exposes liveness and readiness information.
type HealthHandler struct {
	startedAt time.Time
	checks    []ReadinessCheck
	timeout   time.Duration
}

// NewHealthHandler builds a new health handler instance.
func NewHealthHandler(checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{
		startedAt: time.Now().UTC(),
		checks:    checks,
		timeout:   defaultCheckTimeout,
	}
}

// RegisterRoutes binds the banner and probe routes.
func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.Index)
	r.GET("/health", h.Status)
	r.GET("/readyz", h.Ready)
}

func (h *HealthHandler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexBanner))
}

// Status reports liveness only.
func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: readinessStatusOK})
}

// Ready runs every dependency probe concurrently and fails if any of them fails.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, check := range h.checks {
		if check.Probe == nil {
			continue
		}
		wg.Add(1)
		go func(check ReadinessCheck) {
			defer wg.Done()
			status := readinessStatusOK
			if err := check.Probe(ctx); err != nil {
				status = readinessStatusError
			}
			mu.Lock()
			results[check.Name] = status
			mu.Unlock()
		}(check)
	}
	wg.Wait()

	resp := ReadinessResponse{
		Status:    readinessStatusOK,
		Checks:    results,
		StartedAt: h.startedAt,
	}
	code := http.StatusOK
	for _, status := range results {
		if status != readinessStatusOK {
			resp.Status = readinessStatusError
			code = http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(code, resp)
}
