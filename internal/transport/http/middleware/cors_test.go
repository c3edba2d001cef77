package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newCORSRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(CORS(origins))
	router.GET("/tampil", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestCORSWildcardAllowsAnyOrigin(t *testing.T) {
	router := newCORSRouter([]string{"*"})

	req := httptest.NewRequest(http.MethodGet, "/tampil", nil)
	req.Header.Set("Origin", "http://frontend.local")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Fatalf("wildcard must not allow credentials, got %q", got)
	}
}

func TestCORSEchoesListedOrigin(t *testing.T) {
	router := newCORSRouter([]string{"http://frontend.local"})

	req := httptest.NewRequest(http.MethodGet, "/tampil", nil)
	req.Header.Set("Origin", "http://frontend.local")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://frontend.local" {
		t.Fatalf("expected echoed origin, got %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("expected credentials allowed, got %q", got)
	}
	if got := rr.Header().Get("Vary"); got != "Origin" {
		t.Fatalf("expected Vary Origin, got %q", got)
	}
}

func TestCORSIgnoresUnknownOrigin(t *testing.T) {
	router := newCORSRouter([]string{"http://frontend.local"})

	req := httptest.NewRequest(http.MethodGet, "/tampil", nil)
	req.Header.Set("Origin", "http://evil.local")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin header, got %q", got)
	}
	if rr.Code != http.StatusOK {
		t.Fatalf("expected request to proceed, got %d", rr.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newCORSRouter([]string{"*"})

	req := httptest.NewRequest(http.MethodOptions, "/tampil", nil)
	req.Header.Set("Origin", "http://frontend.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Headers"); got != corsAllowHeaders {
		t.Fatalf("unexpected allow headers %q", got)
	}
}
