package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/arklim/guestbook-api/internal/core/domain"
	"github.com/arklim/guestbook-api/internal/usecase"
)

type stubAuthorizer struct {
	identity domain.Identity
	err      error
	tokens   []string
}

func (s *stubAuthorizer) Authorize(ctx context.Context, token string) (domain.Identity, error) {
	s.tokens = append(s.tokens, token)
	if s.err != nil {
		return "", s.err
	}
	return s.identity, nil
}

func newAuthRouter(authorizer Authorizer, metrics *AuthMetrics) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(EnrichContext())
	router.GET("/private", RequireAuth(authorizer, metrics), Protected(func(c *gin.Context, identity domain.Identity) {
		token, _ := GetBearerToken(c)
		c.JSON(http.StatusOK, gin.H{"identity": identity.String(), "token": token})
	}))
	return router
}

func decodeErrorResponse(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body %q: %v", rr.Body.String(), err)
	}
	return body
}

func TestRequireAuthPassesIdentityToHandler(t *testing.T) {
	authorizer := &stubAuthorizer{identity: domain.AdminIdentity}
	router := newAuthRouter(authorizer, nil)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["identity"] != "admin" || body["token"] != "abc.def.ghi" {
		t.Fatalf("unexpected body %v", body)
	}
	if len(authorizer.tokens) != 1 || authorizer.tokens[0] != "abc.def.ghi" {
		t.Fatalf("authorizer saw %v", authorizer.tokens)
	}
}

func TestRequireAuthAcceptsLowercaseScheme(t *testing.T) {
	router := newAuthRouter(&stubAuthorizer{identity: domain.AdminIdentity}, nil)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "bearer abc")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRequireAuthRejectsMalformedHeaders(t *testing.T) {
	headers := []string{"", "Bearer", "abc.def.ghi", "Basic abc", "Bearer a b", "Token abc"}

	for _, header := range headers {
		t.Run(fmt.Sprintf("header=%q", header), func(t *testing.T) {
			authorizer := &stubAuthorizer{identity: domain.AdminIdentity}
			router := newAuthRouter(authorizer, nil)

			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
			body := decodeErrorResponse(t, rr)
			if body.Message != MessageMissingToken {
				t.Fatalf("expected %q, got %q", MessageMissingToken, body.Message)
			}
			if body.TraceID == "" {
				t.Fatalf("expected trace id in error body")
			}
			if len(authorizer.tokens) != 0 {
				t.Fatalf("authorizer must not be consulted, saw %v", authorizer.tokens)
			}
		})
	}
}

func TestRequireAuthMapsAuthorizerErrors(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{fmt.Errorf("check: %w", usecase.ErrTokenRevoked), http.StatusUnauthorized, MessageRevokedToken},
		{fmt.Errorf("verify: %w", usecase.ErrTokenExpired), http.StatusUnauthorized, MessageExpiredToken},
		{fmt.Errorf("verify: %w", usecase.ErrTokenInvalid), http.StatusUnauthorized, MessageInvalidToken},
		{fmt.Errorf("check: %w", usecase.ErrRevocationStoreUnavailable), http.StatusServiceUnavailable, MessageStoreUnavailable},
		{errors.New("boom"), http.StatusInternalServerError, MessageInternalError},
	}

	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			router := newAuthRouter(&stubAuthorizer{err: tc.err}, nil)

			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			req.Header.Set("Authorization", "Bearer token_palsu_123")
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			if body := decodeErrorResponse(t, rr); body.Message != tc.message {
				t.Fatalf("expected %q, got %q", tc.message, body.Message)
			}

			retryAfter := rr.Header().Get("Retry-After")
			if tc.status == http.StatusServiceUnavailable && retryAfter != "5" {
				t.Fatalf("expected Retry-After 5, got %q", retryAfter)
			}
			if tc.status != http.StatusServiceUnavailable && retryAfter != "" {
				t.Fatalf("unexpected Retry-After %q", retryAfter)
			}
		})
	}
}

func TestProtectedRejectsWithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	called := false
	router := gin.New()
	router.GET("/private", Protected(func(c *gin.Context, identity domain.Identity) {
		called = true
	}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/private", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if called {
		t.Fatalf("handler must not run without identity")
	}
}

func TestRequireAuthRecordsDecisions(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics, err := NewAuthMetrics(registry, "")
	if err != nil {
		t.Fatalf("NewAuthMetrics: %v", err)
	}

	authorizer := &stubAuthorizer{identity: domain.AdminIdentity}
	router := newAuthRouter(authorizer, metrics)

	ok := httptest.NewRequest(http.MethodGet, "/private", nil)
	ok.Header.Set("Authorization", "Bearer good")
	router.ServeHTTP(httptest.NewRecorder(), ok)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/private", nil))

	authorizer.err = usecase.ErrTokenRevoked
	revoked := httptest.NewRequest(http.MethodGet, "/private", nil)
	revoked.Header.Set("Authorization", "Bearer old")
	router.ServeHTTP(httptest.NewRecorder(), revoked)

	for outcome, want := range map[string]float64{"authorized": 1, "missing": 1, "revoked": 1, "expired": 0} {
		if got := testutil.ToFloat64(metrics.Decisions.WithLabelValues(outcome)); got != want {
			t.Fatalf("outcome %s: expected %v, got %v", outcome, want, got)
		}
	}
}
