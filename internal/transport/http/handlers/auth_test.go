package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arklim/guestbook-api/internal/core/domain"
	"github.com/arklim/guestbook-api/internal/transport/http/middleware"
	"github.com/arklim/guestbook-api/internal/usecase"
)

func serveAuth(sessions SessionManager, method, path, body, authorization string) *httptest.ResponseRecorder {
	router := newTestEngine()
	NewAuthHandler(sessions, acceptingAuthorizer{}, nil).RegisterRoutes(router)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestLoginReturnsToken(t *testing.T) {
	expires := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	sessions := &stubSessionManager{issued: domain.IssuedToken{Value: "signed.jwt.value", ExpiresAt: expires}}

	rr := serveAuth(sessions, http.MethodPost, "/login", `{"username":"admin","password":"123"}`, "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token != "signed.jwt.value" {
		t.Fatalf("unexpected token %q", resp.Token)
	}
	if resp.ExpiresAt == nil || !resp.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected expires_at %v", resp.ExpiresAt)
	}
	if len(sessions.credentials) != 1 || sessions.credentials[0].Username != "admin" || sessions.credentials[0].Password != "123" {
		t.Fatalf("unexpected credentials %+v", sessions.credentials)
	}
}

func TestLoginRejectsWrongCredentials(t *testing.T) {
	sessions := &stubSessionManager{loginErr: usecase.ErrUnauthorized}

	rr := serveAuth(sessions, http.MethodPost, "/login", `{"username":"admin","password":"salah"}`, "")

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	var resp middleware.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != "Login Gagal!" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	if strings.Contains(rr.Body.String(), "token\"") {
		t.Fatalf("no token expected in body %s", rr.Body.String())
	}
}

func TestLoginRejectsUnreadableBody(t *testing.T) {
	sessions := &stubSessionManager{}

	for _, body := range []string{"", "not-json", `{"username":1}`} {
		rr := serveAuth(sessions, http.MethodPost, "/login", body, "")
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("body %q: expected 401, got %d", body, rr.Code)
		}
	}
	if len(sessions.credentials) != 0 {
		t.Fatalf("session service must not be called, got %+v", sessions.credentials)
	}
}

func TestLogoutRevokesBearerToken(t *testing.T) {
	sessions := &stubSessionManager{}

	rr := serveAuth(sessions, http.MethodPost, "/logout", "", "Bearer good")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	var resp MessageResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != "User admin berhasil logout!" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	if len(sessions.loggedOut) != 1 || sessions.loggedOut[0] != "good" {
		t.Fatalf("expected token to be revoked, got %v", sessions.loggedOut)
	}
}

func TestLogoutRequiresToken(t *testing.T) {
	sessions := &stubSessionManager{}

	rr := serveAuth(sessions, http.MethodPost, "/logout", "", "")

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if len(sessions.loggedOut) != 0 {
		t.Fatalf("nothing should be revoked")
	}
}

func TestLogoutStoreUnavailable(t *testing.T) {
	sessions := &stubSessionManager{logoutErr: fmt.Errorf("%w: timeout", usecase.ErrRevocationStoreUnavailable)}

	rr := serveAuth(sessions, http.MethodPost, "/logout", "", "Bearer good")

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got == "" {
		t.Fatalf("expected Retry-After header")
	}
}
