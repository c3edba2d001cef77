package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/guestbook-api/internal/core/domain"
	"github.com/arklim/guestbook-api/internal/transport/http/middleware"
	"github.com/arklim/guestbook-api/internal/usecase"
)

const (
	messageLoginFailed       = "Login Gagal!"
	messageLoginUnavailable  = "Login sedang tidak tersedia, coba lagi nanti."
	messageLogoutUnavailable = "Logout gagal, layanan sesi sedang tidak tersedia."
)

// SessionManager is the session behaviour the auth endpoints need.
type SessionManager interface {
	Login(ctx context.Context, credentials domain.Credentials) (domain.IssuedToken, error)
	Logout(ctx context.Context, identity domain.Identity, token string) (domain.TokenRevocation, error)
}

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	sessions   SessionManager
	authorizer middleware.Authorizer
	metrics    *middleware.AuthMetrics
}

// NewAuthHandler constructs AuthHandler. authorizer guards the logout route.
func NewAuthHandler(sessions SessionManager, authorizer middleware.Authorizer, metrics *middleware.AuthMetrics) *AuthHandler {
	return &AuthHandler{
		sessions:   sessions,
		authorizer: authorizer,
		metrics:    metrics,
	}
}

// RegisterRoutes binds authentication routes, applying optional middleware ahead of the login handler.
func (h *AuthHandler) RegisterRoutes(r gin.IRoutes, loginMiddlewares ...gin.HandlerFunc) {
	chain := append([]gin.HandlerFunc{}, loginMiddlewares...)
	chain = append(chain, h.login)
	r.POST("/login", chain...)

	r.POST("/logout", middleware.RequireAuth(h.authorizer, h.metrics), middleware.Protected(h.logout))
}

var loginErrorCases = []ErrorCase{
	{Err: usecase.ErrUnauthorized, Status: http.StatusUnauthorized, Message: messageLoginFailed},
}

// login exchanges the admin credential for a bearer token.
// An unreadable body is treated like wrong credentials.
func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, middleware.NewErrorResponse(c, messageLoginFailed))
		return
	}

	issued, err := h.sessions.Login(c.Request.Context(), domain.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		RespondWithMappedMessage(c, err, loginErrorCases, http.StatusServiceUnavailable, messageLoginUnavailable)
		return
	}

	resp := LoginResponse{Token: issued.Value}
	if !issued.ExpiresAt.IsZero() {
		expiresAt := issued.ExpiresAt.UTC()
		resp.ExpiresAt = &expiresAt
	}
	c.JSON(http.StatusOK, resp)
}

var logoutErrorCases = []ErrorCase{
	{Err: usecase.ErrMissingToken, Status: http.StatusUnauthorized, Message: middleware.MessageMissingToken},
	{Err: usecase.ErrRevocationStoreUnavailable, Status: http.StatusServiceUnavailable, Message: messageLogoutUnavailable},
}

// logout revokes the bearer token that authorized this request.
func (h *AuthHandler) logout(c *gin.Context, identity domain.Identity) {
	token, _ := middleware.GetBearerToken(c)

	if _, err := h.sessions.Logout(c.Request.Context(), identity, token); err != nil {
		RespondWithMappedMessage(c, err, logoutErrorCases, http.StatusInternalServerError, middleware.MessageInternalError)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("User %s berhasil logout!", identity),
	})
}
