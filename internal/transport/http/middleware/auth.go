package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/guestbook-api/internal/core/domain"
	"github.com/arklim/guestbook-api/internal/usecase"
)

const (
	// IdentityKey is the context key for the authenticated identity.
	IdentityKey = "identity"
	// BearerTokenKey is the context key for the raw bearer token of the current request.
	BearerTokenKey = "bearer_token"

	// StoreRetryAfterSeconds is advertised when the revocation store is unavailable.
	StoreRetryAfterSeconds = 5
)

const (
	MessageMissingToken     = "Token hilang!"
	MessageRevokedToken     = "Token sudah tidak berlaku (Sudah Logout)!"
	MessageExpiredToken     = "Token kedaluwarsa!"
	MessageInvalidToken     = "Token tidak valid!"
	MessageStoreUnavailable = "Layanan sesi sedang tidak tersedia, coba lagi nanti."
	MessageInternalError    = "Terjadi kesalahan pada server."
)

// Authorizer resolves a bearer token to the identity it was issued for.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (domain.Identity, error)
}

// ErrorResponse is the body of every rejected request.
type ErrorResponse struct {
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response carrying the request's trace ID.
func NewErrorResponse(c *gin.Context, message string) ErrorResponse {
	return ErrorResponse{
		Message: message,
		TraceID: GetTraceID(c),
	}
}

// ProtectedHandlerFunc is a handler that only runs for an authenticated identity.
type ProtectedHandlerFunc func(c *gin.Context, identity domain.Identity)

// RequireAuth extracts the bearer token, asks authorizer for a decision and stores the
// identity for downstream handlers. metrics may be nil.
func RequireAuth(authorizer Authorizer, metrics *AuthMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			metrics.observe(usecase.ErrMissingToken)
			abortWithAuthError(c, usecase.ErrMissingToken)
			return
		}

		identity, err := authorizer.Authorize(c.Request.Context(), token)
		metrics.observe(err)
		if err != nil {
			if !isAuthRejection(err) {
				_ = c.Error(err)
			}
			abortWithAuthError(c, err)
			return
		}

		c.Set(IdentityKey, identity)
		c.Set(BearerTokenKey, token)
		if reqCtx := GetRequestContext(c); reqCtx != nil {
			reqCtx.Identity = identity.String()
		}

		c.Next()
	}
}

// Protected adapts h to gin, rejecting the request if no identity was stored by RequireAuth.
func Protected(h ProtectedHandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			abortWithAuthError(c, usecase.ErrMissingToken)
			return
		}
		h(c, identity)
	}
}

// GetIdentity retrieves the authenticated identity from context (helper for handlers)
func GetIdentity(c *gin.Context) (domain.Identity, bool) {
	value, exists := c.Get(IdentityKey)
	if !exists {
		return "", false
	}
	identity, ok := value.(domain.Identity)
	if !ok || identity.IsZero() {
		return "", false
	}
	return identity, true
}

// GetBearerToken retrieves the raw bearer token accepted for this request.
func GetBearerToken(c *gin.Context) (string, bool) {
	value, exists := c.Get(BearerTokenKey)
	if !exists {
		return "", false
	}
	token, ok := value.(string)
	return token, ok && token != ""
}

// bearerToken accepts exactly "Bearer <token>"; the scheme is case-insensitive.
func bearerToken(header string) (string, bool) {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", false
	}
	return fields[1], true
}

func isAuthRejection(err error) bool {
	return errors.Is(err, usecase.ErrMissingToken) ||
		errors.Is(err, usecase.ErrTokenRevoked) ||
		errors.Is(err, usecase.ErrTokenExpired) ||
		errors.Is(err, usecase.ErrTokenInvalid)
}

// AuthErrorStatus maps an authorization error to its HTTP status and message.
func AuthErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, usecase.ErrMissingToken):
		return http.StatusUnauthorized, MessageMissingToken
	case errors.Is(err, usecase.ErrTokenRevoked):
		return http.StatusUnauthorized, MessageRevokedToken
	case errors.Is(err, usecase.ErrTokenExpired):
		return http.StatusUnauthorized, MessageExpiredToken
	case errors.Is(err, usecase.ErrTokenInvalid):
		return http.StatusUnauthorized, MessageInvalidToken
	case errors.Is(err, usecase.ErrRevocationStoreUnavailable):
		return http.StatusServiceUnavailable, MessageStoreUnavailable
	default:
		return http.StatusInternalServerError, MessageInternalError
	}
}

func abortWithAuthError(c *gin.Context, err error) {
	status, message := AuthErrorStatus(err)
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", strconv.Itoa(StoreRetryAfterSeconds))
	}
	c.AbortWithStatusJSON(status, NewErrorResponse(c, message))
}
