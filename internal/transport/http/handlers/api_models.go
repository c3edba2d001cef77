package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/guestbook-api/internal/core/domain"
	"github.com/arklim/guestbook-api/internal/transport/http/middleware"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: middleware.GetTraceID(c),
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// GuestRequest is the payload accepted by /simpan.
type GuestRequest struct {
	Nama    string  `json:"nama"`
	Telepon *string `json:"telepon"`
}

// GuestSavedResponse confirms a stored guest record.
type GuestSavedResponse struct {
	Pesan string `json:"pesan"`
}

// GuestView is the public shape of a guest record.
type GuestView struct {
	ID      int64   `json:"id"`
	Nama    string  `json:"nama"`
	Telepon *string `json:"telepon"`
}

func newGuestViews(guests []domain.Guest) []GuestView {
	views := make([]GuestView, 0, len(guests))
	for _, g := range guests {
		views = append(views, GuestView{
			ID:      g.ID,
			Nama:    g.Name,
			Telepon: g.Phone,
		})
	}
	return views
}

// HealthResponse is returned by the liveness probe.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse reports the state of each dependency.
type ReadinessResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	StartedAt time.Time         `json:"started_at"`
}
