package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arklim/guestbook-api/internal/transport/http/middleware"
)

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

type errorBody func(c *gin.Context, message string) any

// RespondWithMappedError resolves the provided error against known cases or falls back to a generic response.
// The body uses the "error" key.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	respondMapped(c, err, cases, fallbackStatus, fallbackMessage, func(c *gin.Context, message string) any {
		return NewErrorResponse(c, message)
	})
}

// RespondWithMappedMessage behaves like RespondWithMappedError but uses the "message" key.
func RespondWithMappedMessage(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	respondMapped(c, err, cases, fallbackStatus, fallbackMessage, func(c *gin.Context, message string) any {
		return middleware.NewErrorResponse(c, message)
	})
}

func respondMapped(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string, body errorBody) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	status, message := fallbackStatus, fallbackMessage
	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			status, message = cs.Status, cs.Message
			break
		}
	}

	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", strconv.Itoa(middleware.StoreRetryAfterSeconds))
	}

	c.JSON(status, body(c, message))
}
