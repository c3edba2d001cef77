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
	messageGuestNameRequired = "Data nama wajib diisi"
	messageGuestNameTooLong  = "Data nama terlalu panjang (maksimal 100 karakter)"
	messageGuestPhoneTooLong = "Data telepon terlalu panjang (maksimal 20 karakter)"
	messageGuestStoreFailed  = "Data gagal diproses, coba lagi nanti."
)

// GuestManager is the guest-book behaviour the record endpoints need.
type GuestManager interface {
	Create(ctx context.Context, actor domain.Identity, input usecase.CreateGuestInput) (domain.Guest, error)
	List(ctx context.Context) ([]domain.Guest, error)
}

// GuestHandler exposes the guest-book record endpoints.
type GuestHandler struct {
	guests     GuestManager
	authorizer middleware.Authorizer
	metrics    *middleware.AuthMetrics
}

// NewGuestHandler constructs GuestHandler.
func NewGuestHandler(guests GuestManager, authorizer middleware.Authorizer, metrics *middleware.AuthMetrics) *GuestHandler {
	return &GuestHandler{
		guests:     guests,
		authorizer: authorizer,
		metrics:    metrics,
	}
}

// RegisterRoutes binds /simpan and /tampil behind the bearer guard.
func (h *GuestHandler) RegisterRoutes(r gin.IRoutes) {
	guard := middleware.RequireAuth(h.authorizer, h.metrics)

	r.POST("/simpan", guard, middleware.Protected(h.create))
	r.GET("/tampil", guard, middleware.Protected(h.list))
}

var createGuestErrorCases = []ErrorCase{
	{Err: usecase.ErrGuestNameRequired, Status: http.StatusBadRequest, Message: messageGuestNameRequired},
	{Err: usecase.ErrGuestNameTooLong, Status: http.StatusBadRequest, Message: messageGuestNameTooLong},
	{Err: usecase.ErrGuestPhoneTooLong, Status: http.StatusBadRequest, Message: messageGuestPhoneTooLong},
	{Err: usecase.ErrValidation, Status: http.StatusBadRequest, Message: messageGuestNameRequired},
}

func (h *GuestHandler) create(c *gin.Context, identity domain.Identity) {
	var req GuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, messageGuestNameRequired))
		return
	}

	_, err := h.guests.Create(c.Request.Context(), identity, usecase.CreateGuestInput{
		Name:  req.Nama,
		Phone: req.Telepon,
	})
	if err != nil {
		RespondWithMappedError(c, err, createGuestErrorCases, http.StatusInternalServerError, messageGuestStoreFailed)
		return
	}

	c.JSON(http.StatusOK, GuestSavedResponse{
		Pesan: fmt.Sprintf("Halo %s, data berhasil disimpan!", identity),
	})
}

func (h *GuestHandler) list(c *gin.Context, _ domain.Identity) {
	guests, err := h.guests.List(c.Request.Context())
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, messageGuestStoreFailed)
		return
	}

	c.JSON(http.StatusOK, newGuestViews(guests))
}
