package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/guestbook-api/internal/core/domain"
	"github.com/arklim/guestbook-api/internal/transport/http/middleware"
	"github.com/arklim/guestbook-api/internal/usecase"
)

type stubSessionManager struct {
	issued    domain.IssuedToken
	loginErr  error
	logoutErr error

	credentials []domain.Credentials
	loggedOut   []string
}

func (s *stubSessionManager) Login(ctx context.Context, credentials domain.Credentials) (domain.IssuedToken, error) {
	s.credentials = append(s.credentials, credentials)
	if s.loginErr != nil {
		return domain.IssuedToken{}, s.loginErr
	}
	return s.issued, nil
}

func (s *stubSessionManager) Logout(ctx context.Context, identity domain.Identity, token string) (domain.TokenRevocation, error) {
	if s.logoutErr != nil {
		return domain.TokenRevocation{}, s.logoutErr
	}
	s.loggedOut = append(s.loggedOut, token)
	return domain.TokenRevocation{Token: token, Subject: identity, TTL: 24 * time.Hour}, nil
}

type stubGuestManager struct {
	guests    []domain.Guest
	createErr error
	listErr   error

	inputs []usecase.CreateGuestInput
	actors []domain.Identity
}

func (s *stubGuestManager) Create(ctx context.Context, actor domain.Identity, input usecase.CreateGuestInput) (domain.Guest, error) {
	s.actors = append(s.actors, actor)
	s.inputs = append(s.inputs, input)
	if s.createErr != nil {
		return domain.Guest{}, s.createErr
	}
	return domain.Guest{ID: 1, Name: input.Name, Phone: input.Phone, CreatedBy: actor}, nil
}

func (s *stubGuestManager) List(ctx context.Context) ([]domain.Guest, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.guests, nil
}

// acceptingAuthorizer treats "good" as the admin token and rejects everything else.
type acceptingAuthorizer struct{}

func (acceptingAuthorizer) Authorize(ctx context.Context, token string) (domain.Identity, error) {
	if token == "good" {
		return domain.AdminIdentity, nil
	}
	return "", usecase.ErrTokenInvalid
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.EnrichContext())
	return router
}
