package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/arklim/guestbook-api/internal/core/domain"
	"github.com/arklim/guestbook-api/internal/core/port"
	"github.com/arklim/guestbook-api/internal/infra/logger"
)

// DefaultTokenLifetime is the session lifetime used when none is configured.
const DefaultTokenLifetime = 24 * time.Hour

// SessionOptions tunes SessionService.
type SessionOptions struct {
	TokenLifetime time.Duration
	StoreTimeout  time.Duration
}

// SessionService implements login and logout.
type SessionService struct {
	credentials port.CredentialVerifier
	codec       port.TokenCodec
	revocations port.RevocationStore
	events      port.EventPublisher
	lifetime    time.Duration
	timeout     time.Duration
	logger      *zap.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(
	credentials port.CredentialVerifier,
	codec port.TokenCodec,
	revocations port.RevocationStore,
	events port.EventPublisher,
	opts SessionOptions,
	log *zap.Logger,
) *SessionService {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.TokenLifetime <= 0 {
		opts.TokenLifetime = DefaultTokenLifetime
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = defaultStoreTimeout
	}

	return &SessionService{
		credentials: credentials,
		codec:       codec,
		revocations: revocations,
		events:      events,
		lifetime:    opts.TokenLifetime,
		timeout:     opts.StoreTimeout,
		logger:      log,
		tracer:      otel.Tracer(tracerName),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *SessionService) WithClock(clock func() time.Time) *SessionService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// TokenLifetime returns the lifetime applied to issued tokens.
func (s *SessionService) TokenLifetime() time.Duration {
	return s.lifetime
}

// Login exchanges credentials for a session token. Rejected credentials yield ErrUnauthorized.
func (s *SessionService) Login(ctx context.Context, credentials domain.Credentials) (domain.IssuedToken, error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.Login")
	defer span.End()

	if credentials.Username == "" || credentials.Password == "" {
		return domain.IssuedToken{}, ErrUnauthorized
	}

	identity, ok, err := s.credentials.Verify(ctx, credentials)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "credential verification failed")
		return domain.IssuedToken{}, fmt.Errorf("verify credentials: %w", err)
	}
	if !ok || identity.IsZero() {
		s.logger.Info("login rejected", zap.String("username", logger.MaskString(credentials.Username)))
		return domain.IssuedToken{}, ErrUnauthorized
	}

	issued, err := s.codec.Issue(identity, s.lifetime)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token issue failed")
		return domain.IssuedToken{}, fmt.Errorf("issue token: %w", err)
	}

	span.SetAttributes(attribute.String("auth.subject", identity.String()))
	s.logger.Info("login succeeded",
		zap.String("subject", identity.String()),
		zap.String("token_id", issued.ID),
		zap.Time("expires_at", issued.ExpiresAt),
	)

	if s.events != nil {
		event := domain.SessionLoggedInEvent{
			EventID:   uuid.NewString(),
			Subject:   identity,
			TokenID:   issued.ID,
			IssuedAt:  issued.IssuedAt,
			ExpiresAt: issued.ExpiresAt,
			IPAddress: clientIPFromContext(ctx),
		}
		if err := s.events.PublishSessionLoggedIn(ctx, event); err != nil {
			s.logger.Warn("failed to publish session logged in event", zap.Error(err))
		}
	}

	return issued, nil
}

// Logout revokes token for the rest of the configured token lifetime. It either revokes
// fully or returns an error wrapping ErrRevocationStoreUnavailable.
func (s *SessionService) Logout(ctx context.Context, identity domain.Identity, token string) (domain.TokenRevocation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.TokenRevocation{}, ErrMissingToken
	}

	ctx, span := s.tracer.Start(ctx, "SessionService.Logout")
	defer span.End()

	revocation := domain.TokenRevocation{
		Token:     token,
		Subject:   identity,
		RevokedAt: s.now(),
		TTL:       s.lifetime,
	}

	if err := s.revoke(ctx, revocation); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "revocation write failed")
		s.logger.Error("logout failed", zap.String("subject", identity.String()), zap.Error(err))
		return domain.TokenRevocation{}, fmt.Errorf("%w: %v", ErrRevocationStoreUnavailable, err)
	}

	s.logger.Info("logout succeeded",
		zap.String("subject", identity.String()),
		zap.String("token", logger.MaskString(token)),
		zap.Duration("ttl", revocation.TTL),
	)

	if s.events != nil {
		event := domain.SessionLoggedOutEvent{
			EventID:      uuid.NewString(),
			Subject:      identity,
			LoggedOutAt:  revocation.RevokedAt,
			RevokedUntil: revocation.RevokedAt.Add(revocation.TTL),
			IPAddress:    clientIPFromContext(ctx),
		}
		if err := s.events.PublishSessionLoggedOut(ctx, event); err != nil {
			s.logger.Warn("failed to publish session logged out event", zap.Error(err))
		}
	}

	return revocation, nil
}

func (s *SessionService) revoke(ctx context.Context, revocation domain.TokenRevocation) error {
	if s.revocations == nil {
		return errors.New("revocation store not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.revocations.Put(ctx, revocation.Token, revocation.TTL)
}
