package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/arklim/guestbook-api/internal/core/domain"
	"github.com/arklim/guestbook-api/internal/core/port"
	"github.com/arklim/guestbook-api/internal/infra/security"
)

const (
	tracerName          = "github.com/arklim/guestbook-api/internal/usecase"
	defaultStoreTimeout = 2 * time.Second
)

// AuthGuard decides whether a bearer token may reach a protected operation.
// The revocation store is consulted before the signature so a logged-out token
// is reported as revoked even though it still verifies.
type AuthGuard struct {
	codec       port.TokenCodec
	revocations port.RevocationStore
	timeout     time.Duration
	logger      *zap.Logger
	tracer      trace.Tracer
}

// NewAuthGuard constructs an AuthGuard. storeTimeout bounds each revocation lookup.
func NewAuthGuard(codec port.TokenCodec, revocations port.RevocationStore, storeTimeout time.Duration, logger *zap.Logger) *AuthGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}
	return &AuthGuard{
		codec:       codec,
		revocations: revocations,
		timeout:     storeTimeout,
		logger:      logger,
		tracer:      otel.Tracer(tracerName),
	}
}

// Authorize returns the identity bound to token or one of ErrMissingToken, ErrTokenRevoked,
// ErrTokenExpired, ErrTokenInvalid or ErrRevocationStoreUnavailable.
func (g *AuthGuard) Authorize(ctx context.Context, token string) (domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}

	ctx, span := g.tracer.Start(ctx, "AuthGuard.Authorize")
	defer span.End()

	revoked, err := g.isRevoked(ctx, token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "revocation lookup failed")
		g.logger.Error("revocation lookup failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrRevocationStoreUnavailable, err)
	}
	if revoked {
		span.SetAttributes(attribute.String("auth.decision", "revoked"))
		return "", ErrTokenRevoked
	}

	subject, err := g.codec.Verify(token)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			span.SetAttributes(attribute.String("auth.decision", "expired"))
			return "", ErrTokenExpired
		}
		span.SetAttributes(attribute.String("auth.decision", "invalid"))
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	span.SetAttributes(
		attribute.String("auth.decision", "authorized"),
		attribute.String("auth.subject", subject.String()),
	)
	return subject, nil
}

func (g *AuthGuard) isRevoked(ctx context.Context, token string) (bool, error) {
	if g.revocations == nil {
		return false, errors.New("revocation store not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	return g.revocations.Contains(ctx, token)
}
