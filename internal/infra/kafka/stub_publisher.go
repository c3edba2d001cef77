package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/guestbook-api/internal/core/domain"
	"github.com/arklim/guestbook-api/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Used when no brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
	prefix string
}

// NewStubPublisher constructs a log-only event publisher.
func NewStubPublisher(topicPrefix string, logger *zap.Logger) *StubPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubPublisher{logger: logger, prefix: topicPrefix}
}

func (p *StubPublisher) logEvent(eventType string, subject domain.Identity, at time.Time, fields ...zap.Field) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	if p.prefix != "" {
		eventType = p.prefix + "." + eventType
	}

	base := []zap.Field{
		zap.String("event_type", eventType),
		zap.String("subject", subject.String()),
		zap.Time("timestamp", at.UTC()),
	}
	p.logger.Info("Stub event published", append(base, fields...)...)
}

func (p *StubPublisher) PublishSessionLoggedIn(_ context.Context, event domain.SessionLoggedInEvent) error {
	p.logEvent(EventSessionLoggedIn, event.Subject, event.IssuedAt,
		zap.String("token_id", event.TokenID),
		zap.Time("expires_at", event.ExpiresAt),
	)
	return nil
}

func (p *StubPublisher) PublishSessionLoggedOut(_ context.Context, event domain.SessionLoggedOutEvent) error {
	p.logEvent(EventSessionLoggedOut, event.Subject, event.LoggedOutAt,
		zap.Time("revoked_until", event.RevokedUntil),
	)
	return nil
}

func (p *StubPublisher) PublishGuestCreated(_ context.Context, event domain.GuestCreatedEvent) error {
	p.logEvent(EventGuestCreated, event.CreatedBy, event.CreatedAt,
		zap.Int64("guest_id", event.GuestID),
		zap.Bool("has_phone", event.HasPhone),
	)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
