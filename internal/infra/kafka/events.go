package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/arklim/guestbook-api/internal/core/domain"
	"github.com/arklim/guestbook-api/internal/core/port"
	"github.com/arklim/guestbook-api/internal/infra/config"
)

const schemaVersion = "1.0"

const (
	EventSessionLoggedIn  = "session.logged_in"
	EventSessionLoggedOut = "session.logged_out"
	EventGuestCreated     = "guest.created"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	Subject   string            `json:"subject,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType string, subject domain.Identity, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	if eventID == "" {
		eventID = uuid.NewString()
	}

	topic := p.producer.TopicName(eventType)
	metadata := map[string]string{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		metadata["trace_id"] = sc.TraceID().String()
	}

	bytes, err := json.Marshal(eventEnvelope{
		EventID:   eventID,
		EventType: topic,
		Subject:   subject.String(),
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(bytes),
	}
	if !subject.IsZero() {
		message.Key = sarama.StringEncoder(subject.String())
	}

	select {
	case p.producer.Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishSessionLoggedIn publishes session.logged_in events.
func (p *EventPublisher) PublishSessionLoggedIn(ctx context.Context, event domain.SessionLoggedInEvent) error {
	payload := struct {
		Subject   string    `json:"subject"`
		TokenID   string    `json:"token_id"`
		IssuedAt  time.Time `json:"issued_at"`
		ExpiresAt time.Time `json:"expires_at"`
		IPAddress *string   `json:"ip_address,omitempty"`
	}{
		Subject:   event.Subject.String(),
		TokenID:   event.TokenID,
		IssuedAt:  event.IssuedAt.UTC(),
		ExpiresAt: event.ExpiresAt.UTC(),
		IPAddress: event.IPAddress,
	}

	return p.publish(ctx, event.EventID, EventSessionLoggedIn, event.Subject, event.IssuedAt, payload)
}

// PublishSessionLoggedOut publishes session.logged_out events.
func (p *EventPublisher) PublishSessionLoggedOut(ctx context.Context, event domain.SessionLoggedOutEvent) error {
	payload := struct {
		Subject      string    `json:"subject"`
		LoggedOutAt  time.Time `json:"logged_out_at"`
		RevokedUntil time.Time `json:"revoked_until"`
		IPAddress    *string   `json:"ip_address,omitempty"`
	}{
		Subject:      event.Subject.String(),
		LoggedOutAt:  event.LoggedOutAt.UTC(),
		RevokedUntil: event.RevokedUntil.UTC(),
		IPAddress:    event.IPAddress,
	}

	return p.publish(ctx, event.EventID, EventSessionLoggedOut, event.Subject, event.LoggedOutAt, payload)
}

// PublishGuestCreated publishes guest.created events.
func (p *EventPublisher) PublishGuestCreated(ctx context.Context, event domain.GuestCreatedEvent) error {
	payload := struct {
		GuestID   int64     `json:"guest_id"`
		Name      string    `json:"nama"`
		HasPhone  bool      `json:"has_phone"`
		CreatedBy string    `json:"created_by"`
		CreatedAt time.Time `json:"created_at"`
	}{
		GuestID:   event.GuestID,
		Name:      event.Name,
		HasPhone:  event.HasPhone,
		CreatedBy: event.CreatedBy.String(),
		CreatedAt: event.CreatedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, EventGuestCreated, event.CreatedBy, event.CreatedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
