package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/arklim/guestbook-api/internal/core/domain"
	"github.com/arklim/guestbook-api/internal/core/port"
	"github.com/arklim/guestbook-api/internal/infra/logger"
)

// CreateGuestInput is the client-supplied part of a guest record.
type CreateGuestInput struct {
	Name  string
	Phone *string
}

// GuestService stores and lists guest-book records on behalf of an authenticated identity.
type GuestService struct {
	guests port.GuestRepository
	events port.EventPublisher
	logger *zap.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewGuestService constructs a GuestService.
func NewGuestService(guests port.GuestRepository, events port.EventPublisher, log *zap.Logger) *GuestService {
	if log == nil {
		log = zap.NewNop()
	}
	return &GuestService{
		guests: guests,
		events: events,
		logger: log,
		tracer: otel.Tracer(tracerName),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *GuestService) WithClock(clock func() time.Time) *GuestService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Create validates input and persists it as a guest created by actor.
func (s *GuestService) Create(ctx context.Context, actor domain.Identity, input CreateGuestInput) (domain.Guest, error) {
	guest, err := normalizeGuest(input)
	if err != nil {
		return domain.Guest{}, err
	}
	guest.CreatedBy = actor
	guest.CreatedAt = s.now()

	ctx, span := s.tracer.Start(ctx, "GuestService.Create")
	defer span.End()

	created, err := s.guests.Create(ctx, guest)
	if err != nil {
		span.RecordError(err)
		return domain.Guest{}, fmt.Errorf("create guest: %w", err)
	}
	span.SetAttributes(attribute.Int64("guest.id", created.ID))

	fields := []zap.Field{
		zap.Int64("guest_id", created.ID),
		zap.String("created_by", actor.String()),
	}
	if created.Phone != nil {
		fields = append(fields, zap.String("telepon", logger.MaskPhone(*created.Phone)))
	}
	s.logger.Info("guest created", fields...)

	if s.events != nil {
		event := domain.GuestCreatedEvent{
			EventID:   uuid.NewString(),
			GuestID:   created.ID,
			Name:      created.Name,
			HasPhone:  created.Phone != nil,
			CreatedBy: actor,
			CreatedAt: created.CreatedAt,
		}
		if err := s.events.PublishGuestCreated(ctx, event); err != nil {
			s.logger.Warn("failed to publish guest created event", zap.Error(err))
		}
	}

	return created, nil
}

// List returns every guest, newest first.
func (s *GuestService) List(ctx context.Context) ([]domain.Guest, error) {
	ctx, span := s.tracer.Start(ctx, "GuestService.List")
	defer span.End()

	guests, err := s.guests.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list guests: %w", err)
	}
	span.SetAttributes(attribute.Int("guest.count", len(guests)))
	return guests, nil
}

func normalizeGuest(input CreateGuestInput) (domain.Guest, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Guest{}, ErrGuestNameRequired
	}
	if utf8.RuneCountInString(name) > domain.GuestNameMaxLength {
		return domain.Guest{}, ErrGuestNameTooLong
	}

	guest := domain.Guest{Name: name}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if utf8.RuneCountInString(phone) > domain.GuestPhoneMaxLength {
			return domain.Guest{}, ErrGuestPhoneTooLong
		}
		if phone != "" {
			guest.Phone = &phone
		}
	}
	return guest, nil
}
