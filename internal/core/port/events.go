package port

import (
	"context"

	"github.com/arklim/guestbook-api/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishSessionLoggedIn(ctx context.Context, event domain.SessionLoggedInEvent) error
	PublishSessionLoggedOut(ctx context.Context, event domain.SessionLoggedOutEvent) error
	PublishGuestCreated(ctx context.Context, event domain.GuestCreatedEvent) error
}
