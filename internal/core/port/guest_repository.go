package port

import (
	"context"

	"github.com/arklim/guestbook-api/internal/core/domain"
)

// GuestRepository persists guest-book records.
type GuestRepository interface {
	Create(ctx context.Context, guest domain.Guest) (domain.Guest, error)
	// List returns every guest, newest first.
	List(ctx context.Context) ([]domain.Guest, error)
}
