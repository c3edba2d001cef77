package domain

import "time"

// SessionLoggedInEvent represents the payload for guestbook.session.logged_in messages.
type SessionLoggedInEvent struct {
	EventID   string
	Subject   Identity
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	IPAddress *string
}

// SessionLoggedOutEvent represents the payload for guestbook.session.logged_out messages.
type SessionLoggedOutEvent struct {
	EventID      string
	Subject      Identity
	LoggedOutAt  time.Time
	RevokedUntil time.Time
	IPAddress    *string
}

// GuestCreatedEvent represents the payload for guestbook.guest.created messages.
type GuestCreatedEvent struct {
	EventID   string
	GuestID   int64
	Name      string
	HasPhone  bool
	CreatedBy Identity
	CreatedAt time.Time
}
