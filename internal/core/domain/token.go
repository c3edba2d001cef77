package domain

import "time"

// IssuedToken describes a freshly signed session token.
type IssuedToken struct {
	ID        string
	Value     string
	Subject   Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Lifetime returns the window between issuance and expiry.
func (t IssuedToken) Lifetime() time.Duration {
	return t.ExpiresAt.Sub(t.IssuedAt)
}

// TokenRevocation records a token rejected ahead of its natural expiry.
type TokenRevocation struct {
	Token     string
	Subject   Identity
	RevokedAt time.Time
	TTL       time.Duration
}
