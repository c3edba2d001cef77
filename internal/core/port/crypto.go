package port

import (
	"context"
	"time"

	"github.com/arklim/guestbook-api/internal/core/domain"
)

// TokenCodec issues and verifies signed, expiring session tokens.
type TokenCodec interface {
	Issue(subject domain.Identity, lifetime time.Duration) (domain.IssuedToken, error)
	Verify(token string) (domain.Identity, error)
}

// CredentialVerifier resolves login credentials to an identity.
// ok is false for rejected credentials; err is reserved for infrastructure failures.
type CredentialVerifier interface {
	Verify(ctx context.Context, credentials domain.Credentials) (identity domain.Identity, ok bool, err error)
}
