package security

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/arklim/guestbook-api/internal/core/domain"
	"github.com/arklim/guestbook-api/internal/core/port"
)

// AdminCredentialVerifier checks logins against the single configured administrative account.
// The password is only ever held as an Argon2id hash.
type AdminCredentialVerifier struct {
	username     string
	passwordHash string
	identity     domain.Identity
}

// AdminCredentialOptions configures NewAdminCredentialVerifier. PasswordHash wins over Password.
type AdminCredentialOptions struct {
	Username     string
	Password     string
	PasswordHash string
	Hasher       *Argon2Hasher
}

// NewAdminCredentialVerifier builds the verifier, hashing a plaintext password when no hash is supplied.
func NewAdminCredentialVerifier(opts AdminCredentialOptions) (*AdminCredentialVerifier, error) {
	username := strings.TrimSpace(opts.Username)
	if username == "" {
		return nil, fmt.Errorf("admin credential: username is required")
	}

	hash := strings.TrimSpace(opts.PasswordHash)
	if hash != "" {
		if _, _, _, err := decodeArgon2Hash(hash); err != nil {
			return nil, fmt.Errorf("admin credential: %w", err)
		}
	} else {
		if opts.Password == "" {
			return nil, fmt.Errorf("admin credential: password or password hash is required")
		}
		hasher := opts.Hasher
		if hasher == nil {
			var err error
			if hasher, err = NewArgon2Hasher(DefaultArgon2Config()); err != nil {
				return nil, err
			}
		}
		encoded, err := hasher.Hash(opts.Password)
		if err != nil {
			return nil, fmt.Errorf("admin credential: %w", err)
		}
		hash = encoded
	}

	return &AdminCredentialVerifier{
		username:     username,
		passwordHash: hash,
		identity:     domain.Identity(username),
	}, nil
}

// Verify reports whether credentials match the administrative account.
// The password hash is always evaluated so response timing does not reveal the username.
func (v *AdminCredentialVerifier) Verify(_ context.Context, credentials domain.Credentials) (domain.Identity, bool, error) {
	usernameOK := subtle.ConstantTimeCompare([]byte(credentials.Username), []byte(v.username)) == 1

	passwordOK, err := VerifyPassword(credentials.Password, v.passwordHash)
	if err != nil {
		return "", false, fmt.Errorf("admin credential: verify password: %w", err)
	}

	if !usernameOK || !passwordOK {
		return "", false, nil
	}

	return v.identity, true, nil
}

var _ port.CredentialVerifier = (*AdminCredentialVerifier)(nil)
