package usecase

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingToken indicates the request carried no usable bearer token.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrTokenRevoked indicates the token was logged out before it expired.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrTokenExpired indicates the token signature is valid but its lifetime has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid indicates the token is malformed, forged or signed with another algorithm.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrUnauthorized indicates the supplied credentials were rejected.
	ErrUnauthorized = errors.New("invalid credentials")
	// ErrValidation indicates the request payload failed validation.
	ErrValidation = errors.New("validation failed")
	// ErrRevocationStoreUnavailable indicates the revocation store could not be reached in time.
	ErrRevocationStoreUnavailable = errors.New("revocation store unavailable")
)

var (
	ErrGuestNameRequired = fmt.Errorf("%w: nama is required", ErrValidation)
	ErrGuestNameTooLong  = fmt.Errorf("%w: nama is too long", ErrValidation)
	ErrGuestPhoneTooLong = fmt.Errorf("%w: telepon is too long", ErrValidation)
)
