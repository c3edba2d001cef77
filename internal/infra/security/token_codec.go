package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"

	"github.com/arklim/guestbook-api/internal/core/domain"
	"github.com/arklim/guestbook-api/internal/core/port"
)

var (
	// ErrTokenExpired indicates the token verified but its exp claim has passed.
	ErrTokenExpired = errors.New("token: expired")
	// ErrTokenMalformed indicates the token could not be decoded or lacks required claims.
	ErrTokenMalformed = errors.New("token: malformed")
	// ErrTokenSignature indicates the signature or algorithm did not match the configured secret.
	ErrTokenSignature = errors.New("token: signature invalid")
)

// signingMethod is the only algorithm the codec issues or accepts.
var signingMethod = jwt.SigningMethodHS256

const minSecretLength = 8

// SessionClaims is the payload carried by session tokens. The subject lives in the
// "user" claim so tokens stay readable by older clients.
type SessionClaims struct {
	User string `json:"user"`
	jwt.RegisteredClaims
}

// HMACTokenCodec issues and verifies HS256 session tokens.
type HMACTokenCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewHMACTokenCodec builds a codec bound to the supplied signing secret.
// An empty issuer disables issuer validation.
func NewHMACTokenCodec(secret, issuer string) (*HMACTokenCodec, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("token: secret must be at least %d bytes", minSecretLength)
	}

	return &HMACTokenCodec{
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock overrides the internal clock for deterministic testing.
func (c *HMACTokenCodec) WithClock(clock func() time.Time) *HMACTokenCodec {
	if clock != nil {
		c.now = clock
	}
	return c
}

// Issue signs a token for subject that expires lifetime from now.
func (c *HMACTokenCodec) Issue(subject domain.Identity, lifetime time.Duration) (domain.IssuedToken, error) {
	if subject.IsZero() {
		return domain.IssuedToken{}, fmt.Errorf("token: subject is required")
	}
	if lifetime <= 0 {
		return domain.IssuedToken{}, fmt.Errorf("token: lifetime must be positive")
	}

	now := c.now().UTC()
	claims := SessionClaims{
		User: subject.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(c.secret)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("token: sign: %w", err)
	}

	return domain.IssuedToken{
		ID:        claims.ID,
		Value:     signed,
		Subject:   subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Verify checks signature and expiry and returns the embedded subject.
func (c *HMACTokenCodec) Verify(token string) (domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrTokenMalformed
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	}, opts...)
	if err != nil {
		return "", classifyParseError(err)
	}

	if parsed == nil || !parsed.Valid {
		return "", ErrTokenMalformed
	}

	subject := domain.Identity(strings.TrimSpace(claims.User))
	if subject.IsZero() {
		return "", fmt.Errorf("%w: missing user claim", ErrTokenMalformed)
	}

	return subject, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrTokenSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

var _ port.TokenCodec = (*HMACTokenCodec)(nil)
