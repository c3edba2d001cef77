package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/arklim/guestbook-api/internal/core/domain"
)

type stubTokenCodec struct {
	subjects  map[string]domain.Identity
	verifyErr error
	issueErr  error

	verified []string
	issued   []domain.IssuedToken
}

func (s *stubTokenCodec) Issue(subject domain.Identity, lifetime time.Duration) (domain.IssuedToken, error) {
	if s.issueErr != nil {
		return domain.IssuedToken{}, s.issueErr
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	token := domain.IssuedToken{
		ID:        "jti-stub",
		Value:     "signed-" + subject.String(),
		Subject:   subject,
		IssuedAt:  now,
		ExpiresAt: now.Add(lifetime),
	}
	s.issued = append(s.issued, token)
	return token, nil
}

func (s *stubTokenCodec) Verify(token string) (domain.Identity, error) {
	s.verified = append(s.verified, token)
	if s.verifyErr != nil {
		return "", s.verifyErr
	}
	subject, ok := s.subjects[token]
	if !ok {
		return "", errors.New("unknown token")
	}
	return subject, nil
}

type stubRevocationStore struct {
	mu       sync.Mutex
	entries  map[string]time.Duration
	putErr   error
	checkErr error
	block    bool

	contains []string
}

func newStubRevocationStore() *stubRevocationStore {
	return &stubRevocationStore{entries: make(map[string]time.Duration)}
}

func (s *stubRevocationStore) Put(ctx context.Context, key string, ttl time.Duration) error {
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = ttl
	return nil
}

func (s *stubRevocationStore) Contains(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	s.contains = append(s.contains, key)
	s.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return false, ctx.Err()
	}
	if s.checkErr != nil {
		return false, s.checkErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok, nil
}

type stubCredentialVerifier struct {
	username string
	password string
	err      error
	calls    int
}

func (s *stubCredentialVerifier) Verify(_ context.Context, credentials domain.Credentials) (domain.Identity, bool, error) {
	s.calls++
	if s.err != nil {
		return "", false, s.err
	}
	if credentials.Username != s.username || credentials.Password != s.password {
		return "", false, nil
	}
	return domain.Identity(credentials.Username), true, nil
}

type stubGuestRepository struct {
	guests    []domain.Guest
	createErr error
	listErr   error
	nextID    int64
}

func (s *stubGuestRepository) Create(_ context.Context, guest domain.Guest) (domain.Guest, error) {
	if s.createErr != nil {
		return domain.Guest{}, s.createErr
	}
	s.nextID++
	guest.ID = s.nextID
	s.guests = append(s.guests, guest)
	return guest, nil
}

func (s *stubGuestRepository) List(context.Context) ([]domain.Guest, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.Guest, 0, len(s.guests))
	for i := len(s.guests) - 1; i >= 0; i-- {
		out = append(out, s.guests[i])
	}
	return out, nil
}

type stubEventPublisher struct {
	loggedIn  []domain.SessionLoggedInEvent
	loggedOut []domain.SessionLoggedOutEvent
	created   []domain.GuestCreatedEvent
	err       error
}

func (s *stubEventPublisher) PublishSessionLoggedIn(_ context.Context, event domain.SessionLoggedInEvent) error {
	s.loggedIn = append(s.loggedIn, event)
	return s.err
}

func (s *stubEventPublisher) PublishSessionLoggedOut(_ context.Context, event domain.SessionLoggedOutEvent) error {
	s.loggedOut = append(s.loggedOut, event)
	return s.err
}

func (s *stubEventPublisher) PublishGuestCreated(_ context.Context, event domain.GuestCreatedEvent) error {
	s.created = append(s.created, event)
	return s.err
}
