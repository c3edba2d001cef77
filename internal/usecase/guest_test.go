package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/arklim/guestbook-api/internal/core/domain"
)

func strPtr(s string) *string { return &s }

func TestGuestServiceCreate(t *testing.T) {
	repo := &stubGuestRepository{}
	events := &stubEventPublisher{}
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	svc := NewGuestService(repo, events, zaptest.NewLogger(t)).WithClock(func() time.Time { return now })

	guest, err := svc.Create(context.Background(), domain.AdminIdentity, CreateGuestInput{
		Name:  "  Budi  ",
		Phone: strPtr(" 08123456789 "),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if guest.ID != 1 || guest.Name != "Budi" {
		t.Fatalf("unexpected guest: %+v", guest)
	}
	if guest.Phone == nil || *guest.Phone != "08123456789" {
		t.Fatalf("expected trimmed phone, got %v", guest.Phone)
	}
	if guest.CreatedBy != domain.AdminIdentity || !guest.CreatedAt.Equal(now) {
		t.Fatalf("expected audit fields to be set: %+v", guest)
	}

	if len(events.created) != 1 || events.created[0].GuestID != 1 || !events.created[0].HasPhone {
		t.Fatalf("unexpected guest created events: %+v", events.created)
	}
}

func TestGuestServiceCreateWithoutPhone(t *testing.T) {
	repo := &stubGuestRepository{}
	svc := NewGuestService(repo, nil, zaptest.NewLogger(t))

	for _, phone := range []*string{nil, strPtr(""), strPtr("   ")} {
		guest, err := svc.Create(context.Background(), domain.AdminIdentity, CreateGuestInput{Name: "Siti", Phone: phone})
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		if guest.Phone != nil {
			t.Fatalf("expected empty phone to be stored as null, got %q", *guest.Phone)
		}
	}
}

func TestGuestServiceValidation(t *testing.T) {
	cases := []struct {
		name  string
		input CreateGuestInput
		want  error
	}{
		{name: "empty name", input: CreateGuestInput{Name: ""}, want: ErrGuestNameRequired},
		{name: "blank name", input: CreateGuestInput{Name: "   "}, want: ErrGuestNameRequired},
		{name: "long name", input: CreateGuestInput{Name: strings.Repeat("a", domain.GuestNameMaxLength+1)}, want: ErrGuestNameTooLong},
		{name: "long phone", input: CreateGuestInput{Name: "Budi", Phone: strPtr(strings.Repeat("1", domain.GuestPhoneMaxLength+1))}, want: ErrGuestPhoneTooLong},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubGuestRepository{}
			svc := NewGuestService(repo, nil, zaptest.NewLogger(t))

			_, err := svc.Create(context.Background(), domain.AdminIdentity, tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected error to match ErrValidation, got %v", err)
			}
			if len(repo.guests) != 0 {
				t.Fatalf("expected nothing to be stored on validation failure")
			}
		})
	}
}

func TestGuestServiceAcceptsMultibyteNamesAtLimit(t *testing.T) {
	svc := NewGuestService(&stubGuestRepository{}, nil, zaptest.NewLogger(t))

	name := strings.Repeat("é", domain.GuestNameMaxLength)
	if _, err := svc.Create(context.Background(), domain.AdminIdentity, CreateGuestInput{Name: name}); err != nil {
		t.Fatalf("expected %d characters to be accepted, got %v", domain.GuestNameMaxLength, err)
	}
}

func TestGuestServiceRepositoryErrors(t *testing.T) {
	dbErr := errors.New("db down")
	repo := &stubGuestRepository{createErr: dbErr, listErr: dbErr}
	svc := NewGuestService(repo, nil, zaptest.NewLogger(t))

	if _, err := svc.Create(context.Background(), domain.AdminIdentity, CreateGuestInput{Name: "Budi"}); !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
	if _, err := svc.List(context.Background()); !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
}

func TestGuestServiceListNewestFirst(t *testing.T) {
	repo := &stubGuestRepository{}
	svc := NewGuestService(repo, nil, zaptest.NewLogger(t))
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		if _, err := svc.Create(ctx, domain.AdminIdentity, CreateGuestInput{Name: name}); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	guests, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(guests) != 3 || guests[0].Name != "third" || guests[2].Name != "first" {
		t.Fatalf("expected newest first, got %+v", guests)
	}
}
