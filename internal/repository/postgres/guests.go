package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arklim/guestbook-api/internal/core/domain"
	"github.com/arklim/guestbook-api/internal/core/port"
)

const guestTable = "tamu"

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GuestRepository implements port.GuestRepository backed by the tamu table.
type GuestRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewGuestRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewGuestRepository(exec pgExecutor) *GuestRepository {
	return &GuestRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts the guest and returns it with the generated id.
func (r *GuestRepository) Create(ctx context.Context, guest domain.Guest) (domain.Guest, error) {
	createdAt := guest.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var phoneValue any
	if guest.Phone != nil {
		phoneValue = *guest.Phone
	}

	sql, args, err := r.builder.Insert(guestTable).
		Columns("nama", "telepon", "created_by", "created_at").
		Values(guest.Name, phoneValue, guest.CreatedBy.String(), createdAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return domain.Guest{}, fmt.Errorf("build insert guest: %w", err)
	}

	var id int64
	if err := r.exec.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Guest{}, fmt.Errorf("insert guest: no id returned")
		}
		return domain.Guest{}, fmt.Errorf("insert guest: %w", err)
	}

	guest.ID = id
	guest.CreatedAt = createdAt
	return guest, nil
}

// List returns every guest ordered by id descending.
func (r *GuestRepository) List(ctx context.Context) ([]domain.Guest, error) {
	sql, args, err := r.builder.Select("id", "nama", "telepon", "created_by", "created_at").
		From(guestTable).
		OrderBy("id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list guests: %w", err)
	}

	rows, err := r.exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	defer rows.Close()

	guests := make([]domain.Guest, 0)
	for rows.Next() {
		var (
			guest     domain.Guest
			phone     *string
			createdBy string
		)
		if err := rows.Scan(&guest.ID, &guest.Name, &phone, &createdBy, &guest.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan guest: %w", err)
		}
		guest.Phone = phone
		guest.CreatedBy = domain.Identity(createdBy)
		guests = append(guests, guest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guests: %w", err)
	}

	return guests, nil
}

var _ port.GuestRepository = (*GuestRepository)(nil)
