package domain

import "time"

const (
	// GuestNameMaxLength mirrors the width of the tamu.nama column.
	GuestNameMaxLength = 100
	// GuestPhoneMaxLength mirrors the width of the tamu.telepon column.
	GuestPhoneMaxLength = 20
)

// Guest is a single guest-book record.
type Guest struct {
	ID        int64
	Name      string
	Phone     *string
	CreatedBy Identity
	CreatedAt time.Time
}
