package entity

import (
	"time"

	"github.com/google/uuid"
)

// BaseNoDelete dipakai untuk tabel yang tidak pernah di-hard-delete (bookings).
type BaseNoDelete struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// BaseSimple untuk tabel append-only (history).
type BaseSimple struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}
