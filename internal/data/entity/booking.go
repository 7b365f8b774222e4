package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending     BookingStatus = "pending"
	BookingStatusConfirmed   BookingStatus = "confirmed"
	BookingStatusCompleted   BookingStatus = "completed"
	BookingStatusCancelled   BookingStatus = "cancelled"
	BookingStatusRescheduled BookingStatus = "rescheduled"
)

// IsActive reports whether a booking in this status occupies provider time.
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled || s == BookingStatusRescheduled
}

type Booking struct {
	BaseNoDelete
	BookingNumber      string          `db:"booking_number"`
	ProviderID         uuid.UUID       `db:"provider_id"`
	ClientID           uuid.UUID       `db:"client_id"`
	ServiceID          uuid.UUID       `db:"service_id"`
	Start              time.Time       `db:"start_at"`
	DurationMinutes    int             `db:"duration_minutes"`
	Status             BookingStatus   `db:"status"`
	Price              decimal.Decimal `db:"price"`
	StatusChangedAt    time.Time       `db:"status_changed_at"`
	CancellationReason *string         `db:"cancellation_reason"`
	RescheduledFromID  *uuid.UUID      `db:"rescheduled_from_id"`
	RescheduleCount    int             `db:"reschedule_count"`
}

func (b *Booking) Duration() time.Duration {
	return time.Duration(b.DurationMinutes) * time.Minute
}

// End is derived from Start and DurationMinutes and never stored.
func (b *Booking) End() time.Time {
	return b.Start.Add(b.Duration())
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	if b.CancellationReason != nil {
		reason := *b.CancellationReason
		c.CancellationReason = &reason
	}
	if b.RescheduledFromID != nil {
		from := *b.RescheduledFromID
		c.RescheduledFromID = &from
	}
	return &c
}
