package usecase

import (
	"context"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/scheduling"
	"appointment-booking/pkg/utils"

	"github.com/google/uuid"
)

// applyTransition moves b to status to inside tx and appends the history row.
// b itself is left untouched.
func applyTransition(ctx context.Context, tx *repository.TxRepository, b *entity.Booking, to entity.BookingStatus, reason *string, now time.Time) (*entity.Booking, error) {
	if err := scheduling.Transition(b.Status, to); err != nil {
		return nil, err
	}

	from := b.Status
	updated := b.Clone()
	updated.Status = to
	updated.StatusChangedAt = now
	updated.UpdatedAt = now
	if to == entity.BookingStatusCancelled {
		updated.CancellationReason = reason
	}

	if err := tx.Booking.UpdateStatus(ctx, updated); err != nil {
		return nil, err
	}
	if err := tx.History.Create(ctx, newHistory(ctx, updated.ID, scheduling.ActionFor(to), &from, to, reason, now)); err != nil {
		return nil, err
	}
	return updated, nil
}

func newHistory(ctx context.Context, bookingID uuid.UUID, action entity.BookingAction, from *entity.BookingStatus, to entity.BookingStatus, reason *string, now time.Time) *entity.BookingHistory {
	return &entity.BookingHistory{
		BaseSimple:     entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
		BookingID:      bookingID,
		Action:         action,
		PreviousStatus: from,
		NewStatus:      to,
		Actor:          utils.GetActorFromContext(ctx),
		Reason:         reason,
	}
}

func optionalReason(reason string) *string {
	if reason == "" {
		return nil
	}
	return &reason
}
