package testfixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/scheduling"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeBooking(providerID uuid.UUID, start time.Time, minutes int) *entity.Booking {
	return &entity.Booking{
		BaseNoDelete:    entity.BaseNoDelete{ID: uuid.New()},
		ProviderID:      providerID,
		Start:           start,
		DurationMinutes: minutes,
		Status:          entity.BookingStatusPending,
	}
}

func TestStore_TransactionRollsBack(t *testing.T) {
	store := NewStore()
	providerID := uuid.New()
	boom := errors.New("boom")

	err := store.WithReservationLock(context.Background(), nil, time.Second, func(ctx context.Context, tx *repository.TxRepository) error {
		require.NoError(t, tx.Booking.Create(ctx, activeBooking(providerID, At(0, 10, 0), 60)))
		found, err := tx.Booking.FindActiveOverlapping(ctx, providerID, At(0, 9, 0), At(0, 12, 0), uuid.Nil)
		require.NoError(t, err)
		assert.Len(t, found, 1, "staged rows are visible inside the transaction")
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.Bookings())
}

func TestStore_RejectsOverlap(t *testing.T) {
	store := NewStore()
	repo := store.Repository()
	providerID := uuid.New()

	require.NoError(t, repo.Booking.Create(context.Background(), activeBooking(providerID, At(0, 10, 0), 60)))
	require.NoError(t, repo.Booking.Create(context.Background(), activeBooking(providerID, At(0, 11, 0), 60)))
	err := repo.Booking.Create(context.Background(), activeBooking(providerID, At(0, 10, 30), 60))

	assert.ErrorIs(t, err, scheduling.ErrSlotUnavailable)
	assert.Len(t, store.Bookings(), 2)
}

func TestStore_LockTimeout(t *testing.T) {
	store := NewStore()
	key := repository.LockKey{ProviderID: uuid.New(), Date: "2026-03-02"}

	release := store.HoldLocks(key)
	defer release()

	err := store.WithReservationLock(context.Background(), []repository.LockKey{key}, 20*time.Millisecond, func(context.Context, *repository.TxRepository) error {
		t.Fatal("must not enter")
		return nil
	})
	assert.ErrorIs(t, err, scheduling.ErrReservationTimeout)
}

func TestClock(t *testing.T) {
	c := NewClock(time.Time{})
	assert.Equal(t, ReferenceTime(), c.Now())
	assert.Equal(t, ReferenceTime().Add(time.Hour), c.Advance(time.Hour))
	c.Set(At(1, 0, 0))
	assert.Equal(t, At(1, 0, 0), c.Now())
}
