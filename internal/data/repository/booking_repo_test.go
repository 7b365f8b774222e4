package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/scheduling"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var bookingColumnNames = []string{
	"id", "booking_number", "provider_id", "client_id", "service_id", "start_at", "duration_minutes",
	"status", "price", "status_changed_at", "cancellation_reason", "rescheduled_from_id", "reschedule_count",
	"created_at", "updated_at",
}

func newTestBooking() *entity.Booking {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return &entity.Booking{
		BaseNoDelete:    entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		BookingNumber:   "BK-20260301-080000-0001",
		ProviderID:      uuid.New(),
		ClientID:        uuid.New(),
		ServiceID:       uuid.New(),
		Start:           time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          entity.BookingStatusPending,
		Price:           decimal.RequireFromString("150000.00"),
		StatusChangedAt: now,
	}
}

func bookingRow(b *entity.Booking) []any {
	return []any{
		b.ID, b.BookingNumber, b.ProviderID, b.ClientID, b.ServiceID, b.Start, b.DurationMinutes,
		b.Status, b.Price, b.StatusChangedAt, b.CancellationReason, b.RescheduledFromID, b.RescheduleCount,
		b.CreatedAt, b.UpdatedAt,
	}
}

func TestBookingRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewBookingRepository(mock, zap.NewNop())
	b := newTestBooking()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs(bookingRow(b)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), b))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_CreateOverlapMapsToSlotUnavailable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewBookingRepository(mock, zap.NewNop())
	b := newTestBooking()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs(bookingRow(b)...).
		WillReturnError(&pgconn.PgError{Code: "23P01", ConstraintName: "bookings_no_overlap"})

	err = repo.Create(context.Background(), b)
	assert.ErrorIs(t, err, scheduling.ErrSlotUnavailable)
	assert.NotErrorIs(t, err, scheduling.ErrTemporary)
}

func TestBookingRepository_FindByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewBookingRepository(mock, zap.NewNop())
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.FindByIDForUpdate(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestBookingRepository_FindActiveOverlapping(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewBookingRepository(mock, zap.NewNop())
	b := newTestBooking()
	from, to := b.Start.Add(-time.Hour), b.Start.Add(2*time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("status IN ('pending', 'confirmed')")).
		WithArgs(b.ProviderID, from, to, uuid.Nil).
		WillReturnRows(pgxmock.NewRows(bookingColumnNames))

	got, err := repo.FindActiveOverlapping(context.Background(), b.ProviderID, from, to, uuid.Nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_UpdateStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewBookingRepository(mock, zap.NewNop())
	b := newTestBooking()
	b.Status = entity.BookingStatusConfirmed

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings")).
		WithArgs(b.ID, b.Status, b.StatusChangedAt, b.CancellationReason, b.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings")).
		WithArgs(b.ID, b.Status, b.StatusChangedAt, b.CancellationReason, b.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.UpdateStatus(context.Background(), b))
	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), b), scheduling.ErrBookingNotFound)
}

func TestBookingRepository_CountByProviderFailureIsTemporary(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewBookingRepository(mock, zap.NewNop())
	providerID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings")).
		WithArgs(providerID).
		WillReturnError(errors.New("connection reset by peer"))

	_, err = repo.CountByProvider(context.Background(), providerID)
	assert.ErrorIs(t, err, scheduling.ErrTemporary)
}

func TestBookingRepository_ReadDeadlineIsTemporary(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewBookingRepository(mock, zap.NewNop())
	providerID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE provider_id = $1")).
		WithArgs(providerID, 10, 0).
		WillReturnError(context.DeadlineExceeded)

	_, err = repo.FindByProvider(context.Background(), providerID, 10, 0)
	assert.ErrorIs(t, err, scheduling.ErrTemporary)
	assert.NotErrorIs(t, err, scheduling.ErrReservationTimeout)
}

func TestBookingRepository_FindPendingCreatedBefore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewBookingRepository(mock, zap.NewNop())
	b := newTestBooking()
	cutoff := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'pending'")).
		WithArgs(cutoff, 50).
		WillReturnRows(pgxmock.NewRows(bookingColumnNames).AddRow(bookingRow(b)...))

	got, err := repo.FindPendingCreatedBefore(context.Background(), cutoff, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)
	assert.Equal(t, entity.BookingStatusPending, got[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
