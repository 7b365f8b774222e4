package repository

import (
	"context"
	"fmt"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/scheduling"
	"appointment-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByProvider(ctx context.Context, providerID uuid.UUID) (int64, error)
	UpdateStatus(ctx context.Context, booking *entity.Booking) error

	// Business queries
	// FindActiveOverlapping returns pending/confirmed bookings of the provider
	// that overlap [from, to), skipping excludeID (uuid.Nil skips nothing).
	FindActiveOverlapping(ctx context.Context, providerID uuid.UUID, from, to time.Time, excludeID uuid.UUID) ([]*entity.Booking, error)
	FindConfirmedEndedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Booking, error)
	// FindPendingCreatedBefore returns pending bookings created before cutoff,
	// oldest first.
	FindPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Booking, error)
}

type bookingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBookingRepository(db database.Querier, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, booking_number, provider_id, client_id, service_id, start_at, duration_minutes,
		status, price, status_changed_at, cancellation_reason, rescheduled_from_id, reschedule_count,
		created_at, updated_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.BookingNumber,
		&b.ProviderID,
		&b.ClientID,
		&b.ServiceID,
		&b.Start,
		&b.DurationMinutes,
		&b.Status,
		&b.Price,
		&b.StatusChangedAt,
		&b.CancellationReason,
		&b.RescheduledFromID,
		&b.RescheduleCount,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Start = b.Start.UTC()
	return &b, nil
}

func (r *bookingRepository) collect(rows pgx.Rows) ([]*entity.Booking, error) {
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", mapPgError(err))
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", mapPgError(err))
	}
	return bookings, nil
}

func (r *bookingRepository) Create(ctx context.Context, b *entity.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Exec(ctx, query,
		b.ID,
		b.BookingNumber,
		b.ProviderID,
		b.ClientID,
		b.ServiceID,
		b.Start.UTC(),
		b.DurationMinutes,
		b.Status,
		b.Price,
		b.StatusChangedAt,
		b.CancellationReason,
		b.RescheduledFromID,
		b.RescheduleCount,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("booking_number", b.BookingNumber),
			zap.String("provider_id", b.ProviderID.String()),
		)
		return fmt.Errorf("create booking %s: %w", b.BookingNumber, mapPgError(err))
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.findByID(ctx, id, "")
}

func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.findByID(ctx, id, "FOR UPDATE")
}

func (r *bookingRepository) findByID(ctx context.Context, id uuid.UUID, lock string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 ` + lock

	b, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id, mapPgError(err))
	}

	return b, nil
}

func (r *bookingRepository) FindByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE provider_id = $1
		ORDER BY start_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, providerID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by provider",
			zap.Error(err),
			zap.String("provider_id", providerID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by provider %s: %w", providerID, mapPgError(err))
	}

	return r.collect(rows)
}

func (r *bookingRepository) CountByProvider(ctx context.Context, providerID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE provider_id = $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, providerID).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by provider",
			zap.Error(err),
			zap.String("provider_id", providerID.String()),
		)
		return 0, fmt.Errorf("count bookings by provider %s: %w", providerID, mapPgError(err))
	}

	return count, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, b *entity.Booking) error {
	query := `
		UPDATE bookings
		SET status = $2, status_changed_at = $3, cancellation_reason = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, b.ID, b.Status, b.StatusChangedAt, b.CancellationReason, b.UpdatedAt)
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", b.ID.String()),
			zap.String("status", string(b.Status)),
		)
		return fmt.Errorf("update booking status %s: %w", b.ID, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update booking status %s: %w", b.ID, scheduling.ErrBookingNotFound)
	}

	return nil
}

func (r *bookingRepository) FindActiveOverlapping(ctx context.Context, providerID uuid.UUID, from, to time.Time, excludeID uuid.UUID) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE provider_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND start_at < $3
		  AND start_at + make_interval(mins => duration_minutes) > $2
		  AND id <> $4
		ORDER BY start_at
	`

	rows, err := r.db.Query(ctx, query, providerID, from.UTC(), to.UTC(), excludeID)
	if err != nil {
		r.log.Error("Failed to find overlapping bookings",
			zap.Error(err),
			zap.String("provider_id", providerID.String()),
			zap.Time("from", from),
			zap.Time("to", to),
		)
		return nil, fmt.Errorf("find overlapping bookings for provider %s: %w", providerID, mapPgError(err))
	}

	return r.collect(rows)
}

func (r *bookingRepository) FindConfirmedEndedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'confirmed'
		  AND start_at + make_interval(mins => duration_minutes) <= $1
		ORDER BY start_at
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, cutoff.UTC(), limit)
	if err != nil {
		r.log.Error("Failed to find bookings due for completion", zap.Error(err))
		return nil, fmt.Errorf("find bookings ended before %s: %w", cutoff.Format(time.RFC3339), mapPgError(err))
	}

	return r.collect(rows)
}

func (r *bookingRepository) FindPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'pending'
		  AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, cutoff, limit)
	if err != nil {
		r.log.Error("Failed to find stale pending bookings", zap.Error(err))
		return nil, fmt.Errorf("find pending bookings created before %s: %w", cutoff.Format(time.RFC3339), mapPgError(err))
	}

	return r.collect(rows)
}
