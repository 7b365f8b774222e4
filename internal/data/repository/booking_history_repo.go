package repository

import (
	"context"
	"fmt"

	"appointment-booking/internal/data/entity"
	"appointment-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingHistoryRepository interface {
	Create(ctx context.Context, history *entity.BookingHistory) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.BookingHistory, error)
}

type bookingHistoryRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBookingHistoryRepository(db database.Querier, log *zap.Logger) BookingHistoryRepository {
	return &bookingHistoryRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking_history")),
	}
}

func (r *bookingHistoryRepository) Create(ctx context.Context, h *entity.BookingHistory) error {
	query := `
		INSERT INTO booking_histories (id, booking_id, action, previous_status, new_status, actor, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		h.ID,
		h.BookingID,
		h.Action,
		h.PreviousStatus,
		h.NewStatus,
		h.Actor,
		h.Reason,
		h.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create booking history",
			zap.Error(err),
			zap.String("booking_id", h.BookingID.String()),
			zap.String("action", string(h.Action)),
		)
		return fmt.Errorf("create history for booking %s: %w", h.BookingID, mapPgError(err))
	}

	return nil
}

func (r *bookingHistoryRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.BookingHistory, error) {
	query := `
		SELECT id, booking_id, action, previous_status, new_status, actor, reason, created_at
		FROM booking_histories
		WHERE booking_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find booking history",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find history for booking %s: %w", bookingID, mapPgError(err))
	}
	defer rows.Close()

	var histories []*entity.BookingHistory
	for rows.Next() {
		var h entity.BookingHistory
		if err := rows.Scan(
			&h.ID,
			&h.BookingID,
			&h.Action,
			&h.PreviousStatus,
			&h.NewStatus,
			&h.Actor,
			&h.Reason,
			&h.CreatedAt,
		); err != nil {
			r.log.Error("Failed to scan booking history row", zap.Error(err))
			return nil, fmt.Errorf("scan booking history row: %w", mapPgError(err))
		}
		histories = append(histories, &h)
	}

	return histories, rows.Err()
}
