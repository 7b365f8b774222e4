package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/scheduling"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// BookingJobs is implemented by usecase.BookingService.
type BookingJobs interface {
	AutoComplete(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error)
	CompleteElapsed(ctx context.Context, limit int) (int, error)
	ExpireStalePending(ctx context.Context, limit int) (int, error)
	SendReminder(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

func HandleCompleteTask(jobs BookingJobs, log *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p CompletePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Error("Invalid complete payload", zap.Error(err))
			return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		}

		_, err := jobs.AutoComplete(ctx, p.BookingID)
		switch {
		case err == nil:
			log.Info("Booking auto-completed", zap.String("booking_id", p.BookingID.String()))
			return nil
		case errors.Is(err, scheduling.ErrInvalidStateTransition), errors.Is(err, scheduling.ErrBookingNotFound):
			// sudah dibatalkan atau selesai duluan
			log.Debug("Completion skipped", zap.String("booking_id", p.BookingID.String()), zap.Error(err))
			return nil
		default:
			log.Warn("Auto-complete failed", zap.String("booking_id", p.BookingID.String()), zap.Error(err))
			return err
		}
	}
}

func HandleReminderTask(jobs BookingJobs, log *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Error("Invalid reminder payload", zap.Error(err))
			return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		}

		sent, err := jobs.SendReminder(ctx, p.BookingID)
		switch {
		case errors.Is(err, scheduling.ErrBookingNotFound):
			return nil
		case err != nil:
			log.Warn("Reminder failed", zap.String("booking_id", p.BookingID.String()), zap.Error(err))
			return err
		}
		log.Debug("Reminder handled",
			zap.String("booking_id", p.BookingID.String()),
			zap.Float64("lead_hours", p.LeadHours),
			zap.Bool("sent", sent),
		)
		return nil
	}
}

// HandleSweepTask completes elapsed confirmed bookings and expires stale
// pending ones. It catches whatever the per-booking tasks missed.
func HandleSweepTask(jobs BookingJobs, defaultLimit int, log *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p := SweepPayload{Limit: defaultLimit}
		if len(task.Payload()) > 0 {
			if err := json.Unmarshal(task.Payload(), &p); err != nil {
				return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
			}
		}
		if p.Limit <= 0 {
			p.Limit = defaultLimit
		}

		completed, completeErr := jobs.CompleteElapsed(ctx, p.Limit)
		expired, expireErr := jobs.ExpireStalePending(ctx, p.Limit)
		if err := errors.Join(completeErr, expireErr); err != nil {
			log.Warn("Sweep finished with errors",
				zap.Int("completed", completed),
				zap.Int("expired", expired),
				zap.Error(err),
			)
			return err
		}
		log.Debug("Sweep finished", zap.Int("completed", completed), zap.Int("expired", expired))
		return nil
	}
}
