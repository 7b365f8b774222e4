package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ScheduleRepository interface {
	// FindByProviderID returns nil, nil when the provider has no schedule yet.
	FindByProviderID(ctx context.Context, providerID uuid.UUID) (*entity.WorkingSchedule, error)
	Upsert(ctx context.Context, schedule *entity.WorkingSchedule) error
}

type scheduleRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewScheduleRepository(db database.Querier, log *zap.Logger) ScheduleRepository {
	return &scheduleRepository{
		db:  db,
		log: log.With(zap.String("repository", "working_schedule")),
	}
}

func (r *scheduleRepository) FindByProviderID(ctx context.Context, providerID uuid.UUID) (*entity.WorkingSchedule, error) {
	query := `
		SELECT provider_id, weekly, overrides, updated_at
		FROM working_schedules
		WHERE provider_id = $1
	`

	var (
		schedule          entity.WorkingSchedule
		weekly, overrides []byte
	)
	err := r.db.QueryRow(ctx, query, providerID).Scan(&schedule.ProviderID, &weekly, &overrides, &schedule.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find working schedule",
			zap.Error(err),
			zap.String("provider_id", providerID.String()),
		)
		return nil, fmt.Errorf("find working schedule for provider %s: %w", providerID, mapPgError(err))
	}

	if err := json.Unmarshal(weekly, &schedule.Weekly); err != nil {
		return nil, fmt.Errorf("decode weekly hours for provider %s: %w", providerID, err)
	}
	if err := json.Unmarshal(overrides, &schedule.Overrides); err != nil {
		return nil, fmt.Errorf("decode overrides for provider %s: %w", providerID, err)
	}

	return &schedule, nil
}

func (r *scheduleRepository) Upsert(ctx context.Context, schedule *entity.WorkingSchedule) error {
	weekly, err := json.Marshal(nonNilWeekly(schedule.Weekly))
	if err != nil {
		return fmt.Errorf("encode weekly hours: %w", err)
	}
	overrides, err := json.Marshal(nonNilOverrides(schedule.Overrides))
	if err != nil {
		return fmt.Errorf("encode overrides: %w", err)
	}

	query := `
		INSERT INTO working_schedules (provider_id, weekly, overrides, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider_id)
		DO UPDATE SET weekly = EXCLUDED.weekly, overrides = EXCLUDED.overrides, updated_at = EXCLUDED.updated_at
	`

	if schedule.UpdatedAt.IsZero() {
		schedule.UpdatedAt = time.Now()
	}

	if _, err := r.db.Exec(ctx, query, schedule.ProviderID, weekly, overrides, schedule.UpdatedAt); err != nil {
		r.log.Error("Failed to upsert working schedule",
			zap.Error(err),
			zap.String("provider_id", schedule.ProviderID.String()),
		)
		return fmt.Errorf("upsert working schedule for provider %s: %w", schedule.ProviderID, mapPgError(err))
	}

	return nil
}

func nonNilWeekly(m map[time.Weekday][]entity.ClockInterval) map[time.Weekday][]entity.ClockInterval {
	if m == nil {
		return map[time.Weekday][]entity.ClockInterval{}
	}
	return m
}

func nonNilOverrides(m map[string][]entity.ClockInterval) map[string][]entity.ClockInterval {
	if m == nil {
		return map[string][]entity.ClockInterval{}
	}
	return m
}
