package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// cachedScheduleRepository is a read-through Redis cache in front of a
// ScheduleRepository. Redis failures fall back to the inner repository.
type cachedScheduleRepository struct {
	inner ScheduleRepository
	redis redis.Cmdable
	ttl   time.Duration
	group singleflight.Group
	log   *zap.Logger
}

func NewCachedScheduleRepository(inner ScheduleRepository, client redis.Cmdable, ttl time.Duration, log *zap.Logger) ScheduleRepository {
	return &cachedScheduleRepository{
		inner: inner,
		redis: client,
		ttl:   ttl,
		log:   log.With(zap.String("repository", "working_schedule_cache")),
	}
}

// Cached schedules are keyed by a per-provider generation. Upsert bumps the
// generation after the write commits, so a miss that loaded the old row
// concurrently can only store it under a generation nobody reads anymore.
func scheduleGenerationKey(providerID uuid.UUID) string {
	return "schedule:" + providerID.String() + ":gen"
}

func scheduleCacheKey(providerID uuid.UUID, generation int64) string {
	return fmt.Sprintf("schedule:%s:%d", providerID, generation)
}

func (r *cachedScheduleRepository) FindByProviderID(ctx context.Context, providerID uuid.UUID) (*entity.WorkingSchedule, error) {
	generation, err := r.redis.Get(ctx, scheduleGenerationKey(providerID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		r.log.Warn("Schedule cache read failed", zap.Error(err), zap.String("provider_id", providerID.String()))
		metrics.RecordScheduleCache("miss")
		return r.inner.FindByProviderID(ctx, providerID)
	}
	key := scheduleCacheKey(providerID, generation)

	raw, err := r.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var schedule entity.WorkingSchedule
		if jsonErr := json.Unmarshal(raw, &schedule); jsonErr == nil {
			metrics.RecordScheduleCache("hit")
			return &schedule, nil
		}
		r.log.Warn("Dropping undecodable cached schedule", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		r.log.Warn("Schedule cache read failed", zap.Error(err), zap.String("key", key))
	}
	metrics.RecordScheduleCache("miss")

	v, err, _ := r.group.Do(key, func() (any, error) {
		schedule, err := r.inner.FindByProviderID(ctx, providerID)
		if err != nil || schedule == nil {
			return schedule, err
		}
		if payload, err := json.Marshal(schedule); err == nil {
			if err := r.redis.Set(ctx, key, payload, r.ttl).Err(); err != nil {
				r.log.Warn("Schedule cache write failed", zap.Error(err), zap.String("key", key))
			}
		}
		return schedule, nil
	})
	if err != nil {
		return nil, err
	}

	schedule, _ := v.(*entity.WorkingSchedule)
	return schedule.Clone(), nil
}

func (r *cachedScheduleRepository) Upsert(ctx context.Context, schedule *entity.WorkingSchedule) error {
	if err := r.inner.Upsert(ctx, schedule); err != nil {
		return err
	}
	if err := r.redis.Incr(ctx, scheduleGenerationKey(schedule.ProviderID)).Err(); err != nil {
		r.log.Warn("Schedule cache invalidation failed",
			zap.Error(err),
			zap.String("provider_id", schedule.ProviderID.String()),
		)
	}
	return nil
}
