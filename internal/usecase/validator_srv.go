package usecase

import (
	"context"
	"fmt"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/scheduling"
	"appointment-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateInput struct {
	ProviderID      uuid.UUID
	ServiceID       uuid.UUID
	Start           time.Time
	DurationMinutes int
}

// BookingValidator holds the business rules that sit above raw
// availability. Each method returns *scheduling.ValidationError for a broken
// rule unless documented otherwise.
type BookingValidator interface {
	// ValidateCreate returns the service so callers can snapshot its price.
	ValidateCreate(ctx context.Context, in CreateInput, now time.Time) (*entity.ProviderService, error)
	// ValidateCancellation returns ErrCancellationWindowExpired once the
	// notice period before start has begun.
	ValidateCancellation(b *entity.Booking, now time.Time) error
	ValidateReschedule(ctx context.Context, b *entity.Booking, newStart time.Time, newDurationMinutes int, now time.Time) error
	ValidateConfirmation(b *entity.Booking, now time.Time) error
}

type bookingValidator struct {
	repo   *repository.Repository
	policy utils.BookingConfig
	log    *zap.Logger
}

func newBookingValidator(repo *repository.Repository, policy utils.BookingConfig, log *zap.Logger) *bookingValidator {
	return &bookingValidator{
		repo:   repo,
		policy: policy,
		log:    log.With(zap.String("service", "validator")),
	}
}

func (v *bookingValidator) ValidateCreate(ctx context.Context, in CreateInput, now time.Time) (*entity.ProviderService, error) {
	if err := scheduling.CheckWindow(in.Start, in.DurationMinutes, now); err != nil {
		return nil, err
	}

	provider, err := v.repo.Directory.FindProvider(ctx, in.ProviderID)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("provider %s: %w", in.ProviderID, scheduling.ErrProviderNotFound)
	}
	if !provider.IsBookable {
		return nil, scheduling.NewValidationError("provider_id", "provider is not accepting bookings")
	}

	if err := v.checkHorizon(in.Start, now); err != nil {
		return nil, err
	}

	service, err := v.repo.Directory.FindService(ctx, in.ServiceID)
	if err != nil {
		return nil, err
	}
	if service == nil || service.ProviderID != in.ProviderID {
		return nil, scheduling.NewValidationError("service_id", "service is not offered by this provider")
	}
	if !service.IsActive {
		return nil, scheduling.NewValidationError("service_id", "service is not active")
	}
	if !service.AllowsDuration(in.DurationMinutes) {
		return nil, scheduling.NewValidationError("duration_minutes", "%d minutes is not allowed for this service, allowed: %v", in.DurationMinutes, service.AllowedDurations)
	}

	return service, nil
}

func (v *bookingValidator) checkHorizon(start, now time.Time) error {
	if lead := v.policy.MinLeadTime; start.Before(now.Add(lead)) {
		return scheduling.NewValidationError("start", "must be at least %s from now", lead)
	}
	if maxAdvance := v.policy.MaxAdvance; maxAdvance > 0 && start.After(now.Add(maxAdvance)) {
		return scheduling.NewValidationError("start", "must be within %s from now", maxAdvance)
	}
	return nil
}

func (v *bookingValidator) ValidateCancellation(b *entity.Booking, now time.Time) error {
	deadline := b.Start.Add(-v.policy.CancellationNotice)
	if now.After(deadline) {
		return fmt.Errorf("cancel booking %s after %s: %w", b.BookingNumber, deadline.Format(time.RFC3339), scheduling.ErrCancellationWindowExpired)
	}
	return nil
}

func (v *bookingValidator) ValidateReschedule(ctx context.Context, b *entity.Booking, newStart time.Time, newDurationMinutes int, now time.Time) error {
	if limit := v.policy.MaxReschedules; b.RescheduleCount >= limit {
		return scheduling.NewValidationError("booking", "booking was already rescheduled %d times, limit is %d", b.RescheduleCount, limit)
	}
	if newStart.Equal(b.Start) && newDurationMinutes == b.DurationMinutes {
		return scheduling.NewValidationError("start", "new window is the same as the current one")
	}

	_, err := v.ValidateCreate(ctx, CreateInput{
		ProviderID:      b.ProviderID,
		ServiceID:       b.ServiceID,
		Start:           newStart,
		DurationMinutes: newDurationMinutes,
	}, now)
	return err
}

func (v *bookingValidator) ValidateConfirmation(b *entity.Booking, now time.Time) error {
	if !b.Start.After(now) {
		return scheduling.NewValidationError("booking", "booking started at %s and can no longer be confirmed", b.Start.Format(time.RFC3339))
	}
	if pendingExpired(b, v.policy.PendingTTL, now) {
		return scheduling.NewValidationError("booking", "pending booking expired at %s", b.CreatedAt.Add(v.policy.PendingTTL).Format(time.RFC3339))
	}
	return nil
}

// pendingExpired reports whether b has waited for confirmation longer than
// ttl. A zero ttl never expires.
func pendingExpired(b *entity.Booking, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && b.Status == entity.BookingStatusPending && now.Sub(b.CreatedAt) > ttl
}
