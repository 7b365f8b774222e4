package usecase

import (
	"context"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/data/repository"
	"appointment-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	WorkingHours WorkingHoursService
	Availability AvailabilityService
	Slots        SlotService
	Validator    BookingValidator
	Booking      BookingService
	Provider     ProviderService
}

// NewService wires the use cases. followUps may be nil when the background
// worker is disabled.
func NewService(repo *repository.Repository, deliverer Deliverer, followUps FollowUpScheduler, config *utils.Config, log *zap.Logger) *Service {
	return newService(repo, deliverer, followUps, config.Booking, time.Now, log)
}

func newService(repo *repository.Repository, deliverer Deliverer, followUps FollowUpScheduler, policy utils.BookingConfig, now Clock, log *zap.Logger) *Service {
	if followUps == nil {
		followUps = noFollowUps{}
	}

	hours := newWorkingHoursService(repo, now, log)
	availability := newAvailabilityService(repo, hours, now, log)
	slots := newSlotService(repo, hours, availability, policy, now, log)
	validator := newBookingValidator(repo, policy, log)
	notifier := NewNotifier(deliverer, policy.NotifyTimeout, now, log)

	return &Service{
		WorkingHours: hours,
		Availability: availability,
		Slots:        slots,
		Validator:    validator,
		Booking:      newBookingService(repo, hours, slots, validator, notifier, followUps, policy, now, log),
		Provider:     newProviderService(availability, slots, policy, now, log),
	}
}

type noFollowUps struct{}

func (noFollowUps) ScheduleCompletion(context.Context, *entity.Booking) error { return nil }
func (noFollowUps) ScheduleReminders(context.Context, *entity.Booking) error { return nil }
