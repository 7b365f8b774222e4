package usecase

import (
	"context"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/scheduling"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AvailabilityService interface {
	// IsAvailable reports whether [start, start+duration) lies inside one open
	// interval and overlaps no active booking. It is advisory: Reserve repeats
	// the check under lock.
	IsAvailable(ctx context.Context, providerID uuid.UUID, start time.Time, durationMinutes int) (bool, error)
}

type availabilityService struct {
	repo  *repository.Repository
	hours *workingHoursService
	now   Clock
	log   *zap.Logger
}

func newAvailabilityService(repo *repository.Repository, hours *workingHoursService, now Clock, log *zap.Logger) *availabilityService {
	return &availabilityService{
		repo:  repo,
		hours: hours,
		now:   now,
		log:   log.With(zap.String("service", "availability")),
	}
}

func (s *availabilityService) IsAvailable(ctx context.Context, providerID uuid.UUID, start time.Time, durationMinutes int) (bool, error) {
	if err := scheduling.CheckWindow(start, durationMinutes, s.now()); err != nil {
		return false, err
	}

	cal, err := s.hours.calendar(ctx, providerID)
	if err != nil {
		return false, err
	}

	return s.check(ctx, s.repo.Booking, cal, scheduling.NewWindow(start, durationMinutes), uuid.Nil)
}

// check is the single availability rule. bookings is either the pool-backed
// repository or the one bound to a reservation transaction.
func (s *availabilityService) check(ctx context.Context, bookings repository.BookingRepository, cal *providerCalendar, w scheduling.Window, excludeID uuid.UUID) (bool, error) {
	open := cal.openAround(w)
	if !scheduling.WindowFree(w, open, nil) {
		return false, nil
	}

	busy, err := bookings.FindActiveOverlapping(ctx, cal.provider.ID, w.Start, w.End, excludeID)
	if err != nil {
		s.log.Error("Failed to load overlapping bookings", zap.Error(err), zap.String("provider_id", cal.provider.ID.String()))
		return false, err
	}

	return scheduling.WindowFree(w, open, windowsOf(busy)), nil
}

func windowsOf(bookings []*entity.Booking) []scheduling.Window {
	windows := make([]scheduling.Window, 0, len(bookings))
	for _, b := range bookings {
		windows = append(windows, bookingWindow(b))
	}
	return windows
}

func bookingWindow(b *entity.Booking) scheduling.Window {
	return scheduling.NewWindow(b.Start, b.DurationMinutes)
}
