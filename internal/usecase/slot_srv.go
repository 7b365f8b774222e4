package usecase

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/metrics"
	"appointment-booking/internal/scheduling"
	"appointment-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SlotService interface {
	// GenerateSlots returns a lazy, restartable sequence of free slots over
	// the provider-local dates in dates. Bookings are read once up front.
	GenerateSlots(ctx context.Context, providerID uuid.UUID, dates DateRange, durationMinutes, granularityMinutes int) (iter.Seq[scheduling.Slot], error)
	Reserve(ctx context.Context, req ReservationRequest) (*entity.Booking, error)
	// Release cancels an active booking and frees its time. Releasing a
	// booking that is no longer active returns it unchanged.
	Release(ctx context.Context, bookingID uuid.UUID, reason string) (*entity.Booking, error)
	// NextAvailableSlot returns nil when nothing is free within horizonDays.
	NextAvailableSlot(ctx context.Context, providerID uuid.UUID, from time.Time, durationMinutes, granularityMinutes, horizonDays int) (*scheduling.Slot, error)
	DayStats(ctx context.Context, providerID uuid.UUID, date time.Time) (*DayStats, error)
}

// DateRange holds provider-local calendar dates, both inclusive.
type DateRange struct {
	From time.Time
	To   time.Time
}

type ReservationRequest struct {
	ProviderID      uuid.UUID
	ClientID        uuid.UUID
	ServiceID       uuid.UUID
	Start           time.Time
	DurationMinutes int
	Price           decimal.Decimal
}

type DayStats struct {
	Date          string
	OpenMinutes   int
	BookedMinutes int
	FreeMinutes   int
	Bookings      int
	Utilization   float64
}

type slotService struct {
	repo         *repository.Repository
	hours        *workingHoursService
	availability *availabilityService
	policy       utils.BookingConfig
	now          Clock
	log          *zap.Logger
}

func newSlotService(repo *repository.Repository, hours *workingHoursService, availability *availabilityService, policy utils.BookingConfig, now Clock, log *zap.Logger) *slotService {
	return &slotService{
		repo:         repo,
		hours:        hours,
		availability: availability,
		policy:       policy,
		now:          now,
		log:          log.With(zap.String("service", "slot")),
	}
}

func (s *slotService) GenerateSlots(ctx context.Context, providerID uuid.UUID, dates DateRange, durationMinutes, granularityMinutes int) (iter.Seq[scheduling.Slot], error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %d minutes", scheduling.ErrInvalidWindow, durationMinutes)
	}
	if granularityMinutes <= 0 {
		return nil, scheduling.NewValidationError("granularity_minutes", "must be positive")
	}

	cal, err := s.hours.calendar(ctx, providerID)
	if err != nil {
		return nil, err
	}

	first := localDate(dates.From, cal.loc)
	last := localDate(dates.To, cal.loc)
	if last.Before(first) {
		return nil, scheduling.NewValidationError("to", "must not be before from")
	}
	if maxDays := s.policy.MaxSlotRangeDays; maxDays > 0 && last.Sub(first) >= time.Duration(maxDays)*24*time.Hour {
		return nil, scheduling.NewValidationError("to", "range may cover at most %d days", maxDays)
	}

	var days [][]scheduling.Window
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, cal.openOn(d))
	}

	rangeEnd := last.AddDate(0, 0, 1)
	busy, err := s.repo.Booking.FindActiveOverlapping(ctx, providerID, first, rangeEnd, uuid.Nil)
	if err != nil {
		s.log.Error("Failed to load bookings for slot generation", zap.Error(err), zap.String("provider_id", providerID.String()))
		return nil, err
	}
	busyWindows := windowsOf(busy)

	duration := time.Duration(durationMinutes) * time.Minute
	step := time.Duration(granularityMinutes) * time.Minute
	notBefore := s.now()

	return func(yield func(scheduling.Slot) bool) {
		for _, open := range days {
			for slot := range scheduling.Slots(open, busyWindows, duration, step, notBefore) {
				if !yield(slot) {
					return
				}
			}
		}
	}, nil
}

// localDate reinterprets the calendar date of t as midnight in loc.
func localDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func (s *slotService) Reserve(ctx context.Context, req ReservationRequest) (*entity.Booking, error) {
	if err := scheduling.CheckWindow(req.Start, req.DurationMinutes, s.now()); err != nil {
		return nil, err
	}

	cal, err := s.hours.calendar(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}

	w := scheduling.NewWindow(req.Start, req.DurationMinutes)
	started := time.Now()

	var booking *entity.Booking
	err = s.repo.Tx.WithReservationLock(ctx, cal.lockKeys(w), s.policy.ReservationTimeout, func(ctx context.Context, tx *repository.TxRepository) error {
		b, err := s.reserveTx(ctx, tx, cal, req, nil)
		booking = b
		return err
	})
	recordReservation(err, time.Since(started))
	if err != nil {
		s.log.Warn("Reservation failed",
			zap.Error(err),
			zap.String("provider_id", req.ProviderID.String()),
			zap.Stringer("window", w),
		)
		return nil, err
	}

	s.log.Info("Slot reserved",
		zap.String("booking_id", booking.ID.String()),
		zap.String("booking_number", booking.BookingNumber),
		zap.String("provider_id", req.ProviderID.String()),
		zap.Stringer("window", w),
	)
	return booking, nil
}

// reserveTx re-checks availability and inserts a pending booking. When
// previous is set the new booking continues it and previous is excluded from
// the overlap check.
func (s *slotService) reserveTx(ctx context.Context, tx *repository.TxRepository, cal *providerCalendar, req ReservationRequest, previous *entity.Booking) (*entity.Booking, error) {
	w := scheduling.NewWindow(req.Start, req.DurationMinutes)

	exclude := uuid.Nil
	if previous != nil {
		exclude = previous.ID
	}
	ok, err := s.availability.check(ctx, tx.Booking, cal, w, exclude)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("reserve %s for provider %s: %w", w, req.ProviderID, scheduling.ErrSlotUnavailable)
	}

	now := s.now()
	id := uuid.New()
	b := &entity.Booking{
		BaseNoDelete:    entity.BaseNoDelete{ID: id, CreatedAt: now, UpdatedAt: now},
		BookingNumber:   utils.GenerateBookingNumber(now, id),
		ProviderID:      req.ProviderID,
		ClientID:        req.ClientID,
		ServiceID:       req.ServiceID,
		Start:           req.Start.UTC(),
		DurationMinutes: req.DurationMinutes,
		Status:          entity.BookingStatusPending,
		Price:           req.Price,
		StatusChangedAt: now,
	}

	var reason *string
	if previous != nil {
		from := previous.ID
		b.RescheduledFromID = &from
		b.RescheduleCount = previous.RescheduleCount + 1
		reason = optionalReason("rescheduled from " + previous.BookingNumber)
	}

	if err := tx.Booking.Create(ctx, b); err != nil {
		return nil, err
	}
	if err := tx.History.Create(ctx, newHistory(ctx, b.ID, entity.BookingActionCreated, nil, b.Status, reason, now)); err != nil {
		return nil, err
	}
	return b, nil
}

func recordReservation(err error, elapsed time.Duration) {
	outcome := metrics.OutcomeReserved
	switch {
	case err == nil:
	case errors.Is(err, scheduling.ErrSlotUnavailable):
		outcome = metrics.OutcomeUnavailable
	case errors.Is(err, scheduling.ErrReservationTimeout):
		outcome = metrics.OutcomeTimeout
	default:
		outcome = metrics.OutcomeError
	}
	metrics.RecordReservation(outcome, elapsed.Seconds())
}

func (s *slotService) Release(ctx context.Context, bookingID uuid.UUID, reason string) (*entity.Booking, error) {
	var released *entity.Booking
	err := withBookingLock(ctx, s.repo, s.hours, s.policy.ReservationTimeout, bookingID, nil,
		func(ctx context.Context, tx *repository.TxRepository, _ *providerCalendar, current *entity.Booking) error {
			if !current.Status.IsActive() {
				released = current
				return nil
			}
			b, err := s.releaseTx(ctx, tx, current, optionalReason(reason))
			released = b
			return err
		})
	if err != nil {
		return nil, err
	}
	return released, nil
}

func (s *slotService) releaseTx(ctx context.Context, tx *repository.TxRepository, b *entity.Booking, reason *string) (*entity.Booking, error) {
	return applyTransition(ctx, tx, b, entity.BookingStatusCancelled, reason, s.now())
}

func (s *slotService) NextAvailableSlot(ctx context.Context, providerID uuid.UUID, from time.Time, durationMinutes, granularityMinutes, horizonDays int) (*scheduling.Slot, error) {
	if horizonDays <= 0 {
		horizonDays = s.policy.SlotSearchHorizonDays
	}
	if now := s.now(); from.Before(now) {
		from = now
	}

	cal, err := s.hours.calendar(ctx, providerID)
	if err != nil {
		return nil, err
	}

	// walk a week at a time so an early hit avoids loading the whole horizon
	first := scheduling.LocalDate(from, cal.loc)
	for offset := 0; offset < horizonDays; offset += 7 {
		start := first.AddDate(0, 0, offset)
		end := first.AddDate(0, 0, min(offset+7, horizonDays)-1)

		seq, err := s.GenerateSlots(ctx, providerID, DateRange{From: start, To: end}, durationMinutes, granularityMinutes)
		if err != nil {
			return nil, err
		}
		for slot := range seq {
			if !slot.Start.Before(from) {
				return &slot, nil
			}
		}
	}
	return nil, nil
}

func (s *slotService) DayStats(ctx context.Context, providerID uuid.UUID, date time.Time) (*DayStats, error) {
	cal, err := s.hours.calendar(ctx, providerID)
	if err != nil {
		return nil, err
	}

	day := localDate(date, cal.loc)
	open := cal.openOn(day)
	bookings, err := s.repo.Booking.FindActiveOverlapping(ctx, providerID, day, day.AddDate(0, 0, 1), uuid.Nil)
	if err != nil {
		return nil, err
	}

	stats := &DayStats{Date: day.Format(entity.DateLayout), Bookings: len(bookings)}
	for _, o := range open {
		stats.OpenMinutes += int(o.Duration().Minutes())
		for _, b := range bookings {
			stats.BookedMinutes += int(overlap(o, bookingWindow(b)).Minutes())
		}
	}
	stats.FreeMinutes = stats.OpenMinutes - stats.BookedMinutes
	if stats.OpenMinutes > 0 {
		stats.Utilization = float64(stats.BookedMinutes) / float64(stats.OpenMinutes)
	}
	return stats, nil
}

func overlap(a, b scheduling.Window) time.Duration {
	start, end := a.Start, a.End
	if b.Start.After(start) {
		start = b.Start
	}
	if b.End.Before(end) {
		end = b.End
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}

// withBookingLock loads the booking, takes the locks for its dates plus any
// extra windows, then re-reads the row inside the transaction and hands it
// to fn.
func withBookingLock(
	ctx context.Context,
	repo *repository.Repository,
	hours *workingHoursService,
	timeout time.Duration,
	bookingID uuid.UUID,
	extra []scheduling.Window,
	fn func(ctx context.Context, tx *repository.TxRepository, cal *providerCalendar, current *entity.Booking) error,
) error {
	b, err := repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("booking %s: %w", bookingID, scheduling.ErrBookingNotFound)
	}

	cal, err := hours.calendar(ctx, b.ProviderID)
	if err != nil {
		return err
	}

	windows := append([]scheduling.Window{bookingWindow(b)}, extra...)
	return repo.Tx.WithReservationLock(ctx, cal.lockKeys(windows...), timeout, func(ctx context.Context, tx *repository.TxRepository) error {
		current, err := tx.Booking.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("booking %s: %w", bookingID, scheduling.ErrBookingNotFound)
		}
		return fn(ctx, tx, cal, current)
	})
}
