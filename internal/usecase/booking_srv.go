package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/dto/request"
	"appointment-booking/internal/dto/response"
	"appointment-booking/internal/metrics"
	"appointment-booking/internal/scheduling"
	"appointment-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	// Lifecycle
	CreateBooking(ctx context.Context, req *request.CreateBookingRequest) (*entity.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID string) (*entity.Booking, error)
	CancelBooking(ctx context.Context, bookingID string, req *request.CancelBookingRequest) (*entity.Booking, error)
	CompleteBooking(ctx context.Context, bookingID string) (*entity.Booking, error)
	// RescheduleBooking returns the new pending booking.
	RescheduleBooking(ctx context.Context, bookingID string, req *request.RescheduleBookingRequest) (*entity.Booking, error)

	// Read side
	ListAvailableSlots(ctx context.Context, req *request.ListSlotsRequest) ([]scheduling.Slot, error)
	GetBooking(ctx context.Context, bookingID string) (*entity.Booking, error)
	ListProviderBookings(ctx context.Context, providerID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetBookingHistory(ctx context.Context, bookingID string) ([]*entity.BookingHistory, error)

	// Background jobs (dipanggil worker)
	AutoComplete(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error)
	CompleteElapsed(ctx context.Context, limit int) (int, error)
	// ExpireStalePending cancels up to limit pending bookings older than the
	// pending TTL.
	ExpireStalePending(ctx context.Context, limit int) (int, error)
	// SendReminder emits a reminder when the booking is still confirmed and
	// upcoming. It reports whether one was sent.
	SendReminder(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

// ExpiredReason is the cancellation reason of pending bookings that were
// never confirmed in time.
const ExpiredReason = "expired"

type bookingService struct {
	repo      *repository.Repository
	hours     *workingHoursService
	slots     *slotService
	validator BookingValidator
	notifier  Notifier
	followUps FollowUpScheduler
	policy    utils.BookingConfig
	now       Clock
	log       *zap.Logger
}

func newBookingService(
	repo *repository.Repository,
	hours *workingHoursService,
	slots *slotService,
	validator BookingValidator,
	notifier Notifier,
	followUps FollowUpScheduler,
	policy utils.BookingConfig,
	now Clock,
	log *zap.Logger,
) *bookingService {
	return &bookingService{
		repo:      repo,
		hours:     hours,
		slots:     slots,
		validator: validator,
		notifier:  notifier,
		followUps: followUps,
		policy:    policy,
		now:       now,
		log:       log.With(zap.String("service", "booking")),
	}
}

// ==================== LIFECYCLE ====================

func (s *bookingService) CreateBooking(ctx context.Context, req *request.CreateBookingRequest) (*entity.Booking, error) {
	if err := validateRequest(req); err != nil {
		s.log.Warn("Create booking validation failed", zap.Error(err))
		return nil, err
	}

	providerID, err := parseID("provider_id", req.ProviderID)
	if err != nil {
		return nil, err
	}
	clientID, err := parseID("client_id", req.ClientID)
	if err != nil {
		return nil, err
	}
	serviceID, err := parseID("service_id", req.ServiceID)
	if err != nil {
		return nil, err
	}

	service, err := s.validator.ValidateCreate(ctx, CreateInput{
		ProviderID:      providerID,
		ServiceID:       serviceID,
		Start:           req.Start,
		DurationMinutes: req.DurationMinutes,
	}, s.now())
	if err != nil {
		s.log.Warn("Create booking rejected", zap.Error(err), zap.String("provider_id", req.ProviderID))
		return nil, err
	}

	booking, err := s.slots.Reserve(ctx, ReservationRequest{
		ProviderID:      providerID,
		ClientID:        clientID,
		ServiceID:       serviceID,
		Start:           req.Start,
		DurationMinutes: req.DurationMinutes,
		Price:           service.Price,
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition("", string(booking.Status))
	s.notifier.Emit(ctx, scheduling.EventBookingCreated, booking)
	return booking, nil
}

func (s *bookingService) ConfirmBooking(ctx context.Context, bookingID string) (*entity.Booking, error) {
	id, err := parseID("booking_id", bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.transition(ctx, id, entity.BookingStatusConfirmed, nil, func(current *entity.Booking) error {
		return s.validator.ValidateConfirmation(current, s.now())
	})
	if err != nil {
		return nil, err
	}

	if err := s.followUps.ScheduleCompletion(ctx, booking); err != nil {
		// sweep job masih akan menyelesaikan booking ini
		s.log.Warn("Failed to schedule completion", zap.Error(err), zap.String("booking_id", bookingID))
	}
	if err := s.followUps.ScheduleReminders(ctx, booking); err != nil {
		s.log.Warn("Failed to schedule reminders", zap.Error(err), zap.String("booking_id", bookingID))
	}
	return booking, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID string, req *request.CancelBookingRequest) (*entity.Booking, error) {
	if req == nil {
		req = &request.CancelBookingRequest{}
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	id, err := parseID("booking_id", bookingID)
	if err != nil {
		return nil, err
	}

	var (
		from      entity.BookingStatus
		cancelled *entity.Booking
		changed   bool
	)
	err = withBookingLock(ctx, s.repo, s.hours, s.policy.ReservationTimeout, id, nil,
		func(ctx context.Context, tx *repository.TxRepository, _ *providerCalendar, current *entity.Booking) error {
			if current.Status == entity.BookingStatusCancelled {
				cancelled = current
				return nil
			}
			if err := scheduling.Transition(current.Status, entity.BookingStatusCancelled); err != nil {
				return err
			}
			if err := s.validator.ValidateCancellation(current, s.now()); err != nil {
				return err
			}

			from = current.Status
			b, err := s.slots.releaseTx(ctx, tx, current, optionalReason(req.Reason))
			if err != nil {
				return err
			}
			cancelled, changed = b, true
			return nil
		})
	if err != nil {
		s.log.Warn("Cancel booking failed", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, err
	}

	if changed {
		s.committed(ctx, from, cancelled)
	}
	return cancelled, nil
}

func (s *bookingService) CompleteBooking(ctx context.Context, bookingID string) (*entity.Booking, error) {
	id, err := parseID("booking_id", bookingID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, id, entity.BookingStatusCompleted, nil, nil)
}

func (s *bookingService) RescheduleBooking(ctx context.Context, bookingID string, req *request.RescheduleBookingRequest) (*entity.Booking, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	id, err := parseID("booking_id", bookingID)
	if err != nil {
		return nil, err
	}
	if err := scheduling.CheckWindow(req.Start, req.DurationMinutes, s.now()); err != nil {
		return nil, err
	}

	target := scheduling.NewWindow(req.Start, req.DurationMinutes)
	started := time.Now()

	var old, next *entity.Booking
	err = withBookingLock(ctx, s.repo, s.hours, s.policy.ReservationTimeout, id, []scheduling.Window{target},
		func(ctx context.Context, tx *repository.TxRepository, cal *providerCalendar, current *entity.Booking) error {
			if err := scheduling.Transition(current.Status, entity.BookingStatusRescheduled); err != nil {
				return err
			}
			now := s.now()
			if err := s.validator.ValidateReschedule(ctx, current, req.Start, req.DurationMinutes, now); err != nil {
				return err
			}

			moved, err := applyTransition(ctx, tx, current, entity.BookingStatusRescheduled, nil, now)
			if err != nil {
				return err
			}
			created, err := s.slots.reserveTx(ctx, tx, cal, ReservationRequest{
				ProviderID:      current.ProviderID,
				ClientID:        current.ClientID,
				ServiceID:       current.ServiceID,
				Start:           req.Start,
				DurationMinutes: req.DurationMinutes,
				Price:           current.Price,
			}, current)
			if err != nil {
				return err
			}
			old, next = moved, created
			return nil
		})
	recordReservation(err, time.Since(started))
	if err != nil {
		s.log.Warn("Reschedule booking failed",
			zap.Error(err),
			zap.String("booking_id", bookingID),
			zap.Stringer("window", target),
		)
		return nil, err
	}

	s.log.Info("Booking rescheduled",
		zap.String("from_booking_id", old.ID.String()),
		zap.String("to_booking_id", next.ID.String()),
		zap.Stringer("window", target),
	)
	metrics.RecordTransition(string(entity.BookingStatusConfirmed), string(old.Status))
	metrics.RecordTransition("", string(next.Status))
	s.notifier.Emit(ctx, scheduling.EventBookingRescheduled, next)
	return next, nil
}

// transition runs the generic status change: lock, re-read, transition
// check, optional guard, update plus history, then the post-commit effects.
func (s *bookingService) transition(ctx context.Context, id uuid.UUID, to entity.BookingStatus, reason *string, guard func(current *entity.Booking) error) (*entity.Booking, error) {
	var (
		from    entity.BookingStatus
		updated *entity.Booking
	)
	err := withBookingLock(ctx, s.repo, s.hours, s.policy.ReservationTimeout, id, nil,
		func(ctx context.Context, tx *repository.TxRepository, _ *providerCalendar, current *entity.Booking) error {
			if err := scheduling.Transition(current.Status, to); err != nil {
				return err
			}
			if guard != nil {
				if err := guard(current); err != nil {
					return err
				}
			}

			from = current.Status
			b, err := applyTransition(ctx, tx, current, to, reason, s.now())
			updated = b
			return err
		})
	if err != nil {
		s.log.Warn("Booking transition failed",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("to", string(to)),
		)
		return nil, err
	}

	s.committed(ctx, from, updated)
	return updated, nil
}

func (s *bookingService) committed(ctx context.Context, from entity.BookingStatus, b *entity.Booking) {
	s.log.Info("Booking status changed",
		zap.String("booking_id", b.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(b.Status)),
	)
	metrics.RecordTransition(string(from), string(b.Status))
	s.notifier.Emit(ctx, scheduling.EventFor(scheduling.ActionFor(b.Status)), b)
}

// ==================== READ SIDE ====================

func (s *bookingService) ListAvailableSlots(ctx context.Context, req *request.ListSlotsRequest) ([]scheduling.Slot, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	providerID, err := parseID("provider_id", req.ProviderID)
	if err != nil {
		return nil, err
	}
	from, err := parseDate("from", req.From)
	if err != nil {
		return nil, err
	}
	to, err := parseDate("to", req.To)
	if err != nil {
		return nil, err
	}

	granularity := req.GranularityMinutes
	if granularity == 0 {
		granularity = s.policy.DefaultGranularityMinutes
	}

	seq, err := s.slots.GenerateSlots(ctx, providerID, DateRange{From: from, To: to}, req.DurationMinutes, granularity)
	if err != nil {
		return nil, err
	}

	now := s.now()
	earliest := now.Add(s.policy.MinLeadTime)
	var latest time.Time
	if s.policy.MaxAdvance > 0 {
		latest = now.Add(s.policy.MaxAdvance)
	}

	slots := make([]scheduling.Slot, 0)
	for slot := range seq {
		if slot.Start.Before(earliest) {
			continue
		}
		if !latest.IsZero() && slot.Start.After(latest) {
			break
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID string) (*entity.Booking, error) {
	id, err := parseID("booking_id", bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get booking", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, scheduling.ErrBookingNotFound)
	}
	return booking, nil
}

func (s *bookingService) ListProviderBookings(ctx context.Context, providerID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	id, err := parseID("provider_id", providerID)
	if err != nil {
		return nil, err
	}

	limit := req.Limit()
	offset := req.Offset()

	bookings, err := s.repo.Booking.FindByProvider(ctx, id, limit, offset)
	if err != nil {
		s.log.Error("Failed to list provider bookings",
			zap.Error(err),
			zap.String("provider_id", providerID),
			zap.Int("page", req.Page),
			zap.Int("per_page", req.PerPage),
		)
		return nil, fmt.Errorf("list provider bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByProvider(ctx, id)
	if err != nil {
		s.log.Error("Failed to count provider bookings", zap.Error(err))
		return nil, fmt.Errorf("count provider bookings: %w", err)
	}

	data := make([]response.BookingResponse, len(bookings))
	for i, b := range bookings {
		data[i] = response.NewBookingResponse(b)
	}

	return response.NewPaginatedResponse(data, max(req.Page, 1), limit, total), nil
}

func (s *bookingService) GetBookingHistory(ctx context.Context, bookingID string) ([]*entity.BookingHistory, error) {
	booking, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.History.FindByBookingID(ctx, booking.ID)
	if err != nil {
		s.log.Error("Failed to get booking history", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, err
	}
	return history, nil
}

// ==================== BACKGROUND ====================

// AutoComplete completes a confirmed booking whose end has passed.
func (s *bookingService) AutoComplete(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error) {
	ctx = utils.SetActorContext(ctx, utils.SystemActor)
	return s.transition(ctx, bookingID, entity.BookingStatusCompleted, nil, func(current *entity.Booking) error {
		if end := current.End(); end.After(s.now()) {
			return scheduling.NewValidationError("booking", "booking ends at %s", end.Format(time.RFC3339))
		}
		return nil
	})
}

// CompleteElapsed completes up to limit confirmed bookings that have ended.
// Bookings that moved on concurrently are skipped.
func (s *bookingService) CompleteElapsed(ctx context.Context, limit int) (int, error) {
	due, err := s.repo.Booking.FindConfirmedEndedBefore(ctx, s.now(), limit)
	if err != nil {
		s.log.Error("Failed to load elapsed bookings", zap.Error(err))
		return 0, err
	}

	var (
		done int
		errs []error
	)
	for _, b := range due {
		_, err := s.AutoComplete(ctx, b.ID)
		switch {
		case err == nil:
			done++
		case errors.Is(err, scheduling.ErrInvalidStateTransition), errors.Is(err, scheduling.ErrBookingNotFound):
		default:
			errs = append(errs, fmt.Errorf("complete booking %s: %w", b.ID, err))
		}
	}

	if done > 0 {
		s.log.Info("Elapsed bookings completed", zap.Int("completed", done), zap.Int("due", len(due)))
	}
	return done, errors.Join(errs...)
}

// ExpireStalePending cancels pending bookings that outlived the pending TTL
// so their windows become bookable again.
func (s *bookingService) ExpireStalePending(ctx context.Context, limit int) (int, error) {
	ttl := s.policy.PendingTTL
	if ttl <= 0 {
		return 0, nil
	}

	stale, err := s.repo.Booking.FindPendingCreatedBefore(ctx, s.now().Add(-ttl), limit)
	if err != nil {
		s.log.Error("Failed to load stale pending bookings", zap.Error(err))
		return 0, err
	}

	ctx = utils.SetActorContext(ctx, utils.SystemActor)
	var (
		done int
		errs []error
	)
	for _, b := range stale {
		expired, err := s.expire(ctx, b.ID)
		switch {
		case err == nil:
			if expired {
				done++
			}
		case errors.Is(err, scheduling.ErrBookingNotFound):
		default:
			errs = append(errs, fmt.Errorf("expire booking %s: %w", b.ID, err))
		}
	}

	if done > 0 {
		s.log.Info("Stale pending bookings expired", zap.Int("expired", done), zap.Int("due", len(stale)))
	}
	return done, errors.Join(errs...)
}

// expire cancels one booking if it is still pending past its TTL after
// re-reading it under the lock.
func (s *bookingService) expire(ctx context.Context, id uuid.UUID) (bool, error) {
	var expired *entity.Booking
	err := withBookingLock(ctx, s.repo, s.hours, s.policy.ReservationTimeout, id, nil,
		func(ctx context.Context, tx *repository.TxRepository, _ *providerCalendar, current *entity.Booking) error {
			if !pendingExpired(current, s.policy.PendingTTL, s.now()) {
				return nil
			}
			b, err := s.slots.releaseTx(ctx, tx, current, optionalReason(ExpiredReason))
			expired = b
			return err
		})
	if err != nil {
		return false, err
	}
	if expired == nil {
		return false, nil
	}

	s.committed(ctx, entity.BookingStatusPending, expired)
	return true, nil
}

func (s *bookingService) SendReminder(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return false, err
	}
	if booking == nil {
		return false, fmt.Errorf("booking %s: %w", bookingID, scheduling.ErrBookingNotFound)
	}

	// dibatalkan, dipindah, atau sudah lewat: tidak perlu diingatkan
	if booking.Status != entity.BookingStatusConfirmed || !booking.Start.After(s.now()) {
		s.log.Debug("Reminder skipped",
			zap.String("booking_id", bookingID.String()),
			zap.String("status", string(booking.Status)),
		)
		return false, nil
	}

	s.notifier.Emit(ctx, scheduling.EventBookingReminder, booking)
	return true, nil
}
