package usecase

import (
	"context"

	"appointment-booking/internal/dto/request"
	"appointment-booking/internal/scheduling"
	"appointment-booking/pkg/utils"

	"go.uber.org/zap"
)

// ProviderService is the provider calendar view used by the HTTP adaptor.
type ProviderService interface {
	CheckAvailability(ctx context.Context, req *request.AvailabilityRequest) (bool, error)
	// NextSlot returns nil when nothing is free within the search horizon.
	NextSlot(ctx context.Context, req *request.NextSlotRequest) (*scheduling.Slot, error)
	GetDayStats(ctx context.Context, req *request.DayStatsRequest) (*DayStats, error)
}

type providerService struct {
	availability AvailabilityService
	slots        SlotService
	policy       utils.BookingConfig
	now          Clock
	log          *zap.Logger
}

func newProviderService(availability AvailabilityService, slots SlotService, policy utils.BookingConfig, now Clock, log *zap.Logger) *providerService {
	return &providerService{
		availability: availability,
		slots:        slots,
		policy:       policy,
		now:          now,
		log:          log.With(zap.String("service", "provider")),
	}
}

func (s *providerService) CheckAvailability(ctx context.Context, req *request.AvailabilityRequest) (bool, error) {
	if err := validateRequest(req); err != nil {
		return false, err
	}
	id, err := parseID("provider_id", req.ProviderID)
	if err != nil {
		return false, err
	}
	return s.availability.IsAvailable(ctx, id, req.Start, req.DurationMinutes)
}

func (s *providerService) NextSlot(ctx context.Context, req *request.NextSlotRequest) (*scheduling.Slot, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	id, err := parseID("provider_id", req.ProviderID)
	if err != nil {
		return nil, err
	}

	from := req.From
	if earliest := s.now().Add(s.policy.MinLeadTime); from.Before(earliest) {
		from = earliest
	}
	granularity := req.GranularityMinutes
	if granularity == 0 {
		granularity = s.policy.DefaultGranularityMinutes
	}

	return s.slots.NextAvailableSlot(ctx, id, from, req.DurationMinutes, granularity, s.policy.SlotSearchHorizonDays)
}

func (s *providerService) GetDayStats(ctx context.Context, req *request.DayStatsRequest) (*DayStats, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	id, err := parseID("provider_id", req.ProviderID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	return s.slots.DayStats(ctx, id, date)
}
