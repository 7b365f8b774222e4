package usecase

import (
	"context"
	"fmt"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/dto/request"
	"appointment-booking/internal/scheduling"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type WorkingHoursService interface {
	// GetOpenIntervals resolves the provider's hours for one calendar date.
	// Only the year, month and day of date are used, read as a date in the
	// provider's timezone. The result is ordered and may be empty.
	GetOpenIntervals(ctx context.Context, providerID uuid.UUID, date time.Time) ([]scheduling.Window, error)
	GetSchedule(ctx context.Context, providerID string) (*entity.WorkingSchedule, error)
	SetSchedule(ctx context.Context, providerID string, req *request.SetScheduleRequest) (*entity.WorkingSchedule, error)
}

type workingHoursService struct {
	repo *repository.Repository
	now  Clock
	log  *zap.Logger
}

func NewWorkingHoursService(repo *repository.Repository, now Clock, log *zap.Logger) WorkingHoursService {
	return newWorkingHoursService(repo, now, log)
}

func newWorkingHoursService(repo *repository.Repository, now Clock, log *zap.Logger) *workingHoursService {
	return &workingHoursService{
		repo: repo,
		now:  now,
		log:  log.With(zap.String("service", "working_hours")),
	}
}

// providerCalendar is everything needed to place a provider's hours on the
// absolute timeline.
type providerCalendar struct {
	provider *entity.Provider
	loc      *time.Location
	schedule *entity.WorkingSchedule
}

func (c *providerCalendar) openOn(date time.Time) []scheduling.Window {
	return scheduling.OpenWindows(c.schedule, date, c.loc)
}

func (c *providerCalendar) openAround(w scheduling.Window) []scheduling.Window {
	return scheduling.OpenWindowsAround(c.schedule, w, c.loc)
}

// lockKeys lists the provider-local dates the windows touch.
func (c *providerCalendar) lockKeys(windows ...scheduling.Window) []repository.LockKey {
	var keys []repository.LockKey
	for _, w := range windows {
		for _, d := range scheduling.DatesTouched(w, c.loc) {
			keys = append(keys, repository.LockKey{ProviderID: c.provider.ID, Date: d.Format(entity.DateLayout)})
		}
	}
	return repository.SortLockKeys(keys)
}

func (s *workingHoursService) calendar(ctx context.Context, providerID uuid.UUID) (*providerCalendar, error) {
	provider, err := s.repo.Directory.FindProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("provider %s: %w", providerID, scheduling.ErrProviderNotFound)
	}

	loc, err := provider.Location()
	if err != nil {
		return nil, scheduling.NewValidationError("timezone", "provider timezone %q is unknown", provider.Timezone)
	}

	schedule, err := s.repo.Schedule.FindByProviderID(ctx, providerID)
	if err != nil {
		s.log.Error("Failed to load working schedule", zap.Error(err), zap.String("provider_id", providerID.String()))
		return nil, err
	}
	if schedule == nil {
		schedule = &entity.WorkingSchedule{ProviderID: providerID}
	}

	return &providerCalendar{provider: provider, loc: loc, schedule: schedule}, nil
}

func (s *workingHoursService) GetOpenIntervals(ctx context.Context, providerID uuid.UUID, date time.Time) ([]scheduling.Window, error) {
	cal, err := s.calendar(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return cal.openOn(date), nil
}

func (s *workingHoursService) GetSchedule(ctx context.Context, providerID string) (*entity.WorkingSchedule, error) {
	id, err := parseID("provider_id", providerID)
	if err != nil {
		return nil, err
	}

	cal, err := s.calendar(ctx, id)
	if err != nil {
		return nil, err
	}
	return cal.schedule, nil
}

func (s *workingHoursService) SetSchedule(ctx context.Context, providerID string, req *request.SetScheduleRequest) (*entity.WorkingSchedule, error) {
	id, err := parseID("provider_id", providerID)
	if err != nil {
		return nil, err
	}

	provider, err := s.repo.Directory.FindProvider(ctx, id)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("provider %s: %w", id, scheduling.ErrProviderNotFound)
	}

	schedule, err := scheduleFromRequest(id, req)
	if err != nil {
		return nil, err
	}
	if err := schedule.Validate(); err != nil {
		s.log.Warn("Rejected working schedule", zap.Error(err), zap.String("provider_id", providerID))
		return nil, scheduling.NewValidationError("schedule", "%s", err)
	}
	schedule.UpdatedAt = s.now()

	if err := s.repo.Schedule.Upsert(ctx, schedule); err != nil {
		s.log.Error("Failed to save working schedule", zap.Error(err), zap.String("provider_id", providerID))
		return nil, err
	}

	s.log.Info("Working schedule updated",
		zap.String("provider_id", providerID),
		zap.Int("weekdays", len(schedule.Weekly)),
		zap.Int("overrides", len(schedule.Overrides)),
	)
	return schedule, nil
}

func scheduleFromRequest(providerID uuid.UUID, req *request.SetScheduleRequest) (*entity.WorkingSchedule, error) {
	schedule := &entity.WorkingSchedule{
		ProviderID: providerID,
		Weekly:     make(map[time.Weekday][]entity.ClockInterval, len(req.Weekly)),
		Overrides:  make(map[string][]entity.ClockInterval, len(req.Overrides)),
	}

	for name, items := range req.Weekly {
		day, ok := weekdayByName(name)
		if !ok {
			return nil, scheduling.NewValidationError("weekly", "%q is not a weekday", name)
		}
		intervals, err := clockIntervals(items)
		if err != nil {
			return nil, scheduling.NewValidationError("weekly."+name, "%s", err)
		}
		schedule.Weekly[day] = intervals
	}

	for date, items := range req.Overrides {
		if _, err := parseDate("overrides", date); err != nil {
			return nil, err
		}
		intervals, err := clockIntervals(items)
		if err != nil {
			return nil, scheduling.NewValidationError("overrides."+date, "%s", err)
		}
		schedule.Overrides[date] = intervals
	}

	return schedule, nil
}

func clockIntervals(items []request.ClockIntervalRequest) ([]entity.ClockInterval, error) {
	intervals := make([]entity.ClockInterval, 0, len(items))
	for _, item := range items {
		start, err := parseClock(item.Start)
		if err != nil {
			return nil, err
		}
		end, err := parseClock(item.End)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, entity.ClockInterval{StartMinute: start, EndMinute: end})
	}
	return intervals, nil
}
