package testfixtures

import (
	"context"
	"time"

	"appointment-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fixture bundles a store seeded with one bookable provider that works
// 09:00-17:00 every day and offers one service of 30 or 60 minutes.
type Fixture struct {
	Store    *Store
	Clock    *Clock
	Provider *entity.Provider
	Service  *entity.ProviderService
}

func NewFixture(timezone string) *Fixture {
	store := NewStore()

	provider := &entity.Provider{
		ID:         uuid.New(),
		Name:       "Dr. Rahma",
		Timezone:   timezone,
		IsBookable: true,
	}
	store.AddProvider(provider)

	service := &entity.ProviderService{
		ID:               uuid.New(),
		ProviderID:       provider.ID,
		Name:             "Consultation",
		AllowedDurations: []int{30, 60},
		Price:            decimal.RequireFromString("150000.00"),
		IsActive:         true,
	}
	store.AddService(service)

	repo := store.Repository()
	_ = repo.Schedule.Upsert(context.Background(), DailySchedule(provider.ID, 9*60, 17*60))

	return &Fixture{
		Store:    store,
		Clock:    NewClock(time.Time{}),
		Provider: provider,
		Service:  service,
	}
}

// DailySchedule opens the same interval on every weekday.
func DailySchedule(providerID uuid.UUID, startMinute, endMinute int) *entity.WorkingSchedule {
	weekly := make(map[time.Weekday][]entity.ClockInterval, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		weekly[d] = []entity.ClockInterval{{StartMinute: startMinute, EndMinute: endMinute}}
	}
	return &entity.WorkingSchedule{
		ProviderID: providerID,
		Weekly:     weekly,
		Overrides:  map[string][]entity.ClockInterval{},
	}
}

// At returns the instant of hour:minute on the given day offset from the
// reference date, in UTC.
func At(dayOffset, hour, minute int) time.Time {
	ref := ReferenceTime()
	return time.Date(ref.Year(), ref.Month(), ref.Day()+dayOffset, hour, minute, 0, 0, time.UTC)
}
