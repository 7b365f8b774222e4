package entity

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	// DateLayout is the key format of schedule overrides.
	DateLayout    = "2006-01-02"
	MinutesPerDay = 24 * 60
)

// ClockInterval is a half-open range of minutes since local midnight.
type ClockInterval struct {
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

func (c ClockInterval) Minutes() int {
	return c.EndMinute - c.StartMinute
}

// WorkingSchedule holds a provider's recurring weekly hours plus per-date
// overrides. An override with no intervals marks the date as closed.
type WorkingSchedule struct {
	ProviderID uuid.UUID                        `json:"provider_id" db:"provider_id"`
	Weekly     map[time.Weekday][]ClockInterval `json:"weekly" db:"weekly"`
	Overrides  map[string][]ClockInterval       `json:"overrides" db:"overrides"`
	UpdatedAt  time.Time                        `json:"updated_at" db:"updated_at"`
}

// IntervalsFor returns the clock intervals that apply to the given calendar
// date. Only the year, month and day of date are used.
func (s *WorkingSchedule) IntervalsFor(date time.Time) []ClockInterval {
	if s == nil {
		return nil
	}
	if override, ok := s.Overrides[date.Format(DateLayout)]; ok {
		return override
	}
	return s.Weekly[date.Weekday()]
}

// Validate checks that every list is ordered, in range and non-overlapping.
func (s *WorkingSchedule) Validate() error {
	var errs []error
	for day, intervals := range s.Weekly {
		if day < time.Sunday || day > time.Saturday {
			errs = append(errs, fmt.Errorf("weekday %d is out of range", day))
			continue
		}
		if err := validateIntervals(intervals); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", day, err))
		}
	}
	for date, intervals := range s.Overrides {
		if _, err := time.Parse(DateLayout, date); err != nil {
			errs = append(errs, fmt.Errorf("override %q is not a YYYY-MM-DD date", date))
			continue
		}
		if err := validateIntervals(intervals); err != nil {
			errs = append(errs, fmt.Errorf("override %s: %w", date, err))
		}
	}
	return errors.Join(errs...)
}

func validateIntervals(intervals []ClockInterval) error {
	for i, iv := range intervals {
		if iv.StartMinute < 0 || iv.EndMinute > MinutesPerDay || iv.StartMinute >= iv.EndMinute {
			return fmt.Errorf("interval %d-%d is out of range", iv.StartMinute, iv.EndMinute)
		}
		if i > 0 && intervals[i-1].EndMinute > iv.StartMinute {
			return fmt.Errorf("interval %d-%d overlaps or is out of order", iv.StartMinute, iv.EndMinute)
		}
	}
	return nil
}

// Clone makes a deep copy, used by caches and in-memory stores.
func (s *WorkingSchedule) Clone() *WorkingSchedule {
	if s == nil {
		return nil
	}
	c := &WorkingSchedule{
		ProviderID: s.ProviderID,
		UpdatedAt:  s.UpdatedAt,
		Weekly:     make(map[time.Weekday][]ClockInterval, len(s.Weekly)),
		Overrides:  make(map[string][]ClockInterval, len(s.Overrides)),
	}
	for k, v := range s.Weekly {
		c.Weekly[k] = slices.Clone(v)
	}
	for k, v := range s.Overrides {
		cp := slices.Clone(v)
		if cp == nil {
			cp = []ClockInterval{}
		}
		c.Overrides[k] = cp
	}
	return c
}
