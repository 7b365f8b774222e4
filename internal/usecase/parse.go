package usecase

import (
	"fmt"
	"strings"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/scheduling"
	"appointment-booking/pkg/utils"

	"github.com/google/uuid"
)

// Clock returns the current instant; tests replace it.
type Clock func() time.Time

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, scheduling.NewValidationError(field, "%q is not a valid UUID", value)
	}
	return id, nil
}

func parseDate(field, value string) (time.Time, error) {
	d, err := time.Parse(entity.DateLayout, value)
	if err != nil {
		return time.Time{}, scheduling.NewValidationError(field, "%q is not a YYYY-MM-DD date", value)
	}
	return d, nil
}

// parseClock reads HH:MM into minutes since midnight. "24:00" is accepted.
func parseClock(value string) (int, error) {
	if value == "24:00" {
		return entity.MinutesPerDay, nil
	}
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("%q is not HH:MM", value)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func validateRequest(req any) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return &scheduling.ValidationError{Reason: utils.FormatValidationErrors(errs)}
	}
	return nil
}

func weekdayByName(name string) (time.Weekday, bool) {
	d, ok := weekdays[strings.ToLower(name)]
	return d, ok
}
