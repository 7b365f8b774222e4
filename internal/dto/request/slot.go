package request

import "time"

// ListSlotsRequest dates are provider-local calendar dates, both inclusive.
type ListSlotsRequest struct {
	ProviderID         string `json:"provider_id" validate:"required,uuid"`
	From               string `json:"from" validate:"required,datetime=2006-01-02"`
	To                 string `json:"to" validate:"required,datetime=2006-01-02"`
	DurationMinutes    int    `json:"duration_minutes" validate:"required,min=1,max=1440"`
	GranularityMinutes int    `json:"granularity_minutes" validate:"omitempty,min=5,max=1440"`
}

type AvailabilityRequest struct {
	ProviderID      string    `json:"provider_id" validate:"required,uuid"`
	Start           time.Time `json:"start" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,min=1,max=1440"`
}

type NextSlotRequest struct {
	ProviderID         string    `json:"provider_id" validate:"required,uuid"`
	From               time.Time `json:"from"`
	DurationMinutes    int       `json:"duration_minutes" validate:"required,min=1,max=1440"`
	GranularityMinutes int       `json:"granularity_minutes" validate:"omitempty,min=5,max=1440"`
}

type DayStatsRequest struct {
	ProviderID string `json:"provider_id" validate:"required,uuid"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
}
