package request

import "time"

type CreateBookingRequest struct {
	ProviderID      string    `json:"provider_id" validate:"required,uuid"`
	ClientID        string    `json:"client_id" validate:"required,uuid"`
	ServiceID       string    `json:"service_id" validate:"required,uuid"`
	Start           time.Time `json:"start" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,min=1,max=1440"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type RescheduleBookingRequest struct {
	Start           time.Time `json:"start" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,min=1,max=1440"`
}
