package request

// ClockIntervalRequest uses HH:MM local wall clock; End may be "24:00".
type ClockIntervalRequest struct {
	Start string `json:"start" validate:"required,len=5"`
	End   string `json:"end" validate:"required,len=5"`
}

// SetScheduleRequest keys Weekly by lowercase weekday name and Overrides by
// YYYY-MM-DD. An empty override list closes that date.
type SetScheduleRequest struct {
	Weekly    map[string][]ClockIntervalRequest `json:"weekly"`
	Overrides map[string][]ClockIntervalRequest `json:"overrides"`
}
