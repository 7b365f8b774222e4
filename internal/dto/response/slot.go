package response

import (
	"strings"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/scheduling"
)

type SlotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type AvailabilityResponse struct {
	Available bool      `json:"available"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

type DayStatsResponse struct {
	Date          string  `json:"date"`
	OpenMinutes   int     `json:"open_minutes"`
	BookedMinutes int     `json:"booked_minutes"`
	FreeMinutes   int     `json:"free_minutes"`
	Bookings      int     `json:"bookings"`
	Utilization   float64 `json:"utilization"`
}

type ClockIntervalResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ScheduleResponse struct {
	ProviderID string                             `json:"provider_id"`
	Weekly     map[string][]ClockIntervalResponse `json:"weekly"`
	Overrides  map[string][]ClockIntervalResponse `json:"overrides"`
	UpdatedAt  time.Time                          `json:"updated_at"`
}

func NewScheduleResponse(s *entity.WorkingSchedule) ScheduleResponse {
	resp := ScheduleResponse{
		ProviderID: s.ProviderID.String(),
		Weekly:     make(map[string][]ClockIntervalResponse, len(s.Weekly)),
		Overrides:  make(map[string][]ClockIntervalResponse, len(s.Overrides)),
		UpdatedAt:  s.UpdatedAt,
	}
	for day, intervals := range s.Weekly {
		resp.Weekly[weekdayKey(day)] = clockIntervals(intervals)
	}
	for date, intervals := range s.Overrides {
		resp.Overrides[date] = clockIntervals(intervals)
	}
	return resp
}

func weekdayKey(d time.Weekday) string {
	return strings.ToLower(d.String())
}

func clockIntervals(intervals []entity.ClockInterval) []ClockIntervalResponse {
	out := make([]ClockIntervalResponse, 0, len(intervals))
	for _, iv := range intervals {
		out = append(out, ClockIntervalResponse{Start: FormatClock(iv.StartMinute), End: FormatClock(iv.EndMinute)})
	}
	return out
}

// FormatClock renders minutes since midnight as HH:MM.
func FormatClock(minute int) string {
	if minute == entity.MinutesPerDay {
		return "24:00"
	}
	return time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(minute) * time.Minute).Format("15:04")
}

func NewSlotResponses(slots []scheduling.Slot) []SlotResponse {
	out := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotResponse{Start: s.Start, End: s.End})
	}
	return out
}
