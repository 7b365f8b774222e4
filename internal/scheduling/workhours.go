package scheduling

import (
	"time"

	"appointment-booking/internal/data/entity"
)

// LocalDate truncates t to midnight of its calendar date in loc.
func LocalDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// OpenWindows resolves the schedule for one provider-local calendar date into
// absolute windows, ordered by start. Clock minutes are placed on the wall
// clock of loc so DST days keep their local hours.
func OpenWindows(schedule *entity.WorkingSchedule, date time.Time, loc *time.Location) []Window {
	y, m, d := date.Date()
	local := time.Date(y, m, d, 0, 0, 0, 0, loc)

	intervals := schedule.IntervalsFor(local)
	if len(intervals) == 0 {
		return nil
	}

	windows := make([]Window, 0, len(intervals))
	for _, iv := range intervals {
		windows = append(windows, Window{
			Start: atMinute(y, m, d, iv.StartMinute, loc),
			End:   atMinute(y, m, d, iv.EndMinute, loc),
		})
	}
	return windows
}

func atMinute(y int, m time.Month, d, minute int, loc *time.Location) time.Time {
	return time.Date(y, m, d, minute/60, minute%60, 0, 0, loc)
}

// DatesTouched lists every provider-local date that w covers, in order.
func DatesTouched(w Window, loc *time.Location) []time.Time {
	first := LocalDate(w.Start, loc)
	last := first
	if w.End.After(w.Start) {
		last = LocalDate(w.End.Add(-time.Nanosecond), loc)
	}

	var dates []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// OpenWindowsAround resolves open windows for every date w touches.
func OpenWindowsAround(schedule *entity.WorkingSchedule, w Window, loc *time.Location) []Window {
	var windows []Window
	for _, d := range DatesTouched(w, loc) {
		windows = append(windows, OpenWindows(schedule, d, loc)...)
	}
	return windows
}
