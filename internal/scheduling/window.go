package scheduling

import (
	"fmt"
	"time"
)

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Slot is a candidate window offered to clients. It is never persisted.
type Slot = Window

func NewWindow(start time.Time, durationMinutes int) Window {
	return Window{Start: start, End: start.Add(time.Duration(durationMinutes) * time.Minute)}
}

// Overlaps uses the half-open rule a < d && c < b, so touching windows do not overlap.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

func (w Window) Contains(o Window) bool {
	return !o.Start.Before(w.Start) && !o.End.After(w.End)
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

func (w Window) Equal(o Window) bool {
	return w.Start.Equal(o.Start) && w.End.Equal(o.End)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// CheckWindow rejects non-positive durations and starts earlier than now.
func CheckWindow(start time.Time, durationMinutes int, now time.Time) error {
	if start.IsZero() {
		return fmt.Errorf("%w: start is required", ErrInvalidWindow)
	}
	if durationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %d minutes", ErrInvalidWindow, durationMinutes)
	}
	if start.Before(now) {
		return fmt.Errorf("%w: start %s is in the past", ErrInvalidWindow, start.Format(time.RFC3339))
	}
	return nil
}
