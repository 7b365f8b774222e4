package scheduling

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

func TestWindow_Overlaps(t *testing.T) {
	base := Window{Start: at(10, 0), End: at(11, 0)}

	tests := []struct {
		name  string
		other Window
		want  bool
	}{
		{"adjacent after", Window{at(11, 0), at(12, 0)}, false},
		{"adjacent before", Window{at(9, 0), at(10, 0)}, false},
		{"partial overlap", Window{at(10, 30), at(11, 30)}, true},
		{"contained", Window{at(10, 15), at(10, 45)}, true},
		{"containing", Window{at(9, 0), at(12, 0)}, true},
		{"identical", base, true},
		{"disjoint", Window{at(13, 0), at(14, 0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestWindow_Contains(t *testing.T) {
	open := Window{at(9, 0), at(17, 0)}

	assert.True(t, open.Contains(Window{at(9, 0), at(10, 0)}))
	assert.True(t, open.Contains(Window{at(16, 0), at(17, 0)}))
	assert.False(t, open.Contains(Window{at(16, 30), at(17, 30)}))
	assert.False(t, open.Contains(Window{at(8, 30), at(9, 30)}))
}

func TestCheckWindow(t *testing.T) {
	now := at(8, 0)

	assert.NoError(t, CheckWindow(at(9, 0), 60, now))
	assert.NoError(t, CheckWindow(now, 30, now))

	for name, err := range map[string]error{
		"past start":    CheckWindow(at(7, 0), 60, now),
		"zero duration": CheckWindow(at(9, 0), 0, now),
		"negative":      CheckWindow(at(9, 0), -15, now),
		"zero start":    CheckWindow(time.Time{}, 60, now),
	} {
		assert.True(t, errors.Is(err, ErrInvalidWindow), name)
	}
}

func TestErrors_Unwrap(t *testing.T) {
	var err error = &StateTransitionError{From: "completed", To: "cancelled"}
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.Contains(t, err.Error(), "completed")

	tmp := Temporary(errors.New("connection reset"))
	assert.ErrorIs(t, tmp, ErrTemporary)
	assert.Nil(t, Temporary(nil))

	v := NewValidationError("duration_minutes", "duration %d is not offered", 45)
	assert.Equal(t, "validation failed on duration_minutes: duration 45 is not offered", v.Error())
}
