package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowFree(t *testing.T) {
	open := []Window{{at(9, 0), at(12, 0)}, {at(13, 0), at(17, 0)}}
	busy := []Window{{at(10, 0), at(11, 0)}}

	tests := []struct {
		name string
		w    Window
		want bool
	}{
		{"adjacent to booking", Window{at(11, 0), at(12, 0)}, true},
		{"overlapping booking", Window{at(10, 30), at(11, 30)}, false},
		{"spans lunch break", Window{at(11, 30), at(13, 30)}, false},
		{"outside hours", Window{at(17, 0), at(18, 0)}, false},
		{"afternoon", Window{at(13, 0), at(14, 0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WindowFree(tt.w, open, busy))
		})
	}
}
