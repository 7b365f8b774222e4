package scheduling

import (
	"iter"
	"time"
)

// Slots walks each open window from its start in granularity steps and yields
// every window of the given duration that fits inside it, starts no earlier
// than notBefore and overlaps no busy window. Remainders shorter than
// duration are dropped. The sequence is lazy and can be ranged over again.
func Slots(open, busy []Window, duration, granularity time.Duration, notBefore time.Time) iter.Seq[Slot] {
	return func(yield func(Slot) bool) {
		if duration <= 0 || granularity <= 0 {
			return
		}
		for _, o := range open {
			for s := o.Start; !s.Add(duration).After(o.End); s = s.Add(granularity) {
				if s.Before(notBefore) {
					continue
				}
				candidate := Window{Start: s, End: s.Add(duration)}
				if OverlapsAny(candidate, busy) {
					continue
				}
				if !yield(candidate) {
					return
				}
			}
		}
	}
}
