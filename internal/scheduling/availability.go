package scheduling

// WindowFree reports whether w lies entirely inside a single open window and
// overlaps none of the busy windows. All read and write paths share it.
func WindowFree(w Window, open, busy []Window) bool {
	inside := false
	for _, o := range open {
		if o.Contains(w) {
			inside = true
			break
		}
	}
	if !inside {
		return false
	}
	return !OverlapsAny(w, busy)
}

func OverlapsAny(w Window, busy []Window) bool {
	for _, b := range busy {
		if w.Overlaps(b) {
			return true
		}
	}
	return false
}
