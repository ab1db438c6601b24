package timex

// Reached reports whether now is at or past deadline on a wrapping
// millisecond counter. Deadlines must lie within 2^31 ms of now.
func Reached(now, deadline uint32) bool { return int32(now-deadline) >= 0 }

// Add returns the deadline d milliseconds after now.
func Add(now, d uint32) uint32 { return now + d }
