// Package clock provides the 32-bit monotonic millisecond counter used for
// fetch scheduling and receive deadlines.
package clock

import "time"

// Clock reports a monotonic millisecond counter that wraps after ~49 days.
type Clock interface {
	Millis() uint32
}

// Monotonic counts milliseconds since it was created using Go's monotonic clock.
type Monotonic struct {
	start time.Time
}

func NewMonotonic() *Monotonic { return &Monotonic{start: time.Now()} }

func (m *Monotonic) Millis() uint32 {
	return uint32(time.Since(m.start).Milliseconds())
}

// Since returns now-then in milliseconds. Unsigned subtraction keeps the
// result correct across a counter wraparound.
func Since(now, then uint32) uint32 { return now - then }

// Elapsed reports whether at least d has passed between then and now.
func Elapsed(now, then uint32, d time.Duration) bool {
	return Since(now, then) >= uint32(d.Milliseconds())
}
