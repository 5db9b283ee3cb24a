package service

import "time"

// Clock supplies the authoritative current time. Every deadline comparison in
// the engine goes through a Clock; client-supplied timestamps are never
// trusted. Tests inject a fixed implementation.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }
