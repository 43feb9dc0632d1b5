package jobs

import "sync/atomic"

// Flight is a single-flight guard: a boolean latch that admits one holder at a
// time. Duplicate acquisitions are benign rejections, not errors.
type Flight struct {
	name string
	held atomic.Bool
}

// NewFlight constructs a named guard.
func NewFlight(name string) *Flight {
	return &Flight{name: name}
}

// Name returns the guard's operation name.
func (f *Flight) Name() string {
	return f.name
}

// TryAcquire takes the guard if it is free. It returns false when another
// operation of the same class is already in flight.
func (f *Flight) TryAcquire() bool {
	return f.held.CompareAndSwap(false, true)
}

// Release frees the guard. Safe to call when the guard is not held.
func (f *Flight) Release() {
	f.held.Store(false)
}

// Held reports whether the guard is currently taken.
func (f *Flight) Held() bool {
	return f.held.Load()
}
