// Package sched provides the single logical control thread the player runs
// on. Nothing here blocks the caller: work is deferred with AfterFunc and
// observed through callbacks.
package sched

import (
	"math"
	"time"
)

// Timer is a pending deferred callback.
type Timer interface {
	// Stop cancels the callback. It reports false when the callback already
	// ran or was already stopped; that case is not an error.
	Stop() bool
}

// Scheduler defers callbacks onto the control thread.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Post runs fn on the scheduler's control thread as soon as possible.
func Post(s Scheduler, fn func()) Timer {
	return s.AfterFunc(0, fn)
}

// Stop stops t if it is non-nil.
func Stop(t Timer) {
	if t != nil {
		t.Stop()
	}
}

// Seconds converts a duration in seconds to a time.Duration. Negative and
// NaN inputs give 0; inputs past the range of time.Duration saturate.
func Seconds(s float64) time.Duration {
	if math.IsNaN(s) || s <= 0 {
		return 0
	}
	d := s * float64(time.Second)
	if d >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}
