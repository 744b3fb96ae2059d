// Package clock abstracts time so hold-expiry scheduling is testable.
package clock

import "time"

// Timer is a pending scheduled call. Stop reports whether the call was
// cancelled before firing.
type Timer interface {
	Stop() bool
}

// Clock supplies the current time and deferred execution.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

type realClock struct{}

// New returns a Clock backed by the time package.
func New() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
