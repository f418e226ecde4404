package clock

import "time"

// SetNow replaces the time source and returns a restore function.
func SetNow(fn func() time.Time) func() {
	orig := now
	now = fn
	return func() { now = orig }
}
