package game

import "time"

type WorldOpt func(*World)

// WithClock replaces the clock used to stamp chat expiry.
func WithClock(now func() time.Time) WorldOpt {
	return func(w *World) {
		w.now = now
	}
}
