package data

import "time"

// TimeProvider abstracts the clock so repository timestamps can be
// pinned in tests.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider is the system clock.
type RealTimeProvider struct{}

func (*RealTimeProvider) Now() time.Time { return time.Now() }

// FixedTimeProvider always reports the same instant until advanced.
type FixedTimeProvider struct {
	at time.Time
}

// NewFixedTimeProvider pins the clock at t.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{at: t}
}

func (f *FixedTimeProvider) Now() time.Time { return f.at }

// Advance moves the pinned clock forward by d.
func (f *FixedTimeProvider) Advance(d time.Duration) {
	f.at = f.at.Add(d)
}
