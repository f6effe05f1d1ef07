package scrape

import (
	"context"
	"time"
)

// Clock abstracts time for the batch polling loop.
// Tests substitute a fake clock so polling runs without real delays.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep blocks for d or until ctx is done, returning ctx.Err() in
	// the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// realClock is the wall-clock implementation of Clock.
type realClock struct{}

// Now implements Clock.
func (realClock) Now() time.Time {
	return time.Now()
}

// Sleep implements Clock.
func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
