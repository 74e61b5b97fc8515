package pipeline

import (
	"context"
	"time"
)

// Pacer spaces out remote calls.
type Pacer interface {
	// Pause blocks for the pacing interval. It returns ctx.Err() if the
	// context ends first.
	Pause(ctx context.Context) error
}

// DelayPacer pauses for a fixed delay.
type DelayPacer struct {
	Delay time.Duration
}

// Pause waits for p.Delay or until ctx is done.
func (p DelayPacer) Pause(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
