package playback

import (
	"context"
	"time"
)

// sinkChecker is the part of a coordinator the watchdog drives.
type sinkChecker interface {
	checkSink(ctx context.Context) bool
}

// Watchdog periodically verifies that a coordinator's sink is still alive
// and producing audio.
type Watchdog struct {
	target   sinkChecker
	interval time.Duration
}

// NewWatchdog creates a watchdog that checks target every interval.
func NewWatchdog(target sinkChecker, interval time.Duration) *Watchdog {
	if interval <= 0 {
		interval = DefaultWatchdogInterval
	}
	return &Watchdog{
		target:   target,
		interval: interval,
	}
}

// Run blocks until ctx is cancelled or the target reports it is gone.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !w.target.checkSink(ctx) {
				return
			}
		}
	}
}
