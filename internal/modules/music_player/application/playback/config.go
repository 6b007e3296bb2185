package playback

import "time"

const (
	DefaultIdleTimeout      = 300 * time.Second
	DefaultWatchdogInterval = 10 * time.Second
	DefaultVolumePercent    = 50
	MaxVolumePercent        = 200

	// teardownTimeout bounds the sink calls issued while destroying a player.
	teardownTimeout = 5 * time.Second
)

// Config tunes the timing and defaults of every coordinator.
type Config struct {
	IdleTimeout      time.Duration
	WatchdogInterval time.Duration
	VolumePercent    int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:      DefaultIdleTimeout,
		WatchdogInterval: DefaultWatchdogInterval,
		VolumePercent:    DefaultVolumePercent,
	}
}

func (c Config) withDefaults() Config {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.WatchdogInterval <= 0 {
		c.WatchdogInterval = DefaultWatchdogInterval
	}
	if c.VolumePercent < 0 || c.VolumePercent > MaxVolumePercent {
		c.VolumePercent = DefaultVolumePercent
	}
	return c
}
