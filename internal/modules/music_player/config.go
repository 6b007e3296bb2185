package music_player

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/playback"
)

// Config holds the music player module configuration.
type Config struct {
	LavalinkAddress  string `env:"LAVALINK_ADDRESS,notEmpty" validate:"hostname_port"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD,notEmpty"`
	LavalinkSecure   bool   `env:"LAVALINK_SECURE" envDefault:"false"`

	APIEnabled bool   `env:"API_ENABLED" envDefault:"true"`
	APIAddr    string `env:"API_ADDR" envDefault:":5000" validate:"required_if=APIEnabled true"`
	APIToken   string `env:"API_TOKEN" validate:"required_if=APIEnabled true"`

	IdleTimeout      time.Duration `env:"IDLE_TIMEOUT" envDefault:"300s" validate:"gt=0"`
	WatchdogInterval time.Duration `env:"WATCHDOG_INTERVAL" envDefault:"10s" validate:"gt=0"`
	DefaultVolume    int           `env:"DEFAULT_VOLUME" envDefault:"50" validate:"gte=0,lte=200"`
}

// LoadConfig parses the module configuration from the environment and validates it.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse music player config")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid music player config")
	}

	return cfg, nil
}

// PlaybackConfig returns the coordinator settings.
func (c *Config) PlaybackConfig() playback.Config {
	return playback.Config{
		IdleTimeout:      c.IdleTimeout,
		WatchdogInterval: c.WatchdogInterval,
		VolumePercent:    c.DefaultVolume,
	}
}
