package bot

import (
	"github.com/caarlos0/env/v11"
)

// Config holds the bot configuration loaded from environment variables.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,notEmpty"`

	// CommandGuildID registers slash commands in a single guild instead of
	// globally. Guild commands update instantly, which helps during development.
	CommandGuildID string `env:"DISCORD_COMMAND_GUILD_ID"`

	// ListeningStatus is shown as the bot's "Listening to" activity. Empty
	// leaves the presence unset.
	ListeningStatus string `env:"DISCORD_LISTENING_STATUS" envDefault:"Tagilla 🤺"`
}

// LoadConfig loads configuration from environment variables.
// Returns an error if required fields are missing.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
