package latency

import (
	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/tagilla/internal/bot"
	"github.com/sglre6355/tagilla/internal/modules/latency/presentation"
)

func init() {
	bot.Register(&LatencyModule{})
}

// LatencyModule provides the /ping command.
type LatencyModule struct {
	pingHandler *presentation.PingHandler
}

// Name returns the module name.
func (m *LatencyModule) Name() string {
	return "latency"
}

// Commands returns the slash commands for this module.
func (m *LatencyModule) Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "ping",
			Description: "Check the bot's gateway latency",
		},
	}
}

// CommandHandlers returns the command handlers for this module.
func (m *LatencyModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"ping": m.pingHandler.Handle,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *LatencyModule) EventHandlers() []bot.EventHandler {
	return nil
}

// Init initializes the module.
func (m *LatencyModule) Init(deps bot.ModuleDependencies) error {
	m.pingHandler = presentation.NewPingHandler(presentation.SessionLatency)
	return nil
}

// Shutdown cleans up module resources.
func (m *LatencyModule) Shutdown() error {
	return nil
}
