package music_player

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/sglre6355/tagilla/internal/bot"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/playback"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/tagilla/internal/modules/music_player/infrastructure"
	"github.com/sglre6355/tagilla/internal/modules/music_player/presentation/discord"
	"github.com/sglre6355/tagilla/internal/modules/music_player/presentation/rest"
)

const (
	lavalinkConnectTimeout = 15 * time.Second
	shutdownTimeout        = 10 * time.Second
)

func init() {
	bot.Register(&MusicPlayerModule{})
}

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*MusicPlayerModule)(nil)

// MusicPlayerModule provides music playback commands and the HTTP API.
type MusicPlayerModule struct {
	config          *Config
	commandHandlers *discord.CommandHandlers
	autocomplete    *discord.AutocompleteHandler
	eventHandlers   *discord.EventHandlers
	lavalinkAdapter *infrastructure.LavalinkAdapter
	eventBus        *infrastructure.ChannelEventBus
	registry        *playback.Registry
	apiServer       *rest.Server
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// Commands returns the slash commands for this module.
func (m *MusicPlayerModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"play":   m.commandHandlers.HandlePlay,
		"stop":   m.commandHandlers.HandleStop,
		"skip":   m.commandHandlers.HandleSkip,
		"volume": m.commandHandlers.HandleVolume,
		"queue":  m.commandHandlers.HandleQueue,
		"pause":  m.commandHandlers.HandlePause,
		"resume": m.commandHandlers.HandleResume,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *MusicPlayerModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(_ *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			m.lavalinkAdapter.OnVoiceServerUpdate(event)
		},
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			m.lavalinkAdapter.OnVoiceStateUpdate(event)
			m.eventHandlers.HandleVoiceStateUpdate(s, event)
		},
		m.autocomplete.HandleInteraction,
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicPlayerModule) LoadConfig() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init connects to Lavalink and wires the module's services.
func (m *MusicPlayerModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil {
		return errors.New("music_player module requires a Discord session")
	}

	ctx, cancel := context.WithTimeout(context.Background(), lavalinkConnectTimeout)
	defer cancel()

	lavalinkAdapter, err := infrastructure.NewLavalinkAdapter(ctx, deps.Session, infrastructure.LavalinkConfig{
		Address:  m.config.LavalinkAddress,
		Password: m.config.LavalinkPassword,
		Secure:   m.config.LavalinkSecure,
	})
	if err != nil {
		return err
	}
	m.lavalinkAdapter = lavalinkAdapter

	// Create infrastructure
	m.eventBus = infrastructure.NewChannelEventBus(infrastructure.DefaultEventBufferSize)
	m.registry = playback.NewRegistry()
	voiceState := infrastructure.NewVoiceStateProvider(deps.Session.State)
	directory := infrastructure.NewGuildDirectory(deps.Session.State)
	userInfo := infrastructure.NewDiscordUserInfoProvider(deps.Session)

	// Create services
	trackLoader := usecases.NewTrackLoaderService(lavalinkAdapter)
	control := usecases.NewControlService(
		m.registry,
		lavalinkAdapter,
		trackLoader,
		voiceState,
		userInfo,
		m.eventBus,
		m.config.PlaybackConfig(),
	)

	// Create presentation handlers
	m.commandHandlers = discord.NewCommandHandlers(control)
	m.autocomplete = discord.NewAutocompleteHandler(trackLoader)
	m.eventHandlers = discord.NewEventHandlers(lavalinkAdapter.BotID(), control)

	if m.config.APIEnabled {
		m.apiServer = rest.NewServer(rest.Config{
			Addr:  m.config.APIAddr,
			Token: m.config.APIToken,
		}, control, directory, m.eventBus)
		if err := m.apiServer.Start(); err != nil {
			return err
		}
	}

	slog.Info("initialized music_player module",
		"idle_timeout", m.config.IdleTimeout,
		"api_enabled", m.apiServer != nil,
	)

	return nil
}

// Shutdown tears down every player, then stops the API and the Lavalink client.
func (m *MusicPlayerModule) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs error
	if m.registry != nil {
		if err := m.registry.Shutdown(ctx); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
	}

	if m.apiServer != nil {
		if err := m.apiServer.Shutdown(ctx); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
	}

	if m.eventBus != nil {
		m.eventBus.Close()
	}

	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.Close()
	}

	return errs
}
