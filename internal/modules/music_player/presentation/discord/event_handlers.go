package discord

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/usecases"
)

// EventHandlers handles Discord gateway events for the music player.
type EventHandlers struct {
	botID   snowflake.ID
	control *usecases.ControlService
}

// NewEventHandlers creates a new EventHandlers.
func NewEventHandlers(
	botID snowflake.ID,
	control *usecases.ControlService,
) *EventHandlers {
	return &EventHandlers{
		botID:   botID,
		control: control,
	}
}

// HandleVoiceStateUpdate tears down players whose bot was disconnected or
// whose channel was left empty.
func (h *EventHandlers) HandleVoiceStateUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	input, ok := h.voiceStateChange(event)
	if !ok {
		return
	}
	h.control.HandleVoiceStateChange(input)
}

func (h *EventHandlers) voiceStateChange(
	event *discordgo.VoiceStateUpdate,
) (usecases.VoiceStateChangeInput, bool) {
	if event.VoiceState == nil {
		return usecases.VoiceStateChangeInput{}, false
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return usecases.VoiceStateChangeInput{}, false
	}

	userID, err := snowflake.Parse(event.UserID)
	if err != nil {
		slog.Error("failed to parse user ID in voice state update", "error", err)
		return usecases.VoiceStateChangeInput{}, false
	}

	// Parse the channel IDs - nil means not in voice
	var before *snowflake.ID
	if event.BeforeUpdate != nil {
		before = parseChannelID(event.BeforeUpdate.ChannelID)
	}
	after := parseChannelID(event.ChannelID)

	return usecases.VoiceStateChangeInput{
		GuildID:         guildID,
		UserID:          userID,
		BotID:           h.botID,
		BeforeChannelID: before,
		AfterChannelID:  after,
	}, true
}

func parseChannelID(raw string) *snowflake.ID {
	if raw == "" {
		return nil
	}
	id, err := snowflake.Parse(raw)
	if err != nil {
		slog.Error("failed to parse channel ID in voice state update", "error", err)
		return nil
	}
	return &id
}
