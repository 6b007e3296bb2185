package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tagilla/internal/bot"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/usecases"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
	colorQueue   = 0x9B59B6
)

// playTimeout bounds voice connection and track resolution for /play.
const playTimeout = 30 * time.Second

// queueDisplayLimit is the number of upcoming tracks listed by /queue.
const queueDisplayLimit = 10

// CommandHandlers holds all the command handlers.
type CommandHandlers struct {
	control *usecases.ControlService
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(control *usecases.ControlService) *CommandHandlers {
	return &CommandHandlers{
		control: control,
	}
}

// HandlePlay handles the /play command. Resolving a track can take a while,
// so the interaction is deferred first and the reply is edited in afterwards.
func (h *CommandHandlers) HandlePlay(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	if i.Member == nil || i.Member.User == nil {
		return respondError(r, "Invalid user")
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return respondError(r, "Invalid user")
	}

	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "query" {
			query = opt.StringValue()
		}
	}

	err = r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), playTimeout)
	defer cancel()

	output, err := h.control.EnqueueBySearch(ctx, usecases.EnqueueInput{
		GuildID:       guildID,
		UserID:        userID,
		Query:         query,
		RequesterName: getDisplayName(i.Member),
	})
	if err != nil {
		logCommandError("play", guildID, err)
		return editError(r, userMessage(err))
	}

	return r.Edit(&discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{queueAddedEmbed(output)},
	})
}

// HandleStop handles the /stop command.
func (h *CommandHandlers) HandleStop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	err = h.control.Stop(context.Background(), usecases.GuildInput{GuildID: guildID})
	if errors.Is(err, usecases.ErrNoActiveSession) {
		return respondError(r, "I'm not currently in a voice channel.")
	}
	if err != nil {
		logCommandError("stop", guildID, err)
		return respondError(r, userMessage(err))
	}

	return respondMessage(r, "🛑 Playback stopped, queue cleared, and disconnected.")
}

// HandleSkip handles the /skip command.
func (h *CommandHandlers) HandleSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	output, err := h.control.Skip(context.Background(), usecases.GuildInput{GuildID: guildID})
	if errors.Is(err, usecases.ErrNoActiveSession) || (err == nil && !output.Skipped) {
		return respondError(r, "I'm not playing anything right now.")
	}
	if err != nil {
		logCommandError("skip", guildID, err)
		return respondError(r, userMessage(err))
	}

	return respondMessage(r, fmt.Sprintf("⏭️ Skipped **%s**.", output.Track.Title))
}

// HandleVolume handles the /volume command.
func (h *CommandHandlers) HandleVolume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	var level int
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "level" {
			level = int(opt.IntValue())
		}
	}

	err = h.control.SetVolume(context.Background(), usecases.SetVolumeInput{
		GuildID: guildID,
		Percent: level,
	})
	if errors.Is(err, usecases.ErrNoActiveSession) {
		return respondError(r, "I'm not connected to a voice channel.")
	}
	if err != nil {
		logCommandError("volume", guildID, err)
		return respondError(r, userMessage(err))
	}

	return respondMessage(r, fmt.Sprintf("🔊 Volume set to **%d%%**.", level))
}

// HandleQueue handles the /queue command.
func (h *CommandHandlers) HandleQueue(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	status := h.control.Status(usecases.StatusInput{
		GuildID: guildID,
		Limit:   queueDisplayLimit,
	})
	if !status.Connected || (status.Snapshot.Current == nil && status.Snapshot.QueueLength == 0) {
		return respondError(r, "The queue is currently empty.")
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{queueEmbed(status.Snapshot)},
		},
	})
}

// HandlePause handles the /pause command.
func (h *CommandHandlers) HandlePause(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	err = h.control.Pause(context.Background(), usecases.GuildInput{GuildID: guildID})
	if errors.Is(err, usecases.ErrNoActiveSession) {
		return respondError(r, "I'm not currently playing anything.")
	}
	if err != nil {
		logCommandError("pause", guildID, err)
		return respondError(r, userMessage(err))
	}

	return respondMessage(r, "⏸️ Playback paused.")
}

// HandleResume handles the /resume command.
func (h *CommandHandlers) HandleResume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	err = h.control.Resume(context.Background(), usecases.GuildInput{GuildID: guildID})
	if errors.Is(err, usecases.ErrNoActiveSession) {
		return respondError(r, "I'm not currently playing anything.")
	}
	if err != nil {
		logCommandError("resume", guildID, err)
		return respondError(r, userMessage(err))
	}

	return respondMessage(r, "▶️ Playback resumed.")
}

// userMessage translates a control error into a message for the channel.
// Internal details stay in the logs.
func userMessage(err error) string {
	var resolutionErr *usecases.ResolutionError
	var connectErr *usecases.SinkConnectError

	switch {
	case errors.Is(err, usecases.ErrUserNotInVoice):
		return "You need to be in a voice channel to start playing music."
	case errors.Is(err, usecases.ErrMissingVoicePermissions):
		return "I don't have permission to connect or speak in that channel."
	case errors.As(err, &connectErr):
		return "Failed to connect to the voice channel."
	case errors.Is(err, usecases.ErrEmptyQuery):
		return "Please provide a song title or URL."
	case errors.As(err, &resolutionErr):
		switch resolutionErr.Kind {
		case usecases.ResolutionNotFound:
			return "No results found for that query."
		case usecases.ResolutionRestricted:
			return "That track is unavailable. It may be private or region-locked."
		case usecases.ResolutionTransient:
			return "The music service is unavailable. Please try again later."
		default:
			return "Could not process that link."
		}
	case errors.Is(err, usecases.ErrNoActiveSession):
		return "I'm not currently in a voice channel."
	case errors.Is(err, usecases.ErrAlreadyPaused):
		return "Playback is already paused."
	case errors.Is(err, usecases.ErrNotPaused):
		return "Playback is already playing."
	case errors.Is(err, usecases.ErrNothingPlaying):
		return "Nothing is currently playing."
	case errors.Is(err, usecases.ErrInvalidVolume):
		return "Volume must be between 0 and 200."
	case errors.Is(err, usecases.ErrInvalidState):
		return "The player is shutting down. Please try again."
	default:
		return "An unexpected error occurred. Please try again later."
	}
}

func logCommandError(command string, guildID snowflake.ID, err error) {
	var resolutionErr *usecases.ResolutionError
	if errors.Is(err, usecases.ErrInvalidState) || errors.Is(err, usecases.ErrUserNotInVoice) ||
		errors.As(err, &resolutionErr) && resolutionErr.Kind != usecases.ResolutionTransient {
		slog.Debug("rejected command", "command", command, "guild", guildID, "error", err)
		return
	}
	slog.Error("failed to handle command", "command", command, "guild", guildID, "error", err)
}

// Response helpers.

func respondError(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Error",
					Description: message,
					Color:       colorError,
				},
			},
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

func editError(r bot.Responder, message string) error {
	return r.Edit(&discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{
			{
				Title:       "Error",
				Description: message,
				Color:       colorError,
			},
		},
	})
}

func respondMessage(r bot.Responder, description string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Description: description,
					Color:       colorSuccess,
				},
			},
		},
	})
}

func queueAddedEmbed(output *usecases.EnqueueOutput) *discordgo.MessageEmbed {
	track := output.Track

	embed := &discordgo.MessageEmbed{
		Title:       "✅ Added to Queue",
		Description: trackLink(track),
		Color:       colorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Duration",
				Value:  track.FormattedDuration(),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Position in queue: %d", output.Position),
		},
	}
	if track.ArtworkURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: track.ArtworkURL}
	}

	return embed
}

func queueEmbed(snap usecases.PlayerSnapshot) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🎵 Music Queue",
		Color: colorQueue,
	}

	nowPlaying := "Nothing currently playing."
	if snap.Current != nil {
		nowPlaying = fmt.Sprintf(
			"%s | `%s` | Requested by: %s",
			trackLink(snap.Current),
			snap.Current.FormattedDuration(),
			requesterMention(snap.Current),
		)
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "▶️ Now Playing",
		Value: nowPlaying,
	})

	if snap.QueueLength == 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "⏭️ Up Next",
			Value: "Queue is empty.",
		})
		return embed
	}

	var sb strings.Builder
	for idx, track := range snap.Queue {
		writeTrackLine(&sb, idx+1, track)
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  fmt.Sprintf("⏭️ Up Next (%d total)", snap.QueueLength),
		Value: sb.String(),
	})

	if remaining := snap.QueueLength - len(snap.Queue); remaining > 0 {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("... and %d more.", remaining),
		}
	}

	return embed
}

// writeTrackLine writes a single queue line to the string builder.
func writeTrackLine(sb *strings.Builder, displayIndex int, track *usecases.Track) {
	fmt.Fprintf(
		sb,
		"`%d.` %s | `%s` | Req by: %s\n",
		displayIndex,
		trackLink(track),
		track.FormattedDuration(),
		requesterMention(track),
	)
}

func trackLink(track *usecases.Track) string {
	if track.URI != "" {
		return fmt.Sprintf("**[%s](%s)**", track.Title, track.URI)
	}
	return fmt.Sprintf("**%s**", track.Title)
}

func requesterMention(track *usecases.Track) string {
	if track.RequesterID != 0 {
		return "<@" + track.RequesterID.String() + ">"
	}
	return track.Requester()
}

// getDisplayName returns the effective display name for a guild member.
// Priority: guild nickname > global display name > username.
func getDisplayName(member *discordgo.Member) string {
	if member == nil {
		return ""
	}
	if member.Nick != "" {
		return member.Nick
	}
	if member.User == nil {
		return ""
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}
