package infrastructure

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
)

// Discord voice websocket close codes that end the voice session for good.
const (
	voiceCloseSessionInvalid = 4006
	voiceCloseDisconnected   = 4014
)

// OnVoiceServerUpdate handles Discord voice server updates.
// This must be called from the Discord event handler.
func (a *LavalinkAdapter) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice server update", "error", err)
		return
	}

	handshake := a.handshake(guildID)
	if creds, ok := handshake.recordServer(event.Token, event.Endpoint); ok {
		a.forwardVoiceCredentials(guildID, creds)
	}
}

// OnVoiceStateUpdate handles Discord voice state updates for the bot user.
// This must be called from the Discord event handler.
func (a *LavalinkAdapter) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	if event.VoiceState == nil || event.UserID != a.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	// Bot left voice, no need to wait for VoiceServerUpdate
	if event.ChannelID == "" {
		a.link.OnVoiceStateUpdate(context.Background(), guildID, nil, event.SessionID)
		a.clearHandshake(guildID)
		if conn := a.lookupConnection(guildID); conn != nil {
			conn.markDisconnected()
		}
		return
	}

	channelID, err := snowflake.Parse(event.ChannelID)
	if err != nil {
		slog.Error("failed to parse channel ID in voice state update", "error", err)
		return
	}

	if conn := a.lookupConnection(guildID); conn != nil && conn.ChannelID() != channelID {
		slog.Info("bot moved to another voice channel", "guild", guildID, "channel", channelID)
		conn.setChannel(channelID)
	}

	handshake := a.handshake(guildID)
	if creds, ok := handshake.recordState(&channelID, event.SessionID); ok {
		a.forwardVoiceCredentials(guildID, creds)
	}
}

func (a *LavalinkAdapter) handshake(guildID snowflake.ID) *voiceHandshake {
	a.handshakeMu.Lock()
	defer a.handshakeMu.Unlock()

	handshake, exists := a.handshakes[guildID]
	if !exists {
		handshake = newVoiceHandshake()
		a.handshakes[guildID] = handshake
	}
	return handshake
}

func (a *LavalinkAdapter) clearHandshake(guildID snowflake.ID) {
	a.handshakeMu.Lock()
	defer a.handshakeMu.Unlock()
	delete(a.handshakes, guildID)
}

// forwardVoiceCredentials sends the voice state and server to Lavalink, in that order.
func (a *LavalinkAdapter) forwardVoiceCredentials(guildID snowflake.ID, creds voiceCredentials) {
	slog.Debug("forwarding voice credentials to Lavalink",
		"guild", guildID,
		"channel", creds.channelID,
		"hasSessionID", creds.sessionID != "",
	)

	a.link.OnVoiceStateUpdate(context.Background(), guildID, creds.channelID, creds.sessionID)
	a.link.OnVoiceServerUpdate(context.Background(), guildID, creds.token, creds.endpoint)
}

func (a *LavalinkAdapter) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	slog.Debug("track started", "guild", player.GuildID(), "track", event.Track.Info.Title)
}

func (a *LavalinkAdapter) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	slog.Debug("track ended", "guild", player.GuildID(), "reason", event.Reason)

	// a replaced track is followed by the start of the next one
	if event.Reason == lavalink.TrackEndReasonReplaced {
		return
	}

	conn := a.lookupConnection(player.GuildID())
	if conn == nil {
		return
	}

	var err error
	if event.Reason == lavalink.TrackEndReasonLoadFailed {
		err = errors.Newf("track %q failed to load", event.Track.Info.Title)
	}
	conn.fire(event.Track.Encoded, err)
}

func (a *LavalinkAdapter) onTrackException(
	player disgolink.Player,
	event lavalink.TrackExceptionEvent,
) {
	slog.Warn("track exception",
		"guild", player.GuildID(),
		"track", event.Track.Info.Title,
		"severity", event.Exception.Severity,
		"error", event.Exception.Message,
	)

	if conn := a.lookupConnection(player.GuildID()); conn != nil {
		conn.recordError(
			event.Track.Encoded,
			errors.Newf("%s (%s)", event.Exception.Message, event.Exception.Severity),
		)
	}
}

func (a *LavalinkAdapter) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	slog.Warn("track stuck", "guild", player.GuildID(), "threshold", event.Threshold)

	conn := a.lookupConnection(player.GuildID())
	if conn == nil {
		return
	}
	conn.recordError(event.Track.Encoded, errors.Newf("track stuck for %v", event.Threshold))

	// listeners run on the node's read loop, so stop from a separate goroutine
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), voiceConnectionTimeout)
		defer cancel()
		if err := player.Update(ctx, lavalink.WithNullTrack()); err != nil {
			slog.Warn("failed to stop stuck track", "guild", player.GuildID(), "error", err)
			conn.fire(event.Track.Encoded, nil)
		}
	}()
}

func (a *LavalinkAdapter) onWebSocketClosed(
	player disgolink.Player,
	event lavalink.WebSocketClosedEvent,
) {
	slog.Warn("voice websocket closed",
		"guild", player.GuildID(),
		"code", event.Code,
		"reason", event.Reason,
		"byRemote", event.ByRemote,
	)

	if event.Code != voiceCloseSessionInvalid && event.Code != voiceCloseDisconnected {
		return
	}
	if conn := a.lookupConnection(player.GuildID()); conn != nil {
		conn.markDisconnected()
	}
}
