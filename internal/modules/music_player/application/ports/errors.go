package ports

import "github.com/cockroachdb/errors"

// ErrMissingVoicePermissions is returned by AudioSink.Connect when the bot
// may not connect or speak in the requested channel.
var ErrMissingVoicePermissions = errors.New("missing permission to connect or speak in the voice channel")

var (
	// ErrGuildNotFound is returned by GuildDirectory when the bot is not a member of the guild.
	ErrGuildNotFound = errors.New("guild not found")
	// ErrChannelNotFound is returned by GuildDirectory when the channel does
	// not exist or is not a voice channel.
	ErrChannelNotFound = errors.New("voice channel not found")
)
