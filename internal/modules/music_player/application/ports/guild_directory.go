package ports

import "github.com/disgoorg/snowflake/v2"

// GuildDirectory lists the guilds and voice channels visible to the bot.
type GuildDirectory interface {
	Guilds() []GuildInfo

	// VoiceChannels returns the voice channels of guildID sorted by position.
	VoiceChannels(guildID snowflake.ID) ([]ChannelInfo, error)

	// VoiceChannel returns a single voice channel, or an error if it does not
	// exist or is not a voice channel.
	VoiceChannel(guildID, channelID snowflake.ID) (*ChannelInfo, error)
}
