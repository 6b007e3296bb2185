package infrastructure

import (
	"sort"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/ports"
)

var _ ports.GuildDirectory = (*GuildDirectory)(nil)

// GuildDirectory lists guilds and voice channels from the discordgo state cache.
type GuildDirectory struct {
	state *discordgo.State
}

// NewGuildDirectory creates a new GuildDirectory.
func NewGuildDirectory(state *discordgo.State) *GuildDirectory {
	return &GuildDirectory{state: state}
}

// Guilds returns every guild in the cache.
func (d *GuildDirectory) Guilds() []ports.GuildInfo {
	d.state.RLock()
	defer d.state.RUnlock()

	guilds := make([]ports.GuildInfo, 0, len(d.state.Guilds))
	for _, g := range d.state.Guilds {
		id, err := snowflake.Parse(g.ID)
		if err != nil {
			continue
		}
		guilds = append(guilds, ports.GuildInfo{ID: id, Name: g.Name})
	}

	sort.Slice(guilds, func(i, j int) bool { return guilds[i].ID < guilds[j].ID })
	return guilds
}

// VoiceChannels returns the voice and stage channels of a guild in display order.
func (d *GuildDirectory) VoiceChannels(guildID snowflake.ID) ([]ports.ChannelInfo, error) {
	guild, err := d.state.Guild(guildID.String())
	if err != nil {
		return nil, errors.Wrapf(ports.ErrGuildNotFound, "guild %s", guildID)
	}

	d.state.RLock()
	defer d.state.RUnlock()

	channels := make([]ports.ChannelInfo, 0)
	for _, ch := range guild.Channels {
		if !isVoiceChannel(ch) {
			continue
		}
		id, err := snowflake.Parse(ch.ID)
		if err != nil {
			continue
		}
		channels = append(channels, ports.ChannelInfo{ID: id, Name: ch.Name, Position: ch.Position})
	}

	sort.SliceStable(channels, func(i, j int) bool {
		return channels[i].Position < channels[j].Position
	})
	return channels, nil
}

// VoiceChannel returns a voice channel of guildID.
func (d *GuildDirectory) VoiceChannel(guildID, channelID snowflake.ID) (*ports.ChannelInfo, error) {
	if _, err := d.state.Guild(guildID.String()); err != nil {
		return nil, errors.Wrapf(ports.ErrGuildNotFound, "guild %s", guildID)
	}

	ch, err := d.state.Channel(channelID.String())
	if err != nil || ch.GuildID != guildID.String() || !isVoiceChannel(ch) {
		return nil, errors.Wrapf(ports.ErrChannelNotFound, "channel %s", channelID)
	}

	return &ports.ChannelInfo{ID: channelID, Name: ch.Name, Position: ch.Position}, nil
}

func isVoiceChannel(ch *discordgo.Channel) bool {
	return ch.Type == discordgo.ChannelTypeGuildVoice || ch.Type == discordgo.ChannelTypeGuildStageVoice
}
