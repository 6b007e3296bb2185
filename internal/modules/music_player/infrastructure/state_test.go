package infrastructure

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) *discordgo.State {
	t.Helper()

	state := discordgo.NewState()
	guild := &discordgo.Guild{
		ID:   "100",
		Name: "Test Server",
		Channels: []*discordgo.Channel{
			{ID: "11", GuildID: "100", Name: "Stage", Type: discordgo.ChannelTypeGuildStageVoice, Position: 2},
			{ID: "10", GuildID: "100", Name: "General", Type: discordgo.ChannelTypeGuildVoice, Position: 1},
			{ID: "12", GuildID: "100", Name: "chat", Type: discordgo.ChannelTypeGuildText, Position: 0},
		},
		VoiceStates: []*discordgo.VoiceState{
			{GuildID: "100", UserID: "1", ChannelID: "10"},
			{GuildID: "100", UserID: "2", ChannelID: "10"},
			{GuildID: "100", UserID: "3", ChannelID: "11"},
		},
	}
	require.NoError(t, state.GuildAdd(guild))
	require.NoError(t, state.GuildAdd(&discordgo.Guild{ID: "50", Name: "Another"}))

	return state
}

func TestGuildDirectory_Guilds(t *testing.T) {
	directory := NewGuildDirectory(newTestState(t))

	assert.Equal(t, []ports.GuildInfo{
		{ID: 50, Name: "Another"},
		{ID: 100, Name: "Test Server"},
	}, directory.Guilds())
}

func TestGuildDirectory_VoiceChannels(t *testing.T) {
	directory := NewGuildDirectory(newTestState(t))

	channels, err := directory.VoiceChannels(100)
	require.NoError(t, err)
	assert.Equal(t, []ports.ChannelInfo{
		{ID: 10, Name: "General", Position: 1},
		{ID: 11, Name: "Stage", Position: 2},
	}, channels)

	_, err = directory.VoiceChannels(999)
	assert.ErrorIs(t, err, ports.ErrGuildNotFound)
}

func TestGuildDirectory_VoiceChannel(t *testing.T) {
	directory := NewGuildDirectory(newTestState(t))

	tests := []struct {
		name      string
		guildID   snowflake.ID
		channelID snowflake.ID
		expectErr error
	}{
		{name: "voice channel", guildID: 100, channelID: 10},
		{name: "stage channel", guildID: 100, channelID: 11},
		{name: "text channel", guildID: 100, channelID: 12, expectErr: ports.ErrChannelNotFound},
		{name: "unknown channel", guildID: 100, channelID: 13, expectErr: ports.ErrChannelNotFound},
		{name: "channel of another guild", guildID: 50, channelID: 10, expectErr: ports.ErrChannelNotFound},
		{name: "unknown guild", guildID: 999, channelID: 10, expectErr: ports.ErrGuildNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, err := directory.VoiceChannel(tt.guildID, tt.channelID)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.channelID, ch.ID)
		})
	}
}

func TestVoiceStateProvider_GetUserVoiceChannel(t *testing.T) {
	provider := NewVoiceStateProvider(newTestState(t))

	channelID, err := provider.GetUserVoiceChannel(100, 3)
	require.NoError(t, err)
	require.NotNil(t, channelID)
	assert.Equal(t, snowflake.ID(11), *channelID)

	channelID, err = provider.GetUserVoiceChannel(100, 4)
	require.NoError(t, err)
	assert.Nil(t, channelID)

	_, err = provider.GetUserVoiceChannel(999, 1)
	assert.Error(t, err)
}

func TestVoiceStateProvider_ChannelMembers(t *testing.T) {
	provider := NewVoiceStateProvider(newTestState(t))

	members, err := provider.ChannelMembers(100, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []snowflake.ID{1, 2}, members)

	members, err = provider.ChannelMembers(100, 12)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name   string
		member *discordgo.Member
		want   string
	}{
		{
			name:   "nickname wins",
			member: &discordgo.Member{Nick: "Nick", User: &discordgo.User{Username: "user", GlobalName: "Global"}},
			want:   "Nick",
		},
		{
			name:   "global name",
			member: &discordgo.Member{User: &discordgo.User{Username: "user", GlobalName: "Global"}},
			want:   "Global",
		},
		{
			name:   "username",
			member: &discordgo.Member{User: &discordgo.User{Username: "user"}},
			want:   "user",
		},
		{
			name:   "no user",
			member: &discordgo.Member{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, displayName(tt.member))
		})
	}
}
