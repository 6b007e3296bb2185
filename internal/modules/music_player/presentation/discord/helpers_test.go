package discord

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/playback"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/tagilla/internal/modules/music_player/domain"
)

const (
	testGuildID   = snowflake.ID(1)
	testChannelID = snowflake.ID(10)
	testUserID    = snowflake.ID(100)
	testBotID     = snowflake.ID(999)
	waitFor       = 2 * time.Second
	tick          = 5 * time.Millisecond
)

type stubConn struct {
	guildID   snowflake.ID
	channelID snowflake.ID
}

func (c stubConn) GuildID() snowflake.ID   { return c.guildID }
func (c stubConn) ChannelID() snowflake.ID { return c.channelID }

// stubSink plays every track until it is stopped.
type stubSink struct {
	mu         sync.Mutex
	plays      int
	onComplete ports.CompletionFunc
}

func (s *stubSink) Connect(_ context.Context, guildID, channelID snowflake.ID) (ports.SinkConnection, error) {
	return stubConn{guildID: guildID, channelID: channelID}, nil
}

func (s *stubSink) Play(
	_ context.Context,
	_ ports.SinkConnection,
	_ *domain.Track,
	_ float64,
	onComplete ports.CompletionFunc,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plays++
	s.onComplete = onComplete
	return nil
}

func (s *stubSink) Pause(context.Context, ports.SinkConnection) error  { return nil }
func (s *stubSink) Resume(context.Context, ports.SinkConnection) error { return nil }

func (s *stubSink) Stop(context.Context, ports.SinkConnection) error {
	s.mu.Lock()
	cb := s.onComplete
	s.onComplete = nil
	s.mu.Unlock()
	if cb != nil {
		cb(nil)
	}
	return nil
}

func (s *stubSink) SetVolume(context.Context, ports.SinkConnection, float64) error { return nil }
func (s *stubSink) IsConnected(ports.SinkConnection) bool                         { return true }
func (s *stubSink) IsProducing(ports.SinkConnection) bool                         { return true }
func (s *stubSink) Disconnect(context.Context, ports.SinkConnection) error        { return nil }

func (s *stubSink) playCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plays
}

type stubResolver struct {
	result *ports.LoadResult
	err    error
}

func (r *stubResolver) LoadTracks(_ context.Context, query string) (*ports.LoadResult, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.result != nil {
		return r.result, nil
	}
	return &ports.LoadResult{
		Type: ports.LoadTypeSearch,
		Tracks: []*ports.TrackInfo{
			{
				Encoded:  "encoded-" + query,
				Title:    "Song",
				Artist:   "Artist",
				Duration: 3 * time.Minute,
				URI:      "https://example.com/song",
			},
		},
	}, nil
}

type stubVoiceState map[snowflake.ID]snowflake.ID

func (v stubVoiceState) GetUserVoiceChannel(_, userID snowflake.ID) (*snowflake.ID, error) {
	channelID, ok := v[userID]
	if !ok {
		return nil, nil
	}
	return &channelID, nil
}

func (v stubVoiceState) ChannelMembers(_, channelID snowflake.ID) ([]snowflake.ID, error) {
	var members []snowflake.ID
	for user, channel := range v {
		if channel == channelID {
			members = append(members, user)
		}
	}
	return members, nil
}

type testEnv struct {
	control  *usecases.ControlService
	loader   *usecases.TrackLoaderService
	sink     *stubSink
	resolver *stubResolver
}

func newTestEnv(t *testing.T, voice stubVoiceState) *testEnv {
	t.Helper()

	registry := playback.NewRegistry()
	sink := &stubSink{}
	resolver := &stubResolver{}
	loader := usecases.NewTrackLoaderService(resolver)

	control := usecases.NewControlService(
		registry,
		sink,
		loader,
		voice,
		nil,
		nil,
		playback.Config{
			IdleTimeout:      time.Minute,
			WatchdogInterval: time.Hour,
			VolumePercent:    playback.DefaultVolumePercent,
		},
	)
	t.Cleanup(func() {
		_ = registry.Shutdown(context.Background())
	})

	return &testEnv{
		control:  control,
		loader:   loader,
		sink:     sink,
		resolver: resolver,
	}
}

func commandInteraction(
	name string,
	options ...*discordgo.ApplicationCommandInteractionDataOption,
) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:    discordgo.InteractionApplicationCommand,
			GuildID: testGuildID.String(),
			Member: &discordgo.Member{
				Nick: "alice",
				User: &discordgo.User{ID: testUserID.String(), Username: "alice_"},
			},
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    name,
				Options: options,
			},
		},
	}
}

func stringOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func intOption(name string, value int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionInteger,
		Value: float64(value),
	}
}
