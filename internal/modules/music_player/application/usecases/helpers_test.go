package usecases

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/playback"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/ports"
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

type mockConn struct {
	guildID   snowflake.ID
	channelID snowflake.ID
}

func (c mockConn) GuildID() snowflake.ID   { return c.guildID }
func (c mockConn) ChannelID() snowflake.ID { return c.channelID }

type mockSink struct {
	mu          sync.Mutex
	connectErr  error
	connects    int
	disconnects int
	plays       []*domain.Track
	onComplete  ports.CompletionFunc
	connected   bool
}

func (m *mockSink) Connect(_ context.Context, guildID, channelID snowflake.ID) (ports.SinkConnection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connects++
	if m.connectErr != nil {
		return nil, m.connectErr
	}
	// give concurrent callers a chance to pile up
	time.Sleep(10 * time.Millisecond)
	m.connected = true
	return mockConn{guildID: guildID, channelID: channelID}, nil
}

func (m *mockSink) Play(
	_ context.Context,
	_ ports.SinkConnection,
	track *domain.Track,
	_ float64,
	onComplete ports.CompletionFunc,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plays = append(m.plays, track)
	m.onComplete = onComplete
	return nil
}

func (m *mockSink) Pause(context.Context, ports.SinkConnection) error  { return nil }
func (m *mockSink) Resume(context.Context, ports.SinkConnection) error { return nil }

func (m *mockSink) Stop(context.Context, ports.SinkConnection) error {
	m.mu.Lock()
	cb := m.onComplete
	m.onComplete = nil
	m.mu.Unlock()
	if cb != nil {
		cb(nil)
	}
	return nil
}

func (m *mockSink) SetVolume(context.Context, ports.SinkConnection, float64) error { return nil }

func (m *mockSink) IsConnected(ports.SinkConnection) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockSink) IsProducing(ports.SinkConnection) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.onComplete != nil
}

func (m *mockSink) Disconnect(context.Context, ports.SinkConnection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnects++
	m.connected = false
	return nil
}

func (m *mockSink) stats() (connects, disconnects, plays int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connects, m.disconnects, len(m.plays)
}

type mockTrackResolver struct {
	loadErr    error
	loadResult *ports.LoadResult
	queries    []string
	mu         sync.Mutex
}

func (m *mockTrackResolver) LoadTracks(_ context.Context, query string) (*ports.LoadResult, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()

	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.loadResult, nil
}

func singleTrackResult(title string) *ports.LoadResult {
	return &ports.LoadResult{
		Type: ports.LoadTypeSearch,
		Tracks: []*ports.TrackInfo{
			{
				Identifier: "id-" + title,
				Encoded:    "encoded-" + title,
				Title:      title,
				Artist:     "Artist",
				Duration:   3 * time.Minute,
				URI:        "https://example.com/" + title,
				SourceName: "youtube",
			},
		},
	}
}

type mockVoiceStateProvider struct {
	mu       sync.Mutex
	channels map[snowflake.ID]snowflake.ID // userID -> channelID
	err      error
}

func (m *mockVoiceStateProvider) GetUserVoiceChannel(_, userID snowflake.ID) (*snowflake.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	channelID, ok := m.channels[userID]
	if !ok {
		return nil, nil
	}
	return &channelID, nil
}

func (m *mockVoiceStateProvider) ChannelMembers(_, channelID snowflake.ID) ([]snowflake.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var members []snowflake.ID
	for user, channel := range m.channels {
		if channel == channelID {
			members = append(members, user)
		}
	}
	return members, nil
}

func (m *mockVoiceStateProvider) move(userID snowflake.ID, channelID *snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if channelID == nil {
		delete(m.channels, userID)
		return
	}
	m.channels[userID] = *channelID
}

type mockUserInfoProvider map[snowflake.ID]string

func (m mockUserInfoProvider) GetUserInfo(_, userID snowflake.ID) (*ports.UserInfo, error) {
	name, ok := m[userID]
	if !ok {
		return nil, errors.New("unknown member")
	}
	return &ports.UserInfo{DisplayName: name}, nil
}

type testEnv struct {
	service  *ControlService
	registry *playback.Registry
	sink     *mockSink
	resolver *mockTrackResolver
	voice    *mockVoiceStateProvider
}

func newTestEnv() *testEnv {
	registry := playback.NewRegistry()
	sink := &mockSink{}
	resolver := &mockTrackResolver{loadResult: singleTrackResult("Song")}
	voice := &mockVoiceStateProvider{
		channels: map[snowflake.ID]snowflake.ID{testUserID: testChannelID},
	}

	config := playback.Config{
		IdleTimeout:      time.Minute,
		WatchdogInterval: time.Hour,
		VolumePercent:    playback.DefaultVolumePercent,
	}

	return &testEnv{
		service: NewControlService(
			registry,
			sink,
			NewTrackLoaderService(resolver),
			voice,
			mockUserInfoProvider{testUserID: "Alice"},
			nil,
			config,
		),
		registry: registry,
		sink:     sink,
		resolver: resolver,
		voice:    voice,
	}
}

func (e *testEnv) shutdown() {
	_ = e.registry.Shutdown(context.Background())
}

func ptr(id snowflake.ID) *snowflake.ID {
	return &id
}
