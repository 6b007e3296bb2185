package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/playback"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/tagilla/internal/modules/music_player/domain"
)

const (
	testToken     = "secret-token"
	testGuildID   = snowflake.ID(1)
	testChannelID = snowflake.ID(10)
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

type stubResolver struct {
	mu     sync.Mutex
	result *ports.LoadResult
}

func (r *stubResolver) LoadTracks(_ context.Context, query string) (*ports.LoadResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.result != nil {
		return r.result, nil
	}
	return &ports.LoadResult{
		Type: ports.LoadTypeTrack,
		Tracks: []*ports.TrackInfo{
			{
				Encoded:    "encoded",
				Title:      "Song",
				Duration:   90 * time.Second,
				URI:        query,
				ArtworkURL: "https://example.com/art.jpg",
			},
		},
	}, nil
}

func (r *stubResolver) setResult(result *ports.LoadResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result = result
}

type stubVoiceState struct{}

func (stubVoiceState) GetUserVoiceChannel(_, _ snowflake.ID) (*snowflake.ID, error) { return nil, nil }
func (stubVoiceState) ChannelMembers(_, _ snowflake.ID) ([]snowflake.ID, error)     { return nil, nil }

type stubDirectory struct{}

func (stubDirectory) Guilds() []ports.GuildInfo {
	return []ports.GuildInfo{{ID: testGuildID, Name: "Test Server"}}
}

func (stubDirectory) VoiceChannels(guildID snowflake.ID) ([]ports.ChannelInfo, error) {
	if guildID != testGuildID {
		return nil, errors.Wrapf(ports.ErrGuildNotFound, "guild %s", guildID)
	}
	return []ports.ChannelInfo{{ID: testChannelID, Name: "General", Position: 0}}, nil
}

func (d stubDirectory) VoiceChannel(guildID, channelID snowflake.ID) (*ports.ChannelInfo, error) {
	channels, err := d.VoiceChannels(guildID)
	if err != nil {
		return nil, err
	}
	for _, c := range channels {
		if c.ID == channelID {
			return &c, nil
		}
	}
	return nil, errors.Wrapf(ports.ErrChannelNotFound, "channel %s", channelID)
}

// syncBus delivers events synchronously to every subscriber.
type syncBus struct {
	mu       sync.Mutex
	handlers map[int]func(domain.Event)
	next     int
}

func (b *syncBus) Publish(event domain.Event) error {
	b.mu.Lock()
	handlers := make([]func(domain.Event), 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
	return nil
}

func (b *syncBus) Subscribe(handler func(domain.Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = make(map[int]func(domain.Event))
	}
	id := b.next
	b.next++
	b.handlers[id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	}
}

type testEnv struct {
	server   *Server
	handler  http.Handler
	resolver *stubResolver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	registry := playback.NewRegistry()
	resolver := &stubResolver{}
	bus := &syncBus{}

	control := usecases.NewControlService(
		registry,
		&stubSink{},
		usecases.NewTrackLoaderService(resolver),
		stubVoiceState{},
		nil,
		bus,
		playback.Config{
			IdleTimeout:      time.Minute,
			WatchdogInterval: time.Hour,
			VolumePercent:    playback.DefaultVolumePercent,
		},
	)
	t.Cleanup(func() {
		_ = registry.Shutdown(context.Background())
	})

	server := NewServer(Config{Addr: "127.0.0.1:0", Token: testToken}, control, stubDirectory{}, bus)

	return &testEnv{
		server:   server,
		handler:  server.Handler(),
		resolver: resolver,
	}
}

func (e *testEnv) do(method, path, body string, authorized bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorized {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}
