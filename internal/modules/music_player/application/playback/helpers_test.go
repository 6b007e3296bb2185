package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tagilla/internal/modules/music_player/domain"
)

const (
	testGuildID   = snowflake.ID(100)
	testChannelID = snowflake.ID(200)
	waitFor       = 2 * time.Second
	tick          = 5 * time.Millisecond
)

type fakeConn struct {
	guildID   snowflake.ID
	channelID snowflake.ID
}

func (c fakeConn) GuildID() snowflake.ID   { return c.guildID }
func (c fakeConn) ChannelID() snowflake.ID { return c.channelID }

// fakeSink records every command and lets tests end tracks by hand.
type fakeSink struct {
	mu          sync.Mutex
	connected   bool
	stalled     bool
	paused      bool
	current     *domain.Track
	onComplete  ports.CompletionFunc
	callbacks   []ports.CompletionFunc
	plays       []*domain.Track
	playVolumes []float64
	setVolumes  []float64
	stops       int
	disconnects int
	playErr     map[string]error

	// disconnectGate, if set, holds Disconnect open until it is closed.
	disconnectGate    chan struct{}
	disconnecting     bool
	connects          int
	connectsMidDetach int
}

func newFakeSink() *fakeSink {
	return &fakeSink{connected: true, playErr: make(map[string]error)}
}

func (s *fakeSink) Connect(_ context.Context, guildID, channelID snowflake.ID) (ports.SinkConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
	if s.disconnecting {
		s.connectsMidDetach++
	}
	s.connected = true
	return fakeConn{guildID: guildID, channelID: channelID}, nil
}

func (s *fakeSink) Play(
	_ context.Context,
	_ ports.SinkConnection,
	track *domain.Track,
	volume float64,
	onComplete ports.CompletionFunc,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.plays = append(s.plays, track)
	s.playVolumes = append(s.playVolumes, volume)
	if err := s.playErr[track.Title]; err != nil {
		return err
	}
	s.current = track
	s.paused = false
	s.onComplete = onComplete
	s.callbacks = append(s.callbacks, onComplete)
	return nil
}

func (s *fakeSink) Pause(context.Context, ports.SinkConnection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	return nil
}

func (s *fakeSink) Resume(context.Context, ports.SinkConnection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	return nil
}

func (s *fakeSink) Stop(context.Context, ports.SinkConnection) error {
	s.mu.Lock()
	s.stops++
	s.current = nil
	cb := s.onComplete
	s.onComplete = nil
	s.mu.Unlock()

	if cb != nil {
		cb(nil)
	}
	return nil
}

func (s *fakeSink) SetVolume(_ context.Context, _ ports.SinkConnection, volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setVolumes = append(s.setVolumes, volume)
	return nil
}

func (s *fakeSink) IsConnected(ports.SinkConnection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *fakeSink) IsProducing(ports.SinkConnection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && !s.paused && !s.stalled
}

func (s *fakeSink) Disconnect(context.Context, ports.SinkConnection) error {
	s.mu.Lock()
	gate := s.disconnectGate
	s.disconnecting = true
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnecting = false
	s.disconnects++
	s.connected = false
	return nil
}

func (s *fakeSink) isDisconnecting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnecting
}

func (s *fakeSink) connectCounts() (total, midDisconnect int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connects, s.connectsMidDetach
}

// finish ends the current track as if it played to the end.
func (s *fakeSink) finish(err error) {
	s.mu.Lock()
	s.current = nil
	cb := s.onComplete
	s.onComplete = nil
	s.mu.Unlock()

	if cb != nil {
		cb(err)
	}
}

func (s *fakeSink) setConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = connected
}

func (s *fakeSink) setStalled(stalled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stalled = stalled
}

func (s *fakeSink) playedTitles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	titles := make([]string, len(s.plays))
	for i, t := range s.plays {
		titles[i] = t.Title
	}
	return titles
}

func (s *fakeSink) counts() (stops, disconnects int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops, s.disconnects
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) destroyedReasons() []domain.DestroyReason {
	p.mu.Lock()
	defer p.mu.Unlock()
	var reasons []domain.DestroyReason
	for _, e := range p.events {
		if d, ok := e.(domain.PlayerDestroyedEvent); ok {
			reasons = append(reasons, d.Reason)
		}
	}
	return reasons
}

func testConfig() Config {
	return Config{
		IdleTimeout:      time.Minute,
		WatchdogInterval: time.Hour,
		VolumePercent:    DefaultVolumePercent,
	}
}

func newTestCoordinator(t *testing.T, sink *fakeSink, config Config) (*Coordinator, *recordingPublisher) {
	t.Helper()

	publisher := &recordingPublisher{}
	c := NewCoordinator(
		testGuildID,
		sink,
		fakeConn{guildID: testGuildID, channelID: testChannelID},
		publisher,
		config,
		nil,
	)
	c.Start()
	t.Cleanup(func() { c.Destroy(domain.DestroyReasonShutdown) })

	return c, publisher
}

func track(title string) *domain.Track {
	return &domain.Track{ID: domain.TrackID(title), Encoded: "enc-" + title, Title: title}
}
