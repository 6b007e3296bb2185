package playback

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tagilla/internal/modules/music_player/domain"
)

// trackRun tracks one hand-off of a track to the sink. Its done channel is
// only read by the loop iteration that created it, so completions arriving
// for an older run are discarded.
type trackRun struct {
	track *domain.Track
	done  chan error
	ended atomic.Bool
}

func newTrackRun(track *domain.Track) *trackRun {
	return &trackRun{
		track: track,
		done:  make(chan error, 1),
	}
}

func (r *trackRun) complete(err error) {
	r.ended.Store(true)
	select {
	case r.done <- err:
	default:
	}
}

// Coordinator owns the queue and playback of a single guild. A background
// loop pops tracks, hands them to the sink, and waits for each to complete.
// All sink commands are issued while holding mu, so they never interleave
// and never follow the start of Destroy.
type Coordinator struct {
	guildID   snowflake.ID
	sink      ports.AudioSink
	conn      ports.SinkConnection
	publisher ports.EventPublisher
	config    Config
	onDestroy func(*Coordinator)

	queue *domain.Queue

	mu            sync.Mutex
	run           *trackRun
	paused        bool
	volumePercent int
	destroyed     bool

	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
	loopDone  chan struct{}
	closed    chan struct{}
}

// NewCoordinator creates a coordinator for an established sink connection.
// onDestroy, if set, is called once after teardown completes.
// The coordinator does nothing until Start is called.
func NewCoordinator(
	guildID snowflake.ID,
	sink ports.AudioSink,
	conn ports.SinkConnection,
	publisher ports.EventPublisher,
	config Config,
	onDestroy func(*Coordinator),
) *Coordinator {
	config = config.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	return &Coordinator{
		guildID:       guildID,
		sink:          sink,
		conn:          conn,
		publisher:     publisher,
		config:        config,
		onDestroy:     onDestroy,
		queue:         domain.NewQueue(),
		volumePercent: config.VolumePercent,
		ctx:           ctx,
		cancel:        cancel,
		loopDone:      make(chan struct{}),
		closed:        make(chan struct{}),
	}
}

// Start launches the playback loop and the idle watchdog.
func (c *Coordinator) Start() {
	c.startOnce.Do(func() {
		watchdog := NewWatchdog(c, c.config.WatchdogInterval)
		go c.loop()
		go watchdog.Run(c.ctx)
	})
}

// GuildID returns the guild this coordinator plays for.
func (c *Coordinator) GuildID() snowflake.ID {
	return c.guildID
}

// ChannelID returns the voice channel the sink is connected to.
func (c *Coordinator) ChannelID() snowflake.ID {
	return c.conn.ChannelID()
}

// Done is closed once Destroy has finished tearing down the sink.
func (c *Coordinator) Done() <-chan struct{} {
	return c.closed
}

// IsDestroyed reports whether Destroy has begun.
func (c *Coordinator) IsDestroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

// Enqueue appends track and returns its 1-based queue position.
func (c *Coordinator) Enqueue(track *domain.Track) (int, error) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return 0, ErrDestroyed
	}
	position := c.queue.Push(track)
	c.mu.Unlock()

	slog.Debug(
		"track enqueued",
		"guild", c.guildID,
		"title", track.Title,
		"position", position,
	)
	c.publish(domain.TrackEnqueuedEvent{GuildID: c.guildID, Track: track, Position: position})

	return position, nil
}

// TogglePause pauses a producing track or resumes a paused one.
// It returns true if playback is running afterwards. With nothing current it
// changes nothing and returns false.
func (c *Coordinator) TogglePause(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return false, ErrDestroyed
	}
	if !c.hasActiveRunLocked() {
		return false, nil
	}

	if c.paused {
		if err := c.resumeLocked(ctx); err != nil {
			return true, err
		}
		return true, nil
	}
	if err := c.pauseLocked(ctx); err != nil {
		return false, err
	}
	return false, nil
}

// Pause pauses the current track.
func (c *Coordinator) Pause(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return ErrDestroyed
	}
	if !c.hasActiveRunLocked() {
		return ErrNothingPlaying
	}
	if c.paused {
		return ErrAlreadyPaused
	}
	return c.pauseLocked(ctx)
}

// Resume resumes a paused track.
func (c *Coordinator) Resume(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return ErrDestroyed
	}
	if !c.hasActiveRunLocked() {
		return ErrNothingPlaying
	}
	if !c.paused {
		return ErrNotPaused
	}
	return c.resumeLocked(ctx)
}

func (c *Coordinator) pauseLocked(ctx context.Context) error {
	if err := c.sink.Pause(ctx, c.conn); err != nil {
		return errors.Wrap(err, "failed to pause playback")
	}
	c.paused = true
	c.publishStateLocked()
	return nil
}

func (c *Coordinator) resumeLocked(ctx context.Context) error {
	if err := c.sink.Resume(ctx, c.conn); err != nil {
		return errors.Wrap(err, "failed to resume playback")
	}
	c.paused = false
	c.publishStateLocked()
	return nil
}

// Skip stops the current track so the loop advances to the next one.
// It returns the skipped track, or nil when nothing was current.
func (c *Coordinator) Skip(ctx context.Context) (*domain.Track, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return nil, ErrDestroyed
	}
	if !c.hasActiveRunLocked() {
		return nil, nil
	}

	run := c.run
	if err := c.sink.Stop(ctx, c.conn); err != nil {
		slog.Warn(
			"failed to stop track on skip, advancing anyway",
			"guild", c.guildID,
			"title", run.track.Title,
			"error", err,
		)
		run.complete(nil)
	}

	return run.track, nil
}

// SetVolume records the volume for all subsequent tracks and applies it to
// the current track, if any.
func (c *Coordinator) SetVolume(ctx context.Context, percent int) error {
	if percent < 0 || percent > MaxVolumePercent {
		return ErrInvalidVolume
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return ErrDestroyed
	}

	c.volumePercent = percent
	if c.hasActiveRunLocked() {
		if err := c.sink.SetVolume(ctx, c.conn, volumeScalar(percent)); err != nil {
			return errors.Wrap(err, "failed to apply volume")
		}
	}
	c.publishStateLocked()

	return nil
}

// Snapshot returns the current state with at most limit upcoming tracks.
// A non-positive limit includes the whole queue.
func (c *Coordinator) Snapshot(limit int) domain.PlayerSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := domain.PlayerSnapshot{
		GuildID:       c.guildID,
		ChannelID:     c.conn.ChannelID(),
		State:         c.stateLocked(),
		Paused:        c.paused,
		VolumePercent: c.volumePercent,
		Queue:         c.queue.Snapshot(limit),
		QueueLength:   c.queue.Len(),
	}
	if c.run != nil {
		snap.Current = c.run.track
	}

	return snap
}

// State returns the coordinator's lifecycle phase.
func (c *Coordinator) State() domain.PlayerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Coordinator) stateLocked() domain.PlayerState {
	switch {
	case c.destroyed:
		return domain.PlayerStateDestroyed
	case c.run == nil:
		return domain.PlayerStateIdle
	case c.run.ended.Load():
		return domain.PlayerStateAwaitingAdvance
	default:
		return domain.PlayerStatePlaying
	}
}

func (c *Coordinator) hasActiveRunLocked() bool {
	return c.run != nil && !c.run.ended.Load()
}

// Destroy tears the coordinator down: it stops the loop and watchdog, drains
// the queue, stops and disconnects the sink, and deregisters itself.
// Calling it again is a no-op.
func (c *Coordinator) Destroy(reason domain.DestroyReason) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	wasPlaying := c.hasActiveRunLocked()
	c.run = nil
	c.paused = false
	c.mu.Unlock()

	c.cancel()
	dropped := c.queue.Drain()

	slog.Info(
		"destroying player",
		"guild", c.guildID,
		"reason", reason,
		"dropped", len(dropped),
	)

	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()

	if wasPlaying {
		if err := c.sink.Stop(ctx, c.conn); err != nil {
			slog.Warn("failed to stop sink during teardown", "guild", c.guildID, "error", err)
		}
	}
	if err := c.sink.Disconnect(ctx, c.conn); err != nil {
		slog.Warn("failed to disconnect sink during teardown", "guild", c.guildID, "error", err)
	}

	if c.onDestroy != nil {
		c.onDestroy(c)
	}

	c.publish(domain.PlayerDestroyedEvent{
		GuildID: c.guildID,
		Reason:  reason,
		Dropped: len(dropped),
	})
	close(c.closed)
}

func (c *Coordinator) loop() {
	defer close(c.loopDone)

	for {
		track, ok := c.waitForTrack()
		if !ok {
			return
		}

		if !c.sink.IsConnected(c.conn) {
			slog.Warn("sink disconnected before playback", "guild", c.guildID)
			c.Destroy(domain.DestroyReasonSinkDisconnected)
			return
		}

		run, ok := c.startTrack(track)
		if !ok {
			return
		}

		select {
		case err := <-run.done:
			c.finishTrack(run, err)
		case <-c.ctx.Done():
			return
		}
	}
}

// waitForTrack blocks until a track is available, the idle timeout elapses,
// or the coordinator is destroyed.
func (c *Coordinator) waitForTrack() (*domain.Track, bool) {
	timer := time.NewTimer(c.config.IdleTimeout)
	defer timer.Stop()

	for {
		if c.ctx.Err() != nil {
			return nil, false
		}
		if track, ok := c.queue.PopFront(); ok {
			return track, true
		}

		select {
		case <-c.queue.Ready():
		case <-timer.C:
			slog.Info("player idle timeout reached", "guild", c.guildID)
			c.Destroy(domain.DestroyReasonIdleTimeout)
			return nil, false
		case <-c.ctx.Done():
			return nil, false
		}
	}
}

func (c *Coordinator) startTrack(track *domain.Track) (*trackRun, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return nil, false
	}

	run := newTrackRun(track)
	c.run = run
	c.paused = false

	err := c.sink.Play(c.ctx, c.conn, track, volumeScalar(c.volumePercent), run.complete)
	if err != nil {
		run.complete(&PlaybackError{Title: track.Title, Err: err})
		return run, true
	}

	slog.Info("track started", "guild", c.guildID, "title", track.Title)
	c.publish(domain.TrackStartedEvent{GuildID: c.guildID, Track: track})

	return run, true
}

func (c *Coordinator) finishTrack(run *trackRun, err error) {
	c.mu.Lock()
	if c.destroyed || c.run != run {
		c.mu.Unlock()
		return
	}
	c.run = nil
	c.paused = false
	c.mu.Unlock()

	if err != nil {
		slog.Warn(
			"track ended with error",
			"guild", c.guildID,
			"title", run.track.Title,
			"error", err,
		)
	}
	c.publish(domain.TrackEndedEvent{GuildID: c.guildID, Track: run.track, Err: err})
}

// checkSink is called by the watchdog. It destroys the coordinator if the
// sink lost its connection and stops a track the sink is no longer producing
// so the loop can advance. It returns false once the coordinator is gone.
func (c *Coordinator) checkSink(ctx context.Context) bool {
	if !c.sink.IsConnected(c.conn) {
		slog.Warn("sink disconnected", "guild", c.guildID)
		c.Destroy(domain.DestroyReasonSinkDisconnected)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return false
	}
	if !c.hasActiveRunLocked() || c.paused || c.sink.IsProducing(c.conn) {
		return true
	}

	run := c.run
	slog.Warn("sink stalled, stopping current track", "guild", c.guildID, "title", run.track.Title)
	if err := c.sink.Stop(ctx, c.conn); err != nil {
		slog.Warn("failed to stop stalled track", "guild", c.guildID, "error", err)
		run.complete(nil)
	}

	return true
}

func (c *Coordinator) publishStateLocked() {
	c.publish(domain.PlayerStateChangedEvent{
		GuildID:       c.guildID,
		Paused:        c.paused,
		VolumePercent: c.volumePercent,
	})
}

func (c *Coordinator) publish(event domain.Event) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(event); err != nil {
		slog.Warn("failed to publish event", "event", event.EventType(), "error", err)
	}
}

func volumeScalar(percent int) float64 {
	return float64(percent) / 100
}
