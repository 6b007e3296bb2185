package usecases

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/playback"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tagilla/internal/modules/music_player/domain"
)

// DefaultStatusQueueLimit is the number of upcoming tracks included in a status.
const DefaultStatusQueueLimit = 10

// EnqueueInput contains the input for the EnqueueBySearch use case.
type EnqueueInput struct {
	GuildID        snowflake.ID
	VoiceChannelID snowflake.ID // 0 means the requesting user's channel
	UserID         snowflake.ID
	Query          string
	RequesterName  string // looked up from UserID when empty
}

// EnqueueOutput contains the result of the EnqueueBySearch use case.
type EnqueueOutput struct {
	Track    *domain.Track
	Position int
}

// GuildInput identifies the guild a command applies to.
type GuildInput struct {
	GuildID snowflake.ID
}

// TogglePauseOutput contains the result of the TogglePause use case.
type TogglePauseOutput struct {
	Playing bool
}

// SkipOutput contains the result of the Skip use case.
type SkipOutput struct {
	Skipped bool
	Track   *domain.Track // nil when nothing was skipped
}

// SetVolumeInput contains the input for the SetVolume use case.
type SetVolumeInput struct {
	GuildID snowflake.ID
	Percent int
}

// StatusInput contains the input for the Status use case.
type StatusInput struct {
	GuildID snowflake.ID
	Limit   int // non-positive uses DefaultStatusQueueLimit
}

// StatusOutput contains the result of the Status use case.
// Snapshot is only meaningful when Connected is true.
type StatusOutput struct {
	Connected bool
	Snapshot  domain.PlayerSnapshot
}

// VoiceStateChangeInput describes a voice state update seen on the gateway.
type VoiceStateChangeInput struct {
	GuildID         snowflake.ID
	UserID          snowflake.ID
	BotID           snowflake.ID
	BeforeChannelID *snowflake.ID // nil when the user was not in voice
	AfterChannelID  *snowflake.ID // nil when the user left voice
}

// ControlService is the entry point for every playback command, whichever
// surface it comes from.
type ControlService struct {
	registry    *playback.Registry
	sink        ports.AudioSink
	trackLoader *TrackLoaderService
	voiceState  ports.VoiceStateProvider
	users       ports.UserInfoProvider
	publisher   ports.EventPublisher
	config      playback.Config
}

// NewControlService creates a new ControlService.
func NewControlService(
	registry *playback.Registry,
	sink ports.AudioSink,
	trackLoader *TrackLoaderService,
	voiceState ports.VoiceStateProvider,
	users ports.UserInfoProvider,
	publisher ports.EventPublisher,
	config playback.Config,
) *ControlService {
	return &ControlService{
		registry:    registry,
		sink:        sink,
		trackLoader: trackLoader,
		voiceState:  voiceState,
		users:       users,
		publisher:   publisher,
		config:      config,
	}
}

// EnqueueBySearch resolves the query and appends the track to the guild's
// queue, connecting to voice first if the guild has no player.
func (s *ControlService) EnqueueBySearch(
	ctx context.Context,
	input EnqueueInput,
) (*EnqueueOutput, error) {
	if !domain.NewSearchQuery(input.Query).IsValid() {
		return nil, ErrEmptyQuery
	}

	channelID, err := s.resolveVoiceChannel(input)
	if err != nil {
		return nil, err
	}

	coordinator, err := s.registry.GetOrCreate(ctx, input.GuildID, s.factory(input.GuildID, channelID))
	if err != nil {
		return nil, err
	}

	loaded, err := s.trackLoader.LoadTrack(ctx, LoadTrackInput{
		Query:         input.Query,
		RequesterID:   input.UserID,
		RequesterName: s.requesterName(input),
	})
	if err != nil {
		return nil, err
	}

	position, err := coordinator.Enqueue(loaded.Track)
	if errors.Is(err, playback.ErrDestroyed) {
		// torn down while resolving, start a fresh player
		coordinator, err = s.registry.GetOrCreate(ctx, input.GuildID, s.factory(input.GuildID, channelID))
		if err != nil {
			return nil, err
		}
		position, err = coordinator.Enqueue(loaded.Track)
	}
	if err != nil {
		return nil, err
	}

	return &EnqueueOutput{
		Track:    loaded.Track,
		Position: position,
	}, nil
}

func (s *ControlService) resolveVoiceChannel(input EnqueueInput) (snowflake.ID, error) {
	if input.VoiceChannelID != 0 {
		return input.VoiceChannelID, nil
	}

	channelID, err := s.voiceState.GetUserVoiceChannel(input.GuildID, input.UserID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to look up voice state")
	}
	if channelID == nil {
		return 0, ErrUserNotInVoice
	}
	return *channelID, nil
}

func (s *ControlService) requesterName(input EnqueueInput) string {
	if input.RequesterName != "" || input.UserID == 0 || s.users == nil {
		return input.RequesterName
	}

	info, err := s.users.GetUserInfo(input.GuildID, input.UserID)
	if err != nil {
		slog.Debug("failed to look up requester", "guild", input.GuildID, "user", input.UserID, "error", err)
		return ""
	}
	return info.DisplayName
}

func (s *ControlService) factory(guildID, channelID snowflake.ID) playback.Factory {
	return func(ctx context.Context) (*playback.Coordinator, error) {
		conn, err := s.sink.Connect(ctx, guildID, channelID)
		if err != nil {
			return nil, &SinkConnectError{Err: err}
		}

		slog.Info("player created", "guild", guildID, "channel", channelID)
		return playback.NewCoordinator(
			guildID,
			s.sink,
			conn,
			s.publisher,
			s.config,
			s.registry.Release,
		), nil
	}
}

func (s *ControlService) coordinator(guildID snowflake.ID) (*playback.Coordinator, error) {
	c := s.registry.Get(guildID)
	if c == nil {
		return nil, ErrNoActiveSession
	}
	return c, nil
}

// TogglePause pauses or resumes the current track.
func (s *ControlService) TogglePause(ctx context.Context, input GuildInput) (*TogglePauseOutput, error) {
	c, err := s.coordinator(input.GuildID)
	if err != nil {
		return nil, err
	}

	playing, err := c.TogglePause(ctx)
	if err != nil {
		return nil, err
	}
	return &TogglePauseOutput{Playing: playing}, nil
}

// Pause pauses the current track.
func (s *ControlService) Pause(ctx context.Context, input GuildInput) error {
	c, err := s.coordinator(input.GuildID)
	if err != nil {
		return err
	}
	return c.Pause(ctx)
}

// Resume resumes a paused track.
func (s *ControlService) Resume(ctx context.Context, input GuildInput) error {
	c, err := s.coordinator(input.GuildID)
	if err != nil {
		return err
	}
	return c.Resume(ctx)
}

// Skip stops the current track and advances the queue.
func (s *ControlService) Skip(ctx context.Context, input GuildInput) (*SkipOutput, error) {
	c, err := s.coordinator(input.GuildID)
	if err != nil {
		return nil, err
	}

	skipped, err := c.Skip(ctx)
	if err != nil {
		return nil, err
	}
	return &SkipOutput{Skipped: skipped != nil, Track: skipped}, nil
}

// SetVolume sets the playback volume in percent.
func (s *ControlService) SetVolume(ctx context.Context, input SetVolumeInput) error {
	if input.Percent < 0 || input.Percent > playback.MaxVolumePercent {
		return ErrInvalidVolume
	}

	c, err := s.coordinator(input.GuildID)
	if err != nil {
		return err
	}
	return c.SetVolume(ctx, input.Percent)
}

// Status returns a snapshot of the guild's player. A guild without a player
// is reported as not connected rather than as an error.
func (s *ControlService) Status(input StatusInput) *StatusOutput {
	c := s.registry.Get(input.GuildID)
	if c == nil {
		return &StatusOutput{Connected: false}
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultStatusQueueLimit
	}

	snap := c.Snapshot(limit)
	if snap.State == domain.PlayerStateDestroyed {
		return &StatusOutput{Connected: false}
	}
	return &StatusOutput{Connected: true, Snapshot: snap}
}

// Stop clears the queue, stops playback and leaves voice.
func (s *ControlService) Stop(_ context.Context, input GuildInput) error {
	c, err := s.coordinator(input.GuildID)
	if err != nil {
		return err
	}

	c.Destroy(domain.DestroyReasonStopped)
	return nil
}

// ActiveGuilds returns the guilds that currently have a player.
func (s *ControlService) ActiveGuilds() []snowflake.ID {
	coordinators := s.registry.List()

	guilds := make([]snowflake.ID, 0, len(coordinators))
	for _, c := range coordinators {
		if !c.IsDestroyed() {
			guilds = append(guilds, c.GuildID())
		}
	}
	return guilds
}

// HandleVoiceStateChange tears the player down when the bot is disconnected
// from voice or is left alone in its channel.
func (s *ControlService) HandleVoiceStateChange(input VoiceStateChangeInput) {
	c := s.registry.Get(input.GuildID)
	if c == nil {
		return
	}

	if input.UserID == input.BotID {
		if input.AfterChannelID == nil {
			slog.Info("bot disconnected from voice", "guild", input.GuildID)
			c.Destroy(domain.DestroyReasonSinkDisconnected)
		}
		return
	}

	before := input.BeforeChannelID
	if before == nil || *before != c.ChannelID() {
		return
	}
	if input.AfterChannelID != nil && *input.AfterChannelID == *before {
		return
	}

	members, err := s.voiceState.ChannelMembers(input.GuildID, *before)
	if err != nil {
		slog.Warn("failed to list voice channel members", "guild", input.GuildID, "error", err)
		return
	}

	for _, member := range members {
		if member != input.BotID {
			return
		}
	}

	slog.Info("voice channel empty, leaving", "guild", input.GuildID, "channel", *before)
	c.Destroy(domain.DestroyReasonChannelEmpty)
}
