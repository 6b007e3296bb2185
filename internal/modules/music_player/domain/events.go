package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// Event is a playback notification scoped to one guild.
type Event interface {
	EventGuildID() snowflake.ID
	EventType() string
}

// TrackEnqueuedEvent is published when a track is added to the queue.
type TrackEnqueuedEvent struct {
	GuildID  snowflake.ID
	Track    *Track
	Position int
}

// TrackStartedEvent is published when a track is handed to the audio sink.
type TrackStartedEvent struct {
	GuildID snowflake.ID
	Track   *Track
}

// TrackEndedEvent is published when the current track completes, is skipped,
// or fails during playback. Err is nil for a clean completion.
type TrackEndedEvent struct {
	GuildID snowflake.ID
	Track   *Track
	Err     error
}

// PlayerStateChangedEvent is published after a pause, resume, or volume change.
type PlayerStateChangedEvent struct {
	GuildID       snowflake.ID
	Paused        bool
	VolumePercent int
}

// PlayerDestroyedEvent is published once when a coordinator is torn down.
type PlayerDestroyedEvent struct {
	GuildID snowflake.ID
	Reason  DestroyReason
	Dropped int
}

func (e TrackEnqueuedEvent) EventGuildID() snowflake.ID      { return e.GuildID }
func (e TrackStartedEvent) EventGuildID() snowflake.ID       { return e.GuildID }
func (e TrackEndedEvent) EventGuildID() snowflake.ID         { return e.GuildID }
func (e PlayerStateChangedEvent) EventGuildID() snowflake.ID { return e.GuildID }
func (e PlayerDestroyedEvent) EventGuildID() snowflake.ID    { return e.GuildID }

func (TrackEnqueuedEvent) EventType() string      { return "track_enqueued" }
func (TrackStartedEvent) EventType() string       { return "track_started" }
func (TrackEndedEvent) EventType() string         { return "track_ended" }
func (PlayerStateChangedEvent) EventType() string { return "player_state_changed" }
func (PlayerDestroyedEvent) EventType() string    { return "player_destroyed" }
