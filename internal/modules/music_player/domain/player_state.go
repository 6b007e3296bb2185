package domain

import "github.com/disgoorg/snowflake/v2"

// PlayerState is the lifecycle phase of a guild's playback coordinator.
type PlayerState int

const (
	// PlayerStateIdle means nothing is current and the coordinator waits for the queue.
	PlayerStateIdle PlayerState = iota
	// PlayerStatePlaying means a track is current, possibly paused.
	PlayerStatePlaying
	// PlayerStateAwaitingAdvance means the current track completed and the
	// coordinator has not yet moved on.
	PlayerStateAwaitingAdvance
	// PlayerStateDestroyed is terminal.
	PlayerStateDestroyed
)

func (s PlayerState) String() string {
	switch s {
	case PlayerStateIdle:
		return "idle"
	case PlayerStatePlaying:
		return "playing"
	case PlayerStateAwaitingAdvance:
		return "awaiting_advance"
	case PlayerStateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// DestroyReason records why a coordinator was torn down.
type DestroyReason string

const (
	DestroyReasonIdleTimeout      DestroyReason = "idle_timeout"
	DestroyReasonSinkDisconnected DestroyReason = "sink_disconnected"
	DestroyReasonChannelEmpty     DestroyReason = "channel_empty"
	DestroyReasonStopped          DestroyReason = "stopped"
	DestroyReasonShutdown         DestroyReason = "shutdown"
)

// PlayerSnapshot is a consistent read of a coordinator's observable state.
type PlayerSnapshot struct {
	GuildID       snowflake.ID
	ChannelID     snowflake.ID
	State         PlayerState
	Current       *Track
	Paused        bool
	VolumePercent int
	Queue         []*Track
	QueueLength   int
}

// IsPlaying reports whether a track is current and not paused.
func (s PlayerSnapshot) IsPlaying() bool {
	return s.Current != nil && !s.Paused
}
