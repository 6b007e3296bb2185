package usecases

import (
	"github.com/cockroachdb/errors"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/playback"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/ports"
)

// Errors returned by the control service. State errors wrap
// playback.ErrInvalidState so callers can classify them with errors.Is.
var (
	// ErrNoActiveSession is returned when the guild has no player.
	ErrNoActiveSession = errors.Wrap(playback.ErrInvalidState, "no active player in this server")

	// ErrUserNotInVoice is returned when the requesting user is not in a voice channel.
	ErrUserNotInVoice = errors.New("you must be in a voice channel")

	// ErrEmptyQuery is returned when a play request carries no query.
	ErrEmptyQuery = errors.New("query must not be empty")

	// Re-exported so the presentation layer only depends on usecases.
	ErrNothingPlaying = playback.ErrNothingPlaying
	ErrAlreadyPaused  = playback.ErrAlreadyPaused
	ErrNotPaused      = playback.ErrNotPaused
	ErrInvalidVolume  = playback.ErrInvalidVolume
	ErrInvalidState   = playback.ErrInvalidState

	ErrMissingVoicePermissions = ports.ErrMissingVoicePermissions
)

// ResolutionErrorKind classifies why a query could not be turned into a track.
type ResolutionErrorKind int

const (
	// ResolutionNotFound means the resolver returned nothing.
	ResolutionNotFound ResolutionErrorKind = iota
	// ResolutionRestricted means the item exists but is private, blocked or region-locked.
	ResolutionRestricted
	// ResolutionUnplayable means the item could not be decoded or streamed.
	ResolutionUnplayable
	// ResolutionTransient means the resolver could not be reached.
	ResolutionTransient
)

func (k ResolutionErrorKind) String() string {
	switch k {
	case ResolutionNotFound:
		return "not_found"
	case ResolutionRestricted:
		return "restricted"
	case ResolutionUnplayable:
		return "unplayable"
	case ResolutionTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// ResolutionError is returned when a query cannot be resolved to a playable track.
type ResolutionError struct {
	Kind  ResolutionErrorKind
	Query string
	Err   error
}

func (e *ResolutionError) Error() string {
	msg := "could not resolve " + e.Query + " (" + e.Kind.String() + ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// SinkConnectError is returned when the bot cannot join the voice channel.
type SinkConnectError struct {
	Err error
}

func (e *SinkConnectError) Error() string {
	return "failed to connect to voice: " + e.Err.Error()
}

func (e *SinkConnectError) Unwrap() error {
	return e.Err
}
