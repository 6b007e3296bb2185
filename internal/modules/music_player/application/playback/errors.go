package playback

import "github.com/cockroachdb/errors"

// ErrInvalidState marks every error caused by a command that does not apply
// to the coordinator's current state.
var ErrInvalidState = errors.New("invalid player state")

// Each state error wraps ErrInvalidState, so errors.Is matches both the
// specific sentinel and the category.
var (
	ErrDestroyed      = errors.Wrap(ErrInvalidState, "player has been destroyed")
	ErrNothingPlaying = errors.Wrap(ErrInvalidState, "nothing is currently playing")
	ErrAlreadyPaused  = errors.Wrap(ErrInvalidState, "playback is already paused")
	ErrNotPaused      = errors.Wrap(ErrInvalidState, "playback is not paused")
	ErrInvalidVolume  = errors.New("volume must be between 0 and 200")
)

// PlaybackError wraps a failure reported by the audio sink while a track was
// being started or played.
type PlaybackError struct {
	Title string
	Err   error
}

func (e *PlaybackError) Error() string {
	return "playback of " + e.Title + " failed: " + e.Err.Error()
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}
