package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tagilla/internal/modules/music_player/domain"
)

// SinkConnection is an established voice connection to one guild channel.
type SinkConnection interface {
	GuildID() snowflake.ID
	ChannelID() snowflake.ID
}

// CompletionFunc is invoked exactly once when the track handed to Play ends.
// err is nil for a clean finish or stop. It may be called from any goroutine,
// including synchronously from within Play or Stop.
type CompletionFunc func(err error)

// AudioSink plays tracks into a voice connection.
type AudioSink interface {
	// Connect joins the voice channel and returns a connection handle.
	Connect(ctx context.Context, guildID, channelID snowflake.ID) (SinkConnection, error)

	// Play starts track at volume (1.0 is unity gain) and arranges for
	// onComplete to be called when it ends.
	Play(
		ctx context.Context,
		conn SinkConnection,
		track *domain.Track,
		volume float64,
		onComplete CompletionFunc,
	) error

	Pause(ctx context.Context, conn SinkConnection) error
	Resume(ctx context.Context, conn SinkConnection) error

	// Stop ends the current track, which fires its completion callback.
	Stop(ctx context.Context, conn SinkConnection) error

	SetVolume(ctx context.Context, conn SinkConnection, volume float64) error

	// IsConnected reports whether the voice connection is still alive.
	IsConnected(conn SinkConnection) bool

	// IsProducing reports whether audio is actively being produced.
	IsProducing(conn SinkConnection) bool

	// Disconnect leaves the voice channel and releases the connection.
	Disconnect(ctx context.Context, conn SinkConnection) error
}
