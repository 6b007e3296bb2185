package ports

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// LoadResult represents the result of loading tracks.
type LoadResult struct {
	Type      LoadType
	Tracks    []*TrackInfo
	Playlist  string
	Exception *LoadException
}

// LoadType represents the type of load result.
type LoadType string

const (
	LoadTypeTrack    LoadType = "track"
	LoadTypePlaylist LoadType = "playlist"
	LoadTypeSearch   LoadType = "search"
	LoadTypeEmpty    LoadType = "empty"
	LoadTypeError    LoadType = "error"
)

// ExceptionSeverity classifies a resolver failure.
type ExceptionSeverity string

const (
	// SeverityCommon is a known cause such as a private or region-locked item.
	SeverityCommon ExceptionSeverity = "common"
	// SeveritySuspicious is an unexpected failure from the source.
	SeveritySuspicious ExceptionSeverity = "suspicious"
	// SeverityFault is an internal failure of the resolver.
	SeverityFault ExceptionSeverity = "fault"
)

// LoadException describes why a load failed.
type LoadException struct {
	Message  string
	Severity ExceptionSeverity
}

// TrackInfo contains information about a loaded track.
type TrackInfo struct {
	Identifier string
	Encoded    string
	Title      string
	Artist     string
	Duration   time.Duration
	URI        string
	ArtworkURL string
	SourceName string
	IsStream   bool
}

// GuildInfo is a guild the bot is a member of.
type GuildInfo struct {
	ID   snowflake.ID
	Name string
}

// ChannelInfo is a voice channel of a guild.
type ChannelInfo struct {
	ID       snowflake.ID
	Name     string
	Position int
}
