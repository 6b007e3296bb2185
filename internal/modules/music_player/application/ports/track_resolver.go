package ports

import (
	"context"
)

// TrackResolver defines the interface for loading/searching tracks.
type TrackResolver interface {
	// LoadTracks searches for tracks using the given query.
	// A non-nil error means the resolver could not be reached.
	LoadTracks(ctx context.Context, query string) (*LoadResult, error)
}
