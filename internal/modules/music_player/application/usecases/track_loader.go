package usecases

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tagilla/internal/modules/music_player/domain"
)

// LoadTrackInput contains the input for the LoadTrack use case.
type LoadTrackInput struct {
	Query         string
	RequesterID   snowflake.ID
	RequesterName string
}

// LoadTrackOutput contains the result of the LoadTrack use case.
type LoadTrackOutput struct {
	Track *domain.Track
}

// TrackLoaderService handles track loading operations.
type TrackLoaderService struct {
	trackResolver ports.TrackResolver
}

// NewTrackLoaderService creates a new TrackLoaderService.
func NewTrackLoaderService(trackResolver ports.TrackResolver) *TrackLoaderService {
	return &TrackLoaderService{
		trackResolver: trackResolver,
	}
}

// LoadTrack resolves the query and returns the first track found.
// Failures are reported as *ResolutionError.
func (s *TrackLoaderService) LoadTrack(
	ctx context.Context,
	input LoadTrackInput,
) (*LoadTrackOutput, error) {
	query := domain.NewSearchQuery(input.Query)
	if !query.IsValid() {
		return nil, ErrEmptyQuery
	}

	result, err := s.trackResolver.LoadTracks(ctx, query.ResolverQuery())
	if err != nil {
		return nil, &ResolutionError{
			Kind:  ResolutionTransient,
			Query: input.Query,
			Err:   errors.Wrap(err, "failed to reach track resolver"),
		}
	}

	if result.Type == ports.LoadTypeError {
		return nil, exceptionToResolutionError(input.Query, result.Exception)
	}
	if result.Type == ports.LoadTypeEmpty || len(result.Tracks) == 0 {
		return nil, &ResolutionError{Kind: ResolutionNotFound, Query: input.Query}
	}

	info := result.Tracks[0]
	track := &domain.Track{
		ID:            domain.TrackID(uuid.NewString()),
		Encoded:       info.Encoded,
		Title:         info.Title,
		URI:           info.URI,
		ArtworkURL:    info.ArtworkURL,
		Duration:      info.Duration,
		Artist:        info.Artist,
		SourceName:    info.SourceName,
		IsStream:      info.IsStream,
		RequesterID:   input.RequesterID,
		RequesterName: input.RequesterName,
		EnqueuedAt:    time.Now().UTC(),
	}
	if !track.IsValid() {
		return nil, &ResolutionError{
			Kind:  ResolutionUnplayable,
			Query: input.Query,
			Err:   errors.New("resolver returned a track without audio handle"),
		}
	}

	return &LoadTrackOutput{
		Track: track,
	}, nil
}

// SearchInput contains the input for the Search use case.
type SearchInput struct {
	Query string
	Limit int
}

// SearchOutput contains the candidate tracks for a query.
type SearchOutput struct {
	Tracks []*ports.TrackInfo
}

// Search returns up to Limit candidate tracks for the query without queueing
// anything. Resolver failures yield an empty result.
func (s *TrackLoaderService) Search(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	query := domain.NewSearchQuery(input.Query)
	if !query.IsValid() {
		return nil, ErrEmptyQuery
	}

	result, err := s.trackResolver.LoadTracks(ctx, query.ResolverQuery())
	if err != nil {
		return nil, errors.Wrap(err, "failed to reach track resolver")
	}
	if result.Type == ports.LoadTypeError || result.Type == ports.LoadTypeEmpty {
		return &SearchOutput{}, nil
	}

	tracks := result.Tracks
	if input.Limit > 0 && len(tracks) > input.Limit {
		tracks = tracks[:input.Limit]
	}
	return &SearchOutput{Tracks: tracks}, nil
}

func exceptionToResolutionError(query string, exception *ports.LoadException) *ResolutionError {
	if exception == nil {
		return &ResolutionError{
			Kind:  ResolutionUnplayable,
			Query: query,
			Err:   errors.New("resolver reported an unknown error"),
		}
	}

	kind := ResolutionUnplayable
	if exception.Severity == ports.SeverityCommon {
		kind = ResolutionRestricted
	}

	return &ResolutionError{
		Kind:  kind,
		Query: query,
		Err:   errors.Newf("%s (%s)", exception.Message, exception.Severity),
	}
}
