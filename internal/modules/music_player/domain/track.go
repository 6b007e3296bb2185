package domain

import (
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// DashboardRequester is the requester name used when a track is enqueued
// through the HTTP API without an explicit requester.
const DashboardRequester = "Dashboard"

// TrackID uniquely identifies a queued track.
type TrackID string

// Track is a resolved, playable audio item together with the metadata of
// the request that produced it.
type Track struct {
	ID            TrackID
	Encoded       string // opaque handle understood by the audio backend
	Title         string
	URI           string
	ArtworkURL    string
	Duration      time.Duration
	Artist        string
	SourceName    string
	IsStream      bool
	RequesterID   snowflake.ID // zero when enqueued from the HTTP API
	RequesterName string
	EnqueuedAt    time.Time
}

// Source returns the parsed TrackSource for this track.
func (t *Track) Source() TrackSource {
	return ParseTrackSource(t.SourceName)
}

// IsValid returns true if the track has the minimum required fields.
func (t *Track) IsValid() bool {
	return t.Encoded != "" && t.Title != ""
}

// Requester returns the display name of whoever asked for this track.
func (t *Track) Requester() string {
	if t.RequesterName == "" {
		return DashboardRequester
	}
	return t.RequesterName
}

// FormattedDuration renders the duration as m:ss or h:mm:ss.
// Streams render as LIVE and unknown durations as N/A.
func (t *Track) FormattedDuration() string {
	if t.IsStream {
		return "LIVE"
	}
	if t.Duration <= 0 {
		return "N/A"
	}

	totalSeconds := int(t.Duration.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
