package usecases

import (
	"github.com/sglre6355/tagilla/internal/modules/music_player/domain"
)

// Re-export domain types for presentation layer use.
// This allows presentation to depend only on usecases without importing domain directly.

// Track is an alias for domain.Track.
type Track = domain.Track

// PlayerSnapshot is an alias for domain.PlayerSnapshot.
type PlayerSnapshot = domain.PlayerSnapshot

// Event is an alias for domain.Event.
type Event = domain.Event
