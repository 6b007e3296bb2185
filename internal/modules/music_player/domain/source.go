package domain

// TrackSource represents the origin platform of a track.
type TrackSource string

const (
	TrackSourceYouTube    TrackSource = "youtube"
	TrackSourceSoundCloud TrackSource = "soundcloud"
	TrackSourceBandcamp   TrackSource = "bandcamp"
	TrackSourceTwitch     TrackSource = "twitch"
	TrackSourceHTTP       TrackSource = "http"
	TrackSourceOther      TrackSource = "other"
)

// ParseTrackSource converts a resolver source name to a TrackSource.
func ParseTrackSource(name string) TrackSource {
	switch name {
	case "youtube":
		return TrackSourceYouTube
	case "soundcloud":
		return TrackSourceSoundCloud
	case "bandcamp":
		return TrackSourceBandcamp
	case "twitch":
		return TrackSourceTwitch
	case "http":
		return TrackSourceHTTP
	default:
		return TrackSourceOther
	}
}

// DisplayName returns a human-readable platform name.
func (s TrackSource) DisplayName() string {
	switch s {
	case TrackSourceYouTube:
		return "YouTube"
	case TrackSourceSoundCloud:
		return "SoundCloud"
	case TrackSourceBandcamp:
		return "Bandcamp"
	case TrackSourceTwitch:
		return "Twitch"
	case TrackSourceHTTP:
		return "Direct link"
	default:
		return "Other"
	}
}
