package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sglre6355/tagilla/internal/modules/music_player/application/usecases"
)

type errorResponse struct {
	Error string `json:"error"`
}

// resultResponse is the envelope of every control endpoint.
type resultResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type guildResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type guildsResponse struct {
	Guilds []guildResponse `json:"guilds"`
}

type voiceChannelsResponse struct {
	VoiceChannels []guildResponse `json:"voice_channels"`
}

type playersResponse struct {
	Players []string `json:"players"`
}

type playResponse struct {
	resultResponse
	Title    string `json:"title"`
	Position int    `json:"position"`
}

type pauseResponse struct {
	resultResponse
	Playing bool `json:"playing"`
}

type currentTrackResponse struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
	Duration  string `json:"duration"`
	Requester string `json:"requester"`
}

type queuedTrackResponse struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Duration  string `json:"duration"`
	Requester string `json:"requester"`
}

type statusResponse struct {
	Connected   bool                  `json:"connected"`
	Message     string                `json:"message,omitempty"`
	Playing     bool                  `json:"playing"`
	Paused      bool                  `json:"paused"`
	Volume      int                   `json:"volume"`
	Current     *currentTrackResponse `json:"current"`
	Queue       []queuedTrackResponse `json:"queue"`
	QueueLength int                   `json:"queue_length"`
}

func newStatusResponse(status *usecases.StatusOutput) statusResponse {
	if !status.Connected {
		return statusResponse{
			Connected: false,
			Message:   "Bot not connected in this server",
			Queue:     []queuedTrackResponse{},
		}
	}

	snap := status.Snapshot
	resp := statusResponse{
		Connected:   true,
		Playing:     snap.IsPlaying(),
		Paused:      snap.Paused,
		Volume:      snap.VolumePercent,
		Queue:       make([]queuedTrackResponse, 0, len(snap.Queue)),
		QueueLength: snap.QueueLength,
	}

	if current := snap.Current; current != nil {
		resp.Current = &currentTrackResponse{
			Title:     current.Title,
			URL:       current.URI,
			Thumbnail: current.ArtworkURL,
			Duration:  current.FormattedDuration(),
			Requester: current.Requester(),
		}
	}

	for _, track := range snap.Queue {
		resp.Queue = append(resp.Queue, queuedTrackResponse{
			Title:     track.Title,
			URL:       track.URI,
			Duration:  track.FormattedDuration(),
			Requester: track.Requester(),
		})
	}

	return resp
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}

func writeResult(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, resultResponse{
		Success: status < http.StatusBadRequest,
		Message: message,
	})
}
