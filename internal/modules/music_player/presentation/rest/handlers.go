package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/usecases"
)

const maxBodyBytes = 64 << 10

// Snowflakes exceed the float64 range JavaScript clients can represent, so
// ids are accepted both as JSON strings and as JSON numbers.

type playRequest struct {
	GuildID     json.Number `json:"guild_id" validate:"required"`
	ChannelID   json.Number `json:"channel_id" validate:"required"`
	URL         string      `json:"url" validate:"required,max=2048"`
	Requester   string      `json:"requester" validate:"max=100"`
	RequesterID json.Number `json:"requester_id"`
}

type guildRequest struct {
	GuildID json.Number `json:"guild_id" validate:"required"`
}

type volumeRequest struct {
	GuildID json.Number `json:"guild_id" validate:"required"`
	Volume  *int        `json:"volume" validate:"required,gte=0,lte=200"`
}

func (s *Server) handleGuilds(w http.ResponseWriter, _ *http.Request) {
	guilds := s.directory.Guilds()

	resp := guildsResponse{Guilds: make([]guildResponse, 0, len(guilds))}
	for _, g := range guilds {
		resp.Guilds = append(resp.Guilds, guildResponse{ID: g.ID.String(), Name: g.Name})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoiceChannels(w http.ResponseWriter, r *http.Request) {
	guildID, err := snowflake.Parse(r.PathValue("guild_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid guild_id format"})
		return
	}

	channels, err := s.directory.VoiceChannels(guildID)
	if errors.Is(err, ports.ErrGuildNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Guild not found"})
		return
	}
	if err != nil {
		slog.Error("failed to list voice channels", "guild", guildID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}

	resp := voiceChannelsResponse{VoiceChannels: make([]guildResponse, 0, len(channels))}
	for _, c := range channels {
		resp.VoiceChannels = append(resp.VoiceChannels, guildResponse{ID: c.ID.String(), Name: c.Name})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePlayers(w http.ResponseWriter, _ *http.Request) {
	guilds := s.control.ActiveGuilds()

	resp := playersResponse{Players: make([]string, 0, len(guilds))}
	for _, id := range guilds {
		resp.Players = append(resp.Players, id.String())
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	rawID := r.URL.Query().Get("guild_id")
	if rawID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing guild_id parameter"})
		return
	}
	guildID, err := snowflake.Parse(rawID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid guild_id format"})
		return
	}

	limit := 0
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		limit, err = strconv.Atoi(rawLimit)
		if err != nil || limit < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid limit"})
			return
		}
	}

	status := s.control.Status(usecases.StatusInput{GuildID: guildID, Limit: limit})
	writeJSON(w, http.StatusOK, newStatusResponse(status))
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if !s.decode(w, r, &req) {
		return
	}

	guildID, ok := parseID(w, req.GuildID, "guild_id")
	if !ok {
		return
	}
	channelID, ok := parseID(w, req.ChannelID, "channel_id")
	if !ok {
		return
	}
	var requesterID snowflake.ID
	if req.RequesterID != "" {
		if requesterID, ok = parseID(w, req.RequesterID, "requester_id"); !ok {
			return
		}
	}

	_, err := s.directory.VoiceChannel(guildID, channelID)
	switch {
	case errors.Is(err, ports.ErrGuildNotFound):
		writeResult(w, http.StatusNotFound, "Server not found")
		return
	case errors.Is(err, ports.ErrChannelNotFound):
		writeResult(w, http.StatusNotFound, "Voice channel not found")
		return
	case err != nil:
		writeControlError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), playRequestTimeout)
	defer cancel()

	output, err := s.control.EnqueueBySearch(ctx, usecases.EnqueueInput{
		GuildID:        guildID,
		VoiceChannelID: channelID,
		UserID:         requesterID,
		Query:          req.URL,
		RequesterName:  req.Requester,
	})
	if err != nil {
		writeControlError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, playResponse{
		resultResponse: resultResponse{Success: true, Message: "Music added to queue"},
		Title:          output.Track.Title,
		Position:       output.Position,
	})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	guildID, ok := s.decodeGuild(w, r)
	if !ok {
		return
	}

	output, err := s.control.TogglePause(r.Context(), usecases.GuildInput{GuildID: guildID})
	if err != nil {
		writeControlError(w, r, err)
		return
	}

	message := "Paused"
	if output.Playing {
		message = "Resumed"
	}
	writeJSON(w, http.StatusOK, pauseResponse{
		resultResponse: resultResponse{Success: true, Message: message},
		Playing:        output.Playing,
	})
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	guildID, ok := s.decodeGuild(w, r)
	if !ok {
		return
	}

	output, err := s.control.Skip(r.Context(), usecases.GuildInput{GuildID: guildID})
	if err != nil {
		writeControlError(w, r, err)
		return
	}
	if !output.Skipped {
		writeResult(w, http.StatusBadRequest, "Nothing to skip")
		return
	}

	writeResult(w, http.StatusOK, "Skipped current track")
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if !s.decode(w, r, &req) {
		return
	}
	guildID, ok := parseID(w, req.GuildID, "guild_id")
	if !ok {
		return
	}

	err := s.control.SetVolume(r.Context(), usecases.SetVolumeInput{
		GuildID: guildID,
		Percent: *req.Volume,
	})
	if err != nil {
		writeControlError(w, r, err)
		return
	}

	writeResult(w, http.StatusOK, fmt.Sprintf("Volume set to %d%%", *req.Volume))
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	guildID, ok := s.decodeGuild(w, r)
	if !ok {
		return
	}

	if err := s.control.Stop(r.Context(), usecases.GuildInput{GuildID: guildID}); err != nil {
		writeControlError(w, r, err)
		return
	}

	writeResult(w, http.StatusOK, "Playback stopped")
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeResult(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		writeResult(w, http.StatusBadRequest, "Missing parameters")
		return false
	}
	return true
}

func (s *Server) decodeGuild(w http.ResponseWriter, r *http.Request) (snowflake.ID, bool) {
	var req guildRequest
	if !s.decode(w, r, &req) {
		return 0, false
	}
	return parseID(w, req.GuildID, "guild_id")
}

func parseID(w http.ResponseWriter, raw json.Number, field string) (snowflake.ID, bool) {
	id, err := snowflake.Parse(raw.String())
	if err != nil {
		writeResult(w, http.StatusBadRequest, "Invalid "+field)
		return 0, false
	}
	return id, true
}

// writeControlError maps control errors onto HTTP statuses. Messages stay
// generic, details go to the log.
func writeControlError(w http.ResponseWriter, r *http.Request, err error) {
	var resolutionErr *usecases.ResolutionError
	var connectErr *usecases.SinkConnectError

	switch {
	case errors.Is(err, usecases.ErrNoActiveSession):
		writeResult(w, http.StatusNotFound, "Player not found")
	case errors.Is(err, usecases.ErrEmptyQuery):
		writeResult(w, http.StatusBadRequest, "Missing parameters")
	case errors.Is(err, usecases.ErrInvalidVolume):
		writeResult(w, http.StatusBadRequest, "Volume must be between 0 and 200")
	case errors.Is(err, usecases.ErrMissingVoicePermissions):
		writeResult(w, http.StatusForbidden, "Missing permission to connect or speak in that channel")
	case errors.As(err, &resolutionErr):
		slog.Info("could not resolve track",
			"kind", resolutionErr.Kind.String(),
			"request_id", RequestID(r.Context()),
			"error", err,
		)
		if resolutionErr.Kind == usecases.ResolutionTransient {
			writeResult(w, http.StatusBadGateway, "Music service unavailable")
			return
		}
		writeResult(w, http.StatusUnprocessableEntity, "Could not process that link")
	case errors.As(err, &connectErr):
		slog.Warn("failed to connect to voice", "request_id", RequestID(r.Context()), "error", err)
		writeResult(w, http.StatusBadGateway, "Failed to connect to voice channel")
	case errors.Is(err, usecases.ErrNothingPlaying):
		writeResult(w, http.StatusBadRequest, "Nothing is currently playing")
	case errors.Is(err, usecases.ErrInvalidState):
		writeResult(w, http.StatusConflict, "Player is busy, please retry")
	case errors.Is(err, context.DeadlineExceeded):
		writeResult(w, http.StatusGatewayTimeout, "Request timed out")
	default:
		slog.Error("failed to handle request", "path", r.URL.Path, "request_id", RequestID(r.Context()), "error", err)
		writeResult(w, http.StatusInternalServerError, "Internal server error")
	}
}
