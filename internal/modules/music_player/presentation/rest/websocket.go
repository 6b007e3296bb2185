package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/gorilla/websocket"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/tagilla/internal/modules/music_player/domain"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
	// wsEventBuffer is the number of pending events per client; a client that
	// falls further behind misses intermediate updates.
	wsEventBuffer = 16
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Dashboards connect from other origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// eventMessage is pushed to websocket clients after every playback event.
type eventMessage struct {
	Type   string         `json:"type"`
	Status statusResponse `json:"status"`
}

// handleEvents streams the guild's status to a websocket client: once on
// connect and again after every playback event for that guild.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	guildID, err := snowflake.Parse(r.PathValue("guild_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid guild_id format"})
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("failed to upgrade websocket", "guild", guildID, "error", err)
		return
	}
	defer conn.Close()

	updates := make(chan string, wsEventBuffer)
	if s.events != nil {
		unsubscribe := s.events.Subscribe(func(event domain.Event) {
			if event.EventGuildID() != guildID {
				return
			}
			select {
			case updates <- event.EventType():
			default:
			}
		})
		defer unsubscribe()
	}

	// Drain incoming messages (ping/pong, close frames) without blocking.
	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	slog.Debug("websocket connected", "guild", guildID, "request_id", RequestID(r.Context()))

	if err := s.pushStatus(conn, guildID, "snapshot"); err != nil {
		return
	}

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-disconnected:
			slog.Debug("websocket disconnected", "guild", guildID)
			return
		case <-s.closing:
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(wsWriteTimeout),
			)
			return
		case eventType := <-updates:
			if err := s.pushStatus(conn, guildID, eventType); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}

func (s *Server) pushStatus(conn *websocket.Conn, guildID snowflake.ID, eventType string) error {
	status := s.control.Status(usecases.StatusInput{GuildID: guildID})

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	err := conn.WriteJSON(eventMessage{
		Type:   eventType,
		Status: newStatusResponse(status),
	})
	if err != nil {
		slog.Debug("failed to write websocket message", "guild", guildID, "error", err)
	}
	return err
}
