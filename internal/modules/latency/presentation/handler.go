package presentation

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/sglre6355/tagilla/internal/bot"
)

// LatencyFunc reports the current gateway round-trip time.
type LatencyFunc func(s *discordgo.Session) time.Duration

// SessionLatency reads the heartbeat latency of the session.
func SessionLatency(s *discordgo.Session) time.Duration {
	if s == nil {
		return 0
	}
	return s.HeartbeatLatency()
}

// PingHandler handles the /ping command.
type PingHandler struct {
	latency LatencyFunc
}

// NewPingHandler creates a new PingHandler.
func NewPingHandler(latency LatencyFunc) *PingHandler {
	return &PingHandler{latency: latency}
}

// Handle replies with the gateway latency.
func (h *PingHandler) Handle(
	s *discordgo.Session,
	_ *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	err := r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: FormatLatency(h.latency(s)),
		},
	})
	return errors.Wrap(err, "failed to respond to ping")
}

// FormatLatency renders a latency in milliseconds with two decimals.
func FormatLatency(d time.Duration) string {
	return fmt.Sprintf("Pong! Latency: %.2f ms", float64(d)/float64(time.Millisecond))
}
