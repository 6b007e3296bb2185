package infrastructure

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// voiceCredentials is what Lavalink needs to open a voice connection.
type voiceCredentials struct {
	channelID *snowflake.ID
	sessionID string
	token     string
	endpoint  string
}

// voiceHandshake collects the VoiceStateUpdate and VoiceServerUpdate that
// Discord sends after a voice join. Lavalink rejects partial voice state, so
// nothing is forwarded until both halves have arrived. Once complete, every
// later update of either half is forwarded with the latest credentials.
type voiceHandshake struct {
	mu        sync.Mutex
	creds     voiceCredentials
	hasState  bool
	hasServer bool
	ready     chan struct{}
}

func newVoiceHandshake() *voiceHandshake {
	return &voiceHandshake{ready: make(chan struct{})}
}

// recordState stores the session half and returns the credentials if both
// halves are present.
func (h *voiceHandshake) recordState(channelID *snowflake.ID, sessionID string) (voiceCredentials, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.hasState = true
	h.creds.channelID = channelID
	h.creds.sessionID = sessionID
	return h.completeLocked()
}

// recordServer stores the server half and returns the credentials if both
// halves are present.
func (h *voiceHandshake) recordServer(token, endpoint string) (voiceCredentials, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.hasServer = true
	h.creds.token = token
	h.creds.endpoint = endpoint
	return h.completeLocked()
}

func (h *voiceHandshake) completeLocked() (voiceCredentials, bool) {
	if !h.hasState || !h.hasServer {
		return voiceCredentials{}, false
	}

	select {
	case <-h.ready:
	default:
		close(h.ready)
	}
	return h.creds, true
}

// Ready is closed once both halves have been received.
func (h *voiceHandshake) Ready() <-chan struct{} {
	return h.ready
}
