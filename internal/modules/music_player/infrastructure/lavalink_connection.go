package infrastructure

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/ports"
)

var _ ports.SinkConnection = (*lavalinkConnection)(nil)

// lavalinkConnection is the per-guild voice connection handed to the
// coordinator. It remembers the completion callback of the track currently
// loaded into the Lavalink player.
type lavalinkConnection struct {
	guildID snowflake.ID

	mu         sync.Mutex
	channelID  snowflake.ID
	connected  bool
	encoded    string
	onComplete ports.CompletionFunc
	trackErr   error
}

func newLavalinkConnection(guildID, channelID snowflake.ID) *lavalinkConnection {
	return &lavalinkConnection{
		guildID:   guildID,
		channelID: channelID,
		connected: true,
	}
}

func (c *lavalinkConnection) GuildID() snowflake.ID {
	return c.guildID
}

func (c *lavalinkConnection) ChannelID() snowflake.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channelID
}

func (c *lavalinkConnection) setChannel(channelID snowflake.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channelID = channelID
}

func (c *lavalinkConnection) isConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *lavalinkConnection) markDisconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
}

// arm registers onComplete for the track identified by encoded, replacing
// any previous registration.
func (c *lavalinkConnection) arm(encoded string, onComplete ports.CompletionFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encoded = encoded
	c.onComplete = onComplete
	c.trackErr = nil
}

// recordError remembers a playback failure for encoded so it is reported
// when the track ends.
func (c *lavalinkConnection) recordError(encoded string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.onComplete != nil && c.encoded == encoded {
		c.trackErr = err
	}
}

// fire invokes and clears the callback if it belongs to encoded. An empty
// encoded matches whatever is armed.
func (c *lavalinkConnection) fire(encoded string, err error) bool {
	c.mu.Lock()
	if c.onComplete == nil || (encoded != "" && c.encoded != encoded) {
		c.mu.Unlock()
		return false
	}
	onComplete := c.onComplete
	if err == nil {
		err = c.trackErr
	}
	c.onComplete = nil
	c.encoded = ""
	c.trackErr = nil
	c.mu.Unlock()

	onComplete(err)
	return true
}

// disarm drops the callback without invoking it.
func (c *lavalinkConnection) disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onComplete = nil
	c.encoded = ""
	c.trackErr = nil
}
