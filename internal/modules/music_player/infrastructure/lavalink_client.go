package infrastructure

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tagilla/internal/modules/music_player/domain"
)

// voiceConnectionTimeout is the maximum time to wait for voice connection to be established.
const voiceConnectionTimeout = 10 * time.Second

// ErrNoPlayer is returned when a command targets a guild without a Lavalink player.
var ErrNoPlayer = errors.New("no lavalink player for guild")

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	NodeName string
	Address  string
	Password string
	Secure   bool
}

// LavalinkAdapter implements ports.AudioSink and ports.TrackResolver on top
// of DisGoLink. Voice joins go through the discordgo gateway, the resulting
// voice credentials are forwarded to Lavalink.
type LavalinkAdapter struct {
	link    disgolink.Client
	session *discordgo.Session
	botID   snowflake.ID

	handshakeMu sync.Mutex
	handshakes  map[snowflake.ID]*voiceHandshake

	connMu sync.RWMutex
	conns  map[snowflake.ID]*lavalinkConnection
}

// NewLavalinkAdapter creates a new LavalinkAdapter and connects to the node.
// The session must already be open so the bot user is known.
func NewLavalinkAdapter(
	ctx context.Context,
	session *discordgo.Session,
	config LavalinkConfig,
) (*LavalinkAdapter, error) {
	if session.State == nil || session.State.User == nil {
		return nil, errors.New("discord session is not ready")
	}

	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse bot ID")
	}

	adapter := &LavalinkAdapter{
		session:    session,
		botID:      botID,
		handshakes: make(map[snowflake.ID]*voiceHandshake),
		conns:      make(map[snowflake.ID]*lavalinkConnection),
	}

	adapter.link = disgolink.New(botID,
		disgolink.WithListenerFunc(adapter.onTrackStart),
		disgolink.WithListenerFunc(adapter.onTrackEnd),
		disgolink.WithListenerFunc(adapter.onTrackException),
		disgolink.WithListenerFunc(adapter.onTrackStuck),
		disgolink.WithListenerFunc(adapter.onWebSocketClosed),
	)

	nodeName := config.NodeName
	if nodeName == "" {
		nodeName = "main"
	}

	node, err := adapter.link.AddNode(ctx, disgolink.NodeConfig{
		Name:     nodeName,
		Address:  config.Address,
		Password: config.Password,
		Secure:   config.Secure,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to add Lavalink node")
	}

	slog.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)

	return adapter, nil
}

// BotID returns the user ID of the bot.
func (a *LavalinkAdapter) BotID() snowflake.ID {
	return a.botID
}

// Close disconnects from every Lavalink node.
func (a *LavalinkAdapter) Close() {
	a.link.Close()
}

// Connect joins the voice channel and waits until Discord has sent both
// voice events, so Lavalink can start streaming immediately.
func (a *LavalinkAdapter) Connect(
	ctx context.Context,
	guildID, channelID snowflake.ID,
) (ports.SinkConnection, error) {
	if err := a.checkVoicePermissions(channelID); err != nil {
		return nil, err
	}

	handshake := newVoiceHandshake()
	a.handshakeMu.Lock()
	a.handshakes[guildID] = handshake
	a.handshakeMu.Unlock()

	err := a.session.ChannelVoiceJoinManual(guildID.String(), channelID.String(), false, false)
	if err != nil {
		a.clearHandshake(guildID)
		return nil, errors.Wrap(err, "failed to join voice channel")
	}

	timer := time.NewTimer(voiceConnectionTimeout)
	defer timer.Stop()

	select {
	case <-handshake.Ready():
	case <-ctx.Done():
		a.leaveVoice(guildID)
		return nil, errors.Wrap(ctx.Err(), "context cancelled while waiting for voice connection")
	case <-timer.C:
		a.leaveVoice(guildID)
		return nil, errors.New("timeout waiting for voice connection")
	}

	conn := newLavalinkConnection(guildID, channelID)
	a.connMu.Lock()
	a.conns[guildID] = conn
	a.connMu.Unlock()

	slog.Info("joined voice channel", "guild", guildID, "channel", channelID)
	return conn, nil
}

func (a *LavalinkAdapter) checkVoicePermissions(channelID snowflake.ID) error {
	perms, err := a.session.State.UserChannelPermissions(a.botID.String(), channelID.String())
	if err != nil {
		// not cached, let Discord decide
		slog.Debug("could not compute voice permissions", "channel", channelID, "error", err)
		return nil
	}

	required := int64(discordgo.PermissionVoiceConnect | discordgo.PermissionVoiceSpeak)
	if perms&required != required {
		return ports.ErrMissingVoicePermissions
	}
	return nil
}

// Play loads track into the guild's Lavalink player at volume.
func (a *LavalinkAdapter) Play(
	ctx context.Context,
	conn ports.SinkConnection,
	track *domain.Track,
	volume float64,
	onComplete ports.CompletionFunc,
) error {
	lc, err := a.connection(conn)
	if err != nil {
		return err
	}

	lc.arm(track.Encoded, onComplete)

	player := a.link.Player(lc.guildID)
	// Use WithEncodedTrack to avoid userData:null issue
	err = player.Update(ctx,
		lavalink.WithEncodedTrack(track.Encoded),
		lavalink.WithVolume(toLavalinkVolume(volume)),
		lavalink.WithPaused(false),
	)
	if err != nil {
		lc.disarm()
		return errors.Wrap(err, "failed to play track")
	}

	return nil
}

// Pause pauses the current playback.
func (a *LavalinkAdapter) Pause(ctx context.Context, conn ports.SinkConnection) error {
	return a.update(ctx, conn, "pause playback", lavalink.WithPaused(true))
}

// Resume resumes the current playback.
func (a *LavalinkAdapter) Resume(ctx context.Context, conn ports.SinkConnection) error {
	return a.update(ctx, conn, "resume playback", lavalink.WithPaused(false))
}

// SetVolume changes the volume of the current playback.
func (a *LavalinkAdapter) SetVolume(ctx context.Context, conn ports.SinkConnection, volume float64) error {
	return a.update(ctx, conn, "set volume", lavalink.WithVolume(toLavalinkVolume(volume)))
}

// Stop ends the current track. Lavalink reports the stop as a TrackEndEvent,
// which fires the completion callback. If the player has no track there is
// nothing to wait for and the callback fires immediately.
func (a *LavalinkAdapter) Stop(ctx context.Context, conn ports.SinkConnection) error {
	lc, err := a.connection(conn)
	if err != nil {
		return err
	}

	player := a.link.ExistingPlayer(lc.guildID)
	if player == nil || player.Track() == nil {
		lc.fire("", nil)
		return nil
	}

	if err := player.Update(ctx, lavalink.WithNullTrack()); err != nil {
		return errors.Wrap(err, "failed to stop playback")
	}
	return nil
}

// IsConnected reports whether the voice connection is still alive.
func (a *LavalinkAdapter) IsConnected(conn ports.SinkConnection) bool {
	lc, err := a.connection(conn)
	if err != nil {
		return false
	}
	return lc.isConnected()
}

// IsProducing reports whether the player has an unpaused track loaded.
func (a *LavalinkAdapter) IsProducing(conn ports.SinkConnection) bool {
	player := a.link.ExistingPlayer(conn.GuildID())
	return player != nil && player.Track() != nil && !player.Paused()
}

// Disconnect destroys the Lavalink player and leaves the voice channel.
func (a *LavalinkAdapter) Disconnect(ctx context.Context, conn ports.SinkConnection) error {
	lc, err := a.connection(conn)
	if err != nil {
		return err
	}

	lc.markDisconnected()
	lc.disarm()

	a.connMu.Lock()
	if a.conns[lc.guildID] == lc {
		delete(a.conns, lc.guildID)
	}
	a.connMu.Unlock()

	if player := a.link.ExistingPlayer(lc.guildID); player != nil {
		if err := player.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy player", "guild", lc.guildID, "error", err)
		}
	}

	if err := a.session.ChannelVoiceJoinManual(lc.guildID.String(), "", false, false); err != nil {
		return errors.Wrap(err, "failed to leave voice channel")
	}
	a.clearHandshake(lc.guildID)

	slog.Info("left voice channel", "guild", lc.guildID)
	return nil
}

func (a *LavalinkAdapter) update(
	ctx context.Context,
	conn ports.SinkConnection,
	action string,
	opts ...lavalink.PlayerUpdateOpt,
) error {
	player := a.link.ExistingPlayer(conn.GuildID())
	if player == nil {
		return errors.Wrapf(ErrNoPlayer, "failed to %s", action)
	}

	if err := player.Update(ctx, opts...); err != nil {
		return errors.Wrapf(err, "failed to %s", action)
	}
	return nil
}

func (a *LavalinkAdapter) connection(conn ports.SinkConnection) (*lavalinkConnection, error) {
	lc, ok := conn.(*lavalinkConnection)
	if !ok || lc == nil {
		return nil, errors.Newf("unexpected sink connection type %T", conn)
	}
	return lc, nil
}

func (a *LavalinkAdapter) lookupConnection(guildID snowflake.ID) *lavalinkConnection {
	a.connMu.RLock()
	defer a.connMu.RUnlock()
	return a.conns[guildID]
}

func (a *LavalinkAdapter) leaveVoice(guildID snowflake.ID) {
	a.clearHandshake(guildID)
	if err := a.session.ChannelVoiceJoinManual(guildID.String(), "", false, false); err != nil {
		slog.Warn("failed to leave voice channel", "guild", guildID, "error", err)
	}
}

func toLavalinkVolume(volume float64) int {
	return int(math.Round(volume * 100))
}

// Ensure LavalinkAdapter implements port interfaces.
var (
	_ ports.AudioSink     = (*LavalinkAdapter)(nil)
	_ ports.TrackResolver = (*LavalinkAdapter)(nil)
)
