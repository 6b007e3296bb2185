package rest

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/usecases"
)

const (
	readHeaderTimeout = 10 * time.Second
	// playRequestTimeout bounds voice connection and track resolution for POST /play.
	playRequestTimeout = 30 * time.Second
)

// Config contains the HTTP server configuration.
type Config struct {
	Addr  string
	Token string
}

// Server exposes the playback controls over HTTP for dashboards.
type Server struct {
	control   *usecases.ControlService
	directory ports.GuildDirectory
	events    ports.EventSubscriber
	validate  *validator.Validate
	token     string

	httpServer *http.Server

	closeOnce sync.Once
	closing   chan struct{}
}

// NewServer creates a new Server. events may be nil, in which case the
// websocket endpoint only sends the initial status.
func NewServer(
	config Config,
	control *usecases.ControlService,
	directory ports.GuildDirectory,
	events ports.EventSubscriber,
) *Server {
	s := &Server{
		control:   control,
		directory: directory,
		events:    events,
		validate:  validator.New(),
		token:     config.Token,
		closing:   make(chan struct{}),
	}

	s.httpServer = &http.Server{
		Addr:              config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return s
}

// Handler returns the HTTP handler with every route and middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Roster routes are public so dashboards can offer a guild picker.
	mux.HandleFunc("GET /guilds", s.handleGuilds)
	mux.HandleFunc("GET /guilds/{guild_id}/voice_channels", s.handleVoiceChannels)

	mux.Handle("GET /guilds/{guild_id}/events", s.requireToken(http.HandlerFunc(s.handleEvents)))
	mux.Handle("GET /players", s.requireToken(http.HandlerFunc(s.handlePlayers)))
	mux.Handle("GET /status", s.requireToken(http.HandlerFunc(s.handleStatus)))
	mux.Handle("POST /play", s.requireToken(http.HandlerFunc(s.handlePlay)))
	mux.Handle("POST /pause", s.requireToken(http.HandlerFunc(s.handlePause)))
	mux.Handle("POST /skip", s.requireToken(http.HandlerFunc(s.handleSkip)))
	mux.Handle("POST /volume", s.requireToken(http.HandlerFunc(s.handleVolume)))
	mux.Handle("POST /stop", s.requireToken(http.HandlerFunc(s.handleStop)))

	return withRequestID(withAccessLog(mux))
}

// Start begins listening in the background. It returns once the listener is
// bound so address errors surface to the caller.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.httpServer.Addr)
	}

	slog.Info("started HTTP API", "addr", listener.Addr().String())

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP API stopped unexpectedly", "error", err)
		}
	}()

	return nil
}

// Shutdown stops accepting requests, closes event streams and waits for
// in-flight requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() {
		close(s.closing)
	})

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "failed to shut down HTTP API")
	}
	return nil
}
