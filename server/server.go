package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gear6io/stardog-go/pkg/errors"
	"github.com/gear6io/stardog-go/server/config"
	"github.com/gear6io/stardog-go/server/dataset"
	"github.com/gear6io/stardog-go/server/protocols/http"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

// Server runs the scripted triplestore stand-in
type Server struct {
	config     *config.Config
	logger     zerolog.Logger
	store      *dataset.Store
	httpServer *http.Server
	listener   net.Listener
	wg         sync.WaitGroup
	mu         sync.Mutex
	startTime  time.Time
}

// New creates a new server instance, loading the configured fixture or the
// bundled seed when none is configured
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	fixture := dataset.Seed()
	if cfg.Fixture.Path != "" {
		f, err := dataset.LoadFixture(cfg.Fixture.Path)
		if err != nil {
			return nil, errors.Wrap(ErrFixtureLoadFailed, err, "failed to load fixture").AddContext("path", cfg.Fixture.Path)
		}
		fixture = f
	}

	store := dataset.NewStore(fixture)
	return &Server{
		config:     cfg,
		logger:     logger.With().Str("component", "server").Logger(),
		store:      store,
		httpServer: http.NewServer(store, logger),
	}, nil
}

// Start binds the listener and serves in the background. Cancelling ctx
// shuts the server down.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return errors.New(ErrAlreadyStarted, "server already started")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddr())
	if err != nil {
		return errors.Wrap(ErrListenFailed, err, "failed to listen").AddContext("address", s.config.ListenAddr())
	}
	s.listener = ln
	s.startTime = time.Now()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(ln); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server stopped with error")
		}
	}()

	go func() {
		<-ctx.Done()
		_ = s.Shutdown()
	}()

	s.logger.Info().
		Str("address", ln.Addr().String()).
		Strs("databases", s.store.Databases()).
		Msg("Stand-in server started")

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	s.mu.Lock()
	if s.listener == nil {
		s.mu.Unlock()
		return nil
	}
	s.listener = nil
	s.mu.Unlock()

	s.logger.Info().Msg("Shutting down server...")
	if err := s.httpServer.Stop(shutdownTimeout); err != nil {
		s.logger.Error().Err(err).Msg("Error stopping HTTP server")
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Graceful shutdown completed")
	case <-time.After(shutdownTimeout):
		s.logger.Warn().Msg("Shutdown timeout, forcing close")
	}

	return nil
}

// URL is the base endpoint clients should use, with a trailing slash
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return fmt.Sprintf("http://%s/", s.listener.Addr().String())
}

// Store exposes the dataset, mostly so tests can inspect received requests
func (s *Server) Store() *dataset.Store {
	return s.store
}

// GetUptime returns the server uptime
func (s *Server) GetUptime() time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}

// GetStatus returns the server status
func (s *Server) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"uptime":     s.GetUptime().String(),
		"start_time": s.startTime,
		"address":    s.URL(),
		"databases":  s.store.Databases(),
	}
}
