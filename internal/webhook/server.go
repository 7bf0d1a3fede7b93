// Package webhook serves the HTTP endpoints that chat integrations call.
package webhook

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/UllasZ/teams-taiga-integration/internal/teams"
	"github.com/UllasZ/teams-taiga-integration/internal/types"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Classifier is the pipeline surface the server needs.
type Classifier interface {
	Classify(ctx context.Context, message string) types.ClassificationOutcome
	FileStory(ctx context.Context, title, description string) types.ClassificationOutcome
}

// Config controls the listener.
type Config struct {
	// Addr is the TCP listen address, e.g. ":8000".
	Addr string

	// Secret, when non-empty, must match the token field of webhook posts.
	Secret string

	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration

	Logger *zap.Logger
}

// DefaultConfig returns listener defaults.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8000",
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   15 * time.Second,
	}
}

// Server manages the HTTP listener and request handling.
type Server struct {
	cfg        Config
	classifier Classifier
	teams      *teams.Store
	logger     *zap.Logger

	mu       sync.RWMutex
	running  bool
	listener net.Listener
	http     *http.Server
	doneCh   chan struct{}
}

// NewServer creates a Server. store may be nil, in which case a fresh one is used.
func NewServer(cfg Config, classifier Classifier, store *teams.Store) (*Server, error) {
	if classifier == nil {
		return nil, fmt.Errorf("classifier cannot be nil")
	}
	if store == nil {
		store = teams.NewStore()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = DefaultConfig().ReadHeaderTimeout
	}
	return &Server{
		cfg:        cfg,
		classifier: classifier,
		teams:      store,
		logger:     logger,
	}, nil
}

// Handler returns the routed handler. It is usable without Start.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /teams/webhook", s.handleTeamsWebhook)
	mux.HandleFunc("POST /taiga/create-task", s.handleCreateTask)
	mux.HandleFunc("POST /teams/mock", s.handleCreateMockTeam)
	mux.HandleFunc("GET /teams/mock/{taskID}", s.handleGetMockTeam)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// Start begins listening. Requests are served in the background until
// Stop is called or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("webhook server already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}

	s.listener = listener
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.doneCh = make(chan struct{})
	s.running = true
	srv, done := s.http, s.doneCh
	s.mu.Unlock()

	s.logger.Info("webhook server listening", zap.String("addr", listener.Addr().String()))

	go func() {
		defer close(done)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("webhook server failed", zap.Error(err))
		}
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	go func() {
		select {
		case <-ctx.Done():
			_ = s.Stop()
		case <-done:
		}
	}()

	return nil
}

// Addr returns the bound address, or "" when not running.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop drains in-flight requests and closes the listener.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	srv, done := s.http, s.doneCh
	s.running = false
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Warn("graceful shutdown incomplete", zap.Error(err))
		_ = srv.Close()
	}
	<-done

	s.logger.Info("webhook server stopped")
	return nil
}

// IsRunning returns whether the server is currently running
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// authorized reports whether token matches the configured secret.
func (s *Server) authorized(token string) bool {
	if s.cfg.Secret == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.Secret)) == 1
}
