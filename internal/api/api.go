// Package api exposes the guidance engine over HTTP for the dashboard.
//
// All endpoints speak JSON and wrap their payloads in models.APIResponse,
// except the transcript export which returns the raw export document.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/CausalDeck/Cockpit/internal/models"
	"github.com/CausalDeck/Cockpit/internal/session"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = ":8080"

// Server routes dashboard requests to the session manager.
type Server struct {
	addr     string
	sessions *session.Manager
	srv      *http.Server
}

// Opts holds server configuration collected from options.
type Opts struct {
	Addr string
}

// Option configures the server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// NewServer creates an API server over the given session manager.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return &Server{addr: cfg.Addr, sessions: sessions}
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/commands", s.commandsHandler)
	mux.HandleFunc("/sessions", s.sessionsHandler)
	mux.HandleFunc("/sessions/", s.sessionSubtreeHandler)
	return mux
}

// Start begins serving and blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("Server.Start: API listening", "addr", s.addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("API server failed: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	slog.Info("Server.Shutdown: stopping API server")
	return s.srv.Shutdown(ctx)
}

// sessionSubtreeHandler dispatches /sessions/{id}[/...] paths. The standard
// mux has no path parameters, so the ID and remainder are split by hand.
func (s *Server) sessionSubtreeHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/sessions/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session ID is required"))
		return
	}

	sess, err := s.sessions.Get(id)
	if err != nil {
		slog.Debug("Server.sessionSubtreeHandler: session not found", "sessionID", id)
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}

	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}
	switch sub {
	case "":
		s.sessionHandler(w, r, sess)
	case "messages":
		s.messagesHandler(w, r, sess)
	case "transcript":
		s.transcriptHandler(w, r, sess)
	case "transcript/export":
		s.exportHandler(w, r, sess)
	case "highlights":
		s.highlightsHandler(w, r, sess)
	case "context":
		s.contextHandler(w, r, sess)
	case "state":
		s.stateHandler(w, r, sess)
	default:
		writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown session endpoint"))
	}
}
