// Package server exposes the engine over HTTP: session lifecycle and
// snapshot endpoints for the UI, a websocket for the landmark frame stream,
// and history/progress queries against storage.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/stagecoach/internal/recorder"
	"github.com/claude/stagecoach/internal/session"
	"github.com/claude/stagecoach/internal/storage"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       *storage.DB
	tracker  *session.Tracker
	recorder *recorder.Recorder
	log      *slog.Logger
	apiKey   string
	router   chi.Router
}

// New creates a new Server with all routes configured. The recorder may be
// nil when frame recording is disabled.
func New(db *storage.DB, tracker *session.Tracker, rec *recorder.Recorder, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:       db,
		tracker:  tracker,
		recorder: rec,
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Mount attaches an additional handler under the given pattern. Used to
// expose the MCP streamable-HTTP transport alongside the REST API.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Capture-client endpoints (API key required)
	auth := APIKeyAuth(s.apiKey)
	s.router.With(auth).Post("/api/v1/sessions/start", s.handleStartSession)
	s.router.With(auth).Post("/api/v1/sessions/stop", s.handleStopSession)
	s.router.With(auth).Get("/api/v1/sessions/current/frames", s.handleFrameStream)

	// Dashboard API endpoints (no auth — tsnet handles access)
	s.router.Get("/api/v1/sessions/current", s.handleCurrentState)
	s.router.Get("/api/v1/sessions", s.handleQuerySessions)
	s.router.Get("/api/v1/sessions/{id}", s.handleGetSession)
	s.router.Get("/api/v1/stats/progress", s.handleProgress)
	s.router.Get("/api/v1/tips", s.handleTipCatalog)
	s.router.Get("/api/v1/engine/params", s.handleGetEngineParams)
	s.router.Put("/api/v1/engine/params", s.handleSetEngineParams)
}
