// Package server provides the HTTP server for posecoach.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/server/api"
	"github.com/ayusman/posecoach/internal/session"
	"github.com/ayusman/posecoach/internal/store"
)

// Config holds the server configuration. Only Manager is required for the
// session API; the other collaborators enable their routes when set.
type Config struct {
	StaticDir string
	UploadDir string
	Store     *store.Store
	Manager   *session.Manager
	Detector  detector.Detector
	Videos    api.VideoQueue
	Metrics   http.Handler
	Logger    *slog.Logger
}

// Server represents the HTTP server for the posecoach application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time

	mu   sync.Mutex
	http *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Manager == nil {
		config.Manager = session.NewManager(session.Config{Logger: config.Logger})
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	registry := s.config.Manager.Registry()

	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.Handle("/api/exercises", api.NewExerciseHandler(registry))
	s.mux.Handle("/api/analyze", api.NewAnalyzeHandler(registry, s.config.Manager, s.config.Detector, s.config.Logger))

	sessionHandler := api.NewSessionHandler(api.SessionHandlerConfig{
		Manager:   s.config.Manager,
		Store:     s.config.Store,
		Videos:    s.config.Videos,
		UploadDir: s.config.UploadDir,
		Logger:    s.config.Logger,
	})
	liveHandler := NewLiveHandler(s.config.Manager, s.config.Logger)

	// Route live WebSocket connections away from the JSON session handler
	sessionRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/live") {
			liveHandler.ServeHTTP(w, r)
			return
		}
		sessionHandler.ServeHTTP(w, r)
	})
	s.mux.Handle("/api/sessions", sessionRouter)
	s.mux.Handle("/api/sessions/", sessionRouter)

	// Register action API handler if Store is configured
	if s.config.Store != nil {
		actionHandler := api.NewActionHandler(s.config.Store, registry)
		s.mux.Handle("/api/actions", actionHandler)
		s.mux.Handle("/api/actions/", actionHandler)
	}

	if s.config.Metrics != nil {
		s.mux.Handle("/metrics", s.config.Metrics)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status":          "ok",
		"uptime":          uptime.String(),
		"active_sessions": s.config.Manager.Active(),
		"exercises":       s.config.Manager.Registry().Types(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address and blocks
// until it fails or Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops a server started with ListenAndServe.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
