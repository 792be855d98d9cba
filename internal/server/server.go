// Package server provides the HTTP server for the Kujiin seal
// recognition system.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/takeru/kujiin/internal/app"
	"github.com/takeru/kujiin/internal/capture"
	"github.com/takeru/kujiin/internal/config"
	"github.com/takeru/kujiin/internal/server/api"
	"github.com/takeru/kujiin/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Conf      config.Config
	Store     *store.Store
	Camera    capture.Camera
	App       *app.App
}

// Server represents the HTTP server for the Kujiin application.
type Server struct {
	config Config
	router chi.Router
	events *EventsHandler
	start  time.Time
}

// New creates a new Server with the given configuration. When an App is
// supplied, its seal and completion events are forwarded to the
// websocket hub for the presentation layer.
func New(cfg Config) *Server {
	s := &Server{
		config: cfg,
		events: NewEventsHandler(),
		start:  time.Now(),
	}

	if cfg.App != nil {
		cfg.App.OnSealEvent(s.events.BroadcastSeal)
		cfg.App.OnCompletion(s.events.BroadcastCompletion)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)

	if s.config.Store != nil {
		seals := api.NewSealsHandler(s.config.Store, s.config.Conf)
		r.Get("/api/seals", seals.List)
		r.Get("/api/seals/{seal}/samples", seals.ListSamples)
		r.Post("/api/seals/{seal}/samples", seals.CreateSamples)
		r.Delete("/api/seals/{seal}/samples", seals.DeleteSamples)
	}

	if s.config.App != nil {
		pipeline := api.NewPipelineHandler(s.config.App)
		r.Post("/api/train", pipeline.Train)
		r.Post("/api/reset", pipeline.Reset)
	}

	if s.config.Camera != nil {
		r.Get("/api/stream", NewStreamHandler(s.config.Camera).ServeHTTP)
	}

	r.Get("/api/events", s.events.ServeHTTP)

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		r.Handle("/*", fs)
	}

	s.router = r
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Events returns the websocket event hub.
func (s *Server) Events() *EventsHandler {
	return s.events
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
