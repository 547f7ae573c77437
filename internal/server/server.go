// Package server provides the HTTP server of the instrument.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// Instrument is everything the server reads from or controls on the
// running instrument.
type Instrument interface {
	api.Instrument
	FrameSource
	TrailSource
}

// Config holds the server configuration.
type Config struct {
	StaticDir  string
	Store      *store.Store
	Instrument Instrument
	// Notes serves the browser synth's websocket.
	Notes http.Handler
	// StreamFPS limits the preview and trail broadcast rate.
	StreamFPS int
}

// Server represents the HTTP server for the instrument.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	trails *TrailsHandler
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
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
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Instrument != nil {
		h := api.NewInstrumentHandler(s.config.Instrument, s.config.Store)
		s.mux.HandleFunc("/api/status", h.Status)
		s.mux.HandleFunc("/api/display", h.Display)
		s.mux.HandleFunc("/api/mute", h.Mute)

		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Instrument, s.config.StreamFPS))
		s.trails = NewTrailsHandler(s.config.Instrument, s.config.StreamFPS)
		s.mux.Handle("/api/trails", s.trails)
	}

	if s.config.Notes != nil {
		s.mux.Handle("/api/notes", s.config.Notes)
	}

	if s.config.Store != nil {
		sessions := api.NewSessionHandler(s.config.Store)
		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)
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

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Close stops background broadcasters.
func (s *Server) Close() {
	if s.trails != nil {
		s.trails.Close()
	}
}
