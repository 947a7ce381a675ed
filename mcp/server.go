// Package mcp exposes a Dispatcher over HTTP: tool listing, tool calls and a health probe.
package mcp

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/skosovsky/toolserver"
)

// Config configures a Server.
type Config struct {
	Dispatcher *toolserver.Dispatcher
	Name       string
	Version    string
	CORSOrigin string
	MaxBody    int64
	Logger     *slog.Logger
}

// Server is the HTTP front of a Dispatcher.
type Server struct {
	dispatcher *toolserver.Dispatcher
	name       string
	version    string
	corsOrigin string
	maxBody    int64
	logger     *slog.Logger
}

// NewServer creates a Server. Dispatcher is required.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := cfg.Name
	if name == "" {
		name = "toolserver"
	}
	corsOrigin := cfg.CORSOrigin
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	maxBody := cfg.MaxBody
	if maxBody <= 0 {
		maxBody = 1 << 20 // 1 MB default
	}
	return &Server{
		dispatcher: cfg.Dispatcher,
		name:       name,
		version:    cfg.Version,
		corsOrigin: corsOrigin,
		maxBody:    maxBody,
		logger:     logger,
	}
}

// Handler returns an http.Handler with all routes and middleware wired.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = s.corsMiddleware(handler)
	handler = s.maxBodyMiddleware(handler)
	return handler
}

// RegisterRoutes mounts the routes onto an existing mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /tools", s.handleListTools)
	mux.HandleFunc("POST /call-tool", s.handleCallTool)
	mux.HandleFunc("GET /health", s.handleHealth)
}

// --- Middleware ---

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if s.version != "" {
			w.Header().Set("Server", s.name+"/"+s.version)
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) maxBodyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
		next.ServeHTTP(w, r)
	})
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// validationError is the body of a rejected request: {"detail": "..."}.
type validationError struct {
	Detail string `json:"detail"`
}

func writeValidationError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, validationError{Detail: detail})
}
