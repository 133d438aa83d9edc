package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-reliable-fetch/internal/cache/service"
)

// StatusSource reports extra component state for the health endpoint
type StatusSource func() map[string]string

// Server represents the admin HTTP server
type Server struct {
	cacheService *service.CacheService
	status       StatusSource
	logger       *zap.Logger
	server       *http.Server
}

// NewServer creates a new admin server. A nil cacheService leaves the cache
// API out and only serves health and metrics.
func NewServer(cacheService *service.CacheService, status StatusSource, logger *zap.Logger) *Server {
	return &Server{
		cacheService: cacheService,
		status:       status,
		logger:       logger,
	}
}

// StartUnixSocket starts the HTTP server on a Unix socket
func (s *Server) StartUnixSocket(socketPath string) error {
	// Remove existing socket file
	if err := os.RemoveAll(socketPath); err != nil {
		s.logger.Warn("Failed to remove existing socket file", zap.String("path", socketPath), zap.Error(err))
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return err
	}

	// readable/writable by owner and group
	if err := os.Chmod(socketPath, 0660); err != nil {
		s.logger.Warn("Failed to set socket permissions", zap.String("path", socketPath), zap.Error(err))
	}

	s.logger.Info("Starting admin HTTP server on Unix socket", zap.String("socket_path", socketPath))
	return s.serve(listener)
}

// Start starts the HTTP server on a TCP address
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.logger.Info("Starting admin HTTP server", zap.String("addr", listener.Addr().String()))
	return s.serve(listener)
}

func (s *Server) serve(listener net.Listener) error {
	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	err := s.server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("Stopping admin HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.createRouter()
}

// createRouter creates and configures the HTTP router
func (s *Server) createRouter() *mux.Router {
	router := mux.NewRouter()
	// keys may contain encoded slashes
	router.UseEncodedPath()

	if s.cacheService != nil {
		router.HandleFunc("/api/cache/tags/{tag}", s.handlePurgeTag).Methods("DELETE")
		router.HandleFunc("/api/cache/{key}", s.handleGet).Methods("GET")
		router.HandleFunc("/api/cache/{key}", s.handleSet).Methods("POST")
		router.HandleFunc("/api/cache/{key}", s.handleDelete).Methods("DELETE")
	}

	// Health check
	router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return router
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC(),
	}
	if s.status != nil {
		if components := s.status(); len(components) > 0 {
			response["components"] = components
		}
	}
	s.writeResponse(w, response)
}

// parseRequest parses JSON request body
func (s *Server) parseRequest(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	defer r.Body.Close()

	return json.Unmarshal(body, v)
}

// writeResponse writes JSON response
func (s *Server) writeResponse(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}

// writeText writes a plain message the way the cache API always answered
func (s *Server) writeText(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(statusCode)
	if _, err := io.WriteString(w, message); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}
