package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aleksaelezovic/trigo-conceptnet/pkg/store"
)

// QuadSource answers quad pattern queries as streams.
type QuadSource interface {
	Query(ctx context.Context, query *store.Query) (*store.QuadStream, error)
}

// Server represents the HTTP fragment server
type Server struct {
	source   QuadSource
	gatherer prometheus.Gatherer
	addr     string
	logger   *slog.Logger

	httpServer *http.Server
}

// NewServer creates a new fragment server. A nil gatherer disables /metrics.
func NewServer(source QuadSource, addr string, logger *slog.Logger, gatherer prometheus.Gatherer) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		source:   source,
		gatherer: gatherer,
		addr:     addr,
		logger:   logger.With("component", "fragment-server"),
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the request multiplexer.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/fragments", s.handleFragments)
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("/", s.handleRoot)
	return mux
}

// Start starts the HTTP server and blocks until it stops. A shutdown is not
// reported as an error.
func (s *Server) Start() error {
	s.logger.Info("starting fragment endpoint", "url", fmt.Sprintf("http://%s/fragments", s.addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handleRoot describes the available endpoints
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	base := fmt.Sprintf("%s://%s", scheme, r.Host)

	info := map[string]any{
		"fragments":  base + "/fragments",
		"parameters": []string{"subject", "predicate", "object", "graph", "offset", "limit"},
	}
	if s.gatherer != nil {
		info["metrics"] = base + "/metrics"
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(info) // #nosec G104 - nothing to do if the client is gone
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	s.logger.Warn("request failed", "status", statusCode, "error", message)

	body := map[string]any{
		"error": map[string]any{
			"code":    statusCode,
			"message": message,
		},
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body) // #nosec G104 - nothing to do if the client is gone
}
