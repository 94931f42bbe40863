package dev

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kosmojs/dev/internal/logger"
	"github.com/kosmojs/dev/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// ServerOptions configures the status server.
type ServerOptions struct {
	// Addr is the listen address.
	Addr string

	// Metrics enables /metrics. Nil disables it.
	Metrics *metrics.Metrics
}

// Server is the dev status server.
type Server struct {
	options ServerOptions
	hub     *Hub
	router  chi.Router
	log     *zap.SugaredLogger

	mu       sync.Mutex
	ready    bool
	listener net.Listener
}

// NewServer creates a status server.
func NewServer(options ServerOptions) *Server {
	s := &Server{
		options: options,
		hub:     NewHub(),
		log:     logger.Named("dev"),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.With(middleware.NoCache).Get("/ready", s.handleReady)
	if options.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(options.Metrics.Gatherer(), promhttp.HandlerOpts{}))
	}
	r.Get("/events", s.hub.HandleWebSocket)

	s.router = r
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the event hub behind /events.
func (s *Server) Hub() *Hub {
	return s.hub
}

// SetReady marks the session ready.
func (s *Server) SetReady() {
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
}

// Addr returns the bound address once Start is listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.options.Addr
	}
	return s.listener.Addr().String()
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	ready := s.ready
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ready": ready})
}

// Listen binds the listen address. Start calls it if needed.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.options.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	return nil
}

func (s *Server) closeListener() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		s.listener.Close()
	}
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	s.log.Debugw("status server listening", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
