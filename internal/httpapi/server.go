// Package httpapi implements the HTTP control surface: the dashboard, the
// generic get/set state protocol, JPEG image retrieval, and a debug
// surface built on go-echarts and tailsql.
package httpapi

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/banshee-data/visionfusion/internal/audit"
	"github.com/banshee-data/visionfusion/internal/capture"
	"github.com/banshee-data/visionfusion/internal/state"
)

// Config constructs a Server.
type Config struct {
	Store     *state.Store
	Audit     *audit.Logger
	Addr      string
	Traces    map[string]*capture.SettlingTrace // camera id -> settling trace, optional
	CameraIDs []string
}

// Server owns the HTTP listener for the control and debug surface.
type Server struct {
	store     *state.Store
	auditDB   *audit.Logger
	traces    map[string]*capture.SettlingTrace
	cameraIDs []string
	tail      *tailBroadcaster

	server *http.Server
}

// New builds a Server from cfg, wiring its routes onto a fresh mux.
func New(cfg Config) *Server {
	s := &Server{
		store:     cfg.Store,
		auditDB:   cfg.Audit,
		traces:    cfg.Traces,
		cameraIDs: cfg.CameraIDs,
		tail:      newTailBroadcaster(),
	}
	cfg.Store.OnTransition(s.tail.publish)
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	s.server = &http.Server{
		Addr:    cfg.Addr,
		Handler: loggingMiddleware(mux),
	}
	return s
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("httpapi: %s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", s.handleDashboard)
	mux.HandleFunc("/api/get", s.handleGet)
	mux.HandleFunc("/api/get_data", s.handleGet)
	mux.HandleFunc("/api/set", s.handleSet)
	mux.HandleFunc("/api/set_data", s.handleSet)
	mux.HandleFunc("/api/get_image", s.handleGetImage)
	s.attachDebugRoutes(mux)
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("httpapi: listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("httpapi: graceful shutdown failed, forcing close: %v", err)
		return s.server.Close()
	}
	return nil
}
