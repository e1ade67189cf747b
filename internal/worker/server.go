package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"radiosim/internal/model"
	"radiosim/internal/sim"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	maxBodySize       = 1 << 20 // 1 MB
)

// Server is the worker's HTTP surface: the push-dispatch entry point and a
// health check.
type Server struct {
	router *chi.Mux
	exec   *sim.Executor
	logger *slog.Logger
	addr   string
	wg     sync.WaitGroup
}

// NewServer creates and configures the worker HTTP server.
func NewServer(addr string, exec *sim.Executor, logger *slog.Logger) *Server {
	srv := &Server{
		router: chi.NewRouter(),
		exec:   exec,
		logger: logger,
		addr:   addr,
	}

	srv.router.Use(middleware.RequestID)
	srv.router.Use(middleware.Recoverer)

	srv.router.Post("/api/start_simulation", srv.handleStartSimulation)
	srv.router.Get("/api/health", srv.handleHealth)

	return srv
}

// Router returns the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// startSimulationRequest is the JSON body pushed by the dispatcher.
type startSimulationRequest struct {
	Config model.JobConfig `json:"config"`
}

// startSimulationResponse acknowledges an accepted push.
type startSimulationResponse struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

func (s *Server) handleStartSimulation(w http.ResponseWriter, r *http.Request) {
	var req startSimulationRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Config.JobID == "" {
		s.writeError(w, http.StatusBadRequest, "config.job_id is required")
		return
	}
	if err := req.Config.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid config: %v", err))
		return
	}

	job := &model.Job{
		ID:     req.Config.JobID,
		Status: model.StatusPending,
		Config: req.Config,
	}

	// Respond immediately; the run continues past the request's lifetime.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.exec.Run(context.Background(), job); err != nil {
			s.logger.Error("pushed job failed", "job_id", job.ID, "error", err)
		}
	}()

	s.writeJSON(w, http.StatusAccepted, startSimulationResponse{
		JobID:   job.ID,
		Message: "simulation started",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Wait blocks until all in-flight pushed runs complete.
func (s *Server) Wait() {
	s.wg.Wait()
}

// Run starts the HTTP server and blocks until a shutdown signal is received
// or ctx is cancelled, then drains in-flight runs.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("worker listening", "addr", s.addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("shutting down", "reason", ctx.Err().Error())
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.Wait()
	s.logger.Info("worker stopped")
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
