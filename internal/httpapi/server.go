// Package httpapi exposes the control and observability endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"RecipeRadar/internal/metrics"
	"RecipeRadar/internal/usecase"
)

// Server wraps the HTTP control plane around the orchestrator.
type Server struct {
	orchestrator *usecase.Orchestrator
	logger       *slog.Logger
	httpServer   *http.Server
}

// New builds the server with routes mounted.
func New(addr string, orchestrator *usecase.Orchestrator, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	s := &Server{
		orchestrator: orchestrator,
		logger:       logger.With("component", "httpapi"),
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	router.Get("/healthz", s.handleHealth)
	router.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))

	router.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/start", s.handleStart)
		r.Post("/stop", s.handleStop)
		r.Get("/monitors", s.handleMonitors)
		r.Get("/recipes/pending", s.handlePending)
	})

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving HTTP until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.orchestrator.Status())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	// The cycle loop must outlive the request.
	if err := s.orchestrator.Start(context.WithoutCancel(r.Context())); err != nil {
		s.writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	s.orchestrator.Stop()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (s *Server) handleMonitors(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.orchestrator.Status().Monitors)
}

func (s *Server) handlePending(w http.ResponseWriter, _ *http.Request) {
	pending := s.orchestrator.Pending()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(pending),
		"recipes": pending,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("write response failed", "error", err)
	}
}
