// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Thermoquad/tacbridge/internal/bridge"
)

// SnapshotSource provides the latest bridge state
type SnapshotSource interface {
	Snapshot() *bridge.Snapshot
}

// Server serves /metrics, /api/status, /api/statistics and /healthz
type Server struct {
	router   *mux.Router
	state    SnapshotSource
	stats    StatsSource
	registry *prometheus.Registry
	logger   *slog.Logger
}

// NewServer creates a server over the given state and statistics
func NewServer(state SnapshotSource, stats StatsSource, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	if err := registry.Register(NewCollector(stats)); err != nil {
		return nil, fmt.Errorf("register collector: %w", err)
	}
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	s := &Server{
		router:   mux.NewRouter(),
		state:    state,
		stats:    stats,
		registry: registry,
		logger:   logger,
	}
	s.loadAPI()
	return s, nil
}

func (s *Server) loadAPI() {
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods("GET")
	s.router.HandleFunc("/healthz", s.healthz).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.getStatus).Methods("GET")
	api.HandleFunc("/statistics", s.getStatistics).Methods("GET")
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.state.Snapshot()
	if snap == nil {
		http.Error(w, "bridge not started", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, snap)
}

type statisticsResponse struct {
	Control       uint64            `json:"control_messages"`
	Device        uint64            `json:"device_messages"`
	Valid         uint64            `json:"valid_messages"`
	Pending       uint64            `json:"pending_configs"`
	Dropped       map[string]uint64 `json:"dropped"`
	Clamped       map[string]uint64 `json:"clamped"`
	RateWarnings  uint64            `json:"refresh_rate_warnings"`
	ConfigPushes  uint64            `json:"config_pushes"`
	Published     map[string]uint64 `json:"published"`
	PublishErrors uint64            `json:"publish_errors"`
	MessageRate   float64           `json:"message_rate"`
	ErrorRate     float64           `json:"error_rate"`
}

func (s *Server) getStatistics(w http.ResponseWriter, r *http.Request) {
	st := s.stats.Snapshot()
	writeJSON(w, statisticsResponse{
		Control:       st.ControlMessages,
		Device:        st.DeviceMessages,
		Valid:         st.ValidMessages,
		Pending:       st.PendingConfigs,
		Dropped:       st.Dropped,
		Clamped:       st.Clamped,
		RateWarnings:  st.RateWarnings,
		ConfigPushes:  st.ConfigPushes,
		Published:     st.Published,
		PublishErrors: st.PublishErrors,
		MessageRate:   st.MessageRate,
		ErrorRate:     st.ErrorRate,
	})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
