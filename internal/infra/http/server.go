package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-storefront-bot/internal/config"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes /health and /metrics for operators.
type Server struct {
	cfg    config.HTTPConfig
	store  Pinger
	log    *zerolog.Logger
	server *http.Server
}

func NewServer(cfg config.HTTPConfig, store Pinger, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "ops_http").Logger()
	s := &Server{cfg: cfg, store: store, log: &l}
	if cfg.Port != 0 {
		s.server = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           s.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return s
}

// Handler builds the router. Start uses it; tests call it directly.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log))
	r.Get("/health", s.handleHealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// Start blocks serving until Shutdown. A port of 0 disables the server and
// Start returns at once. Shutdown may run before or during Start.
func (s *Server) Start() error {
	if s.server == nil {
		s.log.Info().Msg("ops http server disabled")
		return nil
	}
	s.log.Info().Int("port", s.cfg.Port).Msg("ops http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Store: "ok"}
	code := http.StatusOK
	if err := s.store.Ping(ctx); err != nil {
		s.log.Warn().Err(err).Msg("health check: store unreachable")
		resp = healthResponse{Status: "degraded", Store: err.Error()}
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
