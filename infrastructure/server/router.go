// Package server exposes the HTTP surface: execution, health, stats, the
// two websocket endpoints and the UI bundle.
package server

import (
	"code-lab/domain"
	"code-lab/infrastructure/ws"
	"code-lab/services"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	MaxCodeLength int
	StaticDir     string
}

type Server struct {
	log        *slog.Logger
	executions services.IExecutionService
	control    http.Handler
	sync       *ws.SyncHandler
	stats      *StatsCollector
	validate   *validator.Validate
	cfg        Config
}

func New(
	log *slog.Logger,
	executions services.IExecutionService,
	control http.Handler,
	sync *ws.SyncHandler,
	stats *StatsCollector,
	validate *validator.Validate,
	cfg Config,
) *Server {
	return &Server{
		log:        log,
		executions: executions,
		control:    control,
		sync:       sync,
		stats:      stats,
		validate:   validate,
		cfg:        cfg,
	}
}

// Router builds the chi router with every route and middleware.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Post("/execute", s.handleExecute)
	r.Handle("/ws", s.control)
	r.Get("/sync/{roomId}", s.handleSync)

	if s.cfg.StaticDir != "" {
		r.NotFound(spaHandler(s.cfg.StaticDir))
	}
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Collect())
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	s.sync.Serve(w, r, domain.RoomID(chi.URLParam(r, "roomId")))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
