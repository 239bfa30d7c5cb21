// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/redbuttegarden/memberships/internal/adapters/repository"
	"github.com/redbuttegarden/memberships/internal/domain/selector"
	"github.com/redbuttegarden/memberships/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RecommendDependencies
	LevelsDependencies
	HealthDependencies
	StatsProvider
}

// Recommendation and LevelView are the read shapes the handlers serve.
type (
	Recommendation = types.Recommendation
	LevelView      = types.LevelView
)

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	recommendHandler *RecommendHandler
	levelsHandler    *LevelsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(deps),
		statsHandler:     NewStatsHandler(deps),
		recommendHandler: NewRecommendHandler(deps),
		levelsHandler:    NewLevelsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/recommendations", MetricsMiddleware(s.recommendHandler.HandleRecommend, "recommendations"))
	mux.HandleFunc("/levels", MetricsMiddleware(s.levelsHandler.HandleListLevels, "levels"))
	mux.HandleFunc("/levels/", MetricsMiddleware(s.levelsHandler.HandleGetLevel, "level"))
}

type errorResponse struct {
	Code    string                `json:"code"`
	Message string                `json:"message"`
	Errors  []selector.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
