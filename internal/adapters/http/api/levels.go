package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// LevelsDependencies defines the interface for catalog reads.
type LevelsDependencies interface {
	Levels(ctx context.Context) []LevelView
	Level(ctx context.Context, id int) (LevelView, error)
}

// LevelsHandler handles catalog requests.
type LevelsHandler struct {
	deps LevelsDependencies
}

// NewLevelsHandler creates a new levels handler.
func NewLevelsHandler(deps LevelsDependencies) *LevelsHandler {
	return &LevelsHandler{deps: deps}
}

type levelsResponse struct {
	Levels []LevelView `json:"levels"`
	Count  int         `json:"count"`
}

// HandleListLevels handles GET /levels requests.
func (h *LevelsHandler) HandleListLevels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	levels := h.deps.Levels(r.Context())
	if levels == nil {
		levels = []LevelView{}
	}
	writeJSON(w, http.StatusOK, levelsResponse{Levels: levels, Count: len(levels)})
}

// HandleGetLevel handles GET /levels/{id} requests.
func (h *LevelsHandler) HandleGetLevel(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_level"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/levels/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	id, err := strconv.Atoi(path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	level, err := h.deps.Level(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusOK, level)
}
