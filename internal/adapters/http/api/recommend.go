package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/redbuttegarden/memberships/internal/domain/selector"
)

const maxRequestBody = 1 << 20

// RecommendDependencies defines the interface for recommendation requests.
type RecommendDependencies interface {
	Recommend(ctx context.Context, req selector.Request) (Recommendation, error)
}

// RecommendHandler handles recommendation requests.
type RecommendHandler struct {
	deps RecommendDependencies
}

// NewRecommendHandler creates a new recommendation handler.
func NewRecommendHandler(deps RecommendDependencies) *RecommendHandler {
	return &RecommendHandler{deps: deps}
}

// HandleRecommend handles POST /recommendations with a JSON body and
// GET /recommendations?cardholders=&guests=&tickets=.
func (h *RecommendHandler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	const op = "api.recommend"

	var (
		req selector.Request
		err error
	)
	switch r.Method {
	case http.MethodPost:
		req, err = decodeBody(w, r)
	case http.MethodGet:
		req, err = decodeQuery(r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethod))
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	rec, err := h.deps.Recommend(r.Context(), req)
	if err != nil {
		var verr *selector.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Code:    "invalid_request",
				Message: WrapKind(op, ErrInvalidRequest, err).Error(),
				Errors:  verr.Fields,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func decodeBody(w http.ResponseWriter, r *http.Request) (selector.Request, error) {
	var req selector.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return selector.Request{}, err
	}
	return req, nil
}

// decodeQuery reads the selector from query parameters. Missing guests and
// tickets default to zero; cardholders is required.
func decodeQuery(r *http.Request) (selector.Request, error) {
	q := r.URL.Query()
	var req selector.Request
	for _, p := range []struct {
		name     string
		dst      *int
		required bool
	}{
		{"cardholders", &req.Cardholders, true},
		{"guests", &req.Guests, false},
		{"tickets", &req.Tickets, false},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			if p.required {
				return selector.Request{}, errors.New("missing " + p.name)
			}
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return selector.Request{}, errors.New("invalid " + p.name + "; must be an integer")
		}
		*p.dst = n
	}
	return req, nil
}
