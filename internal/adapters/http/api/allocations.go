package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	repository "github.com/talentgrid/placer/internal/adapters/repository"
	service "github.com/talentgrid/placer/internal/app"
	model "github.com/talentgrid/placer/internal/domain/model"
	"github.com/talentgrid/placer/internal/domain/scoring"
)

// AllocationsHandler handles allocation run requests and lookups.
type AllocationsHandler struct {
	deps Dependencies
}

// NewAllocationsHandler creates a new allocations handler.
func NewAllocationsHandler(deps Dependencies) *AllocationsHandler {
	return &AllocationsHandler{deps: deps}
}

// allocationRequest mirrors the OpenAPI schema for POST /allocations.
type allocationRequest struct {
	Scope          []string           `json:"scope,omitempty"`
	Incremental    bool               `json:"incremental,omitempty"`
	Weights        *weightsPayload    `json:"weights,omitempty"`
	Algorithm      string             `json:"algorithm,omitempty"`
	EnsembleMethod string             `json:"ensemble_method,omitempty"`
	MethodWeights  map[string]float64 `json:"method_weights,omitempty"`
}

type weightsPayload struct {
	Skill    float64 `json:"skill"`
	Location float64 `json:"location"`
	CGPA     float64 `json:"cgpa"`
}

func (a allocationRequest) validate() error {
	if a.Weights != nil {
		w := a.Weights
		if w.Skill < 0 || w.Location < 0 || w.CGPA < 0 {
			return errors.New("weights must not be negative")
		}
		if w.Skill+w.Location+w.CGPA <= 0 {
			return errors.New("weights must not all be zero")
		}
	}
	for _, email := range a.Scope {
		if strings.TrimSpace(email) == "" {
			return errors.New("scope entries must not be blank")
		}
	}
	return nil
}

func (a allocationRequest) toRunRequest() service.RunRequest {
	req := service.RunRequest{
		Scope:          a.Scope,
		Incremental:    a.Incremental,
		Algorithm:      a.Algorithm,
		EnsembleMethod: a.EnsembleMethod,
		MethodWeights:  a.MethodWeights,
	}
	if a.Weights != nil {
		req.Weights = &scoring.Weights{
			Skill:    a.Weights.Skill,
			Location: a.Weights.Location,
			CGPA:     a.Weights.CGPA,
		}
	}
	return req
}

// allocationResponse is the 201 payload of POST /allocations.
type allocationResponse struct {
	RunID   string          `json:"run_id"`
	Summary service.Summary `json:"summary"`
}

// matchesResponse is the payload of GET /allocations/{id}/matches.
type matchesResponse struct {
	RunID   string              `json:"run_id"`
	Matches []model.MatchResult `json:"matches"`
}

// HandlePostAllocation handles POST /allocations requests.
func (h *AllocationsHandler) HandlePostAllocation(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_allocation"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req allocationRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	runID, err := h.deps.Run(r.Context(), req.toRunRequest())
	if err != nil {
		h.writeRunError(w, op, err)
		return
	}
	summary, err := h.deps.Summary(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, allocationResponse{RunID: runID, Summary: summary})
}

// HandleAllocationLookup handles GET /allocations/latest,
// GET /allocations/{id} and GET /allocations/{id}/matches.
func (h *AllocationsHandler) HandleAllocationLookup(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_allocation"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/allocations/")
	switch {
	case path == "latest":
		summary, err := h.deps.Latest(r.Context())
		if err != nil {
			h.writeLookupError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)

	case strings.HasSuffix(path, "/matches"):
		runID := strings.TrimSuffix(path, "/matches")
		if runID == "" || strings.Contains(runID, "/") {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		matches, err := h.deps.Matches(r.Context(), runID)
		if err != nil {
			h.writeLookupError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, matchesResponse{RunID: runID, Matches: matches})

	case path != "" && !strings.Contains(path, "/"):
		summary, err := h.deps.Summary(r.Context(), path)
		if err != nil {
			h.writeLookupError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)

	default:
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
	}
}

func (h *AllocationsHandler) writeRunError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	case errors.Is(err, service.ErrRunInProgress):
		writeError(w, http.StatusConflict, "run_in_progress", WrapKind(op, ErrConflict, err))
	case errors.Is(err, repository.ErrCapacityConflict):
		writeError(w, http.StatusConflict, "capacity_conflict", WrapKind(op, ErrConflict, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

func (h *AllocationsHandler) writeLookupError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, repository.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
}
