// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/talentgrid/placer/internal/app"
	model "github.com/talentgrid/placer/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle
// keeps the handler layer loosely coupled to the service package.
type Dependencies interface {
	// Run executes one allocation pass and returns the run id.
	Run(ctx context.Context, req service.RunRequest) (string, error)

	// Read operations over recorded runs.
	Summary(ctx context.Context, runID string) (service.Summary, error)
	Latest(ctx context.Context) (service.Summary, error)
	Matches(ctx context.Context, runID string) ([]model.MatchResult, error)
}

// Server wires HTTP routes for the allocation API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	allocationsHandler *AllocationsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		allocationsHandler: NewAllocationsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/allocations", MetricsMiddleware(s.allocationsHandler.HandlePostAllocation, "allocations"))
	mux.HandleFunc("/allocations/", MetricsMiddleware(s.allocationsHandler.HandleAllocationLookup, "allocations"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
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
