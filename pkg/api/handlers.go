package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/mwcs-module-service/pkg/enumerate"
	"github.com/gilchrisn/mwcs-module-service/pkg/models"
	"github.com/gilchrisn/mwcs-module-service/pkg/parser"
	"github.com/gilchrisn/mwcs-module-service/pkg/reduction"
	"github.com/gilchrisn/mwcs-module-service/pkg/solver"
	"github.com/gilchrisn/mwcs-module-service/pkg/validation"
)

const maxBodyBytes = 64 << 20

var solverDescriptions = map[string]string{
	"auto":       "Tree DP on forests, exhaustive search on small instances, spanning-forest heuristic otherwise",
	"treedp":     "Exact dynamic program on forests, size-constrained when a module size is set",
	"exhaustive": "Exact enumeration of connected node sets with a positive-weight bound",
	"heuristic":  "Maximum spanning forest over positive node weight followed by tree DP",
}

// Handlers contains HTTP request handlers
type Handlers struct {
	config *enumerate.Config
	runs   *RunStore
}

// NewHandlers creates handlers whose runs start from config
func NewHandlers(config *enumerate.Config, runs *RunStore) *Handlers {
	return &Handlers{
		config: config,
		runs:   runs,
	}
}

// HealthCheck returns server health status
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"runs":      h.runs.Len(),
	}
	WriteSuccessResponse(w, "Service is healthy", health)
}

// ListSolvers lists available solver strategies
func (h *Handlers) ListSolvers(w http.ResponseWriter, r *http.Request) {
	solvers := make([]SolverInfo, 0)
	for _, name := range solver.Names() {
		solvers = append(solvers, SolverInfo{Name: name, Description: solverDescriptions[name]})
	}
	WriteSuccessResponse(w, "Solvers retrieved successfully", solvers)
}

// Enumerate runs module enumeration on the posted graph
func (h *Handlers) Enumerate(w http.ResponseWriter, r *http.Request) {
	var req EnumerateRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	graph, ok := buildGraph(w, req.Graph)
	if !ok {
		return
	}

	config := h.config.Clone()
	applySettings(config, req.Settings)
	if err := validation.ValidateConfig(config); err != nil {
		if ve, ok := err.(models.ValidationErrors); ok {
			WriteValidationErrorResponse(w, "Invalid settings", ve)
			return
		}
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid settings", err)
		return
	}

	logger := log.With().Str("component", "enumerate").Logger()
	result, err := enumerate.RunWithLogger(graph, config, logger, r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Enumeration failed")
		if result != nil {
			WriteErrorResponse(w, http.StatusServiceUnavailable, "Enumeration canceled", err)
			return
		}
		WriteErrorResponse(w, http.StatusUnprocessableEntity, "Enumeration failed", err)
		return
	}

	resp := &EnumerateResponse{
		RunID:       result.RunID,
		Termination: result.Termination,
		Modules:     parser.ModuleRecords(graph, result),
		Assignments: make([]Assignment, graph.NumNodes),
		Rounds:      result.Rounds,
		RuntimeMS:   result.RuntimeMS,
	}
	for i := 0; i < graph.NumNodes; i++ {
		resp.Assignments[i] = Assignment{
			Label:  graph.Labels[i],
			Module: result.ModuleIndex[i],
			Weight: result.ModuleWeight[i],
		}
	}
	h.runs.Put(resp)

	log.Info().
		Str("run_id", resp.RunID).
		Int("modules", len(resp.Modules)).
		Msg("Enumeration request completed")

	WriteSuccessResponse(w, "Enumeration completed", resp)
}

// GetRun returns a stored enumeration response
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runId"]

	resp, ok := h.runs.Get(runID)
	if !ok {
		WriteErrorResponse(w, http.StatusNotFound, "Run not found", fmt.Errorf("no run with id %s", runID))
		return
	}
	WriteSuccessResponse(w, "Run retrieved successfully", resp)
}

// Reduce applies the reduction rules to the posted graph
func (h *Handlers) Reduce(w http.ResponseWriter, r *http.Request) {
	var req ReduceRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	graph, ok := buildGraph(w, req.Graph)
	if !ok {
		return
	}

	root := reduction.NoRoot
	if req.Root != "" {
		id, exists := graph.NodeByLabel(req.Root)
		if !exists {
			WriteErrorResponse(w, http.StatusBadRequest, "Unknown root node", fmt.Errorf("no node labeled %s", req.Root))
			return
		}
		root = id
	}

	hubRules := h.config.HubRules()
	if req.HubRules != nil {
		hubRules = *req.HubRules
	}

	engine := reduction.NewEngine(log.With().Str("component", "reduction").Logger(), hubRules)
	working := reduction.NewWorking(graph)
	stats, err := engine.Reduce(working, root)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Reduction failed", err)
		return
	}

	reduced, nodeMap := working.Export()
	provenance := make(map[string][]string, reduced.NumNodes)
	for i, orig := range nodeMap {
		labels := make([]string, len(orig))
		for j, n := range orig {
			labels[j] = graph.Labels[n]
		}
		provenance[reduced.Labels[i]] = labels
	}

	WriteSuccessResponse(w, "Reduction completed", ReduceResponse{
		Graph:      parser.NewJSONGraph(reduced),
		Provenance: provenance,
		Stats:      stats,
	})
}

func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if !ValidateContentType(r, "application/json") {
		WriteErrorResponse(w, http.StatusUnsupportedMediaType, "Content type must be application/json", nil)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func buildGraph(w http.ResponseWriter, jg parser.JSONGraph) (*models.Graph, bool) {
	if err := validation.ValidateJSONGraph(jg); err != nil {
		if ve, ok := err.(models.ValidationErrors); ok {
			WriteValidationErrorResponse(w, "Invalid graph", ve)
		} else {
			WriteErrorResponse(w, http.StatusBadRequest, "Invalid graph", err)
		}
		return nil, false
	}

	graph, err := jg.Graph()
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid graph", err)
		return nil, false
	}
	return graph, true
}

func applySettings(config *enumerate.Config, s *EnumerateSettings) {
	if s == nil {
		return
	}
	if s.Solver != "" {
		config.Set("solver.name", s.Solver)
	}
	if s.ModuleSize != nil {
		config.Set("solver.module_size", *s.ModuleSize)
	}
	if s.TimeLimit != nil {
		config.Set("solver.time_limit", *s.TimeLimit)
	}
	if s.Preprocess != nil {
		config.Set("preprocess.enabled", *s.Preprocess)
	}
	if s.InitialPreprocess != nil {
		config.Set("preprocess.initial", *s.InitialPreprocess)
	}
	if s.HubRules != nil {
		config.Set("preprocess.hub_rules", *s.HubRules)
	}
	if s.MaxRounds != nil {
		config.Set("enumerate.max_rounds", *s.MaxRounds)
	}
	if s.DeadlineSeconds != nil {
		config.Set("enumerate.deadline_seconds", *s.DeadlineSeconds)
	}
	// event files belong to the CLI, not to concurrent requests
	config.Set("analysis.track_events", false)
}
