package validation

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/gilchrisn/mwcs-module-service/pkg/enumerate"
	"github.com/gilchrisn/mwcs-module-service/pkg/models"
	"github.com/gilchrisn/mwcs-module-service/pkg/parser"
	"github.com/gilchrisn/mwcs-module-service/pkg/solver"
)

// LoadAndValidateGraph loads a graph from a node file and an edge file and
// validates its structure
func LoadAndValidateGraph(nodesFile, edgesFile string) (*models.Graph, error) {
	for _, path := range []string{nodesFile, edgesFile} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("graph file does not exist: %s", path)
		}
	}

	graph, err := parser.ReadGraph(nodesFile, edgesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph: %w", err)
	}

	if err := ValidateGraph(graph); err != nil {
		return nil, fmt.Errorf("graph validation failed: %w", err)
	}
	return graph, nil
}

// ValidateGraph checks a loaded graph: at least one node and finite scores
func ValidateGraph(graph *models.Graph) error {
	var errors models.ValidationErrors

	if graph == nil || graph.NumNodes == 0 {
		return models.ValidationError{
			Field:   "nodes",
			Message: "graph must contain at least one node",
		}
	}

	for i := 0; i < graph.NumNodes; i++ {
		if s := graph.Scores[i]; math.IsNaN(s) || math.IsInf(s, 0) {
			errors = append(errors, models.ValidationError{
				Field:   fmt.Sprintf("node[%d].score", i),
				Message: "score must be finite",
				Value:   graph.Labels[i],
			})
		}
	}

	if err := graph.Validate(); err != nil {
		errors = append(errors, models.ValidationError{
			Field:   "structure",
			Message: err.Error(),
		})
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

// ValidateJSONGraph checks a graph payload and reports every problem at
// once instead of stopping at the first
func ValidateJSONGraph(jg parser.JSONGraph) error {
	var errors models.ValidationErrors

	if len(jg.Nodes) == 0 {
		return models.ValidationError{
			Field:   "nodes",
			Message: "graph must contain at least one node",
		}
	}

	labels := make(map[string]bool, len(jg.Nodes))
	for i, node := range jg.Nodes {
		fieldPrefix := fmt.Sprintf("node[%d]", i)

		if strings.TrimSpace(node.Label) == "" || strings.ContainsAny(node.Label, " \t\n") {
			errors = append(errors, models.ValidationError{
				Field:   fieldPrefix + ".label",
				Message: "label cannot be empty or contain whitespace",
				Value:   node.Label,
			})
			continue
		}
		if labels[node.Label] {
			errors = append(errors, models.ValidationError{
				Field:   fieldPrefix + ".label",
				Message: "duplicate node label",
				Value:   node.Label,
			})
		}
		labels[node.Label] = true

		if math.IsNaN(node.Score) || math.IsInf(node.Score, 0) {
			errors = append(errors, models.ValidationError{
				Field:   fieldPrefix + ".score",
				Message: "score must be finite",
				Value:   node.Label,
			})
		}
	}

	for i, edge := range jg.Edges {
		fieldPrefix := fmt.Sprintf("edge[%d]", i)

		for side, label := range edge {
			if !labels[label] {
				errors = append(errors, models.ValidationError{
					Field:   fmt.Sprintf("%s[%d]", fieldPrefix, side),
					Message: "node does not exist in graph",
					Value:   label,
				})
			}
		}

		if edge[0] == edge[1] {
			errors = append(errors, models.ValidationError{
				Field:   fieldPrefix,
				Message: "self-loops are not allowed",
				Value:   fmt.Sprintf("%s -> %s", edge[0], edge[1]),
			})
		}
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

// ValidateConfig checks the settings that Run relies on
func ValidateConfig(config *enumerate.Config) error {
	var errors models.ValidationErrors

	if _, err := solver.Lookup(config.SolverName()); err != nil {
		errors = append(errors, models.ValidationError{
			Field:   "solver.name",
			Message: err.Error(),
			Value:   config.SolverName(),
		})
	}

	if config.Threads() < 1 {
		errors = append(errors, models.ValidationError{
			Field:   "solver.threads",
			Message: "thread hint must be at least 1",
			Value:   fmt.Sprintf("%d", config.Threads()),
		})
	}

	if size := config.ModuleSize(); size == 0 || size < -1 {
		errors = append(errors, models.ValidationError{
			Field:   "solver.module_size",
			Message: "module size must be positive or -1",
			Value:   fmt.Sprintf("%d", size),
		})
	}

	if tl := config.TimeLimit(); tl == 0 || tl < -1 {
		errors = append(errors, models.ValidationError{
			Field:   "solver.time_limit",
			Message: "time limit must be positive or -1",
			Value:   fmt.Sprintf("%d", tl),
		})
	}

	if config.MaxRounds() < 0 {
		errors = append(errors, models.ValidationError{
			Field:   "enumerate.max_rounds",
			Message: "max rounds cannot be negative",
			Value:   fmt.Sprintf("%d", config.MaxRounds()),
		})
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}
