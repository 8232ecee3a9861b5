package validation

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gilchrisn/mwcs-module-service/pkg/enumerate"
	"github.com/gilchrisn/mwcs-module-service/pkg/models"
	"github.com/gilchrisn/mwcs-module-service/pkg/parser"
)

// TestLoadAndValidateGraph tests loading a graph from node and edge files
func TestLoadAndValidateGraph(t *testing.T) {
	dir := t.TempDir()
	nodesFile := filepath.Join(dir, "graph.nodes")
	edgesFile := filepath.Join(dir, "graph.edges")
	os.WriteFile(nodesFile, []byte("#label score\na 1.5\nb -2\nc 3\n"), 0644)
	os.WriteFile(edgesFile, []byte("a b\nb c\n"), 0644)

	graph, err := LoadAndValidateGraph(nodesFile, edgesFile)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if graph.NumNodes != 3 {
		t.Errorf("Expected 3 nodes, got %d", graph.NumNodes)
	}
	if graph.NumEdges() != 2 {
		t.Errorf("Expected 2 edges, got %d", graph.NumEdges())
	}

	if _, err := LoadAndValidateGraph(filepath.Join(dir, "missing"), edgesFile); err == nil {
		t.Error("Expected error for missing node file")
	}
}

func TestValidateGraph(t *testing.T) {
	if err := ValidateGraph(models.NewGraph(0)); err == nil {
		t.Error("Expected error for empty graph")
	}

	g := models.NewGraph(2)
	g.AddNode("a", 1)
	g.AddNode("b", math.Inf(1))
	err := ValidateGraph(g)
	ve, ok := err.(models.ValidationErrors)
	if !ok || len(ve) == 0 {
		t.Fatalf("Expected ValidationErrors, got %v", err)
	}
	if ve[0].Field != "node[1].score" {
		t.Errorf("Expected node[1].score, got %s", ve[0].Field)
	}
}

// TestValidateJSONGraph tests various payload validation scenarios
func TestValidateJSONGraph(t *testing.T) {
	tests := []struct {
		name        string
		graph       parser.JSONGraph
		expectError bool
		errorCount  int
	}{
		{
			name: "valid graph",
			graph: parser.JSONGraph{
				Nodes: []parser.JSONNode{{Label: "a", Score: 1}, {Label: "b", Score: -1}},
				Edges: [][2]string{{"a", "b"}},
			},
		},
		{
			name:        "empty nodes",
			graph:       parser.JSONGraph{},
			expectError: true,
			errorCount:  1,
		},
		{
			name: "duplicate label and unknown endpoint",
			graph: parser.JSONGraph{
				Nodes: []parser.JSONNode{{Label: "a"}, {Label: "a"}},
				Edges: [][2]string{{"a", "z"}},
			},
			expectError: true,
			errorCount:  2,
		},
		{
			name: "self loop and blank label",
			graph: parser.JSONGraph{
				Nodes: []parser.JSONNode{{Label: "a"}, {Label: " "}},
				Edges: [][2]string{{"a", "a"}},
			},
			expectError: true,
			errorCount:  2,
		},
		{
			name: "non-finite score",
			graph: parser.JSONGraph{
				Nodes: []parser.JSONNode{{Label: "a", Score: math.NaN()}},
			},
			expectError: true,
			errorCount:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSONGraph(tt.graph)
			if tt.expectError != (err != nil) {
				t.Fatalf("Expected error=%v, got %v", tt.expectError, err)
			}
			if !tt.expectError {
				return
			}
			count := 1
			if ve, ok := err.(models.ValidationErrors); ok {
				count = len(ve)
			}
			if count != tt.errorCount {
				t.Errorf("Expected %d errors, got %d: %v", tt.errorCount, count, err)
			}
		})
	}
}

func TestValidateConfig(t *testing.T) {
	config := enumerate.NewConfig()
	if err := ValidateConfig(config); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}

	config.Set("solver.name", "cplex")
	config.Set("solver.module_size", 0)
	config.Set("enumerate.max_rounds", -2)
	err := ValidateConfig(config)
	ve, ok := err.(models.ValidationErrors)
	if !ok {
		t.Fatalf("Expected ValidationErrors, got %v", err)
	}
	if len(ve) != 3 {
		t.Errorf("Expected 3 errors, got %d: %v", len(ve), ve)
	}
}
