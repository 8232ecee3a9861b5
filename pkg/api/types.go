package api

import (
	"github.com/gilchrisn/mwcs-module-service/pkg/enumerate"
	"github.com/gilchrisn/mwcs-module-service/pkg/parser"
	"github.com/gilchrisn/mwcs-module-service/pkg/reduction"
)

// EnumerateRequest asks for the modules of a graph. Unset settings fall
// back to the server configuration.
type EnumerateRequest struct {
	Graph    parser.JSONGraph   `json:"graph"`
	Settings *EnumerateSettings `json:"settings,omitempty"`
}

type EnumerateSettings struct {
	Solver            string   `json:"solver,omitempty"`
	ModuleSize        *int     `json:"moduleSize,omitempty"`
	TimeLimit         *int     `json:"timeLimit,omitempty"`
	Preprocess        *bool    `json:"preprocess,omitempty"`
	InitialPreprocess *bool    `json:"initialPreprocess,omitempty"`
	HubRules          *bool    `json:"hubRules,omitempty"`
	MaxRounds         *int     `json:"maxRounds,omitempty"`
	DeadlineSeconds   *float64 `json:"deadlineSeconds,omitempty"`
}

// Assignment is the module attribution of one input node
type Assignment struct {
	Label  string  `json:"label"`
	Module int     `json:"module"`
	Weight float64 `json:"weight"`
}

type EnumerateResponse struct {
	RunID       string                 `json:"runId"`
	Termination enumerate.Termination  `json:"termination"`
	Modules     []parser.ModuleRecord  `json:"modules"`
	Assignments []Assignment           `json:"assignments"`
	Rounds      []enumerate.RoundStats `json:"rounds"`
	RuntimeMS   int64                  `json:"runtimeMs"`
}

// ReduceRequest asks for the reduced form of a graph. With a root label
// the rooted rule battery runs and the root survives.
type ReduceRequest struct {
	Graph    parser.JSONGraph `json:"graph"`
	Root     string           `json:"root,omitempty"`
	HubRules *bool            `json:"hubRules,omitempty"`
}

type ReduceResponse struct {
	Graph      parser.JSONGraph    `json:"graph"`
	Provenance map[string][]string `json:"provenance"` // reduced label -> input labels
	Stats      reduction.Stats     `json:"stats"`
}

// SolverInfo describes a registered strategy
type SolverInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
