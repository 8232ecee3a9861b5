package enumerate

import (
	"github.com/gilchrisn/mwcs-module-service/pkg/models"
	"github.com/gilchrisn/mwcs-module-service/pkg/reduction"
)

// Termination tells why a run stopped
type Termination string

const (
	Converged        Termination = "converged"
	MaxRoundsReached Termination = "max_rounds"
	DeadlineExceeded Termination = "deadline"
	Canceled         Termination = "canceled"
)

// Unassigned is the module index of nodes outside every module
const Unassigned = -1

// Result contains the modules of one enumeration run and the per-node
// attribution over the input graph.
type Result struct {
	RunID        string          `json:"run_id"`
	Modules      []models.Module `json:"modules"`
	ModuleIndex  []int           `json:"module_index"`
	ModuleWeight []float64       `json:"module_weight"`
	Rounds       []RoundStats    `json:"rounds"`
	Termination  Termination     `json:"termination"`

	// Initial is set when the whole graph was reduced once before the first round
	Initial   *reduction.Stats `json:"initial,omitempty"`
	RuntimeMS int64            `json:"runtime_ms"`
}

// RoundStats summarizes one round
type RoundStats struct {
	Round        int   `json:"round"`
	AllowedNodes int   `json:"allowed_nodes"`
	Components   int   `json:"components"`
	Successes    int   `json:"successes"`
	Failures     int   `json:"failures"`
	ReducedNodes int   `json:"reduced_nodes"` // nodes handed to solvers after reduction
	RuntimeMS    int64 `json:"runtime_ms"`
}

// Assigned returns the number of input nodes that belong to a module
func (r *Result) Assigned() int {
	count := 0
	for _, idx := range r.ModuleIndex {
		if idx != Unassigned {
			count++
		}
	}
	return count
}

// TotalWeight sums the weights of all modules
func (r *Result) TotalWeight() float64 {
	total := 0.0
	for _, m := range r.Modules {
		total += m.Weight
	}
	return total
}

// componentOutcome is what one component contributes to a round
type componentOutcome struct {
	accepted bool
	weight   float64
	reduced  int
	strategy string
	timedOut bool
	nodes    []int // solution in original node space
	picked   []int // solution in round graph space
}
