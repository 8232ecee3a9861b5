package solver

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/gilchrisn/mwcs-module-service/pkg/models"
)

// Solver computes a maximum-weight connected subgraph of a (reduced)
// instance. Solution nodes are indices of the graph given to Init.
type Solver interface {
	Init(g *models.Graph) error
	Solve() bool
	SolutionWeight() float64
	SolutionModule() []int
}

// Options are handed to every solver. TimeLimit and Threads are hints that
// a strategy may ignore.
type Options struct {
	TimeLimit          int // seconds, -1 = unbounded
	Threads            int
	ModuleSize         int // fixed module size, -1 = unconstrained
	MaxExhaustiveNodes int
}

// DefaultOptions returns unconstrained options
func DefaultOptions() Options {
	return Options{
		TimeLimit:          -1,
		Threads:            1,
		ModuleSize:         -1,
		MaxExhaustiveNodes: 28,
	}
}

// Factory builds a fresh solver for one instance
type Factory func(opts Options) Solver

var registry = map[string]Factory{
	"treedp":     func(opts Options) Solver { return NewTreeSolver(opts) },
	"exhaustive": func(opts Options) Solver { return NewExhaustiveSolver(opts) },
	"heuristic":  func(opts Options) Solver { return NewHeuristicSolver(opts) },
	"auto":       func(opts Options) Solver { return NewAutoSolver(opts) },
}

// Lookup returns the factory registered under name
func Lookup(name string) (Factory, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, errors.Errorf("unknown solver %q (available: %v)", name, Names())
	}
	return factory, nil
}

// New creates the solver registered under name
func New(name string, opts Options) (Solver, error) {
	factory, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return factory(opts), nil
}

// Names lists the registered strategies
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// result holds the incumbent shared by all strategies
type result struct {
	weight float64
	module []int
}

func (r *result) SolutionWeight() float64 { return r.weight }

func (r *result) SolutionModule() []int {
	out := make([]int, len(r.module))
	copy(out, r.module)
	return out
}

func (r *result) set(weight float64, module []int) {
	r.weight = weight
	r.module = append(r.module[:0], module...)
	sort.Ints(r.module)
}
