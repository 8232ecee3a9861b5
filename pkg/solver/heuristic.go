package solver

import (
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/gilchrisn/mwcs-module-service/pkg/models"
)

// HeuristicSolver restricts the instance to a minimum spanning forest that
// prefers edges between heavy nodes and solves that forest exactly. The
// module is connected in the original graph but not necessarily optimal.
type HeuristicSolver struct {
	result
	opts Options
	g    *models.Graph
	tree *TreeSolver
}

func NewHeuristicSolver(opts Options) *HeuristicSolver {
	return &HeuristicSolver{opts: opts}
}

func (s *HeuristicSolver) Init(g *models.Graph) error {
	s.g = g
	s.tree = NewTreeSolver(s.opts)
	return s.tree.Init(spanningForest(g))
}

func (s *HeuristicSolver) Solve() bool {
	if !s.tree.Solve() {
		return false
	}
	s.set(s.tree.SolutionWeight(), s.tree.SolutionModule())
	return true
}

// spanningForest returns a minimum spanning forest of g under edge cost
// -(max(s_u, 0) + max(s_v, 0)), keeping node indices, labels and scores.
func spanningForest(g *models.Graph) *models.Graph {
	wg := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := 0; i < g.NumNodes; i++ {
		wg.AddNode(simple.Node(i))
	}
	for u := 0; u < g.NumNodes; u++ {
		for _, v := range g.Adjacency[u] {
			if u < v {
				cost := -(math.Max(g.Scores[u], 0) + math.Max(g.Scores[v], 0))
				wg.SetWeightedEdge(wg.NewWeightedEdge(simple.Node(u), simple.Node(v), cost))
			}
		}
	}

	dst := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	path.Kruskal(dst, wg)

	forest := models.NewGraph(g.NumNodes)
	for i := 0; i < g.NumNodes; i++ {
		forest.AddNode(g.Labels[i], g.Scores[i])
	}
	edges := dst.WeightedEdges()
	for edges.Next() {
		e := edges.WeightedEdge()
		forest.AddEdge(int(e.From().ID()), int(e.To().ID()))
	}
	return forest
}

// AutoSolver picks a strategy per instance: the tree DP for forests,
// exhaustive search for small graphs and the spanning-forest heuristic
// otherwise.
type AutoSolver struct {
	opts     Options
	delegate Solver
	strategy string
}

func NewAutoSolver(opts Options) *AutoSolver {
	return &AutoSolver{opts: opts}
}

func (s *AutoSolver) Init(g *models.Graph) error {
	switch {
	case g.IsForest():
		s.delegate, s.strategy = NewTreeSolver(s.opts), "treedp"
	case s.opts.MaxExhaustiveNodes <= 0 || g.NumNodes <= s.opts.MaxExhaustiveNodes:
		s.delegate, s.strategy = NewExhaustiveSolver(s.opts), "exhaustive"
	default:
		s.delegate, s.strategy = NewHeuristicSolver(s.opts), "heuristic"
	}
	return s.delegate.Init(g)
}

// Strategy names the delegate chosen by the last Init
func (s *AutoSolver) Strategy() string {
	return s.strategy
}

// TimedOut reports whether the delegate stopped at the time limit
func (s *AutoSolver) TimedOut() bool {
	if t, ok := s.delegate.(interface{ TimedOut() bool }); ok {
		return t.TimedOut()
	}
	return false
}

func (s *AutoSolver) Solve() bool             { return s.delegate.Solve() }
func (s *AutoSolver) SolutionWeight() float64 { return s.delegate.SolutionWeight() }
func (s *AutoSolver) SolutionModule() []int   { return s.delegate.SolutionModule() }
