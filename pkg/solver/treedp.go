package solver

import (
	"math"

	"github.com/gammazero/deque"
	"github.com/pkg/errors"

	"github.com/gilchrisn/mwcs-module-service/pkg/models"
)

// TreeSolver solves instances whose graph is a forest exactly by dynamic
// programming. With a module size it solves the size-constrained variant.
type TreeSolver struct {
	result
	opts Options
	g    *models.Graph

	order    []int   // BFS order, parents before children
	children [][]int // children in the BFS forest
}

func NewTreeSolver(opts Options) *TreeSolver {
	return &TreeSolver{opts: opts}
}

func (s *TreeSolver) Init(g *models.Graph) error {
	if !g.IsForest() {
		return errors.Errorf("tree solver needs a forest, graph has %d nodes and %d edges", g.NumNodes, g.NumEdges())
	}
	s.g = g
	s.orient()
	return nil
}

// orient roots every tree at its smallest node
func (s *TreeSolver) orient() {
	n := s.g.NumNodes
	s.order = make([]int, 0, n)
	s.children = make([][]int, n)
	visited := make([]bool, n)

	var queue deque.Deque[int]
	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}
		visited[start] = true
		queue.PushBack(start)
		for queue.Len() > 0 {
			u := queue.PopFront()
			s.order = append(s.order, u)
			for _, v := range s.g.Adjacency[u] {
				if !visited[v] {
					visited[v] = true
					s.children[u] = append(s.children[u], v)
					queue.PushBack(v)
				}
			}
		}
	}
}

func (s *TreeSolver) Solve() bool {
	if s.g == nil || s.g.NumNodes == 0 {
		return false
	}
	if s.opts.ModuleSize > 0 {
		return s.solveSized(s.opts.ModuleSize)
	}
	return s.solveUnconstrained()
}

func (s *TreeSolver) solveUnconstrained() bool {
	n := s.g.NumNodes
	dp := make([]float64, n)
	for i := len(s.order) - 1; i >= 0; i-- {
		v := s.order[i]
		dp[v] = s.g.Scores[v]
		for _, c := range s.children[v] {
			if dp[c] > 0 {
				dp[v] += dp[c]
			}
		}
	}

	best := 0
	for v := 1; v < n; v++ {
		if dp[v] > dp[best] {
			best = v
		}
	}

	module := make([]int, 0)
	stack := []int{best}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		module = append(module, v)
		for _, c := range s.children[v] {
			if dp[c] > 0 {
				stack = append(stack, c)
			}
		}
	}

	s.set(dp[best], module)
	return true
}

// solveSized computes f[v][t], the best subtree with t nodes whose topmost
// node is v, combining children knapsack style.
func (s *TreeSolver) solveSized(k int) bool {
	n := s.g.NumNodes
	f := make([][]float64, n)
	choice := make([][][]int, n) // choice[v][ci][t] = nodes taken from child ci

	for i := len(s.order) - 1; i >= 0; i-- {
		v := s.order[i]
		cur := newRow(k)
		cur[1] = s.g.Scores[v]
		choice[v] = make([][]int, len(s.children[v]))

		for ci, c := range s.children[v] {
			next := make([]float64, k+1)
			copy(next, cur)
			picks := make([]int, k+1)
			for t := 1; t <= k; t++ {
				if math.IsInf(cur[t], -1) {
					continue
				}
				for u := 1; t+u <= k; u++ {
					if math.IsInf(f[c][u], -1) {
						continue
					}
					if w := cur[t] + f[c][u]; w > next[t+u] {
						next[t+u] = w
						picks[t+u] = u
					}
				}
			}
			cur = next
			choice[v][ci] = picks
		}
		f[v] = cur
	}

	best := -1
	for v := 0; v < n; v++ {
		if !math.IsInf(f[v][k], -1) && (best == -1 || f[v][k] > f[best][k]) {
			best = v
		}
	}
	if best == -1 {
		return false
	}

	module := make([]int, 0, k)
	var collect func(v, t int)
	collect = func(v, t int) {
		module = append(module, v)
		for ci := len(s.children[v]) - 1; ci >= 0; ci-- {
			u := choice[v][ci][t]
			if u > 0 {
				collect(s.children[v][ci], u)
				t -= u
			}
		}
	}
	collect(best, k)

	s.set(f[best][k], module)
	return true
}

func newRow(k int) []float64 {
	row := make([]float64, k+1)
	for i := range row {
		row[i] = math.Inf(-1)
	}
	return row
}
