package solver

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/gilchrisn/mwcs-module-service/pkg/models"
)

// ExhaustiveSolver enumerates every connected node set once (ESU: each set
// is grown from its smallest node through exclusive neighbors) and keeps
// the heaviest. Without a size target, branches whose optimistic bound
// cannot beat the incumbent are cut.
type ExhaustiveSolver struct {
	result
	opts Options
	g    *models.Graph

	suffixPos []float64 // suffixPos[i] = sum of positive scores of nodes >= i
	inSub     []bool
	nbrCount  []int // neighbors inside the current set
	subPos    float64 // positive score inside the current set

	found    bool
	deadline time.Time
	visits   int
	timedOut bool
}

func NewExhaustiveSolver(opts Options) *ExhaustiveSolver {
	return &ExhaustiveSolver{opts: opts}
}

func (s *ExhaustiveSolver) Init(g *models.Graph) error {
	if s.opts.MaxExhaustiveNodes > 0 && g.NumNodes > s.opts.MaxExhaustiveNodes {
		return errors.Errorf("exhaustive solver limited to %d nodes, graph has %d", s.opts.MaxExhaustiveNodes, g.NumNodes)
	}
	s.g = g

	n := g.NumNodes
	s.suffixPos = make([]float64, n+1)
	for i := n - 1; i >= 0; i-- {
		s.suffixPos[i] = s.suffixPos[i+1] + math.Max(g.Scores[i], 0)
	}
	s.inSub = make([]bool, n)
	s.nbrCount = make([]int, n)
	return nil
}

// TimedOut reports whether the last Solve stopped at the time limit
func (s *ExhaustiveSolver) TimedOut() bool {
	return s.timedOut
}

func (s *ExhaustiveSolver) Solve() bool {
	if s.g == nil || s.g.NumNodes == 0 {
		return false
	}
	if s.opts.TimeLimit > 0 {
		s.deadline = time.Now().Add(time.Duration(s.opts.TimeLimit) * time.Second)
	}
	s.found = false
	s.timedOut = false
	s.weight = math.Inf(-1)

	for v := 0; v < s.g.NumNodes && !s.timedOut; v++ {
		s.add(v)
		ext := make([]int, 0)
		for _, u := range s.g.Adjacency[v] {
			if u > v {
				ext = append(ext, u)
			}
		}
		s.extend([]int{v}, s.g.Scores[v], ext, v)
		s.drop(v)
	}
	return s.found
}

func (s *ExhaustiveSolver) extend(sub []int, weight float64, ext []int, v int) {
	s.consider(sub, weight)

	k := s.opts.ModuleSize
	if k > 0 && len(sub) >= k {
		return
	}
	if k <= 0 && s.found && weight+s.suffixPos[v]-s.subPos <= s.weight {
		return
	}

	for len(ext) > 0 && !s.tick() {
		w := ext[len(ext)-1]
		ext = ext[:len(ext)-1]

		next := make([]int, len(ext), len(ext)+len(s.g.Adjacency[w]))
		copy(next, ext)
		for _, u := range s.g.Adjacency[w] {
			if u > v && !s.inSub[u] && s.nbrCount[u] == 0 {
				next = append(next, u)
			}
		}

		s.add(w)
		s.extend(append(sub, w), weight+s.g.Scores[w], next, v)
		s.drop(w)
	}
}

func (s *ExhaustiveSolver) consider(sub []int, weight float64) {
	if k := s.opts.ModuleSize; k > 0 && len(sub) != k {
		return
	}
	if !s.found || weight > s.weight {
		s.found = true
		s.set(weight, sub)
	}
}

func (s *ExhaustiveSolver) add(n int) {
	s.inSub[n] = true
	for _, m := range s.g.Adjacency[n] {
		s.nbrCount[m]++
	}
	s.subPos += math.Max(s.g.Scores[n], 0)
}

func (s *ExhaustiveSolver) drop(n int) {
	s.inSub[n] = false
	for _, m := range s.g.Adjacency[n] {
		s.nbrCount[m]--
	}
	s.subPos -= math.Max(s.g.Scores[n], 0)
}

// tick counts visited sets and reports whether the time limit has passed
func (s *ExhaustiveSolver) tick() bool {
	if s.timedOut {
		return true
	}
	s.visits++
	if !s.deadline.IsZero() && s.visits%1024 == 0 && time.Now().After(s.deadline) {
		s.timedOut = true
	}
	return s.timedOut
}
