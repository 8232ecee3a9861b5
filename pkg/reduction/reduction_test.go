package reduction

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/mwcs-module-service/pkg/models"
)

func newGraph(t *testing.T, scores []float64, edges [][2]int) *models.Graph {
	t.Helper()
	g := models.NewGraph(len(scores))
	for i, s := range scores {
		_, err := g.AddNode(fmt.Sprintf("n%d", i), s)
		require.NoError(t, err)
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}
	return g
}

func randomGraph(rng *rand.Rand, n int, p float64) *models.Graph {
	g := models.NewGraph(n)
	for i := 0; i < n; i++ {
		g.AddNode(fmt.Sprintf("n%d", i), float64(rng.Intn(11)-6))
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < p {
				g.AddEdge(i, j)
			}
		}
	}
	return g
}

// bestConnected returns the maximum weight of a connected node set of g
// that contains all nodes of must (by brute force over all subsets).
func bestConnected(g *models.Graph, must []int) float64 {
	best := math.Inf(-1)
	for mask := 1; mask < 1<<g.NumNodes; mask++ {
		ok := true
		for _, m := range must {
			if mask&(1<<m) == 0 {
				ok = false
				break
			}
		}
		if !ok || !connectedMask(g, mask) {
			continue
		}
		w := 0.0
		for i := 0; i < g.NumNodes; i++ {
			if mask&(1<<i) != 0 {
				w += g.Scores[i]
			}
		}
		best = math.Max(best, w)
	}
	return best
}

func connectedMask(g *models.Graph, mask int) bool {
	start := -1
	for i := 0; i < g.NumNodes; i++ {
		if mask&(1<<i) != 0 {
			start = i
			break
		}
	}
	seen := 1 << start
	stack := []int{start}
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, v := range g.Adjacency[u] {
			if mask&(1<<v) != 0 && seen&(1<<v) == 0 {
				seen |= 1 << v
				stack = append(stack, v)
			}
		}
	}
	return seen == mask
}

func TestDegreeIndexConsistencyUnderRandomMutation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 50; trial++ {
		t.Run(fmt.Sprintf("Trial_%d", trial), func(t *testing.T) {
			w := NewWorking(randomGraph(rng, 12, 0.3))
			require.NoError(t, w.CheckConsistency())

			for w.NumNodes() > 0 {
				nodes := w.Nodes()
				n := nodes[rng.Intn(len(nodes))]
				nbrs := w.Neighbors(n)
				if len(nbrs) > 0 && rng.Intn(2) == 0 {
					w.Merge(n, nbrs[rng.Intn(len(nbrs))])
				} else {
					w.Remove(n)
				}
				require.NoError(t, w.CheckConsistency())
			}
		})
	}
}

func TestMergePreservesWeight(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 40; trial++ {
		g := randomGraph(rng, 8, 0.35)
		if g.NumEdges() == 0 {
			continue
		}
		u := rng.Intn(g.NumNodes)
		for g.Degree(u) == 0 {
			u = rng.Intn(g.NumNodes)
		}
		v := g.Adjacency[u][rng.Intn(g.Degree(u))]

		before := bestConnected(g, []int{u, v})

		w := NewWorking(g)
		w.Merge(u, v)
		merged, nodeMap := w.Export()

		mergedID := -1
		for i, orig := range nodeMap {
			if len(orig) == 2 {
				mergedID = i
			}
		}
		require.NotEqual(t, -1, mergedID)
		assert.Equal(t, []int{min(u, v), max(u, v)}, nodeMap[mergedID])
		assert.InDelta(t, g.Scores[u]+g.Scores[v], merged.Scores[mergedID], 1e-9)

		after := bestConnected(merged, []int{mergedID})
		assert.InDelta(t, before, after, 1e-9, "trial %d merging %d-%d", trial, u, v)
	}
}

func TestMergeCollapsesParallelEdgesAndSelfLoops(t *testing.T) {
	// triangle 0-1-2 plus pendant 3 on 1
	g := newGraph(t, []float64{1, 2, 3, 4}, [][2]int{{0, 1}, {1, 2}, {0, 2}, {1, 3}})
	w := NewWorking(g)

	w.Merge(0, 1)
	require.NoError(t, w.CheckConsistency())
	assert.Equal(t, []int{2, 3}, w.Neighbors(0))
	assert.Equal(t, 2, w.NumEdges())
	assert.InDelta(t, 3.0, w.Score(0), 1e-9)
	assert.Equal(t, []int{0, 1}, w.OrigNodes(0))
	assert.Equal(t, "n0|n1", w.Label(0))
	assert.False(t, w.Alive(1))
}

func TestExportKeepsCollidingLabelsApart(t *testing.T) {
	// merging x into y yields "x|y", which exists already, and so does "x|y#2"
	g := models.NewGraph(4)
	for _, label := range []string{"x|y", "x|y#2", "x", "y"} {
		_, err := g.AddNode(label, 1)
		require.NoError(t, err)
	}
	require.NoError(t, g.AddEdge(0, 2))
	require.NoError(t, g.AddEdge(1, 3))
	require.NoError(t, g.AddEdge(2, 3))

	w := NewWorking(g)
	w.Merge(2, 3)

	reduced, nodeMap := w.Export()
	require.Equal(t, 3, reduced.NumNodes)
	require.Len(t, nodeMap, 3)
	assert.Equal(t, []string{"x|y", "x|y#2", "x|y#3"}, reduced.Labels)
	assert.Equal(t, models.NodeMap{{0}, {1}, {2, 3}}, nodeMap)
	assert.InDelta(t, 2.0, reduced.Scores[2], 1e-9)
	assert.True(t, reduced.HasEdge(0, 2))
	assert.True(t, reduced.HasEdge(1, 2))
}

func TestPrimitivesRejectContractViolations(t *testing.T) {
	g := newGraph(t, []float64{1, 1, 1}, [][2]int{{0, 1}})
	w := NewWorking(g)

	assert.Panics(t, func() { w.Merge(0, 2) }, "non-adjacent merge")
	w.Remove(2)
	assert.Panics(t, func() { w.Remove(2) }, "double removal")

	w.setRoot(1)
	assert.Panics(t, func() { w.Remove(1) }, "root removal")
	assert.Panics(t, func() { w.Merge(0, 1) }, "root absorbed by merge")
}

func TestNegDeg01(t *testing.T) {
	// 0(-1) isolated, 1(-2)-2(5)-3(0), 4(3) isolated
	g := newGraph(t, []float64{-1, -2, 5, 0, 3}, [][2]int{{1, 2}, {2, 3}})
	w := NewWorking(g)

	changes := NegDeg01{}.Apply(w)
	assert.Equal(t, 3, changes)
	assert.Equal(t, []int{2, 4}, w.Nodes())
	require.NoError(t, w.CheckConsistency())
}

func TestPosEdge(t *testing.T) {
	// leaf 0(2) on 1(1); leaf 3(4) on negative 2(-5)
	g := newGraph(t, []float64{2, 1, -5, 4}, [][2]int{{0, 1}, {1, 2}, {2, 3}})
	w := NewWorking(g)

	changes := PosEdge{}.Apply(w)
	assert.Equal(t, 1, changes)
	assert.Equal(t, []int{1, 2, 3}, w.Nodes())
	assert.InDelta(t, 3.0, w.Score(1), 1e-9)
	assert.Equal(t, []int{0, 1}, w.OrigNodes(1))
}

func TestNegEdge(t *testing.T) {
	t.Run("chain is merged", func(t *testing.T) {
		// 0(5)-1(-1)-2(-2)-3(5)
		g := newGraph(t, []float64{5, -1, -2, 5}, [][2]int{{0, 1}, {1, 2}, {2, 3}})
		w := NewWorking(g)

		assert.Equal(t, 1, NegEdge{}.Apply(w))
		assert.Equal(t, []int{0, 1, 3}, w.Nodes())
		assert.InDelta(t, -3.0, w.Score(1), 1e-9)
		assert.Equal(t, []int{0, 3}, w.Neighbors(1))
	})

	t.Run("dead-end triangle is cut", func(t *testing.T) {
		// 0(5) with triangle partners 1(-1), 2(-1), plus 3(2) to keep 0 busy
		g := newGraph(t, []float64{5, -1, -1, 2}, [][2]int{{0, 1}, {1, 2}, {2, 0}, {0, 3}})
		w := NewWorking(g)

		assert.Equal(t, 1, NegEdge{}.Apply(w))
		assert.Equal(t, []int{0, 2, 3}, w.Nodes())
		require.NoError(t, w.CheckConsistency())
	})
}

func TestHubRules(t *testing.T) {
	// 0,1,2 are the shared neighbors; 3(-1) and 4(-2) mirror each other
	edges := [][2]int{{3, 0}, {3, 1}, {3, 2}, {4, 0}, {4, 1}, {4, 2}}
	g := newGraph(t, []float64{1, 1, 1, -1, -2}, edges)

	w := NewWorking(g)
	assert.Equal(t, 1, NegMirroredHubs{}.Apply(w))
	assert.True(t, w.Alive(3))
	assert.False(t, w.Alive(4))

	// equal scores: the lower index survives
	g = newGraph(t, []float64{1, 1, 1, -1, -1}, edges)
	w = NewWorking(g)
	assert.Equal(t, 1, NegMirroredHubs{}.Apply(w))
	assert.True(t, w.Alive(3))

	// adjacent twins need the closed-neighborhood variant
	g = newGraph(t, []float64{1, 1, -3, -2}, [][2]int{{2, 3}, {2, 0}, {2, 1}, {3, 0}, {3, 1}})
	w = NewWorking(g)
	assert.Equal(t, 0, NegMirroredHubs{}.Apply(w))
	assert.Equal(t, 1, NegHub{}.Apply(w))
	assert.False(t, w.Alive(2))
	require.NoError(t, w.CheckConsistency())
}

func TestFixpointIdempotence(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	engine := NewEngine(zerolog.Nop(), true)

	for trial := 0; trial < 30; trial++ {
		w := NewWorking(randomGraph(rng, 15, 0.2))

		_, err := engine.Reduce(w, NoRoot)
		require.NoError(t, err)

		again, err := engine.Reduce(w, NoRoot)
		require.NoError(t, err)
		assert.Equal(t, 0, again.TotalChanges())
		assert.Equal(t, 1, again.Passes)
		require.NoError(t, w.CheckConsistency())
	}
}

func TestReductionPreservesOptimum(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	engine := NewEngine(zerolog.Nop(), true)

	for trial := 0; trial < 60; trial++ {
		g := randomGraph(rng, 10, 0.25)
		before := math.Max(bestConnected(g, nil), 0)

		w := NewWorking(g)
		_, err := engine.Reduce(w, NoRoot)
		require.NoError(t, err)

		reduced, _ := w.Export()
		after := 0.0
		if reduced.NumNodes > 0 {
			after = math.Max(bestConnected(reduced, nil), 0)
		}
		assert.InDelta(t, before, after, 1e-9, "trial %d", trial)
	}
}

func TestRootedStarCollapsesIntoHub(t *testing.T) {
	// hub 0 with score 0 and five positive leaves
	leaves := []float64{1, 2, 3, 4, 5}
	scores := append([]float64{0}, leaves...)
	edges := [][2]int{{0, 1}, {0, 2}, {0, 3}, {0, 4}, {0, 5}}
	g := newGraph(t, scores, edges)

	engine := NewEngineWithRules(zerolog.Nop(), nil, []Rule{PosDeg01{}})
	w := NewWorking(g)

	stats, err := engine.Reduce(w, 0)
	require.NoError(t, err)

	assert.Equal(t, []int{0}, w.Nodes())
	assert.InDelta(t, 15.0, w.Score(0), 1e-9)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, w.OrigNodes(0))
	assert.Equal(t, 5, stats.Changes["Root - PosDeg01"])
	// one merge per pass plus the final quiet pass
	assert.Equal(t, 6, stats.Passes)
	assert.Equal(t, NoRoot, w.Root())
}

func TestRootedRules(t *testing.T) {
	t.Run("root survives as a negative leaf", func(t *testing.T) {
		g := newGraph(t, []float64{-4, 2, 3}, [][2]int{{0, 1}, {1, 2}})
		w := NewWorking(g)

		_, err := NewEngine(zerolog.Nop(), true).Reduce(w, 0)
		require.NoError(t, err)
		assert.True(t, w.Alive(0))
		assert.Equal(t, 1, w.NumNodes())
		assert.InDelta(t, 1.0, w.Score(0), 1e-9)
	})

	t.Run("unreachable nodes are dropped", func(t *testing.T) {
		g := newGraph(t, []float64{1, 7}, nil)
		w := NewWorking(g)

		_, err := NewEngine(zerolog.Nop(), true).Reduce(w, 0)
		require.NoError(t, err)
		assert.Equal(t, []int{0}, w.Nodes())
	})

	t.Run("invalid root", func(t *testing.T) {
		w := NewWorking(newGraph(t, []float64{1}, nil))
		_, err := NewEngine(zerolog.Nop(), true).Reduce(w, 5)
		assert.Error(t, err)
	})

	t.Run("rooted rule without root", func(t *testing.T) {
		w := NewWorking(newGraph(t, []float64{1}, nil))
		assert.Panics(t, func() { PosDeg01{}.Apply(w) })
	})
}
