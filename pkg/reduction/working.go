package reduction

import (
	"fmt"
	"sort"

	"github.com/gilchrisn/mwcs-module-service/pkg/models"
)

// NoRoot marks an unrooted reduction
const NoRoot = -1

// Working is the mutable, contracted copy of a graph that reduction rules
// operate on. Node identities are the indices of the source graph; removed
// nodes keep their slot but are no longer live.
type Working struct {
	labels    []string
	scores    []float64
	neighbors []map[int]struct{} // arc lookup
	alive     []bool
	orig      [][]int // source-graph nodes each node stands for

	degrees *DegreeIndex
	nNodes  int
	nEdges  int
	root    int
}

// NewWorking copies g into a fresh working graph
func NewWorking(g *models.Graph) *Working {
	n := g.NumNodes
	w := &Working{
		labels:    make([]string, n),
		scores:    make([]float64, n),
		neighbors: make([]map[int]struct{}, n),
		alive:     make([]bool, n),
		orig:      make([][]int, n),
		degrees:   NewDegreeIndex(n),
		nNodes:    n,
		root:      NoRoot,
	}

	copy(w.labels, g.Labels)
	copy(w.scores, g.Scores)
	for i := 0; i < n; i++ {
		w.neighbors[i] = make(map[int]struct{}, len(g.Adjacency[i]))
		w.alive[i] = true
		w.orig[i] = []int{i}
	}
	for i := 0; i < n; i++ {
		for _, j := range g.Adjacency[i] {
			if i < j {
				w.addEdge(i, j)
			}
		}
	}
	return w
}

func (w *Working) NumNodes() int { return w.nNodes }
func (w *Working) NumEdges() int { return w.nEdges }
func (w *Working) Root() int     { return w.root }

func (w *Working) Alive(n int) bool {
	return n >= 0 && n < len(w.alive) && w.alive[n]
}

func (w *Working) Score(n int) float64 { return w.scores[n] }
func (w *Working) Label(n int) string  { return w.labels[n] }
func (w *Working) Degree(n int) int    { return w.degrees.Degree(n) }

// Degrees exposes the degree index to rules
func (w *Working) Degrees() *DegreeIndex {
	return w.degrees
}

func (w *Working) HasEdge(u, v int) bool {
	_, ok := w.neighbors[u][v]
	return ok
}

// Neighbors returns the neighbors of n in ascending order
func (w *Working) Neighbors(n int) []int {
	out := make([]int, 0, len(w.neighbors[n]))
	for m := range w.neighbors[n] {
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}

// OrigNodes returns the source-graph nodes that n currently stands for
func (w *Working) OrigNodes(n int) []int {
	return w.orig[n]
}

// Nodes returns the live nodes in ascending order
func (w *Working) Nodes() []int {
	out := make([]int, 0, w.nNodes)
	for n, live := range w.alive {
		if live {
			out = append(out, n)
		}
	}
	return out
}

func (w *Working) setRoot(root int) {
	w.root = root
}

func (w *Working) addEdge(u, v int) {
	w.neighbors[u][v] = struct{}{}
	w.neighbors[v][u] = struct{}{}
	w.nEdges++
	w.degrees.OnEdgeAdded(u, v)
}

func (w *Working) removeEdge(u, v int) {
	delete(w.neighbors[u], v)
	delete(w.neighbors[v], u)
	w.nEdges--
	w.degrees.OnEdgeRemoved(u, v)
}

// Remove deletes n together with its incident edges
func (w *Working) Remove(n int) {
	if !w.Alive(n) {
		panic(fmt.Sprintf("reduction: remove of dead node %d", n))
	}
	if n == w.root {
		panic(fmt.Sprintf("reduction: remove of root node %d", n))
	}

	for m := range w.neighbors[n] {
		w.removeEdge(n, m)
	}
	w.degrees.OnNodeRemoved(n)
	w.alive[n] = false
	w.orig[n] = nil
	w.nNodes--
}

// Merge contracts the edge u-v into u. The score of u becomes the sum of
// both scores, u stands for the union of both provenance sets and inherits
// the other edges of v. Returns the surviving node.
func (w *Working) Merge(u, v int) int {
	if !w.Alive(u) || !w.Alive(v) {
		panic(fmt.Sprintf("reduction: merge of dead node (%d, %d)", u, v))
	}
	if !w.HasEdge(u, v) {
		panic(fmt.Sprintf("reduction: merge of non-adjacent nodes %d and %d", u, v))
	}
	if v == w.root {
		panic(fmt.Sprintf("reduction: merge would eliminate root node %d", v))
	}

	for m := range w.neighbors[v] {
		if m == u {
			continue
		}
		if !w.HasEdge(u, m) {
			w.addEdge(u, m)
		}
	}

	w.scores[u] += w.scores[v]
	w.labels[u] = w.labels[u] + "|" + w.labels[v]
	w.orig[u] = append(w.orig[u], w.orig[v]...)
	sort.Ints(w.orig[u])

	w.Remove(v)
	return u
}

// Export renumbers the live nodes compactly into a new graph. The returned
// map sends every exported node to the source-graph nodes it stands for.
func (w *Working) Export() (*models.Graph, models.NodeMap) {
	live := w.Nodes()
	g := models.NewGraph(len(live))
	nodeMap := make(models.NodeMap, 0, len(live))
	local := make(map[int]int, len(live))

	for _, n := range live {
		id, err := g.AddNode(w.labels[n], w.scores[n])
		// merged labels can collide with an existing label; keep them apart
		for suffix := n; err != nil; suffix++ {
			id, err = g.AddNode(fmt.Sprintf("%s#%d", w.labels[n], suffix), w.scores[n])
		}
		local[n] = id
		orig := make([]int, len(w.orig[n]))
		copy(orig, w.orig[n])
		nodeMap = append(nodeMap, orig)
	}

	for _, n := range live {
		for m := range w.neighbors[n] {
			if n < m {
				g.AddEdge(local[n], local[m])
			}
		}
	}
	return g, nodeMap
}

// CheckConsistency verifies the degree index and edge bookkeeping
func (w *Working) CheckConsistency() error {
	if err := w.degrees.check(func(n int) int { return len(w.neighbors[n]) }); err != nil {
		return err
	}

	nodes, arcs := 0, 0
	for n, live := range w.alive {
		if !live {
			if len(w.neighbors[n]) != 0 {
				return fmt.Errorf("dead node %d still has neighbors", n)
			}
			continue
		}
		nodes++
		for m := range w.neighbors[n] {
			if !w.alive[m] {
				return fmt.Errorf("node %d adjacent to dead node %d", n, m)
			}
			if !w.HasEdge(m, n) {
				return fmt.Errorf("arc %d->%d has no reverse arc", n, m)
			}
			arcs++
		}
	}
	if nodes != w.nNodes || arcs != 2*w.nEdges {
		return fmt.Errorf("counts out of sync: %d/%d nodes, %d/%d arcs", nodes, w.nNodes, arcs, 2*w.nEdges)
	}
	return nil
}
