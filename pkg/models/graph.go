package models

import (
	"fmt"
	"math"
	"sort"

	"github.com/gammazero/deque"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Graph is a node-weighted undirected graph using simple arrays.
// Node weights (scores) may be negative; edges carry no weight.
type Graph struct {
	NumNodes  int       `json:"num_nodes"`
	Labels    []string  `json:"labels"`
	Scores    []float64 `json:"scores"`
	Adjacency [][]int   `json:"-"` // adjacency[i] = neighbors of node i

	index map[string]int
	edges map[[2]int]struct{}
}

// NewGraph creates an empty graph with room for the given number of nodes
func NewGraph(capacity int) *Graph {
	return &Graph{
		Labels:    make([]string, 0, capacity),
		Scores:    make([]float64, 0, capacity),
		Adjacency: make([][]int, 0, capacity),
		index:     make(map[string]int, capacity),
		edges:     make(map[[2]int]struct{}),
	}
}

// AddNode appends a node and returns its index
func (g *Graph) AddNode(label string, score float64) (int, error) {
	if _, exists := g.index[label]; exists {
		return -1, fmt.Errorf("duplicate node label: %q", label)
	}

	id := g.NumNodes
	g.Labels = append(g.Labels, label)
	g.Scores = append(g.Scores, score)
	g.Adjacency = append(g.Adjacency, nil)
	g.index[label] = id
	g.NumNodes++
	return id, nil
}

// AddEdge adds an undirected edge. Parallel edges collapse into one.
func (g *Graph) AddEdge(u, v int) error {
	if u < 0 || u >= g.NumNodes || v < 0 || v >= g.NumNodes {
		return fmt.Errorf("node index out of range: u=%d, v=%d, numNodes=%d", u, v, g.NumNodes)
	}
	if u == v {
		return fmt.Errorf("self-loop on node %d (%s)", u, g.Labels[u])
	}

	key := edgeKey(u, v)
	if _, exists := g.edges[key]; exists {
		return nil
	}
	g.edges[key] = struct{}{}

	g.Adjacency[u] = append(g.Adjacency[u], v)
	g.Adjacency[v] = append(g.Adjacency[v], u)
	return nil
}

// NodeByLabel looks up a node index by label
func (g *Graph) NodeByLabel(label string) (int, bool) {
	id, ok := g.index[label]
	return id, ok
}

// GetNeighbors returns the neighbors of a node
func (g *Graph) GetNeighbors(node int) []int {
	if node < 0 || node >= g.NumNodes {
		return nil
	}
	return g.Adjacency[node]
}

func (g *Graph) Degree(node int) int {
	return len(g.GetNeighbors(node))
}

func (g *Graph) HasEdge(u, v int) bool {
	_, ok := g.edges[edgeKey(u, v)]
	return ok
}

func (g *Graph) NumEdges() int {
	return len(g.edges)
}

// Weight returns the total score of a node set
func (g *Graph) Weight(nodes []int) float64 {
	total := 0.0
	for _, n := range nodes {
		total += g.Scores[n]
	}
	return total
}

// Clone creates a deep copy of the graph
func (g *Graph) Clone() *Graph {
	clone := NewGraph(g.NumNodes)
	for i := 0; i < g.NumNodes; i++ {
		clone.AddNode(g.Labels[i], g.Scores[i])
	}
	for i := 0; i < g.NumNodes; i++ {
		for _, j := range g.Adjacency[i] {
			if i < j {
				clone.AddEdge(i, j)
			}
		}
	}
	return clone
}

// Validate checks graph consistency
func (g *Graph) Validate() error {
	if len(g.Labels) != g.NumNodes || len(g.Scores) != g.NumNodes || len(g.Adjacency) != g.NumNodes {
		return fmt.Errorf("node arrays inconsistent with node count %d", g.NumNodes)
	}

	for i := 0; i < g.NumNodes; i++ {
		if math.IsNaN(g.Scores[i]) || math.IsInf(g.Scores[i], 0) {
			return fmt.Errorf("non-finite score %f for node %s", g.Scores[i], g.Labels[i])
		}
		for _, neighbor := range g.Adjacency[i] {
			if neighbor < 0 || neighbor >= g.NumNodes {
				return fmt.Errorf("invalid neighbor %d for node %d", neighbor, i)
			}
			if !g.HasEdge(i, neighbor) {
				return fmt.Errorf("edge %d-%d missing from edge set", i, neighbor)
			}
		}
	}

	return nil
}

// InducedSubgraph copies the subgraph induced by nodes. The returned map
// sends every node of the subgraph to its node in g.
func (g *Graph) InducedSubgraph(nodes []int) (*Graph, NodeMap) {
	sub := NewGraph(len(nodes))
	mapToParent := make(NodeMap, 0, len(nodes))
	local := make(map[int]int, len(nodes))

	for _, n := range nodes {
		id, err := sub.AddNode(g.Labels[n], g.Scores[n])
		if err != nil {
			continue
		}
		local[n] = id
		mapToParent = append(mapToParent, []int{n})
	}

	for _, n := range nodes {
		u, ok := local[n]
		if !ok {
			continue
		}
		for _, m := range g.Adjacency[n] {
			if v, ok := local[m]; ok && u < v {
				sub.AddEdge(u, v)
			}
		}
	}

	return sub, mapToParent
}

// ConnectedComponents returns the connected components of the subgraph
// induced by the allowed nodes (all nodes when allowed is nil). Nodes are
// ascending within a component and components are ordered by smallest node.
func (g *Graph) ConnectedComponents(allowed []bool) [][]int {
	ug := simple.NewUndirectedGraph()
	for i := 0; i < g.NumNodes; i++ {
		if allowed == nil || allowed[i] {
			ug.AddNode(simple.Node(i))
		}
	}
	for i := 0; i < g.NumNodes; i++ {
		if allowed != nil && !allowed[i] {
			continue
		}
		for _, j := range g.Adjacency[i] {
			if i < j && (allowed == nil || allowed[j]) {
				ug.SetEdge(ug.NewEdge(simple.Node(i), simple.Node(j)))
			}
		}
	}

	components := make([][]int, 0)
	for _, cc := range topo.ConnectedComponents(ug) {
		comp := make([]int, 0, len(cc))
		for _, n := range cc {
			comp = append(comp, int(n.ID()))
		}
		sort.Ints(comp)
		components = append(components, comp)
	}

	sort.Slice(components, func(i, j int) bool {
		return components[i][0] < components[j][0]
	})
	return components
}

// IsForest reports whether the graph has no cycles
func (g *Graph) IsForest() bool {
	visited := make([]bool, g.NumNodes)
	parent := make([]int, g.NumNodes)

	var queue deque.Deque[int]
	for start := 0; start < g.NumNodes; start++ {
		if visited[start] {
			continue
		}
		visited[start] = true
		parent[start] = -1
		queue.PushBack(start)

		for queue.Len() > 0 {
			u := queue.PopFront()
			for _, v := range g.Adjacency[u] {
				if v == parent[u] {
					continue
				}
				if visited[v] {
					return false
				}
				visited[v] = true
				parent[v] = u
				queue.PushBack(v)
			}
		}
	}
	return true
}

func edgeKey(u, v int) [2]int {
	if u > v {
		u, v = v, u
	}
	return [2]int{u, v}
}
