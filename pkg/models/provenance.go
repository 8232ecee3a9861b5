package models

import "sort"

// NodeMap maps every node of a derived graph to the nodes of its parent
// graph that it stands for. Copying a subgraph yields singleton entries,
// contraction yields larger sets.
type NodeMap [][]int

// Provenance is a chain of node maps, outermost (closest to the original
// graph) first. Layer i maps nodes of level i+1 to nodes of level i.
type Provenance struct {
	layers []NodeMap
}

func NewProvenance(layers ...NodeMap) *Provenance {
	p := &Provenance{}
	for _, layer := range layers {
		p.Push(layer)
	}
	return p
}

// Push appends a deeper layer. Nil layers are skipped.
func (p *Provenance) Push(layer NodeMap) {
	if layer == nil {
		return
	}
	p.layers = append(p.layers, layer)
}

// Depth returns the number of layers
func (p *Provenance) Depth() int {
	return len(p.layers)
}

// Extend returns a new chain with layer appended, leaving p unchanged
func (p *Provenance) Extend(layer NodeMap) *Provenance {
	layers := make([]NodeMap, len(p.layers), len(p.layers)+1)
	copy(layers, p.layers)
	q := &Provenance{layers: layers}
	q.Push(layer)
	return q
}

// Resolve maps nodes of the deepest level down to original nodes.
// The result is sorted and free of duplicates.
func (p *Provenance) Resolve(nodes []int) []int {
	current := nodes
	for i := len(p.layers) - 1; i >= 0; i-- {
		layer := p.layers[i]
		next := make([]int, 0, len(current))
		for _, n := range current {
			next = append(next, layer[n]...)
		}
		current = next
	}
	return uniqueSorted(current)
}

func uniqueSorted(nodes []int) []int {
	out := make([]int, len(nodes))
	copy(out, nodes)
	sort.Ints(out)

	j := 0
	for i, n := range out {
		if i == 0 || n != out[j-1] {
			out[j] = n
			j++
		}
	}
	return out[:j]
}
