package reduction

import (
	"fmt"
	"sort"
)

// DegreeIndex buckets live nodes by their current degree. Every structural
// change of the working graph goes through the On* hooks so bucket
// membership is maintained incrementally.
type DegreeIndex struct {
	degree  []int
	live    []bool
	buckets []map[int]struct{}
}

// NewDegreeIndex creates an index for n nodes, all live with degree 0
func NewDegreeIndex(n int) *DegreeIndex {
	d := &DegreeIndex{
		degree:  make([]int, n),
		live:    make([]bool, n),
		buckets: []map[int]struct{}{make(map[int]struct{}, n)},
	}
	for i := 0; i < n; i++ {
		d.live[i] = true
		d.buckets[0][i] = struct{}{}
	}
	return d
}

func (d *DegreeIndex) Degree(n int) int {
	return d.degree[n]
}

// Bucket returns the nodes of the given degree in ascending order.
// The slice is a snapshot and stays valid while the index changes.
func (d *DegreeIndex) Bucket(deg int) []int {
	if deg < 0 || deg >= len(d.buckets) {
		return nil
	}
	nodes := make([]int, 0, len(d.buckets[deg]))
	for n := range d.buckets[deg] {
		nodes = append(nodes, n)
	}
	sort.Ints(nodes)
	return nodes
}

// Count returns the number of nodes with the given degree
func (d *DegreeIndex) Count(deg int) int {
	if deg < 0 || deg >= len(d.buckets) {
		return 0
	}
	return len(d.buckets[deg])
}

// MaxDegree returns the largest degree that may have a non-empty bucket
func (d *DegreeIndex) MaxDegree() int {
	return len(d.buckets) - 1
}

func (d *DegreeIndex) OnEdgeAdded(u, v int) {
	d.move(u, d.degree[u]+1)
	d.move(v, d.degree[v]+1)
}

func (d *DegreeIndex) OnEdgeRemoved(u, v int) {
	d.move(u, d.degree[u]-1)
	d.move(v, d.degree[v]-1)
}

// OnNodeRemoved drops n from the index. Its incident edges must have been
// reported through OnEdgeRemoved first.
func (d *DegreeIndex) OnNodeRemoved(n int) {
	if !d.live[n] {
		panic(fmt.Sprintf("degree index: node %d removed twice", n))
	}
	if d.degree[n] != 0 {
		panic(fmt.Sprintf("degree index: node %d removed with %d incident edges", n, d.degree[n]))
	}
	delete(d.buckets[0], n)
	d.live[n] = false
}

func (d *DegreeIndex) move(n, deg int) {
	if !d.live[n] {
		panic(fmt.Sprintf("degree index: node %d is not live", n))
	}
	if deg < 0 {
		panic(fmt.Sprintf("degree index: negative degree for node %d", n))
	}
	for deg >= len(d.buckets) {
		d.buckets = append(d.buckets, make(map[int]struct{}))
	}
	delete(d.buckets[d.degree[n]], n)
	d.buckets[deg][n] = struct{}{}
	d.degree[n] = deg
}

// check verifies that every live node sits in exactly the bucket of degree
// degreeOf(n) and that no bucket holds a dead node.
func (d *DegreeIndex) check(degreeOf func(int) int) error {
	seen := make(map[int]int)
	for deg, bucket := range d.buckets {
		for n := range bucket {
			if prev, dup := seen[n]; dup {
				return fmt.Errorf("node %d in buckets %d and %d", n, prev, deg)
			}
			seen[n] = deg
			if !d.live[n] {
				return fmt.Errorf("dead node %d in bucket %d", n, deg)
			}
		}
	}
	for n, live := range d.live {
		if !live {
			continue
		}
		deg, ok := seen[n]
		if !ok {
			return fmt.Errorf("live node %d missing from index", n)
		}
		if actual := degreeOf(n); deg != actual || d.degree[n] != actual {
			return fmt.Errorf("node %d indexed with degree %d, actual %d", n, deg, actual)
		}
	}
	return nil
}
