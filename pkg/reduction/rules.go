package reduction

// Rule is a weight-preserving local rewrite. Apply performs as many
// applications as it finds in one sweep and returns how many it made.
// Rules never remove or merge away the root of w.
type Rule interface {
	Name() string
	Apply(w *Working) int
}

// NegDeg01 removes isolated and degree-1 nodes with non-positive score.
// Such a node can only lower the weight of a connected solution.
type NegDeg01 struct{}

func (NegDeg01) Name() string { return "NegDeg01" }

func (NegDeg01) Apply(w *Working) int {
	res := 0
	for deg := 0; deg < 2; deg++ {
		for _, n := range w.Degrees().Bucket(deg) {
			if !w.Alive(n) || n == w.Root() || w.Degree(n) > 1 {
				continue
			}
			if w.Score(n) <= 0 {
				w.Remove(n)
				res++
			}
		}
	}
	return res
}

// PosEdge merges a non-negative degree-1 node into its non-negative
// neighbor: any solution containing the neighbor can take the leaf along.
type PosEdge struct{}

func (PosEdge) Name() string { return "PosEdge" }

func (PosEdge) Apply(w *Working) int {
	res := 0
	for _, n := range w.Degrees().Bucket(1) {
		if !w.Alive(n) || n == w.Root() || w.Degree(n) != 1 || w.Score(n) < 0 {
			continue
		}
		m := w.Neighbors(n)[0]
		if w.Score(m) >= 0 {
			w.Merge(m, n)
			res++
		}
	}
	return res
}

// NegEdge handles two adjacent non-positive nodes of degree 2. If they
// close a triangle with a common neighbor, either can be dropped; otherwise
// they lie on a chain where an optimal solution takes both or neither, so
// they are merged.
type NegEdge struct{}

func (NegEdge) Name() string { return "NegEdge" }

func (NegEdge) Apply(w *Working) int {
	res := 0
	for _, n := range w.Degrees().Bucket(2) {
		if !w.Alive(n) || !negChainNode(w, n) {
			continue
		}

		nbrs := w.Neighbors(n)
		for i, m := range nbrs {
			if !negChainNode(w, m) {
				continue
			}
			a := nbrs[1-i]
			b := otherNeighbor(w, m, n)
			if a == b {
				w.Remove(n)
			} else {
				w.Merge(n, m)
			}
			res++
			break
		}
	}
	return res
}

func negChainNode(w *Working, n int) bool {
	return n != w.Root() && w.Degree(n) == 2 && w.Score(n) <= 0
}

func otherNeighbor(w *Working, n, exclude int) int {
	for _, m := range w.Neighbors(n) {
		if m != exclude {
			return m
		}
	}
	return -1
}
