package reduction

import "fmt"

// PosDeg01 is the rooted rule. With a designated root every solution must
// contain it, so isolated non-root nodes are unreachable and are removed.
// It then merges a single non-negative, non-root leaf into its neighbor and
// returns, leaving the engine to re-read the degree buckets.
type PosDeg01 struct{}

func (PosDeg01) Name() string { return "Root - PosDeg01" }

func (PosDeg01) Apply(w *Working) int {
	root := w.Root()
	if !w.Alive(root) {
		panic(fmt.Sprintf("reduction: rooted rule applied without a live root (root=%d)", root))
	}

	res := 0
	for _, n := range w.Degrees().Bucket(0) {
		if n != root && w.Alive(n) {
			w.Remove(n)
			res++
		}
	}

	for _, n := range w.Degrees().Bucket(1) {
		if n == root || w.Score(n) < 0 {
			continue
		}
		w.Merge(w.Neighbors(n)[0], n)
		return res + 1
	}

	return res
}
