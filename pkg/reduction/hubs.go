package reduction

import (
	"strconv"
	"strings"
)

// NegMirroredHubs looks for non-positive nodes of degree >= 3 with identical
// neighbor sets. Such nodes are interchangeable in any solution, so only the
// highest scoring one (lowest index on ties) is kept.
type NegMirroredHubs struct{}

func (NegMirroredHubs) Name() string { return "NegMirroredHubs" }

func (NegMirroredHubs) Apply(w *Working) int {
	return removeTwins(w, false)
}

// NegHub is the adjacent variant of NegMirroredHubs: two non-positive nodes
// of degree >= 3 that are neighbors of each other and otherwise share all
// neighbors. Dropping the weaker one keeps every solution connected.
type NegHub struct{}

func (NegHub) Name() string { return "NegHub" }

func (NegHub) Apply(w *Working) int {
	return removeTwins(w, true)
}

func removeTwins(w *Working, closed bool) int {
	toRemove := make([]int, 0)

	for d := 3; d <= w.Degrees().MaxDegree(); d++ {
		groups := make(map[string][]int)
		keys := make([]string, 0)
		for _, n := range w.Degrees().Bucket(d) {
			if w.Score(n) > 0 {
				continue
			}
			key := neighborhoodKey(w, n, closed)
			if _, seen := groups[key]; !seen {
				keys = append(keys, key)
			}
			groups[key] = append(groups[key], n)
		}

		for _, key := range keys {
			group := groups[key]
			if len(group) < 2 {
				continue
			}
			keep := group[0]
			for _, n := range group[1:] {
				if w.Score(n) > w.Score(keep) {
					keep = n
				}
			}
			// the root is interchangeable with its twins, so it is the one kept
			for _, n := range group {
				if n == w.Root() {
					keep = n
				}
			}
			for _, n := range group {
				if n != keep {
					toRemove = append(toRemove, n)
				}
			}
		}
	}

	for _, n := range toRemove {
		w.Remove(n)
	}
	return len(toRemove)
}

func neighborhoodKey(w *Working, n int, closed bool) string {
	nbrs := w.Neighbors(n)
	if closed {
		nbrs = insertSorted(nbrs, n)
	}
	var sb strings.Builder
	for i, m := range nbrs {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(m))
	}
	return sb.String()
}

func insertSorted(nodes []int, n int) []int {
	out := make([]int, 0, len(nodes)+1)
	inserted := false
	for _, m := range nodes {
		if !inserted && n < m {
			out = append(out, n)
			inserted = true
		}
		out = append(out, m)
	}
	if !inserted {
		out = append(out, n)
	}
	return out
}
