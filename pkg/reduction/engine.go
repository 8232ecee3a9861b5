package reduction

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Stats summarizes one reduction run
type Stats struct {
	Passes      int            `json:"passes"`
	Changes     map[string]int `json:"changes"` // rule name -> applications
	NodesBefore int            `json:"nodes_before"`
	NodesAfter  int            `json:"nodes_after"`
	EdgesBefore int            `json:"edges_before"`
	EdgesAfter  int            `json:"edges_after"`
	RuntimeMS   int64          `json:"runtime_ms"`
}

// TotalChanges returns the number of rule applications over all passes
func (s Stats) TotalChanges() int {
	total := 0
	for _, c := range s.Changes {
		total += c
	}
	return total
}

// Engine applies an ordered battery of rules to fixpoint
type Engine struct {
	rules     []Rule
	rootRules []Rule
	logger    zerolog.Logger
}

// DefaultRules returns the unrooted battery in application order
func DefaultRules(includeHubs bool) []Rule {
	rules := []Rule{NegDeg01{}, PosEdge{}, NegEdge{}}
	if includeHubs {
		rules = append(rules, NegHub{}, NegMirroredHubs{})
	}
	return rules
}

// DefaultRootRules returns the rooted battery in application order
func DefaultRootRules() []Rule {
	return []Rule{NegDeg01{}, PosDeg01{}}
}

// NewEngine creates an engine with the default batteries
func NewEngine(logger zerolog.Logger, includeHubs bool) *Engine {
	return NewEngineWithRules(logger, DefaultRules(includeHubs), DefaultRootRules())
}

// NewEngineWithRules creates an engine with custom batteries
func NewEngineWithRules(logger zerolog.Logger, rules, rootRules []Rule) *Engine {
	return &Engine{
		rules:     rules,
		rootRules: rootRules,
		logger:    logger,
	}
}

// Reduce runs full passes over the battery until a pass changes nothing.
// With root != NoRoot the rooted battery is used and the root is never
// eliminated.
func (e *Engine) Reduce(w *Working, root int) (Stats, error) {
	start := time.Now()

	rules := e.rules
	if root != NoRoot {
		if !w.Alive(root) {
			return Stats{}, errors.Errorf("invalid root node %d", root)
		}
		rules = e.rootRules
	}
	w.setRoot(root)
	defer w.setRoot(NoRoot)

	stats := Stats{
		Changes:     make(map[string]int, len(rules)),
		NodesBefore: w.NumNodes(),
		EdgesBefore: w.NumEdges(),
	}

	for {
		stats.Passes++
		passChanges := 0
		for _, rule := range rules {
			n := rule.Apply(w)
			if n > 0 {
				stats.Changes[rule.Name()] += n
				passChanges += n
				e.logger.Debug().
					Str("rule", rule.Name()).
					Int("pass", stats.Passes).
					Int("changes", n).
					Msg("Rule applied")
			}
		}
		if passChanges == 0 {
			break
		}
	}

	stats.NodesAfter = w.NumNodes()
	stats.EdgesAfter = w.NumEdges()
	stats.RuntimeMS = time.Since(start).Milliseconds()

	e.logger.Debug().
		Int("passes", stats.Passes).
		Int("nodes_before", stats.NodesBefore).
		Int("nodes_after", stats.NodesAfter).
		Int("edges_before", stats.EdgesBefore).
		Int("edges_after", stats.EdgesAfter).
		Msg("Reduction completed")

	return stats, nil
}
