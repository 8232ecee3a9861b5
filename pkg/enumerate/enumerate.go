package enumerate

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/mwcs-module-service/pkg/models"
	"github.com/gilchrisn/mwcs-module-service/pkg/reduction"
	"github.com/gilchrisn/mwcs-module-service/pkg/solver"
	"github.com/gilchrisn/mwcs-module-service/pkg/utils"
)

// Run enumerates disjoint modules of graph with a logger built from config
func Run(graph *models.Graph, config *Config, ctx context.Context) (*Result, error) {
	return RunWithLogger(graph, config, config.CreateLogger(), ctx)
}

// RunWithLogger enumerates disjoint modules of graph. Every round splits the
// nodes not yet picked into connected components, reduces and solves each
// one and turns accepted solutions into modules. The run converges after a
// round without new modules. Limits and cancellation are only checked
// between rounds, so the returned attribution is always consistent; on
// cancellation the partial result is returned together with ctx.Err().
func RunWithLogger(graph *models.Graph, config *Config, logger zerolog.Logger, ctx context.Context) (*Result, error) {
	startTime := time.Now()

	if graph == nil {
		return nil, fmt.Errorf("graph is nil")
	}
	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	factory, err := solver.Lookup(config.SolverName())
	if err != nil {
		return nil, err
	}

	d := &driver{
		graph:    graph,
		config:   config,
		logger:   logger,
		factory:  factory,
		opts:     config.SolverOptions(),
		engine:   reduction.NewEngine(logger, config.HubRules()),
		progress: config.EnableProgress(),
	}
	d.preprocess = config.Preprocess()
	initial := config.InitialPreprocess()
	if d.opts.ModuleSize > 0 && (d.preprocess || initial) {
		logger.Warn().
			Int("module_size", d.opts.ModuleSize).
			Msg("Reduction rules do not preserve module sizes, preprocessing disabled")
		d.preprocess, initial = false, false
	}

	result := &Result{
		RunID:        uuid.New().String(),
		Modules:      []models.Module{},
		ModuleIndex:  make([]int, graph.NumNodes),
		ModuleWeight: make([]float64, graph.NumNodes),
		Rounds:       []RoundStats{},
	}
	unassignedWeight := 0.0
	if d.opts.ModuleSize > 0 {
		unassignedWeight = -math.MaxFloat64
	}
	for i := range result.ModuleIndex {
		result.ModuleIndex[i] = Unassigned
		result.ModuleWeight[i] = unassignedWeight
	}
	d.result = result

	if config.EnableEventTracking() {
		tracker, err := utils.NewEventTracker(config.TrackingOutputFile(), result.RunID, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Event tracking disabled")
		}
		d.tracker = tracker
	}
	defer func() {
		if err := d.tracker.Close(); err != nil {
			logger.Warn().Err(err).Msg("Event trace may be incomplete")
		}
	}()

	// The rounds run on base; baseProv maps base nodes to input nodes.
	d.base = graph
	d.baseProv = models.NewProvenance()
	if initial {
		w := reduction.NewWorking(graph)
		stats, err := d.engine.Reduce(w, reduction.NoRoot)
		if err != nil {
			return nil, fmt.Errorf("initial reduction: %w", err)
		}
		base, layer := w.Export()
		d.base = base
		d.baseProv = models.NewProvenance(layer)
		result.Initial = &stats
		logger.Info().
			Int("nodes_before", stats.NodesBefore).
			Int("nodes_after", stats.NodesAfter).
			Int("changes", stats.TotalChanges()).
			Msg("Initial reduction completed")
	}
	d.picked = make([]bool, d.base.NumNodes)

	logger.Info().
		Str("run_id", result.RunID).
		Int("nodes", graph.NumNodes).
		Int("edges", graph.NumEdges()).
		Str("solver", config.SolverName()).
		Bool("preprocess", d.preprocess).
		Int("module_size", d.opts.ModuleSize).
		Msg("Starting enumeration")

	var deadline time.Time
	if limit := config.Deadline(); limit > 0 {
		deadline = startTime.Add(limit)
	}
	maxRounds := config.MaxRounds()

	var runErr error
	for {
		if err := ctx.Err(); err != nil {
			result.Termination, runErr = Canceled, err
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			result.Termination = DeadlineExceeded
			break
		}
		if maxRounds > 0 && len(result.Rounds) >= maxRounds {
			result.Termination = MaxRoundsReached
			break
		}

		stats, err := d.round(len(result.Rounds) + 1)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", len(result.Rounds)+1, err)
		}
		result.Rounds = append(result.Rounds, stats)

		if stats.Successes == 0 {
			result.Termination = Converged
			break
		}
	}

	result.RuntimeMS = time.Since(startTime).Milliseconds()
	d.tracker.Log(utils.Event{Kind: utils.EventDone, Round: len(result.Rounds), Module: len(result.Modules), Detail: string(result.Termination)})

	logger.Info().
		Str("termination", string(result.Termination)).
		Int("rounds", len(result.Rounds)).
		Int("modules", len(result.Modules)).
		Int("assigned_nodes", result.Assigned()).
		Int64("runtime_ms", result.RuntimeMS).
		Msg("Enumeration completed")

	return result, runErr
}

// driver holds the state of one run
type driver struct {
	graph    *models.Graph
	config   *Config
	logger   zerolog.Logger
	factory  solver.Factory
	opts     solver.Options
	engine   *reduction.Engine
	tracker  *utils.EventTracker
	progress bool

	preprocess bool
	base       *models.Graph
	baseProv   *models.Provenance
	picked     []bool // over base nodes, only grows
	result     *Result
}

// round solves every component of the unpicked nodes once
func (d *driver) round(round int) (RoundStats, error) {
	start := time.Now()

	allowed := make([]bool, d.base.NumNodes)
	stats := RoundStats{Round: round}
	for i, p := range d.picked {
		allowed[i] = !p
		if !p {
			stats.AllowedNodes++
		}
	}

	components := d.base.ConnectedComponents(allowed)
	stats.Components = len(components)
	d.tracker.Log(utils.Event{Kind: utils.EventRoundStart, Round: round, Nodes: stats.AllowedNodes, Detail: fmt.Sprintf("%d components", len(components))})

	if d.progress {
		d.logger.Info().
			Int("round", round).
			Int("allowed_nodes", stats.AllowedNodes).
			Int("components", len(components)).
			Msg("Starting round")
	}

	for ci, comp := range components {
		out, err := d.solveComponent(comp)
		if err != nil {
			return stats, fmt.Errorf("component %d: %w", ci, err)
		}
		stats.ReducedNodes += out.reduced

		d.logger.Debug().
			Int("round", round).
			Int("component", ci).
			Int("nodes", len(comp)).
			Int("reduced_nodes", out.reduced).
			Str("strategy", out.strategy).
			Float64("weight", out.weight).
			Bool("accepted", out.accepted).
			Bool("timed_out", out.timedOut).
			Msg("Component solved")
		d.tracker.Log(utils.Event{Kind: utils.EventComponent, Round: round, Component: ci, Nodes: len(comp), Reduced: out.reduced, Weight: out.weight, Accepted: out.accepted, Detail: out.strategy})

		if !out.accepted {
			stats.Failures++
			continue
		}
		if err := d.processModule(out); err != nil {
			return stats, err
		}
		stats.Successes++
		d.tracker.Log(utils.Event{Kind: utils.EventModule, Round: round, Component: ci, Nodes: len(out.nodes), Module: len(d.result.Modules) - 1, Weight: out.weight, Accepted: true})
	}

	stats.RuntimeMS = time.Since(start).Milliseconds()
	d.tracker.Log(utils.Event{Kind: utils.EventRoundEnd, Round: round, Module: stats.Successes})

	if d.progress {
		d.logger.Info().
			Int("round", round).
			Int("successes", stats.Successes).
			Int("failures", stats.Failures).
			Int64("runtime_ms", stats.RuntimeMS).
			Msg("Round completed")
	}
	return stats, nil
}

// solveComponent copies comp into a fresh instance, reduces it when
// enabled and runs a new solver on it. Rejections are not errors.
func (d *driver) solveComponent(comp []int) (componentOutcome, error) {
	sub, toBase := d.base.InducedSubgraph(comp)
	local := models.NewProvenance(toBase)

	instance := sub
	if d.preprocess {
		w := reduction.NewWorking(sub)
		if _, err := d.engine.Reduce(w, reduction.NoRoot); err != nil {
			return componentOutcome{}, err
		}
		reduced, toSub := w.Export()
		instance = reduced
		local.Push(toSub)
	}

	out := componentOutcome{reduced: instance.NumNodes}
	if instance.NumNodes == 0 {
		return out, nil
	}

	s := d.factory(d.opts)
	if err := s.Init(instance); err != nil {
		return out, fmt.Errorf("solver init: %w", err)
	}
	out.strategy = d.config.SolverName()
	if named, ok := s.(interface{ Strategy() string }); ok {
		out.strategy = named.Strategy()
	}
	solved := s.Solve()
	if limited, ok := s.(interface{ TimedOut() bool }); ok {
		out.timedOut = limited.TimedOut()
	}
	if !solved {
		return out, nil
	}

	out.weight = s.SolutionWeight()
	module := s.SolutionModule()
	if len(module) == 0 || (d.opts.ModuleSize <= 0 && out.weight <= 0) {
		return out, nil
	}

	out.accepted = true
	out.picked = local.Resolve(module)
	out.nodes = d.baseProv.Resolve(out.picked)
	return out, nil
}

// processModule records an accepted solution as the next module and marks
// its nodes as picked
func (d *driver) processModule(out componentOutcome) error {
	r := d.result
	index := len(r.Modules)

	for _, n := range out.nodes {
		if r.ModuleIndex[n] != Unassigned && out.weight <= r.ModuleWeight[n] {
			return fmt.Errorf("node %s already in module %d with weight %g, refusing weight %g",
				d.graph.Labels[n], r.ModuleIndex[n], r.ModuleWeight[n], out.weight)
		}
	}

	for _, n := range out.nodes {
		r.ModuleIndex[n] = index
		r.ModuleWeight[n] = out.weight
	}
	for _, n := range out.picked {
		d.picked[n] = true
	}

	r.Modules = append(r.Modules, models.Module{
		Index:  index,
		Nodes:  out.nodes,
		Weight: out.weight,
	})
	return nil
}
