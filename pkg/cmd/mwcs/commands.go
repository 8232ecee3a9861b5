package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/mwcs-module-service/pkg/api"
	"github.com/gilchrisn/mwcs-module-service/pkg/enumerate"
	"github.com/gilchrisn/mwcs-module-service/pkg/parser"
	"github.com/gilchrisn/mwcs-module-service/pkg/reduction"
	"github.com/gilchrisn/mwcs-module-service/pkg/validation"
)

var (
	enumerateCmd = &cobra.Command{
		Use:   "enumerate <nodes-file> <edges-file>",
		Short: "Find disjoint modules round by round until a round finds nothing",
		Args:  cobra.ExactArgs(2),
	}
	outputFile  = enumerateCmd.Flags().StringP("output", "o", "", "Assignment output file (default stdout)")
	modulesFile = enumerateCmd.Flags().String("modules", "", "Also write the module list as JSON to this file")

	reduceCmd = &cobra.Command{
		Use:   "reduce <nodes-file> <edges-file>",
		Short: "Apply the reduction rules and write the reduced graph",
		Args:  cobra.ExactArgs(2),
	}
	reducePrefix = reduceCmd.Flags().String("out", "reduced", "Output prefix for .nodes, .edges and .map files")
	reduceRoot   = reduceCmd.Flags().String("root", "", "Label of a node that must survive (rooted rules)")

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Args:  cobra.NoArgs,
	}
	runHistory = serveCmd.Flags().Int("history", 64, "Number of enumeration runs kept for lookup")
)

func init() {
	enumerateCmd.RunE = runEnumerate
	reduceCmd.RunE = runReduce
	serveCmd.RunE = runServe

	flags := enumerateCmd.Flags()
	flags.String("solver", "auto", "Solver strategy (auto, treedp, exhaustive, heuristic)")
	flags.Int("module-size", -1, "Fixed module size, -1 for unconstrained")
	flags.Int("time-limit", -1, "Solver time limit in seconds, -1 for none")
	flags.Int("threads", 1, "Solver thread hint")
	flags.Int("max-exhaustive", 28, "Largest instance the exhaustive solver accepts")
	flags.Bool("preprocess", true, "Reduce every component before solving")
	flags.Bool("initial-reduce", false, "Reduce the whole graph once before the first round")
	flags.Bool("hub-rules", true, "Include the hub rules in the reduction battery")
	flags.Int("max-rounds", 0, "Stop after this many rounds, 0 for no limit")
	flags.Float64("deadline", -1, "Stop starting new rounds after this many seconds")
	flags.Bool("progress", true, "Log every round")
	flags.Bool("track-events", false, "Write a JSON lines event trace")
	flags.String("events-file", "mwcs_events.jsonl", "Event trace file")

	reduceCmd.Flags().Bool("hub-rules", true, "Include the hub rules in the reduction battery")
	serveCmd.Flags().String("address", ":8080", "Listen address")
}

func runEnumerate(cmd *cobra.Command, args []string) error {
	if err := validation.ValidateConfig(config); err != nil {
		return err
	}

	graph, err := validation.LoadAndValidateGraph(args[0], args[1])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := enumerate.RunWithLogger(graph, config, log.Logger, ctx)
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		log.Warn().Err(err).Msg("Enumeration interrupted, writing partial result")
	}

	var out io.Writer = os.Stdout
	if *outputFile != "" {
		f, err := os.Create(*outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := parser.WriteAssignments(out, graph, result); err != nil {
		return err
	}

	if *modulesFile != "" {
		f, err := os.Create(*modulesFile)
		if err != nil {
			return fmt.Errorf("failed to create modules file: %w", err)
		}
		defer f.Close()
		if err := parser.WriteModules(f, graph, result); err != nil {
			return err
		}
	}

	log.Info().
		Int("modules", len(result.Modules)).
		Float64("total_weight", result.TotalWeight()).
		Str("termination", string(result.Termination)).
		Msg("Done")
	return nil
}

func runReduce(cmd *cobra.Command, args []string) error {
	graph, err := validation.LoadAndValidateGraph(args[0], args[1])
	if err != nil {
		return err
	}

	root := reduction.NoRoot
	if *reduceRoot != "" {
		id, ok := graph.NodeByLabel(*reduceRoot)
		if !ok {
			return fmt.Errorf("unknown root node %s", *reduceRoot)
		}
		root = id
	}

	engine := reduction.NewEngine(log.Logger, config.HubRules())
	working := reduction.NewWorking(graph)
	stats, err := engine.Reduce(working, root)
	if err != nil {
		return err
	}

	reduced, nodeMap := working.Export()
	if err := parser.WriteGraphFiles(*reducePrefix, reduced); err != nil {
		return err
	}
	f, err := os.Create(*reducePrefix + ".map")
	if err != nil {
		return fmt.Errorf("failed to create provenance file: %w", err)
	}
	defer f.Close()
	if err := parser.WriteProvenance(f, reduced, nodeMap, graph); err != nil {
		return err
	}

	event := log.Info().
		Int("passes", stats.Passes).
		Int("nodes_before", stats.NodesBefore).
		Int("nodes_after", stats.NodesAfter).
		Int("edges_before", stats.EdgesBefore).
		Int("edges_after", stats.EdgesAfter)
	for rule, changes := range stats.Changes {
		event = event.Int(rule, changes)
	}
	event.Msg("Reduction written to " + *reducePrefix)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := validation.ValidateConfig(config); err != nil {
		return err
	}

	router := api.NewRouter(api.NewHandlers(config, api.NewRunStore(*runHistory)))
	server := &http.Server{
		Addr:        config.ServerAddress(),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("address", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case <-quit:
	}

	log.Info().Msg("Shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("Server shutdown complete")
	return nil
}
