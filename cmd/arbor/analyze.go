package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/arbor"
	"github.com/jward/arbor/internal/store"
)

var (
	flagIncludeTests bool
	flagExclude      []string
	flagWorkers      int
	flagExtraRoots   []string
	flagLayersFile   string
	flagTSConfig     string
	flagDB           string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a project and print or persist the result",
	Long:  "Builds the module graph for the project at path (default .) and runs every analysis. Results go to stdout, or into a SQLite run database with --db.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&flagIncludeTests, "include-tests", false, "include test files in the graph")
	analyzeCmd.Flags().StringSliceVar(&flagExclude, "exclude", nil, "glob patterns to exclude (relative paths)")
	analyzeCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parse worker count (default: number of CPUs)")
	analyzeCmd.Flags().StringSliceVar(&flagExtraRoots, "entry", nil, "extra entry-point paths for export-flow tracing")
	analyzeCmd.Flags().StringVar(&flagLayersFile, "layers", "", "YAML file with architecture layer rules")
	analyzeCmd.Flags().StringVar(&flagTSConfig, "tsconfig", "", "tsconfig.json for paths alias resolution")
	analyzeCmd.Flags().StringVar(&flagDB, "db", "", "persist the run to this SQLite database")
}

func buildEngine(args []string) (*arbor.Engine, error) {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	opts := []arbor.Option{
		arbor.WithTests(flagIncludeTests),
		arbor.WithWorkers(flagWorkers),
	}
	if len(flagExclude) > 0 {
		opts = append(opts, arbor.WithExcludeGlobs(flagExclude...))
	}
	if len(flagExtraRoots) > 0 {
		opts = append(opts, arbor.WithExtraRoots(flagExtraRoots...))
	}
	if flagLayersFile != "" {
		layers, err := arbor.LoadLayers(flagLayersFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, arbor.WithLayers(layers))
	}
	if flagTSConfig != "" {
		opts = append(opts, arbor.WithTSConfig(flagTSConfig))
	}
	return arbor.New(root, opts...)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	start := time.Now()

	engine, err := buildEngine(args)
	if err != nil {
		return err
	}

	res, err := engine.Analyze(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Analyzed %d files in %s\n",
		len(res.Graph.Files), time.Since(start).Round(time.Millisecond))
	for _, skipped := range res.Graph.Skipped {
		fmt.Fprintf(os.Stderr, "Skipped %s: %s\n", skipped.Path, skipped.Reason)
	}

	if flagDB != "" {
		s, err := arbor.OpenStore(flagDB)
		if err != nil {
			return err
		}
		defer s.Close()

		runID, err := s.SaveRun(&store.Snapshot{
			Graph:         res.Graph,
			Cycles:        res.Cycles,
			UnusedExports: res.UnusedExports,
			Audit:         res.Audit,
			Flows:         res.Flows,
			Architecture:  res.Architecture,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved run %d to %s\n", runID, flagDB)
		return nil
	}

	if flagFormat == "text" {
		formatResultText(os.Stdout, res)
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
