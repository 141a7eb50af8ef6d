package main

import (
	"context"
	"fmt"
	"os"

	"github.com/risor-io/risor"
	"github.com/spf13/cobra"
)

var flagExpr string

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Evaluate a policy expression against the analysis",
	Long: `Analyzes the project and evaluates a Risor expression over the summary.
The command fails when the expression is false, which makes it usable as a
CI gate:

  arbor check --expr 'cycles == 0 && unlisted == 0'

Available globals: files, cycles, unused, unlisted, misplaced, violations
(all ints) and pattern (string).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&flagIncludeTests, "include-tests", false, "include test files in the graph")
	checkCmd.Flags().StringSliceVar(&flagExclude, "exclude", nil, "glob patterns to exclude (relative paths)")
	checkCmd.Flags().StringVar(&flagLayersFile, "layers", "", "YAML file with architecture layer rules")
	checkCmd.Flags().StringVar(&flagTSConfig, "tsconfig", "", "tsconfig.json for paths alias resolution")
	checkCmd.Flags().StringVar(&flagExpr, "expr", "", "policy expression (required)")
	checkCmd.MarkFlagRequired("expr")
}

func runCheck(cmd *cobra.Command, args []string) error {
	engine, err := buildEngine(args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	res, err := engine.Analyze(ctx)
	if err != nil {
		return err
	}

	result, err := risor.Eval(ctx, flagExpr,
		risor.WithGlobal("files", int64(len(res.Graph.Files))),
		risor.WithGlobal("cycles", int64(len(res.Cycles))),
		risor.WithGlobal("unused", int64(len(res.UnusedExports))),
		risor.WithGlobal("unlisted", int64(len(res.Audit.Unlisted))),
		risor.WithGlobal("misplaced", int64(len(res.Audit.Misplaced))),
		risor.WithGlobal("violations", int64(len(res.Architecture.Violations))),
		risor.WithGlobal("pattern", res.Architecture.Pattern),
	)
	if err != nil {
		return fmt.Errorf("policy: %w", err)
	}

	if !result.IsTruthy() {
		return fmt.Errorf("policy failed: %s (cycles=%d unused=%d unlisted=%d misplaced=%d violations=%d)",
			flagExpr, len(res.Cycles), len(res.UnusedExports), len(res.Audit.Unlisted),
			len(res.Audit.Misplaced), len(res.Architecture.Violations))
	}
	fmt.Fprintf(os.Stderr, "policy ok: %s\n", flagExpr)
	return nil
}
