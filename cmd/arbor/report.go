package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jward/arbor"
)

var flagReportDB string

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "List or show persisted analysis runs",
	Long:  "Without arguments, lists every run in the database. With a run ID, prints that run in full.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&flagReportDB, "db", "", "SQLite run database (required)")
	reportCmd.MarkFlagRequired("db")
}

func runReport(cmd *cobra.Command, args []string) error {
	s, err := arbor.OpenStore(flagReportDB)
	if err != nil {
		return err
	}
	defer s.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if len(args) == 0 {
		runs, err := s.ListRuns()
		if err != nil {
			return err
		}
		if flagFormat == "text" {
			formatRunsText(os.Stdout, runs)
			return nil
		}
		return enc.Encode(runs)
	}

	runID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q", args[0])
	}
	rep, err := s.LoadReport(runID)
	if err != nil {
		return err
	}
	if flagFormat == "text" {
		formatReportText(os.Stdout, rep)
		return nil
	}
	return enc.Encode(rep)
}
