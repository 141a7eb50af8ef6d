package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jward/arbor"
	"github.com/jward/arbor/internal/store"
)

// formatResultText renders an analysis result as a human-readable summary.
func formatResultText(w io.Writer, res *arbor.Result) {
	fmt.Fprintf(w, "%s@%s (%s)\n", res.Package.Name, res.Package.Version, res.Architecture.Pattern)
	fmt.Fprintf(w, "files: %d  entries: %s\n\n",
		len(res.Graph.Files), strings.Join(res.EntryPoints, ", "))

	fmt.Fprintf(w, "cycles: %d\n", len(res.Cycles))
	for _, cycle := range res.Cycles {
		fmt.Fprintf(w, "  %s\n", strings.Join(cycle, " -> "))
	}

	fmt.Fprintf(w, "unused exports: %d\n", len(res.UnusedExports))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, u := range res.UnusedExports {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", u.File, u.Name, u.Kind)
	}
	tw.Flush()

	formatAuditText(w, res.Audit)

	fmt.Fprintf(w, "export flows: %d\n", len(res.Flows))
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range res.Flows {
		fmt.Fprintf(tw, "  %s\t%s\tvia %d\tfrom %s\n",
			f.Name, f.DefinedIn, len(f.ReExportChain), strings.Join(f.PublicFrom, ","))
	}
	tw.Flush()

	fmt.Fprintf(w, "layer violations: %d\n", len(res.Architecture.Violations))
	for _, v := range res.Architecture.Violations {
		fmt.Fprintf(w, "  %s (%s) -> %s (%s)\n", v.From, v.FromLayer, v.To, v.ToLayer)
	}
}

func formatAuditText(w io.Writer, audit *arbor.DependencyAudit) {
	fmt.Fprintln(w, "dependency audit:")
	rows := []struct {
		label string
		pkgs  []string
	}{
		{"used (prod)", audit.UsedProd},
		{"used (test)", audit.UsedTest},
		{"unused", audit.Unused},
		{"unlisted", audit.Unlisted},
		{"misplaced", audit.Misplaced},
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		if len(row.pkgs) == 0 {
			continue
		}
		fmt.Fprintf(tw, "  %s\t%s\n", row.label, strings.Join(row.pkgs, ", "))
	}
	tw.Flush()
}

// formatRunsText renders the run list as aligned columns.
func formatRunsText(w io.Writer, runs []store.RunSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPACKAGE\tVERSION\tPATTERN\tFILES\tCYCLES\tUNUSED\tVIOLATIONS\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.ID, r.Package, r.Version, r.Pattern, r.Files, r.Cycles, r.Unused, r.Violations,
			r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	tw.Flush()
}

// formatReportText renders one stored run in full.
func formatReportText(w io.Writer, rep *store.Report) {
	fmt.Fprintf(w, "run %d: %s@%s (%s)\n", rep.Run.ID, rep.Run.Package, rep.Run.Version, rep.Run.Pattern)
	fmt.Fprintf(w, "root: %s  files: %d\n\n", rep.Run.Root, rep.Run.Files)

	fmt.Fprintf(w, "cycles: %d\n", len(rep.Cycles))
	for _, cycle := range rep.Cycles {
		fmt.Fprintf(w, "  %s\n", strings.Join(cycle, " -> "))
	}

	fmt.Fprintf(w, "unused exports: %d\n", len(rep.UnusedExports))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, u := range rep.UnusedExports {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", u.File, u.Name, u.Kind)
	}
	tw.Flush()

	formatAuditText(w, &rep.Audit)

	fmt.Fprintf(w, "export flows: %d\n", len(rep.Flows))
	fmt.Fprintf(w, "layer violations: %d\n", len(rep.Violations))
	for _, v := range rep.Violations {
		fmt.Fprintf(w, "  %s (%s) -> %s (%s)\n", v.From, v.FromLayer, v.To, v.ToLayer)
	}
}
