package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jward/arbor/internal/analysis"
	"github.com/jward/arbor/internal/parser"
)

// RunSummary is one row of `arbor report` with per-run counts.
type RunSummary struct {
	ID         int64
	Package    string
	Version    string
	Root       string
	Pattern    string
	CreatedAt  time.Time
	Files      int
	Cycles     int
	Unused     int
	Violations int
}

// ListRuns returns every persisted run, newest first.
func (s *Store) ListRuns() ([]RunSummary, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.package, r.version, r.root, r.pattern, r.created_at,
		  (SELECT COUNT(*) FROM files f WHERE f.run_id = r.id),
		  (SELECT COUNT(*) FROM cycles c WHERE c.run_id = r.id),
		  (SELECT COUNT(*) FROM unused_exports u WHERE u.run_id = r.id),
		  (SELECT COUNT(*) FROM layer_violations v WHERE v.run_id = r.id)
		FROM runs r ORDER BY r.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Package, &r.Version, &r.Root, &r.Pattern, &r.CreatedAt,
			&r.Files, &r.Cycles, &r.Unused, &r.Violations); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Report is the readable detail of one persisted run.
type Report struct {
	Run           RunSummary
	Cycles        []analysis.Cycle
	UnusedExports []analysis.UnusedExport
	Audit         analysis.DependencyAudit
	Flows         []analysis.ExportFlow
	Violations    []analysis.Violation
}

// LoadReport reads one run back in full.
func (s *Store) LoadReport(runID int64) (*Report, error) {
	rep := &Report{}
	err := s.db.QueryRow(`
		SELECT r.id, r.package, r.version, r.root, r.pattern, r.created_at,
		  (SELECT COUNT(*) FROM files f WHERE f.run_id = r.id),
		  (SELECT COUNT(*) FROM cycles c WHERE c.run_id = r.id),
		  (SELECT COUNT(*) FROM unused_exports u WHERE u.run_id = r.id),
		  (SELECT COUNT(*) FROM layer_violations v WHERE v.run_id = r.id)
		FROM runs r WHERE r.id = ?`, runID).
		Scan(&rep.Run.ID, &rep.Run.Package, &rep.Run.Version, &rep.Run.Root, &rep.Run.Pattern,
			&rep.Run.CreatedAt, &rep.Run.Files, &rep.Run.Cycles, &rep.Run.Unused, &rep.Run.Violations)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("load report: run %d not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}

	if err := s.loadCycles(runID, rep); err != nil {
		return nil, err
	}
	if err := s.loadUnused(runID, rep); err != nil {
		return nil, err
	}
	if err := s.loadAudit(runID, rep); err != nil {
		return nil, err
	}
	if err := s.loadFlows(runID, rep); err != nil {
		return nil, err
	}
	if err := s.loadViolations(runID, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func (s *Store) loadCycles(runID int64, rep *Report) error {
	rows, err := s.db.Query(`SELECT paths FROM cycles WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return fmt.Errorf("load cycles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var paths string
		if err := rows.Scan(&paths); err != nil {
			return fmt.Errorf("load cycles: scan: %w", err)
		}
		rep.Cycles = append(rep.Cycles, analysis.Cycle(unmarshalStrings(paths)))
	}
	return rows.Err()
}

func (s *Store) loadUnused(runID int64, rep *Report) error {
	rows, err := s.db.Query(
		`SELECT file, name, kind, line, col FROM unused_exports WHERE run_id = ? ORDER BY file, name`, runID)
	if err != nil {
		return fmt.Errorf("load unused exports: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var u analysis.UnusedExport
		var kind string
		if err := rows.Scan(&u.File, &u.Name, &kind, &u.Pos.Line, &u.Pos.Col); err != nil {
			return fmt.Errorf("load unused exports: scan: %w", err)
		}
		u.Kind = parser.ExportKind(kind)
		rep.UnusedExports = append(rep.UnusedExports, u)
	}
	return rows.Err()
}

func (s *Store) loadAudit(runID int64, rep *Report) error {
	rows, err := s.db.Query(
		`SELECT category, package FROM dependency_audit WHERE run_id = ? ORDER BY category, package`, runID)
	if err != nil {
		return fmt.Errorf("load audit: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category, pkg string
		if err := rows.Scan(&category, &pkg); err != nil {
			return fmt.Errorf("load audit: scan: %w", err)
		}
		switch category {
		case "used_prod":
			rep.Audit.UsedProd = append(rep.Audit.UsedProd, pkg)
		case "used_test":
			rep.Audit.UsedTest = append(rep.Audit.UsedTest, pkg)
		case "unused":
			rep.Audit.Unused = append(rep.Audit.Unused, pkg)
		case "unlisted":
			rep.Audit.Unlisted = append(rep.Audit.Unlisted, pkg)
		case "misplaced":
			rep.Audit.Misplaced = append(rep.Audit.Misplaced, pkg)
		}
	}
	return rows.Err()
}

func (s *Store) loadFlows(runID int64, rep *Report) error {
	rows, err := s.db.Query(
		`SELECT name, defined_in, kind, chain, public_from, conditions
		 FROM export_flows WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return fmt.Errorf("load flows: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var f analysis.ExportFlow
		var chain, publicFrom, conditions string
		if err := rows.Scan(&f.Name, &f.DefinedIn, &f.Kind, &chain, &publicFrom, &conditions); err != nil {
			return fmt.Errorf("load flows: scan: %w", err)
		}
		f.ReExportChain = unmarshalStrings(chain)
		f.PublicFrom = unmarshalStrings(publicFrom)
		f.Conditions = unmarshalStrings(conditions)
		rep.Flows = append(rep.Flows, f)
	}
	return rows.Err()
}

func (s *Store) loadViolations(runID int64, rep *Report) error {
	rows, err := s.db.Query(
		`SELECT from_path, to_path, from_layer, to_layer
		 FROM layer_violations WHERE run_id = ? ORDER BY from_path, to_path`, runID)
	if err != nil {
		return fmt.Errorf("load violations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v analysis.Violation
		if err := rows.Scan(&v.From, &v.To, &v.FromLayer, &v.ToLayer); err != nil {
			return fmt.Errorf("load violations: scan: %w", err)
		}
		rep.Violations = append(rep.Violations, v)
	}
	return rows.Err()
}
