// Package store persists analysis runs to SQLite so results can be
// compared and reported on later without re-analyzing the project.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jward/arbor/internal/analysis"
	"github.com/jward/arbor/internal/graph"
)

// Store is the SQLite data access layer for persisted analysis runs.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database at dbPath with WAL mode enabled and creates
// the schema if needed.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS runs (
  id          INTEGER PRIMARY KEY,
  package     TEXT NOT NULL,
  version     TEXT NOT NULL,
  root        TEXT NOT NULL,
  pattern     TEXT,
  created_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
  id          INTEGER PRIMARY KEY,
  run_id      INTEGER NOT NULL REFERENCES runs(id),
  rel_path    TEXT NOT NULL,
  role        TEXT NOT NULL,
  exports     INTEGER NOT NULL,
  unresolved  TEXT
);

CREATE TABLE IF NOT EXISTS edges (
  id          INTEGER PRIMARY KEY,
  run_id      INTEGER NOT NULL REFERENCES runs(id),
  from_path   TEXT NOT NULL,
  to_path     TEXT NOT NULL,
  names       TEXT,
  dynamic     BOOLEAN DEFAULT FALSE,
  type_only   BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS cycles (
  id          INTEGER PRIMARY KEY,
  run_id      INTEGER NOT NULL REFERENCES runs(id),
  seq         INTEGER NOT NULL,
  paths       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS unused_exports (
  id          INTEGER PRIMARY KEY,
  run_id      INTEGER NOT NULL REFERENCES runs(id),
  file        TEXT NOT NULL,
  name        TEXT NOT NULL,
  kind        TEXT,
  line        INTEGER,
  col         INTEGER
);

CREATE TABLE IF NOT EXISTS dependency_audit (
  id          INTEGER PRIMARY KEY,
  run_id      INTEGER NOT NULL REFERENCES runs(id),
  category    TEXT NOT NULL,
  package     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS export_flows (
  id          INTEGER PRIMARY KEY,
  run_id      INTEGER NOT NULL REFERENCES runs(id),
  name        TEXT NOT NULL,
  defined_in  TEXT NOT NULL,
  kind        TEXT NOT NULL,
  chain       TEXT,
  public_from TEXT,
  conditions  TEXT
);

CREATE TABLE IF NOT EXISTS layer_violations (
  id          INTEGER PRIMARY KEY,
  run_id      INTEGER NOT NULL REFERENCES runs(id),
  from_path   TEXT NOT NULL,
  to_path     TEXT NOT NULL,
  from_layer  TEXT NOT NULL,
  to_layer    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_run ON files(run_id);
CREATE INDEX IF NOT EXISTS idx_edges_run ON edges(run_id);
`

// Snapshot is one complete analysis result ready to persist.
type Snapshot struct {
	Graph         *graph.Graph
	Cycles        []analysis.Cycle
	UnusedExports []analysis.UnusedExport
	Audit         *analysis.DependencyAudit
	Flows         []analysis.ExportFlow
	Architecture  *analysis.Architecture
}

// SaveRun writes a snapshot as one run inside a single transaction and
// returns the new run ID.
func (s *Store) SaveRun(snap *Snapshot) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("save run: begin: %w", err)
	}
	defer tx.Rollback()

	cfg := snap.Graph.Config
	pattern := ""
	if snap.Architecture != nil {
		pattern = snap.Architecture.Pattern
	}
	res, err := tx.Exec(
		`INSERT INTO runs (package, version, root, pattern, created_at) VALUES (?, ?, ?, ?, ?)`,
		cfg.Name, cfg.Version, snap.Graph.Root, pattern, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("save run: insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save run: run id: %w", err)
	}

	for _, path := range snap.Graph.Paths() {
		node := snap.Graph.Files[path]
		if _, err := tx.Exec(
			`INSERT INTO files (run_id, rel_path, role, exports, unresolved) VALUES (?, ?, ?, ?, ?)`,
			runID, node.RelPath, string(node.Role), len(node.Exports), marshalStrings(node.Unresolved),
		); err != nil {
			return 0, fmt.Errorf("save run: file %q: %w", node.RelPath, err)
		}
		for target, records := range node.Internal {
			for _, rec := range records {
				if _, err := tx.Exec(
					`INSERT INTO edges (run_id, from_path, to_path, names, dynamic, type_only) VALUES (?, ?, ?, ?, ?, ?)`,
					runID, node.RelPath, snap.Graph.Rel(target), marshalStrings(rec.Names), rec.Dynamic, rec.TypeOnly,
				); err != nil {
					return 0, fmt.Errorf("save run: edge %q -> %q: %w", node.RelPath, snap.Graph.Rel(target), err)
				}
			}
		}
	}

	for i, cycle := range snap.Cycles {
		if _, err := tx.Exec(
			`INSERT INTO cycles (run_id, seq, paths) VALUES (?, ?, ?)`,
			runID, i, marshalStrings(cycle),
		); err != nil {
			return 0, fmt.Errorf("save run: cycle %d: %w", i, err)
		}
	}

	for _, u := range snap.UnusedExports {
		if _, err := tx.Exec(
			`INSERT INTO unused_exports (run_id, file, name, kind, line, col) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, u.File, u.Name, string(u.Kind), u.Pos.Line, u.Pos.Col,
		); err != nil {
			return 0, fmt.Errorf("save run: unused export %q: %w", u.Name, err)
		}
	}

	if snap.Audit != nil {
		categories := map[string][]string{
			"used_prod": snap.Audit.UsedProd,
			"used_test": snap.Audit.UsedTest,
			"unused":    snap.Audit.Unused,
			"unlisted":  snap.Audit.Unlisted,
			"misplaced": snap.Audit.Misplaced,
		}
		for category, pkgs := range categories {
			for _, pkg := range pkgs {
				if _, err := tx.Exec(
					`INSERT INTO dependency_audit (run_id, category, package) VALUES (?, ?, ?)`,
					runID, category, pkg,
				); err != nil {
					return 0, fmt.Errorf("save run: audit %s %q: %w", category, pkg, err)
				}
			}
		}
	}

	for _, flow := range snap.Flows {
		if _, err := tx.Exec(
			`INSERT INTO export_flows (run_id, name, defined_in, kind, chain, public_from, conditions) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, flow.Name, flow.DefinedIn, flow.Kind,
			marshalStrings(flow.ReExportChain), marshalStrings(flow.PublicFrom), marshalStrings(flow.Conditions),
		); err != nil {
			return 0, fmt.Errorf("save run: flow %q: %w", flow.Name, err)
		}
	}

	if snap.Architecture != nil {
		for _, v := range snap.Architecture.Violations {
			if _, err := tx.Exec(
				`INSERT INTO layer_violations (run_id, from_path, to_path, from_layer, to_layer) VALUES (?, ?, ?, ?, ?)`,
				runID, v.From, v.To, v.FromLayer, v.ToLayer,
			); err != nil {
				return 0, fmt.Errorf("save run: violation %q -> %q: %w", v.From, v.To, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("save run: commit: %w", err)
	}
	return runID, nil
}

// marshalStrings converts a string slice to JSON text for storage.
func marshalStrings(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(list)
	return string(b)
}

func unmarshalStrings(s string) []string {
	if s == "" || s == "null" || s == "[]" {
		return nil
	}
	var list []string
	_ = json.Unmarshal([]byte(s), &list)
	return list
}
