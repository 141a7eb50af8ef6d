// Package arbor analyzes a TypeScript/JavaScript project and produces a
// structural understanding of it: which files import which, which exported
// symbols are actually consumed, how symbols travel through re-export
// chains to the package's public surface, whether declared dependencies
// match what is imported, and whether the directory layout respects a
// layered architecture.
//
// # Pipeline
//
// Arbor operates in two strict phases:
//
//  1. Build: read package.json, discover source files, parse each with
//     tree-sitter in a bounded worker pool, resolve import specifiers to
//     files, and wire the bidirectional graph. Reverse edges are derived
//     from forward edges only after every node exists.
//
//  2. Analyze: run cycle detection, export-usage and dependency auditing,
//     export-flow tracing, and architecture classification over the
//     completed, immutable graph. The analyses are independent and run
//     concurrently.
//
// # Usage
//
// Create an Engine and analyze:
//
//	e, err := arbor.New("path/to/project")
//	if err != nil { ... }
//
//	res, err := e.Analyze(context.Background())
//	for _, cycle := range res.Cycles { ... }
//
// Only a missing or invalid package.json aborts a run. A source file that
// fails to parse is excluded and reported in [Graph.Skipped]; an import
// specifier that matches no file lands in the owning node's unresolved
// list; a cyclic re-export chain yields a partial flow rather than an
// error.
//
// # Persistence
//
// Results are plain data. The optional [Store] persists runs to SQLite for
// later reporting; see cmd/arbor for the CLI that wires this together.
package arbor
