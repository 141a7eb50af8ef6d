package arbor

import (
	"github.com/jward/arbor/internal/analysis"
	"github.com/jward/arbor/internal/graph"
	"github.com/jward/arbor/internal/parser"
	"github.com/jward/arbor/internal/pkgjson"
	"github.com/jward/arbor/internal/store"
)

// Public type aliases for internal types exposed through the Engine API.
// These are Go type aliases (=) — identical to the internal types at compile
// time, so external consumers never import internal packages.

type PackageConfig = pkgjson.Config
type ConfigError = pkgjson.ConfigError

type Graph = graph.Graph
type FileNode = graph.FileNode
type Role = graph.Role
type SkippedFile = graph.SkippedFile

type ImportRecord = parser.ImportRecord
type ExportRecord = parser.ExportRecord
type ExportKind = parser.ExportKind
type Position = parser.Position

type Cycle = analysis.Cycle
type UnusedExport = analysis.UnusedExport
type DependencyAudit = analysis.DependencyAudit
type ExportFlow = analysis.ExportFlow
type Layer = analysis.Layer
type Violation = analysis.Violation
type Architecture = analysis.Architecture

type Store = store.Store
type Snapshot = store.Snapshot

// DefaultLayers returns the built-in architecture layer ruleset.
func DefaultLayers() []Layer {
	return analysis.DefaultLayers()
}

// LoadLayers reads a layer ruleset from a YAML file.
func LoadLayers(path string) ([]Layer, error) {
	return analysis.LoadLayers(path)
}

// OpenStore opens (and migrates) a run database at dbPath.
func OpenStore(dbPath string) (*Store, error) {
	return store.Open(dbPath)
}
