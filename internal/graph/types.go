// Package graph builds the bidirectional module graph: file discovery,
// parallel parsing, specifier resolution, reverse-edge wiring, and
// structural role classification.
package graph

import (
	"path/filepath"
	"sort"

	"github.com/jward/arbor/internal/parser"
	"github.com/jward/arbor/internal/pkgjson"
)

// Role is a file's structural classification.
type Role string

const (
	RoleEntry     Role = "entry"
	RoleConfig    Role = "config"
	RoleTest      Role = "test"
	RoleUtil      Role = "util"
	RoleComponent Role = "component"
	RoleService   Role = "service"
	RoleType      Role = "type"
	RoleBarrel    Role = "barrel"
	RoleUnknown   Role = "unknown"
)

// FileNode is one analyzed source file in the graph.
type FileNode struct {
	// Path is the absolute file path; RelPath is relative to the project
	// root, slash-separated.
	Path    string `json:"path"`
	RelPath string `json:"relPath"`

	Role Role `json:"role"`

	// Internal maps a resolved absolute target path to the import records
	// that reach it. A file may import the same target via several
	// statements.
	Internal map[string][]parser.ImportRecord `json:"internal,omitempty"`

	// External maps a normalized package name to the import records that
	// pull from it.
	External map[string][]parser.ImportRecord `json:"external,omitempty"`

	// Unresolved lists internal specifiers that matched no file.
	Unresolved []string `json:"unresolved,omitempty"`

	Exports []parser.ExportRecord `json:"exports,omitempty"`

	// ImportedBy is the set of absolute paths importing this file. It is
	// derived from Internal edges during wiring and never computed
	// independently.
	ImportedBy map[string]bool `json:"importedBy,omitempty"`
}

// SkippedFile records a source file excluded from the graph by a parse
// failure.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Graph is the completed module graph. It is built once per run and is
// read-only after wiring completes.
type Graph struct {
	Root   string               `json:"root"`
	Config *pkgjson.Config      `json:"config"`
	Files  map[string]*FileNode `json:"files"`

	Skipped []SkippedFile `json:"skipped,omitempty"`

	// EntryConditions maps a resolved entry-point path to the exports-map
	// condition names that expose it ("import", "require", "types", ...).
	EntryConditions map[string][]string `json:"entryConditions,omitempty"`
}

// Node returns the FileNode at the given absolute path, or nil.
func (g *Graph) Node(path string) *FileNode {
	return g.Files[path]
}

// Paths returns every file path in the graph, sorted.
func (g *Graph) Paths() []string {
	paths := make([]string, 0, len(g.Files))
	for p := range g.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// EntryPoints returns the sorted absolute paths of entry-classified files.
func (g *Graph) EntryPoints() []string {
	var entries []string
	for p, node := range g.Files {
		if node.Role == RoleEntry {
			entries = append(entries, p)
		}
	}
	sort.Strings(entries)
	return entries
}

// Rel converts an absolute path to the slash-separated project-relative
// form used in reports.
func (g *Graph) Rel(path string) string {
	rel, err := filepath.Rel(g.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
