package analysis

import (
	"sort"

	"github.com/jward/arbor/internal/graph"
	"github.com/jward/arbor/internal/parser"
)

// UnusedExport is an exported symbol nothing in the graph imports.
type UnusedExport struct {
	File string            `json:"file"` // project-relative
	Name string            `json:"name"`
	Kind parser.ExportKind `json:"kind"`
	Pos  parser.Position   `json:"pos"`
}

// FindUnusedExports reports exports of non-barrel, non-entry files whose
// names are never pulled by any import. A namespace import statically
// reaches every export of its target, so it marks all of them used.
func FindUnusedExports(g *graph.Graph) []UnusedExport {
	usedNames := make(map[string]map[string]bool, len(g.Files))
	defaultUsed := make(map[string]bool)
	mark := func(target, name string) {
		set := usedNames[target]
		if set == nil {
			set = make(map[string]bool)
			usedNames[target] = set
		}
		set[name] = true
	}

	for _, node := range g.Files {
		for target, records := range node.Internal {
			for _, rec := range records {
				for _, name := range rec.Names {
					switch name {
					case parser.NamespaceAll:
						for _, exp := range g.Files[target].Exports {
							mark(target, exp.Name)
							if exp.Default {
								defaultUsed[target] = true
							}
						}
					case parser.DefaultName:
						mark(target, name)
						defaultUsed[target] = true
					default:
						mark(target, name)
					}
				}
			}
		}
	}

	var unused []UnusedExport
	for _, path := range g.Paths() {
		node := g.Files[path]
		if node.Role == graph.RoleBarrel || node.Role == graph.RoleEntry {
			continue
		}
		for _, exp := range node.Exports {
			if exp.ReExport {
				continue
			}
			if exp.Default {
				if defaultUsed[path] {
					continue
				}
			} else if usedNames[path][exp.Name] {
				continue
			}
			unused = append(unused, UnusedExport{
				File: node.RelPath, Name: exp.Name, Kind: exp.Kind, Pos: exp.Pos,
			})
		}
	}
	return unused
}

// DependencyAudit compares declared dependencies against what source files
// actually import.
type DependencyAudit struct {
	// UsedProd and UsedTest split used packages by the importing file's
	// context: test- and config-classified importers count as test context.
	UsedProd []string `json:"usedProd,omitempty"`
	UsedTest []string `json:"usedTest,omitempty"`

	// Unused lists declared dependencies never imported anywhere.
	Unused []string `json:"unused,omitempty"`

	// Unlisted lists imported packages absent from every declared list and
	// not a Node.js built-in.
	Unlisted []string `json:"unlisted,omitempty"`

	// Misplaced lists production dependencies imported only from test- or
	// config-classified files. A package with at least one production-file
	// importer counts as correctly placed.
	Misplaced []string `json:"misplaced,omitempty"`
}

// AuditDependencies computes the declared-versus-used dependency audit.
func AuditDependencies(g *graph.Graph) *DependencyAudit {
	prodUse := make(map[string]bool)
	testUse := make(map[string]bool)

	for _, node := range g.Files {
		testContext := node.Role == graph.RoleTest || node.Role == graph.RoleConfig
		for pkg := range node.External {
			if testContext {
				testUse[pkg] = true
			} else {
				prodUse[pkg] = true
			}
		}
	}

	cfg := g.Config
	declared := make(map[string]bool)
	for _, list := range [][]string{cfg.Dependencies, cfg.DevDependencies, cfg.PeerDependencies} {
		for _, pkg := range list {
			declared[pkg] = true
		}
	}

	audit := &DependencyAudit{}
	audit.UsedProd = sortedSet(prodUse)
	audit.UsedTest = sortedSet(testUse)

	for pkg := range declared {
		if !prodUse[pkg] && !testUse[pkg] {
			audit.Unused = append(audit.Unused, pkg)
		}
	}

	imported := make(map[string]bool, len(prodUse)+len(testUse))
	for pkg := range prodUse {
		imported[pkg] = true
	}
	for pkg := range testUse {
		imported[pkg] = true
	}
	for pkg := range imported {
		if !declared[pkg] && !IsBuiltin(pkg) {
			audit.Unlisted = append(audit.Unlisted, pkg)
		}
	}

	for _, pkg := range cfg.Dependencies {
		if testUse[pkg] && !prodUse[pkg] {
			audit.Misplaced = append(audit.Misplaced, pkg)
		}
	}

	sort.Strings(audit.Unused)
	sort.Strings(audit.Unlisted)
	sort.Strings(audit.Misplaced)
	return audit
}

func sortedSet(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
