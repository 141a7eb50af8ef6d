package graph

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/jward/arbor/internal/parser"
	"github.com/jward/arbor/internal/pkgjson"
)

// alwaysExcluded directories are skipped during discovery regardless of
// configuration.
var alwaysExcluded = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	"out":          true,
	"coverage":     true,
	".next":        true,
	".turbo":       true,
}

// BuildConfig controls discovery and parsing.
type BuildConfig struct {
	// Extensions is the file-extension allow-list. Defaults to
	// parser.DefaultExtensions when empty.
	Extensions []string

	// ExcludeGlobs are matched against project-relative paths.
	ExcludeGlobs []string

	// IncludeTests keeps *.test.*, *.spec.*, and __tests__ files in the
	// graph. They are excluded by default.
	IncludeTests bool

	// Workers bounds the parse worker pool. Defaults to NumCPU.
	Workers int

	// TSConfigPath points at a tsconfig.json whose paths aliases take part
	// in specifier resolution. Empty means root/tsconfig.json if present.
	TSConfigPath string
}

// Build constructs the module graph under root. Phase 1 parses every
// discovered file in parallel; resolution, reverse-edge wiring, and role
// assignment run only after every node exists.
func Build(ctx context.Context, root string, cfg *pkgjson.Config, bc BuildConfig) (*Graph, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	exts := bc.Extensions
	if len(exts) == 0 {
		exts = parser.DefaultExtensions
	}

	g := &Graph{Root: absRoot, Config: cfg, Files: make(map[string]*FileNode)}

	paths, err := discover(absRoot, exts, bc)
	if err != nil {
		return nil, fmt.Errorf("discover sources: %w", err)
	}

	results, skipped := parseAll(ctx, paths, bc.Workers)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.Skipped = skipped

	for _, res := range results {
		g.Files[res.Path] = &FileNode{
			Path:       res.Path,
			RelPath:    g.Rel(res.Path),
			Exports:    res.Exports,
			Internal:   make(map[string][]parser.ImportRecord),
			External:   make(map[string][]parser.ImportRecord),
			ImportedBy: make(map[string]bool),
		}
	}

	// Every node exists now; specifiers resolve against the graph itself so
	// an internal edge can never point at a file the walk excluded.
	tscfg := loadAliases(absRoot, bc.TSConfigPath)
	for _, res := range results {
		node := g.Files[res.Path]
		resolveImports(g, node, res.Imports, exts, tscfg)
	}

	wire(g)
	assignRoles(g, resolveEntryPoints(g, exts))
	return g, nil
}

// discover walks root collecting files that pass the extension allow-list,
// the exclusion globs, and the test filter.
func discover(root string, exts []string, bc BuildConfig) ([]string, error) {
	extSet := make(map[string]bool, len(exts))
	for _, e := range exts {
		extSet[strings.ToLower(e)] = true
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && alwaysExcluded[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !extSet[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !bc.IncludeTests && IsTestPath(rel) {
			return nil
		}
		for _, pattern := range bc.ExcludeGlobs {
			if MatchGlob(pattern, rel) {
				return nil
			}
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// IsTestPath reports whether a slash-separated relative path names a test
// file by convention.
func IsTestPath(rel string) bool {
	base := strings.ToLower(rel[strings.LastIndex(rel, "/")+1:])
	if strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") {
		return true
	}
	return strings.Contains(rel, "__tests__/") || strings.HasPrefix(rel, "test/") || strings.Contains(rel, "/test/")
}

// parseAll fans file parsing out to a bounded worker pool. Workers return
// results on a channel and a single aggregator collects them, so the graph
// map is never written concurrently.
func parseAll(ctx context.Context, paths []string, workers int) ([]*parser.FileResult, []SkippedFile) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}
	if workers == 0 {
		return nil, nil
	}

	type outcome struct {
		result *parser.FileResult
		path   string
		err    error
	}

	jobs := make(chan string)
	outcomes := make(chan outcome)

	var wg sync.WaitGroup
	p := parser.New()
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				content, err := os.ReadFile(path)
				if err == nil {
					var res *parser.FileResult
					res, err = p.ParseFile(ctx, path, content)
					if err == nil {
						outcomes <- outcome{result: res, path: path}
						continue
					}
				}
				outcomes <- outcome{path: path, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range paths {
			select {
			case jobs <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var results []*parser.FileResult
	var skipped []SkippedFile
	for out := range outcomes {
		if out.err != nil {
			skipped = append(skipped, SkippedFile{Path: out.path, Reason: out.err.Error()})
			continue
		}
		results = append(results, out.result)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Path < skipped[j].Path })
	return results, skipped
}

// loadAliases reads the tsconfig paths table when one is configured or a
// root tsconfig.json exists. A malformed file disables aliases rather than
// failing the build.
func loadAliases(root, path string) *TSConfig {
	if path == "" {
		path = filepath.Join(root, "tsconfig.json")
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	ts, err := LoadTSConfig(path)
	if err != nil {
		return nil
	}
	return ts
}

// resolveImports classifies a file's import records into internal (with a
// resolved target), external, or unresolved. Non-relative specifiers run
// through the tsconfig alias table before being treated as external.
func resolveImports(g *Graph, node *FileNode, imports []parser.ImportRecord, exts []string, tscfg *TSConfig) {
	unresolved := make(map[string]bool)
	for _, imp := range imports {
		if !imp.Internal {
			if target, matched := resolveAlias(g, tscfg, imp.Specifier, exts); matched {
				if target == "" {
					if !unresolved[imp.Specifier] {
						unresolved[imp.Specifier] = true
						node.Unresolved = append(node.Unresolved, imp.Specifier)
					}
					continue
				}
				imp.Internal = true
				imp.Package = ""
				imp.ResolvedPath = target
				node.Internal[target] = append(node.Internal[target], imp)
				continue
			}
			node.External[imp.Package] = append(node.External[imp.Package], imp)
			continue
		}
		target := resolveSpecifier(g, filepath.Dir(node.Path), imp.Specifier, exts)
		if target == "" {
			if !unresolved[imp.Specifier] {
				unresolved[imp.Specifier] = true
				node.Unresolved = append(node.Unresolved, imp.Specifier)
			}
			continue
		}
		imp.ResolvedPath = target
		node.Internal[target] = append(node.Internal[target], imp)
	}
	sort.Strings(node.Unresolved)
}

// resolveSpecifier tries the literal path, the path with each extension
// appended, and an index file under the path. First hit in the graph wins.
func resolveSpecifier(g *Graph, fromDir, specifier string, exts []string) string {
	base := specifier
	if strings.HasPrefix(specifier, ".") {
		base = filepath.Join(fromDir, specifier)
	}
	base = filepath.Clean(base)

	for _, candidate := range resolutionCandidates(base, exts) {
		if g.Files[candidate] != nil {
			return candidate
		}
	}
	return ""
}

func resolutionCandidates(base string, exts []string) []string {
	candidates := make([]string, 0, 1+2*len(exts))
	candidates = append(candidates, base)
	for _, ext := range exts {
		candidates = append(candidates, base+ext)
	}
	for _, ext := range exts {
		candidates = append(candidates, filepath.Join(base, "index"+ext))
	}
	return candidates
}

// wire populates every node's ImportedBy set from the internal edges. It
// runs only after all nodes exist, since an edge may point to a file parsed
// later in walk order.
func wire(g *Graph) {
	for path, node := range g.Files {
		for target := range node.Internal {
			if t := g.Files[target]; t != nil {
				t.ImportedBy[path] = true
			}
		}
	}
}

// resolveEntryPoints maps the package config's declared entry points to
// files in the graph, using the same candidate rules as import specifiers.
// With nothing declared, conventional index locations are tried.
func resolveEntryPoints(g *Graph, exts []string) map[string]bool {
	entries := make(map[string]bool)
	g.EntryConditions = make(map[string][]string)
	declared := g.Config.EntryPoints

	for _, entry := range declared {
		base := filepath.Clean(filepath.Join(g.Root, strings.TrimPrefix(entry, "./")))
		for _, candidate := range resolutionCandidates(base, exts) {
			if g.Files[candidate] != nil {
				entries[candidate] = true
				for _, cond := range g.Config.ExportConditions[entry] {
					g.EntryConditions[candidate] = appendUnique(g.EntryConditions[candidate], cond)
				}
				break
			}
		}
	}

	if len(entries) == 0 && len(declared) == 0 {
		for _, fallback := range []string{"index", filepath.Join("src", "index")} {
			base := filepath.Join(g.Root, fallback)
			for _, ext := range exts {
				if g.Files[base+ext] != nil {
					entries[base+ext] = true
				}
			}
		}
	}
	return entries
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
