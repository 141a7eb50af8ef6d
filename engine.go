package arbor

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/jward/arbor/internal/analysis"
	"github.com/jward/arbor/internal/graph"
	"github.com/jward/arbor/internal/pkgjson"
)

// Engine orchestrates one analysis run: package metadata, graph
// construction, and the four derived analyses.
type Engine struct {
	root string
	cfg  *pkgjson.Config

	extensions   []string
	excludeGlobs []string
	includeTests bool
	workers      int
	extraRoots   []string
	layers       []analysis.Layer
	tsconfigPath string
}

// Option configures an Engine.
type Option func(*Engine)

// WithExtensions replaces the default source-extension allow-list.
func WithExtensions(extensions ...string) Option {
	return func(e *Engine) {
		e.extensions = extensions
	}
}

// WithExcludeGlobs skips files whose project-relative path matches any of
// the given glob patterns.
func WithExcludeGlobs(globs ...string) Option {
	return func(e *Engine) {
		e.excludeGlobs = globs
	}
}

// WithTests includes test files in the graph. They are excluded by default.
func WithTests(include bool) Option {
	return func(e *Engine) {
		e.includeTests = include
	}
}

// WithWorkers bounds the parse worker pool. Zero means NumCPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithExtraRoots adds project-relative paths treated as additional entry
// points by export-flow tracing.
func WithExtraRoots(paths ...string) Option {
	return func(e *Engine) {
		e.extraRoots = paths
	}
}

// WithTSConfig points specifier resolution at a specific tsconfig.json for
// its paths aliases. By default root/tsconfig.json is used when present.
func WithTSConfig(path string) Option {
	return func(e *Engine) {
		e.tsconfigPath = path
	}
}

// WithLayers replaces the default architecture layer ruleset.
func WithLayers(layers []analysis.Layer) Option {
	return func(e *Engine) {
		e.layers = layers
	}
}

// New creates an Engine for the project at root. The root package.json is
// read immediately: without it the dependency audit and entry-point
// detection have no fallback, so a missing or invalid file is a
// *pkgjson.ConfigError and no Engine is returned.
func New(root string, opts ...Option) (*Engine, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("arbor: resolve root: %w", err)
	}

	cfg, err := pkgjson.Load(filepath.Join(absRoot, "package.json"))
	if err != nil {
		return nil, err
	}

	e := &Engine{
		root:   absRoot,
		cfg:    cfg,
		layers: analysis.DefaultLayers(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the normalized package configuration.
func (e *Engine) Config() *pkgjson.Config {
	return e.cfg
}

// Result is one complete analysis run as plain data. Rendering and
// persistence are the caller's concern.
type Result struct {
	Package *pkgjson.Config `json:"package"`
	Graph   *graph.Graph    `json:"graph"`

	// EntryPoints lists the project-relative paths classified as entry.
	EntryPoints []string `json:"entryPoints,omitempty"`

	Cycles        []analysis.Cycle          `json:"cycles,omitempty"`
	UnusedExports []analysis.UnusedExport   `json:"unusedExports,omitempty"`
	Audit         *analysis.DependencyAudit `json:"audit"`
	Flows         []analysis.ExportFlow     `json:"flows,omitempty"`
	Architecture  *analysis.Architecture    `json:"architecture"`
}

// Analyze builds the module graph and runs the derived analyses. The graph
// is immutable once built, so the four analyses run concurrently; each is
// internally sequential.
func (e *Engine) Analyze(ctx context.Context) (*Result, error) {
	g, err := graph.Build(ctx, e.root, e.cfg, graph.BuildConfig{
		Extensions:   e.extensions,
		ExcludeGlobs: e.excludeGlobs,
		IncludeTests: e.includeTests,
		Workers:      e.workers,
		TSConfigPath: e.tsconfigPath,
	})
	if err != nil {
		return nil, fmt.Errorf("arbor: build graph: %w", err)
	}

	res := &Result{Package: e.cfg, Graph: g}
	for _, entry := range g.EntryPoints() {
		res.EntryPoints = append(res.EntryPoints, g.Rel(entry))
	}

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		res.Cycles = analysis.DetectCycles(g)
	}()
	go func() {
		defer wg.Done()
		res.UnusedExports = analysis.FindUnusedExports(g)
		res.Audit = analysis.AuditDependencies(g)
	}()
	go func() {
		defer wg.Done()
		res.Flows = analysis.TraceExportFlows(g, e.extraRoots)
	}()
	go func() {
		defer wg.Done()
		res.Architecture = analysis.Classify(g, e.layers)
	}()
	wg.Wait()

	return res, nil
}
