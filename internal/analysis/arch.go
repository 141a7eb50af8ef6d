package analysis

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jward/arbor/internal/graph"
)

// Layer is one architectural layer: its glob patterns assign files, its
// allow-list constrains outgoing internal imports.
type Layer struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Patterns    []string `yaml:"patterns" json:"patterns"`
	AllowedDeps []string `yaml:"allowedDependencies" json:"allowedDependencies"`

	// Files holds the project-relative paths assigned to this layer.
	Files []string `yaml:"-" json:"files,omitempty"`
}

// Violation is an internal import whose source layer may not depend on the
// target layer.
type Violation struct {
	From      string `json:"from"`
	To        string `json:"to"`
	FromLayer string `json:"fromLayer"`
	ToLayer   string `json:"toLayer"`
}

// Architecture is the layer analysis result plus the organizational
// pattern heuristic.
type Architecture struct {
	Pattern    string      `json:"pattern"`
	Layers     []Layer     `json:"layers"`
	Violations []Violation `json:"violations,omitempty"`
}

// DefaultLayers is the built-in four-layer ruleset. Order matters: the
// first matching layer claims the file.
func DefaultLayers() []Layer {
	return []Layer{
		{
			Name:        "presentation",
			Description: "UI components, pages, and views",
			Patterns:    []string{"**/components/**", "**/pages/**", "**/views/**", "**/ui/**"},
			AllowedDeps: []string{"domain", "shared"},
		},
		{
			Name:        "domain",
			Description: "Core business models and logic",
			Patterns:    []string{"**/domain/**", "**/models/**", "**/entities/**", "**/core/**"},
			AllowedDeps: []string{"shared"},
		},
		{
			Name:        "infrastructure",
			Description: "Services, APIs, and persistence adapters",
			Patterns:    []string{"**/services/**", "**/api/**", "**/infrastructure/**", "**/repositories/**", "**/db/**"},
			AllowedDeps: []string{"domain", "shared"},
		},
		{
			Name:        "shared",
			Description: "Cross-cutting utilities",
			Patterns:    []string{"**/shared/**", "**/common/**", "**/utils/**", "**/lib/**"},
			AllowedDeps: []string{},
		},
	}
}

// LoadLayers reads an ordered layer ruleset from a YAML file.
func LoadLayers(path string) ([]Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layer rules: %w", err)
	}
	var doc struct {
		Layers []Layer `yaml:"layers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse layer rules %s: %w", path, err)
	}
	if len(doc.Layers) == 0 {
		return nil, fmt.Errorf("layer rules %s: no layers defined", path)
	}
	return doc.Layers, nil
}

// Classify assigns every file to the first layer whose glob matches its
// relative path, then flags internal imports that cross layers against the
// source layer's allow-list. Files matching no layer are omitted from
// layer analysis entirely.
func Classify(g *graph.Graph, layers []Layer) *Architecture {
	arch := &Architecture{Pattern: classifyPattern(g), Layers: make([]Layer, len(layers))}
	copy(arch.Layers, layers)

	assigned := make(map[string]int, len(g.Files)) // abs path -> layer index
	for _, path := range g.Paths() {
		node := g.Files[path]
		for i := range arch.Layers {
			if matchesLayer(&arch.Layers[i], node.RelPath) {
				arch.Layers[i].Files = append(arch.Layers[i].Files, node.RelPath)
				assigned[path] = i
				break
			}
		}
	}

	for _, path := range g.Paths() {
		fromIdx, ok := assigned[path]
		if !ok {
			continue
		}
		from := &arch.Layers[fromIdx]
		for _, target := range sortedEdgeTargets(g.Files[path]) {
			toIdx, ok := assigned[target]
			if !ok || toIdx == fromIdx {
				continue
			}
			to := &arch.Layers[toIdx]
			if !containsString(from.AllowedDeps, to.Name) {
				arch.Violations = append(arch.Violations, Violation{
					From:      g.Files[path].RelPath,
					To:        g.Files[target].RelPath,
					FromLayer: from.Name,
					ToLayer:   to.Name,
				})
			}
		}
	}
	return arch
}

func matchesLayer(layer *Layer, rel string) bool {
	for _, pattern := range layer.Patterns {
		if graph.MatchGlob(pattern, rel) {
			return true
		}
	}
	return false
}

// classifyPattern names the overall organizational pattern from path shape
// alone, independent of layer assignment. Best-effort, never an error.
func classifyPattern(g *graph.Graph) string {
	var rels []string
	for _, path := range g.Paths() {
		rels = append(rels, strings.ToLower(g.Files[path].RelPath))
	}
	if len(rels) == 0 {
		return "unknown"
	}

	var monorepo, featureBased, componentLike, serviceLike bool
	for _, rel := range rels {
		for _, seg := range strings.Split(rel, "/") {
			switch seg {
			case "packages", "apps":
				monorepo = true
			case "features", "modules":
				featureBased = true
			case "components", "pages", "views", "ui":
				componentLike = true
			case "services", "api", "utils", "helpers", "infrastructure":
				serviceLike = true
			}
		}
	}
	switch {
	case monorepo:
		return "monorepo"
	case featureBased:
		return "feature-based"
	case componentLike && serviceLike:
		return "layered"
	}

	sawSrc := false
	for _, rel := range rels {
		if !strings.HasPrefix(rel, "src/") {
			continue
		}
		sawSrc = true
		// src/a/b.ts is three segments, the flat limit.
		if strings.Count(rel, "/") > 2 {
			return "unknown"
		}
	}
	if sawSrc {
		return "flat"
	}
	return "unknown"
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
