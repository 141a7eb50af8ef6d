// Package pkgjson reads a project's package.json and normalizes it into a
// canonical config record: entry points, dependency lists, workspaces, and
// the exports-map condition table used by export-flow analysis.
package pkgjson

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ConfigError indicates the root package.json is missing or unparseable.
// This is fatal to a whole analysis run: dependency auditing and entry-point
// detection have no fallback without it.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("package config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Config is the normalized view of one package.json.
type Config struct {
	Name    string
	Version string

	// EntryPoints is the union of main, module, types/typings, every bin
	// target, and every string target reachable in the exports field.
	// Paths are as written (relative to the package directory).
	EntryPoints []string

	Dependencies     []string
	DevDependencies  []string
	PeerDependencies []string

	// Workspaces holds declared workspace globs, from either the array form
	// or the { "packages": [...] } form.
	Workspaces []string

	Repository string

	// ExportConditions maps each exports-map target path to the condition
	// names that expose it (e.g. "import", "require", "default", "types").
	ExportConditions map[string][]string

	// ExportExclusions collects condition keys written with a leading "!",
	// an explicit "not exported" marker consumed by export-flow analysis.
	ExportExclusions map[string]bool
}

// rawPackage mirrors the subset of package.json fields we consume. Fields
// with multiple accepted shapes are deferred to json.RawMessage.
type rawPackage struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	Main             string            `json:"main"`
	Module           string            `json:"module"`
	Types            string            `json:"types"`
	Typings          string            `json:"typings"`
	Bin              json.RawMessage   `json:"bin"`
	Exports          json.RawMessage   `json:"exports"`
	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
	Workspaces       json.RawMessage   `json:"workspaces"`
	Repository       json.RawMessage   `json:"repository"`
}

// Load reads and normalizes the package.json at path. A missing file or
// invalid JSON returns a *ConfigError; every other field degrades to a
// default rather than failing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	var raw rawPackage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	cfg := &Config{
		Name:             raw.Name,
		Version:          raw.Version,
		Dependencies:     sortedKeys(raw.Dependencies),
		DevDependencies:  sortedKeys(raw.DevDependencies),
		PeerDependencies: sortedKeys(raw.PeerDependencies),
		ExportConditions: make(map[string][]string),
		ExportExclusions: make(map[string]bool),
	}
	if cfg.Name == "" {
		cfg.Name = filepath.Base(filepath.Dir(absOrSelf(path)))
	}
	if cfg.Version == "" {
		cfg.Version = "0.0.0"
	}

	entries := newEntrySet()
	entries.add(raw.Main)
	entries.add(raw.Module)
	entries.add(raw.Types)
	entries.add(raw.Typings)

	for _, target := range binTargets(raw.Bin) {
		entries.add(target)
	}

	if len(raw.Exports) > 0 {
		var exports any
		if err := json.Unmarshal(raw.Exports, &exports); err == nil {
			walkExports(exports, nil, entries, cfg)
		}
	}

	cfg.EntryPoints = entries.ordered
	cfg.Workspaces = workspaceGlobs(raw.Workspaces)
	cfg.Repository = repositoryURL(raw.Repository)
	return cfg, nil
}

// HasDependency reports whether name appears in any declared dependency list.
func (c *Config) HasDependency(name string) bool {
	return contains(c.Dependencies, name) ||
		contains(c.DevDependencies, name) ||
		contains(c.PeerDependencies, name)
}

func contains(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}

// entrySet keeps entry points unique while preserving first-seen order.
type entrySet struct {
	seen    map[string]bool
	ordered []string
}

func newEntrySet() *entrySet {
	return &entrySet{seen: make(map[string]bool)}
}

func (s *entrySet) add(target string) {
	if target == "" || s.seen[target] {
		return
	}
	s.seen[target] = true
	s.ordered = append(s.ordered, target)
}

// binTargets flattens the bin field: either a single string or a map of
// command name to script path.
func binTargets(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}
	}
	var multi map[string]string
	if err := json.Unmarshal(raw, &multi); err == nil {
		targets := make([]string, 0, len(multi))
		for _, name := range sortedKeys(multi) {
			targets = append(targets, multi[name])
		}
		return targets
	}
	return nil
}

// walkExports recursively normalizes the exports field. A string leaf is a
// target under the accumulated conditions (or "default" when none). An array
// takes its first string entry. An object iterates condition keys: null
// values mean explicitly not exported, and keys starting with "!" are
// recorded as exclusions rather than conditions.
func walkExports(node any, conditions []string, entries *entrySet, cfg *Config) {
	switch v := node.(type) {
	case string:
		entries.add(v)
		if len(conditions) == 0 {
			conditions = []string{"default"}
		}
		cfg.ExportConditions[v] = mergeConditions(cfg.ExportConditions[v], conditions)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				walkExports(s, conditions, entries, cfg)
				return
			}
		}
	case map[string]any:
		for _, key := range sortedAnyKeys(v) {
			val := v[key]
			if val == nil {
				continue // explicit "not exported"
			}
			if strings.HasPrefix(key, "!") {
				cfg.ExportExclusions[strings.TrimPrefix(key, "!")] = true
				continue
			}
			// Subpath keys (".", "./sub") scope the walk without becoming
			// conditions; everything else ("import", "types", ...) does.
			next := conditions
			if !strings.HasPrefix(key, ".") {
				next = append(append([]string{}, conditions...), key)
			}
			walkExports(val, next, entries, cfg)
		}
	}
}

func mergeConditions(existing, add []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, c := range existing {
		seen[c] = true
	}
	for _, c := range add {
		if !seen[c] {
			seen[c] = true
			existing = append(existing, c)
		}
	}
	return existing
}

// workspaceGlobs accepts both the array form and the { packages: [...] } form.
func workspaceGlobs(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Packages
	}
	return nil
}

// repositoryURL accepts a plain string or the { "url": ... } object form.
func repositoryURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.URL
	}
	return ""
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedAnyKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func absOrSelf(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
