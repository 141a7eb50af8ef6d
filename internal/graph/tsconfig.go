package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TSConfig is the subset of tsconfig.json that affects specifier
// resolution: baseUrl and the paths alias table.
type TSConfig struct {
	// BaseURL is the alias resolution base, relative to the tsconfig's
	// directory.
	BaseURL string

	// Paths maps alias patterns (one "*" wildcard allowed) to candidate
	// target patterns.
	Paths map[string][]string

	dir string
}

// LoadTSConfig reads a tsconfig.json. The format is JSONC in practice, so
// comments and trailing commas are stripped before decoding.
func LoadTSConfig(path string) (*TSConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tsconfig: %w", err)
	}
	var raw struct {
		CompilerOptions struct {
			BaseURL string              `json:"baseUrl"`
			Paths   map[string][]string `json:"paths"`
		} `json:"compilerOptions"`
	}
	if err := json.Unmarshal(stripJSONC(data), &raw); err != nil {
		return nil, fmt.Errorf("parse tsconfig %s: %w", path, err)
	}
	return &TSConfig{
		BaseURL: raw.CompilerOptions.BaseURL,
		Paths:   raw.CompilerOptions.Paths,
		dir:     filepath.Dir(path),
	}, nil
}

// resolveAlias maps a non-relative specifier through the paths table.
// matched is true when any pattern applies, even if no file exists, so the
// caller records the specifier as unresolved instead of external.
func resolveAlias(g *Graph, ts *TSConfig, specifier string, exts []string) (string, bool) {
	if ts == nil || len(ts.Paths) == 0 {
		return "", false
	}

	// Exact patterns first, then longest wildcard prefix.
	patterns := make([]string, 0, len(ts.Paths))
	for p := range ts.Paths {
		patterns = append(patterns, p)
	}
	sort.Slice(patterns, func(i, j int) bool {
		wi, wj := strings.Contains(patterns[i], "*"), strings.Contains(patterns[j], "*")
		if wi != wj {
			return !wi
		}
		return len(patterns[i]) > len(patterns[j])
	})

	base := filepath.Join(ts.dir, ts.BaseURL)
	for _, pattern := range patterns {
		captured, ok := matchAlias(pattern, specifier)
		if !ok {
			continue
		}
		for _, target := range ts.Paths[pattern] {
			candidate := filepath.Join(base, strings.Replace(target, "*", captured, 1))
			for _, c := range resolutionCandidates(filepath.Clean(candidate), exts) {
				if g.Files[c] != nil {
					return c, true
				}
			}
		}
		return "", true
	}
	return "", false
}

// matchAlias matches a specifier against a paths pattern with at most one
// "*" and returns the captured wildcard text.
func matchAlias(pattern, specifier string) (string, bool) {
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		return "", pattern == specifier
	}
	prefix, suffix := pattern[:star], pattern[star+1:]
	if !strings.HasPrefix(specifier, prefix) || !strings.HasSuffix(specifier, suffix) {
		return "", false
	}
	if len(specifier) < len(prefix)+len(suffix) {
		return "", false
	}
	return specifier[len(prefix) : len(specifier)-len(suffix)], true
}

// stripJSONC removes // and /* */ comments plus trailing commas while
// respecting string literals.
func stripJSONC(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			if c == '\\' && i+1 < len(data) {
				i++
				out = append(out, data[i])
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			out = append(out, c)
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			for i < len(data) && data[i] != '\n' {
				i++
			}
			if i < len(data) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			i += 2
			for i+1 < len(data) && !(data[i] == '*' && data[i+1] == '/') {
				i++
			}
			i++
		case c == ',':
			// Drop the comma when the next non-space byte closes a scope.
			j := i + 1
			for j < len(data) && (data[j] == ' ' || data[j] == '\t' || data[j] == '\n' || data[j] == '\r') {
				j++
			}
			if j < len(data) && (data[j] == '}' || data[j] == ']') {
				continue
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	return out
}
