package graph

import (
	"path/filepath"
	"strings"

	"github.com/jward/arbor/internal/parser"
)

// assignRoles classifies every file. An entry-point match wins outright;
// the remaining heuristics run in a fixed order so the first matching rule
// decides.
func assignRoles(g *Graph, entries map[string]bool) {
	for path, node := range g.Files {
		switch {
		case entries[path]:
			node.Role = RoleEntry
		case isConfigPath(node.RelPath):
			node.Role = RoleConfig
		case IsTestPath(node.RelPath):
			node.Role = RoleTest
		case isTypePath(node):
			node.Role = RoleType
		case isBarrel(node):
			node.Role = RoleBarrel
		case isUtilPath(node.RelPath):
			node.Role = RoleUtil
		case isComponentPath(node.RelPath):
			node.Role = RoleComponent
		case isServicePath(node.RelPath):
			node.Role = RoleService
		default:
			node.Role = RoleUnknown
		}
	}
}

func baseName(rel string) string {
	return strings.ToLower(rel[strings.LastIndex(rel, "/")+1:])
}

func isConfigPath(rel string) bool {
	base := baseName(rel)
	return strings.Contains(base, ".config.") || strings.HasPrefix(base, ".") || strings.Contains(base, "rc.")
}

func isTypePath(node *FileNode) bool {
	base := baseName(node.RelPath)
	if strings.HasSuffix(base, ".d.ts") || hasSegment(node.RelPath, "types") {
		return true
	}
	if len(node.Exports) == 0 {
		return false
	}
	for _, exp := range node.Exports {
		if exp.Kind != parser.KindInterface && exp.Kind != parser.KindType {
			return false
		}
	}
	return true
}

// isBarrel: an index file whose re-exported symbols exceed half its total
// exports.
func isBarrel(node *FileNode) bool {
	base := baseName(node.RelPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem != "index" || len(node.Exports) == 0 {
		return false
	}
	reExports := 0
	for _, exp := range node.Exports {
		if exp.ReExport {
			reExports++
		}
	}
	return reExports*2 > len(node.Exports)
}

func isUtilPath(rel string) bool {
	return hasSegment(rel, "utils") || hasSegment(rel, "helpers") || hasSegment(rel, "lib") ||
		strings.Contains(baseName(rel), "util") || strings.Contains(baseName(rel), "helper")
}

func isComponentPath(rel string) bool {
	ext := strings.ToLower(filepath.Ext(rel))
	return ext == ".tsx" || ext == ".jsx" || hasSegment(rel, "components")
}

func isServicePath(rel string) bool {
	return hasSegment(rel, "services") || strings.Contains(baseName(rel), "service")
}

func hasSegment(rel, segment string) bool {
	for _, s := range strings.Split(strings.ToLower(rel), "/") {
		if s == segment {
			return true
		}
	}
	return false
}
