package analysis

import (
	"path/filepath"
	"sort"

	"github.com/jward/arbor/internal/graph"
	"github.com/jward/arbor/internal/parser"
)

// ExportFlow describes how one publicly exposed symbol name travels from
// its definition to the package surface. Symbol names are the aggregation
// key: every entry point exposing the same name accumulates into PublicFrom.
type ExportFlow struct {
	Name string `json:"name"`

	// DefinedIn is the project-relative path where the symbol is truly
	// defined, after following every re-export hop.
	DefinedIn string `json:"definedIn"`

	// Kind is the export's shape at the origin: named, default, or
	// namespace when a namespace import supplied it along the way.
	Kind string `json:"kind"`

	// ReExportChain lists the barrel files between definition and entry
	// point, nearest-to-definition last, excluding the entry point itself.
	// Empty when the symbol is defined directly in an entry point.
	ReExportChain []string `json:"reExportChain,omitempty"`

	// PublicFrom lists every entry point that exposes this name.
	PublicFrom []string `json:"publicFrom"`

	// Conditions holds exports-map condition names on the exposing entries.
	Conditions []string `json:"conditions,omitempty"`
}

// TraceExportFlows resolves each export of every entry point (plus any
// extra roots, given relative to the project root) back to its definition.
func TraceExportFlows(g *graph.Graph, extraRoots []string) []ExportFlow {
	roots := g.EntryPoints()
	for _, extra := range extraRoots {
		path := extra
		if !filepath.IsAbs(path) {
			path = filepath.Join(g.Root, filepath.FromSlash(extra))
		}
		if g.Files[path] != nil {
			roots = append(roots, path)
		}
	}
	sort.Strings(roots)

	flows := make(map[string]*ExportFlow)
	var order []string

	for _, root := range roots {
		node := g.Files[root]
		for _, exp := range node.Exports {
			definedIn, chain, namespaced := resolveOrigin(g, root, exp)

			kind := "named"
			switch {
			case exp.Default:
				kind = "default"
			case namespaced:
				kind = "namespace"
			}

			flow := flows[exp.Name]
			if flow == nil {
				flow = &ExportFlow{
					Name:          exp.Name,
					DefinedIn:     g.Rel(definedIn),
					Kind:          kind,
					ReExportChain: chain,
				}
				flows[exp.Name] = flow
				order = append(order, exp.Name)
			}
			flow.PublicFrom = appendUniqueString(flow.PublicFrom, node.RelPath)
			for _, cond := range g.EntryConditions[root] {
				flow.Conditions = appendUniqueString(flow.Conditions, cond)
			}
		}
	}

	sort.Strings(order)
	out := make([]ExportFlow, 0, len(order))
	for _, name := range order {
		sort.Strings(flows[name].PublicFrom)
		sort.Strings(flows[name].Conditions)
		out = append(out, *flows[name])
	}
	return out
}

// resolveOrigin follows a re-export back through the supplying imports. The
// visited set terminates cyclic barrel chains with the partial chain built
// so far.
func resolveOrigin(g *graph.Graph, root string, exp parser.ExportRecord) (string, []string, bool) {
	if !exp.ReExport {
		return root, nil, false
	}
	visited := map[string]bool{root: true}
	target, viaNamespace := supplier(g.Files[root], exp.Name)
	if target == "" {
		return root, nil, false
	}
	definedIn, chain, deeperNS := trace(g, target, exp.Name, visited)
	return definedIn, chain, viaNamespace || deeperNS
}

func trace(g *graph.Graph, path, name string, visited map[string]bool) (string, []string, bool) {
	node := g.Files[path]
	exp := findExport(node, name)
	if exp == nil || !exp.ReExport {
		return path, nil, false
	}
	if visited[path] {
		return path, nil, false // re-export cycle, partial chain
	}
	visited[path] = true

	target, viaNamespace := supplier(node, name)
	if target == "" {
		return path, nil, false
	}
	definedIn, chain, deeperNS := trace(g, target, name, visited)
	return definedIn, append([]string{node.RelPath}, chain...), viaNamespace || deeperNS
}

func findExport(node *graph.FileNode, name string) *parser.ExportRecord {
	for i := range node.Exports {
		if node.Exports[i].Name == name {
			return &node.Exports[i]
		}
	}
	return nil
}

// supplier finds the internal import that provides an identifier: a named
// import matching the name wins; otherwise any namespace import, which
// supplies every name.
func supplier(node *graph.FileNode, name string) (string, bool) {
	var namespaceTarget string
	for _, target := range sortedEdgeTargets(node) {
		for _, rec := range node.Internal[target] {
			for _, pulled := range rec.Names {
				if pulled == name {
					return target, false
				}
				if pulled == parser.NamespaceAll && namespaceTarget == "" {
					namespaceTarget = target
				}
			}
		}
	}
	return namespaceTarget, namespaceTarget != ""
}

func appendUniqueString(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
