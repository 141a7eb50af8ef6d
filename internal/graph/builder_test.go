package graph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/arbor/internal/pkgjson"
)

// writeProject materializes a file map under a temp dir and returns the
// root plus the loaded package config.
func writeProject(t *testing.T, files map[string]string) (string, *pkgjson.Config) {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	cfg, err := pkgjson.Load(filepath.Join(root, "package.json"))
	require.NoError(t, err)
	return root, cfg
}

func buildProject(t *testing.T, files map[string]string, bc BuildConfig) *Graph {
	t.Helper()
	root, cfg := writeProject(t, files)
	g, err := Build(context.Background(), root, cfg, bc)
	require.NoError(t, err)
	return g
}

func nodeByRel(t *testing.T, g *Graph, rel string) *FileNode {
	t.Helper()
	node := g.Node(filepath.Join(g.Root, filepath.FromSlash(rel)))
	require.NotNil(t, node, "no node for %s", rel)
	return node
}

func TestBuild_ResolutionAndWiring(t *testing.T) {
	g := buildProject(t, map[string]string{
		"package.json":        `{"name": "demo", "main": "./src/index.ts"}`,
		"src/index.ts":        `export { greet } from './greet';`,
		"src/greet.ts":        `import { caps } from './util/strings';` + "\n" + `export function greet(n: string) { return caps(n); }`,
		"src/util/strings":    "", // extensionless file, never picked up
		"src/util/strings.ts": `export function caps(s: string) { return s.toUpperCase(); }`,
	}, BuildConfig{})

	require.Len(t, g.Files, 3)

	index := nodeByRel(t, g, "src/index.ts")
	greet := nodeByRel(t, g, "src/greet.ts")
	strings := nodeByRel(t, g, "src/util/strings.ts")

	// "./greet" resolves by appending an extension.
	require.Contains(t, index.Internal, greet.Path)
	require.Contains(t, greet.Internal, strings.Path)

	// importedBy is the exact inverse of the internal edges.
	assert.True(t, greet.ImportedBy[index.Path])
	assert.True(t, strings.ImportedBy[greet.Path])
	assert.Empty(t, index.ImportedBy)

	for path, node := range g.Files {
		for target := range node.Internal {
			assert.True(t, g.Files[target].ImportedBy[path],
				"%s -> %s missing reverse edge", node.RelPath, g.Rel(target))
		}
	}
}

func TestBuild_ImportedByDerivedOnly(t *testing.T) {
	files := map[string]string{
		"package.json": `{"name": "demo"}`,
		"a.ts":         `import { b } from './b';` + "\n" + `export const a = b;`,
		"b.ts":         `export const b = 1;`,
	}
	g := buildProject(t, files, BuildConfig{})
	assert.True(t, nodeByRel(t, g, "b.ts").ImportedBy[nodeByRel(t, g, "a.ts").Path])

	// Dropping the edge and rebuilding drops the reverse edge.
	files["a.ts"] = `export const a = 1;`
	g = buildProject(t, files, BuildConfig{})
	assert.Empty(t, nodeByRel(t, g, "b.ts").ImportedBy)
}

func TestBuild_IndexResolution(t *testing.T) {
	g := buildProject(t, map[string]string{
		"package.json":      `{"name": "demo"}`,
		"src/app.ts":        `import { api } from './api';` + "\n" + `export const run = () => api();`,
		"src/api/index.ts":  `export { api } from './client';`,
		"src/api/client.ts": `export function api() { return 1; }`,
	}, BuildConfig{})

	app := nodeByRel(t, g, "src/app.ts")
	assert.Contains(t, app.Internal, nodeByRel(t, g, "src/api/index.ts").Path)
}

func TestBuild_UnresolvedAndExternal(t *testing.T) {
	g := buildProject(t, map[string]string{
		"package.json": `{"name": "demo"}`,
		"src/a.ts": `
import missing from './nope';
import { z } from 'zod';
import sub from '@scope/pkg/deep';
export const a = 1;
`,
	}, BuildConfig{})

	a := nodeByRel(t, g, "src/a.ts")
	assert.Equal(t, []string{"./nope"}, a.Unresolved)
	assert.Contains(t, a.External, "zod")
	assert.Contains(t, a.External, "@scope/pkg")
	assert.Empty(t, a.Internal)
}

func TestBuild_TestFilesExcludedByDefault(t *testing.T) {
	files := map[string]string{
		"package.json":         `{"name": "demo"}`,
		"src/math.ts":          `export const add = (a: number, b: number) => a + b;`,
		"src/math.test.ts":     `import { add } from './math';`,
		"__tests__/helpers.ts": `export const h = 1;`,
	}
	g := buildProject(t, files, BuildConfig{})
	require.Len(t, g.Files, 1)

	g = buildProject(t, files, BuildConfig{IncludeTests: true})
	require.Len(t, g.Files, 3)
	assert.Equal(t, RoleTest, nodeByRel(t, g, "src/math.test.ts").Role)
}

func TestBuild_ExcludeGlobs(t *testing.T) {
	g := buildProject(t, map[string]string{
		"package.json":    `{"name": "demo"}`,
		"src/keep.ts":     `export const k = 1;`,
		"src/gen/stub.ts": `export const s = 1;`,
	}, BuildConfig{ExcludeGlobs: []string{"src/gen/**"}})

	require.Len(t, g.Files, 1)
	nodeByRel(t, g, "src/keep.ts")
}

func TestBuild_AlwaysExcludedDirs(t *testing.T) {
	g := buildProject(t, map[string]string{
		"package.json":          `{"name": "demo"}`,
		"src/a.ts":              `export const a = 1;`,
		"node_modules/pkg/x.ts": `export const x = 1;`,
		"dist/a.js":             `export const a = 1;`,
	}, BuildConfig{})
	require.Len(t, g.Files, 1)
}

func TestBuild_ParseFailureExcludesFile(t *testing.T) {
	// An unreadable entry is skipped; the run continues. A dangling symlink
	// passes discovery but fails the read.
	root, cfg := writeProject(t, map[string]string{
		"package.json": `{"name": "demo"}`,
		"src/ok.ts":    `export const ok = 1;`,
	})
	require.NoError(t, os.Symlink(
		filepath.Join(root, "src", "gone.ts"),
		filepath.Join(root, "src", "bad.ts")))

	g, err := Build(context.Background(), root, cfg, BuildConfig{})
	require.NoError(t, err)
	assert.Len(t, g.Files, 1)
	require.Len(t, g.Skipped, 1)
	assert.Contains(t, g.Skipped[0].Path, "bad.ts")
}

func TestRoles(t *testing.T) {
	g := buildProject(t, map[string]string{
		"package.json":              `{"name": "demo", "main": "./src/main.ts"}`,
		"src/main.ts":               `export { User } from './types/user';`,
		"vite.config.ts":            `export default { plugins: [] };`,
		"src/types/user.d.ts":       `export interface User { name: string }`,
		"src/models.ts":             `export interface A {}` + "\n" + `export type B = string;`,
		"src/shared/index.ts":       `export { A, B } from '../models';` + "\n" + `export const VERSION = '1';`,
		"src/utils/format.ts":       `export const fmt = (s: string) => s;`,
		"src/components/Button.tsx": `export function Button() { return null; }`,
		"src/services/user.ts":      `export class UserService {}`,
		"src/misc.ts":               `export class Thing {}`,
	}, BuildConfig{})

	assert.Equal(t, RoleEntry, nodeByRel(t, g, "src/main.ts").Role)
	assert.Equal(t, RoleConfig, nodeByRel(t, g, "vite.config.ts").Role)
	assert.Equal(t, RoleType, nodeByRel(t, g, "src/types/user.d.ts").Role)
	assert.Equal(t, RoleType, nodeByRel(t, g, "src/models.ts").Role)
	assert.Equal(t, RoleBarrel, nodeByRel(t, g, "src/shared/index.ts").Role)
	assert.Equal(t, RoleUtil, nodeByRel(t, g, "src/utils/format.ts").Role)
	assert.Equal(t, RoleComponent, nodeByRel(t, g, "src/components/Button.tsx").Role)
	assert.Equal(t, RoleService, nodeByRel(t, g, "src/services/user.ts").Role)
	assert.Equal(t, RoleUnknown, nodeByRel(t, g, "src/misc.ts").Role)
}

func TestBuild_BarrelNeedsMajorityReExports(t *testing.T) {
	g := buildProject(t, map[string]string{
		"package.json": `{"name": "demo"}`,
		"lib/a.ts":     `export const a = 1;`,
		"lib/index.ts": `export { a } from './a';` + "\n" + `export const b = 2;` + "\n" + `export const c = 3;`,
	}, BuildConfig{})

	// 1 of 3 exports re-exported: not a barrel.
	assert.NotEqual(t, RoleBarrel, nodeByRel(t, g, "lib/index.ts").Role)
}

func TestBuild_EntryFallback(t *testing.T) {
	g := buildProject(t, map[string]string{
		"package.json": `{"name": "demo"}`,
		"src/index.ts": `export const x = 1;`,
	}, BuildConfig{})
	assert.Equal(t, RoleEntry, nodeByRel(t, g, "src/index.ts").Role)
}
