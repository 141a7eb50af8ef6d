package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/arbor/internal/graph"
)

func unusedNames(unused []UnusedExport) []string {
	names := make([]string, 0, len(unused))
	for _, u := range unused {
		names = append(names, u.Name)
	}
	return names
}

func TestFindUnusedExports(t *testing.T) {
	g := buildFixture(t, map[string]string{
		"package.json": `{"name": "demo"}`,
		"lib.ts": `
export function usedFn() {}
export function orphan() {}
`,
		"consumer.ts": `import { usedFn } from './lib';` + "\n" + `usedFn();`,
	}, graph.BuildConfig{})

	unused := FindUnusedExports(g)
	assert.Equal(t, []string{"orphan"}, unusedNames(unused))
	assert.Equal(t, "lib.ts", unused[0].File)
}

func TestFindUnusedExports_NamespaceImportCoversAll(t *testing.T) {
	g := buildFixture(t, map[string]string{
		"package.json": `{"name": "demo"}`,
		"lib.ts": `
export function one() {}
export function two() {}
export default function main() {}
`,
		"consumer.ts": `import * as lib from './lib';` + "\n" + `lib.one();`,
	}, graph.BuildConfig{})

	for _, u := range FindUnusedExports(g) {
		assert.NotEqual(t, "lib.ts", u.File, "namespace import covers %s", u.Name)
	}
}

func TestFindUnusedExports_DefaultUsage(t *testing.T) {
	g := buildFixture(t, map[string]string{
		"package.json": `{"name": "demo"}`,
		"widget.ts":    `export default function widget() {}`,
		"consumer.ts":  `import widget from './widget';` + "\n" + `widget();`,
	}, graph.BuildConfig{})
	assert.Empty(t, FindUnusedExports(g))
}

func TestFindUnusedExports_BarrelAndEntryExempt(t *testing.T) {
	g := buildFixture(t, map[string]string{
		"package.json": `{"name": "demo", "main": "./src/main.ts"}`,
		"src/main.ts":  `export const api = 1;`,
		"src/leaf.ts":  `export const leaf = 1;`,
		"src/index.ts": `export { leaf } from './leaf';`,
	}, graph.BuildConfig{})

	// main.ts is the entry and index.ts a barrel: both are exempt, and the
	// barrel's re-export marks leaf as used.
	names := unusedNames(FindUnusedExports(g))
	assert.NotContains(t, names, "api")
	assert.NotContains(t, names, "leaf")
}

func TestAuditDependencies(t *testing.T) {
	g := buildFixture(t, map[string]string{
		"package.json": `{
			"name": "demo",
			"dependencies": {"react": "^18.0.0", "lodash": "^4.0.0", "left-pad": "^1.0.0"},
			"devDependencies": {"vitest": "^1.0.0"}
		}`,
		"src/app.ts": `
import React from 'react';
import path from 'node:path';
import { nanoid } from 'nanoid';
export const app = 1;
`,
		"src/app.test.ts": `
import { describe } from 'vitest';
import _ from 'lodash';
import { app } from './app';
`,
	}, graph.BuildConfig{IncludeTests: true})

	audit := AuditDependencies(g)

	assert.Contains(t, audit.UsedProd, "react")
	assert.Contains(t, audit.UsedTest, "vitest")
	assert.Contains(t, audit.UsedTest, "lodash")

	// Declared but never imported.
	assert.Equal(t, []string{"left-pad"}, audit.Unused)

	// Imported but undeclared; node:path is a built-in and exempt.
	assert.Equal(t, []string{"nanoid"}, audit.Unlisted)

	// lodash is a production dependency imported only from a test file.
	assert.Equal(t, []string{"lodash"}, audit.Misplaced)
}

func TestAuditDependencies_ProdUsageIsNotMisplaced(t *testing.T) {
	files := map[string]string{
		"package.json":  `{"name": "demo", "dependencies": {"lodash": "^4.0.0"}}`,
		"src/a.ts":      `import _ from 'lodash';` + "\n" + `export const a = 1;`,
		"src/a.test.ts": `import _ from 'lodash';` + "\n" + `import { a } from './a';`,
	}
	g := buildFixture(t, files, graph.BuildConfig{IncludeTests: true})
	assert.Empty(t, AuditDependencies(g).Misplaced)
}

func TestAuditDependencies_DevDeclarationIsNotMisplaced(t *testing.T) {
	g := buildFixture(t, map[string]string{
		"package.json":  `{"name": "demo", "devDependencies": {"vitest": "^1.0.0"}}`,
		"src/a.test.ts": `import { describe } from 'vitest';`,
	}, graph.BuildConfig{IncludeTests: true})

	audit := AuditDependencies(g)
	assert.Empty(t, audit.Misplaced)
	assert.Empty(t, audit.Unlisted)
}

func TestFindUnusedExports_ReExportedSymbolNotUnused(t *testing.T) {
	g := buildFixture(t, map[string]string{
		"package.json": `{"name": "demo", "main": "./src/index.ts"}`,
		"src/user.ts":  `export interface User { name: string }`,
		"src/index.ts": `export { User } from './user';`,
	}, graph.BuildConfig{})

	require.Empty(t, unusedNames(FindUnusedExports(g)))
}
