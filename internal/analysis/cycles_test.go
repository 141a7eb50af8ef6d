package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/arbor/internal/graph"
)

func TestDetectCycles_Triangle(t *testing.T) {
	g := buildFixture(t, map[string]string{
		"package.json": `{"name": "demo"}`,
		"a.ts":         `import { b } from './b';` + "\n" + `export const a = b;`,
		"b.ts":         `import { c } from './c';` + "\n" + `export const b = c;`,
		"c.ts":         `import { a } from './a';` + "\n" + `export const c = a;`,
	}, graph.BuildConfig{})

	cycles := DetectCycles(g)
	require.Len(t, cycles, 1)
	assert.Equal(t, Cycle{"a.ts", "b.ts", "c.ts", "a.ts"}, cycles[0])
}

func TestDetectCycles_SelfImport(t *testing.T) {
	g := buildFixture(t, map[string]string{
		"package.json": `{"name": "demo"}`,
		"self.ts":      `import { x } from './self';` + "\n" + `export const x = 1;`,
	}, graph.BuildConfig{})

	cycles := DetectCycles(g)
	require.Len(t, cycles, 1)
	assert.Equal(t, Cycle{"self.ts", "self.ts"}, cycles[0])
}

func TestDetectCycles_DisconnectedComponents(t *testing.T) {
	// Two cycles in separate weakly-connected components: a single DFS from
	// the first root would miss the second.
	g := buildFixture(t, map[string]string{
		"package.json": `{"name": "demo"}`,
		"one/a.ts":     `import { b } from './b';` + "\n" + `export const a = b;`,
		"one/b.ts":     `import { a } from './a';` + "\n" + `export const b = a;`,
		"two/x.ts":     `import { y } from './y';` + "\n" + `export const x = y;`,
		"two/y.ts":     `import { x } from './x';` + "\n" + `export const y = x;`,
	}, graph.BuildConfig{})

	cycles := DetectCycles(g)
	require.Len(t, cycles, 2)
}

func TestDetectCycles_AcyclicChain(t *testing.T) {
	g := buildFixture(t, map[string]string{
		"package.json": `{"name": "demo"}`,
		"a.ts":         `import { b } from './b';` + "\n" + `export const a = b;`,
		"b.ts":         `import { c } from './c';` + "\n" + `export const b = c;`,
		"c.ts":         `export const c = 1;`,
	}, graph.BuildConfig{})

	assert.Empty(t, DetectCycles(g))
}

func TestDetectCycles_SharedTargetIsNotACycle(t *testing.T) {
	// Diamond: a -> b, a -> c, b -> d, c -> d. Visited-but-off-stack nodes
	// must not be mistaken for back edges.
	g := buildFixture(t, map[string]string{
		"package.json": `{"name": "demo"}`,
		"a.ts":         `import { b } from './b';` + "\n" + `import { c } from './c';` + "\n" + `export const a = b + c;`,
		"b.ts":         `import { d } from './d';` + "\n" + `export const b = d;`,
		"c.ts":         `import { d } from './d';` + "\n" + `export const c = d;`,
		"d.ts":         `export const d = 1;`,
	}, graph.BuildConfig{})

	assert.Empty(t, DetectCycles(g))
}
