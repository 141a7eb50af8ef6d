package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchGlob(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		// ** crosses separators.
		{"src/**", "src/a/b/c.ts", true},
		{"src/**", "src/a.ts", true},
		{"**/*.test.ts", "deep/nested/x.test.ts", true},
		{"**/*.test.ts", "x.test.ts", true},
		{"packages/**/src/**", "packages/core/src/index.ts", true},

		// * stays within one segment.
		{"src/*.ts", "src/a.ts", true},
		{"src/*.ts", "src/a/b.ts", false},
		{"src/*", "src/a/b.ts", false},

		// ? matches one non-separator character.
		{"src/?.ts", "src/a.ts", true},
		{"src/?.ts", "src/ab.ts", false},

		// Literal dots are literal, not regex wildcards.
		{"a.ts", "axts", false},
		{"a.ts", "a.ts", true},

		// Case-insensitive.
		{"SRC/**", "src/a.ts", true},

		// No match.
		{"lib/**", "src/a.ts", false},
		{"src/**", "source/a.ts", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MatchGlob(tc.pattern, tc.path),
			"pattern %q path %q", tc.pattern, tc.path)
	}
}

func TestMatchGlob_BackslashPaths(t *testing.T) {
	assert.True(t, MatchGlob("src/**", `src\gen\stub.ts`))
}
