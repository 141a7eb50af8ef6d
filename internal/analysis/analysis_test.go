package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jward/arbor/internal/graph"
	"github.com/jward/arbor/internal/pkgjson"
)

// buildFixture writes a file map under a temp dir and builds its graph.
func buildFixture(t *testing.T, files map[string]string, bc graph.BuildConfig) *graph.Graph {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	cfg, err := pkgjson.Load(filepath.Join(root, "package.json"))
	require.NoError(t, err)
	g, err := graph.Build(context.Background(), root, cfg, bc)
	require.NoError(t, err)
	return g
}
