package engines

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
)

func testRegistry() *Registry {
	return NewRegistry(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func fixture(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	writeTree(t, dir, files)
	return dir
}

// migrateFixture selects the engine for files, checks it is want and runs it.
func migrateFixture(t *testing.T, want string, files map[string]string) (*models.Result, string) {
	t.Helper()
	src := fixture(t, files)
	eng, ok := testRegistry().Select(src)
	require.True(t, ok, "no engine detected")
	require.Equal(t, want, eng.Name())
	dest := filepath.Join(t.TempDir(), "site")
	res, err := eng.Migrate(context.Background(), models.Options{SourceDir: src, DestDir: dest})
	require.NoError(t, err)
	return res, dest
}

func readOut(t *testing.T, dest, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func readConfig(t *testing.T, dest string) map[string]any {
	t.Helper()
	cfg := map[string]any{}
	require.NoError(t, yaml.Unmarshal([]byte(readOut(t, dest, "_config.yml")), &cfg))
	return cfg
}

func changePaths(res *models.Result) map[string]models.ChangeType {
	out := make(map[string]models.ChangeType, len(res.Changes))
	for _, c := range res.Changes {
		out[c.FilePath] = c.Type
	}
	return out
}

func stageChanges(res *models.Result, stage models.StageName) []models.Change {
	var out []models.Change
	for _, c := range res.Changes {
		if c.Stage == stage {
			out = append(out, c)
		}
	}
	return out
}
