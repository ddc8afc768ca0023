package stages

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func newTestState(t *testing.T, files map[string]string, opts models.Options) *models.State {
	t.Helper()
	if opts.SourceDir == "" {
		opts.SourceDir = t.TempDir()
	}
	if opts.DestDir == "" {
		opts.DestDir = t.TempDir()
	}
	writeTree(t, opts.SourceDir, files)
	st := models.NewState(opts, models.NewResult("Test", "run-test"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	return st
}

func readDest(t *testing.T, st *models.State, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(st.Options.DestDir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func changePaths(res *models.Result) map[string]models.ChangeType {
	out := make(map[string]models.ChangeType, len(res.Changes))
	for _, c := range res.Changes {
		out[c.FilePath] = c.Type
	}
	return out
}

func changeFor(t *testing.T, res *models.Result, path string) models.Change {
	t.Helper()
	for _, c := range res.Changes {
		if c.FilePath == path {
			return c
		}
	}
	require.Failf(t, "change not recorded", "no change for %s", path)
	return models.Change{}
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}
