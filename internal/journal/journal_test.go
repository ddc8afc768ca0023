package journal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCheckpoint_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()
	require.NoError(t, s.StartRun(ctx, Run{ID: "run-1", Engine: "MkDocs", Source: "/src", Dest: "/dst"}))

	cp := s.Checkpointer("run-1")
	changes := []models.Change{
		{FilePath: "_config.yml", Type: models.ChangeCreated, Description: "Jekyll configuration generated", Stage: models.StageConfig},
	}
	require.NoError(t, cp.Checkpoint(ctx, models.StageConfig, changes, []string{"mkdocs.yml: theme"}))

	got, warnings, ok, err := cp.Completed(ctx, models.StageConfig)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, changes, got)
	assert.Equal(t, []string{"mkdocs.yml: theme"}, warnings)

	_, _, ok, err = cp.Completed(ctx, models.StageContent)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, ok, err = s.Checkpointer("run-2").Completed(ctx, models.StageConfig)
	require.NoError(t, err)
	assert.False(t, ok, "checkpoints are scoped to their run")
}

func TestCheckpoint_EmptyStage(t *testing.T) {
	s := openTestStore(t)
	cp := s.Checkpointer("run-1")
	require.NoError(t, cp.Checkpoint(t.Context(), models.StageData, nil, nil))

	changes, warnings, ok, err := cp.Completed(t.Context(), models.StageData)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, changes)
	assert.Empty(t, warnings)
}

func TestCheckpoint_Overwrite(t *testing.T) {
	s := openTestStore(t)
	cp := s.Checkpointer("run-1")
	require.NoError(t, cp.Checkpoint(t.Context(), models.StageStatic, nil, []string{"first"}))
	require.NoError(t, cp.Checkpoint(t.Context(), models.StageStatic, nil, []string{"second"}))

	_, warnings, _, err := cp.Completed(t.Context(), models.StageStatic)
	require.NoError(t, err)
	assert.Equal(t, []string{"second"}, warnings)
}

func TestResumable(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	_, ok, err := s.Resumable(ctx, "Zola", "/src", "/dst")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.StartRun(ctx, Run{ID: "done", Engine: "Zola", Source: "/src", Dest: "/dst"}))
	require.NoError(t, s.FinishRun(ctx, "done", "success"))
	_, ok, err = s.Resumable(ctx, "Zola", "/src", "/dst")
	require.NoError(t, err)
	assert.False(t, ok, "successful runs are not resumed")

	require.NoError(t, s.StartRun(ctx, Run{ID: "failed", Engine: "Zola", Source: "/src", Dest: "/dst"}))
	require.NoError(t, s.FinishRun(ctx, "failed", "failed"))
	require.NoError(t, s.StartRun(ctx, Run{ID: "other-dest", Engine: "Zola", Source: "/src", Dest: "/elsewhere"}))

	id, ok, err := s.Resumable(ctx, "Zola", "/src", "/dst")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "failed", id)

	require.NoError(t, s.StartRun(ctx, Run{ID: "killed", Engine: "Zola", Source: "/src", Dest: "/dst"}))
	id, ok, err = s.Resumable(ctx, "Zola", "/src", "/dst")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "killed", id, "the most recent unfinished run wins")
}

func TestStartRun_ReopensExistingRun(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()
	run := Run{ID: "run-1", Engine: "Nanoc", Source: "/src", Dest: "/dst"}
	require.NoError(t, s.StartRun(ctx, run))
	require.NoError(t, s.FinishRun(ctx, run.ID, "canceled"))
	require.NoError(t, s.StartRun(ctx, run))

	id, ok, err := s.Resumable(ctx, "Nanoc", "/src", "/dst")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "run-1", id)
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.StartRun(t.Context(), Run{ID: "run-1", Engine: "Nikola", Source: "/src", Dest: "/dst"}))
	require.NoError(t, s.Checkpointer("run-1").Checkpoint(t.Context(), models.StageConfig, nil, nil))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	_, _, ok, err := s.Checkpointer("run-1").Completed(t.Context(), models.StageConfig)
	require.NoError(t, err)
	assert.True(t, ok)
}
