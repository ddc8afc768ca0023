package commands

import (
	"bytes"
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitemigrator/internal/config"
	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
	"git.home.luguber.info/inful/sitemigrator/internal/notify"
)

// run parses args like main does and executes the selected command.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cli := &CLI{}
	parser, err := kong.New(cli, Options()...)
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)

	var out bytes.Buffer
	g := NewGlobal(context.Background())
	g.Out = &out
	err = kctx.Run(g, cli)
	return out.String(), err
}

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func mkdocs(t *testing.T) string {
	return writeSite(t, map[string]string{
		"mkdocs.yml":    "site_name: Foo\nsite_description: Bar\n",
		"docs/index.md": "# Home\n",
	})
}

func TestMigrate_WritesSiteAndReports(t *testing.T) {
	src := mkdocs(t)
	work := t.TempDir()
	dest := filepath.Join(work, "site")
	report := filepath.Join(work, "report.json")
	metricsFile := filepath.Join(work, "metrics.prom")
	journalPath := filepath.Join(work, "state", "journal.db")

	out, err := run(t, "migrate", src, dest,
		"--json-report", report, "--metrics-file", metricsFile, "--journal", journalPath)
	require.NoError(t, err)

	assert.Contains(t, out, "MkDocs migration")
	assert.Contains(t, out, "created")
	assert.FileExists(t, filepath.Join(dest, "_config.yml"))
	assert.FileExists(t, journalPath)

	var rep struct {
		Summary models.Summary `json:"summary"`
		Result  models.Result  `json:"result"`
	}
	data, err := os.ReadFile(report)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, "MkDocs", rep.Summary.Engine)
	assert.Equal(t, rep.Summary.Changes, len(rep.Result.Changes))
	assert.Empty(t, rep.Summary.Failure)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "sitemigrator_run_outcomes_total")
}

func TestMigrate_FatalAbortWritesOnlyTheJSONReport(t *testing.T) {
	src := writeSite(t, map[string]string{
		"mkdocs.yml":    "site_name: Foo\n",
		"docs/index.md": "# Home\n",
		"docs/bad.md":   "---\nkey: [unclosed\n---\nbody\n",
	})
	work := t.TempDir()
	report := filepath.Join(work, "report.json")

	out, err := run(t, "migrate", src, filepath.Join(work, "site"), "--json-report", report)
	require.Error(t, err)
	assert.Equal(t, errors.ExitMigration, ExitCode(err, false))
	assert.NotContains(t, out, "MkDocs migration")

	var rep struct {
		Summary models.Summary `json:"summary"`
	}
	data, err := os.ReadFile(report)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.NotEmpty(t, rep.Summary.Failure)
	assert.Equal(t, "failed", rep.Summary.Outcome)
}

func TestMigrate_IsTheDefaultCommand(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "site")
	_, err := run(t, mkdocs(t), dest)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dest, "MIGRATION.md"))
}

func TestMigrate_UsesConfigFile(t *testing.T) {
	src := mkdocs(t)
	work := t.TempDir()
	dest := filepath.Join(work, "from-config")
	cfg := filepath.Join(work, "sitemigrator.yaml")
	body := fmt.Sprintf("version: \"1.0\"\nmigration:\n  source: %q\n  dest: %q\n  clean: true\n", src, dest)
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0o644))
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "stale.txt"), []byte("old"), 0o644))

	_, err := run(t, "--config", cfg, "migrate")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dest, "_config.yml"))
	assert.NoFileExists(t, filepath.Join(dest, "stale.txt"), "clean from the config file applies")
}

func TestMigrate_ResumeWithCleanIsUsageError(t *testing.T) {
	work := t.TempDir()
	_, err := run(t, "migrate", mkdocs(t), filepath.Join(work, "site"),
		"--resume", "--clean", "--journal", filepath.Join(work, "j.db"))
	require.Error(t, err)
	assert.Equal(t, errors.ExitUsage, ExitCode(err, false))
}

func TestMigrate_UnrecognizedSource(t *testing.T) {
	src := writeSite(t, map[string]string{"notes.txt": "plain"})
	_, err := run(t, "migrate", src, filepath.Join(t.TempDir(), "site"))
	require.Error(t, err)
	assert.Equal(t, errors.ExitUnrecognized, ExitCode(err, false))
}

func TestDetect(t *testing.T) {
	out, err := run(t, "detect", mkdocs(t))
	require.NoError(t, err)
	assert.Contains(t, out, "MkDocs: ")

	_, err = run(t, "detect", writeSite(t, map[string]string{"a.txt": "x"}))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryDetection))
}

func TestDetect_StrictRejectsAmbiguity(t *testing.T) {
	src := writeSite(t, map[string]string{
		"Gemfile":                    "source 'https://rubygems.org'\ngem 'middleman'\n",
		"config.rb":                  "set :css_dir, 'stylesheets'\n",
		"source/index.html.md":       "---\ntitle: API\n---\n",
		"source/includes/_errors.md": "# Errors\n",
	})

	out, err := run(t, "detect", src)
	require.NoError(t, err)
	assert.Contains(t, out, "Slate: ")
	assert.Contains(t, out, "also matches Middleman")

	_, err = run(t, "detect", "--strict", src)
	require.Error(t, err)
	assert.Equal(t, errors.ExitUnrecognized, ExitCode(err, false))
}

func TestEngines_ListsAll(t *testing.T) {
	out, err := run(t, "engines")
	require.NoError(t, err)
	for _, name := range []string{"Slate", "Middleman", "Octopress", "Bridgetown", "Jigsaw", "Nanoc", "Nikola", "MkDocs", "Metalsmith", "Eleventy", "Gatsby", "Zola"} {
		assert.Contains(t, out, name)
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "init", "--output", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote configuration")
	assert.FileExists(t, filepath.Join(dir, "sitemigrator.yaml"))

	_, err = run(t, "init", "--output", dir)
	require.Error(t, err)
	assert.Equal(t, errors.ExitUsage, ExitCode(err, false))

	_, err = run(t, "init", "--output", dir, "--force")
	require.NoError(t, err)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, errors.ExitOK, ExitCode(nil, false))
	assert.Equal(t, errors.ExitPartial, ExitCode(&PartialError{Failures: 2}, false))
	assert.Equal(t, errors.ExitInterrupted, ExitCode(models.NewCanceledStageError(models.StageContent, context.Canceled), false))
	assert.Equal(t, errors.ExitConfig, ExitCode(errors.ConfigError("bad").Build(), false))
	assert.Equal(t, errors.ExitMigration, ExitCode(models.NewFatalStageError(models.StageContent, errors.IOError(stdErrors.New("eio"), "read").Build()), false))
	assert.Equal(t, errors.ExitGeneral, ExitCode(stdErrors.New("boom"), false))
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	Report(&buf, &PartialError{Failures: 1}, false)
	assert.Equal(t, "Warning: migration finished with 1 per-file errors\n", buf.String())

	buf.Reset()
	Report(&buf, errors.ValidationError("source directory is required").Build(), false)
	assert.Contains(t, buf.String(), "Error: source directory is required")

	buf.Reset()
	Report(&buf, nil, false)
	assert.Empty(t, buf.String())
}

func TestRenderResult(t *testing.T) {
	res := models.NewResult("Zola", "run-7")
	res.AddChange(models.Change{FilePath: "_config.yml", Type: models.ChangeCreated})
	res.AddWarning("config.toml: unsupported key")
	res.AddError("content/bad.md: permission denied")
	res.Finish()

	var buf bytes.Buffer
	require.NoError(t, RenderResult(&buf, res))
	out := buf.String()
	assert.Contains(t, out, "Zola migration partial (run run-7")
	assert.Contains(t, out, "warning: config.toml: unsupported key")
	assert.Contains(t, out, "error: content/bad.md: permission denied")
}

func TestMigrateCmd_MergeFlagsWin(t *testing.T) {
	m := &MigrateCmd{Dest: "from-flag", NATSSubject: notify.DefaultSubject, NATSRetries: defaultNATSRetries}
	cfg := config.Default()
	cfg.Migration = config.MigrationConfig{Source: "from-file", Dest: "file-dest", KeepGoing: true}
	cfg.Notify = config.NotifyConfig{NATSURL: "nats://localhost:4222", Subject: "site.runs", Retries: 5}
	m.merge(cfg)

	assert.Equal(t, "from-file", m.Source)
	assert.Equal(t, "from-flag", m.Dest)
	assert.Equal(t, "nats://localhost:4222", m.NATSURL)
	assert.Equal(t, "site.runs", m.NATSSubject)
	assert.Equal(t, 5, m.NATSRetries)
	assert.True(t, m.KeepGoing)
	assert.False(t, m.Clean)
}
