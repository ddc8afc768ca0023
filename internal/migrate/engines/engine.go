// Package engines holds one conversion Engine per supported source generator
// and the Registry that selects among them. Engines are stateless: every
// Migrate call reads the source tree afresh.
package engines

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/sitemigrator/internal/markdown"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/stages"
	"git.home.luguber.info/inful/sitemigrator/internal/plugin"
)

// Engine converts sites produced by one source generator.
type Engine interface {
	Name() string
	Description() string
	// Detect reports whether sourceDir looks like this generator's site.
	// It reads at most a few marker files and never writes.
	Detect(sourceDir string) bool
	// Migrate returns the ledger of a completed run. A fatal abort returns
	// only the error.
	Migrate(ctx context.Context, opts models.Options) (*models.Result, error)
}

// RuntimeEngine is implemented by engines that accept run collaborators
// (observer, journal, provenance).
type RuntimeEngine interface {
	Engine
	MigrateWith(ctx context.Context, opts models.Options, rt stages.Runtime) (*models.Result, error)
}

// env is what engine pipelines may use besides the options.
type env struct {
	plugins  *plugin.Registry
	renderer markdown.Renderer
	logger   *slog.Logger
}

// engine is the shared Engine implementation; variants differ only in their
// detector and stage list.
type engine struct {
	name        string
	description string
	detect      func(dir string) bool
	stages      func(opts models.Options, env env) ([]models.StageDef, error)
	env         env
}

func (e *engine) Name() string                 { return e.name }
func (e *engine) Description() string          { return e.description }
func (e *engine) Detect(sourceDir string) bool { return e.detect(sourceDir) }

func (e *engine) Migrate(ctx context.Context, opts models.Options) (*models.Result, error) {
	return e.MigrateWith(ctx, opts, stages.Runtime{Logger: e.env.logger})
}

func (e *engine) MigrateWith(ctx context.Context, opts models.Options, rt stages.Runtime) (*models.Result, error) {
	defs, err := e.stages(opts, e.env)
	if err != nil {
		return nil, err
	}
	if rt.Logger == nil {
		rt.Logger = e.env.logger
	}
	return stages.Execute(ctx, opts, e.name, defs, rt)
}

// pluginWarnings tries each referenced plugin through the loader registry
// and records why it was not migrated.
func pluginWarnings(ctx context.Context, st *models.State, reg *plugin.Registry, refs []plugin.Ref) {
	for _, ref := range refs {
		if err := reg.Attempt(ctx, ref, nil); err != nil {
			st.Warnf("%s: plugin %q was not migrated (%v); find a Jekyll plugin or include that replaces it", ref.Origin, ref.Name, err)
		}
	}
}
