// Package stages holds the conversion primitives engines compose into their
// pipelines: structural tree copy, the shared posts/pages converter, Jekyll
// configuration and documentation synthesis, the asset audit and the runner
// that executes them in order.
package stages

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/fsutil"
	"git.home.luguber.info/inful/sitemigrator/internal/logfields"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
)

// Runtime carries the optional collaborators of one run. The zero value is
// usable: no observer, no journal, no provenance.
type Runtime struct {
	Logger       *slog.Logger
	Observer     models.Observer
	Checkpointer models.Checkpointer
	// Provenance is looked up for the source tree before stages run.
	Provenance func(sourceDir string) models.Provenance
}

// Execute runs the uniform engine algorithm: optional clean, destination
// creation, a fresh ledger, then the stages in order. A fatal abort returns
// only the error; the partial ledger is handed to the observer's
// OnRunComplete.
func Execute(ctx context.Context, opts models.Options, engine string, defs []models.StageDef, rt Runtime) (*models.Result, error) {
	logger := rt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	obs := rt.Observer
	if obs == nil {
		obs = models.NoopObserver{}
	}

	if opts.Clean && fsutil.Exists(opts.DestDir) {
		if err := fsutil.RemoveTree(opts.DestDir); err != nil {
			return nil, errors.IOError(err, "clean destination").WithPath(opts.DestDir).Build()
		}
	}
	if err := fsutil.EnsureDir(opts.DestDir); err != nil {
		return nil, errors.WriteError(err, "create destination").WithPath(opts.DestDir).Build()
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	res := models.NewResult(engine, runID)
	logger = logger.With(logfields.Engine(engine), logfields.RunID(runID))
	st := models.NewState(opts, res, logger)
	if rt.Provenance != nil {
		st.Provenance = rt.Provenance(opts.SourceDir)
	}

	logger.Info("migration started", logfields.Source(opts.SourceDir), logfields.Dest(opts.DestDir))
	err := RunStages(ctx, st, defs, obs, rt.Checkpointer)
	res.Finish()
	obs.OnRunComplete(res)
	if err != nil {
		logger.Error("migration failed", logfields.Error(err), slog.Int("changes", len(res.Changes)))
		return nil, err
	}
	logger.Info("migration finished",
		slog.Int("changes", len(res.Changes)),
		slog.Int("warnings", len(res.Warnings)),
		slog.Int("errors", len(res.Errors)),
		logfields.DurationMS(float64(res.Duration().Microseconds())/1000))
	return res, nil
}

// Pipeline assembles the canonical stage order. Nil stages are left out;
// the audit (unmigrated files, then asset references) and documentation
// stages are always appended.
type Pipeline struct {
	Config   models.Stage
	Content  models.Stage
	Layouts  models.Stage
	Includes models.Stage
	Data     models.Stage
	Static   models.Stage
}

// Build returns the ordered stage definitions.
func (p Pipeline) Build() []models.StageDef {
	return models.NewPipeline().
		AddIf(p.Config != nil, models.StageConfig, p.Config).
		AddIf(p.Content != nil, models.StageContent, p.Content).
		AddIf(p.Layouts != nil, models.StageLayouts, p.Layouts).
		AddIf(p.Includes != nil, models.StageIncludes, p.Includes).
		AddIf(p.Data != nil, models.StageData, p.Data).
		AddIf(p.Static != nil, models.StageStatic, p.Static).
		Add(models.StageAudit, Sequence(ReportUnmigrated, AuditAssets)).
		Add(models.StageDocumentation, Documentation).
		Build()
}
