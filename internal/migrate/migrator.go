// Package migrate is the entry point of a migration: it validates the
// request, selects an engine, wires the journal, metrics, provenance and
// notification collaborators, and runs the engine.
package migrate

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitemigrator/internal/config"
	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/fsutil"
	"git.home.luguber.info/inful/sitemigrator/internal/journal"
	"git.home.luguber.info/inful/sitemigrator/internal/logfields"
	"git.home.luguber.info/inful/sitemigrator/internal/metrics"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/engines"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/stages"
)

// Request is one migration invocation.
type Request struct {
	Options models.Options
	// Engine forces an engine by name and skips detection.
	Engine string
}

// Notifier is told about every run that reached an engine.
type Notifier interface {
	Notify(ctx context.Context, opts models.Options, res *models.Result, runErr error) error
}

// Migrator runs migrations. The zero collaborators are all optional.
type Migrator struct {
	registry   *engines.Registry
	logger     *slog.Logger
	recorder   metrics.Recorder
	journal    *journal.Store
	notifier   Notifier
	provenance func(sourceDir string) models.Provenance
	observers  []models.Observer
}

// NewMigrator creates a Migrator over reg. A nil reg uses the default
// engine registry.
func NewMigrator(reg *engines.Registry) *Migrator {
	if reg == nil {
		reg = engines.NewRegistry()
	}
	return &Migrator{
		registry: reg,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
}

// WithLogger sets the logger passed down to stages.
func (m *Migrator) WithLogger(l *slog.Logger) *Migrator {
	if l != nil {
		m.logger = l
	}
	return m
}

// WithRecorder records stage and run metrics.
func (m *Migrator) WithRecorder(r metrics.Recorder) *Migrator {
	if r != nil {
		m.recorder = r
	}
	return m
}

// WithJournal checkpoints every completed stage and enables resume.
func (m *Migrator) WithJournal(s *journal.Store) *Migrator {
	m.journal = s
	return m
}

// WithNotifier publishes a summary after every run.
func (m *Migrator) WithNotifier(n Notifier) *Migrator {
	m.notifier = n
	return m
}

// WithProvenance looks up where the source tree came from.
func (m *Migrator) WithProvenance(fn func(sourceDir string) models.Provenance) *Migrator {
	m.provenance = fn
	return m
}

// WithObserver adds a stage observer.
func (m *Migrator) WithObserver(o models.Observer) *Migrator {
	if o != nil {
		m.observers = append(m.observers, o)
	}
	return m
}

// Registry exposes the engines the Migrator selects from.
func (m *Migrator) Registry() *engines.Registry { return m.registry }

// Detect selects the engine for sourceDir. matches lists every engine whose
// detector fired; the first one wins.
func (m *Migrator) Detect(sourceDir string) (selected engines.Engine, matches []engines.Engine, err error) {
	if !fsutil.IsDir(sourceDir) {
		return nil, nil, errors.ValidationError("source directory does not exist").WithPath(sourceDir).Build()
	}
	matches = m.registry.Matches(sourceDir)
	if len(matches) == 0 {
		return nil, nil, errors.DetectionError("no migration engine recognizes the source directory").WithPath(sourceDir).Build()
	}
	return matches[0], matches, nil
}

// Run validates req, selects the engine and migrates. A failed run returns
// only the error; its partial ledger still reaches the observers, the journal
// and the notifier.
func (m *Migrator) Run(ctx context.Context, req Request) (*models.Result, error) {
	opts := req.Options
	if err := m.validate(opts); err != nil {
		return nil, err
	}

	eng, err := m.selectEngine(opts.SourceDir, req.Engine)
	if err != nil {
		return nil, err
	}
	logger := m.logger.With(logfields.Engine(eng.Name()))

	ledger := &ledgerCapture{}
	rt := stages.Runtime{Logger: m.logger, Provenance: m.provenance}
	obs := models.MultiObserver{models.RecorderObserver{Recorder: m.recorder}, ledger}
	rt.Observer = append(obs, m.observers...)

	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if m.journal != nil {
		if opts, err = m.prepareJournal(ctx, logger, eng.Name(), opts); err != nil {
			return nil, err
		}
		rt.Checkpointer = m.journal.Checkpointer(opts.RunID)
	}

	var res *models.Result
	if re, ok := eng.(engines.RuntimeEngine); ok {
		res, err = re.MigrateWith(ctx, opts, rt)
	} else {
		res, err = eng.Migrate(ctx, opts)
	}

	// Bookkeeping must survive a canceled run.
	after := context.WithoutCancel(ctx)
	final := res
	if final == nil {
		final = ledger.res
	}
	if final == nil {
		final = models.NewResult(eng.Name(), opts.RunID)
		final.StageResults[models.StagePrepare] = models.StageResultFatal
		if stdErrors.Is(err, context.Canceled) {
			final.StageResults[models.StagePrepare] = models.StageResultCanceled
		}
		final.Finish()
		rt.Observer.OnRunComplete(final)
	}
	if m.journal != nil {
		if jerr := m.journal.FinishRun(after, opts.RunID, final.Outcome()); jerr != nil {
			logger.Warn("journal update failed", logfields.RunID(opts.RunID), logfields.Error(jerr))
		}
	}
	if m.notifier != nil {
		if nerr := m.notifier.Notify(after, opts, final, err); nerr != nil {
			logger.Warn("run notification failed", logfields.RunID(final.RunID), logfields.Error(nerr))
		}
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ledgerCapture keeps the ledger of the run it observes, including the
// partial ledger of a failed run.
type ledgerCapture struct {
	models.NoopObserver
	res *models.Result
}

func (l *ledgerCapture) OnRunComplete(res *models.Result) { l.res = res }

func (m *Migrator) validate(opts models.Options) error {
	if opts.SourceDir == "" {
		return errors.ValidationError("source directory is required").Build()
	}
	if opts.DestDir == "" {
		return errors.ValidationError("destination directory is required").Build()
	}
	if !fsutil.IsDir(opts.SourceDir) {
		return errors.ValidationError("source directory does not exist").WithPath(opts.SourceDir).Build()
	}
	if opts.Resume && opts.Clean {
		return errors.ValidationError("resume cannot be combined with clean").Build()
	}
	if opts.Resume && m.journal == nil {
		return errors.ValidationError("resume requires a journal").Build()
	}
	return config.ValidatePaths(opts.SourceDir, opts.DestDir, opts.Clean)
}

func (m *Migrator) selectEngine(sourceDir, forced string) (engines.Engine, error) {
	if forced != "" {
		eng, ok := m.registry.Lookup(forced)
		if !ok {
			return nil, errors.ValidationError("unknown engine").WithContext("engine", forced).Build()
		}
		return eng, nil
	}
	eng, matches, err := m.Detect(sourceDir)
	if err != nil {
		return nil, err
	}
	if len(matches) > 1 {
		names := make([]string, 0, len(matches))
		for _, e := range matches {
			names = append(names, e.Name())
		}
		m.logger.Warn("several engines match the source directory; using the first",
			logfields.Engine(eng.Name()), slog.Any("matches", names))
	}
	return eng, nil
}

// prepareJournal swaps in the ID of a resumable run when asked and records
// the run start.
func (m *Migrator) prepareJournal(ctx context.Context, logger *slog.Logger, engine string, opts models.Options) (models.Options, error) {
	src, _ := filepath.Abs(opts.SourceDir)
	dst, _ := filepath.Abs(opts.DestDir)
	if opts.Resume {
		id, ok, err := m.journal.Resumable(ctx, engine, src, dst)
		if err != nil {
			return opts, err
		}
		if ok {
			opts.RunID = id
			logger.Info("resuming previous run", logfields.RunID(id))
		} else {
			logger.Info("no unfinished run to resume; starting fresh")
		}
	}
	if err := m.journal.StartRun(ctx, journal.Run{ID: opts.RunID, Engine: engine, Source: src, Dest: dst}); err != nil {
		return opts, err
	}
	return opts, nil
}
