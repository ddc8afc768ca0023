package commands

import (
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitemigrator/internal/config"
	"git.home.luguber.info/inful/sitemigrator/internal/fsutil"
	"git.home.luguber.info/inful/sitemigrator/internal/git"
	"git.home.luguber.info/inful/sitemigrator/internal/journal"
	"git.home.luguber.info/inful/sitemigrator/internal/logfields"
	"git.home.luguber.info/inful/sitemigrator/internal/metrics"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/engines"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
	"git.home.luguber.info/inful/sitemigrator/internal/notify"
	"git.home.luguber.info/inful/sitemigrator/internal/retry"
)

// MigrateCmd implements the 'migrate' command. Flags override the
// configuration file; boolean flags can only switch a setting on.
type MigrateCmd struct {
	Source string `arg:"" optional:"" help:"Source site directory (migration.source)" type:"path"`
	Dest   string `arg:"" optional:"" help:"Destination Jekyll directory (migration.dest)" type:"path"`

	Engine      string `short:"e" help:"Force an engine by name instead of detecting it"`
	Clean       bool   `help:"Remove the destination before migrating"`
	KeepGoing   bool   `name:"keep-going" short:"k" help:"Record per-file failures and continue"`
	Resume      bool   `help:"Resume the last unfinished run for the same source and destination (needs --journal)"`
	Journal     string `help:"SQLite journal of runs and completed stages" type:"path"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics in textfile format" type:"path"`
	JSONReport  string `name:"json-report" help:"Write the full change ledger as JSON" type:"path"`
	NATSURL     string `name:"nats-url" help:"Publish the run summary to this NATS server"`
	NATSSubject string `name:"nats-subject" help:"NATS subject for run summaries" default:"${nats_subject}"`
	NATSRetries int    `name:"nats-retries" help:"Publish retries after the first failure" default:"${nats_retries}"`
}

func (m *MigrateCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	m.merge(cfg)
	logger := g.Logger

	migrator := migrate.NewMigrator(engines.NewRegistry(engines.WithLogger(logger))).
		WithLogger(logger).
		WithProvenance(git.Provenance)

	var recorder *metrics.PrometheusRecorder
	if m.MetricsFile != "" {
		recorder = metrics.NewPrometheusRecorder(prometheus.NewRegistry())
		migrator.WithRecorder(recorder)
	}
	if m.Journal != "" {
		if err := fsutil.EnsureDir(filepath.Dir(m.Journal)); err != nil {
			return err
		}
		store, err := journal.Open(m.Journal)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		migrator.WithJournal(store)
	}
	if m.NATSURL != "" {
		n, err := notify.Connect(m.NATSURL, m.NATSSubject, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := n.Close(); err != nil {
				logger.Warn("flush NATS notifier", logfields.Error(err))
			}
		}()
		migrator.WithNotifier(n.WithRetry(retry.NewPolicy(retry.Linear, 0, 0, m.NATSRetries)))
	}

	partial := &reportCapture{}
	migrator.WithObserver(partial)
	res, runErr := migrator.Run(g.Ctx, migrate.Request{Options: m.options(root), Engine: m.Engine})
	if res != nil {
		if err := RenderResult(g.Out, res); err != nil {
			logger.Warn("render report", logfields.Error(err))
		}
	}
	if rep := partial.res; m.JSONReport != "" && rep != nil {
		if err := WriteJSONReport(m.JSONReport, rep, runErr); err != nil {
			logger.Error("write JSON report", logfields.Path(m.JSONReport), logfields.Error(err))
		}
	}
	if recorder != nil {
		if err := recorder.WriteTextfile(m.MetricsFile); err != nil {
			logger.Error("write metrics", logfields.Path(m.MetricsFile), logfields.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}
	if len(res.Errors) > 0 {
		return &PartialError{Failures: len(res.Errors)}
	}
	return nil
}

// merge fills unset flags from the configuration file.
func (m *MigrateCmd) merge(cfg *config.Config) {
	pick := func(flag *string, fromFile string) {
		if *flag == "" {
			*flag = fromFile
		}
	}
	pick(&m.Source, cfg.Migration.Source)
	pick(&m.Dest, cfg.Migration.Dest)
	pick(&m.Engine, cfg.Migration.Engine)
	pick(&m.Journal, cfg.Journal.Path)
	pick(&m.MetricsFile, cfg.Metrics.Textfile)
	pick(&m.JSONReport, cfg.Report.JSON)
	pick(&m.NATSURL, cfg.Notify.NATSURL)
	if cfg.Notify.Subject != "" && (m.NATSSubject == "" || m.NATSSubject == notify.DefaultSubject) {
		m.NATSSubject = cfg.Notify.Subject
	}
	if cfg.Notify.Retries > 0 && m.NATSRetries == defaultNATSRetries {
		m.NATSRetries = cfg.Notify.Retries
	}
	m.Clean = m.Clean || cfg.Migration.Clean
	m.KeepGoing = m.KeepGoing || cfg.Migration.KeepGoing
}

func (m *MigrateCmd) options(root *CLI) models.Options {
	return models.Options{
		SourceDir: m.Source,
		DestDir:   m.Dest,
		Clean:     m.Clean,
		Verbose:   root.Verbose,
		KeepGoing: m.KeepGoing,
		Resume:    m.Resume,
	}
}

// reportCapture keeps the ledger for the JSON report; a failed run only
// delivers it through the observer.
type reportCapture struct {
	models.NoopObserver
	res *models.Result
}

func (r *reportCapture) OnRunComplete(res *models.Result) { r.res = res }
