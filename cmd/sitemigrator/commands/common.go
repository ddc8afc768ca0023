// Package commands implements the sitemigrator command line.
package commands

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitemigrator/internal/config"
	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
)

// Global is shared state bound into every command.
type Global struct {
	Ctx    context.Context
	Out    io.Writer
	Logger *slog.Logger
}

// NewGlobal binds ctx and writes reports to stdout.
func NewGlobal(ctx context.Context) *Global {
	return &Global{Ctx: ctx, Out: os.Stdout, Logger: slog.Default()}
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (sitemigrator.yaml is read when present)" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Migrate MigrateCmd `cmd:"" default:"withargs" help:"Migrate a site to Jekyll"`
	Detect  DetectCmd  `cmd:"" help:"Report which engine recognizes a source directory"`
	Engines EnginesCmd `cmd:"" help:"List the supported source generators"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; sets up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// ConfigPath is the configuration file commands read or write.
func (c *CLI) ConfigPath() string {
	if c.Config != "" {
		return c.Config
	}
	return config.DefaultPath
}

// LoadConfig reads the configuration and applies its logging settings to
// g. A missing default file is not an error.
func (c *CLI) LoadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.LoadOptional(c.ConfigPath(), c.Config != "")
	if err != nil {
		return nil, err
	}
	g.Logger = cfg.Logging.NewLogger(os.Stderr, c.Verbose)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

// PartialError reports a migration that finished but recorded per-file
// failures.
type PartialError struct{ Failures int }

func (e *PartialError) Error() string {
	return fmt.Sprintf("migration finished with %d per-file errors", e.Failures)
}

// ExitCode maps the error returned by a command onto the process exit code.
func ExitCode(err error, verbose bool) int {
	if err == nil {
		return errors.ExitOK
	}
	var partial *PartialError
	if stdErrors.As(err, &partial) {
		return errors.ExitPartial
	}
	if stdErrors.Is(err, context.Canceled) {
		return errors.ExitInterrupted
	}
	return errors.NewCLIErrorAdapter(verbose, slog.Default()).ExitCodeFor(err)
}

// Report prints err the way the CLI adapter formats it.
func Report(w io.Writer, err error, verbose bool) {
	if err == nil {
		return
	}
	var partial *PartialError
	if stdErrors.As(err, &partial) {
		_, _ = fmt.Fprintln(w, "Warning: "+partial.Error())
		return
	}
	_, _ = fmt.Fprintln(w, errors.NewCLIErrorAdapter(verbose, slog.Default()).FormatError(err))
}
