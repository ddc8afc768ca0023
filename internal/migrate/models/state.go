package models

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"git.home.luguber.info/inful/sitemigrator/internal/logfields"
)

// Checkpointer persists completed stages so an interrupted run can resume.
type Checkpointer interface {
	// Completed reports the changes and warnings a previous attempt recorded
	// for stage, if that stage finished.
	Completed(ctx context.Context, stage StageName) (changes []Change, warnings []string, ok bool, err error)
	// Checkpoint records a finished stage.
	Checkpoint(ctx context.Context, stage StageName, changes []Change, warnings []string) error
}

// Provenance describes where the source tree came from.
type Provenance struct {
	Commit string
	Branch string
	Remote string
}

// Empty reports whether nothing is known about the source.
func (p Provenance) Empty() bool { return p.Commit == "" }

// State carries the per-run context shared by stages.
type State struct {
	Options    Options
	Result     *Result
	Logger     *slog.Logger
	Provenance Provenance
	// Site holds Jekyll configuration values gathered by the configuration
	// stage for later stages.
	Site map[string]any

	stage   StageName
	claimed map[string]StageName
	// handled holds source paths already accounted for in the ledger;
	// deferred holds those a stage passed over for another stage to migrate.
	handled  map[string]bool
	deferred map[string]bool
}

// NewState builds the state for one run.
func NewState(opts Options, res *Result, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		Options:  opts,
		Result:   res,
		Logger:   logger,
		Site:     map[string]any{},
		claimed:  map[string]StageName{},
		handled:  map[string]bool{},
		deferred: map[string]bool{},
	}
}

// Claim reserves a destination path for the current stage. It returns false
// and the owning stage when an earlier file already wrote that path.
func (s *State) Claim(path string) (StageName, bool) {
	if owner, taken := s.claimed[path]; taken {
		return owner, false
	}
	s.claimed[path] = s.stage
	return s.stage, true
}

// Stage returns the stage currently running.
func (s *State) Stage() StageName { return s.stage }

// SetStage marks name as the current stage.
func (s *State) SetStage(name StageName) { s.stage = name }

// Record appends a change stamped with the current stage.
func (s *State) Record(path string, t ChangeType, desc string) {
	s.RecordChange(Change{FilePath: path, Type: t, Description: desc})
}

// RecordChange appends c, stamping the current stage when unset.
func (s *State) RecordChange(c Change) {
	if c.Stage == "" {
		c.Stage = s.stage
	}
	if c.Source != "" {
		s.MarkHandled(c.Source)
	}
	s.Result.AddChange(c)
	s.Logger.Debug("change", logfields.Stage(string(c.Stage)), logfields.Path(c.FilePath), logfields.ChangeType(string(c.Type)))
}

// Handled reports whether the source path is already accounted for.
func (s *State) Handled(src string) bool { return s.handled[src] }

// MarkHandled records that the source path is accounted for.
func (s *State) MarkHandled(src string) {
	s.handled[src] = true
	delete(s.deferred, src)
}

// Defer notes a source file the current stage leaves to another stage.
func (s *State) Defer(src string) {
	if !s.handled[src] {
		s.deferred[src] = true
	}
}

// Unmigrated returns the deferred source paths no stage accounted for, sorted.
func (s *State) Unmigrated() []string {
	out := make([]string, 0, len(s.deferred))
	for p := range s.deferred {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// WarnFile appends a warning about one source file unless that file is
// already accounted for. The message is prefixed with src.
func (s *State) WarnFile(src, format string, args ...any) {
	if s.handled[src] {
		return
	}
	s.MarkHandled(src)
	s.Warnf("%s: %s", src, fmt.Sprintf(format, args...))
}

// Warnf appends a formatted warning.
func (s *State) Warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.Result.AddWarning(msg)
	s.Logger.Warn(msg, logfields.Stage(string(s.stage)))
}

// Fail handles a per-file failure. With KeepGoing it is recorded in
// Result.Errors and nil is returned; otherwise err is returned unchanged.
func (s *State) Fail(path string, err error) error {
	if err == nil {
		return nil
	}
	if !s.Options.KeepGoing {
		return err
	}
	s.MarkHandled(path)
	s.Result.AddError(fmt.Sprintf("%s: %v", path, err))
	s.Logger.Error("file failed", logfields.Stage(string(s.stage)), logfields.Path(path), logfields.Error(err))
	return nil
}
