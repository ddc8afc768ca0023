package models

import (
	"fmt"
	"time"
)

// Result is the change ledger of one run. It is appended to while stages run
// and read-only once Migrate returns.
type Result struct {
	EngineName     string                      `json:"engine"`
	RunID          string                      `json:"run_id"`
	Changes        []Change                    `json:"changes"`
	Warnings       []string                    `json:"warnings"`
	Errors         []string                    `json:"errors"`
	Start          time.Time                   `json:"start"`
	End            time.Time                   `json:"end"`
	StageDurations map[StageName]time.Duration `json:"stage_durations"`
	StageResults   map[StageName]StageResult   `json:"stage_results"`
	ResumedStages  []StageName                 `json:"resumed_stages,omitempty"`
}

// NewResult starts an empty ledger.
func NewResult(engine, runID string) *Result {
	return &Result{
		EngineName:     engine,
		RunID:          runID,
		Changes:        []Change{},
		Warnings:       []string{},
		Errors:         []string{},
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
		StageResults:   make(map[StageName]StageResult),
	}
}

// AddChange appends one change.
func (r *Result) AddChange(c Change) {
	r.Changes = append(r.Changes, c)
}

// AddWarning appends one warning.
func (r *Result) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// AddError appends one non-fatal per-file failure.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Finish stamps the end time.
func (r *Result) Finish() {
	if r.End.IsZero() {
		r.End = time.Now()
	}
}

// Duration is the wall time of the run so far.
func (r *Result) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

// Counts tallies changes by type.
func (r *Result) Counts() map[ChangeType]int {
	out := make(map[ChangeType]int, len(ChangeTypes))
	for _, c := range r.Changes {
		out[c.Type]++
	}
	return out
}

// Outcome derives the final status label of a finished run.
func (r *Result) Outcome() string {
	for _, res := range r.StageResults {
		if res == StageResultCanceled {
			return "canceled"
		}
	}
	for _, res := range r.StageResults {
		if res == StageResultFatal {
			return "failed"
		}
	}
	switch {
	case len(r.Errors) > 0:
		return "partial"
	case len(r.Warnings) > 0:
		return "warning"
	}
	return "success"
}

// Summary is the compact form of a Result used for notifications and logs.
type Summary struct {
	Engine     string         `json:"engine"`
	RunID      string         `json:"run_id"`
	Outcome    string         `json:"outcome"`
	Changes    int            `json:"changes"`
	ByType     map[string]int `json:"by_type"`
	Warnings   int            `json:"warnings"`
	Errors     int            `json:"errors"`
	DurationMS int64          `json:"duration_ms"`
	Resumed    []string       `json:"resumed,omitempty"`
	Failure    string         `json:"failure,omitempty"`
}

// Summary builds the compact summary of the run.
func (r *Result) Summary() Summary {
	s := Summary{
		Engine:     r.EngineName,
		RunID:      r.RunID,
		Outcome:    r.Outcome(),
		Changes:    len(r.Changes),
		ByType:     make(map[string]int, len(ChangeTypes)),
		Warnings:   len(r.Warnings),
		Errors:     len(r.Errors),
		DurationMS: r.Duration().Milliseconds(),
	}
	for t, n := range r.Counts() {
		s.ByType[string(t)] = n
	}
	for _, st := range r.ResumedStages {
		s.Resumed = append(s.Resumed, string(st))
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%s: %d changes (%d created, %d converted, %d copied, %d skipped), %d warnings, %d errors",
		s.Engine, s.Changes, s.ByType[string(ChangeCreated)], s.ByType[string(ChangeConverted)],
		s.ByType[string(ChangeCopied)], s.ByType[string(ChangeSkipped)], s.Warnings, s.Errors)
}
