package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
	ResultResumed  ResultLabel = "resumed"
)

// OutcomeLabel is the final status of a run.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomeWarning  OutcomeLabel = "warning"
	OutcomePartial  OutcomeLabel = "partial"
	OutcomeFailed   OutcomeLabel = "failed"
	OutcomeCanceled OutcomeLabel = "canceled"
)

// Recorder defines observability hooks for migration runs.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(engine string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncRunOutcome(engine string, outcome OutcomeLabel)
	AddChanges(changeType string, n int)
	AddWarnings(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(string, time.Duration)   {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncRunOutcome(string, OutcomeLabel)         {}
func (NoopRecorder) AddChanges(string, int)                     {}
func (NoopRecorder) AddWarnings(int)                            {}
