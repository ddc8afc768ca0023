package models

import (
	"time"

	"git.home.luguber.info/inful/sitemigrator/internal/metrics"
)

// Observer receives callbacks around stage execution and the run lifecycle.
type Observer interface {
	OnStageStart(stage StageName)
	OnStageComplete(stage StageName, duration time.Duration, result StageResult)
	OnRunComplete(res *Result)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnStageStart(_ StageName)                                    {}
func (NoopObserver) OnStageComplete(_ StageName, _ time.Duration, _ StageResult) {}
func (NoopObserver) OnRunComplete(_ *Result)                                     {}

// RecorderObserver adapts metrics.Recorder into an Observer.
type RecorderObserver struct{ Recorder metrics.Recorder }

func (r RecorderObserver) OnStageStart(_ StageName) {}

func (r RecorderObserver) OnStageComplete(stage StageName, d time.Duration, result StageResult) {
	if r.Recorder == nil {
		return
	}
	if result != StageResultResumed {
		r.Recorder.ObserveStageDuration(string(stage), d)
	}
	r.Recorder.IncStageResult(string(stage), metrics.ResultLabel(result))
}

func (r RecorderObserver) OnRunComplete(res *Result) {
	if r.Recorder == nil || res == nil {
		return
	}
	r.Recorder.ObserveRunDuration(res.EngineName, res.Duration())
	r.Recorder.IncRunOutcome(res.EngineName, metrics.OutcomeLabel(res.Outcome()))
	for t, n := range res.Counts() {
		r.Recorder.AddChanges(string(t), n)
	}
	r.Recorder.AddWarnings(len(res.Warnings))
}

// MultiObserver fans callbacks out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) OnStageStart(stage StageName) {
	for _, o := range m {
		o.OnStageStart(stage)
	}
}

func (m MultiObserver) OnStageComplete(stage StageName, d time.Duration, result StageResult) {
	for _, o := range m {
		o.OnStageComplete(stage, d, result)
	}
}

func (m MultiObserver) OnRunComplete(res *Result) {
	for _, o := range m {
		o.OnRunComplete(res)
	}
}
