package metrics

import (
	"fmt"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitemigrator"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	reg           *prom.Registry
	stageDuration *prom.HistogramVec
	runDuration   *prom.HistogramVec
	stageResults  *prom.CounterVec
	runOutcome    *prom.CounterVec
	changes       *prom.CounterVec
	warnings      prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual migration stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.runDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total migration duration",
			Buckets:   prom.DefBuckets,
		}, []string{"engine"})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Migration outcomes by engine and final status",
		}, []string{"engine", "outcome"})
		pr.changes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "changes_total",
			Help:      "Recorded file changes by change type",
		}, []string{"type"})
		pr.warnings = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Warnings recorded during migration",
		})
		reg.MustRegister(pr.stageDuration, pr.runDuration, pr.stageResults, pr.runOutcome, pr.changes, pr.warnings)
	})
	return pr
}

// Registry returns the registry the collectors are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(engine string, d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.WithLabelValues(engine).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(engine string, outcome OutcomeLabel) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(engine, string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddChanges(changeType string, n int) {
	if p == nil || p.changes == nil || n <= 0 {
		return
	}
	p.changes.WithLabelValues(changeType).Add(float64(n))
}

func (p *PrometheusRecorder) AddWarnings(n int) {
	if p == nil || p.warnings == nil || n <= 0 {
		return
	}
	p.warnings.Add(float64(n))
}

// WriteTextfile writes the gathered metrics in the node-exporter textfile
// format. The file is written atomically.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
