package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("content", 150*time.Millisecond)
	pr.ObserveRunDuration("mkdocs", 500*time.Millisecond)
	pr.IncStageResult("content", ResultSuccess)
	pr.IncRunOutcome("mkdocs", OutcomeSuccess)
	pr.AddChanges("converted", 3)
	pr.AddWarnings(2)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 6)
}

func TestPrometheusRecorder_WriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncRunOutcome("zola", OutcomePartial)

	path := filepath.Join(t.TempDir(), "sitemigrator.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `sitemigrator_run_outcomes_total{engine="zola",outcome="partial"} 1`)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	require.NotPanics(t, func() {
		pr.ObserveStageDuration("x", time.Second)
		pr.IncRunOutcome("x", OutcomeFailed)
		pr.AddChanges("copied", 1)
	})
}
