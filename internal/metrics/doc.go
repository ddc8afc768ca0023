// Package metrics provides observability hooks for migration runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	rec := metrics.Recorder(metrics.NoopRecorder{})
//	if path != "" {
//	    rec = metrics.NewPrometheusRecorder(reg)
//	}
//
// The Prometheus implementation registers its collectors on a private
// registry that can be written as a node-exporter textfile after the run
// with WriteTextfile.
package metrics
