// Package metrics records pipeline stage and outcome metrics.
//
// Components receive a Recorder through injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	p := pipeline.New(cfg, factories).WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// The Prometheus implementation is exposed over HTTP with HTTPHandler when
// the worker is configured with a metrics listen address.
package metrics
