// Package metrics records build observations behind the Recorder interface.
//
// Components default to NoopRecorder and accept a real recorder through a
// With* option, so nothing checks for nil. PrometheusRecorder registers its
// collectors on a caller-owned registry, which the CLI either writes to a
// node-exporter textfile after a build or serves on /metrics while watching.
package metrics
