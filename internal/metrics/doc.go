// Package metrics records run and per-source outcomes.
//
// Components receive a Recorder; NoopRecorder is the default so callers never
// check for nil. The Prometheus implementation registers its collectors on a
// caller-supplied registry and can dump them to a node-exporter textfile after
// each run, since docsync exits between runs and is not scraped directly.
package metrics
