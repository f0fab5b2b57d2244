package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "docsync"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg           *prom.Registry
	fetchDuration *prom.HistogramVec
	sourceResults *prom.CounterVec
	filesCopied   *prom.CounterVec
	runDuration   prom.Histogram
	indexedFiles  prom.Gauge
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		fetchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of clone or update operations per source",
			Buckets:   prom.DefBuckets,
		}, []string{"source", "result"}),
		sourceResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "source_results_total",
			Help:      "Source outcomes by status",
		}, []string{"status"}),
		filesCopied: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_copied_total",
			Help:      "Documentation files copied per source",
		}, []string{"source"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total run duration",
			Buckets:   prom.DefBuckets,
		}),
		indexedFiles: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "indexed_files",
			Help:      "Entries in the index written by the last run",
		}),
	}
	reg.MustRegister(pr.fetchDuration, pr.sourceResults, pr.filesCopied, pr.runDuration, pr.indexedFiles)
	return pr
}

// Registry exposes the registry the collectors live on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveFetchDuration(source string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.fetchDuration.WithLabelValues(source, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncSourceResult(status string) {
	if p == nil {
		return
	}
	p.sourceResults.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) AddFilesCopied(source string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.filesCopied.WithLabelValues(source).Add(float64(n))
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetIndexedFiles(n int) {
	if p == nil {
		return
	}
	p.indexedFiles.Set(float64(n))
}

// WriteTextfile writes the current values in the node-exporter textfile format.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create metrics directory: %w", err)
		}
	}
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
