package metrics

import "time"

// Recorder defines observability hooks for sync runs.
type Recorder interface {
	ObserveFetchDuration(source string, d time.Duration, success bool)
	IncSourceResult(status string) // status: ok|fetch_failed|copy_failed
	AddFilesCopied(source string, n int)
	ObserveRunDuration(d time.Duration)
	SetIndexedFiles(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveFetchDuration(string, time.Duration, bool) {}
func (NoopRecorder) IncSourceResult(string)                           {}
func (NoopRecorder) AddFilesCopied(string, int)                       {}
func (NoopRecorder) ObserveRunDuration(time.Duration)                 {}
func (NoopRecorder) SetIndexedFiles(int)                              {}
