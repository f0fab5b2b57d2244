// Package report holds the outcome of a sync run.
package report

import "time"

// Status is the outcome of one source.
type Status string

const (
	StatusOK          Status = "ok"
	StatusFetchFailed Status = "fetch_failed"
	StatusCopyFailed  Status = "copy_failed"
)

// SourceResult records what happened to one configured source.
type SourceResult struct {
	Name     string        `json:"name"`
	URL      string        `json:"url"`
	Commit   string        `json:"commit,omitempty"`
	Status   Status        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Tasks    int           `json:"tasks"`
	Files    int           `json:"files"`
	Duration time.Duration `json:"duration_ns"`
}

// Report summarises a complete run.
type Report struct {
	RunID        string         `json:"run_id"`
	StartedAt    time.Time      `json:"started_at"`
	Duration     time.Duration  `json:"duration_ns"`
	Sources      []SourceResult `json:"sources"`
	IndexPath    string         `json:"index_path"`
	IndexedFiles int            `json:"indexed_files"`
	OutputDigest string         `json:"output_digest,omitempty"`
	MissingLinks []string       `json:"missing_links,omitempty"`
}

// Failed returns the sources that did not complete.
func (r *Report) Failed() []SourceResult {
	var out []SourceResult
	for _, s := range r.Sources {
		if s.Status != StatusOK {
			out = append(out, s)
		}
	}
	return out
}

// HasFailures reports whether any source failed or the index has dangling links.
func (r *Report) HasFailures() bool {
	return len(r.Failed()) > 0 || len(r.MissingLinks) > 0
}

// FilesCopied sums the files written across sources.
func (r *Report) FilesCopied() int {
	n := 0
	for _, s := range r.Sources {
		n += s.Files
	}
	return n
}
