// Package history persists run reports in SQLite so past runs can be listed.
package history

import (
	"context"

	"git.home.luguber.info/inful/docsync/internal/report"
)

// Store persists and retrieves run reports.
type Store interface {
	// Record saves a report and its per-source results.
	Record(ctx context.Context, r *report.Report) error

	// List returns up to limit reports, newest first. limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]report.Report, error)

	Close() error
}
