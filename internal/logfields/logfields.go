// Package logfields holds the canonical slog attribute keys used by docsync.
package logfields

import (
	"log/slog"
	"time"
)

const (
	KeyRunID     = "run_id"
	KeySource    = "source"
	KeyURL       = "url"
	KeyPath      = "path"
	KeyDest      = "dest"
	KeyFile      = "file"
	KeyCommit    = "commit"
	KeyBranch    = "branch"
	KeySubfolder = "subfolder"
	KeyCount     = "count"
	KeyStatus    = "status"
	KeyDuration  = "duration_ms"
	KeyError     = "error"
)

func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Source(name string) slog.Attr     { return slog.String(KeySource, name) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Dest(p string) slog.Attr          { return slog.String(KeyDest, p) }
func File(f string) slog.Attr          { return slog.String(KeyFile, f) }
func Branch(b string) slog.Attr        { return slog.String(KeyBranch, b) }
func Subfolder(s string) slog.Attr     { return slog.String(KeySubfolder, s) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Status(s string) slog.Attr        { return slog.String(KeyStatus, s) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDuration, float64(d.Microseconds())/1000)
}

// Commit logs the abbreviated (8 char) form of a commit hash.
func Commit(hash string) slog.Attr {
	if len(hash) > 8 {
		hash = hash[:8]
	}
	return slog.String(KeyCommit, hash)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
