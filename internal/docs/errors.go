package docs

import "errors"

var (
	// ErrSourcePathNotFound indicates a task's source path does not exist in the working copy.
	ErrSourcePathNotFound = errors.New("source path not found")

	// ErrCopyFailed indicates reading, writing, or walking a documentation tree failed.
	ErrCopyFailed = errors.New("documentation copy failed")
)
