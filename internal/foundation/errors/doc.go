// Package errors provides the classified error primitives used across docsync.
//
// A ClassifiedError carries a category (config, git, filesystem, ...), a severity
// and a retry hint next to the usual message and cause. Errors are built through
// the fluent ErrorBuilder:
//
//	err := errors.NewError(errors.CategoryGit, "fetch failed").
//		WithCause(cause).
//		WithContext("source", name).
//		Retryable().
//		Build()
//
// The CLI adapter turns classified errors into process exit codes.
package errors
