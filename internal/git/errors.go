package git

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
)

// FetchError reports that a source's working copy could not be cloned or updated.
type FetchError struct {
	Source string
	URL    string
	Op     string // clone|update
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Source, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchError reports whether err carries a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return stderrors.As(err, &fe)
}

// ClassifyGitError wraps a go-git error into a ClassifiedError. Auth, not-found and
// protocol problems are permanent; network trouble is retryable.
func ClassifyGitError(err error, op, url string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsClassified(err); ok {
		return err
	}

	b := errors.WrapError(err, errors.CategoryGit, op+" failed").
		WithContext("op", op).
		WithContext("url", url).
		Retryable()

	l := strings.ToLower(err.Error())
	switch {
	case stderrors.Is(err, transport.ErrAuthenticationRequired),
		stderrors.Is(err, transport.ErrAuthorizationFailed),
		stderrors.Is(err, transport.ErrInvalidAuthMethod),
		strings.Contains(l, "authentication"),
		strings.Contains(l, "invalid credentials"),
		strings.Contains(l, "permission denied"):
		b.WithCategory(errors.CategoryAuth).UserAction()
	case stderrors.Is(err, transport.ErrRepositoryNotFound),
		strings.Contains(l, "repository not found"),
		strings.Contains(l, "repository does not exist"),
		strings.Contains(l, "couldn't find remote ref"),
		strings.Contains(l, "reference not found"):
		b.WithCategory(errors.CategoryNotFound).WithRetry(errors.RetryNever)
	case strings.Contains(l, "unsupported scheme"),
		strings.Contains(l, "unsupported protocol"),
		strings.Contains(l, "unsupported auth type"):
		b.WithCategory(errors.CategoryConfig).WithRetry(errors.RetryNever)
	case strings.Contains(l, "rate limit"), strings.Contains(l, "too many requests"):
		b.WithCategory(errors.CategoryNetwork).RateLimit()
	case stderrors.Is(err, context.DeadlineExceeded),
		strings.Contains(l, "timeout"),
		strings.Contains(l, "connection reset"),
		strings.Contains(l, "connection refused"),
		strings.Contains(l, "no route to host"),
		strings.Contains(l, "remote hung up"):
		b.WithCategory(errors.CategoryNetwork)
	}
	return b.Build()
}

// IsPermanent reports whether retrying err cannot help.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) {
		return true
	}
	if ce, ok := errors.AsClassified(err); ok {
		return !ce.CanRetry()
	}
	return false
}
