package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("builder fields", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			Fatal().
			WithContext("file", "docsync.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())
		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "docsync.yaml", file)
		assert.True(t, err.IsFatal())
		assert.False(t, err.CanRetry())
	})

	t.Run("wrap keeps cause", func(t *testing.T) {
		cause := stderrors.New("connection reset")
		err := WrapError(cause, CategoryGit, "fetch failed").Retryable().Build()

		assert.ErrorIs(t, err, cause)
		assert.True(t, err.CanRetry())
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("reclassify", func(t *testing.T) {
		err := NewError(CategoryGit, "clone failed").WithCategory(CategoryAuth).UserAction().Build()
		assert.Equal(t, CategoryAuth, err.Category())
		assert.False(t, err.CanRetry())
	})
}

func TestAsClassifiedFollowsChain(t *testing.T) {
	inner := ValidationError("bad source").Build()
	wrapped := fmt.Errorf("load: %w", inner)

	ce, ok := AsClassified(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, ce)
	assert.True(t, HasCategory(wrapped, CategoryValidation))
	assert.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
}

func TestErrorContextMerge(t *testing.T) {
	a := ErrorContext{"a": 1, "b": 1}
	b := ErrorContext{"b": 2}
	merged := a.Merge(b)

	assert.Equal(t, 1, merged["a"])
	assert.Equal(t, 2, merged["b"])
	assert.Equal(t, 1, a["b"], "receiver must not be mutated")

	var empty ErrorContext
	assert.Equal(t, b, empty.Merge(b))
}

func TestCLIErrorAdapterExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)

	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{stderrors.New("plain"), 1},
		{ValidationError("x").Build(), 2},
		{NewError(CategoryAuth, "x").Build(), 5},
		{ConfigError("x").Build(), 7},
		{NewError(CategoryGit, "x").Build(), 8},
		{FileSystemError("x").Build(), 11},
		{fmt.Errorf("wrapped: %w", NewError(CategoryIndex, "x").Build()), 11},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, a.ExitCodeFor(tc.err), "%v", tc.err)
	}
}

func TestCLIErrorAdapterFormatAndLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	err := ConfigError("missing sources").WithContext("path", "docsync.yaml").Build()

	quiet := NewCLIErrorAdapter(false, logger)
	assert.Equal(t, "Error: missing sources (use -v for details)", quiet.FormatError(err))

	verbose := NewCLIErrorAdapter(true, logger)
	assert.Contains(t, verbose.FormatError(err), "[config] missing sources")

	quiet.Log(err)
	assert.Contains(t, buf.String(), "missing sources")
	assert.Contains(t, buf.String(), "path=docsync.yaml")
}
