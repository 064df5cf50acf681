package errors

import (
	stderr "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorsWrap(t *testing.T) {
	sentinel := New("resource unavailable")
	cause := stderr.New("connection reset")

	wrapped := sentinel.Wrap(cause)
	require.True(t, Is(wrapped, sentinel))
	require.True(t, Is(wrapped, cause))
	require.Contains(t, wrapped.Error(), "resource unavailable")
	require.Contains(t, wrapped.Error(), "connection reset")

	// wrapping must not mutate the sentinel itself
	require.Nil(t, sentinel.Unwrap())
}

func TestErrorsWrapMessage(t *testing.T) {
	sentinel := New("catalog failure")
	cause := stderr.New("disk full")

	wrapped := sentinel.WrapMessage(cause, "inserting entry %q", "notes.txt")
	require.True(t, Is(wrapped, sentinel))
	require.True(t, Is(wrapped, cause))
	require.Contains(t, wrapped.Error(), `inserting entry "notes.txt"`)
}

func TestErrorsAs(t *testing.T) {
	sentinel := New("boom")
	err := fmt.Errorf("outer: %w", sentinel.Wrap(stderr.New("inner")))

	var target *Error
	require.True(t, As(err, &target))
	require.True(t, Is(target, sentinel))
}
