package modelcache

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrSourceUnreachable means the fetch source could not be contacted.
	ErrSourceUnreachable = errors.New("fetch source unreachable")
	// ErrUnknownRepo means the source does not know the repository identifier.
	ErrUnknownRepo = errors.New("unknown repository")
	// ErrCorrupt means transferred or stored bytes failed an integrity check.
	ErrCorrupt = errors.New("artifact corrupt")
	// ErrNotCached is returned by operations that need a materialized artifact.
	ErrNotCached = errors.New("artifact not cached")
)

// FetchError reports a failure of the fetch step for a repository.
type FetchError struct {
	Repo string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Repo, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IOError reports a local filesystem failure.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err is or wraps a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsIOError reports whether err is or wraps an *IOError.
func IsIOError(err error) bool {
	var ioe *IOError
	return errors.As(err, &ioe)
}

// FailureKind classifies err for logs and metrics.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSourceUnreachable):
		return "unreachable"
	case errors.Is(err, ErrUnknownRepo):
		return "unknown_repo"
	case errors.Is(err, ErrCorrupt):
		return "corrupt"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case IsIOError(err):
		return "io"
	default:
		return "fetch"
	}
}
