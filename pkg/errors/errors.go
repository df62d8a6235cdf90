// Package errors defines the error taxonomy shared by the build and query
// paths: sentinel errors for the fatal failure classes, an AppError wrapper
// carrying a human-readable message, and mappings to HTTP status codes (for
// the search service) and process exit codes (for the CLIs).
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrCorpusRead indicates the corpus input is missing or unreadable at
	// build time. The build aborts and no artifacts are written.
	ErrCorpusRead = errors.New("corpus read error")
	// ErrIndexCorrupt indicates a persisted index artifact is missing,
	// malformed, or inconsistent at load time. The load fails wholesale;
	// there is no best-effort query against a partial index.
	ErrIndexCorrupt = errors.New("index corrupt")
	// ErrIndexUnavailable indicates a query was issued before a valid index
	// was loaded.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrConfig indicates invalid configuration, fatal at startup.
	ErrConfig = errors.New("invalid configuration")

	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

// Process exit codes used by cmd/indexer and cmd/searcher. A query returning
// zero results is a success, not a failure.
const (
	ExitOK          = 0
	ExitInternal    = 1
	ExitCorpusRead  = 2
	ExitIndexBroken = 3
	ExitConfig      = 4
)

type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// ExitCode maps an error to the process exit status of the CLI commands.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrCorpusRead):
		return ExitCorpusRead
	case errors.Is(err, ErrIndexCorrupt), errors.Is(err, ErrIndexUnavailable):
		return ExitIndexBroken
	case errors.Is(err, ErrConfig), errors.Is(err, ErrInvalidInput):
		return ExitConfig
	default:
		return ExitInternal
	}
}

// HTTPStatusCode maps an error to the status returned by the search service.
func HTTPStatusCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrConfig):
		return http.StatusBadRequest
	case errors.Is(err, ErrIndexUnavailable), errors.Is(err, ErrIndexCorrupt):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
