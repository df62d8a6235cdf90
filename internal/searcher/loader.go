package searcher

import (
	"log/slog"
	"sync/atomic"

	apperrors "github.com/Sisa1265/VINF/pkg/errors"
)

// Loader owns the currently served Engine and swaps in a freshly published
// index on demand. Because Publish is rename-based, Load only ever sees a
// complete artifact set; a failed load leaves the current engine serving.
type Loader struct {
	dir     string
	current atomic.Pointer[Engine]
	logger  *slog.Logger
}

// NewLoader creates a Loader for the index directory. No index is loaded
// until Load is called.
func NewLoader(dir string) *Loader {
	return &Loader{
		dir:    dir,
		logger: slog.Default().With("component", "index-loader"),
	}
}

// Load opens the index at the configured directory and atomically makes it
// the served engine.
func (l *Loader) Load() (*Engine, error) {
	engine, err := Open(l.dir)
	if err != nil {
		l.logger.Error("index load failed", "dir", l.dir, "error", err)
		return nil, err
	}
	l.current.Store(engine)
	l.logger.Info("index loaded", "dir", l.dir, "docs", engine.DocCount())
	return engine, nil
}

// Engine returns the currently served engine, or ErrIndexUnavailable if no
// valid index has been loaded yet.
func (l *Loader) Engine() (*Engine, error) {
	engine := l.current.Load()
	if engine == nil {
		return nil, apperrors.Newf(apperrors.ErrIndexUnavailable, "no index loaded from %s", l.dir)
	}
	return engine, nil
}
