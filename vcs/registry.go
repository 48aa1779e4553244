package vcs

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// OpenOptions configures how a backend opens a repository.
type OpenOptions struct {
	// Create initializes an empty repository when none exists at the path.
	Create bool
	// Bare selects a bare repository when Create initializes one.
	Bare bool
	// Branch is the reference history is read from. Empty means HEAD.
	Branch string
	// CacheSize bounds the changeset cache. Zero keeps every changeset.
	CacheSize int
	// Logger receives backend diagnostics. Nil discards them.
	Logger logrus.FieldLogger
}

// FieldLogger returns the configured logger or one that discards output.
func (o OpenOptions) FieldLogger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// OpenFunc opens the repository at path.
type OpenFunc func(ctx context.Context, path string, opts OpenOptions) (Repository, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]OpenFunc{}
)

// Register makes a backend available to Open under name.
// It panics if name is registered twice.
func Register(name string, open OpenFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("vcs: backend registered twice: " + name)
	}
	registry[name] = open
}

// Backends returns the sorted names of registered backends.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens the repository at path with the named backend.
func Open(ctx context.Context, backend, path string, opts OpenOptions) (Repository, error) {
	registryMu.RLock()
	open, ok := registry[backend]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownBackend, backend, Backends())
	}
	return open(ctx, path, opts)
}
