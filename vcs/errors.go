package vcs

import (
	"errors"
	"fmt"
)

var (
	ErrRepositoryNotFound = errors.New("repository not found")
	ErrChangesetNotFound  = errors.New("changeset not found")
	ErrNodeNotFound       = errors.New("node not found")
	ErrNotADirectory      = errors.New("not a directory")
	ErrNotImplemented     = errors.New("not implemented")
	ErrUnknownBackend     = errors.New("unknown backend")

	// ErrNotFound is matched by every missing named reference.
	ErrNotFound       = errors.New("not found")
	ErrTagNotFound    = fmt.Errorf("tag %w", ErrNotFound)
	ErrBranchNotFound = fmt.Errorf("branch %w", ErrNotFound)
)

// NotImplementedError reports a capability a backend does not provide.
type NotImplementedError struct {
	Backend string
	Op      string
}

func (e *NotImplementedError) Error() string {
	if e.Backend == "" {
		return e.Op + ": " + ErrNotImplemented.Error()
	}
	return e.Backend + ": " + e.Op + ": " + ErrNotImplemented.Error()
}

// Is makes errors.Is(err, ErrNotImplemented) hold.
func (e *NotImplementedError) Is(target error) bool {
	return target == ErrNotImplemented
}

// ChangesetNotFound wraps ErrChangesetNotFound with the missing revision.
// An empty revision means the repository has no changesets.
func ChangesetNotFound(revision string) error {
	if revision == "" {
		return fmt.Errorf("%w: repository is empty", ErrChangesetNotFound)
	}
	return fmt.Errorf("%w: %s", ErrChangesetNotFound, revision)
}

// NodeNotFound wraps ErrNodeNotFound with the missing path.
func NodeNotFound(path string) error {
	return fmt.Errorf("%w: %q", ErrNodeNotFound, path)
}

// TagNotFound wraps ErrTagNotFound with the missing name or id.
func TagNotFound(key string) error {
	return fmt.Errorf("%w: %s", ErrTagNotFound, key)
}

// BranchNotFound wraps ErrBranchNotFound with the missing name or id.
func BranchNotFound(key string) error {
	return fmt.Errorf("%w: %s", ErrBranchNotFound, key)
}

// RepositoryNotFound wraps ErrRepositoryNotFound with the path that was searched.
func RepositoryNotFound(path string) error {
	return fmt.Errorf("%w at %s", ErrRepositoryNotFound, path)
}
