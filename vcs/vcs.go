// Package vcs defines a backend-agnostic contract for reading version control
// history. Concrete backends (see backends/gitrepo and backends/gitcli) implement
// Repository and Changeset so that callers can list changesets, tags, branches
// and file trees without depending on a particular VCS API.
package vcs

import (
	"context"
	"time"
)

// Repository is a single version-controlled project at a filesystem path.
type Repository interface {
	// Path returns the local path the repository was opened at.
	Path() string

	// Name returns the logical name of the repository.
	Name() string

	// IsValid reports whether the repository at Path is structurally sound.
	// It never mutates state.
	IsValid(ctx context.Context) bool

	// Owner returns the repository owner, or nil when none is recorded.
	Owner(ctx context.Context) (*string, error)

	// Description returns the human-readable description, or nil when none is set.
	Description(ctx context.Context) (*string, error)

	// LastChange returns the most recent changeset. It must be equal to the
	// first element of GetChangesets(ctx, ListOptions{Limit: 1}).
	LastChange(ctx context.Context) (Changeset, error)

	// GetChangeset returns the changeset identified by revision. An empty
	// revision selects the most recent changeset.
	GetChangeset(ctx context.Context, revision string) (Changeset, error)

	// GetChangesets returns changesets ordered most recent first.
	GetChangesets(ctx context.Context, opts ListOptions) ([]Changeset, error)

	GetTags(ctx context.Context, opts ListOptions) ([]Tag, error)
	GetTagByName(ctx context.Context, name string) (Tag, error)
	GetTag(ctx context.Context, id string) (Tag, error)

	GetBranches(ctx context.Context, opts ListOptions) ([]Branch, error)
	GetBranchByName(ctx context.Context, name string) (Branch, error)
	GetBranch(ctx context.Context, id string) (Branch, error)

	// GetFiles returns the files of the most recent changeset, truncated to
	// limit when limit is positive.
	GetFiles(ctx context.Context, limit int) ([]Node, error)
}

// Changeset is an immutable snapshot of a repository tree at one point in history.
// Implementations must be safe for concurrent use.
type Changeset interface {
	ID() string
	When() time.Time
	Author() string
	Message() string

	// Size returns the total size in bytes of all files in the tree.
	Size(ctx context.Context) (int64, error)

	Files(ctx context.Context) ([]Node, error)
	Dirs(ctx context.Context) ([]Node, error)
	// Nodes returns Files and Dirs combined, sorted by path.
	Nodes(ctx context.Context) ([]Node, error)

	// GetNode resolves path within the tree.
	GetNode(ctx context.Context, path string) (Node, error)
	// Root is GetNode(ctx, "").
	Root(ctx context.Context) (Node, error)
	// Children lists the immediate entries of the directory at path.
	Children(ctx context.Context, path string) ([]Node, error)
}

// ListOptions filters listings of changesets and references.
// The zero value applies no filter.
type ListOptions struct {
	// Since keeps entries at or after this time.
	Since *time.Time
	// Limit keeps at most this many entries when positive.
	Limit int
}

// Ref is a named reference to a revision.
type Ref struct {
	// ID is the backend-defined identifier of the reference.
	ID string
	// Name is unique within its namespace.
	Name string
	// Revision is the ID of the changeset the reference points to.
	Revision string
	// When is the time of the changeset the reference points to.
	When time.Time
}

// Tag is a named reference in the tag namespace.
type Tag Ref

// Branch is a named reference in the branch namespace.
type Branch Ref
