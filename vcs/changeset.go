package vcs

import (
	"context"
	"time"
)

// ChangesetInfo is the commit metadata of a changeset.
type ChangesetInfo struct {
	ID      string
	When    time.Time
	Author  string
	Message string
}

// TreeChangeset is a Changeset whose tree is produced by a TreeLoader on
// first access. Backends build their changesets on it.
type TreeChangeset struct {
	info ChangesetInfo
	tree *LazyTree
}

// NewChangeset creates a changeset from commit metadata and a tree loader.
func NewChangeset(info ChangesetInfo, load TreeLoader) *TreeChangeset {
	return &TreeChangeset{info: info, tree: NewLazyTree(load)}
}

func (c *TreeChangeset) ID() string      { return c.info.ID }
func (c *TreeChangeset) When() time.Time { return c.info.When }
func (c *TreeChangeset) Author() string  { return c.info.Author }
func (c *TreeChangeset) Message() string { return c.info.Message }

// Info returns the changeset metadata.
func (c *TreeChangeset) Info() ChangesetInfo { return c.info }

func (c *TreeChangeset) Size(ctx context.Context) (int64, error) {
	t, err := c.tree.Get(ctx)
	if err != nil {
		return 0, err
	}
	return t.Size(), nil
}

func (c *TreeChangeset) Files(ctx context.Context) ([]Node, error) {
	t, err := c.tree.Get(ctx)
	if err != nil {
		return nil, err
	}
	return t.Files(), nil
}

func (c *TreeChangeset) Dirs(ctx context.Context) ([]Node, error) {
	t, err := c.tree.Get(ctx)
	if err != nil {
		return nil, err
	}
	return t.Dirs(), nil
}

func (c *TreeChangeset) Nodes(ctx context.Context) ([]Node, error) {
	t, err := c.tree.Get(ctx)
	if err != nil {
		return nil, err
	}
	return t.Nodes(), nil
}

func (c *TreeChangeset) GetNode(ctx context.Context, path string) (Node, error) {
	t, err := c.tree.Get(ctx)
	if err != nil {
		return Node{}, err
	}
	return t.Lookup(path)
}

// Root returns the root node without loading the tree.
func (c *TreeChangeset) Root(context.Context) (Node, error) {
	return RootNode(), nil
}

func (c *TreeChangeset) Children(ctx context.Context, path string) ([]Node, error) {
	t, err := c.tree.Get(ctx)
	if err != nil {
		return nil, err
	}
	return t.Children(path)
}

// Compile-time interface conformance check.
var _ Changeset = (*TreeChangeset)(nil)
