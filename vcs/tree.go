package vcs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Tree is an immutable index over the nodes of one changeset.
// The root node is implicit: it answers Lookup("") but is not part of
// Nodes or Dirs.
type Tree struct {
	nodes    []Node
	files    []Node
	dirs     []Node
	byPath   map[string]Node
	children map[string][]Node
	size     int64
}

// NewTree builds a tree from backend entries. Missing parent directories are
// synthesized and duplicate entries collapse into one. An entry that is a
// file in one place and a directory in another is rejected.
func NewTree(entries []Node) (*Tree, error) {
	byPath := make(map[string]Node, len(entries))

	add := func(n Node) error {
		if existing, ok := byPath[n.Path]; ok {
			if existing.Kind != n.Kind {
				return fmt.Errorf("conflicting tree entry %q: %s and %s", n.Path, existing.Kind, n.Kind)
			}
			return nil
		}
		byPath[n.Path] = n
		return nil
	}

	for _, e := range entries {
		p := CleanPath(e.Path)
		if p == "" {
			if e.Kind != KindDir {
				return nil, fmt.Errorf("tree root must be a directory")
			}
			continue
		}
		n := Node{Path: p, Kind: e.Kind}
		if e.Kind == KindFile {
			n.Size = e.Size
		}
		if err := add(n); err != nil {
			return nil, err
		}
		for dir := parentPath(p); dir != ""; dir = parentPath(dir) {
			if err := add(Node{Path: dir, Kind: KindDir}); err != nil {
				return nil, err
			}
		}
	}

	t := &Tree{
		nodes:    make([]Node, 0, len(byPath)),
		byPath:   byPath,
		children: make(map[string][]Node),
	}
	for _, n := range byPath {
		t.nodes = append(t.nodes, n)
	}
	sort.Slice(t.nodes, func(i, j int) bool { return t.nodes[i].Path < t.nodes[j].Path })

	for _, n := range t.nodes {
		if n.Kind == KindFile {
			t.files = append(t.files, n)
			t.size += n.Size
		} else {
			t.dirs = append(t.dirs, n)
		}
		parent := parentPath(n.Path)
		t.children[parent] = append(t.children[parent], n)
	}

	return t, nil
}

// Files returns file nodes sorted by path. Callers must not modify the slice.
func (t *Tree) Files() []Node { return t.files }

// Dirs returns directory nodes, excluding the root, sorted by path.
func (t *Tree) Dirs() []Node { return t.dirs }

// Nodes returns all file and directory nodes, excluding the root, sorted by path.
func (t *Tree) Nodes() []Node { return t.nodes }

// Size returns the total size of all files.
func (t *Tree) Size() int64 { return t.size }

// Lookup resolves p. The root always resolves.
func (t *Tree) Lookup(p string) (Node, error) {
	p = CleanPath(p)
	if p == "" {
		return RootNode(), nil
	}
	n, ok := t.byPath[p]
	if !ok {
		return Node{}, NodeNotFound(p)
	}
	return n, nil
}

// Children returns the immediate entries of the directory at p.
func (t *Tree) Children(p string) ([]Node, error) {
	n, err := t.Lookup(p)
	if err != nil {
		return nil, err
	}
	if !n.IsDir() {
		return nil, fmt.Errorf("%w: %q", ErrNotADirectory, n.Path)
	}
	return t.children[n.Path], nil
}

// TreeLoader produces the entries of a changeset tree.
type TreeLoader func(ctx context.Context) ([]Node, error)

// LazyTree loads a Tree on first use. Concurrent callers wait for a single
// load and observe the same Tree. A failed load is retried by the next caller.
type LazyTree struct {
	load TreeLoader
	mu   sync.Mutex
	tree atomic.Pointer[Tree]
}

// NewLazyTree creates a LazyTree backed by load.
func NewLazyTree(load TreeLoader) *LazyTree {
	return &LazyTree{load: load}
}

// Get returns the loaded tree.
func (l *LazyTree) Get(ctx context.Context) (*Tree, error) {
	if t := l.tree.Load(); t != nil {
		return t, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if t := l.tree.Load(); t != nil {
		return t, nil
	}
	entries, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	t, err := NewTree(entries)
	if err != nil {
		return nil, err
	}
	l.tree.Store(t)
	return t, nil
}
