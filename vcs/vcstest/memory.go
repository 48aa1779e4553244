package vcstest

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/masmgr/govcs/vcs"
)

// Store holds in-memory repositories keyed by path. Its Open method is a
// vcs.OpenFunc.
type Store struct {
	mu    sync.Mutex
	repos map[string]*Repository
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{repos: map[string]*Repository{}}
}

// Open returns the repository stored at path, creating an empty one when
// opts.Create is set.
func (s *Store) Open(_ context.Context, path string, opts vcs.OpenOptions) (vcs.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.repos[path]; ok {
		return r, nil
	}
	if !opts.Create {
		return nil, vcs.RepositoryNotFound(path)
	}
	r, err := NewRepository(path, Fixture{})
	if err != nil {
		return nil, err
	}
	s.repos[path] = r
	return r, nil
}

// Put stores a repository built from fx at path, replacing any previous one.
func (s *Store) Put(path string, fx Fixture) (*Repository, error) {
	r, err := NewRepository(path, fx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.repos[path] = r
	s.mu.Unlock()
	return r, nil
}

type memCommit struct {
	info  vcs.ChangesetInfo
	nodes []vcs.Node
}

// Repository is an in-memory vcs.Repository.
type Repository struct {
	path     string
	commits  []memCommit // oldest first
	byID     map[string]int
	tags     []vcs.Tag
	branches []vcs.Branch
	cache    *vcs.ChangesetCache

	// OwnerName and Desc are returned by Owner and Description.
	OwnerName *string
	Desc      *string

	loads atomic.Int64
}

// NewRepository builds an in-memory repository from fx. Commit IDs are
// assigned in order as "r0001", "r0002", ...
func NewRepository(path string, fx Fixture) (*Repository, error) {
	r := &Repository{
		path:  path,
		byID:  map[string]int{},
		cache: vcs.NewChangesetCache(0),
	}

	for i, c := range fx.Commits {
		id := fmt.Sprintf("r%04d", i+1)
		tree := fx.TreeAt(i)
		nodes := make([]vcs.Node, 0, len(tree))
		for _, p := range sortedPaths(tree) {
			nodes = append(nodes, vcs.Node{Path: p, Kind: vcs.KindFile, Size: int64(len(tree[p]))})
		}
		r.commits = append(r.commits, memCommit{
			info: vcs.ChangesetInfo{
				ID:      id,
				When:    c.When,
				Author:  fmt.Sprintf("%s <%s>", c.Author, c.Email),
				Message: c.Message,
			},
			nodes: nodes,
		})
		r.byID[id] = i
	}

	ref := func(kind string, fr FixtureRef) (vcs.Ref, error) {
		if fr.Commit < 0 || fr.Commit >= len(r.commits) {
			return vcs.Ref{}, fmt.Errorf("%s %q points at missing commit %d", kind, fr.Name, fr.Commit)
		}
		c := r.commits[fr.Commit].info
		return vcs.Ref{ID: kind + "/" + fr.Name, Name: fr.Name, Revision: c.ID, When: c.When}, nil
	}
	for _, t := range fx.Tags {
		tr, err := ref("tags", t)
		if err != nil {
			return nil, err
		}
		r.tags = append(r.tags, vcs.Tag(tr))
	}
	for _, b := range fx.Branches {
		br, err := ref("heads", b)
		if err != nil {
			return nil, err
		}
		r.branches = append(r.branches, vcs.Branch(br))
	}

	return r, nil
}

// Loads returns how many changesets have been constructed, cache misses included.
func (r *Repository) Loads() int64 { return r.loads.Load() }

func (r *Repository) Path() string { return r.path }
func (r *Repository) Name() string { return filepath.Base(r.path) }

func (r *Repository) IsValid(context.Context) bool { return r.path != "" }

func (r *Repository) Owner(context.Context) (*string, error)       { return r.OwnerName, nil }
func (r *Repository) Description(context.Context) (*string, error) { return r.Desc, nil }

func (r *Repository) LastChange(ctx context.Context) (vcs.Changeset, error) {
	return vcs.LastChange(ctx, r)
}

func (r *Repository) changeset(i int) (vcs.Changeset, error) {
	c := r.commits[i]
	return r.cache.GetOrLoad(c.info.ID, func() (vcs.Changeset, error) {
		r.loads.Add(1)
		nodes := c.nodes
		return vcs.NewChangeset(c.info, func(context.Context) ([]vcs.Node, error) {
			return nodes, nil
		}), nil
	})
}

func (r *Repository) GetChangeset(ctx context.Context, revision string) (vcs.Changeset, error) {
	if revision == "" {
		return r.LastChange(ctx)
	}
	i, ok := r.byID[revision]
	if !ok {
		return nil, vcs.ChangesetNotFound(revision)
	}
	return r.changeset(i)
}

func (r *Repository) GetChangesets(ctx context.Context, opts vcs.ListOptions) ([]vcs.Changeset, error) {
	all := make([]vcs.Changeset, 0, len(r.commits))
	for i := range r.commits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cs, err := r.changeset(i)
		if err != nil {
			return nil, err
		}
		all = append(all, cs)
	}
	return vcs.SelectChangesets(all, opts), nil
}

func (r *Repository) GetTags(_ context.Context, opts vcs.ListOptions) ([]vcs.Tag, error) {
	return vcs.SelectTags(r.tags, opts), nil
}

func (r *Repository) GetTagByName(_ context.Context, name string) (vcs.Tag, error) {
	for _, t := range r.tags {
		if t.Name == name {
			return t, nil
		}
	}
	return vcs.Tag{}, vcs.TagNotFound(name)
}

func (r *Repository) GetTag(_ context.Context, id string) (vcs.Tag, error) {
	for _, t := range r.tags {
		if t.ID == id {
			return t, nil
		}
	}
	return vcs.Tag{}, vcs.TagNotFound(id)
}

func (r *Repository) GetBranches(_ context.Context, opts vcs.ListOptions) ([]vcs.Branch, error) {
	return vcs.SelectBranches(r.branches, opts), nil
}

func (r *Repository) GetBranchByName(_ context.Context, name string) (vcs.Branch, error) {
	for _, b := range r.branches {
		if b.Name == name {
			return b, nil
		}
	}
	return vcs.Branch{}, vcs.BranchNotFound(name)
}

func (r *Repository) GetBranch(_ context.Context, id string) (vcs.Branch, error) {
	for _, b := range r.branches {
		if b.ID == id {
			return b, nil
		}
	}
	return vcs.Branch{}, vcs.BranchNotFound(id)
}

func (r *Repository) GetFiles(ctx context.Context, limit int) ([]vcs.Node, error) {
	if len(r.commits) == 0 {
		return []vcs.Node{}, nil
	}
	cs, err := r.LastChange(ctx)
	if err != nil {
		return nil, err
	}
	files, err := cs.Files(ctx)
	if err != nil {
		return nil, err
	}
	return vcs.LimitNodes(files, limit), nil
}

// Compile-time interface conformance check.
var _ vcs.Repository = (*Repository)(nil)
