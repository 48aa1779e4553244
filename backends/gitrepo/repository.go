// Package gitrepo implements vcs.Repository for Git on top of go-git, without
// requiring a git executable.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/sirupsen/logrus"

	"github.com/masmgr/govcs/internal/logging"
	"github.com/masmgr/govcs/vcs"
)

// BackendName is the name the backend registers under.
const BackendName = "gitrepo"

// gitweb writes this placeholder into new repositories.
const placeholderDescription = "Unnamed repository;"

func init() {
	vcs.Register(BackendName, func(ctx context.Context, path string, opts vcs.OpenOptions) (vcs.Repository, error) {
		return Open(ctx, path, opts)
	})
}

// Repository reads a Git repository through go-git.
type Repository struct {
	path  string
	repo  *gogit.Repository
	opts  vcs.OpenOptions
	log   logrus.FieldLogger
	cache *vcs.ChangesetCache
}

// Open opens the Git repository at path. When none exists and opts.Create is
// set, an empty repository is initialized there.
func Open(_ context.Context, path string, opts vcs.OpenOptions) (*Repository, error) {
	log := opts.FieldLogger().WithFields(logrus.Fields{logging.BackendFieldKey: BackendName, logging.RepositoryFieldKey: path})

	repo, err := gogit.PlainOpen(path)
	switch {
	case errors.Is(err, gogit.ErrRepositoryNotExists):
		if !opts.Create {
			return nil, vcs.RepositoryNotFound(path)
		}
		repo, err = gogit.PlainInit(path, opts.Bare)
		if err != nil {
			return nil, fmt.Errorf("init repository at %s: %w", path, err)
		}
		log.WithField("bare", opts.Bare).Debug("initialized empty repository")
	case err != nil:
		return nil, fmt.Errorf("open repository at %s: %w", path, err)
	}

	return &Repository{
		path:  path,
		repo:  repo,
		opts:  opts,
		log:   log,
		cache: vcs.NewChangesetCache(opts.CacheSize),
	}, nil
}

func (r *Repository) Path() string { return r.path }

// Name returns the base name of the repository path without a ".git" suffix.
func (r *Repository) Name() string {
	name := filepath.Base(filepath.Clean(r.path))
	if trimmed := strings.TrimSuffix(name, ".git"); trimmed != "" {
		return trimmed
	}
	return name
}

func (r *Repository) IsValid(context.Context) bool {
	if _, err := os.Stat(r.path); err != nil {
		return false
	}
	if _, err := r.repo.Config(); err != nil {
		return false
	}
	_, _, err := r.tip()
	return err == nil
}

// Owner returns gitweb.owner from the repository configuration.
func (r *Repository) Owner(context.Context) (*string, error) {
	cfg, err := r.repo.Config()
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	owner := strings.TrimSpace(cfg.Raw.Section("gitweb").Option("owner"))
	if owner == "" {
		return nil, nil
	}
	return &owner, nil
}

// Description returns the contents of the description file in the git directory.
func (r *Repository) Description(context.Context) (*string, error) {
	storage, ok := r.repo.Storer.(*filesystem.Storage)
	if !ok {
		return nil, nil
	}
	data, err := readGitFile(storage.Filesystem(), "description")
	if err != nil {
		return nil, err
	}
	desc := strings.TrimSpace(string(data))
	if desc == "" || strings.HasPrefix(desc, placeholderDescription) {
		return nil, nil
	}
	return &desc, nil
}

func readGitFile(fs billy.Filesystem, name string) ([]byte, error) {
	f, err := fs.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (r *Repository) LastChange(ctx context.Context) (vcs.Changeset, error) {
	return vcs.LastChange(ctx, r)
}

// tip returns the commit history is read from. ok is false for a repository
// without commits.
func (r *Repository) tip() (hash plumbing.Hash, ok bool, err error) {
	branch := strings.TrimSpace(r.opts.Branch)
	if branch != "" && !strings.EqualFold(branch, "HEAD") {
		h, err := r.repo.ResolveRevision(plumbing.Revision(branch))
		if errors.Is(err, plumbing.ErrReferenceNotFound) || errors.Is(err, plumbing.ErrObjectNotFound) {
			return plumbing.ZeroHash, false, vcs.BranchNotFound(branch)
		}
		if err != nil {
			return plumbing.ZeroHash, false, fmt.Errorf("resolve branch %s: %w", branch, err)
		}
		return *h, true, nil
	}

	ref, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, false, nil
	}
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("resolve HEAD: %w", err)
	}
	return ref.Hash(), true, nil
}

func (r *Repository) GetChangeset(ctx context.Context, revision string) (vcs.Changeset, error) {
	if revision == "" {
		return r.LastChange(ctx)
	}
	if cs, ok := r.cache.Get(revision); ok {
		return cs, nil
	}

	h, err := r.repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		r.log.WithError(err).WithField(logging.RevisionFieldKey, revision).Debug("revision did not resolve")
		return nil, vcs.ChangesetNotFound(revision)
	}
	c, err := r.peel(*h)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) || errors.Is(err, object.ErrUnsupportedObject) {
			return nil, vcs.ChangesetNotFound(revision)
		}
		return nil, err
	}
	return r.changeset(c)
}

func (r *Repository) GetChangesets(ctx context.Context, opts vcs.ListOptions) ([]vcs.Changeset, error) {
	tip, ok, err := r.tip()
	if err != nil {
		return nil, err
	}
	if !ok {
		return []vcs.Changeset{}, nil
	}

	iter, err := r.repo.Log(&gogit.LogOptions{From: tip})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	var all []vcs.Changeset
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		cs, err := r.changeset(c)
		if err != nil {
			return err
		}
		all = append(all, cs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return vcs.SelectChangesets(all, opts), nil
}

func (r *Repository) changeset(c *object.Commit) (vcs.Changeset, error) {
	return r.cache.GetOrLoad(c.Hash.String(), func() (vcs.Changeset, error) {
		r.log.WithField(logging.RevisionFieldKey, c.Hash.String()).Debug("changeset cache miss")
		return newChangeset(r.repo, c), nil
	})
}

// peel resolves h to a commit, dereferencing annotated tags.
func (r *Repository) peel(h plumbing.Hash) (*object.Commit, error) {
	if tag, err := r.repo.TagObject(h); err == nil {
		return tag.Commit()
	}
	return r.repo.CommitObject(h)
}

func (r *Repository) ref(ref *plumbing.Reference) (vcs.Ref, error) {
	c, err := r.peel(ref.Hash())
	if err != nil {
		return vcs.Ref{}, err
	}
	return vcs.Ref{
		ID:       ref.Name().String(),
		Name:     ref.Name().Short(),
		Revision: c.Hash.String(),
		When:     c.Committer.When,
	}, nil
}

func (r *Repository) refs(iter interface {
	ForEach(func(*plumbing.Reference) error) error
}) ([]vcs.Ref, error) {
	var out []vcs.Ref
	err := iter.ForEach(func(ref *plumbing.Reference) error {
		v, err := r.ref(ref)
		if errors.Is(err, object.ErrUnsupportedObject) || errors.Is(err, plumbing.ErrObjectNotFound) {
			r.log.WithField("ref", ref.Name().String()).Debug("skipping reference that does not point at a commit")
			return nil
		}
		if err != nil {
			return fmt.Errorf("resolve %s: %w", ref.Name(), err)
		}
		out = append(out, v)
		return nil
	})
	return out, err
}

func (r *Repository) lookup(name plumbing.ReferenceName) (vcs.Ref, bool, error) {
	ref, err := r.repo.Reference(name, true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return vcs.Ref{}, false, nil
	}
	if err != nil {
		return vcs.Ref{}, false, err
	}
	v, err := r.ref(ref)
	if err != nil {
		return vcs.Ref{}, false, err
	}
	return v, true, nil
}

func (r *Repository) GetTags(_ context.Context, opts vcs.ListOptions) ([]vcs.Tag, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	refs, err := r.refs(iter)
	if err != nil {
		return nil, err
	}
	tags := make([]vcs.Tag, len(refs))
	for i, ref := range refs {
		tags[i] = vcs.Tag(ref)
	}
	return vcs.SelectTags(tags, opts), nil
}

func (r *Repository) GetTagByName(_ context.Context, name string) (vcs.Tag, error) {
	ref, ok, err := r.lookup(plumbing.NewTagReferenceName(name))
	if err != nil {
		return vcs.Tag{}, err
	}
	if !ok {
		return vcs.Tag{}, vcs.TagNotFound(name)
	}
	return vcs.Tag(ref), nil
}

// GetTag looks a tag up by its full reference name, e.g. "refs/tags/v1.0".
func (r *Repository) GetTag(_ context.Context, id string) (vcs.Tag, error) {
	name := plumbing.ReferenceName(id)
	if !name.IsTag() {
		return vcs.Tag{}, vcs.TagNotFound(id)
	}
	ref, ok, err := r.lookup(name)
	if err != nil {
		return vcs.Tag{}, err
	}
	if !ok {
		return vcs.Tag{}, vcs.TagNotFound(id)
	}
	return vcs.Tag(ref), nil
}

func (r *Repository) GetBranches(_ context.Context, opts vcs.ListOptions) ([]vcs.Branch, error) {
	iter, err := r.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	refs, err := r.refs(iter)
	if err != nil {
		return nil, err
	}
	branches := make([]vcs.Branch, len(refs))
	for i, ref := range refs {
		branches[i] = vcs.Branch(ref)
	}
	return vcs.SelectBranches(branches, opts), nil
}

func (r *Repository) GetBranchByName(_ context.Context, name string) (vcs.Branch, error) {
	ref, ok, err := r.lookup(plumbing.NewBranchReferenceName(name))
	if err != nil {
		return vcs.Branch{}, err
	}
	if !ok {
		return vcs.Branch{}, vcs.BranchNotFound(name)
	}
	return vcs.Branch(ref), nil
}

// GetBranch looks a branch up by its full reference name, e.g. "refs/heads/main".
func (r *Repository) GetBranch(_ context.Context, id string) (vcs.Branch, error) {
	name := plumbing.ReferenceName(id)
	if !name.IsBranch() {
		return vcs.Branch{}, vcs.BranchNotFound(id)
	}
	ref, ok, err := r.lookup(name)
	if err != nil {
		return vcs.Branch{}, err
	}
	if !ok {
		return vcs.Branch{}, vcs.BranchNotFound(id)
	}
	return vcs.Branch(ref), nil
}

func (r *Repository) GetFiles(ctx context.Context, limit int) ([]vcs.Node, error) {
	_, ok, err := r.tip()
	if err != nil {
		return nil, err
	}
	if !ok {
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

func newChangeset(repo *gogit.Repository, c *object.Commit) vcs.Changeset {
	info := vcs.ChangesetInfo{
		ID:      c.Hash.String(),
		When:    c.Committer.When,
		Author:  fmt.Sprintf("%s <%s>", c.Author.Name, c.Author.Email),
		Message: strings.TrimRight(c.Message, "\n"),
	}
	return vcs.NewChangeset(info, func(ctx context.Context) ([]vcs.Node, error) {
		return readTree(ctx, repo, c)
	})
}

// readTree lists every file and directory of the commit tree. Gitlinks
// (submodules) are skipped.
func readTree(ctx context.Context, repo *gogit.Repository, c *object.Commit) ([]vcs.Node, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree of %s: %w", c.Hash, err)
	}

	walker := object.NewTreeWalker(tree, true, nil)
	defer walker.Close()

	var nodes []vcs.Node
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, entry, err := walker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("walk tree of %s: %w", c.Hash, err)
		}

		switch entry.Mode {
		case filemode.Dir:
			nodes = append(nodes, vcs.Node{Path: name, Kind: vcs.KindDir})
		case filemode.Submodule:
			continue
		default:
			blob, err := repo.BlobObject(entry.Hash)
			if err != nil {
				return nil, fmt.Errorf("read blob %s: %w", name, err)
			}
			nodes = append(nodes, vcs.Node{Path: name, Kind: vcs.KindFile, Size: blob.Size})
		}
	}
	return nodes, nil
}

// Compile-time interface conformance check.
var _ vcs.Repository = (*Repository)(nil)
