// Package gitcli implements vcs.Repository by running the git executable and
// parsing its machine-readable output.
package gitcli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/masmgr/govcs/internal/logging"
	"github.com/masmgr/govcs/vcs"
)

// BackendName is the name the backend registers under.
const BackendName = "gitcli"

func init() {
	vcs.Register(BackendName, func(ctx context.Context, path string, opts vcs.OpenOptions) (vcs.Repository, error) {
		return Open(ctx, path, opts)
	})
}

// Repository reads a Git repository through the git executable.
type Repository struct {
	path   string
	dirs   gitDirs
	git    runner
	opts   vcs.OpenOptions
	log    logrus.FieldLogger
	cache  *vcs.ChangesetCache
}

// Open opens the Git repository at path. When none exists and opts.Create is
// set, `git init` creates one.
func Open(ctx context.Context, path string, opts vcs.OpenOptions) (*Repository, error) {
	log := opts.FieldLogger().WithFields(logrus.Fields{logging.BackendFieldKey: BackendName, logging.RepositoryFieldKey: path})

	dirs, ok, err := findGitDir(ctx, path, log)
	if err != nil {
		return nil, err
	}
	if !ok {
		if !opts.Create {
			return nil, vcs.RepositoryNotFound(path)
		}
		if err := initRepository(ctx, path, opts.Bare, log); err != nil {
			return nil, err
		}
		log.WithField("bare", opts.Bare).Debug("initialized empty repository")
		if dirs, ok, err = findGitDir(ctx, path, log); err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("git init at %s did not create a repository", path)
		}
	}

	return &Repository{
		path:   path,
		dirs:   dirs,
		git:    runner{dir: path, log: log},
		opts:   opts,
		log:    log,
		cache:  vcs.NewChangesetCache(opts.CacheSize),
	}, nil
}

// gitDirs locates the administrative directories of a repository. For a
// linked worktree git is private to the worktree and common is shared with
// the main repository.
type gitDirs struct {
	git    string
	common string
}

// findGitDir locates the repository rooted at path. ok is false when path is
// not the root of a repository: a repository enclosing path from a parent
// directory does not count. Working trees whose .git is a file (linked
// worktrees, submodules) are accepted.
func findGitDir(ctx context.Context, path string, log logrus.FieldLogger) (dirs gitDirs, ok bool, err error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return gitDirs{}, false, nil
	}

	git := runner{dir: path, log: log}
	out, err := git.run(ctx, "rev-parse", "--is-bare-repository", "--absolute-git-dir", "--git-common-dir")
	if err != nil {
		if exitCode(err) > 0 {
			return gitDirs{}, false, nil
		}
		return gitDirs{}, false, err
	}
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) != 3 {
		return gitDirs{}, false, fmt.Errorf("unexpected rev-parse output %q", out)
	}
	bare := strings.TrimSpace(lines[0]) == "true"
	dirs = gitDirs{git: strings.TrimSpace(lines[1]), common: strings.TrimSpace(lines[2])}
	if !filepath.IsAbs(dirs.common) {
		dirs.common = filepath.Join(path, dirs.common)
	}

	if sameDir(dirs.git, path) {
		return dirs, true, nil
	}
	if bare {
		return gitDirs{}, false, nil
	}

	out, err = git.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		if exitCode(err) > 0 {
			return gitDirs{}, false, nil
		}
		return gitDirs{}, false, err
	}
	if !sameDir(strings.TrimSpace(string(out)), path) {
		return gitDirs{}, false, nil
	}
	return dirs, true, nil
}

func initRepository(ctx context.Context, path string, bare bool, log logrus.FieldLogger) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	args := []string{"init", "--quiet"}
	if bare {
		args = append(args, "--bare")
	}
	if _, err := (runner{dir: path, log: log}).run(ctx, args...); err != nil {
		return fmt.Errorf("init repository at %s: %w", path, err)
	}
	return nil
}

func sameDir(a, b string) bool {
	ra, err := filepath.EvalSymlinks(a)
	if err != nil {
		return false
	}
	rb, err := filepath.EvalSymlinks(b)
	if err != nil {
		return false
	}
	return filepath.Clean(ra) == filepath.Clean(rb)
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

func (r *Repository) IsValid(ctx context.Context) bool {
	if _, ok, err := findGitDir(ctx, r.path, r.log); err != nil || !ok {
		return false
	}
	_, _, err := r.tip(ctx)
	return err == nil
}

// Owner returns gitweb.owner from the repository configuration.
func (r *Repository) Owner(ctx context.Context) (*string, error) {
	out, err := r.git.run(ctx, "config", "--get", "gitweb.owner")
	if err != nil {
		if exitCode(err) == 1 {
			return nil, nil
		}
		return nil, err
	}
	owner := strings.TrimSpace(string(out))
	if owner == "" {
		return nil, nil
	}
	return &owner, nil
}

// Description returns the contents of the description file shared by all
// worktrees of the repository.
func (r *Repository) Description(context.Context) (*string, error) {
	data, err := os.ReadFile(filepath.Join(r.dirs.common, "description"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read description: %w", err)
	}
	desc := strings.TrimSpace(string(data))
	if desc == "" || strings.HasPrefix(desc, "Unnamed repository;") {
		return nil, nil
	}
	return &desc, nil
}

func (r *Repository) LastChange(ctx context.Context) (vcs.Changeset, error) {
	return vcs.LastChange(ctx, r)
}

// resolve returns the full hash of the commit revision names. ok is false
// when revision does not name a commit.
func (r *Repository) resolve(ctx context.Context, revision string) (hash string, ok bool, err error) {
	if strings.HasPrefix(revision, "-") {
		return "", false, nil
	}
	out, err := r.git.run(ctx, "rev-parse", "--verify", "--quiet", revision+"^{commit}")
	if err != nil {
		if exitCode(err) > 0 {
			return "", false, nil
		}
		return "", false, err
	}
	return strings.TrimSpace(string(out)), true, nil
}

// tip returns the commit history is read from. ok is false for a repository
// without commits.
func (r *Repository) tip(ctx context.Context) (hash string, ok bool, err error) {
	branch := strings.TrimSpace(r.opts.Branch)
	if branch == "" || strings.EqualFold(branch, "HEAD") {
		return r.resolve(ctx, "HEAD")
	}
	hash, ok, err = r.resolve(ctx, branch)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, vcs.BranchNotFound(branch)
	}
	return hash, true, nil
}

func (r *Repository) readLog(ctx context.Context, args ...string) ([]vcs.ChangesetInfo, error) {
	full := append([]string{"log", "--no-color", "--pretty=format:" + logFormat}, args...)
	out, err := r.git.run(ctx, full...)
	if err != nil {
		return nil, err
	}
	return parseLog(out)
}

func (r *Repository) GetChangeset(ctx context.Context, revision string) (vcs.Changeset, error) {
	if revision == "" {
		return r.LastChange(ctx)
	}
	if cs, ok := r.cache.Get(revision); ok {
		return cs, nil
	}

	hash, ok, err := r.resolve(ctx, revision)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, vcs.ChangesetNotFound(revision)
	}

	return r.cache.GetOrLoad(hash, func() (vcs.Changeset, error) {
		infos, err := r.readLog(ctx, "-1", hash)
		if err != nil {
			return nil, err
		}
		if len(infos) != 1 {
			return nil, vcs.ChangesetNotFound(revision)
		}
		return r.newChangeset(infos[0]), nil
	})
}

func (r *Repository) GetChangesets(ctx context.Context, opts vcs.ListOptions) ([]vcs.Changeset, error) {
	tip, ok, err := r.tip(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []vcs.Changeset{}, nil
	}

	// git log --since stops walking at the first older commit, which hides
	// newer commits behind a clock-skewed ancestor. Filter in Go instead.
	infos, err := r.readLog(ctx, tip)
	if err != nil {
		return nil, err
	}

	all := make([]vcs.Changeset, 0, len(infos))
	for _, info := range infos {
		info := info
		cs, err := r.cache.GetOrLoad(info.ID, func() (vcs.Changeset, error) {
			return r.newChangeset(info), nil
		})
		if err != nil {
			return nil, err
		}
		all = append(all, cs)
	}
	return vcs.SelectChangesets(all, opts), nil
}

func (r *Repository) newChangeset(info vcs.ChangesetInfo) vcs.Changeset {
	r.log.WithField(logging.RevisionFieldKey, info.ID).Debug("changeset cache miss")
	return vcs.NewChangeset(info, func(ctx context.Context) ([]vcs.Node, error) {
		out, err := r.git.run(ctx, "ls-tree", "-r", "-t", "-l", "-z", info.ID)
		if err != nil {
			return nil, err
		}
		return parseLsTree(out)
	})
}

func (r *Repository) refs(ctx context.Context, pattern string) ([]vcs.Ref, error) {
	out, err := r.git.run(ctx, "for-each-ref", "--format="+refFormat, pattern)
	if err != nil {
		return nil, err
	}
	return parseRefs(out)
}

func (r *Repository) findRef(ctx context.Context, refname string) (vcs.Ref, bool, error) {
	refs, err := r.refs(ctx, refname)
	if err != nil {
		return vcs.Ref{}, false, err
	}
	for _, ref := range refs {
		if ref.ID == refname {
			return ref, true, nil
		}
	}
	return vcs.Ref{}, false, nil
}

func (r *Repository) GetTags(ctx context.Context, opts vcs.ListOptions) ([]vcs.Tag, error) {
	refs, err := r.refs(ctx, "refs/tags")
	if err != nil {
		return nil, err
	}
	tags := make([]vcs.Tag, len(refs))
	for i, ref := range refs {
		tags[i] = vcs.Tag(ref)
	}
	return vcs.SelectTags(tags, opts), nil
}

func (r *Repository) GetTagByName(ctx context.Context, name string) (vcs.Tag, error) {
	return r.GetTag(ctx, "refs/tags/"+name)
}

// GetTag looks a tag up by its full reference name, e.g. "refs/tags/v1.0".
func (r *Repository) GetTag(ctx context.Context, id string) (vcs.Tag, error) {
	if !strings.HasPrefix(id, "refs/tags/") {
		return vcs.Tag{}, vcs.TagNotFound(id)
	}
	ref, ok, err := r.findRef(ctx, id)
	if err != nil {
		return vcs.Tag{}, err
	}
	if !ok {
		return vcs.Tag{}, vcs.TagNotFound(shortRefName(id))
	}
	return vcs.Tag(ref), nil
}

func (r *Repository) GetBranches(ctx context.Context, opts vcs.ListOptions) ([]vcs.Branch, error) {
	refs, err := r.refs(ctx, "refs/heads")
	if err != nil {
		return nil, err
	}
	branches := make([]vcs.Branch, len(refs))
	for i, ref := range refs {
		branches[i] = vcs.Branch(ref)
	}
	return vcs.SelectBranches(branches, opts), nil
}

func (r *Repository) GetBranchByName(ctx context.Context, name string) (vcs.Branch, error) {
	return r.GetBranch(ctx, "refs/heads/"+name)
}

// GetBranch looks a branch up by its full reference name, e.g. "refs/heads/main".
func (r *Repository) GetBranch(ctx context.Context, id string) (vcs.Branch, error) {
	if !strings.HasPrefix(id, "refs/heads/") {
		return vcs.Branch{}, vcs.BranchNotFound(id)
	}
	ref, ok, err := r.findRef(ctx, id)
	if err != nil {
		return vcs.Branch{}, err
	}
	if !ok {
		return vcs.Branch{}, vcs.BranchNotFound(shortRefName(id))
	}
	return vcs.Branch(ref), nil
}

func (r *Repository) GetFiles(ctx context.Context, limit int) ([]vcs.Node, error) {
	_, ok, err := r.tip(ctx)
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

// Compile-time interface conformance check.
var _ vcs.Repository = (*Repository)(nil)
