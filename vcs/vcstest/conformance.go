package vcstest

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/masmgr/govcs/vcs"
)

// Factory adapts a backend to the conformance suite.
type Factory struct {
	// Open is the backend's vcs.OpenFunc.
	Open vcs.OpenFunc
	// Build materializes fx at dir and opens it.
	Build func(t *testing.T, dir string, fx Fixture) vcs.Repository
}

// RunConformance checks the repository contract against f.
func RunConformance(t *testing.T, f Factory) {
	t.Run("OpenMissing", func(t *testing.T) { testOpenMissing(t, f) })
	t.Run("CreateEmpty", func(t *testing.T) { testCreateEmpty(t, f) })

	fx := StandardFixture()
	repo := f.Build(t, t.TempDir(), fx)
	ids := changesetIDsByMessage(t, repo)

	t.Run("LastChange", func(t *testing.T) { testLastChange(t, repo) })
	t.Run("GetChangesetRoundTrip", func(t *testing.T) { testGetChangesetRoundTrip(t, repo) })
	t.Run("GetChangesetUnknown", func(t *testing.T) { testGetChangesetUnknown(t, repo) })
	t.Run("Ordering", func(t *testing.T) { testOrdering(t, repo, fx) })
	t.Run("SinceAndLimit", func(t *testing.T) { testSinceAndLimit(t, repo, fx, ids) })
	t.Run("Metadata", func(t *testing.T) { testMetadata(t, repo, fx, ids) })
	t.Run("Nodes", func(t *testing.T) { testNodes(t, repo, fx, ids) })
	t.Run("Tags", func(t *testing.T) { testTags(t, repo, fx, ids) })
	t.Run("Branches", func(t *testing.T) { testBranches(t, repo, fx, ids) })
	t.Run("Files", func(t *testing.T) { testFiles(t, repo, fx) })
	t.Run("ConcurrentGetChangeset", func(t *testing.T) { testConcurrentGetChangeset(t, repo) })
	t.Run("SkewedHistory", func(t *testing.T) { testSkewedHistory(t, f) })
}

func changesetIDsByMessage(t *testing.T, repo vcs.Repository) map[string]string {
	t.Helper()
	all, err := repo.GetChangesets(context.Background(), vcs.ListOptions{})
	if err != nil {
		t.Fatalf("GetChangesets: %v", err)
	}
	ids := make(map[string]string, len(all))
	for _, cs := range all {
		ids[cs.Message()] = cs.ID()
	}
	return ids
}

func testOpenMissing(t *testing.T, f Factory) {
	path := filepath.Join(t.TempDir(), "missing")
	_, err := f.Open(context.Background(), path, vcs.OpenOptions{})
	if !errors.Is(err, vcs.ErrRepositoryNotFound) {
		t.Fatalf("Open(missing) error = %v, want ErrRepositoryNotFound", err)
	}
}

func testCreateEmpty(t *testing.T, f Factory) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "created")

	repo, err := f.Open(ctx, path, vcs.OpenOptions{Create: true})
	if err != nil {
		t.Fatalf("Open(create) error = %v", err)
	}
	if repo.Path() != path {
		t.Errorf("Path() = %q, want %q", repo.Path(), path)
	}
	if !repo.IsValid(ctx) {
		t.Errorf("IsValid() = false for a created repository")
	}

	all, err := repo.GetChangesets(ctx, vcs.ListOptions{})
	if err != nil {
		t.Fatalf("GetChangesets on empty repository: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("empty repository has %d changesets", len(all))
	}
	if _, err := repo.LastChange(ctx); !errors.Is(err, vcs.ErrChangesetNotFound) {
		t.Errorf("LastChange on empty repository error = %v, want ErrChangesetNotFound", err)
	}
	if _, err := repo.GetChangeset(ctx, ""); !errors.Is(err, vcs.ErrChangesetNotFound) {
		t.Errorf("GetChangeset(\"\") on empty repository error = %v, want ErrChangesetNotFound", err)
	}
	files, err := repo.GetFiles(ctx, 0)
	if err != nil {
		t.Errorf("GetFiles on empty repository: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("GetFiles on empty repository = %d files", len(files))
	}

	// Reopening without Create finds the repository just created.
	if _, err := f.Open(ctx, path, vcs.OpenOptions{}); err != nil {
		t.Errorf("reopen created repository: %v", err)
	}
	// Create on an existing repository opens it.
	if _, err := f.Open(ctx, path, vcs.OpenOptions{Create: true}); err != nil {
		t.Errorf("Open(create) on existing repository: %v", err)
	}
}

func testLastChange(t *testing.T, repo vcs.Repository) {
	ctx := context.Background()
	last, err := repo.LastChange(ctx)
	if err != nil {
		t.Fatalf("LastChange: %v", err)
	}
	first, err := repo.GetChangesets(ctx, vcs.ListOptions{Limit: 1})
	if err != nil {
		t.Fatalf("GetChangesets(limit=1): %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("GetChangesets(limit=1) returned %d changesets", len(first))
	}
	if last.ID() != first[0].ID() {
		t.Fatalf("LastChange() = %s, GetChangesets(limit=1)[0] = %s", last.ID(), first[0].ID())
	}

	latest, err := repo.GetChangeset(ctx, "")
	if err != nil {
		t.Fatalf("GetChangeset(\"\"): %v", err)
	}
	if latest.ID() != last.ID() {
		t.Fatalf("GetChangeset(\"\") = %s, LastChange() = %s", latest.ID(), last.ID())
	}
}

func testGetChangesetRoundTrip(t *testing.T, repo vcs.Repository) {
	ctx := context.Background()
	all, err := repo.GetChangesets(ctx, vcs.ListOptions{})
	if err != nil {
		t.Fatalf("GetChangesets: %v", err)
	}
	for _, cs := range all {
		got, err := repo.GetChangeset(ctx, cs.ID())
		if err != nil {
			t.Fatalf("GetChangeset(%s): %v", cs.ID(), err)
		}
		if got.ID() != cs.ID() || !got.When().Equal(cs.When()) ||
			got.Author() != cs.Author() || got.Message() != cs.Message() {
			t.Errorf("GetChangeset(%s) = {%s %v %q %q}, want {%s %v %q %q}",
				cs.ID(), got.ID(), got.When(), got.Author(), got.Message(),
				cs.ID(), cs.When(), cs.Author(), cs.Message())
		}
	}
}

func testGetChangesetUnknown(t *testing.T, repo vcs.Repository) {
	_, err := repo.GetChangeset(context.Background(), "0123456789abcdef0123456789abcdef01234567")
	if !errors.Is(err, vcs.ErrChangesetNotFound) {
		t.Fatalf("GetChangeset(unknown) error = %v, want ErrChangesetNotFound", err)
	}
}

func testOrdering(t *testing.T, repo vcs.Repository, fx Fixture) {
	all, err := repo.GetChangesets(context.Background(), vcs.ListOptions{})
	if err != nil {
		t.Fatalf("GetChangesets: %v", err)
	}
	if len(all) != len(fx.Commits) {
		t.Fatalf("GetChangesets returned %d changesets, want %d", len(all), len(fx.Commits))
	}
	for i := 1; i < len(all); i++ {
		if all[i].When().After(all[i-1].When()) {
			t.Fatalf("changeset %d (%v) is newer than changeset %d (%v)", i, all[i].When(), i-1, all[i-1].When())
		}
		if all[i].When().Equal(all[i-1].When()) && all[i].ID() > all[i-1].ID() {
			t.Fatalf("tie at %v not broken by descending ID: %s before %s", all[i].When(), all[i-1].ID(), all[i].ID())
		}
	}
}

func testSinceAndLimit(t *testing.T, repo vcs.Repository, fx Fixture, ids map[string]string) {
	ctx := context.Background()
	since := fx.Commits[1].When

	got, err := repo.GetChangesets(ctx, vcs.ListOptions{Since: &since})
	if err != nil {
		t.Fatalf("GetChangesets(since): %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("GetChangesets(since=%v) returned %d changesets, want 3 (bound is inclusive)", since, len(got))
	}
	for _, cs := range got {
		if cs.When().Before(since) {
			t.Errorf("changeset %s at %v is before since %v", cs.ID(), cs.When(), since)
		}
	}

	got, err = repo.GetChangesets(ctx, vcs.ListOptions{Since: &since, Limit: 2})
	if err != nil {
		t.Fatalf("GetChangesets(since, limit): %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetChangesets(since, limit=2) returned %d changesets", len(got))
	}
	want := map[string]bool{ids[fx.Commits[2].Message]: true, ids[fx.Commits[3].Message]: true}
	for _, cs := range got {
		if !want[cs.ID()] {
			t.Errorf("GetChangesets(since, limit=2) returned %s (%q), want the two newest", cs.ID(), cs.Message())
		}
	}

	future := fx.Commits[len(fx.Commits)-1].When.Add(time.Hour)
	got, err = repo.GetChangesets(ctx, vcs.ListOptions{Since: &future})
	if err != nil {
		t.Fatalf("GetChangesets(future): %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("GetChangesets(since=future) returned %d changesets", len(got))
	}

	got, err = repo.GetChangesets(ctx, vcs.ListOptions{Limit: 100})
	if err != nil {
		t.Fatalf("GetChangesets(limit=100): %v", err)
	}
	if len(got) != len(fx.Commits) {
		t.Fatalf("GetChangesets(limit=100) returned %d changesets, want %d", len(got), len(fx.Commits))
	}
}

func testMetadata(t *testing.T, repo vcs.Repository, fx Fixture, ids map[string]string) {
	ctx := context.Background()
	for _, c := range fx.Commits {
		id, ok := ids[c.Message]
		if !ok {
			t.Fatalf("no changeset with message %q", c.Message)
		}
		cs, err := repo.GetChangeset(ctx, id)
		if err != nil {
			t.Fatalf("GetChangeset(%s): %v", id, err)
		}
		if want := c.Author + " <" + c.Email + ">"; cs.Author() != want {
			t.Errorf("Author() = %q, want %q", cs.Author(), want)
		}
		if !cs.When().Equal(c.When) {
			t.Errorf("When() = %v, want %v", cs.When(), c.When)
		}
	}
}

func testNodes(t *testing.T, repo vcs.Repository, fx Fixture, ids map[string]string) {
	ctx := context.Background()
	for i, c := range fx.Commits {
		cs, err := repo.GetChangeset(ctx, ids[c.Message])
		if err != nil {
			t.Fatalf("GetChangeset: %v", err)
		}
		CheckNodeInvariants(t, cs)

		tree := fx.TreeAt(i)
		files, err := cs.Files(ctx)
		if err != nil {
			t.Fatalf("Files: %v", err)
		}
		if len(files) != len(tree) {
			t.Errorf("%q: %d files, want %d", c.Message, len(files), len(tree))
		}

		var wantSize int64
		for p, content := range tree {
			wantSize += int64(len(content))
			n, err := cs.GetNode(ctx, p)
			if err != nil {
				t.Fatalf("%q: GetNode(%s): %v", c.Message, p, err)
			}
			if !n.IsFile() || n.Size != int64(len(content)) {
				t.Errorf("%q: GetNode(%s) = %+v, want file of %d bytes", c.Message, p, n, len(content))
			}
		}
		size, err := cs.Size(ctx)
		if err != nil {
			t.Fatalf("Size: %v", err)
		}
		if size != wantSize {
			t.Errorf("%q: Size() = %d, want %d", c.Message, size, wantSize)
		}

		if _, err := cs.GetNode(ctx, "no/such/file"); !errors.Is(err, vcs.ErrNodeNotFound) {
			t.Errorf("GetNode(missing) error = %v, want ErrNodeNotFound", err)
		}
	}

	last, err := repo.LastChange(ctx)
	if err != nil {
		t.Fatalf("LastChange: %v", err)
	}
	dir, err := last.GetNode(ctx, "src/util")
	if err != nil {
		t.Fatalf("GetNode(src/util): %v", err)
	}
	if !dir.IsDir() {
		t.Errorf("GetNode(src/util) kind = %s, want dir", dir.Kind)
	}
	children, err := last.Children(ctx, "src")
	if err != nil {
		t.Fatalf("Children(src): %v", err)
	}
	if len(children) != 2 || children[0].Path != "src/main.go" || children[1].Path != "src/util" {
		t.Errorf("Children(src) = %+v, want [src/main.go src/util]", children)
	}
	if _, err := last.Children(ctx, "README.md"); !errors.Is(err, vcs.ErrNotADirectory) {
		t.Errorf("Children(file) error = %v, want ErrNotADirectory", err)
	}
}

// CheckNodeInvariants verifies that Nodes is exactly the disjoint union of
// Files and Dirs and that Root resolves like GetNode("").
func CheckNodeInvariants(t *testing.T, cs vcs.Changeset) {
	t.Helper()
	ctx := context.Background()

	files, err := cs.Files(ctx)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	dirs, err := cs.Dirs(ctx)
	if err != nil {
		t.Fatalf("Dirs: %v", err)
	}
	nodes, err := cs.Nodes(ctx)
	if err != nil {
		t.Fatalf("Nodes: %v", err)
	}

	union := map[string]vcs.NodeKind{}
	for _, f := range files {
		if !f.IsFile() {
			t.Errorf("Files() contains %s of kind %s", f.Path, f.Kind)
		}
		union[f.Path] = vcs.KindFile
	}
	for _, d := range dirs {
		if !d.IsDir() {
			t.Errorf("Dirs() contains %s of kind %s", d.Path, d.Kind)
		}
		if _, dup := union[d.Path]; dup {
			t.Errorf("%s is both a file and a dir", d.Path)
		}
		union[d.Path] = vcs.KindDir
	}

	seen := map[string]bool{}
	for _, n := range nodes {
		if seen[n.Path] {
			t.Errorf("Nodes() lists %s twice", n.Path)
		}
		seen[n.Path] = true
		if kind, ok := union[n.Path]; !ok || kind != n.Kind {
			t.Errorf("Nodes() entry %s (%s) not in Files ∪ Dirs", n.Path, n.Kind)
		}
	}
	if len(seen) != len(union) {
		t.Errorf("Nodes() has %d entries, Files ∪ Dirs has %d", len(seen), len(union))
	}

	root, err := cs.Root(ctx)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	byPath, err := cs.GetNode(ctx, "")
	if err != nil {
		t.Fatalf("GetNode(\"\"): %v", err)
	}
	if root != byPath || !root.IsRoot() || !root.IsDir() {
		t.Errorf("Root() = %+v, GetNode(\"\") = %+v", root, byPath)
	}
}

func sameRef(a, b vcs.Ref) bool {
	return a.ID == b.ID && a.Name == b.Name && a.Revision == b.Revision && a.When.Equal(b.When)
}

func testTags(t *testing.T, repo vcs.Repository, fx Fixture, ids map[string]string) {
	ctx := context.Background()
	for _, ft := range fx.Tags {
		tag, err := repo.GetTagByName(ctx, ft.Name)
		if err != nil {
			t.Fatalf("GetTagByName(%s): %v", ft.Name, err)
		}
		if want := ids[fx.Commits[ft.Commit].Message]; tag.Revision != want {
			t.Errorf("tag %s revision = %s, want %s", ft.Name, tag.Revision, want)
		}
		if !tag.When.Equal(fx.Commits[ft.Commit].When) {
			t.Errorf("tag %s when = %v, want %v", ft.Name, tag.When, fx.Commits[ft.Commit].When)
		}
		byID, err := repo.GetTag(ctx, tag.ID)
		if err != nil {
			t.Fatalf("GetTag(%s): %v", tag.ID, err)
		}
		if !sameRef(vcs.Ref(byID), vcs.Ref(tag)) {
			t.Errorf("GetTag(%s) = %+v, want %+v", tag.ID, byID, tag)
		}
	}

	_, err := repo.GetTagByName(ctx, "no-such-tag")
	if !errors.Is(err, vcs.ErrNotFound) || !errors.Is(err, vcs.ErrTagNotFound) {
		t.Errorf("GetTagByName(missing) error = %v, want ErrTagNotFound", err)
	}
	if _, err := repo.GetTag(ctx, "no-such-id"); !errors.Is(err, vcs.ErrNotFound) {
		t.Errorf("GetTag(missing) error = %v, want ErrNotFound", err)
	}

	all, err := repo.GetTags(ctx, vcs.ListOptions{})
	if err != nil {
		t.Fatalf("GetTags: %v", err)
	}
	if len(all) != len(fx.Tags) {
		t.Fatalf("GetTags returned %d tags, want %d", len(all), len(fx.Tags))
	}
	if all[0].Name != "v0.2" {
		t.Errorf("GetTags()[0] = %s, want the newest tag v0.2", all[0].Name)
	}

	since := fx.Commits[1].When.Add(time.Second)
	recent, err := repo.GetTags(ctx, vcs.ListOptions{Since: &since})
	if err != nil {
		t.Fatalf("GetTags(since): %v", err)
	}
	if len(recent) != 1 || recent[0].Name != "v0.2" {
		t.Errorf("GetTags(since) = %+v, want only v0.2", recent)
	}

	limited, err := repo.GetTags(ctx, vcs.ListOptions{Limit: 1})
	if err != nil {
		t.Fatalf("GetTags(limit): %v", err)
	}
	if len(limited) != 1 || limited[0].Name != "v0.2" {
		t.Errorf("GetTags(limit=1) = %+v, want only v0.2", limited)
	}
}

func testBranches(t *testing.T, repo vcs.Repository, fx Fixture, ids map[string]string) {
	ctx := context.Background()
	for _, fb := range fx.Branches {
		b, err := repo.GetBranchByName(ctx, fb.Name)
		if err != nil {
			t.Fatalf("GetBranchByName(%s): %v", fb.Name, err)
		}
		if want := ids[fx.Commits[fb.Commit].Message]; b.Revision != want {
			t.Errorf("branch %s revision = %s, want %s", fb.Name, b.Revision, want)
		}
		byID, err := repo.GetBranch(ctx, b.ID)
		if err != nil {
			t.Fatalf("GetBranch(%s): %v", b.ID, err)
		}
		if !sameRef(vcs.Ref(byID), vcs.Ref(b)) {
			t.Errorf("GetBranch(%s) = %+v, want %+v", b.ID, byID, b)
		}
	}

	_, err := repo.GetBranchByName(ctx, "no-such-branch")
	if !errors.Is(err, vcs.ErrNotFound) || !errors.Is(err, vcs.ErrBranchNotFound) {
		t.Errorf("GetBranchByName(missing) error = %v, want ErrBranchNotFound", err)
	}
	if _, err := repo.GetBranch(ctx, "no-such-id"); !errors.Is(err, vcs.ErrNotFound) {
		t.Errorf("GetBranch(missing) error = %v, want ErrNotFound", err)
	}

	future := fx.Commits[len(fx.Commits)-1].When.Add(time.Hour)
	none, err := repo.GetBranches(ctx, vcs.ListOptions{Since: &future})
	if err != nil {
		t.Fatalf("GetBranches(future): %v", err)
	}
	if len(none) != 0 {
		t.Errorf("GetBranches(since=future) = %+v, want none", none)
	}

	all, err := repo.GetBranches(ctx, vcs.ListOptions{})
	if err != nil {
		t.Fatalf("GetBranches: %v", err)
	}
	for i := 1; i < len(all); i++ {
		if all[i].When.After(all[i-1].When) {
			t.Errorf("branches not ordered most recent first: %+v", all)
		}
	}
}

func testFiles(t *testing.T, repo vcs.Repository, fx Fixture) {
	ctx := context.Background()
	last, err := repo.LastChange(ctx)
	if err != nil {
		t.Fatalf("LastChange: %v", err)
	}
	want, err := last.Files(ctx)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	files, err := repo.GetFiles(ctx, 0)
	if err != nil {
		t.Fatalf("GetFiles: %v", err)
	}
	if len(files) != len(want) || len(files) != len(fx.TreeAt(len(fx.Commits)-1)) {
		t.Fatalf("GetFiles() returned %d files, want %d", len(files), len(want))
	}
	for i := range files {
		if files[i] != want[i] {
			t.Errorf("GetFiles()[%d] = %+v, want %+v", i, files[i], want[i])
		}
	}

	limited, err := repo.GetFiles(ctx, 2)
	if err != nil {
		t.Fatalf("GetFiles(2): %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("GetFiles(2) returned %d files", len(limited))
	}
}

func testConcurrentGetChangeset(t *testing.T, repo vcs.Repository) {
	ctx := context.Background()
	last, err := repo.LastChange(ctx)
	if err != nil {
		t.Fatalf("LastChange: %v", err)
	}
	id := last.ID()

	const workers = 8
	results := make([]vcs.Changeset, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cs, err := repo.GetChangeset(ctx, id)
			if err == nil {
				_, err = cs.Nodes(ctx)
			}
			results[i], errs[i] = cs, err
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Fatalf("worker %d received a different changeset instance for %s", i, id)
		}
	}
}

func messages(cs []vcs.Changeset) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Message()
	}
	return out
}

func equalMessages(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// testSkewedHistory checks that time filtering follows commit times rather
// than ancestry: a commit newer than Since stays listed even when an older
// commit sits between it and the tip.
func testSkewedHistory(t *testing.T, f Factory) {
	ctx := context.Background()
	fx := SkewedFixture()
	repo := f.Build(t, t.TempDir(), fx)

	all, err := repo.GetChangesets(ctx, vcs.ListOptions{})
	if err != nil {
		t.Fatalf("GetChangesets: %v", err)
	}
	if got := messages(all); !equalMessages(got, "merge", "side", "root", "skewed") {
		t.Fatalf("GetChangesets() = %v, expected [merge side root skewed]", got)
	}

	since := fx.Commits[0].When
	recent, err := repo.GetChangesets(ctx, vcs.ListOptions{Since: &since})
	if err != nil {
		t.Fatalf("GetChangesets(since): %v", err)
	}
	if got := messages(recent); !equalMessages(got, "merge", "side", "root") {
		t.Fatalf("GetChangesets(since=%v) = %v, expected [merge side root]", since, got)
	}

	limited, err := repo.GetChangesets(ctx, vcs.ListOptions{Since: &since, Limit: 2})
	if err != nil {
		t.Fatalf("GetChangesets(since, limit): %v", err)
	}
	if got := messages(limited); !equalMessages(got, "merge", "side") {
		t.Fatalf("GetChangesets(since, limit=2) = %v, expected [merge side]", got)
	}

	last, err := repo.LastChange(ctx)
	if err != nil {
		t.Fatalf("LastChange: %v", err)
	}
	if last.Message() != "merge" {
		t.Fatalf("LastChange() = %q, expected merge", last.Message())
	}
	files, err := last.Files(ctx)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if want := len(fx.TreeAt(len(fx.Commits) - 1)); len(files) != want {
		t.Errorf("merge has %d files, expected %d", len(files), want)
	}
}
