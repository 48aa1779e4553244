// Package vcstest provides an in-memory backend and a conformance suite that
// checks any vcs.Repository implementation against the shared contract.
package vcstest

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// FixtureCommit describes one commit. Files are written on top of the
// previous commit's tree, keyed by slash-separated path.
type FixtureCommit struct {
	Message string
	Author  string
	Email   string
	When    time.Time
	Files   map[string]string
	// Parents lists parent commits by index. Nil means the previous commit.
	// Only the git writer records parents; every fixture commit must be
	// reachable from the last one.
	Parents []int
}

// FixtureRef points a tag or branch at a commit by index.
type FixtureRef struct {
	Name      string
	Commit    int
	Annotated bool
}

// Fixture is a backend-neutral description of a repository history.
type Fixture struct {
	Commits  []FixtureCommit // oldest first
	Tags     []FixtureRef
	Branches []FixtureRef
}

// BaseTime is the time of the first commit of StandardFixture.
var BaseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// StandardFixture returns the history the conformance suite runs against.
// The last two commits share a timestamp.
func StandardFixture() Fixture {
	return Fixture{
		Commits: []FixtureCommit{
			{
				Message: "initial import",
				Author:  "Alice",
				Email:   "alice@example.com",
				When:    BaseTime,
				Files: map[string]string{
					"README.md":     "hello\n",
					"docs/guide.md": "guide\n",
				},
			},
			{
				Message: "add sources",
				Author:  "Bob",
				Email:   "bob@example.com",
				When:    BaseTime.Add(time.Hour),
				Files: map[string]string{
					"src/main.go":      "package main\n",
					"src/util/util.go": "package util\n",
				},
			},
			{
				Message: "update readme",
				Author:  "Alice",
				Email:   "alice@example.com",
				When:    BaseTime.Add(2 * time.Hour),
				Files: map[string]string{
					"README.md": "hello world\n",
				},
			},
			{
				Message: "add notes",
				Author:  "Carol",
				Email:   "carol@example.com",
				When:    BaseTime.Add(2 * time.Hour),
				Files: map[string]string{
					"docs/notes.txt": "notes\n",
				},
			},
		},
		Tags: []FixtureRef{
			{Name: "v0.1", Commit: 1},
			{Name: "v0.2", Commit: 3, Annotated: true},
		},
		Branches: []FixtureRef{
			{Name: "feature", Commit: 2},
		},
	}
}

// SkewedFixture returns a history whose commit times do not follow its
// ancestry: "skewed" is older than its parent, and a merge joins it with a
// side line that is newer.
//
//	root (T+100) -- skewed (T+50) ---- merge (T+200)
//	      \-------- side (T+150) ----/
func SkewedFixture() Fixture {
	at := func(minutes int) time.Time { return BaseTime.Add(time.Duration(minutes) * time.Minute) }
	return Fixture{
		Commits: []FixtureCommit{
			{
				Message: "root",
				Author:  "Alice",
				Email:   "alice@example.com",
				When:    at(100),
				Files:   map[string]string{"a.txt": "a\n"},
			},
			{
				Message: "skewed",
				Author:  "Bob",
				Email:   "bob@example.com",
				When:    at(50),
				Files:   map[string]string{"b.txt": "b\n"},
			},
			{
				Message: "side",
				Author:  "Carol",
				Email:   "carol@example.com",
				When:    at(150),
				Files:   map[string]string{"lib/c.txt": "c\n"},
				Parents: []int{0},
			},
			{
				Message: "merge",
				Author:  "Alice",
				Email:   "alice@example.com",
				When:    at(200),
				Files:   map[string]string{"a.txt": "merged\n"},
				Parents: []int{1, 2},
			},
		},
	}
}

// TreeAt returns the cumulative file contents after commit i.
func (fx Fixture) TreeAt(i int) map[string]string {
	tree := map[string]string{}
	for _, c := range fx.Commits[:i+1] {
		for p, content := range c.Files {
			tree[p] = content
		}
	}
	return tree
}

func sortedPaths(files map[string]string) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// BuildGit materializes fx as a non-bare git repository at dir using go-git.
func BuildGit(t testing.TB, dir string, fx Fixture) {
	t.Helper()

	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}

	hashes := make([]plumbing.Hash, len(fx.Commits))
	for i, c := range fx.Commits {
		for _, rel := range sortedPaths(c.Files) {
			full := filepath.Join(dir, filepath.FromSlash(rel))
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				t.Fatalf("MkdirAll: %v", err)
			}
			if err := os.WriteFile(full, []byte(c.Files[rel]), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if _, err := wt.Add(rel); err != nil {
				t.Fatalf("Add(%s): %v", rel, err)
			}
		}

		sig := &object.Signature{Name: c.Author, Email: c.Email, When: c.When}
		opts := &gogit.CommitOptions{Author: sig, Committer: sig}
		for _, p := range c.Parents {
			opts.Parents = append(opts.Parents, hashes[p])
		}
		hash, err := wt.Commit(c.Message, opts)
		if err != nil {
			t.Fatalf("Commit(%q): %v", c.Message, err)
		}
		hashes[i] = hash
	}

	for _, tag := range fx.Tags {
		var opts *gogit.CreateTagOptions
		if tag.Annotated {
			c := fx.Commits[tag.Commit]
			opts = &gogit.CreateTagOptions{
				Tagger:  &object.Signature{Name: c.Author, Email: c.Email, When: c.When},
				Message: "release " + tag.Name,
			}
		}
		if _, err := repo.CreateTag(tag.Name, hashes[tag.Commit], opts); err != nil {
			t.Fatalf("CreateTag(%s): %v", tag.Name, err)
		}
	}

	for _, b := range fx.Branches {
		ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(b.Name), hashes[b.Commit])
		if err := repo.Storer.SetReference(ref); err != nil {
			t.Fatalf("SetReference(%s): %v", b.Name, err)
		}
	}
}
