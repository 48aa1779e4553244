package gitcli

import (
	"testing"
	"time"

	"github.com/masmgr/govcs/vcs"
)

func TestParseLog_MultilineMessages(t *testing.T) {
	out := []byte{}
	out = append(out, 0x1e)
	out = append(out, []byte("aaaa\x002024-03-01T14:00:00+00:00\x00Carol\x00carol@example.com\x00add notes\n\nlonger body\n")...)
	out = append(out, '\n')
	out = append(out, 0x1e)
	out = append(out, []byte("bbbb\x002024-03-01T12:00:00+02:00\x00Alice\x00alice@example.com\x00initial import")...)

	infos, err := parseLog(out)
	if err != nil {
		t.Fatalf("parseLog: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("records = %d, expected 2", len(infos))
	}
	if infos[0].ID != "aaaa" || infos[0].Author != "Carol <carol@example.com>" {
		t.Fatalf("infos[0] = %#v", infos[0])
	}
	if infos[0].Message != "add notes\n\nlonger body" {
		t.Fatalf("infos[0].Message = %q", infos[0].Message)
	}
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !infos[1].When.Equal(want) {
		t.Fatalf("infos[1].When = %v, expected %v", infos[1].When, want)
	}
}

func TestParseLog_Empty(t *testing.T) {
	infos, err := parseLog(nil)
	if err != nil {
		t.Fatalf("parseLog: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("records = %d, expected 0", len(infos))
	}
}

func TestParseLog_TruncatedRecord(t *testing.T) {
	out := append([]byte{0x1e}, []byte("aaaa\x002024-03-01T14:00:00Z")...)
	if _, err := parseLog(out); err == nil {
		t.Fatal("expected error for a truncated record")
	}
}

func TestParseLsTree(t *testing.T) {
	body := []byte{}
	body = append(body, []byte("040000 tree 1111111111111111111111111111111111111111       -\tdocs")...)
	body = append(body, 0)
	body = append(body, []byte("100644 blob 2222222222222222222222222222222222222222       6\tdocs/guide.md")...)
	body = append(body, 0)
	body = append(body, []byte("160000 commit 3333333333333333333333333333333333333333       -\tvendor/lib")...)
	body = append(body, 0)
	body = append(body, []byte("100755 blob 4444444444444444444444444444444444444444    1024\tpath with\ttab.sh")...)
	body = append(body, 0)

	nodes, err := parseLsTree(body)
	if err != nil {
		t.Fatalf("parseLsTree: %v", err)
	}
	want := []vcs.Node{
		{Path: "docs", Kind: vcs.KindDir},
		{Path: "docs/guide.md", Kind: vcs.KindFile, Size: 6},
		{Path: "path with\ttab.sh", Kind: vcs.KindFile, Size: 1024},
	}
	if len(nodes) != len(want) {
		t.Fatalf("nodes = %#v, expected %#v", nodes, want)
	}
	for i := range want {
		if nodes[i] != want[i] {
			t.Fatalf("nodes[%d] = %#v, expected %#v", i, nodes[i], want[i])
		}
	}
}

func TestParseLsTree_MissingNUL(t *testing.T) {
	if _, err := parseLsTree([]byte("100644 blob abc 1\tfile")); err == nil {
		t.Fatal("expected error for output without NUL terminator")
	}
}

func TestParseRefs(t *testing.T) {
	lines := "refs/tags/v0.1\x00commit\x00aaaa\x002024-03-01T13:00:00+00:00\x00\x00\x00\n" +
		"refs/tags/v0.2\x00tag\x00tttt\x00\x00commit\x00bbbb\x002024-03-01T14:00:00+00:00\n" +
		"refs/tags/tree-tag\x00tag\x00uuuu\x00\x00tree\x00cccc\x00\n" +
		"refs/heads/feature\x00commit\x00dddd\x002024-03-01T14:00:00+00:00\x00\x00\x00\n"

	refs, err := parseRefs([]byte(lines))
	if err != nil {
		t.Fatalf("parseRefs: %v", err)
	}
	if len(refs) != 3 {
		t.Fatalf("refs = %d, expected 3 (non-commit tag skipped)", len(refs))
	}
	if refs[0].Name != "v0.1" || refs[0].Revision != "aaaa" {
		t.Fatalf("refs[0] = %#v", refs[0])
	}
	if refs[1].Name != "v0.2" || refs[1].Revision != "bbbb" || refs[1].ID != "refs/tags/v0.2" {
		t.Fatalf("annotated tag not peeled: %#v", refs[1])
	}
	if refs[2].Name != "feature" || refs[2].Revision != "dddd" {
		t.Fatalf("refs[2] = %#v", refs[2])
	}
}

func TestShortRefName(t *testing.T) {
	tests := []struct {
		refname  string
		expected string
	}{
		{refname: "refs/heads/main", expected: "main"},
		{refname: "refs/heads/feature/x", expected: "feature/x"},
		{refname: "refs/tags/v1.0", expected: "v1.0"},
		{refname: "refs/remotes/origin/main", expected: "refs/remotes/origin/main"},
	}

	for _, tt := range tests {
		if got := shortRefName(tt.refname); got != tt.expected {
			t.Fatalf("shortRefName(%q) = %q, want %q", tt.refname, got, tt.expected)
		}
	}
}
