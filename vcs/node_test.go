package vcs

import "testing"

func TestCleanPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Root empty", input: "", expected: ""},
		{name: "Root slash", input: "/", expected: ""},
		{name: "Root dot", input: ".", expected: ""},
		{name: "Plain", input: "src/main.go", expected: "src/main.go"},
		{name: "Leading slash", input: "/src/main.go", expected: "src/main.go"},
		{name: "Trailing slash", input: "src/", expected: "src"},
		{name: "Backslashes", input: `src\util\util.go`, expected: "src/util/util.go"},
		{name: "Dot segments", input: "src/./util/../main.go", expected: "src/main.go"},
		{name: "Escaping root", input: "../../etc", expected: "etc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanPath(tt.input); got != tt.expected {
				t.Errorf("CleanPath(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNode_Name(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{path: "", expected: ""},
		{path: "README.md", expected: "README.md"},
		{path: "src/util/util.go", expected: "util.go"},
	}

	for _, tt := range tests {
		if got := (Node{Path: tt.path}).Name(); got != tt.expected {
			t.Errorf("Node{%q}.Name() = %q, expected %q", tt.path, got, tt.expected)
		}
	}
}

func TestNodeKind_String(t *testing.T) {
	if KindFile.String() != "file" || KindDir.String() != "dir" || NodeKind(9).String() != "unknown" {
		t.Fatalf("unexpected kind names: %s %s %s", KindFile, KindDir, NodeKind(9))
	}
}

func TestRootNode(t *testing.T) {
	root := RootNode()
	if !root.IsRoot() || !root.IsDir() || root.IsFile() {
		t.Fatalf("RootNode() = %#v", root)
	}
}
