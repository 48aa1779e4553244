package vcs

import (
	"path"
	"strings"
)

// NodeKind distinguishes files from directories.
type NodeKind int

const (
	KindFile NodeKind = iota
	KindDir
)

// String returns a string representation of the node kind.
func (k NodeKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return "unknown"
	}
}

// Node is a file or directory entry within a changeset's tree.
type Node struct {
	Path string
	Kind NodeKind
	Size int64 // zero for directories
}

// RootNode returns the node at the tree root.
func RootNode() Node {
	return Node{Path: "", Kind: KindDir}
}

// Name returns the last element of the node path.
func (n Node) Name() string {
	if n.Path == "" {
		return ""
	}
	return path.Base(n.Path)
}

func (n Node) IsRoot() bool { return n.Path == "" }
func (n Node) IsFile() bool { return n.Kind == KindFile }
func (n Node) IsDir() bool  { return n.Kind == KindDir }

// CleanPath normalizes a tree path: separators become "/", "." and ".."
// elements are resolved, and leading or trailing slashes are dropped.
// The root is "".
func CleanPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

func parentPath(p string) string {
	if i := strings.LastIndexByte(p, '/'); i != -1 {
		return p[:i]
	}
	return ""
}
