package vcs

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// PathFilter selects nodes by doublestar glob patterns. Exclude patterns win
// over include patterns; with no include patterns every path is accepted.
type PathFilter struct {
	Include []string
	Exclude []string
}

// Validate reports the first malformed pattern.
func (f PathFilter) Validate() error {
	for _, p := range append(append([]string{}, f.Include...), f.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return nil
}

// Match reports whether p passes the filter.
func (f PathFilter) Match(p string) bool {
	p = CleanPath(p)

	for _, pattern := range f.Exclude {
		if matched, _ := doublestar.Match(pattern, p); matched {
			return false
		}
	}

	if len(f.Include) == 0 {
		return true
	}

	for _, pattern := range f.Include {
		if matched, _ := doublestar.Match(pattern, p); matched {
			return true
		}
	}
	return false
}

// FilterNodes returns the nodes whose path passes f, preserving order.
func FilterNodes(nodes []Node, f PathFilter) []Node {
	if len(f.Include) == 0 && len(f.Exclude) == 0 {
		return nodes
	}
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if f.Match(n.Path) {
			out = append(out, n)
		}
	}
	return out
}

// LimitNodes truncates nodes to limit when limit is positive.
func LimitNodes(nodes []Node, limit int) []Node {
	if limit <= 0 || limit >= len(nodes) {
		return nodes
	}
	return nodes[:limit]
}
