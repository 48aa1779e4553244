package vcs

import (
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// ChangesetCache maps revision identifiers to changesets. Concurrent lookups
// of the same missing identifier share one load and receive the same
// instance.
type ChangesetCache struct {
	lru   *lru.Cache[string, Changeset]
	group singleflight.Group
}

// NewChangesetCache creates a cache. A positive size bounds it to that many
// changesets, evicting the least recently used; an evicted revision is loaded
// again on its next lookup. A non-positive size keeps every changeset, so
// each revision is loaded at most once.
func NewChangesetCache(size int) *ChangesetCache {
	if size <= 0 {
		size = math.MaxInt
	}
	c, err := lru.New[string, Changeset](size)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &ChangesetCache{lru: c}
}

// Get returns the cached changeset for id.
func (c *ChangesetCache) Get(id string) (Changeset, bool) {
	return c.lru.Get(id)
}

// GetOrLoad returns the cached changeset for id, calling load to populate
// the entry when it is missing. id must be the canonical revision
// identifier so that aliases of one revision share an entry.
func (c *ChangesetCache) GetOrLoad(id string, load func() (Changeset, error)) (Changeset, error) {
	if cs, ok := c.lru.Get(id); ok {
		return cs, nil
	}

	v, err, _ := c.group.Do(id, func() (any, error) {
		if cs, ok := c.lru.Get(id); ok {
			return cs, nil
		}
		cs, err := load()
		if err != nil {
			return nil, err
		}
		c.lru.Add(id, cs)
		return cs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Changeset), nil
}

// Len returns the number of cached changesets.
func (c *ChangesetCache) Len() int {
	return c.lru.Len()
}

// Purge drops every cached changeset.
func (c *ChangesetCache) Purge() {
	c.lru.Purge()
}
