package vcs

import (
	"context"
	"sort"
	"time"
)

// Changesets and references are ordered most recent first. Entries sharing a
// timestamp are ordered by identifier, descending, so listings are stable.
func newerFirst(aWhen time.Time, aID string, bWhen time.Time, bID string) bool {
	if !aWhen.Equal(bWhen) {
		return aWhen.After(bWhen)
	}
	return aID > bID
}

// SelectChangesets applies opts to cs: it drops changesets before Since
// (inclusive bound), orders the rest most recent first and keeps at most
// Limit of them. The input slice is not modified.
func SelectChangesets(cs []Changeset, opts ListOptions) []Changeset {
	return selectRecent(cs, opts, func(c Changeset) (time.Time, string) { return c.When(), c.ID() })
}

// SelectTags applies opts to tags by the time of the revision each points to.
func SelectTags(tags []Tag, opts ListOptions) []Tag {
	return selectRecent(tags, opts, func(t Tag) (time.Time, string) { return t.When, t.ID })
}

// SelectBranches applies opts to branches by the time of the revision each points to.
func SelectBranches(branches []Branch, opts ListOptions) []Branch {
	return selectRecent(branches, opts, func(b Branch) (time.Time, string) { return b.When, b.ID })
}

func selectRecent[T any](items []T, opts ListOptions, key func(T) (time.Time, string)) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		when, _ := key(item)
		if opts.Since != nil && when.Before(*opts.Since) {
			continue
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		iw, iid := key(out[i])
		jw, jid := key(out[j])
		return newerFirst(iw, iid, jw, jid)
	})

	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out
}

// LastChange returns the first changeset of GetChangesets with a limit of one.
// Backends delegate Repository.LastChange to it.
func LastChange(ctx context.Context, r Repository) (Changeset, error) {
	cs, err := r.GetChangesets(ctx, ListOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(cs) == 0 {
		return nil, ChangesetNotFound("")
	}
	return cs[0], nil
}
