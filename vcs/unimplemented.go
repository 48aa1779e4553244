package vcs

import "context"

// Unimplemented answers every Repository operation with ErrNotImplemented.
// Partial backends embed it and override the operations they support.
type Unimplemented struct {
	// Backend names the embedding backend in errors.
	Backend string
	// RepoPath is returned by Path.
	RepoPath string
}

func (u Unimplemented) err(op string) error {
	return &NotImplementedError{Backend: u.Backend, Op: op}
}

func (u Unimplemented) Path() string { return u.RepoPath }
func (u Unimplemented) Name() string { return u.RepoPath }

func (u Unimplemented) IsValid(context.Context) bool { return false }

func (u Unimplemented) Owner(context.Context) (*string, error) {
	return nil, u.err("Owner")
}

func (u Unimplemented) Description(context.Context) (*string, error) {
	return nil, u.err("Description")
}

func (u Unimplemented) LastChange(context.Context) (Changeset, error) {
	return nil, u.err("LastChange")
}

func (u Unimplemented) GetChangeset(context.Context, string) (Changeset, error) {
	return nil, u.err("GetChangeset")
}

func (u Unimplemented) GetChangesets(context.Context, ListOptions) ([]Changeset, error) {
	return nil, u.err("GetChangesets")
}

func (u Unimplemented) GetTags(context.Context, ListOptions) ([]Tag, error) {
	return nil, u.err("GetTags")
}

func (u Unimplemented) GetTagByName(context.Context, string) (Tag, error) {
	return Tag{}, u.err("GetTagByName")
}

func (u Unimplemented) GetTag(context.Context, string) (Tag, error) {
	return Tag{}, u.err("GetTag")
}

func (u Unimplemented) GetBranches(context.Context, ListOptions) ([]Branch, error) {
	return nil, u.err("GetBranches")
}

func (u Unimplemented) GetBranchByName(context.Context, string) (Branch, error) {
	return Branch{}, u.err("GetBranchByName")
}

func (u Unimplemented) GetBranch(context.Context, string) (Branch, error) {
	return Branch{}, u.err("GetBranch")
}

func (u Unimplemented) GetFiles(context.Context, int) ([]Node, error) {
	return nil, u.err("GetFiles")
}

// Compile-time interface conformance check.
var _ Repository = Unimplemented{}
