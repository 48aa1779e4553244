package vcs

import (
	"context"
	"errors"
	"testing"
)

func TestRegistry_OpenRegistered(t *testing.T) {
	name := "registry-test-backend"
	Register(name, func(_ context.Context, path string, _ OpenOptions) (Repository, error) {
		return Unimplemented{Backend: name, RepoPath: path}, nil
	})

	found := false
	for _, b := range Backends() {
		if b == name {
			found = true
		}
	}
	if !found {
		t.Fatalf("Backends() = %v, missing %q", Backends(), name)
	}

	r, err := Open(context.Background(), name, "/srv/repo", OpenOptions{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.Path() != "/srv/repo" {
		t.Fatalf("Path() = %q", r.Path())
	}
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	name := "registry-dup-backend"
	open := func(context.Context, string, OpenOptions) (Repository, error) { return nil, nil }
	Register(name, open)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic registering a backend twice")
		}
	}()
	Register(name, open)
}

func TestRegistry_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), "no-such-backend", "/tmp", OpenOptions{})
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("Open(unknown) error = %v, expected ErrUnknownBackend", err)
	}
}

func TestOpenOptions_FieldLogger(t *testing.T) {
	if (OpenOptions{}).FieldLogger() == nil {
		t.Fatal("FieldLogger() returned nil without a configured logger")
	}
}
