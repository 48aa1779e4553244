package cmd

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/masmgr/govcs/internal/output"
	"github.com/masmgr/govcs/vcs"
	"github.com/masmgr/govcs/vcs/vcstest"
)

const (
	memoryBackend = "memory"
	demoRepo      = "/mem/demo"
)

var memStore = vcstest.NewStore()

func init() {
	vcs.Register(memoryBackend, memStore.Open)
	if _, err := memStore.Put(demoRepo, vcstest.StandardFixture()); err != nil {
		panic(err)
	}
}

type runResult struct {
	stdout string
	output string
}

// runCommand runs one subcommand against the demo repository. Flags must
// precede positional arguments.
func runCommand(t *testing.T, command string, flags []string, args ...string) (runResult, error) {
	t.Helper()
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out")

	var stdout bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = io.Discard

	argv := []string{"govcs", command,
		"--backend", memoryBackend,
		"--repo", demoRepo,
		"--config", filepath.Join(dir, "absent.json"),
		"--output", outPath,
	}
	argv = append(argv, flags...)
	argv = append(argv, args...)

	err := app.Run(argv)
	res := runResult{stdout: stdout.String()}
	if data, readErr := os.ReadFile(outPath); readErr == nil {
		res.output = string(data)
	}
	return res, err
}

func decodeJSON[T any](t *testing.T, data string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, data)
	}
	return v
}

func changesetIDs(items []output.JSONChangeset) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func TestLogCommand(t *testing.T) {
	tests := []struct {
		name  string
		flags []string
		want  []string
	}{
		{name: "All", want: []string{"r0004", "r0003", "r0002", "r0001"}},
		{name: "Limit", flags: []string{"--limit", "2"}, want: []string{"r0004", "r0003"}},
		{name: "Since", flags: []string{"--since", "2024-03-02"}, want: []string{}},
		{name: "SinceAndLimit", flags: []string{"--since", "2024-03-01", "-n", "1"}, want: []string{"r0004"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := append([]string{"--format", "json"}, tt.flags...)
			res, err := runCommand(t, "log", flags)
			if err != nil {
				t.Fatalf("log: %v", err)
			}
			report := decodeJSON[output.JSONChangesetReport](t, res.output)
			if got := changesetIDs(report.Items); strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("log ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogCommand_Size(t *testing.T) {
	res, err := runCommand(t, "log", []string{"--format", "json", "--size"})
	if err != nil {
		t.Fatalf("log --size: %v", err)
	}
	report := decodeJSON[output.JSONChangesetReport](t, res.output)
	if len(report.Items) != 4 {
		t.Fatalf("items = %d, want 4", len(report.Items))
	}
	for _, item := range report.Items {
		if item.Size == nil {
			t.Fatalf("changeset %s has no size", item.ID)
		}
	}
	if got := *report.Items[0].Size; got != 50 {
		t.Fatalf("size of r0004 = %d, want 50", got)
	}
}

func TestLogCommand_DefaultLimitFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "govcs.json")
	if err := os.WriteFile(cfgPath, []byte(`{"listing": {"defaultLimit": 1}}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	// A later --config overrides the one runCommand passes.
	res, err := runCommand(t, "log", []string{"--format", "json", "--config", cfgPath})
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	report := decodeJSON[output.JSONChangesetReport](t, res.output)
	if len(report.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(report.Items))
	}
}

func TestShowCommand(t *testing.T) {
	res, err := runCommand(t, "show", []string{"--format", "json"}, "r0002")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	report := decodeJSON[output.JSONChangesetReport](t, res.output)
	if len(report.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(report.Items))
	}
	item := report.Items[0]
	if item.ID != "r0002" || item.Message != "add sources" {
		t.Fatalf("item = %+v", item)
	}
	if item.Size == nil || *item.Size != 38 {
		t.Fatalf("size = %v, want 38", item.Size)
	}
	if item.FileCount == nil || *item.FileCount != 4 || item.DirCount == nil || *item.DirCount != 3 {
		t.Fatalf("counts = %v files, %v dirs; want 4 and 3", item.FileCount, item.DirCount)
	}
}

func TestShowCommand_DefaultsToLastChange(t *testing.T) {
	res, err := runCommand(t, "show", []string{"--format", "json"})
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	report := decodeJSON[output.JSONChangesetReport](t, res.output)
	if len(report.Items) != 1 || report.Items[0].ID != "r0004" {
		t.Fatalf("items = %+v, want r0004", report.Items)
	}
}

func TestShowCommand_UnknownRevision(t *testing.T) {
	_, err := runCommand(t, "show", nil, "nope")
	if !errors.Is(err, vcs.ErrChangesetNotFound) {
		t.Fatalf("show error = %v, want ErrChangesetNotFound", err)
	}
}

func TestTagsCommand(t *testing.T) {
	res, err := runCommand(t, "tags", []string{"--format", "csv"})
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	rows, err := csv.NewReader(strings.NewReader(res.output)).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[1][1] != "v0.2" || rows[2][1] != "v0.1" {
		t.Fatalf("tag order = %s, %s; want v0.2, v0.1", rows[1][1], rows[2][1])
	}
}

func TestTagsCommand_ByName(t *testing.T) {
	res, err := runCommand(t, "tags", []string{"--format", "json", "--name", "v0.1"})
	if err != nil {
		t.Fatalf("tags --name: %v", err)
	}
	report := decodeJSON[output.JSONRefReport](t, res.output)
	if len(report.Items) != 1 || report.Items[0].Revision != "r0002" {
		t.Fatalf("items = %+v", report.Items)
	}

	_, err = runCommand(t, "tags", []string{"--name", "v9"})
	if !errors.Is(err, vcs.ErrTagNotFound) || !errors.Is(err, vcs.ErrNotFound) {
		t.Fatalf("tags --name v9 error = %v, want ErrTagNotFound", err)
	}
}

func TestBranchesCommand(t *testing.T) {
	res, err := runCommand(t, "branches", []string{"--format", "json"})
	if err != nil {
		t.Fatalf("branches: %v", err)
	}
	report := decodeJSON[output.JSONRefReport](t, res.output)
	if report.Kind != "branch" || len(report.Items) != 1 || report.Items[0].Name != "feature" {
		t.Fatalf("report = %+v", report)
	}

	_, err = runCommand(t, "branches", []string{"--id", "heads/nope"})
	if !errors.Is(err, vcs.ErrBranchNotFound) {
		t.Fatalf("branches --id error = %v, want ErrBranchNotFound", err)
	}
}

func nodePaths(items []output.JSONNode) string {
	paths := make([]string, len(items))
	for i, n := range items {
		paths[i] = n.Path
	}
	return strings.Join(paths, ",")
}

func TestFilesCommand(t *testing.T) {
	tests := []struct {
		name  string
		flags []string
		want  string
	}{
		{name: "All", want: "README.md,docs/guide.md,docs/notes.txt,src/main.go,src/util/util.go"},
		{name: "Exclude", flags: []string{"--exclude", "docs/**"}, want: "README.md,src/main.go,src/util/util.go"},
		{name: "Include", flags: []string{"--include", "**/*.go"}, want: "src/main.go,src/util/util.go"},
		{name: "LimitAfterFilter", flags: []string{"--include", "**/*.go", "--limit", "1"}, want: "src/main.go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := append([]string{"--format", "json"}, tt.flags...)
			res, err := runCommand(t, "files", flags)
			if err != nil {
				t.Fatalf("files: %v", err)
			}
			report := decodeJSON[output.JSONNodeReport](t, res.output)
			if got := nodePaths(report.Items); got != tt.want {
				t.Fatalf("files = %s, want %s", got, tt.want)
			}
			if report.Revision != "r0004" {
				t.Fatalf("revision = %q, want r0004", report.Revision)
			}
		})
	}
}

func TestFilesCommand_InvalidPattern(t *testing.T) {
	if _, err := runCommand(t, "files", []string{"--include", "[a-"}); err == nil {
		t.Fatal("expected error for an invalid glob pattern")
	}
}

func TestLsCommand(t *testing.T) {
	tests := []struct {
		name  string
		flags []string
		args  []string
		want  string
	}{
		{name: "Root", args: nil, want: "README.md,docs,src"},
		{name: "Directory", args: []string{"r0004", "src"}, want: "src/main.go,src/util"},
		{name: "Recursive", flags: []string{"-R"}, args: []string{"r0004", "src"}, want: "src/main.go,src/util,src/util/util.go"},
		{name: "File", args: []string{"r0001", "docs/guide.md"}, want: "docs/guide.md"},
		{name: "OlderRevision", args: []string{"r0001", "/"}, want: "README.md,docs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := append([]string{"--format", "json"}, tt.flags...)
			res, err := runCommand(t, "ls", flags, tt.args...)
			if err != nil {
				t.Fatalf("ls: %v", err)
			}
			report := decodeJSON[output.JSONNodeReport](t, res.output)
			if got := nodePaths(report.Items); got != tt.want {
				t.Fatalf("ls = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLsCommand_MissingPath(t *testing.T) {
	_, err := runCommand(t, "ls", nil, "r0004", "nope.txt")
	if !errors.Is(err, vcs.ErrNodeNotFound) {
		t.Fatalf("ls error = %v, want ErrNodeNotFound", err)
	}
}

func TestInfoCommand(t *testing.T) {
	res, err := runCommand(t, "info", []string{"--format", "json"})
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	report := decodeJSON[output.JSONInfoReport](t, res.output)
	if report.Name != "demo" || !report.Valid || report.Backend != memoryBackend {
		t.Fatalf("report = %+v", report)
	}
	if report.Owner != nil || report.Description != nil {
		t.Fatalf("owner/description = %v/%v, want nil", report.Owner, report.Description)
	}
	if report.LastChange == nil || report.LastChange.ID != "r0004" {
		t.Fatalf("lastChange = %+v, want r0004", report.LastChange)
	}
}

func TestInitCommand(t *testing.T) {
	res, err := runCommand(t, "init", nil, "/mem/created")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(res.stdout, "Initialized empty memory repository") {
		t.Fatalf("stdout = %q", res.stdout)
	}

	if _, err := runCommand(t, "init", nil, "/mem/created"); err == nil {
		t.Fatal("expected error initializing an existing repository")
	}
	if _, err := runCommand(t, "init", nil); err == nil {
		t.Fatal("expected error without a path argument")
	}
}

func TestCommand_Errors(t *testing.T) {
	t.Run("UnknownFormat", func(t *testing.T) {
		if _, err := runCommand(t, "log", []string{"--format", "yaml"}); err == nil {
			t.Fatal("expected error for an unknown format")
		}
	})

	t.Run("UnknownBackend", func(t *testing.T) {
		_, err := runCommand(t, "log", []string{"--backend", "svn"})
		if !errors.Is(err, vcs.ErrUnknownBackend) {
			t.Fatalf("error = %v, want ErrUnknownBackend", err)
		}
	})

	t.Run("MissingRepository", func(t *testing.T) {
		_, err := runCommand(t, "log", []string{"--repo", "/mem/missing"})
		if !errors.Is(err, vcs.ErrRepositoryNotFound) {
			t.Fatalf("error = %v, want ErrRepositoryNotFound", err)
		}
	})

	t.Run("NegativeLimit", func(t *testing.T) {
		if _, err := runCommand(t, "log", []string{"--limit", "-1"}); err == nil {
			t.Fatal("expected error for a negative limit")
		}
	})
}
