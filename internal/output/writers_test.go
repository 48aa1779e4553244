package output

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/masmgr/govcs/vcs"
)

var generatedAt = time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)

func sampleChangesets() *ChangesetReport {
	size := int64(1234)
	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &ChangesetReport{
		RepoPath:    "/srv/demo",
		Since:       &since,
		GeneratedAt: generatedAt,
		Items: []ChangesetItem{
			{
				ID:      "0123456789abcdef0123456789abcdef01234567",
				When:    time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC),
				Author:  "Carol <carol@example.com>",
				Message: "add notes\n\nwith a body",
				Size:    &size,
			},
			{
				ID:      "fedcba9876543210fedcba9876543210fedcba98",
				When:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
				Author:  "Alice <alice@example.com>",
				Message: "initial import",
			},
		},
	}
}

func sampleRefs() *RefReport {
	return &RefReport{
		RepoPath:    "/srv/demo",
		Kind:        RefKindTag,
		GeneratedAt: generatedAt,
		Items: []vcs.Ref{
			{ID: "refs/tags/v0.2", Name: "v0.2", Revision: "0123456789abcdef", When: time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)},
		},
	}
}

func sampleNodes() *NodeReport {
	return &NodeReport{
		RepoPath:    "/srv/demo",
		Revision:    "0123456789abcdef",
		Path:        "src",
		GeneratedAt: generatedAt,
		Items: []vcs.Node{
			{Path: "src/main.go", Kind: vcs.KindFile, Size: 20},
			{Path: "src/util", Kind: vcs.KindDir},
		},
	}
}

func sampleInfo() *InfoReport {
	owner := "Alice <alice@example.com>"
	return &InfoReport{
		RepoPath:    "/srv/demo",
		Name:        "demo",
		Backend:     "gitrepo",
		Valid:       true,
		Owner:       &owner,
		GeneratedAt: generatedAt,
		LastChange:  &sampleChangesets().Items[0],
	}
}

func outputPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

func readOutput(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return data
}

func TestJSONWriter_Changesets(t *testing.T) {
	path := outputPath(t, "log.json")
	if err := (&JSONWriter{}).WriteChangesets(sampleChangesets(), OutputOptions{OutputPath: path}); err != nil {
		t.Fatalf("WriteChangesets: %v", err)
	}

	var got JSONChangesetReport
	if err := json.Unmarshal(readOutput(t, path), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Total != 2 || len(got.Items) != 2 {
		t.Fatalf("Total = %d, items = %d, expected 2", got.Total, len(got.Items))
	}
	if got.Since == nil || *got.Since != "2024-03-01" {
		t.Errorf("Since = %v, expected 2024-03-01", got.Since)
	}
	if got.Items[0].Size == nil || *got.Items[0].Size != 1234 {
		t.Errorf("Items[0].Size = %v, expected 1234", got.Items[0].Size)
	}
	if got.Items[1].Size != nil {
		t.Errorf("Items[1].Size = %v, expected omitted", *got.Items[1].Size)
	}
	if got.Items[0].Message != "add notes\n\nwith a body" {
		t.Errorf("Items[0].Message = %q", got.Items[0].Message)
	}
}

func TestJSONWriter_InfoAbsentFieldsAreNull(t *testing.T) {
	path := outputPath(t, "info.json")
	report := sampleInfo()
	report.Description = nil
	if err := (&JSONWriter{}).WriteInfo(report, OutputOptions{OutputPath: path}); err != nil {
		t.Fatalf("WriteInfo: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(readOutput(t, path), &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v, ok := raw["description"]; !ok || v != nil {
		t.Errorf("description = %v (present %v), expected null", v, ok)
	}
	if raw["owner"] != "Alice <alice@example.com>" {
		t.Errorf("owner = %v", raw["owner"])
	}
}

func TestCSVWriter_Changesets(t *testing.T) {
	path := outputPath(t, "log.csv")
	if err := (&CSVWriter{}).WriteChangesets(sampleChangesets(), OutputOptions{OutputPath: path}); err != nil {
		t.Fatalf("WriteChangesets: %v", err)
	}

	rows, err := csv.NewReader(bytes.NewReader(readOutput(t, path))).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, expected 3", len(rows))
	}
	wantHeader := []string{"ID", "When", "Author", "Message", "Size"}
	if strings.Join(rows[0], ",") != strings.Join(wantHeader, ",") {
		t.Errorf("header = %v, expected %v", rows[0], wantHeader)
	}
	if rows[1][4] != "1234" || rows[2][4] != "" {
		t.Errorf("size column = %q, %q", rows[1][4], rows[2][4])
	}
}

func TestCSVWriter_Nodes(t *testing.T) {
	path := outputPath(t, "ls.csv")
	if err := (&CSVWriter{}).WriteNodes(sampleNodes(), OutputOptions{OutputPath: path}); err != nil {
		t.Fatalf("WriteNodes: %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(readOutput(t, path))).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 3 || rows[2][1] != "dir" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestMarkdownWriter_Refs(t *testing.T) {
	path := outputPath(t, "tags.md")
	if err := (&MarkdownWriter{}).WriteRefs(sampleRefs(), OutputOptions{OutputPath: path}); err != nil {
		t.Fatalf("WriteRefs: %v", err)
	}
	out := string(readOutput(t, path))
	if !strings.HasPrefix(out, "# Tags") {
		t.Errorf("output does not start with the tags title: %q", out)
	}
	if !strings.Contains(out, "| 1 | v0.2 | `0123456789` |") {
		t.Errorf("output missing tag row: %q", out)
	}
}

func TestMarkdownWriter_ChangesetsEscapes(t *testing.T) {
	report := sampleChangesets()
	report.Items[1].Message = "fix a|b"
	path := outputPath(t, "log.md")
	if err := (&MarkdownWriter{}).WriteChangesets(report, OutputOptions{OutputPath: path}); err != nil {
		t.Fatalf("WriteChangesets: %v", err)
	}
	if out := string(readOutput(t, path)); !strings.Contains(out, `fix a\|b`) {
		t.Errorf("pipe not escaped: %q", out)
	}
}

func TestNDJSONWriter_Changesets(t *testing.T) {
	path := outputPath(t, "log.ndjson")
	if err := (&NDJSONWriter{}).WriteChangesets(sampleChangesets(), OutputOptions{OutputPath: path}); err != nil {
		t.Fatalf("WriteChangesets: %v", err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(readOutput(t, path)))
	var types []string
	for scanner.Scan() {
		var line map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("line %q is not JSON: %v", scanner.Text(), err)
		}
		types = append(types, line["type"].(string))
	}
	if strings.Join(types, ",") != "summary,changeset,changeset" {
		t.Fatalf("line types = %v", types)
	}
}

func TestNDJSONWriter_RefsSummaryKind(t *testing.T) {
	path := outputPath(t, "tags.ndjson")
	if err := (&NDJSONWriter{}).WriteRefs(sampleRefs(), OutputOptions{OutputPath: path}); err != nil {
		t.Fatalf("WriteRefs: %v", err)
	}
	first, _, _ := strings.Cut(string(readOutput(t, path)), "\n")
	var summary NDJSONSummary
	if err := json.Unmarshal([]byte(first), &summary); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if summary.Kind != "tags" || summary.Total != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestConsoleWriter(t *testing.T) {
	color.NoColor = true

	t.Run("Info", func(t *testing.T) {
		path := outputPath(t, "info.txt")
		if err := (&ConsoleWriter{}).WriteInfo(sampleInfo(), OutputOptions{OutputPath: path}); err != nil {
			t.Fatalf("WriteInfo: %v", err)
		}
		out := string(readOutput(t, path))
		for _, want := range []string{"Repository Information", "demo", "yes", "Description:  (none)", "add notes"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "with a body") {
			t.Errorf("output contains message body:\n%s", out)
		}
	})

	t.Run("EmptyChangesets", func(t *testing.T) {
		path := outputPath(t, "log.txt")
		report := &ChangesetReport{RepoPath: "/srv/demo", GeneratedAt: generatedAt}
		if err := (&ConsoleWriter{}).WriteChangesets(report, OutputOptions{OutputPath: path}); err != nil {
			t.Fatalf("WriteChangesets: %v", err)
		}
		if out := string(readOutput(t, path)); !strings.Contains(out, "No changesets found.") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("Nodes", func(t *testing.T) {
		path := outputPath(t, "ls.txt")
		if err := (&ConsoleWriter{}).WriteNodes(sampleNodes(), OutputOptions{OutputPath: path}); err != nil {
			t.Fatalf("WriteNodes: %v", err)
		}
		out := string(readOutput(t, path))
		if !strings.Contains(out, "src/util/") || !strings.Contains(out, "src/main.go") {
			t.Errorf("output = %q", out)
		}
	})
}
