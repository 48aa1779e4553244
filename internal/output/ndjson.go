package output

import (
	"encoding/json"
	"fmt"
	"time"
)

// NDJSONWriter writes reports as NDJSON for pipelines: a summary object on the
// first line followed by one object per item.
type NDJSONWriter struct{}

// NDJSONSummary is the first line of NDJSON output.
type NDJSONSummary struct {
	Type  string  `json:"type"`
	Kind  string  `json:"kind"`
	Repo  string  `json:"repo"`
	Since *string `json:"since,omitempty"`
	Total int     `json:"total"`
}

type ndjsonChangeset struct {
	Type string `json:"type"`
	JSONChangeset
}

type ndjsonRef struct {
	Type string `json:"type"`
	JSONRef
}

type ndjsonNode struct {
	Type string `json:"type"`
	JSONNode
}

type ndjsonInfo struct {
	Type string `json:"type"`
	JSONInfoReport
}

// WriteInfo outputs the repository description as a single line.
func (w *NDJSONWriter) WriteInfo(report *InfoReport, options OutputOptions) error {
	info := JSONInfoReport{
		RepoPath:    report.RepoPath,
		Name:        report.Name,
		Backend:     report.Backend,
		Valid:       report.Valid,
		Owner:       report.Owner,
		Description: report.Description,
		GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
	}
	if report.LastChange != nil {
		lc := toJSONChangeset(*report.LastChange)
		info.LastChange = &lc
	}
	return writeLines(options.OutputPath, ndjsonInfo{Type: "info", JSONInfoReport: info})
}

// WriteChangesets outputs a changeset listing as NDJSON.
func (w *NDJSONWriter) WriteChangesets(report *ChangesetReport, options OutputOptions) error {
	lines := []interface{}{NDJSONSummary{
		Type:  "summary",
		Kind:  "changesets",
		Repo:  report.RepoPath,
		Since: formatSinceDate(report.Since),
		Total: len(report.Items),
	}}
	for _, item := range report.Items {
		lines = append(lines, ndjsonChangeset{Type: "changeset", JSONChangeset: toJSONChangeset(item)})
	}
	return writeLines(options.OutputPath, lines...)
}

// WriteRefs outputs a reference listing as NDJSON.
func (w *NDJSONWriter) WriteRefs(report *RefReport, options OutputOptions) error {
	lines := []interface{}{NDJSONSummary{
		Type:  "summary",
		Kind:  string(report.Kind) + "s",
		Repo:  report.RepoPath,
		Since: formatSinceDate(report.Since),
		Total: len(report.Items),
	}}
	for _, ref := range report.Items {
		lines = append(lines, ndjsonRef{Type: string(report.Kind), JSONRef: toJSONRef(ref)})
	}
	return writeLines(options.OutputPath, lines...)
}

// WriteNodes outputs a node listing as NDJSON.
func (w *NDJSONWriter) WriteNodes(report *NodeReport, options OutputOptions) error {
	lines := []interface{}{NDJSONSummary{
		Type:  "summary",
		Kind:  "nodes",
		Repo:  report.RepoPath,
		Total: len(report.Items),
	}}
	for _, n := range report.Items {
		lines = append(lines, ndjsonNode{Type: "node", JSONNode: toJSONNode(n)})
	}
	return writeLines(options.OutputPath, lines...)
}

func writeLines(outputPath string, lines ...interface{}) error {
	out, file, err := openOutputWriter(outputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	enc := json.NewEncoder(out)
	for _, line := range lines {
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode NDJSON: %w", err)
		}
	}
	return nil
}
