package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/masmgr/govcs/vcs"
)

// JSONWriter writes reports as indented JSON documents.
type JSONWriter struct{}

// JSONChangeset is the JSON output structure for a changeset.
type JSONChangeset struct {
	ID        string `json:"id"`
	When      string `json:"when"`
	Author    string `json:"author"`
	Message   string `json:"message"`
	Size      *int64 `json:"size,omitempty"`
	FileCount *int   `json:"fileCount,omitempty"`
	DirCount  *int   `json:"dirCount,omitempty"`
}

// JSONInfoReport is the JSON output structure for repository information.
type JSONInfoReport struct {
	RepoPath    string         `json:"repo"`
	Name        string         `json:"name"`
	Backend     string         `json:"backend"`
	Valid       bool           `json:"valid"`
	Owner       *string        `json:"owner"`
	Description *string        `json:"description"`
	LastChange  *JSONChangeset `json:"lastChange"`
	GeneratedAt string         `json:"generatedAt"`
}

// JSONChangesetReport is the JSON output structure for a changeset listing.
type JSONChangesetReport struct {
	RepoPath    string          `json:"repo"`
	Since       *string         `json:"since,omitempty"`
	GeneratedAt string          `json:"generatedAt"`
	Total       int             `json:"total"`
	Items       []JSONChangeset `json:"items"`
}

// JSONRef is the JSON output structure for a tag or branch.
type JSONRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Revision string `json:"revision"`
	When     string `json:"when"`
}

// JSONRefReport is the JSON output structure for a reference listing.
type JSONRefReport struct {
	RepoPath    string    `json:"repo"`
	Kind        string    `json:"kind"`
	Since       *string   `json:"since,omitempty"`
	GeneratedAt string    `json:"generatedAt"`
	Total       int       `json:"total"`
	Items       []JSONRef `json:"items"`
}

// JSONNode is the JSON output structure for a node.
type JSONNode struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
	Size int64  `json:"size"`
}

// JSONNodeReport is the JSON output structure for a node listing.
type JSONNodeReport struct {
	RepoPath    string     `json:"repo"`
	Revision    string     `json:"revision"`
	Path        string     `json:"path"`
	GeneratedAt string     `json:"generatedAt"`
	Total       int        `json:"total"`
	Items       []JSONNode `json:"items"`
}

func toJSONChangeset(item ChangesetItem) JSONChangeset {
	return JSONChangeset{
		ID:        item.ID,
		When:      item.When.Format(time.RFC3339),
		Author:    item.Author,
		Message:   item.Message,
		Size:      item.Size,
		FileCount: item.FileCount,
		DirCount:  item.DirCount,
	}
}

func toJSONRef(ref vcs.Ref) JSONRef {
	return JSONRef{
		ID:       ref.ID,
		Name:     ref.Name,
		Revision: ref.Revision,
		When:     ref.When.Format(time.RFC3339),
	}
}

func toJSONNode(n vcs.Node) JSONNode {
	return JSONNode{Path: n.Path, Kind: n.Kind.String(), Size: n.Size}
}

// WriteInfo outputs the repository description as JSON.
func (w *JSONWriter) WriteInfo(report *InfoReport, options OutputOptions) error {
	jsonReport := JSONInfoReport{
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
		jsonReport.LastChange = &lc
	}
	return writeJSON(jsonReport, options.OutputPath)
}

// WriteChangesets outputs a changeset listing as JSON.
func (w *JSONWriter) WriteChangesets(report *ChangesetReport, options OutputOptions) error {
	items := make([]JSONChangeset, len(report.Items))
	for i, item := range report.Items {
		items[i] = toJSONChangeset(item)
	}
	return writeJSON(JSONChangesetReport{
		RepoPath:    report.RepoPath,
		Since:       formatSinceDate(report.Since),
		GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
		Total:       len(items),
		Items:       items,
	}, options.OutputPath)
}

// WriteRefs outputs a reference listing as JSON.
func (w *JSONWriter) WriteRefs(report *RefReport, options OutputOptions) error {
	items := make([]JSONRef, len(report.Items))
	for i, ref := range report.Items {
		items[i] = toJSONRef(ref)
	}
	return writeJSON(JSONRefReport{
		RepoPath:    report.RepoPath,
		Kind:        string(report.Kind),
		Since:       formatSinceDate(report.Since),
		GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
		Total:       len(items),
		Items:       items,
	}, options.OutputPath)
}

// WriteNodes outputs a node listing as JSON.
func (w *JSONWriter) WriteNodes(report *NodeReport, options OutputOptions) error {
	items := make([]JSONNode, len(report.Items))
	for i, n := range report.Items {
		items[i] = toJSONNode(n)
	}
	return writeJSON(JSONNodeReport{
		RepoPath:    report.RepoPath,
		Revision:    report.Revision,
		Path:        report.Path,
		GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
		Total:       len(items),
		Items:       items,
	}, options.OutputPath)
}

func writeJSON(data interface{}, outputPath string) error {
	out, file, err := openOutputWriter(outputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}
	return encodeJSON(out, data)
}

func encodeJSON(out io.Writer, data interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
