package output

import (
	"time"

	"github.com/masmgr/govcs/vcs"
)

// Compile-time interface conformance checks.
var (
	_ ReportWriter = (*ConsoleWriter)(nil)
	_ ReportWriter = (*JSONWriter)(nil)
	_ ReportWriter = (*CSVWriter)(nil)
	_ ReportWriter = (*MarkdownWriter)(nil)
	_ ReportWriter = (*NDJSONWriter)(nil)
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	FormatConsole  OutputFormat = "console"
	FormatJSON     OutputFormat = "json"
	FormatCSV      OutputFormat = "csv"
	FormatMarkdown OutputFormat = "markdown"
	FormatNDJSON   OutputFormat = "ndjson"
)

// Formats lists the supported output formats.
func Formats() []OutputFormat {
	return []OutputFormat{FormatConsole, FormatJSON, FormatCSV, FormatMarkdown, FormatNDJSON}
}

// OutputOptions controls output behavior.
type OutputOptions struct {
	Format     OutputFormat
	OutputPath string
}

// ChangesetItem is one changeset in a report. Size and the counts are only
// set when the command computed them.
type ChangesetItem struct {
	ID        string
	When      time.Time
	Author    string
	Message   string
	Size      *int64
	FileCount *int
	DirCount  *int
}

// NewChangesetItem copies the metadata of cs.
func NewChangesetItem(cs vcs.Changeset) ChangesetItem {
	return ChangesetItem{
		ID:      cs.ID(),
		When:    cs.When(),
		Author:  cs.Author(),
		Message: cs.Message(),
	}
}

// InfoReport describes a repository.
type InfoReport struct {
	RepoPath    string
	Name        string
	Backend     string
	Valid       bool
	Owner       *string
	Description *string
	LastChange  *ChangesetItem
	GeneratedAt time.Time
}

// ChangesetReport holds a changeset listing.
type ChangesetReport struct {
	RepoPath    string
	Since       *time.Time
	GeneratedAt time.Time
	Items       []ChangesetItem
}

// RefKind names the kind of reference listed in a RefReport.
type RefKind string

const (
	RefKindTag    RefKind = "tag"
	RefKindBranch RefKind = "branch"
)

// RefReport holds a tag or branch listing.
type RefReport struct {
	RepoPath    string
	Kind        RefKind
	Since       *time.Time
	GeneratedAt time.Time
	Items       []vcs.Ref
}

// NodeReport holds the nodes of one changeset under Path.
type NodeReport struct {
	RepoPath    string
	Revision    string
	Path        string
	GeneratedAt time.Time
	Items       []vcs.Node
}

// ReportWriter writes every report kind in one format.
type ReportWriter interface {
	WriteInfo(report *InfoReport, options OutputOptions) error
	WriteChangesets(report *ChangesetReport, options OutputOptions) error
	WriteRefs(report *RefReport, options OutputOptions) error
	WriteNodes(report *NodeReport, options OutputOptions) error
}

// NewReportWriter creates a report writer for the specified format.
func NewReportWriter(format OutputFormat) ReportWriter {
	switch format {
	case FormatJSON:
		return &JSONWriter{}
	case FormatCSV:
		return &CSVWriter{}
	case FormatMarkdown:
		return &MarkdownWriter{}
	case FormatNDJSON:
		return &NDJSONWriter{}
	default:
		return &ConsoleWriter{}
	}
}
