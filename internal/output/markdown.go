package output

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownWriter writes reports as Markdown tables.
type MarkdownWriter struct{}

// WriteInfo outputs the repository description as Markdown.
func (w *MarkdownWriter) WriteInfo(report *InfoReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintf(out, "# %s\n\n", escapeMarkdown(report.Name))
	fmt.Fprintln(out, "| Field | Value |")
	fmt.Fprintln(out, "|-------|-------|")
	fmt.Fprintf(out, "| Path | `%s` |\n", report.RepoPath)
	fmt.Fprintf(out, "| Backend | %s |\n", report.Backend)
	fmt.Fprintf(out, "| Valid | %s |\n", validEmoji(report.Valid))
	fmt.Fprintf(out, "| Owner | %s |\n", escapeMarkdown(orNone(report.Owner)))
	fmt.Fprintf(out, "| Description | %s |\n", escapeMarkdown(orNone(report.Description)))
	if report.LastChange != nil {
		lc := report.LastChange
		fmt.Fprintf(out, "| Last change | `%s` %s %s |\n",
			shortID(lc.ID), lc.When.Format(time.RFC3339), escapeMarkdown(firstLine(lc.Message)))
	}
	return nil
}

// WriteChangesets outputs a changeset listing as Markdown.
func (w *MarkdownWriter) WriteChangesets(report *ChangesetReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintln(out, "# Changesets")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "**Repository:** %s\n\n", report.RepoPath)
	fmt.Fprintf(out, "**Since:** %s\n\n", sinceValue(report.Since))
	fmt.Fprintf(out, "**Total Changesets:** %d\n\n", len(report.Items))

	withSize, withCounts := changesetColumns(report.Items)
	header, sep := "| # | ID | Date | Author |", "|---|----|------|--------|"
	if withSize {
		header, sep = header+" Size |", sep+"------|"
	}
	if withCounts {
		header, sep = header+" Files | Dirs |", sep+"-------|------|"
	}
	fmt.Fprintln(out, header+" Message |")
	fmt.Fprintln(out, sep+"---------|")

	for i, item := range report.Items {
		row := fmt.Sprintf("| %d | `%s` | %s | %s |", i+1, shortID(item.ID),
			item.When.Format(reportDateTimeLayout), escapeMarkdown(item.Author))
		if withSize {
			row += " " + optionalInt64(item.Size) + " |"
		}
		if withCounts {
			row += " " + optionalInt(item.FileCount) + " | " + optionalInt(item.DirCount) + " |"
		}
		fmt.Fprintln(out, row+" "+escapeMarkdown(truncateMessage(firstLine(item.Message), 60))+" |")
	}
	return nil
}

// WriteRefs outputs a reference listing as Markdown.
func (w *MarkdownWriter) WriteRefs(report *RefReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	if report.Kind == RefKindBranch {
		fmt.Fprintln(out, "# Branches")
	} else {
		fmt.Fprintln(out, "# Tags")
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "**Repository:** %s\n\n", report.RepoPath)
	fmt.Fprintf(out, "**Since:** %s\n\n", sinceValue(report.Since))
	fmt.Fprintln(out, "| # | Name | Revision | Date |")
	fmt.Fprintln(out, "|---|------|----------|------|")
	for i, ref := range report.Items {
		fmt.Fprintf(out, "| %d | %s | `%s` | %s |\n",
			i+1, escapeMarkdown(ref.Name), shortID(ref.Revision), ref.When.Format(reportDateTimeLayout))
	}
	return nil
}

// WriteNodes outputs a node listing as Markdown.
func (w *MarkdownWriter) WriteNodes(report *NodeReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintf(out, "# /%s at `%s`\n\n", escapeMarkdown(report.Path), shortID(report.Revision))
	fmt.Fprintln(out, "| Kind | Size | Path |")
	fmt.Fprintln(out, "|------|------|------|")
	for _, n := range report.Items {
		fmt.Fprintf(out, "| %s | %s | `%s` |\n", n.Kind, nodeSize(n.Size, n.IsDir()), n.Path)
	}
	return nil
}

func validEmoji(valid bool) string {
	if valid {
		return "🟢"
	}
	return "🔴"
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"|", "\\|",
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
	)
	return replacer.Replace(s)
}
