package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
)

// ConsoleWriter writes reports as aligned tables for a terminal.
type ConsoleWriter struct{}

var (
	titleColor   = color.New(color.FgGreen, color.Bold)
	validColor   = color.New(color.FgGreen)
	invalidColor = color.New(color.FgRed)
	dirColor     = color.New(color.FgBlue)
)

func consoleOutput(outputPath string) (io.Writer, func(), error) {
	out, file, err := openOutputWriter(outputPath)
	if err != nil {
		return nil, nil, err
	}
	return out, func() {
		if file != nil {
			file.Close()
		}
	}, nil
}

// WriteInfo outputs the repository description.
func (w *ConsoleWriter) WriteInfo(report *InfoReport, options OutputOptions) error {
	out, done, err := consoleOutput(options.OutputPath)
	if err != nil {
		return err
	}
	defer done()

	titleColor.Fprintln(out, "Repository Information")

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Path:\t%s\n", report.RepoPath)
	fmt.Fprintf(tw, "Name:\t%s\n", report.Name)
	fmt.Fprintf(tw, "Backend:\t%s\n", report.Backend)
	if report.Valid {
		fmt.Fprintf(tw, "Valid:\t%s\n", validColor.Sprint("yes"))
	} else {
		fmt.Fprintf(tw, "Valid:\t%s\n", invalidColor.Sprint("no"))
	}
	fmt.Fprintf(tw, "Owner:\t%s\n", orNone(report.Owner))
	fmt.Fprintf(tw, "Description:\t%s\n", orNone(report.Description))
	if report.LastChange != nil {
		lc := report.LastChange
		fmt.Fprintf(tw, "Last change:\t%s %s %s\n", shortID(lc.ID), lc.When.Format(reportDateTimeLayout), lc.Author)
		fmt.Fprintf(tw, "\t%s\n", truncateMessage(firstLine(lc.Message), 72))
	} else {
		fmt.Fprintf(tw, "Last change:\t(none)\n")
	}
	return tw.Flush()
}

func orNone(s *string) string {
	if s == nil {
		return "(none)"
	}
	return *s
}

// WriteChangesets outputs a changeset listing.
func (w *ConsoleWriter) WriteChangesets(report *ChangesetReport, options OutputOptions) error {
	out, done, err := consoleOutput(options.OutputPath)
	if err != nil {
		return err
	}
	defer done()

	titleColor.Fprintln(out, "Changesets")
	fmt.Fprintf(out, "Repository: %s\n", report.RepoPath)
	fmt.Fprintf(out, "Since: %s\n", sinceValue(report.Since))
	fmt.Fprintf(out, "Total changesets: %d\n\n", len(report.Items))

	if len(report.Items) == 0 {
		fmt.Fprintln(out, "No changesets found.")
		return nil
	}

	withSize, withCounts := changesetColumns(report.Items)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	// Write header
	header := "#\tID\tDate\tAuthor"
	if withSize {
		header += "\tSize"
	}
	if withCounts {
		header += "\tFiles\tDirs"
	}
	fmt.Fprintln(tw, header+"\tMessage")

	// Write rows
	for i, item := range report.Items {
		row := fmt.Sprintf("%d\t%s\t%s\t%s", i+1, shortID(item.ID), item.When.Format(reportDateTimeLayout), item.Author)
		if withSize {
			row += "\t" + optionalInt64(item.Size)
		}
		if withCounts {
			row += "\t" + optionalInt(item.FileCount) + "\t" + optionalInt(item.DirCount)
		}
		fmt.Fprintln(tw, row+"\t"+truncateMessage(firstLine(item.Message), 60))
	}

	return tw.Flush()
}

// WriteRefs outputs a tag or branch listing.
func (w *ConsoleWriter) WriteRefs(report *RefReport, options OutputOptions) error {
	out, done, err := consoleOutput(options.OutputPath)
	if err != nil {
		return err
	}
	defer done()

	switch report.Kind {
	case RefKindBranch:
		titleColor.Fprintln(out, "Branches")
	default:
		titleColor.Fprintln(out, "Tags")
	}
	fmt.Fprintf(out, "Repository: %s\n", report.RepoPath)
	fmt.Fprintf(out, "Since: %s\n", sinceValue(report.Since))
	fmt.Fprintf(out, "Total: %d\n\n", len(report.Items))

	if len(report.Items) == 0 {
		fmt.Fprintf(out, "No %ss found.\n", report.Kind)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tName\tRevision\tDate\tID")
	for i, ref := range report.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			i+1,
			ref.Name,
			shortID(ref.Revision),
			ref.When.Format(reportDateTimeLayout),
			ref.ID,
		)
	}
	return tw.Flush()
}

// WriteNodes outputs the nodes of a changeset.
func (w *ConsoleWriter) WriteNodes(report *NodeReport, options OutputOptions) error {
	out, done, err := consoleOutput(options.OutputPath)
	if err != nil {
		return err
	}
	defer done()

	titleColor.Fprintln(out, "Nodes")
	fmt.Fprintf(out, "Repository: %s\n", report.RepoPath)
	fmt.Fprintf(out, "Revision: %s\n", report.Revision)
	fmt.Fprintf(out, "Path: /%s\n", report.Path)
	fmt.Fprintf(out, "Total nodes: %d\n\n", len(report.Items))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Kind\tSize\tPath")
	for _, n := range report.Items {
		p := n.Path
		if n.IsDir() {
			p = dirColor.Sprint(p + "/")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", n.Kind, nodeSize(n.Size, n.IsDir()), p)
	}
	return tw.Flush()
}
