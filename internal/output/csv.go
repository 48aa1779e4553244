package output

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSVWriter writes reports as CSV with a header row.
type CSVWriter struct{}

// WriteInfo outputs the repository description as field/value rows.
func (w *CSVWriter) WriteInfo(report *InfoReport, options OutputOptions) error {
	rows := [][]string{
		{"Field", "Value"},
		{"Path", report.RepoPath},
		{"Name", report.Name},
		{"Backend", report.Backend},
		{"Valid", strconv.FormatBool(report.Valid)},
		{"Owner", optionalString(report.Owner)},
		{"Description", optionalString(report.Description)},
	}
	if report.LastChange != nil {
		rows = append(rows,
			[]string{"LastChangeID", report.LastChange.ID},
			[]string{"LastChangeWhen", report.LastChange.When.Format(time.RFC3339)},
		)
	}
	return writeCSV(rows, options.OutputPath)
}

// WriteChangesets outputs a changeset listing as CSV.
func (w *CSVWriter) WriteChangesets(report *ChangesetReport, options OutputOptions) error {
	withSize, withCounts := changesetColumns(report.Items)

	header := []string{"ID", "When", "Author", "Message"}
	if withSize {
		header = append(header, "Size")
	}
	if withCounts {
		header = append(header, "FileCount", "DirCount")
	}
	rows := [][]string{header}

	for _, item := range report.Items {
		row := []string{item.ID, item.When.Format(time.RFC3339), item.Author, item.Message}
		if withSize {
			row = append(row, optionalInt64(item.Size))
		}
		if withCounts {
			row = append(row, optionalInt(item.FileCount), optionalInt(item.DirCount))
		}
		rows = append(rows, row)
	}
	return writeCSV(rows, options.OutputPath)
}

// WriteRefs outputs a reference listing as CSV.
func (w *CSVWriter) WriteRefs(report *RefReport, options OutputOptions) error {
	rows := [][]string{{"Kind", "Name", "ID", "Revision", "When"}}
	for _, ref := range report.Items {
		rows = append(rows, []string{string(report.Kind), ref.Name, ref.ID, ref.Revision, ref.When.Format(time.RFC3339)})
	}
	return writeCSV(rows, options.OutputPath)
}

// WriteNodes outputs a node listing as CSV.
func (w *CSVWriter) WriteNodes(report *NodeReport, options OutputOptions) error {
	rows := [][]string{{"Path", "Kind", "Size"}}
	for _, n := range report.Items {
		rows = append(rows, []string{n.Path, n.Kind.String(), strconv.FormatInt(n.Size, 10)})
	}
	return writeCSV(rows, options.OutputPath)
}

func writeCSV(rows [][]string, outputPath string) error {
	writer, file, err := createCSVWriter(outputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}

func createCSVWriter(outputPath string) (*csv.Writer, *os.File, error) {
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return nil, nil, err
		}
		return csv.NewWriter(file), file, nil
	}
	return csv.NewWriter(os.Stdout), nil, nil
}
