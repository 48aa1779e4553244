package output

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	reportDateLayout     = "2006-01-02"
	reportDateTimeLayout = "2006-01-02T15:04:05"
)

func sinceValue(since *time.Time) string {
	if since != nil {
		return since.Format(reportDateLayout)
	}
	return "beginning of history"
}

func formatSinceDate(since *time.Time) *string {
	if since == nil {
		return nil
	}
	formatted := since.Format(reportDateLayout)
	return &formatted
}

func openOutputWriter(outputPath string) (io.Writer, *os.File, error) {
	if outputPath == "" {
		return os.Stdout, nil, nil
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, err
	}
	return file, file, nil
}

// shortID abbreviates a revision identifier for tables.
func shortID(id string) string {
	if len(id) <= 10 {
		return id
	}
	return id[:10]
}

func firstLine(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i != -1 {
		return msg[:i]
	}
	return msg
}

func truncateMessage(msg string, maxLen int) string {
	if len(msg) <= maxLen {
		return msg
	}
	return msg[:maxLen-3] + "..."
}

func optionalString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optionalInt64(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// changesetColumns reports which optional columns any item carries.
func changesetColumns(items []ChangesetItem) (size, counts bool) {
	for _, item := range items {
		if item.Size != nil {
			size = true
		}
		if item.FileCount != nil || item.DirCount != nil {
			counts = true
		}
	}
	return size, counts
}

func nodeSize(size int64, isDir bool) string {
	if isDir {
		return "-"
	}
	return strconv.FormatInt(size, 10)
}
