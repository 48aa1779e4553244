package output

import (
	"testing"
	"time"
)

func TestSinceValue(t *testing.T) {
	since := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	if got := sinceValue(&since); got != "2026-02-01" {
		t.Fatalf("sinceValue(...) = %q, want %q", got, "2026-02-01")
	}
	if got := sinceValue(nil); got != "beginning of history" {
		t.Fatalf("sinceValue(nil) = %q", got)
	}
}

func TestFormatSinceDate(t *testing.T) {
	if got := formatSinceDate(nil); got != nil {
		t.Fatalf("formatSinceDate(nil) = %v, want nil", got)
	}

	since := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	got := formatSinceDate(&since)
	if got == nil || *got != "2026-02-01" {
		t.Fatalf("formatSinceDate(...) = %v, want %q", got, "2026-02-01")
	}
}

func TestShortID(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{id: "", want: ""},
		{id: "r0001", want: "r0001"},
		{id: "0123456789abcdef", want: "0123456789"},
	}
	for _, tt := range tests {
		if got := shortID(tt.id); got != tt.want {
			t.Errorf("shortID(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestChangesetColumns(t *testing.T) {
	size := int64(3)
	count := 2

	tests := []struct {
		name       string
		items      []ChangesetItem
		wantSize   bool
		wantCounts bool
	}{
		{name: "Plain", items: []ChangesetItem{{ID: "a"}}},
		{name: "Size", items: []ChangesetItem{{ID: "a"}, {ID: "b", Size: &size}}, wantSize: true},
		{name: "Counts", items: []ChangesetItem{{ID: "a", FileCount: &count}}, wantCounts: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSize, gotCounts := changesetColumns(tt.items)
			if gotSize != tt.wantSize || gotCounts != tt.wantCounts {
				t.Fatalf("changesetColumns() = %v, %v; want %v, %v", gotSize, gotCounts, tt.wantSize, tt.wantCounts)
			}
		})
	}
}
