package main

import (
	"strings"
	"testing"
)

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		size int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
	}
	for _, tc := range cases {
		if got := formatBytes(tc.size); got != tc.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tc.size, got, tc.want)
		}
	}
}

func TestBuildSessionRowsOrdersKnownStatuses(t *testing.T) {
	rows := buildSessionRows(map[string]int{
		"complete": 2,
		"failed":   1,
		"active":   1,
		"total":    4,
	})
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	order := make([]string, 0, len(rows))
	for _, row := range rows {
		order = append(order, row[0])
	}
	want := []string{"total", "active", "complete", "failed"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("row order = %v, want %v", order, want)
		}
	}
}

func TestRenderStatusLineWithoutColor(t *testing.T) {
	line := renderStatusLine("Daemon", statusOK, "running", false)
	if !strings.Contains(line, "Daemon:") || !strings.Contains(line, "[OK] running") {
		t.Fatalf("unexpected status line %q", line)
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("uncolored line contains ANSI codes: %q", line)
	}
}

func TestRenderTableAlignsColumns(t *testing.T) {
	out := renderTable(
		[]string{"Status", "Count"},
		[][]string{{"complete", "2"}, {"failed", "1"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(out, "complete") || !strings.Contains(out, "failed") {
		t.Fatalf("table missing rows: %q", out)
	}
}
