package metrics

import (
	"strings"
	"testing"
)

func TestWriteCSVHeaderAndRow(t *testing.T) {
	sink := NewSink(nil)
	sink.Record(Row{
		Instance:              3,
		BrokenLinkUtilization: 0.5,
		PathUtilization:       0.25,
		TotalUtilization:      0.75,
		BrokenLinkOffsets:     4,
		PathOffsets:           2,
		TotalOffsets:          6,
		Successful:            true,
		PatchingTimeNanos:     1000,
		OptimizationTimeNanos: 2000,
		Classification:        ClassificationHealedWithinLimit,
	})

	var buf strings.Builder
	if err := sink.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "Classification") {
		t.Fatalf("header missing Classification column: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "3,0.5,0.25,0.75,4,2,6,true,1000,2000,1") {
		t.Fatalf("unexpected row: %q", lines[1])
	}
}

func TestRecordTracksRowsInOrder(t *testing.T) {
	sink := NewSink(nil)
	sink.Record(Row{Instance: 1})
	sink.Record(Row{Instance: 2})

	rows := sink.Rows()
	if len(rows) != 2 || rows[0].Instance != 1 || rows[1].Instance != 2 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}
