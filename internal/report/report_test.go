package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/dbsmedya/dbcompare/internal/compare"
)

func sampleResult() *compare.ComparisonResult {
	return &compare.ComparisonResult{
		SourceName:     "app",
		TargetName:     "app_copy",
		ComparisonTime: time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC),
		SchemaDifferences: []compare.SchemaDifference{
			{ObjectType: compare.TypeTable, ObjectName: "legacy", Kind: compare.ChangeRemoved},
			{
				ObjectType: compare.TypeColumn,
				ObjectName: "orders.status",
				Kind:       compare.ChangeModified,
				Details: map[string]compare.ValueDelta{
					"data_type": {Source: "varchar", Target: "text"},
				},
			},
		},
		DataDifferences: []compare.TableDataDifference{
			{
				TableName:        "orders",
				PrimaryKeyValues: []string{"42"},
				Kind:             compare.ChangeModified,
				ColumnDeltas: map[string]compare.ValueDelta{
					"total": {Source: "10.50", Target: "11.00"},
				},
			},
		},
		SkippedTables: []compare.SkippedTable{
			{Name: "heap_table", Reason: "no primary key"},
		},
	}
}

func TestRenderResult(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewRenderer(&buf, false)

	if err := renderer.RenderResult(sampleResult()); err != nil {
		t.Fatalf("RenderResult failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Comparison: app -> app_copy",
		"Schema differences:",
		"legacy",
		"orders.status",
		"data_type: varchar -> text",
		"Data differences:",
		"[42]",
		"total: 10.50 -> 11.00",
		"Skipped tables:",
		"heap_table: no primary key",
		"Summary:",
		"Schema differences: 2",
		"Data differences: 1",
		"Total: 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}

	if strings.Contains(out, "\x1b[") {
		t.Error("Expected no ANSI escapes with color disabled")
	}
}

func TestRenderResult_NoDifferences(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewRenderer(&buf, false)

	result := &compare.ComparisonResult{
		SourceName:     "app",
		TargetName:     "app",
		ComparisonTime: time.Now(),
	}
	if err := renderer.RenderResult(result); err != nil {
		t.Fatalf("RenderResult failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "No differences found.") {
		t.Errorf("Expected clean-match message, got:\n%s", out)
	}
	if !strings.Contains(out, "Total: 0") {
		t.Errorf("Expected zero total, got:\n%s", out)
	}
}

func TestRenderResult_Alignment(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewRenderer(&buf, false)

	result := &compare.ComparisonResult{
		SourceName:     "a",
		TargetName:     "b",
		ComparisonTime: time.Now(),
		SchemaDifferences: []compare.SchemaDifference{
			{ObjectType: compare.TypeTable, ObjectName: "t", Kind: compare.ChangeAdded},
			{ObjectType: compare.TypeConstraint, ObjectName: "very_long_name", Kind: compare.ChangeRemoved},
		},
	}
	if err := renderer.RenderResult(result); err != nil {
		t.Fatalf("RenderResult failed: %v", err)
	}

	// Both kind labels start at the same column.
	var columns []int
	for _, line := range strings.Split(buf.String(), "\n") {
		if idx := strings.Index(line, "added"); idx >= 0 {
			columns = append(columns, idx)
		}
		if idx := strings.Index(line, "removed"); idx >= 0 {
			columns = append(columns, idx)
		}
	}
	if len(columns) != 2 || columns[0] != columns[1] {
		t.Errorf("Expected aligned kind labels, got columns %v in:\n%s", columns, buf.String())
	}
}

func TestRenderTableList(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewRenderer(&buf, false)

	renderer.RenderTableList([]string{"customers", "orders"}, map[string]int64{
		"customers": 100,
		"orders":    2500,
	})

	out := buf.String()
	if !strings.Contains(out, "Candidate tables (2):") {
		t.Errorf("Expected header, got:\n%s", out)
	}
	if !strings.Contains(out, "~2500 rows") {
		t.Errorf("Expected row counts, got:\n%s", out)
	}
}

func TestRenderTableList_Empty(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewRenderer(&buf, false)

	renderer.RenderTableList(nil, nil)

	if !strings.Contains(buf.String(), "No candidate tables.") {
		t.Errorf("Expected empty message, got:\n%s", buf.String())
	}
}
