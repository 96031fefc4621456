package compare

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dbsmedya/dbcompare/internal/metadata"
)

func bigintKey(names ...string) []metadata.KeyColumn {
	cols := make([]metadata.KeyColumn, len(names))
	for i, name := range names {
		cols[i] = metadata.KeyColumn{Name: name, DataType: "bigint"}
	}
	return cols
}

func newMockPair(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	srcDB, srcMock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create source mock: %v", err)
	}
	tgtDB, tgtMock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create target mock: %v", err)
	}
	return srcDB, srcMock, tgtDB, tgtMock, func() {
		srcDB.Close()
		tgtDB.Close()
	}
}

func TestNewDataDiffer_Validation(t *testing.T) {
	srcDB, _, tgtDB, _, cleanup := newMockPair(t)
	defer cleanup()

	if _, err := NewDataDiffer(nil, tgtDB, 0, nil); err == nil {
		t.Error("Expected error for nil source")
	}
	if _, err := NewDataDiffer(srcDB, nil, 0, nil); err == nil {
		t.Error("Expected error for nil target")
	}
	if _, err := NewDataDiffer(srcDB, tgtDB, -1, nil); err == nil {
		t.Error("Expected error for negative sample size")
	}
	if _, err := NewDataDiffer(srcDB, tgtDB, 0, nil); err != nil {
		t.Errorf("Expected valid differ, got %v", err)
	}
}

func TestCompareTableData_NoPrimaryKey(t *testing.T) {
	srcDB, _, tgtDB, _, cleanup := newMockPair(t)
	defer cleanup()

	differ, _ := NewDataDiffer(srcDB, tgtDB, 0, nil)
	_, err := differ.CompareTableData(context.Background(), "app", "app", "items", nil)
	if err == nil {
		t.Fatal("Expected error for empty primary key column list")
	}
}

func TestCompareTableData_MergeJoin(t *testing.T) {
	srcDB, srcMock, tgtDB, tgtMock, cleanup := newMockPair(t)
	defer cleanup()

	srcMock.ExpectQuery("SELECT \\* FROM `app`.`items` ORDER BY `id`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "val"}).
			AddRow(1, "a").
			AddRow(2, "b").
			AddRow(3, "c"))
	tgtMock.ExpectQuery("SELECT \\* FROM `app_copy`.`items` ORDER BY `id`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "val"}).
			AddRow(2, "b").
			AddRow(3, "x").
			AddRow(4, "d"))

	differ, _ := NewDataDiffer(srcDB, tgtDB, 0, nil)
	diffs, err := differ.CompareTableData(context.Background(), "app", "app_copy", "items", bigintKey("id"))
	if err != nil {
		t.Fatalf("CompareTableData failed: %v", err)
	}

	if len(diffs) != 3 {
		t.Fatalf("Expected 3 differences, got %d: %+v", len(diffs), diffs)
	}

	if diffs[0].Kind != ChangeRemoved || diffs[0].PrimaryKeyValues[0] != "1" {
		t.Errorf("Expected key 1 removed, got %+v", diffs[0])
	}
	if diffs[1].Kind != ChangeModified || diffs[1].PrimaryKeyValues[0] != "3" {
		t.Errorf("Expected key 3 modified, got %+v", diffs[1])
	}
	if delta := diffs[1].ColumnDeltas["val"]; delta.Source != "c" || delta.Target != "x" {
		t.Errorf("Unexpected val delta: %+v", delta)
	}
	if diffs[2].Kind != ChangeAdded || diffs[2].PrimaryKeyValues[0] != "4" {
		t.Errorf("Expected key 4 added, got %+v", diffs[2])
	}
}

func TestCompareTableData_NullHandling(t *testing.T) {
	srcDB, srcMock, tgtDB, tgtMock, cleanup := newMockPair(t)
	defer cleanup()

	srcMock.ExpectQuery("SELECT \\* FROM `app`.`items` ORDER BY `id`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "val"}).
			AddRow(1, nil).
			AddRow(2, nil))
	tgtMock.ExpectQuery("SELECT \\* FROM `app`.`items` ORDER BY `id`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "val"}).
			AddRow(1, "x").
			AddRow(2, nil))

	differ, _ := NewDataDiffer(srcDB, tgtDB, 0, nil)
	diffs, err := differ.CompareTableData(context.Background(), "app", "app", "items", bigintKey("id"))
	if err != nil {
		t.Fatalf("CompareTableData failed: %v", err)
	}

	// NULL vs value differs; NULL vs NULL does not.
	if len(diffs) != 1 {
		t.Fatalf("Expected 1 difference, got %d: %+v", len(diffs), diffs)
	}
	if delta := diffs[0].ColumnDeltas["val"]; delta.Source != "NULL" || delta.Target != "x" {
		t.Errorf("Unexpected NULL delta: %+v", delta)
	}
}

func TestCompareTableData_CompositeKey(t *testing.T) {
	srcDB, srcMock, tgtDB, tgtMock, cleanup := newMockPair(t)
	defer cleanup()

	srcMock.ExpectQuery("SELECT \\* FROM `app`.`order_items` ORDER BY `order_id`, `line`").
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "line", "qty"}).
			AddRow(1, 1, 5).
			AddRow(1, 2, 3))
	tgtMock.ExpectQuery("SELECT \\* FROM `app`.`order_items` ORDER BY `order_id`, `line`").
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "line", "qty"}).
			AddRow(1, 1, 5).
			AddRow(1, 3, 7))

	differ, _ := NewDataDiffer(srcDB, tgtDB, 0, nil)
	diffs, err := differ.CompareTableData(context.Background(), "app", "app", "order_items", bigintKey("order_id", "line"))
	if err != nil {
		t.Fatalf("CompareTableData failed: %v", err)
	}

	if len(diffs) != 2 {
		t.Fatalf("Expected 2 differences, got %d: %+v", len(diffs), diffs)
	}
	if diffs[0].Kind != ChangeRemoved || diffs[0].PrimaryKeyValues[1] != "2" {
		t.Errorf("Expected (1,2) removed, got %+v", diffs[0])
	}
	if diffs[1].Kind != ChangeAdded || diffs[1].PrimaryKeyValues[1] != "3" {
		t.Errorf("Expected (1,3) added, got %+v", diffs[1])
	}
}

func TestCompareTableData_StringKeyBinaryOrder(t *testing.T) {
	srcDB, srcMock, tgtDB, tgtMock, cleanup := newMockPair(t)
	defer cleanup()

	// String keys are scanned with ORDER BY BINARY, so uppercase sorts
	// before lowercase. The merge-join must walk both streams in that same
	// order: the identical "Banana" rows align and produce no difference,
	// leaving only the source-only "apple".
	srcMock.ExpectQuery("SELECT \\* FROM `app`.`items` ORDER BY BINARY `code`").
		WillReturnRows(sqlmock.NewRows([]string{"code", "val"}).
			AddRow("Banana", "y").
			AddRow("apple", "x"))
	tgtMock.ExpectQuery("SELECT \\* FROM `app`.`items` ORDER BY BINARY `code`").
		WillReturnRows(sqlmock.NewRows([]string{"code", "val"}).
			AddRow("Banana", "y"))

	differ, _ := NewDataDiffer(srcDB, tgtDB, 0, nil)
	diffs, err := differ.CompareTableData(context.Background(), "app", "app", "items",
		[]metadata.KeyColumn{{Name: "code", DataType: "varchar"}})
	if err != nil {
		t.Fatalf("CompareTableData failed: %v", err)
	}

	if len(diffs) != 1 {
		t.Fatalf("Expected 1 difference, got %d: %+v", len(diffs), diffs)
	}
	if diffs[0].Kind != ChangeRemoved || diffs[0].PrimaryKeyValues[0] != "apple" {
		t.Errorf("Expected key apple removed, got %+v", diffs[0])
	}
}

func TestCompareTableData_SampledStringKeyBound(t *testing.T) {
	srcDB, srcMock, tgtDB, tgtMock, cleanup := newMockPair(t)
	defer cleanup()

	srcMock.ExpectQuery("SELECT \\* FROM `app`.`items` ORDER BY BINARY `code` LIMIT 2").
		WillReturnRows(sqlmock.NewRows([]string{"code", "val"}).
			AddRow("Apple", "a").
			AddRow("Banana", "b"))

	// The target bound uses the same BINARY expression as the scan order,
	// so the sampled keys cannot fall outside the bounded target range.
	tgtMock.ExpectQuery("SELECT \\* FROM `app`.`items` WHERE \\(BINARY `code`\\) <= \\(\\?\\) ORDER BY BINARY `code`").
		WithArgs("Banana").
		WillReturnRows(sqlmock.NewRows([]string{"code", "val"}).
			AddRow("Apple", "a").
			AddRow("Banana", "z"))

	differ, _ := NewDataDiffer(srcDB, tgtDB, 2, nil)
	diffs, err := differ.CompareTableData(context.Background(), "app", "app", "items",
		[]metadata.KeyColumn{{Name: "code", DataType: "varchar"}})
	if err != nil {
		t.Fatalf("CompareTableData failed: %v", err)
	}

	if len(diffs) != 1 {
		t.Fatalf("Expected 1 difference, got %d: %+v", len(diffs), diffs)
	}
	if diffs[0].Kind != ChangeModified || diffs[0].PrimaryKeyValues[0] != "Banana" {
		t.Errorf("Expected key Banana modified, got %+v", diffs[0])
	}
}

func TestCompareTableData_Sampled(t *testing.T) {
	srcDB, srcMock, tgtDB, tgtMock, cleanup := newMockPair(t)
	defer cleanup()

	srcMock.ExpectQuery("SELECT \\* FROM `app`.`items` ORDER BY `id` LIMIT 2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "val"}).
			AddRow(1, "a").
			AddRow(3, "c"))

	// The target scan is bounded by the last sampled key.
	tgtMock.ExpectQuery("SELECT \\* FROM `app`.`items` WHERE \\(`id`\\) <= \\(\\?\\) ORDER BY `id`").
		WithArgs("3").
		WillReturnRows(sqlmock.NewRows([]string{"id", "val"}).
			AddRow(1, "a").
			AddRow(2, "b").
			AddRow(3, "x"))

	differ, _ := NewDataDiffer(srcDB, tgtDB, 2, nil)
	diffs, err := differ.CompareTableData(context.Background(), "app", "app", "items", bigintKey("id"))
	if err != nil {
		t.Fatalf("CompareTableData failed: %v", err)
	}

	// Key 2 exists only on the target but sampling suppresses added rows;
	// only the modified key 3 is reported.
	if len(diffs) != 1 {
		t.Fatalf("Expected 1 difference under sampling, got %d: %+v", len(diffs), diffs)
	}
	if diffs[0].Kind != ChangeModified || diffs[0].PrimaryKeyValues[0] != "3" {
		t.Errorf("Expected key 3 modified, got %+v", diffs[0])
	}
}

func TestCompareTableData_SampledEmptySource(t *testing.T) {
	srcDB, srcMock, tgtDB, _, cleanup := newMockPair(t)
	defer cleanup()

	srcMock.ExpectQuery("SELECT \\* FROM `app`.`items` ORDER BY `id` LIMIT 10").
		WillReturnRows(sqlmock.NewRows([]string{"id", "val"}))

	differ, _ := NewDataDiffer(srcDB, tgtDB, 10, nil)
	diffs, err := differ.CompareTableData(context.Background(), "app", "app", "items", bigintKey("id"))
	if err != nil {
		t.Fatalf("CompareTableData failed: %v", err)
	}
	if len(diffs) != 0 {
		t.Errorf("Expected no differences for empty sample, got %+v", diffs)
	}
}

func TestCompareTableData_Cancelled(t *testing.T) {
	srcDB, srcMock, tgtDB, tgtMock, cleanup := newMockPair(t)
	defer cleanup()

	srcMock.ExpectQuery("SELECT \\* FROM `app`.`items` ORDER BY `id`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "val"}).AddRow(1, "a"))
	tgtMock.ExpectQuery("SELECT \\* FROM `app`.`items` ORDER BY `id`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "val"}).AddRow(1, "a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	differ, _ := NewDataDiffer(srcDB, tgtDB, 0, nil)
	_, err := differ.CompareTableData(ctx, "app", "app", "items", bigintKey("id"))
	if err == nil {
		t.Fatal("Expected error for cancelled context")
	}
}

func TestCompareKeys(t *testing.T) {
	v := func(s string) cell { return cell{valid: true, value: s} }
	null := cell{}
	numeric := []bool{true, true}
	binary := []bool{false, false}

	tests := []struct {
		name     string
		a, b     []cell
		kinds    []bool
		expected int
	}{
		{"equal ints", []cell{v("2")}, []cell{v("2")}, numeric, 0},
		{"numeric not lexicographic", []cell{v("9")}, []cell{v("10")}, numeric, -1},
		{"float order", []cell{v("2.5")}, []cell{v("10.1")}, numeric, -1},
		{"string order", []cell{v("apple")}, []cell{v("banana")}, binary, -1},
		{"digit strings byte-wise", []cell{v("10")}, []cell{v("9")}, binary, -1},
		{"upper before lower byte-wise", []cell{v("Banana")}, []cell{v("apple")}, binary, -1},
		{"null sorts first", []cell{null}, []cell{v("0")}, numeric, -1},
		{"both null equal", []cell{null}, []cell{null}, numeric, 0},
		{"composite tiebreak", []cell{v("1"), v("2")}, []cell{v("1"), v("3")}, numeric, -1},
		{"shorter key first", []cell{v("1")}, []cell{v("1"), v("2")}, numeric, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compareKeys(tt.a, tt.b, tt.kinds)
			if got != tt.expected {
				t.Errorf("compareKeys = %d, expected %d", got, tt.expected)
			}
			// Antisymmetry
			if rev := compareKeys(tt.b, tt.a, tt.kinds); rev != -tt.expected {
				t.Errorf("compareKeys reversed = %d, expected %d", rev, -tt.expected)
			}
		})
	}
}

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected cell
	}{
		{"nil", nil, cell{}},
		{"bytes", []byte("abc"), cell{valid: true, value: "abc"}},
		{"string", "xyz", cell{valid: true, value: "xyz"}},
		{"int64", int64(42), cell{valid: true, value: "42"}},
		{"float64", 2.5, cell{valid: true, value: "2.5"}},
		{"bool", true, cell{valid: true, value: "true"}},
		{
			"time",
			time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC),
			cell{valid: true, value: "2026-03-15 10:30:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeValue(tt.input)
			if got != tt.expected {
				t.Errorf("normalizeValue(%v) = %+v, expected %+v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCellString(t *testing.T) {
	if (cell{}).String() != "NULL" {
		t.Error("Expected NULL for invalid cell")
	}
	if (cell{valid: true, value: "x"}).String() != "x" {
		t.Error("Expected value for valid cell")
	}
}
