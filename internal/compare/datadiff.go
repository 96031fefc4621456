package compare

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dbsmedya/dbcompare/internal/logger"
	"github.com/dbsmedya/dbcompare/internal/metadata"
)

// DataDiffer compares row sets between the source and target copies of one
// table, keyed by primary key, using an ordered merge-join over both sides.
type DataDiffer struct {
	source *sql.DB
	target *sql.DB
	// sampleSize bounds the comparison to the first N source rows in
	// primary-key order. Zero compares full tables.
	//
	// Sampling is asymmetric on purpose: only keys present in the source
	// sample are compared, so target-only rows are never reported while a
	// sample size is set. This bounds memory and target-side I/O without a
	// full table scan.
	sampleSize int
	logger     *logger.Logger
}

// NewDataDiffer creates a data differ over the two connections.
func NewDataDiffer(source, target *sql.DB, sampleSize int, log *logger.Logger) (*DataDiffer, error) {
	if source == nil {
		return nil, fmt.Errorf("source database is nil")
	}
	if target == nil {
		return nil, fmt.Errorf("target database is nil")
	}
	if sampleSize < 0 {
		return nil, fmt.Errorf("sample size cannot be negative")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &DataDiffer{
		source:     source,
		target:     target,
		sampleSize: sampleSize,
		logger:     log,
	}, nil
}

// cell is one scanned column value. Invalid means SQL NULL.
type cell struct {
	valid bool
	value string
}

func (c cell) String() string {
	if !c.valid {
		return "NULL"
	}
	return c.value
}

// CompareTableData diffs the table's rows between both sides. Rows are read
// ordered by the primary-key tuple ascending and merged in lockstep: a key
// present only on the source becomes removed, only on the target becomes
// added, and a key on both sides with differing non-key values becomes
// modified with one ColumnDeltas entry per differing column. Values compare
// by exact equality; no numeric tolerance is applied.
func (d *DataDiffer) CompareTableData(ctx context.Context, sourceSchema, targetSchema, tableName string, pkColumns []metadata.KeyColumn) ([]TableDataDifference, error) {
	if len(pkColumns) == 0 {
		return nil, fmt.Errorf("no primary key columns for table %q", tableName)
	}

	if d.sampleSize > 0 {
		return d.compareSampled(ctx, sourceSchema, targetSchema, tableName, pkColumns)
	}
	return d.compareFull(ctx, sourceSchema, targetSchema, tableName, pkColumns)
}

// compareFull streams both sides in primary-key order and merge-joins them.
func (d *DataDiffer) compareFull(ctx context.Context, sourceSchema, targetSchema, tableName string, pkColumns []metadata.KeyColumn) ([]TableDataDifference, error) {
	src, err := d.openCursor(ctx, d.source, sourceSchema, tableName, pkColumns, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("source query failed for table %q: %w", tableName, err)
	}
	defer src.close()

	tgt, err := d.openCursor(ctx, d.target, targetSchema, tableName, pkColumns, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("target query failed for table %q: %w", tableName, err)
	}
	defer tgt.close()

	return d.mergeJoin(ctx, tableName, src, tgt, numericKinds(pkColumns), false)
}

// compareSampled loads the first sampleSize source rows (bounded memory),
// then scans the target only up to the last sampled key.
func (d *DataDiffer) compareSampled(ctx context.Context, sourceSchema, targetSchema, tableName string, pkColumns []metadata.KeyColumn) ([]TableDataDifference, error) {
	src, err := d.openCursor(ctx, d.source, sourceSchema, tableName, pkColumns, d.sampleSize, nil)
	if err != nil {
		return nil, fmt.Errorf("source query failed for table %q: %w", tableName, err)
	}

	sample, err := src.drain(ctx)
	src.close()
	if err != nil {
		return nil, fmt.Errorf("source read failed for table %q: %w", tableName, err)
	}
	if len(sample.rows) == 0 {
		// Nothing sampled means nothing to compare.
		d.logger.Debugw("Source sample empty, skipping data comparison", "table", tableName)
		return nil, nil
	}

	lastKey := sample.rows[len(sample.rows)-1].key
	tgt, err := d.openCursor(ctx, d.target, targetSchema, tableName, pkColumns, 0, lastKey)
	if err != nil {
		return nil, fmt.Errorf("target query failed for table %q: %w", tableName, err)
	}
	defer tgt.close()

	return d.mergeJoin(ctx, tableName, sample, tgt, numericKinds(pkColumns), true)
}

// numericKinds extracts the per-position numeric flag of a key tuple.
func numericKinds(pkColumns []metadata.KeyColumn) []bool {
	kinds := make([]bool, len(pkColumns))
	for i, col := range pkColumns {
		kinds[i] = col.Numeric()
	}
	return kinds
}

// rowSource yields rows with their key tuples in primary-key order.
type rowSource interface {
	next(ctx context.Context) (*joinRow, error) // nil row means exhausted
	columnSet() map[string]int                  // normalized column name -> index
	columnNames() []string
	keyIndexes() []int
}

// joinRow is one fetched row plus its extracted key tuple.
type joinRow struct {
	cells []cell
	key   []cell
}

// mergeJoin walks both ordered row sources in lockstep and classifies keys.
// numericKey carries the per-position key kind so client-side ordering agrees
// with the server's scan order. When sampled is true, target-only keys are not
// reported (asymmetric sampling policy).
func (d *DataDiffer) mergeJoin(ctx context.Context, tableName string, src, tgt rowSource, numericKey []bool, sampled bool) ([]TableDataDifference, error) {
	var diffs []TableDataDifference

	shared := sharedColumns(src, tgt)

	srcRow, err := src.next(ctx)
	if err != nil {
		return nil, fmt.Errorf("source read failed for table %q: %w", tableName, err)
	}
	tgtRow, err := tgt.next(ctx)
	if err != nil {
		return nil, fmt.Errorf("target read failed for table %q: %w", tableName, err)
	}

	for srcRow != nil || tgtRow != nil {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("comparison of table %q interrupted: %w", tableName, err)
		}

		var order int
		switch {
		case srcRow == nil:
			order = 1
		case tgtRow == nil:
			order = -1
		default:
			order = compareKeys(srcRow.key, tgtRow.key, numericKey)
		}

		switch {
		case order < 0:
			diffs = append(diffs, TableDataDifference{
				TableName:        tableName,
				PrimaryKeyValues: renderKey(srcRow.key),
				Kind:             ChangeRemoved,
			})
			if srcRow, err = src.next(ctx); err != nil {
				return nil, fmt.Errorf("source read failed for table %q: %w", tableName, err)
			}
		case order > 0:
			if !sampled {
				diffs = append(diffs, TableDataDifference{
					TableName:        tableName,
					PrimaryKeyValues: renderKey(tgtRow.key),
					Kind:             ChangeAdded,
				})
			}
			if tgtRow, err = tgt.next(ctx); err != nil {
				return nil, fmt.Errorf("target read failed for table %q: %w", tableName, err)
			}
		default:
			deltas := compareValues(srcRow, tgtRow, shared)
			if len(deltas) > 0 {
				diffs = append(diffs, TableDataDifference{
					TableName:        tableName,
					PrimaryKeyValues: renderKey(srcRow.key),
					Kind:             ChangeModified,
					ColumnDeltas:     deltas,
				})
			}
			if srcRow, err = src.next(ctx); err != nil {
				return nil, fmt.Errorf("source read failed for table %q: %w", tableName, err)
			}
			if tgtRow, err = tgt.next(ctx); err != nil {
				return nil, fmt.Errorf("target read failed for table %q: %w", tableName, err)
			}
		}
	}

	d.logger.Debugw("Table data comparison complete",
		"table", tableName,
		"differences", len(diffs),
	)

	return diffs, nil
}

// sharedColumn pairs one non-key column's index on each side.
type sharedColumn struct {
	name   string
	srcIdx int
	tgtIdx int
}

// sharedColumns resolves the non-key columns present on both sides, in the
// source column order. Columns on only one side are schema drift and are left
// to the schema differ.
func sharedColumns(src, tgt rowSource) []sharedColumn {
	keyIdx := make(map[int]bool, len(src.keyIndexes()))
	for _, idx := range src.keyIndexes() {
		keyIdx[idx] = true
	}

	tgtSet := tgt.columnSet()
	var shared []sharedColumn
	for i, name := range src.columnNames() {
		if keyIdx[i] {
			continue
		}
		j, ok := tgtSet[strings.ToUpper(name)]
		if !ok {
			continue
		}
		shared = append(shared, sharedColumn{name: name, srcIdx: i, tgtIdx: j})
	}
	return shared
}

// compareValues returns one delta per shared column whose values differ.
func compareValues(srcRow, tgtRow *joinRow, shared []sharedColumn) map[string]ValueDelta {
	var deltas map[string]ValueDelta
	for _, col := range shared {
		srcCell := srcRow.cells[col.srcIdx]
		tgtCell := tgtRow.cells[col.tgtIdx]
		if srcCell == tgtCell {
			continue
		}
		if deltas == nil {
			deltas = make(map[string]ValueDelta)
		}
		deltas[col.name] = ValueDelta{Source: srcCell.String(), Target: tgtCell.String()}
	}
	return deltas
}

func renderKey(key []cell) []string {
	values := make([]string, len(key))
	for i, c := range key {
		values[i] = c.String()
	}
	return values
}

// compareKeys orders two key tuples the way the server scans them: NULLs
// first, numeric key columns numerically, everything else byte-wise (the scan
// forces BINARY order on non-numeric key columns, see openCursor).
func compareKeys(a, b []cell, numeric []bool) int {
	for i := range a {
		if i >= len(b) {
			return 1
		}
		isNumeric := i < len(numeric) && numeric[i]
		if c := compareCell(a[i], b[i], isNumeric); c != 0 {
			return c
		}
	}
	if len(a) < len(b) {
		return -1
	}
	return 0
}

// compareCell orders two cells of one key column. Numeric columns may arrive
// as int64 over the binary protocol but as digit text over the text protocol,
// so their values are parsed before comparing; non-numeric columns compare
// byte-wise only, matching the BINARY scan order.
func compareCell(a, b cell, numeric bool) int {
	switch {
	case !a.valid && !b.valid:
		return 0
	case !a.valid:
		return -1
	case !b.valid:
		return 1
	}

	if numeric {
		if ai, errA := strconv.ParseInt(a.value, 10, 64); errA == nil {
			if bi, errB := strconv.ParseInt(b.value, 10, 64); errB == nil {
				switch {
				case ai < bi:
					return -1
				case ai > bi:
					return 1
				default:
					return 0
				}
			}
		}
		if af, errA := strconv.ParseFloat(a.value, 64); errA == nil {
			if bf, errB := strconv.ParseFloat(b.value, 64); errB == nil {
				switch {
				case af < bf:
					return -1
				case af > bf:
					return 1
				default:
					return 0
				}
			}
		}
	}

	return strings.Compare(a.value, b.value)
}

// normalizeValue converts a scanned driver value to a cell. Byte slices are
// taken as strings; times keep the driver's native precision.
func normalizeValue(v interface{}) cell {
	switch val := v.(type) {
	case nil:
		return cell{}
	case []byte:
		return cell{valid: true, value: string(val)}
	case string:
		return cell{valid: true, value: val}
	case int64:
		return cell{valid: true, value: strconv.FormatInt(val, 10)}
	case float64:
		return cell{valid: true, value: strconv.FormatFloat(val, 'g', -1, 64)}
	case bool:
		return cell{valid: true, value: strconv.FormatBool(val)}
	case time.Time:
		return cell{valid: true, value: val.Format("2006-01-02 15:04:05.999999")}
	default:
		return cell{valid: true, value: fmt.Sprintf("%v", val)}
	}
}
