package compare

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dbsmedya/dbcompare/internal/metadata"
	"github.com/dbsmedya/dbcompare/internal/sqlutil"
)

// tableCursor streams one side's rows in primary-key order.
type tableCursor struct {
	rows    *sql.Rows
	columns []string
	colSet  map[string]int // normalized name -> index
	keyIdx  []int
}

// openCursor issues the ordered row query for one side. A positive limit
// bounds the scan to the first N rows; a non-nil upperKey restricts the scan
// to key tuples at or below that key (used to bound the target side of a
// sampled comparison).
//
// Non-numeric key columns are ordered and bounded through BINARY so the
// server's order is plain byte order regardless of column collation; the
// merge-join compares those cells byte-wise, and the two must agree.
func (d *DataDiffer) openCursor(ctx context.Context, db *sql.DB, schemaName, tableName string, pkColumns []metadata.KeyColumn, limit int, upperKey []cell) (*tableCursor, error) {
	keyExprs := make([]string, len(pkColumns))
	for i, col := range pkColumns {
		quoted, err := sqlutil.QuoteIdentifierSafe(col.Name)
		if err != nil {
			return nil, fmt.Errorf("bad key column: %w", err)
		}
		if col.Numeric() {
			keyExprs[i] = quoted
		} else {
			keyExprs[i] = "BINARY " + quoted
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(sqlutil.QuoteQualified(schemaName, tableName))

	var args []interface{}
	if upperKey != nil {
		// Row-constructor comparison keeps the bound correct for
		// composite keys, in the same order as the scan.
		placeholders := make([]string, len(upperKey))
		for i, c := range upperKey {
			placeholders[i] = "?"
			if c.valid {
				args = append(args, c.value)
			} else {
				args = append(args, nil)
			}
		}
		sb.WriteString(" WHERE (")
		sb.WriteString(strings.Join(keyExprs, ", "))
		sb.WriteString(") <= (")
		sb.WriteString(strings.Join(placeholders, ", "))
		sb.WriteString(")")
	}

	sb.WriteString(" ORDER BY ")
	sb.WriteString(strings.Join(keyExprs, ", "))

	if limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", limit))
	}

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("row query failed: %w", err)
	}

	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	colSet := make(map[string]int, len(columns))
	for i, name := range columns {
		colSet[strings.ToUpper(name)] = i
	}

	keyIdx := make([]int, len(pkColumns))
	for i, col := range pkColumns {
		idx, ok := colSet[strings.ToUpper(col.Name)]
		if !ok {
			rows.Close()
			return nil, fmt.Errorf("key column %q missing from result set", col.Name)
		}
		keyIdx[i] = idx
	}

	return &tableCursor{
		rows:    rows,
		columns: columns,
		colSet:  colSet,
		keyIdx:  keyIdx,
	}, nil
}

func (c *tableCursor) next(ctx context.Context) (*joinRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating rows: %w", err)
		}
		return nil, nil
	}

	values := make([]interface{}, len(c.columns))
	valuePtrs := make([]interface{}, len(c.columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := c.rows.Scan(valuePtrs...); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	cells := make([]cell, len(values))
	for i, v := range values {
		cells[i] = normalizeValue(v)
	}

	key := make([]cell, len(c.keyIdx))
	for i, idx := range c.keyIdx {
		key[i] = cells[idx]
	}

	return &joinRow{cells: cells, key: key}, nil
}

func (c *tableCursor) columnSet() map[string]int { return c.colSet }
func (c *tableCursor) columnNames() []string     { return c.columns }
func (c *tableCursor) keyIndexes() []int         { return c.keyIdx }

func (c *tableCursor) close() {
	c.rows.Close()
}

// drain reads every remaining row into memory. Only used for the sampled
// source side, so memory stays bounded by the sample size.
func (c *tableCursor) drain(ctx context.Context) (*rowSlice, error) {
	slice := &rowSlice{
		columns: c.columns,
		colSet:  c.colSet,
		keyIdx:  c.keyIdx,
	}
	for {
		row, err := c.next(ctx)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return slice, nil
		}
		slice.rows = append(slice.rows, row)
	}
}

// rowSlice is an in-memory rowSource over pre-fetched rows.
type rowSlice struct {
	rows    []*joinRow
	pos     int
	columns []string
	colSet  map[string]int
	keyIdx  []int
}

func (s *rowSlice) next(ctx context.Context) (*joinRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.rows) {
		return nil, nil
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

func (s *rowSlice) columnSet() map[string]int { return s.colSet }
func (s *rowSlice) columnNames() []string     { return s.columns }
func (s *rowSlice) keyIndexes() []int         { return s.keyIdx }
