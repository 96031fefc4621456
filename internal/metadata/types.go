// Package metadata provides schema metadata extraction from the relational
// catalog for DBCompare.
package metadata

import (
	"database/sql"
	"strings"
)

// SchemaMetadata is a snapshot of one schema's catalog, produced fresh per
// comparison run and owned by the run that requested it.
type SchemaMetadata struct {
	Name       string
	Tables     []TableMetadata
	Views      []ViewMetadata
	Sequences  []SequenceMetadata
	Procedures []ProcedureMetadata
}

// TableMetadata describes one table and its structural children.
type TableMetadata struct {
	Name        string
	Schema      string
	Columns     []ColumnMetadata
	Constraints []ConstraintMetadata
	Indexes     []IndexMetadata
	// RowCount is the catalog's approximate row count, not an exact count.
	RowCount int64
}

// ColumnMetadata describes one column.
type ColumnMetadata struct {
	Name      string
	DataType  string
	Nullable  bool
	Precision sql.NullInt64
	Scale     sql.NullInt64
	Default   sql.NullString
	Position  int
}

// ConstraintMetadata describes one table constraint.
type ConstraintMetadata struct {
	Name  string
	Table string
	Type  string // PRIMARY KEY, UNIQUE, FOREIGN KEY, CHECK
}

// IndexMetadata describes one index. Columns are ordered by their position
// within the index.
type IndexMetadata struct {
	Name    string
	Table   string
	Columns []string
	Unique  bool
}

// KeyColumn is one primary-key column together with the catalog type that
// decides how the server orders its values.
type KeyColumn struct {
	Name     string
	DataType string
}

var numericKeyTypes = map[string]bool{
	"tinyint":   true,
	"smallint":  true,
	"mediumint": true,
	"int":       true,
	"bigint":    true,
	"decimal":   true,
	"numeric":   true,
	"float":     true,
	"double":    true,
	"year":      true,
}

// Numeric reports whether the column's values are ordered numerically by the
// server. Non-numeric key columns are ordered by their collation.
func (k KeyColumn) Numeric() bool {
	return numericKeyTypes[strings.ToLower(k.DataType)]
}

// ViewMetadata describes one view.
type ViewMetadata struct {
	Name string
}

// SequenceMetadata describes one sequence (MariaDB; plain MySQL has none).
type SequenceMetadata struct {
	Name string
}

// ProcedureMetadata describes one stored routine.
type ProcedureMetadata struct {
	Name string
	Type string // PROCEDURE or FUNCTION
}

// FindTable returns the table with the given name, matched case-insensitively,
// or nil if absent.
func (s *SchemaMetadata) FindTable(name string) *TableMetadata {
	for i := range s.Tables {
		if strings.EqualFold(s.Tables[i].Name, name) {
			return &s.Tables[i]
		}
	}
	return nil
}

// FindColumn returns the column with the given name, matched
// case-insensitively, or nil if absent.
func (t *TableMetadata) FindColumn(name string) *ColumnMetadata {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i]
		}
	}
	return nil
}
