// Package compare implements the cross-database comparison engine for
// DBCompare: schema diffing, primary-key based data diffing, and the
// orchestration that ties them into one comparison run.
package compare

import (
	"time"

	"github.com/elliotchance/orderedmap/v2"
)

// ChangeKind classifies a difference between source and target.
type ChangeKind string

const (
	// ChangeAdded marks an object or row present only on the target side.
	ChangeAdded ChangeKind = "added"
	// ChangeRemoved marks an object or row present only on the source side.
	ChangeRemoved ChangeKind = "removed"
	// ChangeModified marks an object or row present on both sides with
	// differing attributes or values.
	ChangeModified ChangeKind = "modified"
)

// ValueDelta holds a source/target value pair for one differing attribute.
type ValueDelta struct {
	Source string
	Target string
}

// SchemaDifference describes one structural difference at object granularity.
// When Kind is ChangeModified, Details maps each differing attribute to its
// source/target values; an object with several differing attributes still
// yields exactly one SchemaDifference.
type SchemaDifference struct {
	ObjectType string
	ObjectName string
	Kind       ChangeKind
	Details    map[string]ValueDelta
}

// TableDataDifference describes one row-level difference keyed by primary key.
type TableDataDifference struct {
	TableName        string
	PrimaryKeyValues []string
	Kind             ChangeKind
	// ColumnDeltas is populated only for ChangeModified, one entry per
	// differing non-key column.
	ColumnDeltas map[string]ValueDelta
}

// ComparisonResult aggregates one comparison run. It is produced exactly once
// per run and never mutated afterwards.
type ComparisonResult struct {
	SourceName        string
	TargetName        string
	ComparisonTime    time.Time
	Duration          time.Duration
	SchemaDifferences []SchemaDifference
	DataDifferences   []TableDataDifference
	// SkippedTables lists tables excluded from the data comparison at run
	// time (no primary key, or a per-table query failure in lenient mode).
	SkippedTables []SkippedTable
}

// SkippedTable records why a table was left out of the data comparison.
type SkippedTable struct {
	Name   string
	Reason string
}

// TotalDifferences returns the combined schema and data difference count.
func (r *ComparisonResult) TotalDifferences() int {
	return len(r.SchemaDifferences) + len(r.DataDifferences)
}

// HasDifferences reports whether the run found any difference at all.
func (r *ComparisonResult) HasDifferences() bool {
	return r.TotalDifferences() > 0
}

// Summary is a read-only projection of a ComparisonResult: counts grouped by
// object type, change kind, and table. The ordered maps iterate in insertion
// order, which follows the deterministic ordering of the underlying
// difference lists.
type Summary struct {
	SourceName   string
	TargetName   string
	SchemaByType *orderedmap.OrderedMap[string, int]
	SchemaByKind *orderedmap.OrderedMap[string, int]
	DataByTable  *orderedmap.OrderedMap[string, int]
	DataByKind   *orderedmap.OrderedMap[string, int]
	SchemaTotal  int
	DataTotal    int
	Total        int
}

// Summarize computes the summary projection for a result. It performs no new
// comparison work.
func Summarize(r *ComparisonResult) *Summary {
	s := &Summary{
		SourceName:   r.SourceName,
		TargetName:   r.TargetName,
		SchemaByType: orderedmap.NewOrderedMap[string, int](),
		SchemaByKind: orderedmap.NewOrderedMap[string, int](),
		DataByTable:  orderedmap.NewOrderedMap[string, int](),
		DataByKind:   orderedmap.NewOrderedMap[string, int](),
		SchemaTotal:  len(r.SchemaDifferences),
		DataTotal:    len(r.DataDifferences),
		Total:        r.TotalDifferences(),
	}

	for _, diff := range r.SchemaDifferences {
		count, _ := s.SchemaByType.Get(diff.ObjectType)
		s.SchemaByType.Set(diff.ObjectType, count+1)

		count, _ = s.SchemaByKind.Get(string(diff.Kind))
		s.SchemaByKind.Set(string(diff.Kind), count+1)
	}

	for _, diff := range r.DataDifferences {
		count, _ := s.DataByTable.Get(diff.TableName)
		s.DataByTable.Set(diff.TableName, count+1)

		count, _ = s.DataByKind.Get(string(diff.Kind))
		s.DataByKind.Set(string(diff.Kind), count+1)
	}

	return s
}
