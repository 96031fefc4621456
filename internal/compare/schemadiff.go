package compare

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dbsmedya/dbcompare/internal/config"
	"github.com/dbsmedya/dbcompare/internal/logger"
	"github.com/dbsmedya/dbcompare/internal/metadata"
)

// Object type labels used in SchemaDifference entries.
const (
	TypeTable      = "table"
	TypeView       = "view"
	TypeSequence   = "sequence"
	TypeProcedure  = "procedure"
	TypeIndex      = "index"
	TypeConstraint = "constraint"
	TypeColumn     = "column"
)

// SchemaDiffer compares two schema metadata snapshots and produces an ordered
// list of structural differences.
type SchemaDiffer struct {
	logger *logger.Logger
}

// NewSchemaDiffer creates a schema differ with the given logger.
func NewSchemaDiffer(log *logger.Logger) *SchemaDiffer {
	if log == nil {
		log = logger.NewDefault()
	}
	return &SchemaDiffer{logger: log}
}

// CompareSchemas diffs source against target for the requested object types.
// Object names are matched case-insensitively after uppercase normalization.
// The result is sorted by object type, then object name, then change kind, so
// repeated runs against unchanged catalogs produce identical output.
func (d *SchemaDiffer) CompareSchemas(source, target *metadata.SchemaMetadata, objectTypes []string) ([]SchemaDifference, error) {
	if source == nil || target == nil {
		return nil, fmt.Errorf("schema metadata is nil")
	}

	var diffs []SchemaDifference
	for _, objectType := range objectTypes {
		switch objectType {
		case config.ObjectTables:
			diffs = append(diffs, d.compareTables(source, target)...)
		case config.ObjectViews:
			diffs = append(diffs, d.compareNameSet(TypeView, viewNames(source), viewNames(target))...)
		case config.ObjectSequences:
			diffs = append(diffs, d.compareNameSet(TypeSequence, sequenceNames(source), sequenceNames(target))...)
		case config.ObjectProcedures:
			diffs = append(diffs, d.compareProcedures(source, target)...)
		case config.ObjectIndexes:
			diffs = append(diffs, d.compareIndexes(source, target)...)
		case config.ObjectConstraints:
			diffs = append(diffs, d.compareConstraints(source, target)...)
		default:
			return nil, fmt.Errorf("unknown schema object type %q", objectType)
		}
	}

	sortSchemaDifferences(diffs)

	d.logger.Infow("Schema comparison complete",
		"source", source.Name,
		"target", target.Name,
		"differences", len(diffs),
	)

	return diffs, nil
}

// normalize uppercases a name for case-insensitive catalog matching.
func normalize(name string) string {
	return strings.ToUpper(name)
}

func sortSchemaDifferences(diffs []SchemaDifference) {
	sort.SliceStable(diffs, func(i, j int) bool {
		if diffs[i].ObjectType != diffs[j].ObjectType {
			return diffs[i].ObjectType < diffs[j].ObjectType
		}
		ni, nj := normalize(diffs[i].ObjectName), normalize(diffs[j].ObjectName)
		if ni != nj {
			return ni < nj
		}
		return diffs[i].Kind < diffs[j].Kind
	})
}

// compareNameSet diffs two plain name sets. Names only on the target become
// added, names only on the source become removed.
func (d *SchemaDiffer) compareNameSet(objectType string, source, target []string) []SchemaDifference {
	sourceSet := make(map[string]string, len(source)) // normalized -> original
	for _, name := range source {
		sourceSet[normalize(name)] = name
	}
	targetSet := make(map[string]string, len(target))
	for _, name := range target {
		targetSet[normalize(name)] = name
	}

	var diffs []SchemaDifference
	for key, name := range sourceSet {
		if _, ok := targetSet[key]; !ok {
			diffs = append(diffs, SchemaDifference{
				ObjectType: objectType,
				ObjectName: name,
				Kind:       ChangeRemoved,
			})
		}
	}
	for key, name := range targetSet {
		if _, ok := sourceSet[key]; !ok {
			diffs = append(diffs, SchemaDifference{
				ObjectType: objectType,
				ObjectName: name,
				Kind:       ChangeAdded,
			})
		}
	}
	return diffs
}

func viewNames(meta *metadata.SchemaMetadata) []string {
	names := make([]string, 0, len(meta.Views))
	for _, v := range meta.Views {
		names = append(names, v.Name)
	}
	return names
}

func sequenceNames(meta *metadata.SchemaMetadata) []string {
	names := make([]string, 0, len(meta.Sequences))
	for _, s := range meta.Sequences {
		names = append(names, s.Name)
	}
	return names
}

// compareTables diffs the table name sets and, for tables present on both
// sides, their column structure.
func (d *SchemaDiffer) compareTables(source, target *metadata.SchemaMetadata) []SchemaDifference {
	sourceTables := make(map[string]*metadata.TableMetadata, len(source.Tables))
	for i := range source.Tables {
		sourceTables[normalize(source.Tables[i].Name)] = &source.Tables[i]
	}
	targetTables := make(map[string]*metadata.TableMetadata, len(target.Tables))
	for i := range target.Tables {
		targetTables[normalize(target.Tables[i].Name)] = &target.Tables[i]
	}

	var diffs []SchemaDifference
	for key, srcTable := range sourceTables {
		tgtTable, ok := targetTables[key]
		if !ok {
			diffs = append(diffs, SchemaDifference{
				ObjectType: TypeTable,
				ObjectName: srcTable.Name,
				Kind:       ChangeRemoved,
			})
			continue
		}
		diffs = append(diffs, d.compareColumns(srcTable, tgtTable)...)
	}
	for key, tgtTable := range targetTables {
		if _, ok := sourceTables[key]; !ok {
			diffs = append(diffs, SchemaDifference{
				ObjectType: TypeTable,
				ObjectName: tgtTable.Name,
				Kind:       ChangeAdded,
			})
		}
	}
	return diffs
}

// compareColumns diffs the column sets of one table present on both sides.
// A column differing in several attributes yields exactly one modified
// difference whose Details lists every differing attribute.
func (d *SchemaDiffer) compareColumns(srcTable, tgtTable *metadata.TableMetadata) []SchemaDifference {
	srcCols := make(map[string]*metadata.ColumnMetadata, len(srcTable.Columns))
	for i := range srcTable.Columns {
		srcCols[normalize(srcTable.Columns[i].Name)] = &srcTable.Columns[i]
	}
	tgtCols := make(map[string]*metadata.ColumnMetadata, len(tgtTable.Columns))
	for i := range tgtTable.Columns {
		tgtCols[normalize(tgtTable.Columns[i].Name)] = &tgtTable.Columns[i]
	}

	var diffs []SchemaDifference
	for key, srcCol := range srcCols {
		tgtCol, ok := tgtCols[key]
		if !ok {
			diffs = append(diffs, SchemaDifference{
				ObjectType: TypeColumn,
				ObjectName: srcTable.Name + "." + srcCol.Name,
				Kind:       ChangeRemoved,
			})
			continue
		}

		details := columnDetails(srcCol, tgtCol)
		if len(details) > 0 {
			diffs = append(diffs, SchemaDifference{
				ObjectType: TypeColumn,
				ObjectName: srcTable.Name + "." + srcCol.Name,
				Kind:       ChangeModified,
				Details:    details,
			})
		}
	}
	for key, tgtCol := range tgtCols {
		if _, ok := srcCols[key]; !ok {
			diffs = append(diffs, SchemaDifference{
				ObjectType: TypeColumn,
				ObjectName: tgtTable.Name + "." + tgtCol.Name,
				Kind:       ChangeAdded,
			})
		}
	}
	return diffs
}

// columnDetails collects every attribute-level delta between two columns.
func columnDetails(src, tgt *metadata.ColumnMetadata) map[string]ValueDelta {
	details := make(map[string]ValueDelta)

	if !strings.EqualFold(src.DataType, tgt.DataType) {
		details["data_type"] = ValueDelta{Source: src.DataType, Target: tgt.DataType}
	}
	if src.Nullable != tgt.Nullable {
		details["nullable"] = ValueDelta{
			Source: fmt.Sprintf("%t", src.Nullable),
			Target: fmt.Sprintf("%t", tgt.Nullable),
		}
	}
	if src.Precision != tgt.Precision {
		details["precision"] = ValueDelta{
			Source: nullableInt(src.Precision.Valid, src.Precision.Int64),
			Target: nullableInt(tgt.Precision.Valid, tgt.Precision.Int64),
		}
	}
	if src.Scale != tgt.Scale {
		details["scale"] = ValueDelta{
			Source: nullableInt(src.Scale.Valid, src.Scale.Int64),
			Target: nullableInt(tgt.Scale.Valid, tgt.Scale.Int64),
		}
	}
	if src.Default != tgt.Default {
		details["default"] = ValueDelta{
			Source: nullableString(src.Default.Valid, src.Default.String),
			Target: nullableString(tgt.Default.Valid, tgt.Default.String),
		}
	}

	if len(details) == 0 {
		return nil
	}
	return details
}

func nullableInt(valid bool, v int64) string {
	if !valid {
		return "NULL"
	}
	return fmt.Sprintf("%d", v)
}

func nullableString(valid bool, v string) string {
	if !valid {
		return "NULL"
	}
	return v
}

// compareConstraints diffs constraints of tables present on both sides,
// matched by table-qualified constraint name.
func (d *SchemaDiffer) compareConstraints(source, target *metadata.SchemaMetadata) []SchemaDifference {
	srcByName := make(map[string]*metadata.ConstraintMetadata)
	for i := range source.Tables {
		t := &source.Tables[i]
		if target.FindTable(t.Name) == nil {
			// Missing tables are reported by the table comparison.
			continue
		}
		for j := range t.Constraints {
			c := &t.Constraints[j]
			srcByName[normalize(c.Table+"."+c.Name)] = c
		}
	}
	tgtByName := make(map[string]*metadata.ConstraintMetadata)
	for i := range target.Tables {
		t := &target.Tables[i]
		if source.FindTable(t.Name) == nil {
			continue
		}
		for j := range t.Constraints {
			c := &t.Constraints[j]
			tgtByName[normalize(c.Table+"."+c.Name)] = c
		}
	}

	var diffs []SchemaDifference
	for key, src := range srcByName {
		tgt, ok := tgtByName[key]
		if !ok {
			diffs = append(diffs, SchemaDifference{
				ObjectType: TypeConstraint,
				ObjectName: src.Table + "." + src.Name,
				Kind:       ChangeRemoved,
			})
			continue
		}
		if src.Type != tgt.Type {
			diffs = append(diffs, SchemaDifference{
				ObjectType: TypeConstraint,
				ObjectName: src.Table + "." + src.Name,
				Kind:       ChangeModified,
				Details: map[string]ValueDelta{
					"constraint_type": {Source: src.Type, Target: tgt.Type},
				},
			})
		}
	}
	for key, tgt := range tgtByName {
		if _, ok := srcByName[key]; !ok {
			diffs = append(diffs, SchemaDifference{
				ObjectType: TypeConstraint,
				ObjectName: tgt.Table + "." + tgt.Name,
				Kind:       ChangeAdded,
			})
		}
	}
	return diffs
}

// compareIndexes diffs indexes of tables present on both sides, matched by
// table-qualified index name, comparing column lists and uniqueness.
func (d *SchemaDiffer) compareIndexes(source, target *metadata.SchemaMetadata) []SchemaDifference {
	srcByName := make(map[string]*metadata.IndexMetadata)
	for i := range source.Tables {
		t := &source.Tables[i]
		if target.FindTable(t.Name) == nil {
			continue
		}
		for j := range t.Indexes {
			idx := &t.Indexes[j]
			srcByName[normalize(idx.Table+"."+idx.Name)] = idx
		}
	}
	tgtByName := make(map[string]*metadata.IndexMetadata)
	for i := range target.Tables {
		t := &target.Tables[i]
		if source.FindTable(t.Name) == nil {
			continue
		}
		for j := range t.Indexes {
			idx := &t.Indexes[j]
			tgtByName[normalize(idx.Table+"."+idx.Name)] = idx
		}
	}

	var diffs []SchemaDifference
	for key, src := range srcByName {
		tgt, ok := tgtByName[key]
		if !ok {
			diffs = append(diffs, SchemaDifference{
				ObjectType: TypeIndex,
				ObjectName: src.Table + "." + src.Name,
				Kind:       ChangeRemoved,
			})
			continue
		}

		details := make(map[string]ValueDelta)
		if src.Unique != tgt.Unique {
			details["unique"] = ValueDelta{
				Source: fmt.Sprintf("%t", src.Unique),
				Target: fmt.Sprintf("%t", tgt.Unique),
			}
		}
		srcColumns := strings.Join(src.Columns, ",")
		tgtColumns := strings.Join(tgt.Columns, ",")
		if !strings.EqualFold(srcColumns, tgtColumns) {
			details["columns"] = ValueDelta{Source: srcColumns, Target: tgtColumns}
		}
		if len(details) > 0 {
			diffs = append(diffs, SchemaDifference{
				ObjectType: TypeIndex,
				ObjectName: src.Table + "." + src.Name,
				Kind:       ChangeModified,
				Details:    details,
			})
		}
	}
	for key, tgt := range tgtByName {
		if _, ok := srcByName[key]; !ok {
			diffs = append(diffs, SchemaDifference{
				ObjectType: TypeIndex,
				ObjectName: tgt.Table + "." + tgt.Name,
				Kind:       ChangeAdded,
			})
		}
	}
	return diffs
}

// compareProcedures diffs stored routines by name; a routine present on both
// sides with a different routine type (procedure vs function) is modified.
func (d *SchemaDiffer) compareProcedures(source, target *metadata.SchemaMetadata) []SchemaDifference {
	srcByName := make(map[string]*metadata.ProcedureMetadata, len(source.Procedures))
	for i := range source.Procedures {
		srcByName[normalize(source.Procedures[i].Name)] = &source.Procedures[i]
	}
	tgtByName := make(map[string]*metadata.ProcedureMetadata, len(target.Procedures))
	for i := range target.Procedures {
		tgtByName[normalize(target.Procedures[i].Name)] = &target.Procedures[i]
	}

	var diffs []SchemaDifference
	for key, src := range srcByName {
		tgt, ok := tgtByName[key]
		if !ok {
			diffs = append(diffs, SchemaDifference{
				ObjectType: TypeProcedure,
				ObjectName: src.Name,
				Kind:       ChangeRemoved,
			})
			continue
		}
		if src.Type != tgt.Type {
			diffs = append(diffs, SchemaDifference{
				ObjectType: TypeProcedure,
				ObjectName: src.Name,
				Kind:       ChangeModified,
				Details: map[string]ValueDelta{
					"routine_type": {Source: src.Type, Target: tgt.Type},
				},
			})
		}
	}
	for key, tgt := range tgtByName {
		if _, ok := srcByName[key]; !ok {
			diffs = append(diffs, SchemaDifference{
				ObjectType: TypeProcedure,
				ObjectName: tgt.Name,
				Kind:       ChangeAdded,
			})
		}
	}
	return diffs
}
