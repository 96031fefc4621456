package metadata

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dbsmedya/dbcompare/internal/config"
	"github.com/dbsmedya/dbcompare/internal/logger"
)

// CatalogProvider extracts schema metadata from the information_schema views
// of a MySQL or MariaDB server. It only issues SELECT statements.
type CatalogProvider struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewCatalogProvider creates a provider bound to one database connection.
func NewCatalogProvider(db *sql.DB, log *logger.Logger) (*CatalogProvider, error) {
	if db == nil {
		return nil, fmt.Errorf("database is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &CatalogProvider{
		db:     db,
		logger: log,
	}, nil
}

// AnalyzeSchema builds a SchemaMetadata snapshot for the named schema, scoped
// to the requested object types. The table list is loaded only when tables,
// indexes, or constraints are requested; columns are loaded when tables are
// requested.
func (p *CatalogProvider) AnalyzeSchema(ctx context.Context, schemaName string, objectTypes []string) (*SchemaMetadata, error) {
	requested := make(map[string]bool, len(objectTypes))
	for _, obj := range objectTypes {
		requested[obj] = true
	}

	meta := &SchemaMetadata{Name: schemaName}

	if requested[config.ObjectTables] || requested[config.ObjectIndexes] || requested[config.ObjectConstraints] {
		tables, err := p.loadTables(ctx, schemaName)
		if err != nil {
			return nil, fmt.Errorf("failed to load tables for schema %q: %w", schemaName, err)
		}
		meta.Tables = tables
	}

	if requested[config.ObjectTables] {
		if err := p.loadColumns(ctx, schemaName, meta); err != nil {
			return nil, fmt.Errorf("failed to load columns for schema %q: %w", schemaName, err)
		}
	}

	if requested[config.ObjectConstraints] {
		if err := p.loadConstraints(ctx, schemaName, meta); err != nil {
			return nil, fmt.Errorf("failed to load constraints for schema %q: %w", schemaName, err)
		}
	}

	if requested[config.ObjectIndexes] {
		if err := p.loadIndexes(ctx, schemaName, meta); err != nil {
			return nil, fmt.Errorf("failed to load indexes for schema %q: %w", schemaName, err)
		}
	}

	if requested[config.ObjectViews] {
		views, err := p.loadViews(ctx, schemaName)
		if err != nil {
			return nil, fmt.Errorf("failed to load views for schema %q: %w", schemaName, err)
		}
		meta.Views = views
	}

	if requested[config.ObjectSequences] {
		sequences, err := p.loadSequences(ctx, schemaName)
		if err != nil {
			return nil, fmt.Errorf("failed to load sequences for schema %q: %w", schemaName, err)
		}
		meta.Sequences = sequences
	}

	if requested[config.ObjectProcedures] {
		procedures, err := p.loadProcedures(ctx, schemaName)
		if err != nil {
			return nil, fmt.Errorf("failed to load procedures for schema %q: %w", schemaName, err)
		}
		meta.Procedures = procedures
	}

	return meta, nil
}

// ListTables returns the base table names of a schema in ascending name order.
func (p *CatalogProvider) ListTables(ctx context.Context, schemaName string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT TABLE_NAME FROM information_schema.TABLES
		 WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		 ORDER BY TABLE_NAME`, schemaName)
	if err != nil {
		return nil, fmt.Errorf("table list query failed: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table list: %w", err)
	}

	return names, nil
}

// PrimaryKeyColumns returns the declared primary key columns of a table in
// key ordinal position order, each with its catalog data type. A table without
// a primary key yields an error; callers treat that as a recoverable per-table
// condition.
func (p *CatalogProvider) PrimaryKeyColumns(ctx context.Context, schemaName, tableName string) ([]KeyColumn, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT k.COLUMN_NAME, c.DATA_TYPE
		 FROM information_schema.KEY_COLUMN_USAGE k
		 JOIN information_schema.COLUMNS c
		   ON c.TABLE_SCHEMA = k.TABLE_SCHEMA
		  AND c.TABLE_NAME = k.TABLE_NAME
		  AND c.COLUMN_NAME = k.COLUMN_NAME
		 WHERE k.TABLE_SCHEMA = ? AND k.TABLE_NAME = ? AND k.CONSTRAINT_NAME = 'PRIMARY'
		 ORDER BY k.ORDINAL_POSITION`, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("primary key query failed: %w", err)
	}
	defer rows.Close()

	var columns []KeyColumn
	for rows.Next() {
		var col KeyColumn
		if err := rows.Scan(&col.Name, &col.DataType); err != nil {
			return nil, fmt.Errorf("failed to scan key column: %w", err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating key columns: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s.%s has no primary key", schemaName, tableName)
	}

	return columns, nil
}

func (p *CatalogProvider) loadTables(ctx context.Context, schemaName string) ([]TableMetadata, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT TABLE_NAME, COALESCE(TABLE_ROWS, 0) FROM information_schema.TABLES
		 WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		 ORDER BY TABLE_NAME`, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []TableMetadata
	for rows.Next() {
		var t TableMetadata
		if err := rows.Scan(&t.Name, &t.RowCount); err != nil {
			return nil, fmt.Errorf("failed to scan table row: %w", err)
		}
		t.Schema = schemaName
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (p *CatalogProvider) loadColumns(ctx context.Context, schemaName string, meta *SchemaMetadata) error {
	rows, err := p.db.QueryContext(ctx,
		`SELECT TABLE_NAME, COLUMN_NAME, DATA_TYPE, IS_NULLABLE,
		        NUMERIC_PRECISION, NUMERIC_SCALE, COLUMN_DEFAULT, ORDINAL_POSITION
		 FROM information_schema.COLUMNS
		 WHERE TABLE_SCHEMA = ?
		 ORDER BY TABLE_NAME, ORDINAL_POSITION`, schemaName)
	if err != nil {
		return err
	}
	defer rows.Close()

	byTable := make(map[string][]ColumnMetadata)
	for rows.Next() {
		var tableName, nullable string
		var col ColumnMetadata
		if err := rows.Scan(&tableName, &col.Name, &col.DataType, &nullable,
			&col.Precision, &col.Scale, &col.Default, &col.Position); err != nil {
			return fmt.Errorf("failed to scan column row: %w", err)
		}
		col.Nullable = nullable == "YES"
		byTable[tableName] = append(byTable[tableName], col)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range meta.Tables {
		meta.Tables[i].Columns = byTable[meta.Tables[i].Name]
	}
	return nil
}

func (p *CatalogProvider) loadConstraints(ctx context.Context, schemaName string, meta *SchemaMetadata) error {
	rows, err := p.db.QueryContext(ctx,
		`SELECT TABLE_NAME, CONSTRAINT_NAME, CONSTRAINT_TYPE
		 FROM information_schema.TABLE_CONSTRAINTS
		 WHERE TABLE_SCHEMA = ?
		 ORDER BY TABLE_NAME, CONSTRAINT_NAME`, schemaName)
	if err != nil {
		return err
	}
	defer rows.Close()

	byTable := make(map[string][]ConstraintMetadata)
	for rows.Next() {
		var c ConstraintMetadata
		if err := rows.Scan(&c.Table, &c.Name, &c.Type); err != nil {
			return fmt.Errorf("failed to scan constraint row: %w", err)
		}
		byTable[c.Table] = append(byTable[c.Table], c)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range meta.Tables {
		meta.Tables[i].Constraints = byTable[meta.Tables[i].Name]
	}
	return nil
}

func (p *CatalogProvider) loadIndexes(ctx context.Context, schemaName string, meta *SchemaMetadata) error {
	rows, err := p.db.QueryContext(ctx,
		`SELECT TABLE_NAME, INDEX_NAME, COLUMN_NAME, NON_UNIQUE
		 FROM information_schema.STATISTICS
		 WHERE TABLE_SCHEMA = ?
		 ORDER BY TABLE_NAME, INDEX_NAME, SEQ_IN_INDEX`, schemaName)
	if err != nil {
		return err
	}
	defer rows.Close()

	// STATISTICS has one row per index column; fold them into one
	// IndexMetadata per index preserving column order.
	type indexKey struct {
		table string
		name  string
	}
	byTable := make(map[string][]IndexMetadata)
	position := make(map[indexKey]int)
	for rows.Next() {
		var table, name, column string
		var nonUnique int
		if err := rows.Scan(&table, &name, &column, &nonUnique); err != nil {
			return fmt.Errorf("failed to scan index row: %w", err)
		}

		key := indexKey{table: table, name: name}
		if idx, ok := position[key]; ok {
			byTable[table][idx].Columns = append(byTable[table][idx].Columns, column)
			continue
		}
		position[key] = len(byTable[table])
		byTable[table] = append(byTable[table], IndexMetadata{
			Name:    name,
			Table:   table,
			Columns: []string{column},
			Unique:  nonUnique == 0,
		})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range meta.Tables {
		meta.Tables[i].Indexes = byTable[meta.Tables[i].Name]
	}
	return nil
}

func (p *CatalogProvider) loadViews(ctx context.Context, schemaName string) ([]ViewMetadata, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT TABLE_NAME FROM information_schema.VIEWS
		 WHERE TABLE_SCHEMA = ?
		 ORDER BY TABLE_NAME`, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []ViewMetadata
	for rows.Next() {
		var v ViewMetadata
		if err := rows.Scan(&v.Name); err != nil {
			return nil, fmt.Errorf("failed to scan view row: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// loadSequences lists sequences via TABLE_TYPE = 'SEQUENCE', which MariaDB
// exposes in information_schema.TABLES. Plain MySQL has no sequences, so the
// query simply returns no rows there.
func (p *CatalogProvider) loadSequences(ctx context.Context, schemaName string) ([]SequenceMetadata, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT TABLE_NAME FROM information_schema.TABLES
		 WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'SEQUENCE'
		 ORDER BY TABLE_NAME`, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sequences []SequenceMetadata
	for rows.Next() {
		var s SequenceMetadata
		if err := rows.Scan(&s.Name); err != nil {
			return nil, fmt.Errorf("failed to scan sequence row: %w", err)
		}
		sequences = append(sequences, s)
	}
	return sequences, rows.Err()
}

func (p *CatalogProvider) loadProcedures(ctx context.Context, schemaName string) ([]ProcedureMetadata, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT ROUTINE_NAME, ROUTINE_TYPE FROM information_schema.ROUTINES
		 WHERE ROUTINE_SCHEMA = ?
		 ORDER BY ROUTINE_NAME`, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var procedures []ProcedureMetadata
	for rows.Next() {
		var proc ProcedureMetadata
		if err := rows.Scan(&proc.Name, &proc.Type); err != nil {
			return nil, fmt.Errorf("failed to scan routine row: %w", err)
		}
		procedures = append(procedures, proc)
	}
	return procedures, rows.Err()
}
