package compare

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/dbsmedya/dbcompare/internal/config"
	"github.com/dbsmedya/dbcompare/internal/logger"
)

// DatabaseComparator orchestrates one comparison run: schema metadata
// retrieval and diffing, candidate table selection, and per-table data
// diffing, aggregated into a single immutable ComparisonResult.
//
// The comparator only reads. It never issues DDL or mutating statements
// against either side.
type DatabaseComparator struct {
	source     *sql.DB
	target     *sql.DB
	sourceMeta MetadataProvider
	targetMeta MetadataProvider
	logger     *logger.Logger
}

// NewComparator creates a comparator over the two connections and their
// catalog providers.
func NewComparator(source, target *sql.DB, sourceMeta, targetMeta MetadataProvider, log *logger.Logger) (*DatabaseComparator, error) {
	if source == nil {
		return nil, fmt.Errorf("source database is nil")
	}
	if target == nil {
		return nil, fmt.Errorf("target database is nil")
	}
	if sourceMeta == nil {
		return nil, fmt.Errorf("source metadata provider is nil")
	}
	if targetMeta == nil {
		return nil, fmt.Errorf("target metadata provider is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}

	return &DatabaseComparator{
		source:     source,
		target:     target,
		sourceMeta: sourceMeta,
		targetMeta: targetMeta,
		logger:     log,
	}, nil
}

// CompareDatabases runs one full comparison of sourceSchema against
// targetSchema. Metadata retrieval and schema diff failures abort the run;
// per-table data failures (no primary key, query failure) are logged, the
// table is recorded as skipped, and the run continues with the next table.
func (c *DatabaseComparator) CompareDatabases(ctx context.Context, sourceSchema, targetSchema string, cfg *config.ComparisonConfig) (*ComparisonResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("comparison config is nil")
	}
	if !cfg.IncludeSchema && !cfg.IncludeData {
		return nil, fmt.Errorf("no comparison operations requested: enable include_schema or include_data")
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid comparison config: %w", errs)
	}

	started := time.Now()
	result := &ComparisonResult{
		SourceName:     sourceSchema,
		TargetName:     targetSchema,
		ComparisonTime: started,
	}

	c.logger.Infow("Starting database comparison",
		"source", sourceSchema,
		"target", targetSchema,
		"include_schema", cfg.IncludeSchema,
		"include_data", cfg.IncludeData,
	)

	if cfg.IncludeSchema {
		diffs, err := c.compareSchemaPhase(ctx, sourceSchema, targetSchema, cfg)
		if err != nil {
			return nil, err
		}
		result.SchemaDifferences = diffs
	}

	if cfg.IncludeData {
		dataDiffs, skipped, err := c.compareDataPhase(ctx, sourceSchema, targetSchema, cfg)
		if err != nil {
			return nil, err
		}
		result.DataDifferences = dataDiffs
		result.SkippedTables = skipped
	}

	result.Duration = time.Since(started)

	c.logger.Infow("Database comparison complete",
		"source", sourceSchema,
		"target", targetSchema,
		"schema_differences", len(result.SchemaDifferences),
		"data_differences", len(result.DataDifferences),
		"skipped_tables", len(result.SkippedTables),
		"duration", result.Duration,
	)

	return result, nil
}

// compareSchemaPhase fetches metadata from both sides and diffs it. Either
// retrieval failure is fatal to the run.
func (c *DatabaseComparator) compareSchemaPhase(ctx context.Context, sourceSchema, targetSchema string, cfg *config.ComparisonConfig) ([]SchemaDifference, error) {
	log := c.logger.WithPhase("schema")

	sourceMeta, err := c.sourceMeta.AnalyzeSchema(ctx, sourceSchema, cfg.SchemaObjects)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve schema metadata for source %q: %w", sourceSchema, err)
	}
	targetMeta, err := c.targetMeta.AnalyzeSchema(ctx, targetSchema, cfg.SchemaObjects)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve schema metadata for target %q: %w", targetSchema, err)
	}

	differ := NewSchemaDiffer(log)
	diffs, err := differ.CompareSchemas(sourceMeta, targetMeta, cfg.SchemaObjects)
	if err != nil {
		return nil, fmt.Errorf("schema comparison failed: %w", err)
	}
	return diffs, nil
}

// compareDataPhase resolves the candidate tables from the source side and
// diffs each one. This is the only per-item-tolerant step of the run: a
// table without a primary key or with a failing query is skipped and logged,
// never fatal as long as selection itself succeeded.
func (c *DatabaseComparator) compareDataPhase(ctx context.Context, sourceSchema, targetSchema string, cfg *config.ComparisonConfig) ([]TableDataDifference, []SkippedTable, error) {
	log := c.logger.WithPhase("data")

	selector, err := NewTableSelector(c.sourceMeta, log)
	if err != nil {
		return nil, nil, err
	}
	resolver, err := NewPrimaryKeyResolver(c.sourceMeta, log)
	if err != nil {
		return nil, nil, err
	}

	sampleSize := 0
	if cfg.SampleSize != nil {
		sampleSize = *cfg.SampleSize
	}
	differ, err := NewDataDiffer(c.source, c.target, sampleSize, log)
	if err != nil {
		return nil, nil, err
	}

	tables, err := selector.SelectTables(ctx, sourceSchema, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve tables to compare: %w", err)
	}
	// Catalog order is already ascending; sort defensively so per-table
	// output order never depends on provider behavior.
	sort.Strings(tables)

	var diffs []TableDataDifference
	var skipped []SkippedTable
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("comparison interrupted: %w", err)
		}

		tableLog := log.WithTable(table)

		pkColumns, err := resolver.ResolvePrimaryKey(ctx, sourceSchema, table)
		if err != nil {
			tableLog.Warnw("Skipping table without resolvable primary key", "error", err)
			skipped = append(skipped, SkippedTable{Name: table, Reason: "no primary key"})
			continue
		}

		tableDiffs, err := differ.CompareTableData(ctx, sourceSchema, targetSchema, table, pkColumns)
		if err != nil {
			if ctx.Err() != nil {
				// Cancellation abandons the interrupted table entirely;
				// no partial differences are emitted for it.
				return nil, nil, fmt.Errorf("comparison interrupted: %w", ctx.Err())
			}
			// Lenient mode: one bad table must not abort a whole-database
			// comparison. The skip is recorded so the caller can tell this
			// apart from a clean match.
			tableLog.Warnw("Skipping table after data comparison failure", "error", err)
			skipped = append(skipped, SkippedTable{Name: table, Reason: err.Error()})
			continue
		}

		diffs = append(diffs, tableDiffs...)
	}

	return diffs, skipped, nil
}
