package compare

import (
	"context"
	"fmt"
	"strings"

	"github.com/dbsmedya/dbcompare/internal/config"
	"github.com/dbsmedya/dbcompare/internal/logger"
	"github.com/dbsmedya/dbcompare/internal/metadata"
)

// MetadataProvider is the catalog capability the comparison engine consumes.
// It is satisfied by metadata.CatalogProvider and by test doubles.
type MetadataProvider interface {
	AnalyzeSchema(ctx context.Context, schemaName string, objectTypes []string) (*metadata.SchemaMetadata, error)
	ListTables(ctx context.Context, schemaName string) ([]string, error)
	PrimaryKeyColumns(ctx context.Context, schemaName, tableName string) ([]metadata.KeyColumn, error)
}

// TableSelector resolves the concrete set of tables eligible for data
// comparison from the catalog and the configured filters and excludes.
type TableSelector struct {
	provider MetadataProvider
	logger   *logger.Logger
}

// NewTableSelector creates a selector over the given catalog provider.
func NewTableSelector(provider MetadataProvider, log *logger.Logger) (*TableSelector, error) {
	if provider == nil {
		return nil, fmt.Errorf("metadata provider is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &TableSelector{
		provider: provider,
		logger:   log,
	}, nil
}

// SelectTables returns the candidate table names for data comparison in
// catalog ascending order. Excluded names are removed by exact match first;
// when filters are configured, a table survives if its name contains at least
// one filter as a case-insensitive substring.
func (s *TableSelector) SelectTables(ctx context.Context, schemaName string, cfg *config.ComparisonConfig) ([]string, error) {
	names, err := s.provider.ListTables(ctx, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables for schema %q: %w", schemaName, err)
	}

	selected := make([]string, 0, len(names))
	for _, name := range names {
		if cfg.IsExcluded(name) {
			s.logger.Debugw("Table excluded", "table", name)
			continue
		}
		if len(cfg.TableFilters) > 0 && !matchesAnyFilter(name, cfg.TableFilters) {
			continue
		}
		selected = append(selected, name)
	}

	s.logger.Infow("Resolved candidate tables",
		"schema", schemaName,
		"catalog_tables", len(names),
		"selected", len(selected),
	)

	return selected, nil
}

// matchesAnyFilter reports whether the name contains at least one filter as a
// case-insensitive substring (OR semantics across filters).
func matchesAnyFilter(name string, filters []string) bool {
	lowered := strings.ToLower(name)
	for _, filter := range filters {
		if strings.Contains(lowered, strings.ToLower(filter)) {
			return true
		}
	}
	return false
}
