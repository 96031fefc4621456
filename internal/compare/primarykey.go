package compare

import (
	"context"
	"fmt"

	"github.com/dbsmedya/dbcompare/internal/logger"
	"github.com/dbsmedya/dbcompare/internal/metadata"
)

// PrimaryKeyResolver obtains the ordered primary-key column list for a table.
// A table without a declared primary key yields an error; the orchestrator
// treats that as a recoverable per-table condition, not a run failure.
type PrimaryKeyResolver struct {
	provider MetadataProvider
	logger   *logger.Logger
}

// NewPrimaryKeyResolver creates a resolver over the given catalog provider.
func NewPrimaryKeyResolver(provider MetadataProvider, log *logger.Logger) (*PrimaryKeyResolver, error) {
	if provider == nil {
		return nil, fmt.Errorf("metadata provider is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &PrimaryKeyResolver{
		provider: provider,
		logger:   log,
	}, nil
}

// ResolvePrimaryKey returns the key columns in catalog-declared position order.
func (r *PrimaryKeyResolver) ResolvePrimaryKey(ctx context.Context, schemaName, tableName string) ([]metadata.KeyColumn, error) {
	columns, err := r.provider.PrimaryKeyColumns(ctx, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve primary key for %s.%s: %w", schemaName, tableName, err)
	}
	return columns, nil
}
