package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/dbcompare/internal/compare"
	"github.com/dbsmedya/dbcompare/internal/config"
	"github.com/dbsmedya/dbcompare/internal/database"
	"github.com/dbsmedya/dbcompare/internal/metadata"
	"github.com/dbsmedya/dbcompare/internal/report"
)

var withCounts bool

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Show the tables that would be data-compared",
	Long: `Tables resolves the candidate table set from the source catalog after
applying the configured filters and excludes, without comparing anything.

Use it to verify filter and exclude settings before a long comparison run.

Example:
  dbcompare tables --config dbcompare.yaml --filter orders
  dbcompare tables --counts`,
	RunE: runTables,
}

func init() {
	tablesCmd.Flags().BoolVar(&withCounts, "counts", false,
		"Show approximate row counts from the catalog")
	rootCmd.AddCommand(tablesCmd)
}

func runTables(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := database.SetupSignalHandler()

	dbManager := database.NewManager(cfg)
	if err := dbManager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to databases: %w", err)
	}
	defer dbManager.Close()

	provider, err := metadata.NewCatalogProvider(dbManager.Source, log)
	if err != nil {
		return fmt.Errorf("failed to create metadata provider: %w", err)
	}

	selector, err := compare.NewTableSelector(provider, log)
	if err != nil {
		return fmt.Errorf("failed to create table selector: %w", err)
	}

	tables, err := selector.SelectTables(ctx, cfg.Source.Database, &cfg.Comparison)
	if err != nil {
		return fmt.Errorf("failed to resolve tables: %w", err)
	}

	var rowCounts map[string]int64
	if withCounts {
		meta, err := provider.AnalyzeSchema(ctx, cfg.Source.Database, []string{config.ObjectTables})
		if err != nil {
			return fmt.Errorf("failed to load table metadata: %w", err)
		}
		rowCounts = make(map[string]int64, len(meta.Tables))
		for _, t := range meta.Tables {
			rowCounts[t.Name] = t.RowCount
		}
	}

	renderer := report.NewRenderer(outputWriter, !noColor)
	renderer.RenderTableList(tables, rowCounts)

	return nil
}
