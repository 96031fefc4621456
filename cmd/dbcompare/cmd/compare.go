package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/dbcompare/internal/compare"
	"github.com/dbsmedya/dbcompare/internal/config"
	"github.com/dbsmedya/dbcompare/internal/database"
	"github.com/dbsmedya/dbcompare/internal/logger"
	"github.com/dbsmedya/dbcompare/internal/metadata"
	"github.com/dbsmedya/dbcompare/internal/report"
)

// outputWriter is used for printing output, can be overridden in tests
var outputWriter io.Writer = os.Stdout

// setOutputWriter sets the output writer (used for testing)
func setOutputWriter(w io.Writer) {
	outputWriter = w
}

// resetOutputWriter resets output to stdout (used for testing)
func resetOutputWriter() {
	outputWriter = os.Stdout
}

var failOnDiff bool

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the source and target databases",
	Long: `Compare runs a full comparison of the configured source and target
schemas and prints every structural and row-level difference found.

The comparison is read-only on both sides. Tables without a primary key
are skipped with a warning; they never abort the run.

Example:
  dbcompare compare --config dbcompare.yaml
  dbcompare compare --schema-only
  dbcompare compare --filter orders --sample 1000`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().BoolVar(&failOnDiff, "fail-on-diff", false,
		"Exit with a non-zero status when differences are found")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
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

	sourceMeta, err := metadata.NewCatalogProvider(dbManager.Source, log)
	if err != nil {
		return fmt.Errorf("failed to create source metadata provider: %w", err)
	}
	targetMeta, err := metadata.NewCatalogProvider(dbManager.Target, log)
	if err != nil {
		return fmt.Errorf("failed to create target metadata provider: %w", err)
	}

	comparator, err := compare.NewComparator(dbManager.Source, dbManager.Target, sourceMeta, targetMeta, log)
	if err != nil {
		return fmt.Errorf("failed to create comparator: %w", err)
	}

	result, err := comparator.CompareDatabases(ctx, cfg.Source.Database, cfg.Target.Database, &cfg.Comparison)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	renderer := report.NewRenderer(outputWriter, !noColor)
	if err := renderer.RenderResult(result); err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}

	if failOnDiff && result.HasDifferences() {
		return fmt.Errorf("found %d differences", result.TotalDifferences())
	}

	return nil
}

// loadConfigAndLogger loads configuration, applies CLI overrides, validates,
// and builds the logger. Shared by the compare, tables, and validate commands.
func loadConfigAndLogger() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.SampleSize, overrides.Filters, overrides.Excludes,
		overrides.SchemaOnly, overrides.DataOnly)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, log, nil
}
