package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/dbcompare/internal/database"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and database connectivity",
	Long: `Validate checks the configuration file and verifies that both the
source and target databases are reachable.

Checks performed:
  - Configuration syntax and required fields
  - Comparison settings (object types, sample size)
  - Database connectivity (source and target)

Example:
  dbcompare validate --config dbcompare.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("Configuration is valid")

	ctx := database.SetupSignalHandler()

	dbManager := database.NewManager(cfg)
	if err := dbManager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to databases: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.Ping(ctx); err != nil {
		return fmt.Errorf("connectivity check failed: %w", err)
	}

	log.Infow("Connectivity check passed",
		"source", fmt.Sprintf("%s:%d/%s", cfg.Source.Host, cfg.Source.Port, cfg.Source.Database),
		"target", fmt.Sprintf("%s:%d/%s", cfg.Target.Host, cfg.Target.Port, cfg.Target.Database),
	)

	fmt.Fprintln(outputWriter, "Validation passed.")
	return nil
}
