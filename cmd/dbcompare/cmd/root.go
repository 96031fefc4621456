package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile    string
	logLevel   string
	logFormat  string
	sampleSize int
	filters    []string
	excludes   []string
	schemaOnly bool
	dataOnly   bool
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "dbcompare",
	Short: "MySQL Schema & Data Comparator",
	Long: `A CLI tool for comparing two MySQL/MariaDB deployments and reporting
structural (schema) and content (row-level) differences between them.

Features:
  - Schema drift detection across tables, views, sequences, procedures,
    indexes, and constraints
  - Row-level drift detection via primary-key merge-join
  - Deterministic sampling for very large tables
  - Table filtering and exclusion
  - Read-only: never mutates either database`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "dbcompare.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Comparison overrides
	rootCmd.PersistentFlags().IntVar(&sampleSize, "sample", 0,
		"Override sample size (first N source rows per table in key order)")
	rootCmd.PersistentFlags().StringSliceVar(&filters, "filter", nil,
		"Keep only tables whose name contains one of these substrings")
	rootCmd.PersistentFlags().StringSliceVar(&excludes, "exclude", nil,
		"Exclude tables by exact name")
	rootCmd.PersistentFlags().BoolVar(&schemaOnly, "schema-only", false,
		"Compare schema structure only")
	rootCmd.PersistentFlags().BoolVar(&dataOnly, "data-only", false,
		"Compare table data only")
	rootCmd.MarkFlagsMutuallyExclusive("schema-only", "data-only")

	// Output
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable colored output")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel   string
	LogFormat  string
	SampleSize int
	Filters    []string
	Excludes   []string
	SchemaOnly bool
	DataOnly   bool
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:   logLevel,
		LogFormat:  logFormat,
		SampleSize: sampleSize,
		Filters:    filters,
		Excludes:   excludes,
		SchemaOnly: schemaOnly,
		DataOnly:   dataOnly,
	}
}
