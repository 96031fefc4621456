// Package config provides configuration structures and loading for DBCompare.
package config

// Config represents the complete application configuration.
type Config struct {
	Source     DatabaseConfig   `yaml:"source" mapstructure:"source"`
	Target     DatabaseConfig   `yaml:"target" mapstructure:"target"`
	Comparison ComparisonConfig `yaml:"comparison" mapstructure:"comparison"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// DatabaseConfig represents a MySQL database connection configuration.
type DatabaseConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// Schema object types that can be requested for comparison.
const (
	ObjectTables      = "tables"
	ObjectViews       = "views"
	ObjectSequences   = "sequences"
	ObjectProcedures  = "procedures"
	ObjectIndexes     = "indexes"
	ObjectConstraints = "constraints"
)

// AllSchemaObjects lists every valid schema object type in canonical order.
var AllSchemaObjects = []string{
	ObjectTables,
	ObjectViews,
	ObjectSequences,
	ObjectProcedures,
	ObjectIndexes,
	ObjectConstraints,
}

// ComparisonConfig describes what to compare and how. It is validated as a
// whole on load; a comparison run never sees a partially valid config.
type ComparisonConfig struct {
	IncludeSchema bool     `yaml:"include_schema" mapstructure:"include_schema"`
	IncludeData   bool     `yaml:"include_data" mapstructure:"include_data"`
	SchemaObjects []string `yaml:"schema_objects" mapstructure:"schema_objects"`
	TableFilters  []string `yaml:"table_filters" mapstructure:"table_filters"`
	ExcludeTables []string `yaml:"exclude_tables" mapstructure:"exclude_tables"`
	// SampleSize bounds the data comparison to the first N source rows in
	// primary-key order. Nil means compare full tables.
	SampleSize *int `yaml:"sample_size" mapstructure:"sample_size"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Source: DatabaseConfig{
			Port:               3306,
			TLS:                "preferred",
			MaxConnections:     10,
			MaxIdleConnections: 5,
		},
		Target: DatabaseConfig{
			Port:               3306,
			TLS:                "preferred",
			MaxConnections:     10,
			MaxIdleConnections: 5,
		},
		Comparison: ComparisonConfig{
			IncludeSchema: true,
			IncludeData:   true,
			SchemaObjects: append([]string(nil), AllSchemaObjects...),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// IsExcluded reports whether a table name is listed in ExcludeTables (exact match).
func (cc *ComparisonConfig) IsExcluded(table string) bool {
	for _, name := range cc.ExcludeTables {
		if name == table {
			return true
		}
	}
	return false
}

// HasObject reports whether the given schema object type was requested.
func (cc *ComparisonConfig) HasObject(objectType string) bool {
	for _, obj := range cc.SchemaObjects {
		if obj == objectType {
			return true
		}
	}
	return false
}
