package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dbcompare.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}
	return path
}

func TestLoad_Success(t *testing.T) {
	path := writeTempConfig(t, `
source:
  host: src.example.com
  user: compare
  password: secret
  database: app
target:
  host: tgt.example.com
  user: compare
  password: secret
  database: app
comparison:
  include_schema: true
  include_data: false
  schema_objects: [tables, indexes]
  table_filters: [ord]
  exclude_tables: [audit_log]
  sample_size: 500
logging:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Source.Host != "src.example.com" {
		t.Errorf("Expected source host src.example.com, got %q", cfg.Source.Host)
	}
	if cfg.Source.Port != 3306 {
		t.Errorf("Expected default port to survive, got %d", cfg.Source.Port)
	}
	if cfg.Comparison.IncludeData {
		t.Error("Expected include_data false")
	}
	if len(cfg.Comparison.SchemaObjects) != 2 {
		t.Errorf("Expected 2 schema objects, got %v", cfg.Comparison.SchemaObjects)
	}
	if cfg.Comparison.SampleSize == nil || *cfg.Comparison.SampleSize != 500 {
		t.Errorf("Expected sample_size 500, got %v", cfg.Comparison.SampleSize)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected log level debug, got %q", cfg.Logging.Level)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/dbcompare.yaml")
	if err == nil {
		t.Fatal("Expected error for missing config file")
	}
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("DBCOMPARE_TEST_PASSWORD", "supersecret")

	path := writeTempConfig(t, `
source:
  host: src.example.com
  user: compare
  password: ${DBCOMPARE_TEST_PASSWORD}
  database: app
target:
  host: tgt.example.com
  user: compare
  password: $DBCOMPARE_TEST_PASSWORD
  database: app
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Source.Password != "supersecret" {
		t.Errorf("Expected ${VAR} substitution, got %q", cfg.Source.Password)
	}
	if cfg.Target.Password != "supersecret" {
		t.Errorf("Expected $VAR substitution, got %q", cfg.Target.Password)
	}
}

func TestLoad_EnvSubstitution_Unset(t *testing.T) {
	path := writeTempConfig(t, `
source:
  host: src.example.com
  user: compare
  password: ${DBCOMPARE_UNSET_VAR_12345}
  database: app
target:
  host: tgt.example.com
  user: compare
  database: app
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Unset variables are left as-is rather than blanked
	if cfg.Source.Password != "${DBCOMPARE_UNSET_VAR_12345}" {
		t.Errorf("Expected unset var to remain, got %q", cfg.Source.Password)
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := DefaultConfig()

	cfg.ApplyOverrides("debug", "text", 250, []string{"ord"}, []string{"audit_log"}, false, false)

	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected log level override, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected log format override, got %q", cfg.Logging.Format)
	}
	if cfg.Comparison.SampleSize == nil || *cfg.Comparison.SampleSize != 250 {
		t.Errorf("Expected sample size override, got %v", cfg.Comparison.SampleSize)
	}
	if len(cfg.Comparison.TableFilters) != 1 || cfg.Comparison.TableFilters[0] != "ord" {
		t.Errorf("Expected filter override, got %v", cfg.Comparison.TableFilters)
	}
	if !cfg.Comparison.IsExcluded("audit_log") {
		t.Error("Expected exclude override")
	}
}

func TestApplyOverrides_SchemaOnly(t *testing.T) {
	cfg := DefaultConfig()

	cfg.ApplyOverrides("", "", 0, nil, nil, true, false)

	if !cfg.Comparison.IncludeSchema || cfg.Comparison.IncludeData {
		t.Error("Expected schema-only to disable data comparison")
	}
}

func TestApplyOverrides_DataOnly(t *testing.T) {
	cfg := DefaultConfig()

	cfg.ApplyOverrides("", "", 0, nil, nil, false, true)

	if cfg.Comparison.IncludeSchema || !cfg.Comparison.IncludeData {
		t.Error("Expected data-only to disable schema comparison")
	}
}

func TestApplyOverrides_NoChanges(t *testing.T) {
	cfg := DefaultConfig()

	cfg.ApplyOverrides("", "", 0, nil, nil, false, false)

	if cfg.Logging.Level != "info" {
		t.Errorf("Expected defaults untouched, got %q", cfg.Logging.Level)
	}
	if cfg.Comparison.SampleSize != nil {
		t.Error("Expected sample size to stay unset")
	}
}
