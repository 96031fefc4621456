package config

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Source.Port != 3306 {
		t.Errorf("Expected default source port 3306, got %d", cfg.Source.Port)
	}
	if cfg.Target.Port != 3306 {
		t.Errorf("Expected default target port 3306, got %d", cfg.Target.Port)
	}
	if !cfg.Comparison.IncludeSchema || !cfg.Comparison.IncludeData {
		t.Error("Expected both comparison dimensions enabled by default")
	}
	if len(cfg.Comparison.SchemaObjects) != len(AllSchemaObjects) {
		t.Errorf("Expected all object types by default, got %v", cfg.Comparison.SchemaObjects)
	}
	if cfg.Comparison.SampleSize != nil {
		t.Error("Expected sample size unset by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default log level info, got %q", cfg.Logging.Level)
	}
}

func TestIsExcluded(t *testing.T) {
	cc := ComparisonConfig{
		ExcludeTables: []string{"audit_log", "sessions"},
	}

	if !cc.IsExcluded("audit_log") {
		t.Error("Expected audit_log to be excluded")
	}
	if cc.IsExcluded("orders") {
		t.Error("Expected orders not to be excluded")
	}
	// Exclusion is exact match, not substring
	if cc.IsExcluded("audit_log_archive") {
		t.Error("Exclusion should be exact match only")
	}
}

func TestHasObject(t *testing.T) {
	cc := ComparisonConfig{
		SchemaObjects: []string{ObjectTables, ObjectIndexes},
	}

	if !cc.HasObject(ObjectTables) {
		t.Error("Expected tables to be requested")
	}
	if cc.HasObject(ObjectViews) {
		t.Error("Expected views not to be requested")
	}
}
