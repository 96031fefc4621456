package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	if err := c.validateDatabase("source", &c.Source); err != nil {
		errors = append(errors, err...)
	}

	if err := c.validateDatabase("target", &c.Target); err != nil {
		errors = append(errors, err...)
	}

	if err := c.Comparison.Validate(); err != nil {
		errors = append(errors, err...)
	}

	if err := c.validateLogging(); err != nil {
		errors = append(errors, err...)
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateDatabase(prefix string, db *DatabaseConfig) ValidationErrors {
	var errors ValidationErrors

	if db.Host == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".host",
			Message: "host is required",
		})
	}

	if db.Port <= 0 || db.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".port",
			Message: "port must be between 1 and 65535",
		})
	}

	if db.User == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".user",
			Message: "user is required",
		})
	}

	if db.Database == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".database",
			Message: "database name is required",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[db.TLS] {
		errors = append(errors, ValidationError{
			Field:   prefix + ".tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	if db.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".max_connections",
			Message: "max_connections cannot be negative",
		})
	}

	if db.MaxIdleConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".max_idle_connections",
			Message: "max_idle_connections cannot be negative",
		})
	}

	return errors
}

// Validate checks the comparison settings. SchemaObjects must be non-empty and
// every entry must be a known object type; SampleSize, when set, must be at
// least 1. There is no partial or lazy validation.
func (cc *ComparisonConfig) Validate() ValidationErrors {
	var errors ValidationErrors

	if len(cc.SchemaObjects) == 0 {
		errors = append(errors, ValidationError{
			Field:   "comparison.schema_objects",
			Message: "at least one schema object type must be requested",
		})
	}

	validObjects := map[string]bool{
		ObjectTables:      true,
		ObjectViews:       true,
		ObjectSequences:   true,
		ObjectProcedures:  true,
		ObjectIndexes:     true,
		ObjectConstraints: true,
	}
	for _, obj := range cc.SchemaObjects {
		if !validObjects[obj] {
			errors = append(errors, ValidationError{
				Field:   "comparison.schema_objects",
				Message: fmt.Sprintf("unknown object type %q (valid: %s)", obj, strings.Join(AllSchemaObjects, ", ")),
			})
		}
	}

	if cc.SampleSize != nil && *cc.SampleSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "comparison.sample_size",
			Message: "sample_size must be at least 1",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
