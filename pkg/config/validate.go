package config

import (
	"fmt"
	"sort"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json": true,
	"text": true,
}

var validCompressions = map[string]bool{
	"zstd":         true,
	"snappy":       true,
	"uncompressed": true,
}

// Validate checks the configuration for invalid or inconsistent values. It
// expects ApplyDefaults to have run first, so zero values for defaulted
// fields are treated as bugs rather than omissions.
func (c *Config) Validate() error {
	if c.Warehouse.Path == "" {
		return fmt.Errorf("warehouse: path must not be empty")
	}
	if c.Warehouse.MaxOpenConns < 1 {
		return fmt.Errorf("warehouse: max_open_conns must be at least 1, got %d", c.Warehouse.MaxOpenConns)
	}
	if c.Warehouse.MaxIdleConns < 0 {
		return fmt.Errorf("warehouse: max_idle_conns must not be negative, got %d", c.Warehouse.MaxIdleConns)
	}
	if c.Warehouse.MaxIdleConns > c.Warehouse.MaxOpenConns {
		return fmt.Errorf("warehouse: max_idle_conns (%d) must not exceed max_open_conns (%d)",
			c.Warehouse.MaxIdleConns, c.Warehouse.MaxOpenConns)
	}
	if c.Warehouse.BusyTimeout < 0 {
		return fmt.Errorf("warehouse: busy_timeout must not be negative, got %s", c.Warehouse.BusyTimeout)
	}

	if c.Artifact.Path == "" {
		return fmt.Errorf("artifact: path must not be empty")
	}
	if !validCompressions[c.Artifact.Compression] {
		return fmt.Errorf("artifact: invalid compression %q (valid: %s)",
			c.Artifact.Compression, keysOf(validCompressions))
	}

	if c.Extraction.Workers < 1 {
		return fmt.Errorf("extraction: workers must be at least 1, got %d", c.Extraction.Workers)
	}
	for _, id := range c.Extraction.LocationIDs {
		if id < 1 {
			return fmt.Errorf("extraction: invalid location id %d", id)
		}
	}

	if len(c.Validation.EstimationYears) == 0 {
		return fmt.Errorf("validation: estimation_years must not be empty")
	}
	for _, y := range c.Validation.EstimationYears {
		if y < 1950 || y > 2200 {
			return fmt.Errorf("validation: implausible estimation year %d", y)
		}
	}
	b := c.Validation.Bounds
	for _, bound := range []struct {
		name  string
		value float64
	}{
		{"max_incidence", b.MaxIncidence},
		{"max_remission", b.MaxRemission},
		{"max_categorical_relative_risk", b.MaxCategoricalRelativeRisk},
		{"max_continuous_relative_risk", b.MaxContinuousRelativeRisk},
		{"max_utilization", b.MaxUtilization},
		{"max_life_expectancy", b.MaxLifeExpectancy},
		{"max_population", b.MaxPopulation},
	} {
		if bound.value <= 0 {
			return fmt.Errorf("validation: bounds.%s must be positive, got %g", bound.name, bound.value)
		}
	}

	if !validLogLevels[c.Telemetry.Logging.Level] {
		return fmt.Errorf("telemetry: invalid log level %q (valid: %s)",
			c.Telemetry.Logging.Level, keysOf(validLogLevels))
	}
	if !validLogFormats[c.Telemetry.Logging.Format] {
		return fmt.Errorf("telemetry: invalid log format %q (valid: %s)",
			c.Telemetry.Logging.Format, keysOf(validLogFormats))
	}
	if c.Telemetry.Metrics.Namespace == "" {
		return fmt.Errorf("telemetry: metrics namespace must not be empty")
	}

	return nil
}

func keysOf(m map[string]bool) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
