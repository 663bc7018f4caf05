package config

import "time"

// Config is the root configuration structure for Verity. It contains all
// configuration sections for the warehouse snapshot, the artifact store,
// extraction orchestration, validation behavior, and telemetry.
type Config struct {
	// Warehouse contains configuration for the warehouse snapshot the
	// extraction pulls raw data from.
	Warehouse WarehouseConfig `yaml:"warehouse"`

	// Artifact contains configuration for the on-disk artifact store that
	// receives validated data.
	Artifact ArtifactConfig `yaml:"artifact"`

	// Extraction contains configuration for the extraction run: which
	// locations to pull, how many workers, and failure handling.
	Extraction ExtractionConfig `yaml:"extraction"`

	// Validation contains configuration for the validation context: the
	// estimation years of the round and overrides for the numeric bounds.
	Validation ValidationConfig `yaml:"validation"`

	// Telemetry contains configuration for observability including logging
	// and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// WarehouseConfig contains configuration for the warehouse snapshot.
type WarehouseConfig struct {
	// Path is the filesystem path of the SQLite warehouse snapshot.
	// Default: "data/warehouse.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// BusyTimeout is how long a query waits on a locked database before
	// failing.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// ArtifactConfig contains configuration for the artifact store.
type ArtifactConfig struct {
	// Path is the directory the artifact store writes datasets into. It is
	// created if it does not exist.
	// Default: "data/artifacts"
	Path string `yaml:"path"`

	// Compression selects the parquet compression codec ("zstd", "snappy",
	// "uncompressed").
	// Default: "zstd"
	Compression string `yaml:"compression"`
}

// ExtractionConfig contains configuration for an extraction run.
type ExtractionConfig struct {
	// LocationIDs lists the warehouse location ids to extract.
	LocationIDs []int `yaml:"location_ids"`

	// Workers is the number of concurrent extraction workers. Validation is
	// CPU bound, so this is usually set near the core count.
	// Default: 4
	Workers int `yaml:"workers"`

	// FailFast stops the run on the first fatal validation error instead of
	// continuing with the remaining requests.
	// Default: false
	FailFast bool `yaml:"fail_fast"`
}

// ValidationConfig contains configuration for the validation context.
type ValidationConfig struct {
	// EstimationYears is the estimation year set of the warehouse round.
	// Required; year coverage checks are defined against it.
	EstimationYears []int `yaml:"estimation_years"`

	// AgeGroupIDs overrides the canonical age-group ordering. Leave empty
	// to use the standard ordering.
	AgeGroupIDs []int `yaml:"age_group_ids"`

	// Bounds overrides the numeric plausibility envelopes. Zero fields keep
	// their defaults.
	Bounds BoundsConfig `yaml:"bounds"`
}

// BoundsConfig overrides the numeric plausibility envelopes applied to raw
// draw data. Zero values fall back to the built-in defaults.
type BoundsConfig struct {
	// MaxIncidence is the soft ceiling on incidence rates.
	// Default: 10
	MaxIncidence float64 `yaml:"max_incidence"`

	// MaxRemission is the soft ceiling on remission rates, expressed as
	// cases per person-year.
	// Default: 121.67 (a three-day minimum duration)
	MaxRemission float64 `yaml:"max_remission"`

	// MaxCategoricalRelativeRisk is the hard ceiling on relative risk draws
	// of categorical risks.
	// Default: 20
	MaxCategoricalRelativeRisk float64 `yaml:"max_categorical_relative_risk"`

	// MaxContinuousRelativeRisk is the hard ceiling on relative risk draws
	// of continuous risks, per unit of exposure.
	// Default: 5
	MaxContinuousRelativeRisk float64 `yaml:"max_continuous_relative_risk"`

	// MaxUtilization is the soft ceiling on healthcare utilization rates.
	// Default: 50
	MaxUtilization float64 `yaml:"max_utilization"`

	// MaxLifeExpectancy is the hard ceiling on life expectancy values.
	// Default: 90
	MaxLifeExpectancy float64 `yaml:"max_life_expectancy"`

	// MaxPopulation is the hard ceiling on a single population cell.
	// Default: 100000000
	MaxPopulation float64 `yaml:"max_population"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected at all.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Namespace is the Prometheus namespace prefix for all metrics.
	// Default: "verity"
	Namespace string `yaml:"namespace"`

	// Subsystem is the Prometheus subsystem for all metrics.
	// Default: "extract"
	Subsystem string `yaml:"subsystem"`

	// ListenAddress is the address the metrics endpoint listens on during a
	// run. Empty disables the endpoint; metrics are still collected and
	// reported in the run summary.
	// Default: ""
	ListenAddress string `yaml:"listen_address"`
}
