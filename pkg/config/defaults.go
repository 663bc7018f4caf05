package config

import "time"

// Default configuration values applied to zero-valued fields.
const (
	DefaultWarehousePath        = "data/warehouse.db"
	DefaultWarehouseMaxOpen     = 10
	DefaultWarehouseMaxIdle     = 5
	DefaultWarehouseBusyTimeout = 5 * time.Second

	DefaultArtifactPath        = "data/artifacts"
	DefaultArtifactCompression = "zstd"

	DefaultExtractionWorkers = 4

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "verity"
	DefaultMetricsSubsystem = "extract"
)

// Default plausibility bounds. Remission is capped at a three-day minimum
// duration expressed in cases per person-year.
const (
	DefaultMaxIncidence               = 10.0
	DefaultMaxRemission               = 365.0 / 3.0
	DefaultMaxCategoricalRelativeRisk = 20.0
	DefaultMaxContinuousRelativeRisk  = 5.0
	DefaultMaxUtilization             = 50.0
	DefaultMaxLifeExpectancy          = 90.0
	DefaultMaxPopulation              = 100_000_000.0
)

// ApplyDefaults fills zero-valued fields with their defaults. It is called
// by LoadConfig after unmarshaling, so a partial configuration file yields a
// complete configuration.
func (c *Config) ApplyDefaults() {
	if c.Warehouse.Path == "" {
		c.Warehouse.Path = DefaultWarehousePath
	}
	if c.Warehouse.MaxOpenConns == 0 {
		c.Warehouse.MaxOpenConns = DefaultWarehouseMaxOpen
	}
	if c.Warehouse.MaxIdleConns == 0 {
		c.Warehouse.MaxIdleConns = DefaultWarehouseMaxIdle
	}
	if c.Warehouse.BusyTimeout == 0 {
		c.Warehouse.BusyTimeout = DefaultWarehouseBusyTimeout
	}

	if c.Artifact.Path == "" {
		c.Artifact.Path = DefaultArtifactPath
	}
	if c.Artifact.Compression == "" {
		c.Artifact.Compression = DefaultArtifactCompression
	}

	if c.Extraction.Workers == 0 {
		c.Extraction.Workers = DefaultExtractionWorkers
	}

	b := &c.Validation.Bounds
	if b.MaxIncidence == 0 {
		b.MaxIncidence = DefaultMaxIncidence
	}
	if b.MaxRemission == 0 {
		b.MaxRemission = DefaultMaxRemission
	}
	if b.MaxCategoricalRelativeRisk == 0 {
		b.MaxCategoricalRelativeRisk = DefaultMaxCategoricalRelativeRisk
	}
	if b.MaxContinuousRelativeRisk == 0 {
		b.MaxContinuousRelativeRisk = DefaultMaxContinuousRelativeRisk
	}
	if b.MaxUtilization == 0 {
		b.MaxUtilization = DefaultMaxUtilization
	}
	if b.MaxLifeExpectancy == 0 {
		b.MaxLifeExpectancy = DefaultMaxLifeExpectancy
	}
	if b.MaxPopulation == 0 {
		b.MaxPopulation = DefaultMaxPopulation
	}

	if c.Telemetry.Logging.Level == "" {
		c.Telemetry.Logging.Level = DefaultLogLevel
	}
	if c.Telemetry.Logging.Format == "" {
		c.Telemetry.Logging.Format = DefaultLogFormat
	}
	if c.Telemetry.Metrics.Namespace == "" {
		c.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if c.Telemetry.Metrics.Subsystem == "" {
		c.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
}
