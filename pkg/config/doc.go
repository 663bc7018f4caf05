// Package config defines the YAML configuration structure for Verity and
// handles loading, defaulting, and validation.
//
// Configuration is organized into sections for the warehouse snapshot, the
// artifact store, extraction orchestration, validation behavior, and
// telemetry. A minimal configuration only needs the estimation years:
//
//	validation:
//	  estimation_years: [1990, 1995, 2000, 2005, 2010, 2015, 2019]
//
// Everything else falls back to documented defaults.
package config
