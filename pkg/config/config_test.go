package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
validation:
  estimation_years: [1990, 1995, 2000]
`

func TestParseConfigMinimal(t *testing.T) {
	cfg, err := ParseConfig([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Warehouse.Path != DefaultWarehousePath {
		t.Errorf("warehouse path = %q, want default %q", cfg.Warehouse.Path, DefaultWarehousePath)
	}
	if cfg.Warehouse.BusyTimeout != DefaultWarehouseBusyTimeout {
		t.Errorf("busy timeout = %s, want %s", cfg.Warehouse.BusyTimeout, DefaultWarehouseBusyTimeout)
	}
	if cfg.Artifact.Compression != "zstd" {
		t.Errorf("compression = %q, want zstd", cfg.Artifact.Compression)
	}
	if cfg.Extraction.Workers != DefaultExtractionWorkers {
		t.Errorf("workers = %d, want %d", cfg.Extraction.Workers, DefaultExtractionWorkers)
	}
	if cfg.Validation.Bounds.MaxIncidence != DefaultMaxIncidence {
		t.Errorf("max incidence = %g, want %g", cfg.Validation.Bounds.MaxIncidence, DefaultMaxIncidence)
	}
	if cfg.Telemetry.Logging.Level != "info" || cfg.Telemetry.Logging.Format != "json" {
		t.Errorf("logging defaults = %q/%q, want info/json",
			cfg.Telemetry.Logging.Level, cfg.Telemetry.Logging.Format)
	}
	if got, want := cfg.Validation.EstimationYears, []int{1990, 1995, 2000}; len(got) != len(want) {
		t.Errorf("estimation years = %v, want %v", got, want)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
warehouse:
  path: /srv/warehouse.db
  max_open_conns: 2
  max_idle_conns: 1
  busy_timeout: 30s
artifact:
  compression: snappy
extraction:
  location_ids: [163, 102]
  workers: 8
  fail_fast: true
validation:
  estimation_years: [2019]
  bounds:
    max_incidence: 25
telemetry:
  logging:
    level: debug
    format: text
`))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Warehouse.Path != "/srv/warehouse.db" {
		t.Errorf("warehouse path = %q", cfg.Warehouse.Path)
	}
	if cfg.Warehouse.BusyTimeout != 30*time.Second {
		t.Errorf("busy timeout = %s, want 30s", cfg.Warehouse.BusyTimeout)
	}
	if cfg.Artifact.Compression != "snappy" {
		t.Errorf("compression = %q, want snappy", cfg.Artifact.Compression)
	}
	if !cfg.Extraction.FailFast || cfg.Extraction.Workers != 8 {
		t.Errorf("extraction = %+v", cfg.Extraction)
	}
	if cfg.Validation.Bounds.MaxIncidence != 25 {
		t.Errorf("max incidence = %g, want 25", cfg.Validation.Bounds.MaxIncidence)
	}
	// Unset bounds keep defaults even when one is overridden.
	if cfg.Validation.Bounds.MaxRemission != DefaultMaxRemission {
		t.Errorf("max remission = %g, want default", cfg.Validation.Bounds.MaxRemission)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Telemetry.Logging.Level)
	}
}

func TestParseConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing estimation years",
			yaml: `extraction: {workers: 4}`,
			want: "estimation_years",
		},
		{
			name: "bad log level",
			yaml: minimalYAML + "telemetry:\n  logging:\n    level: loud\n",
			want: "invalid log level",
		},
		{
			name: "bad compression",
			yaml: minimalYAML + "artifact:\n  compression: lz99\n",
			want: "invalid compression",
		},
		{
			name: "negative workers",
			yaml: minimalYAML + "extraction:\n  workers: -1\n",
			want: "workers",
		},
		{
			name: "idle exceeds open",
			yaml: minimalYAML + "warehouse:\n  max_open_conns: 2\n  max_idle_conns: 5\n",
			want: "max_idle_conns",
		},
		{
			name: "implausible year",
			yaml: "validation:\n  estimation_years: [1492]\n",
			want: "implausible",
		},
		{
			name: "invalid location id",
			yaml: minimalYAML + "extraction:\n  location_ids: [0]\n",
			want: "location id",
		},
		{
			name: "malformed yaml",
			yaml: "validation: [",
			want: "parsing config",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "verity.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Validation.EstimationYears) != 3 {
		t.Errorf("estimation years = %v", cfg.Validation.EstimationYears)
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
