package artifact

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"

	"vitalstats/verity/pkg/table"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const manifestFile = "manifest.json"

// Manifest describes the datasets an extraction run produced.
type Manifest struct {
	RunID      string        `json:"run_id"`
	Status     string        `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Datasets   []DatasetMeta `json:"datasets"`
}

// DatasetMeta records one dataset in the manifest. Name, File, Rows, and
// SHA256 are filled in by WriteDataset; callers provide the provenance
// fields.
type DatasetMeta struct {
	Name       string `json:"name"`
	File       string `json:"file"`
	Rows       int    `json:"rows"`
	SHA256     string `json:"sha256"`
	EntityKind string `json:"entity_kind"`
	EntityName string `json:"entity_name"`
	Measure    string `json:"measure"`
	LocationID int    `json:"location_id,omitempty"`
	Warnings   int    `json:"warnings"`
}

func writeManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the manifest of a finalized run directory.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &m, nil
}

// encodeAttrs renders the named columns of every row as a JSON object.
func encodeAttrs(t *table.Table, cols []string) ([]string, error) {
	out := make([]string, t.Len())
	row := make(map[string]any, len(cols))
	for i := 0; i < t.Len(); i++ {
		clear(row)
		for _, name := range cols {
			if vals, ok := t.Ints(name); ok {
				row[name] = vals[i]
				continue
			}
			if vals, ok := t.Strings(name); ok {
				row[name] = vals[i]
				continue
			}
			vals, ok := t.Floats(name)
			if !ok {
				return nil, fmt.Errorf("column %q has no backing data", name)
			}
			if math.IsNaN(vals[i]) {
				row[name] = nil
			} else {
				row[name] = vals[i]
			}
		}
		data, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("encoding attributes: %w", err)
		}
		out[i] = string(data)
	}
	return out, nil
}
