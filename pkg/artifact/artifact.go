package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"

	"vitalstats/verity/pkg/config"
	"vitalstats/verity/pkg/table"
)

// Store writes validated datasets to an on-disk artifact directory. Each
// extraction run gets its own subdirectory containing one parquet file per
// dataset and a manifest describing them.
type Store struct {
	dir   string
	codec compress.Codec
}

// NewStore creates the artifact directory if needed and returns a store
// writing into it.
func NewStore(cfg config.ArtifactConfig) (*Store, error) {
	codec, err := codecFor(cfg.Compression)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}
	return &Store{dir: cfg.Path, codec: codec}, nil
}

func codecFor(name string) (compress.Codec, error) {
	switch name {
	case "zstd", "":
		return &parquet.Zstd, nil
	case "snappy":
		return &parquet.Snappy, nil
	case "uncompressed":
		return &parquet.Uncompressed, nil
	default:
		return nil, fmt.Errorf("unknown compression codec %q", name)
	}
}

// Row is the parquet schema for one demographic cell of a validated dataset.
// Columns beyond the shared demographic identifiers and the draw ensemble
// vary by measure, so they travel as a JSON attribute map.
type Row struct {
	LocationID int32     `parquet:"location_id"`
	SexID      int32     `parquet:"sex_id"`
	AgeGroupID int32     `parquet:"age_group_id"`
	YearID     int32     `parquet:"year_id"`
	Attrs      string    `parquet:"attrs,optional"`
	Draws      []float64 `parquet:"draws,list"`
}

// Dir returns the root directory of the store.
func (s *Store) Dir() string { return s.dir }

// Run accumulates the datasets of one extraction run. Its methods are safe
// for concurrent use by extraction workers.
type Run struct {
	store *Store
	id    string
	dir   string

	mu       sync.Mutex
	manifest Manifest
	closed   bool
}

// NewRun creates the directory for a run and returns its accumulator.
func (s *Store) NewRun(runID string) (*Run, error) {
	dir := filepath.Join(s.dir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating run directory: %w", err)
	}
	return &Run{
		store: s,
		id:    runID,
		dir:   dir,
		manifest: Manifest{
			RunID:     runID,
			CreatedAt: time.Now().UTC(),
		},
	}, nil
}

// Dir returns the directory the run writes into.
func (r *Run) Dir() string { return r.dir }

// WriteDataset converts a validated table to the parquet row schema and
// writes it as <name>.parquet inside the run directory. The dataset is
// recorded in the manifest together with its validation warning count.
func (r *Run) WriteDataset(name string, t *table.Table, meta DatasetMeta) error {
	rows, err := tableRows(t)
	if err != nil {
		return fmt.Errorf("dataset %s: %w", name, err)
	}

	file := name + ".parquet"
	path := filepath.Join(r.dir, file)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset %s: %w", name, err)
	}

	sum := sha256.New()
	w := parquet.NewGenericWriter[Row](io.MultiWriter(f, sum), parquet.Compression(r.store.codec))
	if _, err := w.Write(rows); err != nil {
		f.Close()
		return fmt.Errorf("dataset %s: writing rows: %w", name, err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("dataset %s: closing writer: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("dataset %s: %w", name, err)
	}

	meta.Name = name
	meta.File = file
	meta.Rows = len(rows)
	meta.SHA256 = hex.EncodeToString(sum.Sum(nil))

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("dataset %s: run %s already finalized", name, r.id)
	}
	r.manifest.Datasets = append(r.manifest.Datasets, meta)
	return nil
}

// Finalize writes the run manifest with the given terminal status
// ("success", "partial", or "failed"). Further writes are rejected.
func (r *Run) Finalize(status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("run %s already finalized", r.id)
	}
	r.closed = true
	r.manifest.Status = status
	r.manifest.FinishedAt = time.Now().UTC()
	return writeManifest(filepath.Join(r.dir, manifestFile), &r.manifest)
}

// tableRows converts a column-oriented table to parquet rows. Demographic
// identifier columns map to dedicated fields; missing ones are left zero
// (all-ages tables have no year column, life expectancy has no ids at all).
// Every other non-draw column lands in the JSON attribute map.
func tableRows(t *table.Table) ([]Row, error) {
	n := t.Len()
	rows := make([]Row, n)

	demographic := map[string]func(i int, v int){
		"location_id": func(i, v int) { rows[i].LocationID = int32(v) },
		"sex_id":      func(i, v int) { rows[i].SexID = int32(v) },
		"age_group_id": func(i, v int) {
			rows[i].AgeGroupID = int32(v)
		},
		"year_id": func(i, v int) { rows[i].YearID = int32(v) },
	}

	var drawCols []string
	var attrCols []string
	for _, name := range t.Columns() {
		if strings.HasPrefix(name, "draw_") {
			drawCols = append(drawCols, name)
			continue
		}
		if set, ok := demographic[name]; ok {
			if vals, intCol := t.Ints(name); intCol {
				for i, v := range vals {
					set(i, v)
				}
				continue
			}
		}
		attrCols = append(attrCols, name)
	}

	if len(attrCols) > 0 {
		attrs, err := encodeAttrs(t, attrCols)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			rows[i].Attrs = attrs[i]
		}
	}

	if len(drawCols) > 0 {
		cols := make([][]float64, len(drawCols))
		for j, name := range drawCols {
			vals, ok := t.Floats(name)
			if !ok {
				return nil, fmt.Errorf("draw column %q is not numeric", name)
			}
			cols[j] = vals
		}
		for i := range rows {
			draws := make([]float64, len(cols))
			for j := range cols {
				draws[j] = cols[j][i]
			}
			rows[i].Draws = draws
		}
	}

	return rows, nil
}

