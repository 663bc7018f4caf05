package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"

	"vitalstats/verity/pkg/config"
	"vitalstats/verity/pkg/table"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(config.ArtifactConfig{
		Path:        filepath.Join(t.TempDir(), "artifacts"),
		Compression: "zstd",
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func demographicTable(t *testing.T) *table.Table {
	t.Helper()
	tab, err := table.NewBuilder().
		Ints("location_id", []int{163, 163}).
		Ints("sex_id", []int{1, 2}).
		Ints("age_group_id", []int{2, 2}).
		Ints("year_id", []int{1990, 1990}).
		Ints("measure_id", []int{5, 5}).
		Floats("draw_0", []float64{0.1, 0.2}).
		Floats("draw_1", []float64{0.3, 0.4}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	return tab
}

func TestCodecFor(t *testing.T) {
	for _, name := range []string{"", "zstd", "snappy", "uncompressed"} {
		if _, err := codecFor(name); err != nil {
			t.Errorf("codecFor(%q) = %v", name, err)
		}
	}
	if _, err := codecFor("lz99"); err == nil {
		t.Error("expected error for unknown codec")
	}
}

func TestTableRows(t *testing.T) {
	rows, err := tableRows(demographicTable(t))
	if err != nil {
		t.Fatalf("tableRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	first := rows[0]
	if first.LocationID != 163 || first.SexID != 1 || first.AgeGroupID != 2 || first.YearID != 1990 {
		t.Errorf("demographics = %+v", first)
	}
	if len(first.Draws) != 2 || first.Draws[0] != 0.1 || first.Draws[1] != 0.3 {
		t.Errorf("draws = %v", first.Draws)
	}
	// measure_id is not a dedicated field, so it travels in the attrs map.
	if first.Attrs != `{"measure_id":5}` {
		t.Errorf("attrs = %q", first.Attrs)
	}
}

func TestWriteDatasetRoundTrip(t *testing.T) {
	s := testStore(t)
	run, err := s.NewRun("run-1")
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}

	err = run.WriteDataset("diarrheal_diseases_prevalence_163", demographicTable(t), DatasetMeta{
		EntityKind: "cause",
		EntityName: "diarrheal_diseases",
		Measure:    "prevalence",
		LocationID: 163,
		Warnings:   1,
	})
	if err != nil {
		t.Fatalf("WriteDataset: %v", err)
	}

	path := filepath.Join(run.Dir(), "diarrheal_diseases_prevalence_163.parquet")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("parquet file missing: %v", err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[Row](f)
	defer reader.Close()
	if reader.NumRows() != 2 {
		t.Errorf("NumRows = %d, want 2", reader.NumRows())
	}
	got := make([]Row, 2)
	if n, err := reader.Read(got); n != 2 {
		t.Fatalf("Read = %d, %v", n, err)
	}
	if got[1].SexID != 2 || got[1].Draws[0] != 0.2 {
		t.Errorf("row 1 = %+v", got[1])
	}
}

func TestFinalizeWritesManifest(t *testing.T) {
	s := testStore(t)
	run, err := s.NewRun("run-2")
	if err != nil {
		t.Fatal(err)
	}
	if err := run.WriteDataset("ds", demographicTable(t), DatasetMeta{
		EntityKind: "cause",
		EntityName: "diarrheal_diseases",
		Measure:    "prevalence",
		LocationID: 163,
	}); err != nil {
		t.Fatal(err)
	}
	if err := run.Finalize("success"); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	m, err := ReadManifest(run.Dir())
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if m.RunID != "run-2" || m.Status != "success" {
		t.Errorf("manifest = %+v", m)
	}
	if len(m.Datasets) != 1 {
		t.Fatalf("datasets = %d, want 1", len(m.Datasets))
	}
	ds := m.Datasets[0]
	if ds.Name != "ds" || ds.File != "ds.parquet" || ds.Rows != 2 {
		t.Errorf("dataset meta = %+v", ds)
	}
	if ds.EntityName != "diarrheal_diseases" || ds.Measure != "prevalence" {
		t.Errorf("provenance = %+v", ds)
	}
	if len(ds.SHA256) != 64 {
		t.Errorf("sha256 = %q", ds.SHA256)
	}
}

func TestFinalizedRunRejectsWrites(t *testing.T) {
	s := testStore(t)
	run, err := s.NewRun("run-3")
	if err != nil {
		t.Fatal(err)
	}
	if err := run.Finalize("failed"); err != nil {
		t.Fatal(err)
	}
	if err := run.WriteDataset("late", demographicTable(t), DatasetMeta{}); err == nil {
		t.Error("expected error writing to finalized run")
	}
	if err := run.Finalize("failed"); err == nil {
		t.Error("expected error finalizing twice")
	}
}
