package warehouse

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"reflect"
	"testing"

	"vitalstats/verity/pkg/config"
	"vitalstats/verity/pkg/gbd"
	"vitalstats/verity/pkg/gbd/entity"
	"vitalstats/verity/pkg/table"
)

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	tab, err := table.NewBuilder().
		Ints("location_id", []int{163, 163}).
		Ints("age_group_id", []int{2, 3}).
		Strings("parameter", []string{"cat1", "cat1"}).
		Floats("draw_0", []float64{0.25, 0.5}).
		Floats("draw_1", []float64{0.75, math.NaN()}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	return tab
}

func sampleQuery() Query {
	return Query{
		EntityKind: entity.KindCause,
		EntityID:   302,
		Measure:    gbd.MeasurePrevalence,
		LocationID: 163,
	}
}

func tablesEqual(t *testing.T, got, want *table.Table) {
	t.Helper()
	if got.Len() != want.Len() {
		t.Fatalf("rows = %d, want %d", got.Len(), want.Len())
	}
	if !reflect.DeepEqual(got.Columns(), want.Columns()) {
		t.Fatalf("columns = %v, want %v", got.Columns(), want.Columns())
	}
	for _, name := range want.Columns() {
		if vals, ok := want.Ints(name); ok {
			gotVals, _ := got.Ints(name)
			if !reflect.DeepEqual(gotVals, vals) {
				t.Errorf("%s = %v, want %v", name, gotVals, vals)
			}
			continue
		}
		if vals, ok := want.Strings(name); ok {
			gotVals, _ := got.Strings(name)
			if !reflect.DeepEqual(gotVals, vals) {
				t.Errorf("%s = %v, want %v", name, gotVals, vals)
			}
			continue
		}
		vals, _ := want.Floats(name)
		gotVals, _ := got.Floats(name)
		if len(gotVals) != len(vals) {
			t.Errorf("%s has %d values, want %d", name, len(gotVals), len(vals))
			continue
		}
		for i := range vals {
			same := gotVals[i] == vals[i] ||
				(math.IsNaN(gotVals[i]) && math.IsNaN(vals[i]))
			if !same {
				t.Errorf("%s[%d] = %g, want %g", name, i, gotVals[i], vals[i])
			}
		}
	}
}

func TestTableCodecRoundTrip(t *testing.T) {
	original := sampleTable(t)
	header, blob, err := encodeTable(original)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := decodeTable(header, blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	tablesEqual(t, decoded, original)
}

func TestTableCodecRejectsTruncatedBlob(t *testing.T) {
	header, blob, err := encodeTable(sampleTable(t))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := decodeTable(header, blob[:len(blob)-8]); err == nil {
		t.Error("expected error for truncated blob")
	}
}

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	w, err := OpenSQLite(config.WarehouseConfig{
		Path: filepath.Join(t.TempDir(), "warehouse.db"),
	})
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func TestSQLiteDrawTableRoundTrip(t *testing.T) {
	ctx := context.Background()
	w := openTestSQLite(t)
	q := sampleQuery()
	original := sampleTable(t)

	if err := w.StoreDrawTable(ctx, q, original); err != nil {
		t.Fatalf("StoreDrawTable: %v", err)
	}
	got, err := w.DrawTable(ctx, q)
	if err != nil {
		t.Fatalf("DrawTable: %v", err)
	}
	tablesEqual(t, got, original)
}

func TestSQLiteDrawTableReplaces(t *testing.T) {
	ctx := context.Background()
	w := openTestSQLite(t)
	q := sampleQuery()

	first := table.NewBuilder().Floats("draw_0", []float64{1}).MustBuild()
	second := table.NewBuilder().Floats("draw_0", []float64{2, 3}).MustBuild()

	if err := w.StoreDrawTable(ctx, q, first); err != nil {
		t.Fatal(err)
	}
	if err := w.StoreDrawTable(ctx, q, second); err != nil {
		t.Fatal(err)
	}
	got, err := w.DrawTable(ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 2 {
		t.Errorf("rows = %d, want 2 after replacement", got.Len())
	}
}

func TestSQLiteNotFound(t *testing.T) {
	ctx := context.Background()
	w := openTestSQLite(t)

	if _, err := w.DrawTable(ctx, sampleQuery()); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := w.PathToTop(ctx, 163); !errors.Is(err, ErrNotFound) {
		t.Errorf("path err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteMetadata(t *testing.T) {
	ctx := context.Background()
	w := openTestSQLite(t)

	if err := w.StoreEstimationYears(ctx, []int{2000, 1990, 1995}); err != nil {
		t.Fatal(err)
	}
	years, err := w.EstimationYears(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(years, []int{1990, 1995, 2000}) {
		t.Errorf("years = %v, want sorted", years)
	}

	if err := w.StoreLocationPath(ctx, 163, []int{163, 159, 1}); err != nil {
		t.Fatal(err)
	}
	path, err := w.PathToTop(ctx, 163)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(path, []int{163, 159, 1}) {
		t.Errorf("path = %v", path)
	}

	// Storing again replaces rather than appends.
	if err := w.StoreLocationPath(ctx, 163, []int{163, 1}); err != nil {
		t.Fatal(err)
	}
	path, err = w.PathToTop(ctx, 163)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(path, []int{163, 1}) {
		t.Errorf("replaced path = %v", path)
	}
}

func TestMemoryImplementsWriter(t *testing.T) {
	ctx := context.Background()
	var w Writer = NewMemory()

	q := sampleQuery()
	if _, err := w.DrawTable(ctx, q); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	original := sampleTable(t)
	if err := w.StoreDrawTable(ctx, q, original); err != nil {
		t.Fatal(err)
	}
	got, err := w.DrawTable(ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	tablesEqual(t, got, original)

	if err := w.StoreEstimationYears(ctx, []int{1990}); err != nil {
		t.Fatal(err)
	}
	years, err := w.EstimationYears(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(years, []int{1990}) {
		t.Errorf("years = %v", years)
	}
}
