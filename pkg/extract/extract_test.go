package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vitalstats/verity/pkg/artifact"
	"vitalstats/verity/pkg/config"
	"vitalstats/verity/pkg/gbd"
	"vitalstats/verity/pkg/gbd/entity"
	"vitalstats/verity/pkg/table"
	verrors "vitalstats/verity/pkg/validation/errors"
	"vitalstats/verity/pkg/warehouse"
)

const (
	testLocation = 163
	testCauseID  = 302
)

func boolPtr(v bool) *bool { return &v }
func intPtr(v int) *int    { return &v }

func testCause() *entity.Cause {
	ok := entity.Survey{Exists: boolPtr(true), InRange: true}
	return &entity.Cause{
		Name:    "diarrheal_diseases",
		CauseID: testCauseID,
		Restrictions: entity.Restrictions{
			YLLAgeStart: intPtr(2), YLLAgeEnd: intPtr(4),
			YLDAgeStart: intPtr(2), YLDAgeEnd: intPtr(4),
		},
		Surveys: map[gbd.Measure]entity.Survey{
			gbd.MeasurePrevalence: ok,
			gbd.MeasureIncidence:  ok,
			gbd.MeasureDeaths:     ok,
		},
	}
}

// drawGridTable builds a full demographic grid (ages 2..4, both sexes, the
// three estimation years) with constant draws and the given id columns.
func drawGridTable(t *testing.T, ids map[string]int, value float64) *table.Table {
	t.Helper()
	type cell struct{ age, sex, year int }
	var cells []cell
	for _, a := range []int{2, 3, 4} {
		for _, s := range []int{gbd.SexMale, gbd.SexFemale} {
			for _, y := range []int{1990, 1991, 1992} {
				cells = append(cells, cell{a, s, y})
			}
		}
	}

	n := len(cells)
	rep := func(v int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = v
		}
		return out
	}
	ages := make([]int, n)
	sexes := make([]int, n)
	years := make([]int, n)
	for i, c := range cells {
		ages[i], sexes[i], years[i] = c.age, c.sex, c.year
	}
	draws := make([][]float64, n)
	for i := range draws {
		row := make([]float64, gbd.DrawCount)
		for j := range row {
			row[j] = value
		}
		draws[i] = row
	}

	b := table.NewBuilder().
		Ints("location_id", rep(testLocation)).
		Ints("sex_id", sexes).
		Ints("age_group_id", ages).
		Ints("year_id", years)
	for name, v := range ids {
		b.Ints(name, rep(v))
	}
	b.FloatMatrix(gbd.DrawColumns(), draws)
	tab, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return tab
}

func prevalenceTable(t *testing.T, value float64) *table.Table {
	return drawGridTable(t, map[string]int{
		"measure_id": gbd.MeasureIDPrevalence,
		"metric_id":  gbd.MetricRate,
		"cause_id":   testCauseID,
	}, value)
}

func deathsTable(t *testing.T, value float64) *table.Table {
	return drawGridTable(t, map[string]int{
		"measure_id": gbd.MeasureIDDeaths,
		"metric_id":  gbd.MetricNumber,
		"cause_id":   testCauseID,
	}, value)
}

func populationTable(t *testing.T, count float64) *table.Table {
	t.Helper()
	var ages, sexes, years []int
	var counts []float64
	for _, a := range []int{2, 3, 4} {
		for _, s := range []int{1, 2} {
			for _, y := range []int{1990, 1991, 1992} {
				ages = append(ages, a)
				sexes = append(sexes, s)
				years = append(years, y)
				counts = append(counts, count)
			}
		}
	}
	return table.NewBuilder().
		Ints("age_group_id", ages).
		Ints("sex_id", sexes).
		Ints("year_id", years).
		Floats("population", counts).
		MustBuild()
}

func testWarehouse(t *testing.T) *warehouse.Memory {
	t.Helper()
	ctx := context.Background()
	w := warehouse.NewMemory()
	if err := w.StoreEstimationYears(ctx, []int{1990, 1991, 1992}); err != nil {
		t.Fatal(err)
	}
	if err := w.StoreLocationPath(ctx, testLocation, []int{testLocation, 159, 1}); err != nil {
		t.Fatal(err)
	}
	return w
}

func testExtractor(t *testing.T, w warehouse.Client, mutate func(*Options)) (*Extractor, *artifact.Store) {
	t.Helper()
	store, err := artifact.NewStore(config.ArtifactConfig{
		Path:        filepath.Join(t.TempDir(), "artifacts"),
		Compression: "zstd",
	})
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{
		Warehouse: w,
		Store:     store,
		Catalog:   &entity.Catalog{Causes: []*entity.Cause{testCause()}},
		Workers:   2,
	}
	if mutate != nil {
		mutate(&opts)
	}
	e, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	return e, store
}

func prevalenceQuery() warehouse.Query {
	return warehouse.Query{
		EntityKind: entity.KindCause,
		EntityID:   testCauseID,
		Measure:    gbd.MeasurePrevalence,
		LocationID: testLocation,
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("expected error with no warehouse")
	}
	store, err := artifact.NewStore(config.ArtifactConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(Options{Store: store}); err == nil {
		t.Error("expected error with no warehouse client")
	}
	if _, err := New(Options{Warehouse: warehouse.NewMemory()}); err == nil {
		t.Error("expected error with no artifact store")
	}
}

func TestRunSuccess(t *testing.T) {
	ctx := context.Background()
	w := testWarehouse(t)
	if err := w.StoreDrawTable(ctx, prevalenceQuery(), prevalenceTable(t, 0.1)); err != nil {
		t.Fatal(err)
	}
	e, store := testExtractor(t, w, nil)

	report, err := e.Run(ctx, []Request{{
		Entity:     testCause(),
		Measure:    gbd.MeasurePrevalence,
		LocationID: testLocation,
	}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Status() != "success" {
		t.Errorf("status = %q, results = %+v", report.Status(), report.Results)
	}
	if len(report.Results) != 1 || report.Results[0].Err != nil {
		t.Fatalf("results = %+v", report.Results)
	}

	m, err := artifact.ReadManifest(filepath.Join(store.Dir(), report.RunID))
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	if m.Status != "success" || len(m.Datasets) != 1 {
		t.Fatalf("manifest = %+v", m)
	}
	ds := m.Datasets[0]
	if ds.Name != "diarrheal_diseases_prevalence_163" || ds.Measure != "prevalence" {
		t.Errorf("dataset = %+v", ds)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), report.RunID, ds.File)); err != nil {
		t.Errorf("parquet file missing: %v", err)
	}
}

func TestRunValidationFailure(t *testing.T) {
	ctx := context.Background()
	w := testWarehouse(t)
	// Prevalence above one is a hard failure.
	if err := w.StoreDrawTable(ctx, prevalenceQuery(), prevalenceTable(t, 1.5)); err != nil {
		t.Fatal(err)
	}
	e, store := testExtractor(t, w, nil)

	report, err := e.Run(ctx, []Request{{
		Entity:     testCause(),
		Measure:    gbd.MeasurePrevalence,
		LocationID: testLocation,
	}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Status() != "failed" {
		t.Errorf("status = %q", report.Status())
	}
	res := report.Results[0]
	if !verrors.IsDataAbnormal(res.Err) {
		t.Errorf("err = %v, want data_abnormal", res.Err)
	}

	m, err := artifact.ReadManifest(filepath.Join(store.Dir(), report.RunID))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Datasets) != 0 {
		t.Errorf("failed dataset reached the artifact store: %+v", m.Datasets)
	}
}

func TestRunMissingDataset(t *testing.T) {
	e, _ := testExtractor(t, testWarehouse(t), nil)

	report, err := e.Run(context.Background(), []Request{{
		Entity:     testCause(),
		Measure:    gbd.MeasurePrevalence,
		LocationID: testLocation,
	}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !errors.Is(report.Results[0].Err, warehouse.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", report.Results[0].Err)
	}
}

func TestRunDeathsPullsPopulation(t *testing.T) {
	ctx := context.Background()
	deathsQuery := warehouse.Query{
		EntityKind: entity.KindCause,
		EntityID:   testCauseID,
		Measure:    gbd.MeasureDeaths,
		LocationID: testLocation,
	}
	populationQuery := warehouse.Query{
		EntityKind: entity.KindPopulation,
		Measure:    gbd.MeasureStructure,
		LocationID: testLocation,
	}
	req := Request{Entity: testCause(), Measure: gbd.MeasureDeaths, LocationID: testLocation}

	t.Run("population present", func(t *testing.T) {
		w := testWarehouse(t)
		if err := w.StoreDrawTable(ctx, deathsQuery, deathsTable(t, 5)); err != nil {
			t.Fatal(err)
		}
		if err := w.StoreDrawTable(ctx, populationQuery, populationTable(t, 1000)); err != nil {
			t.Fatal(err)
		}
		e, _ := testExtractor(t, w, nil)
		report, err := e.Run(ctx, []Request{req})
		if err != nil {
			t.Fatal(err)
		}
		if report.Status() != "success" {
			t.Errorf("status = %q, err = %v", report.Status(), report.Results[0].Err)
		}
	})

	t.Run("population missing", func(t *testing.T) {
		w := testWarehouse(t)
		if err := w.StoreDrawTable(ctx, deathsQuery, deathsTable(t, 5)); err != nil {
			t.Fatal(err)
		}
		e, _ := testExtractor(t, w, nil)
		report, err := e.Run(ctx, []Request{req})
		if err != nil {
			t.Fatal(err)
		}
		if !errors.Is(report.Results[0].Err, warehouse.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", report.Results[0].Err)
		}
	})
}

func TestRunPartial(t *testing.T) {
	ctx := context.Background()
	w := testWarehouse(t)
	if err := w.StoreDrawTable(ctx, prevalenceQuery(), prevalenceTable(t, 0.1)); err != nil {
		t.Fatal(err)
	}
	e, _ := testExtractor(t, w, nil)

	report, err := e.Run(ctx, []Request{
		{Entity: testCause(), Measure: gbd.MeasurePrevalence, LocationID: testLocation},
		{Entity: testCause(), Measure: gbd.MeasureIncidence, LocationID: testLocation},
	})
	if err != nil {
		t.Fatal(err)
	}
	if report.Status() != "partial" {
		t.Errorf("status = %q", report.Status())
	}
	if report.Failed() != 1 {
		t.Errorf("failed = %d, want 1", report.Failed())
	}
}

func TestRequestDatasetName(t *testing.T) {
	req := Request{Entity: testCause(), Measure: gbd.MeasurePrevalence, LocationID: testLocation}
	if got := req.datasetName(true); got != "diarrheal_diseases_prevalence_163" {
		t.Errorf("name = %q", got)
	}
	if got := req.datasetName(false); got != "diarrheal_diseases_prevalence" {
		t.Errorf("name = %q", got)
	}
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	w := testWarehouse(t)
	if err := w.StoreDrawTable(ctx, prevalenceQuery(), prevalenceTable(t, 0.1)); err != nil {
		t.Fatal(err)
	}
	checker, err := NewChecker(Options{
		Warehouse: w,
		Catalog:   &entity.Catalog{Causes: []*entity.Cause{testCause()}},
	})
	if err != nil {
		t.Fatal(err)
	}

	req := Request{Entity: testCause(), Measure: gbd.MeasurePrevalence, LocationID: testLocation}
	res, err := checker.Check(ctx, req)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Err != nil {
		t.Errorf("result error = %v", res.Err)
	}

	// A bad dataset fails the check but not the call.
	if err := w.StoreDrawTable(ctx, prevalenceQuery(), prevalenceTable(t, 1.5)); err != nil {
		t.Fatal(err)
	}
	res, err = checker.Check(ctx, req)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Err == nil || !verrors.IsDataAbnormal(res.Err) {
		t.Errorf("result error = %v, want data abnormal", res.Err)
	}
}

func TestPullAdditional(t *testing.T) {
	ctx := context.Background()
	const reiID = 83
	risk := &entity.RiskFactor{Name: "child_wasting", REIID: reiID, Distribution: entity.DistributionDichotomous}
	gap := &entity.CoverageGap{Name: "low_measles_vaccine_coverage", REIID: 401, Distribution: entity.DistributionDichotomous}

	w := testWarehouse(t)
	seed := func(kind entity.Kind, id int, m gbd.Measure) {
		t.Helper()
		q := warehouse.Query{EntityKind: kind, EntityID: id, Measure: m, LocationID: testLocation}
		if err := w.StoreDrawTable(ctx, q, prevalenceTable(t, 0.1)); err != nil {
			t.Fatal(err)
		}
	}
	seed(entity.KindPopulation, 0, gbd.MeasureStructure)
	seed(entity.KindRiskFactor, reiID, gbd.MeasureExposure)
	seed(entity.KindRiskFactor, reiID, gbd.MeasureRelativeRisk)

	e, _ := testExtractor(t, w, nil)

	tests := []struct {
		name    string
		ent     entity.Entity
		measure gbd.Measure
		wantPop bool
		wantExp bool
		wantRR  bool
	}{
		{name: "prevalence needs nothing", ent: testCause(), measure: gbd.MeasurePrevalence},
		{name: "deaths pulls population", ent: testCause(), measure: gbd.MeasureDeaths, wantPop: true},
		{name: "exposure sd pulls exposure", ent: risk, measure: gbd.MeasureExposureStandardDeviation, wantExp: true},
		{name: "risk relative risk pulls exposure", ent: risk, measure: gbd.MeasureRelativeRisk, wantExp: true},
		{name: "coverage gap relative risk needs nothing", ent: gap, measure: gbd.MeasureRelativeRisk},
		{name: "paf pulls exposure and relative risk", ent: risk, measure: gbd.MeasurePAF, wantExp: true, wantRR: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := Request{Entity: tt.ent, Measure: tt.measure, LocationID: testLocation}
			extra, err := e.pullAdditional(ctx, req)
			if err != nil {
				t.Fatalf("pullAdditional: %v", err)
			}
			if got := extra.Population != nil; got != tt.wantPop {
				t.Errorf("population pulled = %v, want %v", got, tt.wantPop)
			}
			if got := extra.Exposure != nil; got != tt.wantExp {
				t.Errorf("exposure pulled = %v, want %v", got, tt.wantExp)
			}
			if got := extra.RelativeRisk != nil; got != tt.wantRR {
				t.Errorf("relative risk pulled = %v, want %v", got, tt.wantRR)
			}
		})
	}
}
