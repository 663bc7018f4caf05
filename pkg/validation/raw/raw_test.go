package raw

// Shared fixtures for the validation tests: a small location hierarchy,
// three estimation years, and a catalog with one cause carrying a sequela
// and an etiology. The cause is restricted to age groups 2 through 4 on
// both the yll and yld sides so restriction behavior is cheap to probe.

import (
	"testing"

	"vitalstats/verity/pkg/gbd"
	"vitalstats/verity/pkg/gbd/entity"
	"vitalstats/verity/pkg/table"
	verrors "vitalstats/verity/pkg/validation/errors"
)

const (
	testLocation = 163
	testCauseID  = 302
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func surveyed() map[gbd.Measure]entity.Survey {
	ok := entity.Survey{Exists: boolPtr(true), InRange: true}
	return map[gbd.Measure]entity.Survey{
		gbd.MeasureIncidence:       ok,
		gbd.MeasurePrevalence:      ok,
		gbd.MeasureBirthPrevalence: ok,
		gbd.MeasureRemission:       ok,
		gbd.MeasureDeaths:          ok,
		gbd.MeasureExposure:        ok,
	}
}

func testSequela() *entity.Sequela {
	return &entity.Sequela{
		Name:      "mild_diarrhea",
		SequelaID: 10,
		HealthState: entity.HealthState{
			Name: "mild_diarrhea", HealthStateID: 355, DisabilityWeightExists: true,
		},
		Surveys: surveyed(),
	}
}

func testCause() *entity.Cause {
	return &entity.Cause{
		Name:    "diarrheal_diseases",
		CauseID: testCauseID,
		Restrictions: entity.Restrictions{
			YLLAgeStart: intPtr(2), YLLAgeEnd: intPtr(4),
			YLDAgeStart: intPtr(2), YLDAgeEnd: intPtr(4),
		},
		Surveys:    surveyed(),
		Sequelae:   []*entity.Sequela{testSequela()},
		Etiologies: []*entity.Etiology{testEtiology()},
	}
}

func testEtiology() *entity.Etiology {
	return &entity.Etiology{
		Name:   "cholera",
		REIID:  173,
		PAFYLL: entity.Survey{Exists: boolPtr(true), InRange: true},
		PAFYLD: entity.Survey{Exists: boolPtr(true), InRange: true},
	}
}

func categoricalRisk() *entity.RiskFactor {
	return &entity.RiskFactor{
		Name:         "unsafe_water_source",
		REIID:        83,
		Distribution: entity.DistributionDichotomous,
		Surveys:      surveyed(),
		PAFYLL:       entity.Survey{Exists: boolPtr(true), InRange: true},
		PAFYLD:       entity.Survey{Exists: boolPtr(true), InRange: true},
	}
}

func continuousRisk() *entity.RiskFactor {
	return &entity.RiskFactor{
		Name:         "high_fasting_plasma_glucose",
		REIID:        105,
		Distribution: entity.DistributionEnsemble,
		TMRED:        entity.TMRED{Min: 4.5, Max: 5.4},
		Surveys:      surveyed(),
		PAFYLL:       entity.Survey{Exists: boolPtr(true), InRange: true},
		PAFYLD:       entity.Survey{Exists: boolPtr(true), InRange: true},
	}
}

func testContext(t *testing.T) *Context {
	t.Helper()
	ctx, err := NewContext(ContextConfig{
		EstimationYears: []int{1990, 1991, 1992},
		PathToTop:       map[int][]int{testLocation: {testLocation, 159, 1}},
		Catalog:         &entity.Catalog{Causes: []*entity.Cause{testCause()}},
	})
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	return ctx
}

// demo is one demographic cell of a test table.
type demo struct {
	age, sex, year int
}

// demoGrid returns the full cross product of the given demographic values.
func demoGrid(ages, sexes, years []int) []demo {
	var cells []demo
	for _, a := range ages {
		for _, s := range sexes {
			for _, y := range years {
				cells = append(cells, demo{a, s, y})
			}
		}
	}
	return cells
}

func repInt(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func repStr(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func repFloat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// drawMatrix returns one constant-valued draw row per cell.
func drawMatrix(n int, v float64) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		row := make([]float64, gbd.DrawCount)
		for j := range row {
			row[j] = v
		}
		rows[i] = row
	}
	return rows
}

func demoColumns(b *table.Builder, cells []demo) *table.Builder {
	ages := make([]int, len(cells))
	sexes := make([]int, len(cells))
	years := make([]int, len(cells))
	for i, c := range cells {
		ages[i] = c.age
		sexes[i] = c.sex
		years[i] = c.year
	}
	return b.
		Ints("location_id", repInt(testLocation, len(cells))).
		Ints("sex_id", sexes).
		Ints("age_group_id", ages).
		Ints("year_id", years)
}

// drawTable assembles a draw-level table with the given id columns, one
// row per cell, and the provided draw rows.
func drawTable(t *testing.T, ids map[string]int, cells []demo, draws [][]float64) *table.Table {
	t.Helper()
	b := table.NewBuilder()
	for name, v := range ids {
		b.Ints(name, repInt(v, len(cells)))
	}
	demoColumns(b, cells)
	b.FloatMatrix(gbd.DrawColumns(), draws)
	tab, err := b.Build()
	if err != nil {
		t.Fatalf("building test table: %v", err)
	}
	return tab
}

// fullGrid is the standard valid demographic grid for the test cause: its
// whole restriction age range, both sexes, all estimation years.
func fullGrid() []demo {
	return demoGrid([]int{2, 3, 4}, []int{gbd.SexMale, gbd.SexFemale}, []int{1990, 1991, 1992})
}

func prevalenceTable(t *testing.T, v float64) *table.Table {
	cells := fullGrid()
	return drawTable(t, map[string]int{
		"measure_id": gbd.MeasureIDPrevalence,
		"metric_id":  gbd.MetricIDs["rate"],
		"cause_id":   testCauseID,
	}, cells, drawMatrix(len(cells), v))
}

func newTestChecker(t *testing.T) *checker {
	t.Helper()
	return &checker{ctx: testContext(t), out: verrors.NewOutcome()}
}
