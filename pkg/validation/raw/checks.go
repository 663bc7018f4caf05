package raw

import (
	"fmt"
	"math"
	"sort"

	"vitalstats/verity/pkg/gbd"
	"vitalstats/verity/pkg/table"
	verrors "vitalstats/verity/pkg/validation/errors"
)

// checker threads the shared context and the warning accumulator through
// one validation call. Fatal failures are returned; warnings collect on
// out and never short-circuit.
type checker struct {
	ctx *Context
	out *verrors.Outcome
}

type yearPolicy string

const (
	yearsAnnual yearPolicy = "annual"
	yearsBinned yearPolicy = "binned"
	yearsEither yearPolicy = "either"
)

type boundarySide string

const (
	boundaryLower boundarySide = "lower"
	boundaryUpper boundarySide = "upper"
)

// checkDataExist reports whether the table carries usable values: it must
// be non-empty, free of NaN and infinite values in valueCols, and, when
// zerosMissing, not all zero. With fatal set, absence is returned as a
// data-missing error.
func (c *checker) checkDataExist(t *table.Table, zerosMissing bool, valueCols []string, fatal bool) (bool, error) {
	exists := !t.Empty() && !t.HasMissing(valueCols) && !(zerosMissing && t.AllZero(valueCols))
	if !exists && fatal {
		qualifier := ""
		if zerosMissing {
			qualifier = ", non-zero"
		}
		return false, verrors.DataMissingf("data contains no non-missing%s values", qualifier)
	}
	return exists, nil
}

// checkColumns verifies exact, order-independent column set equality.
func checkColumns(expected, actual []string) error {
	want := make(map[string]struct{}, len(expected))
	for _, col := range expected {
		want[col] = struct{}{}
	}
	got := make(map[string]struct{}, len(actual))
	for _, col := range actual {
		got[col] = struct{}{}
	}
	var missing, extra []string
	for _, col := range expected {
		if _, ok := got[col]; !ok {
			missing = append(missing, col)
		}
	}
	for _, col := range actual {
		if _, ok := want[col]; !ok {
			extra = append(extra, col)
		}
	}
	if len(missing) > 0 {
		return verrors.DataAbnormalf("data is missing columns: %v", missing)
	}
	if len(extra) > 0 {
		return verrors.DataAbnormalf("data returned extra columns: %v", extra)
	}
	return nil
}

// checkMeasureID verifies the measure_id column holds only allowed codes
// and, when singleOnly, a single distinct code.
func checkMeasureID(t *table.Table, allowable []string, singleOnly bool) error {
	ids := t.UniqueInts("measure_id")
	if singleOnly && len(ids) > 1 {
		return verrors.DataAbnormalf("data has multiple measure ids: %v", ids)
	}
	allowed := make(map[int]struct{}, len(allowable))
	for _, name := range allowable {
		code, ok := gbd.MeasureIDs[name]
		if !ok {
			return verrors.Configurationf("unknown measure name %q in allowed set", name)
		}
		allowed[code] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := allowed[id]; !ok {
			return verrors.DataAbnormalf("data includes measure id %d not in the expected set for this measure", id)
		}
	}
	return nil
}

// checkMetricID verifies the metric_id column is exactly the singleton
// expected metric.
func checkMetricID(t *table.Table, expected string) error {
	code, ok := gbd.MetricIDs[expected]
	if !ok {
		return verrors.Configurationf("unknown metric name %q", expected)
	}
	ids := t.UniqueInts("metric_id")
	if len(ids) != 1 || ids[0] != code {
		return verrors.DataAbnormalf("data includes metrics beyond the expected %s (metric_id %d)", expected, code)
	}
	return nil
}

// checkYears verifies the year_id column against the estimation years
// under the given temporal policy.
func (c *checker) checkYears(t *table.Table, policy yearPolicy) error {
	years := c.ctx.EstimationYears()
	dataYears := make(map[int]struct{})
	for _, y := range t.UniqueInts("year_id") {
		dataYears[y] = struct{}{}
	}
	minYear, maxYear := years[0], years[0]
	binned := make(map[int]struct{}, len(years))
	for _, y := range years {
		binned[y] = struct{}{}
		if y < minYear {
			minYear = y
		}
		if y > maxYear {
			maxYear = y
		}
	}

	missingAnnual := func() []int {
		var missing []int
		for y := minYear; y <= maxYear; y++ {
			if _, ok := dataYears[y]; !ok {
				missing = append(missing, y)
			}
		}
		return missing
	}
	missingBinned := func() []int {
		var missing []int
		for _, y := range years {
			if _, ok := dataYears[y]; !ok {
				missing = append(missing, y)
			}
		}
		return missing
	}
	extraBinned := func() []int {
		var extra []int
		for y := range dataYears {
			if _, ok := binned[y]; !ok {
				extra = append(extra, y)
			}
		}
		sort.Ints(extra)
		return extra
	}

	switch policy {
	case yearsAnnual:
		if missing := missingAnnual(); len(missing) > 0 {
			return verrors.DataAbnormalf("data has missing years: %v", missing)
		}
	case yearsBinned:
		if missing := missingBinned(); len(missing) > 0 {
			return verrors.DataAbnormalf("data has missing years: %v", missing)
		}
		if extra := extraBinned(); len(extra) > 0 {
			return verrors.DataAbnormalf("data has extra years: %v", extra)
		}
	case yearsEither:
		exactBinned := len(missingBinned()) == 0 && len(extraBinned()) == 0
		coversAnnual := len(missingAnnual()) == 0
		if !exactBinned && !coversAnnual {
			return verrors.DataAbnormalf("data year range is neither annual nor appropriately binned for the expected year range")
		}
	}
	return nil
}

// checkLocation verifies that data carries a single location id lying on
// the requested location's path to the global root.
func (c *checker) checkLocation(t *table.Table, locationID int) error {
	ids := t.UniqueInts("location_id")
	if len(ids) > 1 {
		return verrors.DataAbnormalf("data contains multiple location ids: %v", ids)
	}
	if len(ids) == 0 {
		return nil
	}
	for _, ancestor := range c.ctx.PathToTop(locationID) {
		if ids[0] == ancestor {
			return nil
		}
	}
	return verrors.DataAbnormalf("data pulled for location %d actually has location id %d, which is not in its hierarchy", locationID, ids[0])
}

// checkAgeGroupIDs verifies the age_group_id column: every id must be part
// of the canonical universe and the ids must form a contiguous block of
// that universe. Deviations from the restriction-derived expected range
// only warn.
func (c *checker) checkAgeGroupIDs(t *table.Table, restrictionStart, restrictionEnd *int) error {
	restrictionAges, err := c.ctx.RestrictionAgeIDs(restrictionStart, restrictionEnd)
	if err != nil {
		return err
	}
	dataAges := t.UniqueInts("age_group_id")
	if len(dataAges) == 0 {
		return nil
	}

	var invalid []int
	positions := make([]int, 0, len(dataAges))
	for _, id := range dataAges {
		pos, ok := c.ctx.agePos[id]
		if !ok {
			invalid = append(invalid, id)
			continue
		}
		positions = append(positions, pos)
	}
	if len(invalid) > 0 {
		return verrors.DataAbnormalf("data contains invalid age group ids: %v", invalid)
	}

	sort.Ints(positions)
	if positions[len(positions)-1]-positions[0]+1 != len(positions) {
		return verrors.DataAbnormalf("data contains non-contiguous age groups: %v", dataAges)
	}

	dataSet := intSet(dataAges)
	restrictionSet := intSet(restrictionAges)
	if len(restrictionAges) > 0 {
		if strictSubset(dataSet, restrictionSet) {
			c.out.Warnf("data does not contain all age groups in restriction range")
		} else if strictSubset(restrictionSet, dataSet) {
			c.out.Warnf("data contains additional age groups beyond those specified by restriction range")
		}
	}
	return nil
}

// checkSexIDs verifies the sex_id column holds only valid sex ids and
// warns when the set differs from the expected combination.
func (c *checker) checkSexIDs(t *table.Table, maleExpected, femaleExpected, combinedExpected bool) error {
	expected := make(map[int]struct{})
	if maleExpected {
		expected[gbd.SexMale] = struct{}{}
	}
	if femaleExpected {
		expected[gbd.SexFemale] = struct{}{}
	}
	if combinedExpected {
		expected[gbd.SexCombined] = struct{}{}
	}
	valid := intSet(gbd.ValidSexIDs)

	dataSexes := t.UniqueInts("sex_id")
	var invalid, extra []int
	for _, id := range dataSexes {
		if _, ok := valid[id]; !ok {
			invalid = append(invalid, id)
		} else if _, ok := expected[id]; !ok {
			extra = append(extra, id)
		}
	}
	if len(invalid) > 0 {
		return verrors.DataAbnormalf("data contains invalid sex ids: %v", invalid)
	}
	if len(extra) > 0 {
		c.out.Warnf("data contains the following extra sex ids: %v", extra)
	}
	dataSet := intSet(dataSexes)
	var missing []int
	for _, id := range gbd.ValidSexIDs {
		if _, want := expected[id]; want {
			if _, ok := dataSet[id]; !ok {
				missing = append(missing, id)
			}
		}
	}
	if len(missing) > 0 {
		c.out.Warnf("data is missing the following expected sex ids: %v", missing)
	}
	return nil
}

// checkValueColumnsBoundary verifies the per-row extremum of valueCols
// against a scalar boundary. With fatal set a violation is a data-abnormal
// error, otherwise a warning.
func (c *checker) checkValueColumnsBoundary(t *table.Table, boundary float64, side boundarySide, valueCols []string, inclusive, fatal bool) error {
	var extrema []float64
	if side == boundaryLower {
		extrema = t.RowMin(valueCols)
	} else {
		extrema = t.RowMax(valueCols)
	}
	violations := 0
	for _, v := range extrema {
		if violates(v, boundary, side, inclusive) {
			violations++
		}
	}
	if violations == 0 {
		return nil
	}
	direction := "below"
	if side == boundaryUpper {
		direction = "above"
	}
	msg := fmt.Sprintf("data contains %d row(s) with values %s the expected boundary %g", violations, direction, boundary)
	if fatal {
		return verrors.DataAbnormalf("%s", msg)
	}
	c.out.Warnf("%s", msg)
	return nil
}

// demographicKey identifies one (age group, year, sex) cell when a
// boundary varies per cell rather than being a constant.
type demographicKey struct {
	AgeGroupID int
	YearID     int
	SexID      int
}

// checkValueColumnsBoundaryByCell is checkValueColumnsBoundary with a
// per-demographic-cell boundary, e.g. population counts bounding deaths.
// Rows whose cell has no boundary are skipped.
func (c *checker) checkValueColumnsBoundaryByCell(t *table.Table, bounds map[demographicKey]float64, side boundarySide, valueCols []string, inclusive, fatal bool) error {
	ages, _ := t.Ints("age_group_id")
	years, _ := t.Ints("year_id")
	sexes, _ := t.Ints("sex_id")
	if ages == nil || years == nil || sexes == nil {
		return verrors.Configurationf("per-cell boundary check requires age_group_id, year_id, and sex_id columns")
	}
	var extrema []float64
	if side == boundaryLower {
		extrema = t.RowMin(valueCols)
	} else {
		extrema = t.RowMax(valueCols)
	}
	violations := 0
	for i, v := range extrema {
		bound, ok := bounds[demographicKey{ages[i], years[i], sexes[i]}]
		if !ok {
			continue
		}
		if violates(v, bound, side, inclusive) {
			violations++
		}
	}
	if violations == 0 {
		return nil
	}
	direction := "below"
	if side == boundaryUpper {
		direction = "above"
	}
	msg := fmt.Sprintf("data contains %d row(s) with values %s the expected per-demographic boundary", violations, direction)
	if fatal {
		return verrors.DataAbnormalf("%s", msg)
	}
	c.out.Warnf("%s", msg)
	return nil
}

func violates(v, boundary float64, side boundarySide, inclusive bool) bool {
	if side == boundaryLower {
		if inclusive {
			return v < boundary
		}
		return v <= boundary
	}
	if inclusive {
		return v > boundary
	}
	return v >= boundary
}

// allClose tests |a-b| <= atol + rtol*|b|, the usual combined
// absolute-plus-relative tolerance.
func allClose(a, b float64) bool {
	const (
		rtol = 1e-5
		atol = 1e-8
	)
	return math.Abs(a-b) <= atol+rtol*math.Abs(b)
}

func intSet(vals []int) map[int]struct{} {
	s := make(map[int]struct{}, len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

func strictSubset(a, b map[int]struct{}) bool {
	if len(a) >= len(b) {
		return false
	}
	for v := range a {
		if _, ok := b[v]; !ok {
			return false
		}
	}
	return true
}

func sortedKeys(s map[int]struct{}) []int {
	out := make([]int, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
