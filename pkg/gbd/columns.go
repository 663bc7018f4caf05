package gbd

import "fmt"

// DrawCount is the size of the probabilistic ensemble: every draw-level
// table carries exactly this many value columns.
const DrawCount = 1000

// drawColumns is built once; the column names are fixed by the warehouse.
var drawColumns = func() []string {
	cols := make([]string, DrawCount)
	for i := range cols {
		cols[i] = fmt.Sprintf("draw_%d", i)
	}
	return cols
}()

// DrawColumns returns the fixed draw column names draw_0..draw_999.
// Callers must not modify the returned slice.
func DrawColumns() []string {
	return drawColumns
}

// DemographicColumns are the identifier columns present on every
// demographic-specific raw table.
var DemographicColumns = []string{"location_id", "sex_id", "age_group_id", "year_id"}

// DefaultAgeGroupIDs is the canonical ordering of the standard age-group
// universe for the supported warehouse round: early/late neonatal through
// 95+. The warehouse may serve a narrower universe; validation always uses
// the universe from its context, falling back to this ordering.
var DefaultAgeGroupIDs = []int{
	2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20,
	30, 31, 32, 235,
}
