package gbd

import "fmt"

// Measure identifies a quantity pulled from the warehouse. The string form
// is the name used in configuration and on the CLI.
type Measure string

const (
	MeasureIncidence                  Measure = "incidence"
	MeasurePrevalence                 Measure = "prevalence"
	MeasureBirthPrevalence            Measure = "birth_prevalence"
	MeasureDisabilityWeight           Measure = "disability_weight"
	MeasureRemission                  Measure = "remission"
	MeasureDeaths                     Measure = "deaths"
	MeasureExposure                   Measure = "exposure"
	MeasureExposureStandardDeviation  Measure = "exposure_standard_deviation"
	MeasureExposureDistributionWeight Measure = "exposure_distribution_weights"
	MeasureRelativeRisk               Measure = "relative_risk"
	MeasurePAF                        Measure = "population_attributable_fraction"
	MeasureEtiologyPAF                Measure = "etiology_population_attributable_fraction"
	MeasureMediationFactors           Measure = "mediation_factors"
	MeasureEstimate                   Measure = "estimate"
	MeasureCost                       Measure = "cost"
	MeasureUtilization                Measure = "utilization"
	MeasureStructure                  Measure = "structure"
	MeasureLifeExpectancy             Measure = "theoretical_minimum_risk_life_expectancy"
)

// Measures lists every measure the validation layer understands, in the
// order they are dispatched.
var Measures = []Measure{
	MeasureIncidence,
	MeasurePrevalence,
	MeasureBirthPrevalence,
	MeasureDisabilityWeight,
	MeasureRemission,
	MeasureDeaths,
	MeasureExposure,
	MeasureExposureStandardDeviation,
	MeasureExposureDistributionWeight,
	MeasureRelativeRisk,
	MeasurePAF,
	MeasureEtiologyPAF,
	MeasureMediationFactors,
	MeasureEstimate,
	MeasureCost,
	MeasureUtilization,
	MeasureStructure,
	MeasureLifeExpectancy,
}

// ParseMeasure maps a measure name to its Measure constant.
func ParseMeasure(s string) (Measure, error) {
	for _, m := range Measures {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown measure %q", s)
}

// Warehouse measure_id codes, keyed by the names the extraction layer uses
// when asserting the measure_id column of a pulled table.
const (
	MeasureIDDeaths     = 1
	MeasureIDYLDs       = 3
	MeasureIDYLLs       = 4
	MeasureIDPrevalence = 5
	MeasureIDIncidence  = 6
	MeasureIDRemission  = 7
	MeasureIDProportion = 18
	MeasureIDContinuous = 19
)

// MeasureIDs maps the warehouse measure names appearing in validation rules
// to their measure_id codes.
var MeasureIDs = map[string]int{
	"Deaths":     MeasureIDDeaths,
	"YLDs":       MeasureIDYLDs,
	"YLLs":       MeasureIDYLLs,
	"Prevalence": MeasureIDPrevalence,
	"Incidence":  MeasureIDIncidence,
	"Remission":  MeasureIDRemission,
	"Proportion": MeasureIDProportion,
	"Continuous": MeasureIDContinuous,
}

// Warehouse metric_id codes.
const (
	MetricNumber  = 1
	MetricPercent = 2
	MetricRate    = 3
)

// MetricIDs maps metric names to metric_id codes.
var MetricIDs = map[string]int{
	"number":  MetricNumber,
	"percent": MetricPercent,
	"rate":    MetricRate,
}

// Warehouse sex_id codes.
const (
	SexMale     = 1
	SexFemale   = 2
	SexCombined = 3
)

// ValidSexIDs is the complete set of sex ids a raw table may carry.
var ValidSexIDs = []int{SexMale, SexFemale, SexCombined}

// Special age groups. AgeAllAges and AgeStandardized are aggregate
// placeholders appearing in non-age-specific data; AgeBirth appears only in
// birth prevalence. AgeNinetyFivePlus terminates the standard ordering but
// is tolerated as an extra group by the age restriction checks.
const (
	AgeAllAges        = 22
	AgeStandardized   = 27
	AgeBirth          = 164
	AgeNinetyFivePlus = 235
)
