package raw

// Bounds holds the numeric envelopes applied to value columns. Upper
// bounds are empirically derived soft ceilings unless the measure's
// validator treats them as hard; tests override individual fields rather
// than patching package state.
type Bounds struct {
	// MaxIncidence bounds incidence draws, per person-year. Soft.
	MaxIncidence float64

	// MaxRemission bounds remission draws, cases per person-year. Soft.
	MaxRemission float64

	// MaxCategoricalRelativeRisk bounds relative risk draws for
	// categorical risk factors. Hard.
	MaxCategoricalRelativeRisk float64

	// MaxContinuousRelativeRisk bounds relative risk draws for continuous
	// risk factors. Hard.
	MaxContinuousRelativeRisk float64

	// MaxUtilization bounds healthcare utilization draws. Soft.
	MaxUtilization float64

	// MaxLifeExpectancy bounds life expectancy values, in years. Hard.
	MaxLifeExpectancy float64

	// MaxPopulation bounds a single demographic cell of the population
	// structure table. Hard.
	MaxPopulation float64
}

// DefaultBounds returns the standard envelopes.
func DefaultBounds() Bounds {
	return Bounds{
		MaxIncidence:               10,
		MaxRemission:               365.0 / 3.0,
		MaxCategoricalRelativeRisk: 20,
		MaxContinuousRelativeRisk:  5,
		MaxUtilization:             50,
		MaxLifeExpectancy:          90,
		MaxPopulation:              100_000_000,
	}
}
