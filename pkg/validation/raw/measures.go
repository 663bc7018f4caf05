package raw

import (
	stderrors "errors"

	"vitalstats/verity/pkg/gbd"
	"vitalstats/verity/pkg/gbd/entity"
	"vitalstats/verity/pkg/table"
	verrors "vitalstats/verity/pkg/validation/errors"
)

// Additional carries the read-only secondary tables some measures need
// for cross-checking. Only the fields a measure uses must be set: deaths
// needs Population; exposure standard deviation and relative risk need
// Exposure; population attributable fraction needs both Exposure and
// RelativeRisk.
type Additional struct {
	Population   *table.Table
	Exposure     *table.Table
	RelativeRisk *table.Table
}

// ValidateRawData checks a raw warehouse table for the given entity and
// measure. The returned Outcome carries every warning emitted, whether or
// not validation failed; the error is the first fatal failure, typed per
// the package taxonomy. Input tables are never mutated.
func ValidateRawData(ctx *Context, data *table.Table, ent entity.Entity, measure gbd.Measure, locationID int, extra Additional) (*verrors.Outcome, error) {
	c := &checker{ctx: ctx, out: verrors.NewOutcome()}

	var err error
	switch measure {
	case gbd.MeasureIncidence:
		err = c.validateIncidence(data, ent, locationID)
	case gbd.MeasurePrevalence:
		err = c.validatePrevalence(data, ent, locationID)
	case gbd.MeasureBirthPrevalence:
		err = c.validateBirthPrevalence(data, ent, locationID)
	case gbd.MeasureDisabilityWeight:
		err = c.validateDisabilityWeight(data, ent, locationID)
	case gbd.MeasureRemission:
		err = c.validateRemission(data, ent, locationID)
	case gbd.MeasureDeaths:
		err = c.validateDeaths(data, ent, locationID, extra.Population)
	case gbd.MeasureExposure:
		err = c.validateExposure(data, ent, locationID)
	case gbd.MeasureExposureStandardDeviation:
		err = c.validateExposureStandardDeviation(data, ent, locationID, extra.Exposure)
	case gbd.MeasureExposureDistributionWeight:
		err = c.validateExposureDistributionWeights(data, ent, locationID)
	case gbd.MeasureRelativeRisk:
		err = c.validateRelativeRisk(data, ent, locationID, extra.Exposure)
	case gbd.MeasurePAF:
		err = c.validatePAF(data, ent, locationID, extra.RelativeRisk, extra.Exposure)
	case gbd.MeasureEtiologyPAF:
		err = c.validateEtiologyPAF(data, ent, locationID)
	case gbd.MeasureMediationFactors:
		err = verrors.NotImplementedf("mediation factor validation is not implemented")
	case gbd.MeasureEstimate:
		err = c.validateEstimate(data, ent, locationID)
	case gbd.MeasureCost:
		err = c.validateCost(data, ent, locationID)
	case gbd.MeasureUtilization:
		err = c.validateUtilization(data, ent, locationID)
	case gbd.MeasureStructure:
		err = c.validateStructure(data, ent, locationID)
	case gbd.MeasureLifeExpectancy:
		err = c.validateLifeExpectancy(data, ent)
	default:
		err = verrors.InvalidQueryf("no raw validator found for measure %q", measure)
	}

	c.out.Stamp(string(ent.EntityKind()), ent.EntityName(), string(measure))
	return c.out, stampError(err, ent, measure)
}

// stampError fills entity context onto a typed validation error.
func stampError(err error, ent entity.Entity, measure gbd.Measure) error {
	var ve *verrors.Error
	if stderrors.As(err, &ve) {
		if ve.EntityName == "" {
			ve.EntityKind = string(ent.EntityKind())
			ve.EntityName = ent.EntityName()
		}
		if ve.Measure == "" {
			ve.Measure = string(measure)
		}
	}
	return err
}

// yldRestrictions resolves the YLD-side restrictions governing incidence,
// prevalence, and birth prevalence: a cause's own, or the parent cause's
// for a sequela. The second return is the entity id column name.
func (c *checker) yldRestrictions(ent entity.Entity) (entity.Restrictions, string, error) {
	switch e := ent.(type) {
	case *entity.Cause:
		return e.Restrictions, "cause_id", nil
	case *entity.Sequela:
		cause, ok := c.ctx.Catalog().CauseForSequela(e)
		if !ok {
			return entity.Restrictions{}, "", verrors.Configurationf("sequela %s has no parent cause in the catalog", e.Name)
		}
		return cause.Restrictions, "sequela_id", nil
	}
	return entity.Restrictions{}, "", verrors.InvalidQueryf("measure is not valid for %s entities", ent.EntityKind())
}

func (c *checker) validateIncidence(data *table.Table, ent entity.Entity, locationID int) error {
	drawCols := gbd.DrawColumns()
	if _, err := c.checkDataExist(data, true, drawCols, true); err != nil {
		return err
	}
	restrictions, idCol, err := c.yldRestrictions(ent)
	if err != nil {
		return err
	}
	expected := append([]string{"measure_id", "metric_id", idCol}, drawCols...)
	expected = append(expected, gbd.DemographicColumns...)
	if err := checkColumns(expected, data.Columns()); err != nil {
		return err
	}
	if err := checkMeasureID(data, []string{"Incidence"}, true); err != nil {
		return err
	}
	if err := checkMetricID(data, "rate"); err != nil {
		return err
	}
	if err := c.checkYears(data, yearsAnnual); err != nil {
		return err
	}
	if err := c.checkLocation(data, locationID); err != nil {
		return err
	}
	if err := c.checkAgeGroupIDs(data, restrictions.YLDAgeStart, restrictions.YLDAgeEnd); err != nil {
		return err
	}
	// the comorbidity engine returns all sexes regardless of restrictions
	if err := c.checkSexIDs(data, true, true, false); err != nil {
		return err
	}
	if err := c.checkAgeRestrictions(data, restrictions.YLDAgeStart, restrictions.YLDAgeEnd, drawCols, true); err != nil {
		return err
	}
	if err := c.checkSexRestrictions(data, restrictions.MaleOnly, restrictions.FemaleOnly, drawCols); err != nil {
		return err
	}
	if err := c.checkValueColumnsBoundary(data, 0, boundaryLower, drawCols, true, true); err != nil {
		return err
	}
	return c.checkValueColumnsBoundary(data, c.ctx.Bounds().MaxIncidence, boundaryUpper, drawCols, true, false)
}

func (c *checker) validatePrevalence(data *table.Table, ent entity.Entity, locationID int) error {
	drawCols := gbd.DrawColumns()
	if _, err := c.checkDataExist(data, true, drawCols, true); err != nil {
		return err
	}
	restrictions, idCol, err := c.yldRestrictions(ent)
	if err != nil {
		return err
	}
	expected := append([]string{"measure_id", "metric_id", idCol}, drawCols...)
	expected = append(expected, gbd.DemographicColumns...)
	if err := checkColumns(expected, data.Columns()); err != nil {
		return err
	}
	if err := checkMeasureID(data, []string{"Prevalence"}, true); err != nil {
		return err
	}
	if err := checkMetricID(data, "rate"); err != nil {
		return err
	}
	if err := c.checkYears(data, yearsAnnual); err != nil {
		return err
	}
	if err := c.checkLocation(data, locationID); err != nil {
		return err
	}
	if err := c.checkAgeGroupIDs(data, restrictions.YLDAgeStart, restrictions.YLDAgeEnd); err != nil {
		return err
	}
	if err := c.checkSexIDs(data, true, true, false); err != nil {
		return err
	}
	if err := c.checkAgeRestrictions(data, restrictions.YLDAgeStart, restrictions.YLDAgeEnd, drawCols, true); err != nil {
		return err
	}
	if err := c.checkSexRestrictions(data, restrictions.MaleOnly, restrictions.FemaleOnly, drawCols); err != nil {
		return err
	}
	if err := c.checkValueColumnsBoundary(data, 0, boundaryLower, drawCols, true, true); err != nil {
		return err
	}
	return c.checkValueColumnsBoundary(data, 1, boundaryUpper, drawCols, true, true)
}

func (c *checker) validateBirthPrevalence(data *table.Table, ent entity.Entity, locationID int) error {
	drawCols := gbd.DrawColumns()
	if _, err := c.checkDataExist(data, true, drawCols, true); err != nil {
		return err
	}
	restrictions, idCol, err := c.yldRestrictions(ent)
	if err != nil {
		return err
	}
	expected := append([]string{"measure_id", "metric_id", idCol}, drawCols...)
	expected = append(expected, gbd.DemographicColumns...)
	if err := checkColumns(expected, data.Columns()); err != nil {
		return err
	}
	if err := checkMeasureID(data, []string{"Incidence"}, true); err != nil {
		return err
	}
	if err := checkMetricID(data, "rate"); err != nil {
		return err
	}
	if err := c.checkYears(data, yearsAnnual); err != nil {
		return err
	}
	if err := c.checkLocation(data, locationID); err != nil {
		return err
	}
	ages := data.UniqueInts("age_group_id")
	if len(ages) != 1 || ages[0] != gbd.AgeBirth {
		return verrors.DataAbnormalf("birth prevalence data includes age groups beyond the expected birth age group (id %d)", gbd.AgeBirth)
	}
	if err := c.checkSexIDs(data, true, true, false); err != nil {
		return err
	}
	if err := c.checkValueColumnsBoundary(data, 0, boundaryLower, drawCols, true, true); err != nil {
		return err
	}
	if err := c.checkValueColumnsBoundary(data, 1, boundaryUpper, drawCols, true, true); err != nil {
		return err
	}
	if _, ok := ent.(*entity.Cause); ok {
		return c.checkSexRestrictions(data, restrictions.MaleOnly, restrictions.FemaleOnly, drawCols)
	}
	return nil
}

func (c *checker) validateDisabilityWeight(data *table.Table, ent entity.Entity, locationID int) error {
	if _, ok := ent.(*entity.Sequela); !ok {
		return verrors.InvalidQueryf("disability weight is not a valid measure for %s entities", ent.EntityKind())
	}
	drawCols := gbd.DrawColumns()
	if _, err := c.checkDataExist(data, false, drawCols, true); err != nil {
		return err
	}
	expected := append([]string{"location_id", "age_group_id", "sex_id", "measure", "healthstate", "healthstate_id"}, drawCols...)
	if err := checkColumns(expected, data.Columns()); err != nil {
		return err
	}
	if err := c.checkLocation(data, locationID); err != nil {
		return err
	}
	ages := data.UniqueInts("age_group_id")
	if len(ages) != 1 || ages[0] != gbd.AgeAllAges {
		return verrors.DataAbnormalf("disability weight data includes age groups beyond the expected all ages age group (id %d)", gbd.AgeAllAges)
	}
	if err := c.checkSexIDs(data, false, false, true); err != nil {
		return err
	}
	if err := c.checkValueColumnsBoundary(data, 0, boundaryLower, drawCols, true, true); err != nil {
		return err
	}
	return c.checkValueColumnsBoundary(data, 1, boundaryUpper, drawCols, true, true)
}

func (c *checker) validateRemission(data *table.Table, ent entity.Entity, locationID int) error {
	cause, ok := ent.(*entity.Cause)
	if !ok {
		return verrors.InvalidQueryf("remission is not a valid measure for %s entities", ent.EntityKind())
	}
	drawCols := gbd.DrawColumns()
	if _, err := c.checkDataExist(data, true, drawCols, true); err != nil {
		return err
	}
	expected := append([]string{"measure_id", "metric_id", "model_version_id", "modelable_entity_id"}, gbd.DemographicColumns...)
	expected = append(expected, drawCols...)
	if err := checkColumns(expected, data.Columns()); err != nil {
		return err
	}
	if err := checkMeasureID(data, []string{"Remission"}, true); err != nil {
		return err
	}
	if err := checkMetricID(data, "rate"); err != nil {
		return err
	}
	if err := c.checkYears(data, yearsBinned); err != nil {
		return err
	}
	if err := c.checkLocation(data, locationID); err != nil {
		return err
	}
	r := cause.Restrictions
	if err := c.checkAgeGroupIDs(data, r.YLDAgeStart, r.YLDAgeEnd); err != nil {
		return err
	}
	maleExpected := r.MaleOnly || (!r.MaleOnly && !r.FemaleOnly)
	femaleExpected := r.FemaleOnly || (!r.MaleOnly && !r.FemaleOnly)
	if err := c.checkSexIDs(data, maleExpected, femaleExpected, false); err != nil {
		return err
	}
	if err := c.checkAgeRestrictions(data, r.YLDAgeStart, r.YLDAgeEnd, drawCols, true); err != nil {
		return err
	}
	if err := c.checkSexRestrictions(data, r.MaleOnly, r.FemaleOnly, drawCols); err != nil {
		return err
	}
	if err := c.checkValueColumnsBoundary(data, 0, boundaryLower, drawCols, true, true); err != nil {
		return err
	}
	return c.checkValueColumnsBoundary(data, c.ctx.Bounds().MaxRemission, boundaryUpper, drawCols, true, false)
}

func (c *checker) validateDeaths(data *table.Table, ent entity.Entity, locationID int, population *table.Table) error {
	cause, ok := ent.(*entity.Cause)
	if !ok {
		return verrors.InvalidQueryf("deaths is not a valid measure for %s entities", ent.EntityKind())
	}
	if population == nil {
		return verrors.InvalidQueryf("deaths validation requires population data")
	}
	drawCols := gbd.DrawColumns()
	if _, err := c.checkDataExist(data, true, drawCols, true); err != nil {
		return err
	}
	expected := append([]string{"measure_id", "cause_id", "metric_id"}, gbd.DemographicColumns...)
	expected = append(expected, drawCols...)
	if err := checkColumns(expected, data.Columns()); err != nil {
		return err
	}
	if err := checkMeasureID(data, []string{"Deaths"}, true); err != nil {
		return err
	}
	if err := checkMetricID(data, "number"); err != nil {
		return err
	}
	if err := c.checkYears(data, yearsAnnual); err != nil {
		return err
	}
	if err := c.checkLocation(data, locationID); err != nil {
		return err
	}
	r := cause.Restrictions
	if err := c.checkAgeGroupIDs(data, r.YLLAgeStart, r.YLLAgeEnd); err != nil {
		return err
	}
	maleExpected := r.MaleOnly || (!r.MaleOnly && !r.FemaleOnly)
	femaleExpected := r.FemaleOnly || (!r.MaleOnly && !r.FemaleOnly)
	if err := c.checkSexIDs(data, maleExpected, femaleExpected, false); err != nil {
		return err
	}
	if err := c.checkAgeRestrictions(data, r.YLLAgeStart, r.YLLAgeEnd, drawCols, true); err != nil {
		return err
	}
	if err := c.checkSexRestrictions(data, r.MaleOnly, r.FemaleOnly, drawCols); err != nil {
		return err
	}
	if err := c.checkValueColumnsBoundary(data, 0, boundaryLower, drawCols, true, true); err != nil {
		return err
	}

	// The ceiling on a deaths cell is that cell's population, soft since
	// the two come from different modeling rounds.
	bounds, err := populationBounds(population, data)
	if err != nil {
		return err
	}
	return c.checkValueColumnsBoundaryByCell(data, bounds, boundaryUpper, drawCols, true, false)
}

// populationBounds indexes population counts by demographic cell for the
// ages and years present in data, excluding combined-sex rows.
func populationBounds(population, data *table.Table) (map[demographicKey]float64, error) {
	ages, _ := population.Ints("age_group_id")
	years, _ := population.Ints("year_id")
	sexes, _ := population.Ints("sex_id")
	counts, _ := population.Floats("population")
	if ages == nil || years == nil || sexes == nil || counts == nil {
		return nil, verrors.Configurationf("population data must carry age_group_id, year_id, sex_id, and population columns")
	}
	dataAges := intSet(data.UniqueInts("age_group_id"))
	dataYears := intSet(data.UniqueInts("year_id"))
	bounds := make(map[demographicKey]float64)
	for i := range counts {
		if sexes[i] == gbd.SexCombined {
			continue
		}
		if _, ok := dataAges[ages[i]]; !ok {
			continue
		}
		if _, ok := dataYears[years[i]]; !ok {
			continue
		}
		bounds[demographicKey{ages[i], years[i], sexes[i]}] = counts[i]
	}
	return bounds, nil
}

// exposureLike destructures the three entity variants exposure data can
// be pulled for.
func exposureLike(ent entity.Entity) (restrictions *entity.Restrictions, distribution entity.Distribution, tmred *entity.TMRED, ok bool) {
	switch e := ent.(type) {
	case *entity.RiskFactor:
		return &e.Restrictions, e.Distribution, &e.TMRED, true
	case *entity.CoverageGap:
		return &e.Restrictions, e.Distribution, nil, true
	case *entity.AlternativeRiskFactor:
		return &e.Restrictions, e.Distribution, nil, true
	}
	return nil, "", nil, false
}

// exposureYearPolicy maps a risk factor's declared exposure year type onto
// the year check. Mixed and undeclared types accept either shape, as do
// coverage gaps and alternative risks, which carry no declaration.
func exposureYearPolicy(ent entity.Entity) yearPolicy {
	risk, ok := ent.(*entity.RiskFactor)
	if !ok {
		return yearsEither
	}
	switch risk.ExposureYearType {
	case "annual":
		return yearsAnnual
	case "binned":
		return yearsBinned
	}
	return yearsEither
}

func (c *checker) validateExposure(data *table.Table, ent entity.Entity, locationID int) error {
	_, distribution, tmred, ok := exposureLike(ent)
	if !ok {
		return verrors.InvalidQueryf("exposure is not a valid measure for %s entities", ent.EntityKind())
	}
	drawCols := gbd.DrawColumns()
	if _, err := c.checkDataExist(data, true, drawCols, true); err != nil {
		return err
	}
	expected := append([]string{"rei_id", "modelable_entity_id", "parameter", "measure_id", "metric_id"}, gbd.DemographicColumns...)
	expected = append(expected, drawCols...)
	if err := checkColumns(expected, data.Columns()); err != nil {
		return err
	}
	if err := checkMeasureID(data, []string{"Prevalence", "Proportion", "Continuous"}, true); err != nil {
		return err
	}
	if err := checkMetricID(data, "rate"); err != nil {
		return err
	}
	if err := c.checkYears(data, exposureYearPolicy(ent)); err != nil {
		return err
	}
	if err := c.checkLocation(data, locationID); err != nil {
		return err
	}

	// Each exposure category carries its own demographic frame.
	categories := data.GroupBy("parameter")
	if risk, isRisk := ent.(*entity.RiskFactor); isRisk {
		r := risk.Restrictions
		for _, cat := range categories {
			if err := c.checkAgeGroupIDs(cat, nil, nil); err != nil {
				return err
			}
			if err := c.checkSexIDs(cat, !r.FemaleOnly, !r.MaleOnly, false); err != nil {
				return err
			}
			if err := c.checkSexRestrictions(cat, r.MaleOnly, r.FemaleOnly, drawCols); err != nil {
				return err
			}
		}
		// TMRED metadata only exists for proper risk factors.
		if distribution.Continuous() && tmred != nil {
			tmrel := tmred.TMREL()
			side := boundaryLower
			if tmred.Inverted {
				side = boundaryUpper
			}
			if err := c.checkValueColumnsBoundary(data, tmrel, side, drawCols, true, false); err != nil {
				return err
			}
		}
	} else {
		for _, cat := range categories {
			if err := c.checkAgeGroupIDs(cat, nil, nil); err != nil {
				return err
			}
			if err := c.checkSexIDs(cat, true, true, false); err != nil {
				return err
			}
		}
	}

	if distribution.Categorical() {
		if err := c.checkValueColumnsBoundary(data, 0, boundaryLower, drawCols, true, true); err != nil {
			return err
		}
		if err := c.checkValueColumnsBoundary(data, 1, boundaryUpper, drawCols, true, true); err != nil {
			return err
		}
		for _, group := range data.GroupBy(gbd.DemographicColumns...) {
			for _, col := range drawCols {
				vals, _ := group.Floats(col)
				sum := 0.0
				for _, v := range vals {
					sum += v
				}
				if !allClose(sum, 1.0) {
					return verrors.DataAbnormalf("exposure data does not sum to 1 across all categories")
				}
			}
		}
	}
	return nil
}

func (c *checker) validateExposureStandardDeviation(data *table.Table, ent entity.Entity, locationID int, exposure *table.Table) error {
	restrictions, _, _, ok := exposureLike(ent)
	if !ok {
		return verrors.InvalidQueryf("exposure standard deviation is not a valid measure for %s entities", ent.EntityKind())
	}
	if _, isGap := ent.(*entity.CoverageGap); isGap {
		return verrors.InvalidQueryf("exposure standard deviation is not a valid measure for %s entities", ent.EntityKind())
	}
	if exposure == nil {
		return verrors.InvalidQueryf("exposure standard deviation validation requires exposure data")
	}
	drawCols := gbd.DrawColumns()

	// Standard deviations only need to exist where exposure does.
	exposureAges := intSet(exposure.UniqueInts("age_group_id"))
	validAgeData := data.FilterIntIn("age_group_id", exposureAges)
	if _, err := c.checkDataExist(validAgeData, true, drawCols, true); err != nil {
		return err
	}

	expected := append([]string{"rei_id", "modelable_entity_id", "measure_id", "metric_id"}, gbd.DemographicColumns...)
	expected = append(expected, drawCols...)
	if err := checkColumns(expected, data.Columns()); err != nil {
		return err
	}
	if err := checkMeasureID(data, []string{"Continuous"}, true); err != nil {
		return err
	}
	if err := checkMetricID(data, "rate"); err != nil {
		return err
	}
	if err := c.checkYears(data, yearsEither); err != nil {
		return err
	}
	if err := c.checkLocation(data, locationID); err != nil {
		return err
	}
	ageStart, ageEnd := c.ageSpan(exposureAges)
	if err := c.checkAgeGroupIDs(data, &ageStart, &ageEnd); err != nil {
		return err
	}
	if err := c.checkSexIDs(data, true, true, false); err != nil {
		return err
	}
	if err := c.checkSexRestrictions(data, restrictions.MaleOnly, restrictions.FemaleOnly, drawCols); err != nil {
		return err
	}
	return c.checkValueColumnsBoundary(validAgeData, 0, boundaryLower, drawCols, false, true)
}

// distributionWeightColumns are the ensemble distribution families a
// weight table carries, one column each.
var distributionWeightColumns = []string{
	"exp", "gamma", "invgamma", "llogis", "gumbel", "invweibull", "weibull",
	"lnorm", "norm", "glnorm", "betasr", "mgamma", "mgumbel",
}

func (c *checker) validateExposureDistributionWeights(data *table.Table, ent entity.Entity, locationID int) error {
	switch ent.(type) {
	case *entity.RiskFactor, *entity.AlternativeRiskFactor:
	default:
		return verrors.InvalidQueryf("exposure distribution weights is not a valid measure for %s entities", ent.EntityKind())
	}
	if _, err := c.checkDataExist(data, true, distributionWeightColumns, true); err != nil {
		return err
	}
	expected := append([]string{"rei_id", "location_id", "sex_id", "age_group_id", "measure"}, distributionWeightColumns...)
	if err := checkColumns(expected, data.Columns()); err != nil {
		return err
	}
	measures := data.UniqueStrings("measure")
	if len(measures) != 1 || measures[0] != "ensemble_distribution_weight" {
		return verrors.DataAbnormalf("exposure distribution weight data contains abnormal measure values: %v", measures)
	}
	if err := c.checkLocation(data, locationID); err != nil {
		return err
	}
	ages := data.UniqueInts("age_group_id")
	if len(ages) != 1 || ages[0] != gbd.AgeAllAges {
		return verrors.DataAbnormalf("exposure distribution weight data includes age groups beyond the expected all ages age group (id %d)", gbd.AgeAllAges)
	}
	if err := c.checkSexIDs(data, false, false, true); err != nil {
		return err
	}
	if err := c.checkValueColumnsBoundary(data, 0, boundaryLower, distributionWeightColumns, true, true); err != nil {
		return err
	}
	if err := c.checkValueColumnsBoundary(data, 1, boundaryUpper, distributionWeightColumns, true, true); err != nil {
		return err
	}
	for _, sum := range data.RowSum(distributionWeightColumns) {
		if !allClose(sum, 1.0) {
			return verrors.DataAbnormalf("distribution weights do not sum to 1")
		}
	}
	return nil
}

func (c *checker) validateRelativeRisk(data *table.Table, ent entity.Entity, locationID int, exposure *table.Table) error {
	drawCols := gbd.DrawColumns()
	if _, err := c.checkDataExist(data, true, drawCols, true); err != nil {
		return err
	}
	expected := append([]string{"rei_id", "modelable_entity_id", "cause_id", "mortality", "morbidity", "metric_id", "parameter"}, gbd.DemographicColumns...)
	expected = append(expected, drawCols...)
	if err := checkColumns(expected, data.Columns()); err != nil {
		return err
	}
	if err := checkMetricID(data, "rate"); err != nil {
		return err
	}
	if err := c.checkYears(data, yearsBinned); err != nil {
		return err
	}
	if err := c.checkLocation(data, locationID); err != nil {
		return err
	}

	// Flag combinatorics are judged per affected cause against that
	// cause's yld/yll restrictions.
	for _, causeID := range data.UniqueInts("cause_id") {
		cause, ok := c.ctx.Catalog().CauseByID(causeID)
		if !ok {
			return verrors.Configurationf("relative risk data references cause_id %d, which is not in the catalog", causeID)
		}
		causeRows := data.FilterIntEq("cause_id", causeID)
		if err := checkMortMorbFlags(causeRows, cause.Restrictions.YLDOnly, cause.Restrictions.YLLOnly); err != nil {
			return err
		}
	}

	grouped := data.GroupBy("cause_id", "morbidity", "mortality", "parameter")
	var distribution entity.Distribution
	switch e := ent.(type) {
	case *entity.RiskFactor:
		if exposure == nil {
			return verrors.InvalidQueryf("relative risk validation requires exposure data for risk factors")
		}
		distribution = e.Distribution
		r := e.Restrictions
		exposureAges := intSet(exposure.UniqueInts("age_group_id"))
		ageStart, ageEnd := c.ageSpan(exposureAges)
		for _, g := range grouped {
			if err := c.checkAgeGroupIDs(g, &ageStart, &ageEnd); err != nil {
				return err
			}
			if err := c.checkSexIDs(g, !r.FemaleOnly, !r.MaleOnly, false); err != nil {
				return err
			}
			// Exposure age coverage cannot serve as a restriction here:
			// relative risk may legitimately cover only the affected
			// cause's age range. Restrictions come from the cause.
			if err := c.checkSexRestrictions(g, r.MaleOnly, r.FemaleOnly, drawCols); err != nil {
				return err
			}
		}
		for _, g := range grouped {
			causeCol, _ := g.Ints("cause_id")
			morbCol, _ := g.Ints("morbidity")
			cause, ok := c.ctx.Catalog().CauseByID(causeCol[0])
			if !ok {
				return verrors.Configurationf("relative risk data references cause_id %d, which is not in the catalog", causeCol[0])
			}
			start, end := cause.Restrictions.YLLAgeStart, cause.Restrictions.YLLAgeEnd
			if morbCol[0] == 1 {
				start, end = cause.Restrictions.YLDAgeStart, cause.Restrictions.YLDAgeEnd
			}
			if err := c.checkAgeRestrictions(g, start, end, drawCols, false); err != nil {
				return err
			}
		}
	case *entity.CoverageGap:
		distribution = e.Distribution
		for _, g := range grouped {
			if err := c.checkAgeGroupIDs(g, nil, nil); err != nil {
				return err
			}
			if err := c.checkSexIDs(g, true, true, false); err != nil {
				return err
			}
		}
	default:
		return verrors.InvalidQueryf("relative risk is not a valid measure for %s entities", ent.EntityKind())
	}

	if err := c.checkValueColumnsBoundary(data, 1, boundaryLower, drawCols, true, true); err != nil {
		return err
	}
	maxVal := c.ctx.Bounds().MaxContinuousRelativeRisk
	if distribution.Categorical() {
		maxVal = c.ctx.Bounds().MaxCategoricalRelativeRisk
	}
	return c.checkValueColumnsBoundary(data, maxVal, boundaryUpper, drawCols, true, true)
}

func (c *checker) validatePAF(data *table.Table, ent entity.Entity, locationID int, relativeRisk, exposure *table.Table) error {
	risk, ok := ent.(*entity.RiskFactor)
	if !ok {
		return verrors.InvalidQueryf("population attributable fraction is not a valid measure for %s entities", ent.EntityKind())
	}
	if relativeRisk == nil || exposure == nil {
		return verrors.InvalidQueryf("population attributable fraction validation requires relative risk and exposure data")
	}
	drawCols := gbd.DrawColumns()
	if _, err := c.checkDataExist(data, true, drawCols, true); err != nil {
		return err
	}
	expected := append([]string{"metric_id", "measure_id", "rei_id", "cause_id"}, drawCols...)
	expected = append(expected, gbd.DemographicColumns...)
	if err := checkColumns(expected, data.Columns()); err != nil {
		return err
	}
	if err := checkMeasureID(data, []string{"YLLs", "YLDs"}, false); err != nil {
		return err
	}
	if err := checkMetricID(data, "percent"); err != nil {
		return err
	}
	if err := c.checkYears(data, yearsAnnual); err != nil {
		return err
	}
	if err := c.checkLocation(data, locationID); err != nil {
		return err
	}

	r := risk.Restrictions
	grouped := data.GroupBy("cause_id", "measure_id")
	for _, g := range grouped {
		if err := c.checkAgeGroupIDs(g, nil, nil); err != nil {
			return err
		}
		if err := c.checkSexIDs(g, !r.FemaleOnly, !r.MaleOnly, false); err != nil {
			return err
		}
		if err := c.checkSexRestrictions(g, r.MaleOnly, r.FemaleOnly, drawCols); err != nil {
			return err
		}
	}

	if err := c.checkValueColumnsBoundary(data, 0, boundaryLower, drawCols, true, true); err != nil {
		return err
	}
	if err := c.checkValueColumnsBoundary(data, 1, boundaryUpper, drawCols, true, true); err != nil {
		return err
	}

	if err := c.checkPAFCauseMeasureExclusions(data); err != nil {
		return err
	}

	for _, g := range grouped {
		if err := c.checkPAFRRExposureAgeGroups(g, relativeRisk, exposure, risk); err != nil {
			return err
		}
	}
	return nil
}

// checkPAFCauseMeasureExclusions verifies that no PAF rows exist for the
// measure type a cause's yll/yld restriction excludes.
func (c *checker) checkPAFCauseMeasureExclusions(data *table.Table) error {
	causeCol, _ := data.Ints("cause_id")
	measureCol, _ := data.Ints("measure_id")
	if causeCol == nil || measureCol == nil {
		return verrors.DataAbnormalf("paf data is missing cause_id or measure_id columns")
	}
	for _, causeID := range data.UniqueInts("cause_id") {
		cause, ok := c.ctx.Catalog().CauseByID(causeID)
		if !ok {
			return verrors.Configurationf("paf data references cause_id %d, which is not in the catalog", causeID)
		}
		for i := range causeCol {
			if causeCol[i] != causeID {
				continue
			}
			if cause.Restrictions.YLDOnly && measureCol[i] == gbd.MeasureIDYLLs {
				return verrors.DataAbnormalf("paf data affecting %s contains yll values despite the affected entity being restricted to yld only", cause.Name)
			}
			if cause.Restrictions.YLLOnly && measureCol[i] == gbd.MeasureIDYLDs {
				return verrors.DataAbnormalf("paf data affecting %s contains yld values despite the affected entity being restricted to yll only", cause.Name)
			}
		}
	}
	return nil
}

func (c *checker) validateEtiologyPAF(data *table.Table, ent entity.Entity, locationID int) error {
	etiology, ok := ent.(*entity.Etiology)
	if !ok {
		return verrors.InvalidQueryf("etiology population attributable fraction is not a valid measure for %s entities", ent.EntityKind())
	}
	drawCols := gbd.DrawColumns()
	if _, err := c.checkDataExist(data, true, drawCols, true); err != nil {
		return err
	}
	expected := append([]string{"metric_id", "measure_id", "rei_id", "cause_id"}, drawCols...)
	expected = append(expected, gbd.DemographicColumns...)
	if err := checkColumns(expected, data.Columns()); err != nil {
		return err
	}
	if err := checkMeasureID(data, []string{"YLLs", "YLDs"}, false); err != nil {
		return err
	}
	if err := checkMetricID(data, "percent"); err != nil {
		return err
	}
	if err := c.checkYears(data, yearsAnnual); err != nil {
		return err
	}
	if err := c.checkLocation(data, locationID); err != nil {
		return err
	}

	cause, ok := c.ctx.Catalog().CauseForEtiology(etiology)
	if !ok {
		return verrors.Configurationf("etiology %s has no parent cause in the catalog", etiology.Name)
	}
	r := cause.Restrictions
	ageStart := c.ctx.RestrictionAgeBoundary(cause, "start")
	ageEnd := c.ctx.RestrictionAgeBoundary(cause, "end")
	if err := c.checkAgeGroupIDs(data, ageStart, ageEnd); err != nil {
		return err
	}
	if err := c.checkSexIDs(data, !r.FemaleOnly, !r.MaleOnly, false); err != nil {
		return err
	}
	if err := c.checkAgeRestrictions(data, ageStart, ageEnd, drawCols, true); err != nil {
		return err
	}
	if err := c.checkSexRestrictions(data, r.MaleOnly, r.FemaleOnly, drawCols); err != nil {
		return err
	}
	if err := c.checkValueColumnsBoundary(data, 0, boundaryLower, drawCols, true, true); err != nil {
		return err
	}
	if err := c.checkValueColumnsBoundary(data, 1, boundaryUpper, drawCols, true, true); err != nil {
		return err
	}
	return c.checkPAFCauseMeasureExclusions(data)
}

// estimateValueColumns are the summary columns of a covariate estimate.
var estimateValueColumns = []string{"mean_value", "upper_value", "lower_value"}

func (c *checker) validateEstimate(data *table.Table, ent entity.Entity, locationID int) error {
	covariate, ok := ent.(*entity.Covariate)
	if !ok {
		return verrors.InvalidQueryf("estimate is not a valid measure for %s entities", ent.EntityKind())
	}
	// All-zero estimates are legitimate for covariates.
	if _, err := c.checkDataExist(data, false, estimateValueColumns, true); err != nil {
		return err
	}
	expected := append([]string{
		"model_version_id", "covariate_id", "covariate_name_short", "location_id",
		"location_name", "year_id", "age_group_id", "sex_id", "sex",
	}, estimateValueColumns...)
	if err := checkColumns(expected, data.Columns()); err != nil {
		return err
	}
	if err := c.checkYears(data, yearsAnnual); err != nil {
		return err
	}
	if err := c.checkLocation(data, locationID); err != nil {
		return err
	}

	dataAges := intSet(data.UniqueInts("age_group_id"))
	if covariate.ByAge {
		if err := c.checkAgeGroupIDs(data, nil, nil); err != nil {
			return err
		}
		inUniverse := false
		for _, id := range c.ctx.AgeGroupIDs() {
			if _, ok := dataAges[id]; ok {
				inUniverse = true
				break
			}
		}
		if !inUniverse {
			return verrors.DataAbnormalf("data is supposed to be age-separated, but does not contain any standard age group ids")
		}
	} else {
		for id := range dataAges {
			if id != gbd.AgeAllAges && id != gbd.AgeStandardized {
				return verrors.DataAbnormalf("data is not supposed to be separated by ages, but contains age groups beyond all ages and age standardized")
			}
		}
	}

	dataSexes := intSet(data.UniqueInts("sex_id"))
	_, hasMale := dataSexes[gbd.SexMale]
	_, hasFemale := dataSexes[gbd.SexFemale]
	if covariate.BySex {
		if !hasMale || !hasFemale {
			return verrors.DataAbnormalf("data is supposed to be by sex, but does not contain both male and female data")
		}
	} else {
		_, hasCombined := dataSexes[gbd.SexCombined]
		if !hasCombined || len(dataSexes) != 1 {
			return verrors.DataAbnormalf("data is not supposed to be separated by sex, but contains sex ids beyond that for combined male and female data")
		}
	}
	return nil
}

func (c *checker) validateCost(data *table.Table, ent entity.Entity, locationID int) error {
	var kindColumn string
	switch ent.(type) {
	case *entity.HealthcareEntity:
		kindColumn = string(entity.KindHealthcareEntity)
	case *entity.HealthTechnology:
		kindColumn = string(entity.KindHealthTechnology)
	default:
		return verrors.InvalidQueryf("cost is not a valid measure for %s entities", ent.EntityKind())
	}
	drawCols := gbd.DrawColumns()
	if _, err := c.checkDataExist(data, true, drawCols, true); err != nil {
		return err
	}
	expected := append([]string{"measure", kindColumn}, gbd.DemographicColumns...)
	expected = append(expected, drawCols...)
	if err := checkColumns(expected, data.Columns()); err != nil {
		return err
	}
	measures := data.UniqueStrings("measure")
	if len(measures) != 1 || measures[0] != "cost" {
		return verrors.DataAbnormalf("cost data contains measures beyond the expected cost: %v", measures)
	}
	if err := c.checkYears(data, yearsAnnual); err != nil {
		return err
	}
	if err := c.checkLocation(data, locationID); err != nil {
		return err
	}
	ages := data.UniqueInts("age_group_id")
	if len(ages) != 1 || ages[0] != gbd.AgeAllAges {
		return verrors.DataAbnormalf("cost data includes age groups beyond the expected all ages age group (id %d)", gbd.AgeAllAges)
	}
	if err := c.checkSexIDs(data, false, false, true); err != nil {
		return err
	}
	return c.checkValueColumnsBoundary(data, 0, boundaryLower, drawCols, true, true)
}

func (c *checker) validateUtilization(data *table.Table, ent entity.Entity, locationID int) error {
	if _, ok := ent.(*entity.HealthcareEntity); !ok {
		return verrors.InvalidQueryf("utilization is not a valid measure for %s entities", ent.EntityKind())
	}
	drawCols := gbd.DrawColumns()
	if _, err := c.checkDataExist(data, true, drawCols, true); err != nil {
		return err
	}
	expected := append([]string{"measure_id", "metric_id", "model_version_id", "modelable_entity_id"}, gbd.DemographicColumns...)
	expected = append(expected, drawCols...)
	if err := checkColumns(expected, data.Columns()); err != nil {
		return err
	}
	if err := checkMeasureID(data, []string{"Continuous"}, true); err != nil {
		return err
	}
	if err := checkMetricID(data, "rate"); err != nil {
		return err
	}
	if err := c.checkYears(data, yearsBinned); err != nil {
		return err
	}
	if err := c.checkLocation(data, locationID); err != nil {
		return err
	}
	if err := c.checkAgeGroupIDs(data, nil, nil); err != nil {
		return err
	}
	if err := c.checkSexIDs(data, true, true, false); err != nil {
		return err
	}
	if err := c.checkValueColumnsBoundary(data, 0, boundaryLower, drawCols, true, true); err != nil {
		return err
	}
	return c.checkValueColumnsBoundary(data, c.ctx.Bounds().MaxUtilization, boundaryUpper, drawCols, true, false)
}

func (c *checker) validateStructure(data *table.Table, ent entity.Entity, locationID int) error {
	if _, ok := ent.(entity.Population); !ok {
		return verrors.InvalidQueryf("population structure is not a valid measure for %s entities", ent.EntityKind())
	}
	valueCols := []string{"population"}
	if _, err := c.checkDataExist(data, true, valueCols, true); err != nil {
		return err
	}
	expected := []string{"age_group_id", "location_id", "year_id", "sex_id", "population", "run_id"}
	if err := checkColumns(expected, data.Columns()); err != nil {
		return err
	}
	if err := c.checkYears(data, yearsAnnual); err != nil {
		return err
	}
	if err := c.checkLocation(data, locationID); err != nil {
		return err
	}
	if err := c.checkAgeGroupIDs(data, nil, nil); err != nil {
		return err
	}
	if err := c.checkSexIDs(data, true, true, true); err != nil {
		return err
	}
	if err := c.checkValueColumnsBoundary(data, 0, boundaryLower, valueCols, true, true); err != nil {
		return err
	}
	return c.checkValueColumnsBoundary(data, c.ctx.Bounds().MaxPopulation, boundaryUpper, valueCols, true, true)
}

func (c *checker) validateLifeExpectancy(data *table.Table, ent entity.Entity) error {
	if _, ok := ent.(entity.Population); !ok {
		return verrors.InvalidQueryf("life expectancy is not a valid measure for %s entities", ent.EntityKind())
	}
	valueCols := []string{"life_expectancy"}
	if _, err := c.checkDataExist(data, true, valueCols, true); err != nil {
		return err
	}
	if err := checkColumns([]string{"age", "life_expectancy"}, data.Columns()); err != nil {
		return err
	}

	// Life expectancy is reported over custom age bins, not the standard
	// age groups; the bins must span ages 0 through 110.
	const minAge, maxAge = 0.0, 110.0
	ages, aok := data.Floats("age")
	if !aok {
		return verrors.DataAbnormalf("life expectancy data is missing the age column")
	}
	lo, hi := ages[0], ages[0]
	for _, a := range ages {
		if a < lo {
			lo = a
		}
		if a > hi {
			hi = a
		}
	}
	if lo > minAge || hi < maxAge {
		return verrors.DataAbnormalf("data does not contain life expectancy values for ages [0, 110]")
	}
	if err := c.checkValueColumnsBoundary(data, 0, boundaryLower, valueCols, true, true); err != nil {
		return err
	}
	return c.checkValueColumnsBoundary(data, c.ctx.Bounds().MaxLifeExpectancy, boundaryUpper, valueCols, true, true)
}
