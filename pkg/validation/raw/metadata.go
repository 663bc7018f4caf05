package raw

import (
	"strings"

	"vitalstats/verity/pkg/gbd"
	"vitalstats/verity/pkg/gbd/entity"
	verrors "vitalstats/verity/pkg/validation/errors"
)

// CheckMetadata inspects the catalog survey metadata for an entity and
// measure before any data is pulled. It catches combinations that can
// never produce usable data (unsurveyed measures, unsupported
// distributions, restriction layouts the simulation cannot represent)
// and turns soft survey findings into warnings on the returned Outcome.
func CheckMetadata(ctx *Context, ent entity.Entity, measure gbd.Measure) (*verrors.Outcome, error) {
	c := &checker{ctx: ctx, out: verrors.NewOutcome()}

	var err error
	switch e := ent.(type) {
	case *entity.Cause:
		err = c.checkCauseMetadata(e, measure)
	case *entity.Sequela:
		err = c.checkSequelaMetadata(e, measure)
	case *entity.RiskFactor:
		err = c.checkRiskFactorMetadata(e, measure)
	case *entity.Etiology:
		err = c.checkEtiologyMetadata(e)
	case *entity.Covariate:
		err = c.checkCovariateMetadata(e)
	case *entity.CoverageGap, *entity.AlternativeRiskFactor,
		*entity.HealthcareEntity, *entity.HealthTechnology, entity.Population:
		// No survey metadata exists for these kinds.
	default:
		err = verrors.InvalidQueryf("no metadata checker found for %s entities", ent.EntityKind())
	}

	c.out.Stamp(string(ent.EntityKind()), ent.EntityName(), string(measure))
	return c.out, stampError(err, ent, measure)
}

// checkSurvey applies the shared exists/in-range survey semantics: a nil
// Exists means the measure was never surveyed for the entity and the
// request itself is malformed; a false Exists or out-of-range finding is
// only advisory, since the authoritative answer comes from the data.
func (c *checker) checkSurvey(s Surveyed, measure gbd.Measure) error {
	survey, ok := s.Survey(measure)
	if !ok || survey.Exists == nil {
		return verrors.InvalidQueryf("%s data is not surveyed for this entity", measure)
	}
	if !*survey.Exists {
		c.out.Warnf("%s data may not exist", measure)
	} else if !survey.InRange {
		c.out.Warnf("%s data may be outside the normal range", measure)
	}
	return nil
}

// Surveyed is implemented by entity kinds carrying per-measure survey
// records.
type Surveyed interface {
	Survey(m gbd.Measure) (entity.Survey, bool)
}

func (c *checker) checkCauseMetadata(cause *entity.Cause, measure gbd.Measure) error {
	if err := c.checkCauseAgeRestrictionSets(cause); err != nil {
		return err
	}
	c.warnViolatedRestrictions(cause.Restrictions, measure)
	if err := c.checkSurvey(cause, measure); err != nil {
		return err
	}

	survey, _ := cause.Survey(measure)
	if survey.Consistent != nil && !*survey.Consistent {
		c.out.Warnf("%s data for this cause may not exist for all its sequelae", measure)
	}
	if survey.Consistent != nil && !survey.Aggregates {
		c.out.Warnf("%s data for all sequelae may not correctly aggregate up to the cause level", measure)
	}
	return nil
}

func (c *checker) checkSequelaMetadata(sequela *entity.Sequela, measure gbd.Measure) error {
	if measure == gbd.MeasureDisabilityWeight {
		if !sequela.HealthState.DisabilityWeightExists {
			c.out.Warnf("disability weight data may not exist for health state %s", sequela.HealthState.Name)
		}
		return nil
	}
	return c.checkSurvey(sequela, measure)
}

func (c *checker) checkRiskFactorMetadata(risk *entity.RiskFactor, measure gbd.Measure) error {
	switch measure {
	case gbd.MeasureExposureDistributionWeight, gbd.MeasureMediationFactors:
		// Not covered by the existence survey.
		return nil
	}
	if risk.Distribution == entity.DistributionCustom {
		return verrors.NotImplementedf("custom distributions are not supported")
	}
	if measure == gbd.MeasurePAF {
		c.checkPAFTypes(risk.PAFYLL, risk.PAFYLD)
		return nil
	}
	c.warnViolatedRestrictions(risk.Restrictions, measure)
	return c.checkSurvey(risk, measure)
}

func (c *checker) checkEtiologyMetadata(etiology *entity.Etiology) error {
	c.checkPAFTypes(etiology.PAFYLL, etiology.PAFYLD)
	return nil
}

func (c *checker) checkCovariateMetadata(covariate *entity.Covariate) error {
	if !covariate.MeanValueExists {
		c.out.Warnf("mean value data may not exist")
	}
	if !covariate.UncertaintyExists {
		c.out.Warnf("uncertainty data may not exist")
	}
	if covariate.ByAgeViolated {
		c.out.Warnf("by-age expectation is violated in the estimate data")
	}
	if covariate.BySexViolated {
		c.out.Warnf("by-sex expectation is violated in the estimate data")
	}
	return nil
}

// checkPAFTypes surveys the yll and yld attributable-fraction flavors
// separately. Both findings are soft.
func (c *checker) checkPAFTypes(yll, yld entity.Survey) {
	for _, t := range []struct {
		name   string
		survey entity.Survey
	}{
		{"yll", yll},
		{"yld", yld},
	} {
		if t.survey.Exists == nil || !*t.survey.Exists {
			c.out.Warnf("population attributable fraction %s data may not exist", t.name)
			continue
		}
		if !t.survey.InRange {
			c.out.Warnf("population attributable fraction %s data may be outside the normal range", t.name)
		}
	}
}

// warnViolatedRestrictions surfaces catalog restriction violations whose
// names mention the requested measure.
func (c *checker) warnViolatedRestrictions(r entity.Restrictions, measure gbd.Measure) {
	key := measureRestrictionKey(measure)
	for _, violated := range r.Violated {
		if strings.Contains(violated, key) {
			c.out.Warnf("%s restriction is violated in the data", violated)
		}
	}
}

// measureRestrictionKey maps a measure to the catalog's restriction
// naming, which folds the yld-side measures under the yld label.
func measureRestrictionKey(measure gbd.Measure) string {
	switch measure {
	case gbd.MeasureIncidence, gbd.MeasurePrevalence, gbd.MeasureBirthPrevalence:
		return "yld"
	case gbd.MeasureDeaths:
		return "yll"
	}
	return string(measure)
}

// checkCauseAgeRestrictionSets rejects restriction layouts the downstream
// simulation cannot represent: a cause modeled only in terms of mortality,
// or a mortality age range strictly wider than the morbidity range, which
// would leave age groups with deaths but no prevalence to attribute them
// to.
func (c *checker) checkCauseAgeRestrictionSets(cause *entity.Cause) error {
	r := cause.Restrictions
	if r.YLLOnly {
		return verrors.NotImplementedf("causes restricted to yll only are not supported")
	}
	if r.YLLAgeStart == nil || r.YLDAgeStart == nil || r.YLLAgeEnd == nil || r.YLDAgeEnd == nil {
		return nil
	}
	if c.agePosOf(*r.YLLAgeStart) < c.agePosOf(*r.YLDAgeStart) ||
		c.agePosOf(*r.YLLAgeEnd) > c.agePosOf(*r.YLDAgeEnd) {
		return verrors.NotImplementedf("age groups with deaths but no disability are not supported")
	}
	return nil
}
