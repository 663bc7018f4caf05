package extract

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"vitalstats/verity/pkg/gbd"
	"vitalstats/verity/pkg/gbd/entity"
)

// Plan is the YAML description of an extraction run: which entities to
// pull, which of their measures, and for which locations. The plan carries
// the entity metadata the validation layer needs, mirroring the warehouse
// catalog export.
type Plan struct {
	Locations []int `yaml:"locations"`

	Causes                 []*PlanCause      `yaml:"causes"`
	RiskFactors            []*PlanRiskFactor `yaml:"risk_factors"`
	Etiologies             []*PlanEtiology   `yaml:"etiologies"`
	Covariates             []*PlanCovariate  `yaml:"covariates"`
	CoverageGaps           []*PlanPseudoRisk `yaml:"coverage_gaps"`
	AlternativeRiskFactors []*PlanPseudoRisk `yaml:"alternative_risk_factors"`
	HealthcareEntities     []*PlanHealthcare `yaml:"healthcare_entities"`
	HealthTechnologies     []*PlanTechnology `yaml:"health_technologies"`
	Population             *PlanPopulation   `yaml:"population"`
}

// PlanSurvey mirrors entity.Survey in the plan file.
type PlanSurvey struct {
	Exists     *bool `yaml:"exists"`
	InRange    bool  `yaml:"in_range"`
	Consistent *bool `yaml:"consistent"`
	Aggregates bool  `yaml:"aggregates"`
}

func (s *PlanSurvey) survey() entity.Survey {
	if s == nil {
		return entity.Survey{}
	}
	return entity.Survey{
		Exists:     s.Exists,
		InRange:    s.InRange,
		Consistent: s.Consistent,
		Aggregates: s.Aggregates,
	}
}

// PlanRestrictions mirrors entity.Restrictions in the plan file.
type PlanRestrictions struct {
	MaleOnly    bool     `yaml:"male_only"`
	FemaleOnly  bool     `yaml:"female_only"`
	YLLOnly     bool     `yaml:"yll_only"`
	YLDOnly     bool     `yaml:"yld_only"`
	YLLAgeStart *int     `yaml:"yll_age_start"`
	YLLAgeEnd   *int     `yaml:"yll_age_end"`
	YLDAgeStart *int     `yaml:"yld_age_start"`
	YLDAgeEnd   *int     `yaml:"yld_age_end"`
	Violated    []string `yaml:"violated"`
}

func (r *PlanRestrictions) restrictions() entity.Restrictions {
	if r == nil {
		return entity.Restrictions{}
	}
	return entity.Restrictions{
		MaleOnly:    r.MaleOnly,
		FemaleOnly:  r.FemaleOnly,
		YLLOnly:     r.YLLOnly,
		YLDOnly:     r.YLDOnly,
		YLLAgeStart: r.YLLAgeStart,
		YLLAgeEnd:   r.YLLAgeEnd,
		YLDAgeStart: r.YLDAgeStart,
		YLDAgeEnd:   r.YLDAgeEnd,
		Violated:    r.Violated,
	}
}

func surveys(m map[string]*PlanSurvey) (map[gbd.Measure]entity.Survey, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[gbd.Measure]entity.Survey, len(m))
	for name, s := range m {
		measure, err := gbd.ParseMeasure(name)
		if err != nil {
			return nil, err
		}
		out[measure] = s.survey()
	}
	return out, nil
}

// PlanCause describes one cause, its children, and the measures to pull.
type PlanCause struct {
	Name         string                 `yaml:"name"`
	ID           int                    `yaml:"id"`
	Measures     []string               `yaml:"measures"`
	Restrictions *PlanRestrictions      `yaml:"restrictions"`
	Surveys      map[string]*PlanSurvey `yaml:"surveys"`
	Sequelae     []*PlanSequela         `yaml:"sequelae"`
	Etiologies   []*PlanEtiology        `yaml:"etiologies"`
}

// PlanSequela describes one sequela of a cause.
type PlanSequela struct {
	Name     string                 `yaml:"name"`
	ID       int                    `yaml:"id"`
	Measures []string               `yaml:"measures"`
	Surveys  map[string]*PlanSurvey `yaml:"surveys"`

	HealthState struct {
		Name                   string `yaml:"name"`
		ID                     int    `yaml:"id"`
		DisabilityWeightExists bool   `yaml:"disability_weight_exists"`
	} `yaml:"healthstate"`
}

// PlanEtiology describes one etiology. At the top level it is extracted in
// its own right; nested under a cause it only contributes catalog metadata.
type PlanEtiology struct {
	Name     string      `yaml:"name"`
	ID       int         `yaml:"id"`
	Measures []string    `yaml:"measures"`
	PAFYLL   *PlanSurvey `yaml:"paf_yll"`
	PAFYLD   *PlanSurvey `yaml:"paf_yld"`
}

// PlanRiskFactor describes one risk factor and the measures to pull.
type PlanRiskFactor struct {
	Name             string                 `yaml:"name"`
	ID               int                    `yaml:"id"`
	Measures         []string               `yaml:"measures"`
	Distribution     string                 `yaml:"distribution"`
	ExposureYearType string                 `yaml:"exposure_year_type"`
	Restrictions     *PlanRestrictions      `yaml:"restrictions"`
	Surveys          map[string]*PlanSurvey `yaml:"surveys"`
	PAFYLL           *PlanSurvey            `yaml:"paf_yll"`
	PAFYLD           *PlanSurvey            `yaml:"paf_yld"`

	TMRED struct {
		Min      float64 `yaml:"min"`
		Max      float64 `yaml:"max"`
		Inverted bool    `yaml:"inverted"`
	} `yaml:"tmred"`
}

// PlanCovariate describes one covariate estimate to pull.
type PlanCovariate struct {
	Name              string `yaml:"name"`
	ID                int    `yaml:"id"`
	ByAge             bool   `yaml:"by_age"`
	BySex             bool   `yaml:"by_sex"`
	ByAgeViolated     bool   `yaml:"by_age_violated"`
	BySexViolated     bool   `yaml:"by_sex_violated"`
	MeanValueExists   bool   `yaml:"mean_value_exists"`
	UncertaintyExists bool   `yaml:"uncertainty_exists"`
}

// PlanPseudoRisk describes a coverage gap or alternative risk factor.
type PlanPseudoRisk struct {
	Name         string            `yaml:"name"`
	ID           int               `yaml:"id"`
	Measures     []string          `yaml:"measures"`
	Distribution string            `yaml:"distribution"`
	Restrictions *PlanRestrictions `yaml:"restrictions"`
}

// PlanHealthcare describes a healthcare entity with cost and utilization
// data.
type PlanHealthcare struct {
	Name              string   `yaml:"name"`
	ID                int      `yaml:"id"`
	ModelableEntityID int      `yaml:"modelable_entity_id"`
	Measures          []string `yaml:"measures"`
}

// PlanTechnology describes a health technology with cost data.
type PlanTechnology struct {
	Name     string   `yaml:"name"`
	ID       int      `yaml:"id"`
	Measures []string `yaml:"measures"`
}

// PlanPopulation selects the demography measures to pull.
type PlanPopulation struct {
	Measures []string `yaml:"measures"`
}

// LoadPlan reads and parses a plan file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}
	return ParsePlan(data)
}

// ParsePlan parses plan YAML and checks it for obvious mistakes: unknown
// measure names, missing ids, empty location lists on location-bound
// measures.
func ParsePlan(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	if _, err := p.Requests(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}
	return &p, nil
}

// locationFree lists the measures whose datasets are not location-specific.
var locationFree = map[gbd.Measure]bool{
	gbd.MeasureExposureDistributionWeight: true,
	gbd.MeasureLifeExpectancy:             true,
}

// Catalog assembles the entity catalog the validation layer resolves
// sequela and etiology parents against.
func (p *Plan) Catalog() *entity.Catalog {
	catalog := &entity.Catalog{}
	for _, pc := range p.Causes {
		if c, err := pc.cause(); err == nil {
			catalog.Causes = append(catalog.Causes, c)
		}
	}
	return catalog
}

// Requests expands the plan into the full request list.
func (p *Plan) Requests() ([]Request, error) {
	var reqs []Request

	add := func(ent entity.Entity, measures []string) error {
		if ent.EntityName() == "" {
			return fmt.Errorf("%s entry is missing a name", ent.EntityKind())
		}
		for _, name := range measures {
			measure, err := gbd.ParseMeasure(name)
			if err != nil {
				return fmt.Errorf("%s %s: %w", ent.EntityKind(), ent.EntityName(), err)
			}
			if locationFree[measure] {
				reqs = append(reqs, Request{Entity: ent, Measure: measure})
				continue
			}
			if len(p.Locations) == 0 {
				return fmt.Errorf("%s %s: measure %s needs at least one location",
					ent.EntityKind(), ent.EntityName(), measure)
			}
			for _, loc := range p.Locations {
				reqs = append(reqs, Request{Entity: ent, Measure: measure, LocationID: loc})
			}
		}
		return nil
	}

	for _, pc := range p.Causes {
		cause, err := pc.cause()
		if err != nil {
			return nil, err
		}
		if err := add(cause, pc.Measures); err != nil {
			return nil, err
		}
		for i, ps := range pc.Sequelae {
			if err := add(cause.Sequelae[i], ps.Measures); err != nil {
				return nil, err
			}
		}
		for i, pe := range pc.Etiologies {
			if err := add(cause.Etiologies[i], pe.Measures); err != nil {
				return nil, err
			}
		}
	}

	for _, pe := range p.Etiologies {
		if err := add(pe.etiology(), pe.Measures); err != nil {
			return nil, err
		}
	}

	for _, pr := range p.RiskFactors {
		risk, err := pr.riskFactor()
		if err != nil {
			return nil, err
		}
		if err := add(risk, pr.Measures); err != nil {
			return nil, err
		}
	}

	for _, pc := range p.Covariates {
		if err := add(pc.covariate(), []string{string(gbd.MeasureEstimate)}); err != nil {
			return nil, err
		}
	}

	for _, pg := range p.CoverageGaps {
		gap, err := pg.coverageGap()
		if err != nil {
			return nil, err
		}
		if err := add(gap, pg.Measures); err != nil {
			return nil, err
		}
	}

	for _, pa := range p.AlternativeRiskFactors {
		alt, err := pa.alternativeRiskFactor()
		if err != nil {
			return nil, err
		}
		if err := add(alt, pa.Measures); err != nil {
			return nil, err
		}
	}

	for _, ph := range p.HealthcareEntities {
		ent := &entity.HealthcareEntity{
			Name: ph.Name, HealthcareID: ph.ID, ModelableEntityID: ph.ModelableEntityID,
		}
		if err := add(ent, ph.Measures); err != nil {
			return nil, err
		}
	}

	for _, pt := range p.HealthTechnologies {
		if err := add(&entity.HealthTechnology{Name: pt.Name, TechnologyID: pt.ID}, pt.Measures); err != nil {
			return nil, err
		}
	}

	if p.Population != nil {
		if err := add(entity.Population{}, p.Population.Measures); err != nil {
			return nil, err
		}
	}

	return reqs, nil
}

func (pc *PlanCause) cause() (*entity.Cause, error) {
	if pc.ID == 0 {
		return nil, fmt.Errorf("cause %s is missing an id", pc.Name)
	}
	sv, err := surveys(pc.Surveys)
	if err != nil {
		return nil, fmt.Errorf("cause %s: %w", pc.Name, err)
	}
	cause := &entity.Cause{
		Name:         pc.Name,
		CauseID:      pc.ID,
		Restrictions: pc.Restrictions.restrictions(),
		Surveys:      sv,
	}
	if err := cause.Restrictions.Validate(); err != nil {
		return nil, fmt.Errorf("cause %s: %w", pc.Name, err)
	}
	for _, ps := range pc.Sequelae {
		ssv, err := surveys(ps.Surveys)
		if err != nil {
			return nil, fmt.Errorf("sequela %s: %w", ps.Name, err)
		}
		cause.Sequelae = append(cause.Sequelae, &entity.Sequela{
			Name:      ps.Name,
			SequelaID: ps.ID,
			HealthState: entity.HealthState{
				Name:                   ps.HealthState.Name,
				HealthStateID:          ps.HealthState.ID,
				DisabilityWeightExists: ps.HealthState.DisabilityWeightExists,
			},
			Surveys: ssv,
		})
	}
	for _, pe := range pc.Etiologies {
		cause.Etiologies = append(cause.Etiologies, pe.etiology())
	}
	return cause, nil
}

func (pe *PlanEtiology) etiology() *entity.Etiology {
	return &entity.Etiology{
		Name:   pe.Name,
		REIID:  pe.ID,
		PAFYLL: pe.PAFYLL.survey(),
		PAFYLD: pe.PAFYLD.survey(),
	}
}

func parseDistribution(s string) (entity.Distribution, error) {
	d := entity.Distribution(s)
	switch d {
	case entity.DistributionEnsemble, entity.DistributionLogNormal,
		entity.DistributionNormal, entity.DistributionDichotomous,
		entity.DistributionOrderedPolytomous, entity.DistributionUnorderedPolytomous,
		entity.DistributionCustom:
		return d, nil
	case "":
		return "", fmt.Errorf("distribution is required")
	}
	return "", fmt.Errorf("unknown distribution %q", s)
}

func (pr *PlanRiskFactor) riskFactor() (*entity.RiskFactor, error) {
	dist, err := parseDistribution(pr.Distribution)
	if err != nil {
		return nil, fmt.Errorf("risk factor %s: %w", pr.Name, err)
	}
	sv, err := surveys(pr.Surveys)
	if err != nil {
		return nil, fmt.Errorf("risk factor %s: %w", pr.Name, err)
	}
	return &entity.RiskFactor{
		Name:             pr.Name,
		REIID:            pr.ID,
		Distribution:     dist,
		ExposureYearType: pr.ExposureYearType,
		TMRED: entity.TMRED{
			Min: pr.TMRED.Min, Max: pr.TMRED.Max, Inverted: pr.TMRED.Inverted,
		},
		Restrictions: pr.Restrictions.restrictions(),
		Surveys:      sv,
		PAFYLL:       pr.PAFYLL.survey(),
		PAFYLD:       pr.PAFYLD.survey(),
	}, nil
}

func (pc *PlanCovariate) covariate() *entity.Covariate {
	return &entity.Covariate{
		Name:              pc.Name,
		CovariateID:       pc.ID,
		ByAge:             pc.ByAge,
		BySex:             pc.BySex,
		ByAgeViolated:     pc.ByAgeViolated,
		BySexViolated:     pc.BySexViolated,
		MeanValueExists:   pc.MeanValueExists,
		UncertaintyExists: pc.UncertaintyExists,
	}
}

func (pg *PlanPseudoRisk) coverageGap() (*entity.CoverageGap, error) {
	dist, err := parseDistribution(pg.Distribution)
	if err != nil {
		return nil, fmt.Errorf("coverage gap %s: %w", pg.Name, err)
	}
	return &entity.CoverageGap{
		Name:         pg.Name,
		REIID:        pg.ID,
		Distribution: dist,
		Restrictions: pg.Restrictions.restrictions(),
	}, nil
}

func (pa *PlanPseudoRisk) alternativeRiskFactor() (*entity.AlternativeRiskFactor, error) {
	dist, err := parseDistribution(pa.Distribution)
	if err != nil {
		return nil, fmt.Errorf("alternative risk factor %s: %w", pa.Name, err)
	}
	return &entity.AlternativeRiskFactor{
		Name:         pa.Name,
		REIID:        pa.ID,
		Distribution: dist,
		Restrictions: pa.Restrictions.restrictions(),
	}, nil
}
