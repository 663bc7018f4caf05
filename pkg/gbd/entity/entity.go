package entity

import "vitalstats/verity/pkg/gbd"

// Kind discriminates the entity variants. Every raw table is pulled for
// exactly one entity, and validation dispatches on the entity's kind.
type Kind string

const (
	KindCause                 Kind = "cause"
	KindSequela               Kind = "sequela"
	KindRiskFactor            Kind = "risk_factor"
	KindEtiology              Kind = "etiology"
	KindCovariate             Kind = "covariate"
	KindCoverageGap           Kind = "coverage_gap"
	KindAlternativeRiskFactor Kind = "alternative_risk_factor"
	KindHealthcareEntity      Kind = "healthcare_entity"
	KindHealthTechnology      Kind = "health_technology"
	KindPopulation            Kind = "population"
)

// Entity is a modeled quantity described by the warehouse metadata catalog.
// The concrete types form a closed set; validation switches over them
// exhaustively rather than looking fields up by name.
type Entity interface {
	// EntityKind returns the variant tag.
	EntityKind() Kind

	// EntityName returns the human-readable catalog name.
	EntityName() string

	// EntityID returns the warehouse id (cause_id, rei_id, etc.).
	// Population, which has no id of its own, returns 0.
	EntityID() int
}

// Survey summarizes the single-location existence survey for one measure of
// one entity. Exists is nil when the survey never attempted to determine
// existence for the combination, which makes requesting that measure a
// caller error rather than a data-quality problem.
type Survey struct {
	Exists  *bool
	InRange bool

	// Consistent and Aggregates describe whether child estimates (sequelae
	// or subcauses) were found to exist consistently with the parent and to
	// sum correctly to it. Only surveyed for causes.
	Consistent *bool
	Aggregates bool
}

// Cause is a disease or injury with YLL/YLD restriction metadata and
// optional sequela and etiology children.
type Cause struct {
	Name         string
	CauseID      int
	Restrictions Restrictions
	Surveys      map[gbd.Measure]Survey
	Sequelae     []*Sequela
	Etiologies   []*Etiology
}

func (c *Cause) EntityKind() Kind   { return KindCause }
func (c *Cause) EntityName() string { return c.Name }
func (c *Cause) EntityID() int      { return c.CauseID }

// Survey returns the survey record for measure, with ok reporting whether
// the measure was surveyed at all.
func (c *Cause) Survey(m gbd.Measure) (Survey, bool) {
	s, ok := c.Surveys[m]
	return s, ok
}

// HealthState is the disability-weight carrier attached to a sequela.
type HealthState struct {
	Name                   string
	HealthStateID          int
	DisabilityWeightExists bool
}

// Sequela is a consequence of a cause. Sequelae carry no restrictions of
// their own; validation borrows the parent cause's.
type Sequela struct {
	Name        string
	SequelaID   int
	HealthState HealthState
	Surveys     map[gbd.Measure]Survey
}

func (s *Sequela) EntityKind() Kind   { return KindSequela }
func (s *Sequela) EntityName() string { return s.Name }
func (s *Sequela) EntityID() int      { return s.SequelaID }

// Survey returns the survey record for measure, with ok reporting whether
// the measure was surveyed at all.
func (s *Sequela) Survey(m gbd.Measure) (Survey, bool) {
	sv, ok := s.Surveys[m]
	return sv, ok
}

// Distribution is the exposure distribution family of a risk factor.
type Distribution string

const (
	DistributionEnsemble            Distribution = "ensemble"
	DistributionLogNormal           Distribution = "lognormal"
	DistributionNormal              Distribution = "normal"
	DistributionDichotomous         Distribution = "dichotomous"
	DistributionOrderedPolytomous   Distribution = "ordered_polytomous"
	DistributionUnorderedPolytomous Distribution = "unordered_polytomous"
	DistributionCustom              Distribution = "custom"
)

// Continuous reports whether the family describes a continuous exposure.
func (d Distribution) Continuous() bool {
	switch d {
	case DistributionEnsemble, DistributionLogNormal, DistributionNormal:
		return true
	}
	return false
}

// Categorical reports whether the family describes a categorical exposure.
func (d Distribution) Categorical() bool {
	switch d {
	case DistributionDichotomous, DistributionOrderedPolytomous, DistributionUnorderedPolytomous:
		return true
	}
	return false
}

// TMRED is the theoretical-minimum-risk exposure distribution of a
// continuous risk factor. Inverted flips which side of the distribution
// carries risk.
type TMRED struct {
	Min      float64
	Max      float64
	Inverted bool
}

// TMREL is the midpoint exposure level used as the trivial-risk boundary.
func (t TMRED) TMREL() float64 {
	return (t.Min + t.Max) / 2
}

// RiskFactor is an exposure whose effect on one or more causes is modeled
// through relative risks and population attributable fractions.
type RiskFactor struct {
	Name             string
	REIID            int
	Distribution     Distribution
	TMRED            TMRED
	Restrictions     Restrictions
	Surveys          map[gbd.Measure]Survey
	ExposureYearType string

	// PAFYLL and PAFYLD are the survey records for the two population
	// attributable fraction flavors, surveyed separately.
	PAFYLL Survey
	PAFYLD Survey
}

func (r *RiskFactor) EntityKind() Kind   { return KindRiskFactor }
func (r *RiskFactor) EntityName() string { return r.Name }
func (r *RiskFactor) EntityID() int      { return r.REIID }

// Survey returns the survey record for measure, with ok reporting whether
// the measure was surveyed at all.
func (r *RiskFactor) Survey(m gbd.Measure) (Survey, bool) {
	s, ok := r.Surveys[m]
	return s, ok
}

// Etiology attributes part of a cause's burden to an underlying agent.
type Etiology struct {
	Name   string
	REIID  int
	PAFYLL Survey
	PAFYLD Survey
}

func (e *Etiology) EntityKind() Kind   { return KindEtiology }
func (e *Etiology) EntityName() string { return e.Name }
func (e *Etiology) EntityID() int      { return e.REIID }

// Covariate is a summary quantity reported as mean/lower/upper values
// rather than draws. ByAge and BySex describe the expected shape of the
// data, not demographic restrictions.
type Covariate struct {
	Name              string
	CovariateID       int
	ByAge             bool
	BySex             bool
	ByAgeViolated     bool
	BySexViolated     bool
	MeanValueExists   bool
	UncertaintyExists bool
}

func (c *Covariate) EntityKind() Kind   { return KindCovariate }
func (c *Covariate) EntityName() string { return c.Name }
func (c *Covariate) EntityID() int      { return c.CovariateID }

// CoverageGap is an intervention-shaped pseudo-risk with categorical
// exposure but no restriction metadata of its own.
type CoverageGap struct {
	Name         string
	REIID        int
	Distribution Distribution
	Restrictions Restrictions
}

func (c *CoverageGap) EntityKind() Kind   { return KindCoverageGap }
func (c *CoverageGap) EntityName() string { return c.Name }
func (c *CoverageGap) EntityID() int      { return c.REIID }

// AlternativeRiskFactor is a risk factor whose exposure is modeled outside
// the warehouse's standard risk machinery. It carries no survey metadata.
type AlternativeRiskFactor struct {
	Name         string
	REIID        int
	Distribution Distribution
	Restrictions Restrictions
}

func (a *AlternativeRiskFactor) EntityKind() Kind   { return KindAlternativeRiskFactor }
func (a *AlternativeRiskFactor) EntityName() string { return a.Name }
func (a *AlternativeRiskFactor) EntityID() int      { return a.REIID }

// HealthcareEntity is a healthcare system component with cost and
// utilization measures.
type HealthcareEntity struct {
	Name              string
	HealthcareID      int
	ModelableEntityID int
}

func (h *HealthcareEntity) EntityKind() Kind   { return KindHealthcareEntity }
func (h *HealthcareEntity) EntityName() string { return h.Name }
func (h *HealthcareEntity) EntityID() int      { return h.HealthcareID }

// HealthTechnology is a deliverable intervention with cost data only.
type HealthTechnology struct {
	Name         string
	TechnologyID int
}

func (h *HealthTechnology) EntityKind() Kind   { return KindHealthTechnology }
func (h *HealthTechnology) EntityName() string { return h.Name }
func (h *HealthTechnology) EntityID() int      { return h.TechnologyID }

// Population is the pseudo-entity behind demography measures (population
// structure, theoretical minimum risk life expectancy).
type Population struct{}

func (Population) EntityKind() Kind   { return KindPopulation }
func (Population) EntityName() string { return "population" }
func (Population) EntityID() int      { return 0 }
