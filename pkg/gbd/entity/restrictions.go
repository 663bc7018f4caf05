package entity

import "fmt"

// Restrictions captures the demographic and measure applicability of a
// cause or risk factor. Age bounds are age-group ids interpreted against
// the canonical age-group ordering; nil means no restriction on that side.
type Restrictions struct {
	MaleOnly   bool
	FemaleOnly bool

	// YLLOnly and YLDOnly mark causes whose burden is mortality-only or
	// morbidity-only. They are mutually exclusive.
	YLLOnly bool
	YLDOnly bool

	YLLAgeStart *int
	YLLAgeEnd   *int
	YLDAgeStart *int
	YLDAgeEnd   *int

	// Violated lists restriction flag names the single-location survey
	// observed not to hold (e.g. "male_only_violated").
	Violated []string
}

// Validate checks the internal consistency of the restriction record.
func (r Restrictions) Validate() error {
	if r.YLLOnly && r.YLDOnly {
		return fmt.Errorf("restrictions cannot be both yll_only and yld_only")
	}
	if r.MaleOnly && r.FemaleOnly {
		return fmt.Errorf("restrictions cannot be both male_only and female_only")
	}
	return nil
}

// Catalog is the entity metadata catalog the validation layer reads from.
// It is built by the warehouse client and treated as read-only.
type Catalog struct {
	Causes []*Cause
}

// CauseByID returns the cause with the given cause_id.
func (c *Catalog) CauseByID(id int) (*Cause, bool) {
	for _, cause := range c.Causes {
		if cause.CauseID == id {
			return cause, true
		}
	}
	return nil, false
}

// CauseForSequela returns the cause listing s among its sequelae. Sequelae
// have no restrictions of their own, so validation borrows the parent's.
func (c *Catalog) CauseForSequela(s *Sequela) (*Cause, bool) {
	for _, cause := range c.Causes {
		for _, seq := range cause.Sequelae {
			if seq.SequelaID == s.SequelaID {
				return cause, true
			}
		}
	}
	return nil, false
}

// CauseForEtiology returns the cause listing e among its etiologies.
func (c *Catalog) CauseForEtiology(e *Etiology) (*Cause, bool) {
	for _, cause := range c.Causes {
		for _, et := range cause.Etiologies {
			if et.REIID == e.REIID {
				return cause, true
			}
		}
	}
	return nil, false
}
