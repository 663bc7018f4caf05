package raw

import (
	"vitalstats/verity/pkg/gbd"
	"vitalstats/verity/pkg/gbd/entity"
	verrors "vitalstats/verity/pkg/validation/errors"
)

// Context carries the read-only lookups shared by every check in one
// validation call: the canonical age-group ordering, the location
// hierarchy, the estimation year set, the entity catalog, and the numeric
// bounds. Build one per warehouse snapshot and share it across workers.
type Context struct {
	ageGroupIDs []int
	agePos      map[int]int
	pathToTop   map[int][]int
	years       []int
	catalog     *entity.Catalog
	bounds      Bounds
}

// ContextConfig configures a validation context.
type ContextConfig struct {
	// AgeGroupIDs is the canonical age-group ordering served by the
	// warehouse. Default: gbd.DefaultAgeGroupIDs.
	AgeGroupIDs []int

	// PathToTop maps a location id to the location ids on its path to the
	// global root, self included.
	PathToTop map[int][]int

	// EstimationYears is the sparse estimation year set of the warehouse
	// round, used by the year coverage checks.
	EstimationYears []int

	// Catalog is the entity metadata catalog.
	Catalog *entity.Catalog

	// Bounds overrides the numeric envelopes. Default: DefaultBounds.
	Bounds *Bounds
}

// NewContext builds a validation context, applying defaults.
func NewContext(cfg ContextConfig) (*Context, error) {
	ages := cfg.AgeGroupIDs
	if len(ages) == 0 {
		ages = gbd.DefaultAgeGroupIDs
	}
	if len(cfg.EstimationYears) == 0 {
		return nil, verrors.Configurationf("estimation years must not be empty")
	}
	bounds := DefaultBounds()
	if cfg.Bounds != nil {
		bounds = *cfg.Bounds
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = &entity.Catalog{}
	}
	pos := make(map[int]int, len(ages))
	for i, id := range ages {
		if _, dup := pos[id]; dup {
			return nil, verrors.Configurationf("age group id %d appears twice in ordering", id)
		}
		pos[id] = i
	}
	return &Context{
		ageGroupIDs: append([]int(nil), ages...),
		agePos:      pos,
		pathToTop:   cfg.PathToTop,
		years:       append([]int(nil), cfg.EstimationYears...),
		catalog:     catalog,
		bounds:      bounds,
	}, nil
}

// AgeGroupIDs returns the canonical age-group ordering.
func (c *Context) AgeGroupIDs() []int {
	return c.ageGroupIDs
}

// EstimationYears returns the estimation year set.
func (c *Context) EstimationYears() []int {
	return c.years
}

// Bounds returns the numeric envelopes in effect.
func (c *Context) Bounds() Bounds {
	return c.bounds
}

// Catalog returns the entity metadata catalog.
func (c *Context) Catalog() *entity.Catalog {
	return c.catalog
}

// PathToTop returns the location ids on the path from locationID to the
// global root, self included. Unknown locations return only themselves.
func (c *Context) PathToTop(locationID int) []int {
	if path, ok := c.pathToTop[locationID]; ok {
		return path
	}
	return []int{locationID}
}

// RestrictionAgeIDs expands a restriction age range into every age-group
// id from start to end inclusive, following the canonical ordering. A nil
// start means no restriction and yields an empty range. Bounds that are
// not part of the ordering are a configuration error.
func (c *Context) RestrictionAgeIDs(start, end *int) ([]int, error) {
	if start == nil {
		return nil, nil
	}
	if end == nil {
		end = start
	}
	i, ok := c.agePos[*start]
	if !ok {
		return nil, verrors.Configurationf("age group id %d is not in the canonical ordering", *start)
	}
	j, ok := c.agePos[*end]
	if !ok {
		return nil, verrors.Configurationf("age group id %d is not in the canonical ordering", *end)
	}
	if j < i {
		return nil, verrors.Configurationf("restriction age range ends (%d) before it starts (%d)", *end, *start)
	}
	return append([]int(nil), c.ageGroupIDs[i:j+1]...), nil
}

// RestrictionAgeBoundary resolves the combined age boundary of a cause
// across its YLL and YLD restrictions: the wider start and the wider end.
// A cause restricted to one measure type uses that type's bounds alone.
func (c *Context) RestrictionAgeBoundary(cause *entity.Cause, side string) *int {
	r := cause.Restrictions
	yll, yld := r.YLLAgeStart, r.YLDAgeStart
	pick := func(a, b *int, wantEarlier bool) *int {
		if a == nil {
			return b
		}
		if b == nil {
			return a
		}
		ai, aok := c.agePos[*a]
		bi, bok := c.agePos[*b]
		if !aok || !bok {
			return a
		}
		if (ai < bi) == wantEarlier {
			return a
		}
		return b
	}
	if side == "start" {
		if r.YLLOnly {
			return yll
		}
		if r.YLDOnly {
			return yld
		}
		return pick(yll, yld, true)
	}
	if r.YLLOnly {
		return r.YLLAgeEnd
	}
	if r.YLDOnly {
		return r.YLDAgeEnd
	}
	return pick(r.YLLAgeEnd, r.YLDAgeEnd, false)
}
