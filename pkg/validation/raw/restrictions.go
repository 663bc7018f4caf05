package raw

import (
	"vitalstats/verity/pkg/gbd"
	"vitalstats/verity/pkg/gbd/entity"
	"vitalstats/verity/pkg/table"
	verrors "vitalstats/verity/pkg/validation/errors"
)

// checkAgeRestrictions verifies that every age group inside the
// restriction range appears with usable values and that age groups beyond
// the range carry only fill (all-zero) values. Zeros count as missing, in
// line with warehouse conventions. The terminal age group is tolerated as
// an extra regardless of the range. Data missing for the entire
// restriction range is always fatal; individual missing groups follow the
// fatal flag.
func (c *checker) checkAgeRestrictions(t *table.Table, start, end *int, valueCols []string, fatal bool) error {
	expected, err := c.ctx.RestrictionAgeIDs(start, end)
	if err != nil {
		return err
	}
	if len(expected) == 0 {
		return nil
	}
	lo, hi := expected[0], expected[len(expected)-1]
	expectedSet := intSet(expected)
	dataSet := intSet(t.UniqueInts("age_group_id"))

	var missing []int
	for _, id := range expected {
		if _, ok := dataSet[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		if fatal {
			return verrors.DataAbnormalf("data was expected to contain all age groups between ids %d and %d but was missing: %v", lo, hi, missing)
		}
		c.out.Warnf("data was expected to contain all age groups between ids %d and %d but was missing: %v", lo, hi, missing)
	}

	extra := make(map[int]struct{})
	for id := range dataSet {
		if _, ok := expectedSet[id]; !ok && id != gbd.AgeNinetyFivePlus {
			extra[id] = struct{}{}
		}
	}
	if len(extra) > 0 {
		outside := t.FilterIntIn("age_group_id", extra)
		if exists, _ := c.checkDataExist(outside, true, valueCols, false); exists {
			c.out.Warnf("data was only expected to contain values for age groups between ids %d and %d, but also included values for age groups %v", lo, hi, sortedKeys(extra))
		}
	}

	inside := t.FilterIntIn("age_group_id", expectedSet)
	if exists, _ := c.checkDataExist(inside, true, valueCols, false); !exists {
		return verrors.DataAbnormalf("data is missing for all age groups within restriction range")
	}
	return nil
}

// checkSexRestrictions verifies sex-restriction fill semantics: restricted
// data must carry usable values for the restricted sex and only fill for
// the other; unrestricted data must carry usable values for both sexes, or
// for the combined row where combined estimates are used instead.
func (c *checker) checkSexRestrictions(t *table.Table, maleOnly, femaleOnly bool, valueCols []string) error {
	existsFor := func(sexID int) bool {
		exists, _ := c.checkDataExist(t.FilterIntEq("sex_id", sexID), true, valueCols, false)
		return exists
	}
	existsOutside := func(sexID int) bool {
		col, ok := t.Ints("sex_id")
		if !ok {
			return false
		}
		other := t.Filter(func(i int) bool { return col[i] != sexID })
		exists, _ := c.checkDataExist(other, true, valueCols, false)
		return exists
	}

	if maleOnly {
		if !existsFor(gbd.SexMale) {
			return verrors.DataAbnormalf("data is restricted to male only, but is missing data values for males")
		}
		sexes := t.UniqueInts("sex_id")
		if !(len(sexes) == 1 && sexes[0] == gbd.SexMale) && existsOutside(gbd.SexMale) {
			return verrors.DataAbnormalf("data is restricted to male only, but contains non-male sex ids for which data values are not all 0")
		}
	}

	if femaleOnly {
		if !existsFor(gbd.SexFemale) {
			return verrors.DataAbnormalf("data is restricted to female only, but is missing data values for females")
		}
		sexes := t.UniqueInts("sex_id")
		if !(len(sexes) == 1 && sexes[0] == gbd.SexFemale) && existsOutside(gbd.SexFemale) {
			return verrors.DataAbnormalf("data is restricted to female only, but contains non-female sex ids for which data values are not all 0")
		}
	}

	if !maleOnly && !femaleOnly {
		dataSet := intSet(t.UniqueInts("sex_id"))
		_, hasMale := dataSet[gbd.SexMale]
		_, hasFemale := dataSet[gbd.SexFemale]
		if hasMale && hasFemale {
			if !existsFor(gbd.SexMale) || !existsFor(gbd.SexFemale) {
				return verrors.DataAbnormalf("data has no sex restrictions, but does not contain non-zero values for both males and females")
			}
		} else if !existsFor(gbd.SexCombined) {
			return verrors.DataAbnormalf("data has no sex restrictions, but does not contain non-zero values for both males and females")
		}
	}
	return nil
}

// checkMortMorbFlags verifies the mortality/morbidity flag columns of
// relative risk data against the affected cause's yld/yll restrictions.
func checkMortMorbFlags(t *table.Table, yldOnly, yllOnly bool) error {
	for _, col := range []string{"morbidity", "mortality"} {
		for _, v := range t.UniqueInts(col) {
			if v != 0 && v != 1 {
				return verrors.DataAbnormalf("data contains values for %s outside the expected {0, 1}", col)
			}
		}
	}

	morb, _ := t.Ints("morbidity")
	mort, _ := t.Ints("mortality")
	if morb == nil || mort == nil {
		return verrors.DataAbnormalf("data is missing mortality/morbidity flag columns")
	}

	var bothSet, bothZero, morbOnly, mortOnly bool
	for i := range morb {
		switch {
		case morb[i] == 1 && mort[i] == 1:
			bothSet = true
		case morb[i] == 0 && mort[i] == 0:
			bothZero = true
		case morb[i] == 1:
			morbOnly = true
		default:
			mortOnly = true
		}
	}

	const prefix = "relative risk data includes "
	switch {
	case bothZero:
		return verrors.DataAbnormalf(prefix + "rows with both mortality and morbidity flags set to 0")
	case bothSet:
		if morbOnly || mortOnly {
			return verrors.DataAbnormalf(prefix + "rows with both mortality and morbidity flags set to 1 as well as rows with only one of the flags set to 1")
		}
	case morbOnly && !mortOnly && !yldOnly:
		return verrors.DataAbnormalf(prefix + "only rows with the morbidity flag set to 1 but the affected entity is not restricted to yld_only")
	case mortOnly && !morbOnly && !yllOnly:
		return verrors.DataAbnormalf(prefix + "only rows with the mortality flag set to 1 but the affected entity is not restricted to yll_only")
	case mortOnly && morbOnly && (yldOnly || yllOnly):
		restricted := "yld_only"
		if yllOnly {
			restricted = "yll_only"
		}
		return verrors.DataAbnormalf(prefix+"rows for both morbidity and mortality, but the affected entity is restricted to %s", restricted)
	}
	return nil
}

// checkPAFRRExposureAgeGroups reconciles the age coverage of one PAF
// group (a single affected cause and measure) against the cause's
// restrictions and the age groups where relative risk and exposure are
// non-trivial. The narrowest range wins: PAF outside the cause
// restrictions is fatal, PAF missing inside the reconciled range is
// fatal, and PAF present where relative risk or exposure is trivial only
// warns. A YLL PAF whose relative risk carries combined
// mortality-and-morbidity rows is passed without checking.
func (c *checker) checkPAFRRExposureAgeGroups(paf, rr, exposure *table.Table, risk *entity.RiskFactor) error {
	causeIDs := paf.UniqueInts("cause_id")
	measureIDs := paf.UniqueInts("measure_id")
	if len(causeIDs) != 1 || len(measureIDs) != 1 {
		return verrors.Configurationf("paf age reconciliation expects data grouped to a single cause and measure")
	}
	cause, ok := c.ctx.Catalog().CauseByID(causeIDs[0])
	if !ok {
		return verrors.Configurationf("paf data references cause_id %d, which is not in the catalog", causeIDs[0])
	}

	morb, _ := rr.Ints("morbidity")
	mort, _ := rr.Ints("mortality")
	causeCol, _ := rr.Ints("cause_id")
	if morb == nil || mort == nil || causeCol == nil {
		return verrors.DataAbnormalf("relative risk data is missing cause or mortality/morbidity columns")
	}

	yll := measureIDs[0] == gbd.MeasureIDYLLs
	validRR := rr.Filter(func(i int) bool {
		if causeCol[i] != cause.CauseID {
			return false
		}
		if yll {
			return morb[i] == 0 && mort[i] == 1
		}
		return morb[i] == 1
	})

	// YLL paf backed only by combined mortality-and-morbidity relative
	// risk is an unsupported shape; skip rather than misreport.
	if yll && validRR.Empty() {
		return nil
	}

	drawCols := gbd.DrawColumns()
	var rrAges map[int]struct{}
	if risk.Distribution.Continuous() {
		// Non-trivial relative risk applies where exposure clears the
		// theoretical minimum on the risky side.
		tmrel := risk.TMRED.TMREL()
		side := boundaryUpper
		if risk.TMRED.Inverted {
			side = boundaryLower
		}
		exposedAges := make(map[int]struct{})
		expAgeCol, _ := exposure.Ints("age_group_id")
		if expAgeCol == nil {
			return verrors.DataAbnormalf("exposure data is missing the age_group_id column")
		}
		var extrema []float64
		if side == boundaryUpper {
			extrema = exposure.RowMax(drawCols)
		} else {
			extrema = exposure.RowMin(drawCols)
		}
		for i, v := range extrema {
			if violates(v, tmrel, side, true) {
				exposedAges[expAgeCol[i]] = struct{}{}
			}
		}
		validRR = validRR.FilterIntIn("age_group_id", exposedAges)
		rrAges = intSet(validRR.UniqueInts("age_group_id"))
	} else {
		// Non-trivial relative risk for categorical risks is any row with
		// a draw different from 1; exposure coverage is a superset of
		// relative risk coverage, so it is not consulted.
		rrAgeCol, _ := validRR.Ints("age_group_id")
		maxima := validRR.RowMax(drawCols)
		minima := validRR.RowMin(drawCols)
		rrAges = make(map[int]struct{})
		for i := range maxima {
			if maxima[i] != 1 || minima[i] != 1 {
				rrAges[rrAgeCol[i]] = struct{}{}
			}
		}
	}
	if len(rrAges) == 0 {
		return nil
	}

	causeStart, causeEnd := cause.Restrictions.YLDAgeStart, cause.Restrictions.YLDAgeEnd
	if yll {
		causeStart, causeEnd = cause.Restrictions.YLLAgeStart, cause.Restrictions.YLLAgeEnd
	}
	causeAges, err := c.ctx.RestrictionAgeIDs(causeStart, causeEnd)
	if err != nil {
		return err
	}
	causeSet := intSet(causeAges)
	pafSet := intSet(paf.UniqueInts("age_group_id"))
	measureName := "YLD"
	if yll {
		measureName = "YLL"
	}

	if len(causeAges) > 0 {
		if strictSubset(causeSet, pafSet) {
			var outside []int
			for id := range pafSet {
				if _, ok := causeSet[id]; !ok {
					outside = append(outside, id)
				}
			}
			return verrors.DataAbnormalf("%s paf for cause %s has data outside of cause restrictions: %v", measureName, cause.Name, sortedKeys(intSet(outside)))
		}
	}

	// Narrowest range across relative risk coverage and cause bounds.
	rrStart, rrEnd := c.ageSpan(rrAges)
	start, end := rrStart, rrEnd
	if causeStart != nil && c.agePosOf(*causeStart) > c.agePosOf(start) {
		start = *causeStart
	}
	if causeEnd != nil && c.agePosOf(*causeEnd) < c.agePosOf(end) {
		end = *causeEnd
	}
	required, err := c.ctx.RestrictionAgeIDs(&start, &end)
	if err != nil {
		return err
	}
	var missing []int
	for _, id := range required {
		if _, ok := pafSet[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return verrors.DataAbnormalf("paf for cause %s has missing data for the age groups: %v", cause.Name, missing)
	}

	var extra []int
	for _, id := range causeAges {
		if _, covered := rrAges[id]; !covered {
			if _, inPaf := pafSet[id]; inPaf {
				extra = append(extra, id)
			}
		}
	}
	if len(extra) > 0 {
		c.out.Warnf("%s paf for cause %s has data for age groups %v, which have neither relative risk nor exposure data", measureName, cause.Name, extra)
	}
	return nil
}

// ageSpan returns the earliest and latest age-group id of a set, by
// canonical position.
func (c *checker) ageSpan(ages map[int]struct{}) (start, end int) {
	first := true
	for id := range ages {
		pos := c.agePosOf(id)
		if first {
			start, end = id, id
			first = false
			continue
		}
		if pos < c.agePosOf(start) {
			start = id
		}
		if pos > c.agePosOf(end) {
			end = id
		}
	}
	return start, end
}

func (c *checker) agePosOf(id int) int {
	if pos, ok := c.ctx.agePos[id]; ok {
		return pos
	}
	return -1
}
