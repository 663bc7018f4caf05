package entity

import (
	"testing"

	"vitalstats/verity/pkg/gbd"
)

func TestRestrictionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		r       Restrictions
		wantErr bool
	}{
		{"empty", Restrictions{}, false},
		{"male only", Restrictions{MaleOnly: true}, false},
		{"yll only", Restrictions{YLLOnly: true}, false},
		{"both sexes exclusive", Restrictions{MaleOnly: true, FemaleOnly: true}, true},
		{"both burden exclusive", Restrictions{YLLOnly: true, YLDOnly: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTMREL(t *testing.T) {
	tm := TMRED{Min: 50, Max: 75}
	if got := tm.TMREL(); got != 62.5 {
		t.Errorf("TMREL() = %v, want 62.5", got)
	}
}

func TestDistributionShape(t *testing.T) {
	if !DistributionEnsemble.Continuous() {
		t.Error("ensemble should be continuous")
	}
	if DistributionDichotomous.Continuous() {
		t.Error("dichotomous should not be continuous")
	}
	if !DistributionDichotomous.Categorical() {
		t.Error("dichotomous should be categorical")
	}
	if DistributionLogNormal.Categorical() {
		t.Error("lognormal should not be categorical")
	}
}

func TestCatalogLookups(t *testing.T) {
	cause := &Cause{
		Name:    "diarrheal_diseases",
		CauseID: 302,
		Sequelae: []*Sequela{
			{Name: "mild_diarrhea", SequelaID: 144},
		},
		Etiologies: []*Etiology{
			{Name: "rotavirus", REIID: 181},
		},
	}
	catalog := &Catalog{Causes: []*Cause{cause}}

	if got, ok := catalog.CauseByID(302); !ok || got != cause {
		t.Errorf("CauseByID(302) = %v, %v", got, ok)
	}
	if _, ok := catalog.CauseByID(999); ok {
		t.Error("CauseByID(999) should miss")
	}

	if got, ok := catalog.CauseForSequela(&Sequela{SequelaID: 144}); !ok || got != cause {
		t.Errorf("CauseForSequela = %v, %v", got, ok)
	}
	if _, ok := catalog.CauseForSequela(&Sequela{SequelaID: 1}); ok {
		t.Error("unknown sequela should miss")
	}

	if got, ok := catalog.CauseForEtiology(&Etiology{REIID: 181}); !ok || got != cause {
		t.Errorf("CauseForEtiology = %v, %v", got, ok)
	}
}

func TestCauseSurveyLookup(t *testing.T) {
	cause := &Cause{
		Name:    "measles",
		CauseID: 341,
		Surveys: map[gbd.Measure]Survey{
			gbd.MeasureIncidence: {Exists: boolPtr(true)},
		},
	}
	if _, ok := cause.Survey(gbd.MeasureIncidence); !ok {
		t.Error("incidence survey should exist")
	}
	if _, ok := cause.Survey(gbd.MeasureRemission); ok {
		t.Error("remission survey should miss")
	}
}

func boolPtr(b bool) *bool { return &b }
