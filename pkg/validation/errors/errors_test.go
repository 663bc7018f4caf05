package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "bare",
			err:  DataMissingf("data contains no non-missing values"),
			want: "[data_missing] data contains no non-missing values",
		},
		{
			name: "with entity and measure",
			err: &Error{
				Type: ErrorTypeDataAbnormal, Message: "data has missing years",
				EntityKind: "cause", EntityName: "diarrheal_diseases", Measure: "prevalence",
			},
			want: "[data_abnormal] cause diarrheal_diseases, measure prevalence: data has missing years",
		},
		{
			name: "entity without measure",
			err: &Error{
				Type: ErrorTypeInvalidQuery, Message: "not surveyed",
				EntityKind: "sequela", EntityName: "severe_anemia",
			},
			want: "[invalid_query] sequela severe_anemia: not surveyed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"invalid query", InvalidQueryf("x"), ErrorTypeInvalidQuery},
		{"data missing", DataMissingf("x"), ErrorTypeDataMissing},
		{"data abnormal", DataAbnormalf("x"), ErrorTypeDataAbnormal},
		{"not implemented", NotImplementedf("x"), ErrorTypeNotImplemented},
		{"configuration", Configurationf("x"), ErrorTypeConfiguration},
		{"wrapped", fmt.Errorf("pulling data: %w", DataAbnormalf("x")), ErrorTypeDataAbnormal},
		{"foreign error", fmt.Errorf("plain"), ErrorType("")},
		{"nil", nil, ErrorType("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypeOf(tt.err); got != tt.want {
				t.Errorf("TypeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPredicatesUnwrap(t *testing.T) {
	wrapped := fmt.Errorf("validating: %w", NotImplementedf("custom distributions"))
	if !IsNotImplemented(wrapped) {
		t.Errorf("IsNotImplemented() = false for wrapped not-implemented error")
	}
	if IsDataMissing(wrapped) {
		t.Errorf("IsDataMissing() = true for a not-implemented error")
	}
}

func TestOutcomeStamp(t *testing.T) {
	out := NewOutcome()
	out.Warnf("data may not exist")
	out.Add(&Warning{Message: "prior warning", EntityKind: "cause", EntityName: "other", Measure: "deaths"})
	out.Stamp("risk_factor", "unsafe_water_source", "exposure")

	if out.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", out.Count())
	}
	if got := out.Warnings[0].EntityName; got != "unsafe_water_source" {
		t.Errorf("unstamped warning got entity %q, want unsafe_water_source", got)
	}
	// warnings that already carry context keep it
	if got := out.Warnings[1].EntityName; got != "other" {
		t.Errorf("stamped warning was overwritten: entity %q, want other", got)
	}
}

func TestOutcomeString(t *testing.T) {
	out := NewOutcome()
	if out.HasWarnings() || out.String() != "" {
		t.Errorf("empty outcome should render empty")
	}
	out.Warnf("data may be outside the normal range")
	out.Stamp("cause", "measles", "incidence")
	got := out.String()
	if !strings.Contains(got, "cause measles, measure incidence") {
		t.Errorf("String() = %q, missing entity context", got)
	}
}
