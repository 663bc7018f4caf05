package errors

import (
	"fmt"
	"strings"
)

// Warning is a soft violation: the data is usable but deviates from the
// single-location survey expectations or exceeds a soft ceiling.
type Warning struct {
	Message    string
	EntityKind string
	EntityName string
	Measure    string
}

// String implements fmt.Stringer.
func (w *Warning) String() string {
	if w.EntityName != "" && w.Measure != "" {
		return fmt.Sprintf("%s %s, measure %s: %s", w.EntityKind, w.EntityName, w.Measure, w.Message)
	}
	return w.Message
}

// Outcome accumulates the warnings emitted while validating one
// (entity, measure) pair. Warnings never short-circuit; the first fatal
// error does, and is returned separately from the Outcome.
type Outcome struct {
	Warnings []*Warning
}

// NewOutcome returns an empty outcome.
func NewOutcome() *Outcome {
	return &Outcome{}
}

// Add appends a warning.
func (o *Outcome) Add(w *Warning) {
	o.Warnings = append(o.Warnings, w)
}

// Warnf formats and appends a warning with no entity context. Validators
// stamp entity context onto warnings via Stamp before returning.
func (o *Outcome) Warnf(format string, args ...any) {
	o.Add(&Warning{Message: fmt.Sprintf(format, args...)})
}

// Stamp fills in entity context on every warning that does not have one.
func (o *Outcome) Stamp(entityKind, entityName, measure string) {
	for _, w := range o.Warnings {
		if w.EntityName == "" {
			w.EntityKind = entityKind
			w.EntityName = entityName
			w.Measure = measure
		}
	}
}

// HasWarnings reports whether any warnings accumulated.
func (o *Outcome) HasWarnings() bool {
	return len(o.Warnings) > 0
}

// Count returns the number of accumulated warnings.
func (o *Outcome) Count() int {
	return len(o.Warnings)
}

// String renders all warnings, one per line.
func (o *Outcome) String() string {
	if !o.HasWarnings() {
		return ""
	}
	var sb strings.Builder
	for _, w := range o.Warnings {
		sb.WriteString(w.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
