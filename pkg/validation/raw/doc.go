// Package raw validates draw-level tables pulled from the GBD data
// warehouse before they are reshaped and persisted to an artifact.
//
// The package has two entry points. CheckMetadata inspects only the entity
// metadata catalog for a given (entity, measure) pair and is intended to
// run once before bulk extraction; it warns about survey caveats and only
// fails when the combination cannot exist at all. ValidateRawData checks a
// pulled table for structural correctness, demographic completeness,
// numeric range sanity, and consistency with the entity's restriction
// metadata.
//
// Every validation is a pure function of its inputs plus the read-only
// Context (age-group ordering, location hierarchy, estimation years, bound
// constants, entity catalog). Nothing is mutated and nothing is cached, so
// validations are safe to run from concurrent extraction workers.
//
// Checks are composed top-down per measure: the first fatal failure aborts
// the validation and is returned as a typed error; soft violations
// accumulate on the returned Outcome and never block.
package raw
