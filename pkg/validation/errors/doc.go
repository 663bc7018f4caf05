// Package errors provides the typed failure vocabulary of the validation
// layer.
//
// # Error Types
//
// ErrorTypeInvalidQuery: the caller requested a measure/entity combination
// that cannot exist by construction. A programming error, never retried.
//
// ErrorTypeDataMissing: the pulled table is empty or carries no usable
// values where data was expected.
//
// ErrorTypeDataAbnormal: the table exists but violates a structural or
// numeric contract (wrong columns, broken restrictions, hard bound).
//
// ErrorTypeNotImplemented: a recognized but unsupported entity shape
// (custom distribution, YLL age range broader than YLD).
//
// ErrorTypeConfiguration: the validation context itself is malformed
// (unknown age-group ids in restriction bounds, missing lookups).
//
// Fatal failures are returned as *Error and short-circuit a validation.
// Soft violations accumulate as Warning records on an Outcome, which is
// always returned so callers can log or surface them without halting.
package errors
