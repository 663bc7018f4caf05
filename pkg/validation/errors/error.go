package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType categorizes a fatal validation failure.
type ErrorType string

const (
	ErrorTypeInvalidQuery   ErrorType = "invalid_query"
	ErrorTypeDataMissing    ErrorType = "data_missing"
	ErrorTypeDataAbnormal   ErrorType = "data_abnormal"
	ErrorTypeNotImplemented ErrorType = "not_implemented"
	ErrorTypeConfiguration  ErrorType = "configuration"
)

// Error is a fatal validation failure. EntityKind, EntityName, and Measure
// identify the (entity, measure) pair being validated when known.
type Error struct {
	Type       ErrorType
	Message    string
	EntityKind string
	EntityName string
	Measure    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.EntityName != "" && e.Measure != "" {
		return fmt.Sprintf("[%s] %s %s, measure %s: %s", e.Type, e.EntityKind, e.EntityName, e.Measure, e.Message)
	}
	if e.EntityName != "" {
		return fmt.Sprintf("[%s] %s %s: %s", e.Type, e.EntityKind, e.EntityName, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// InvalidQueryf builds an invalid-query error.
func InvalidQueryf(format string, args ...any) *Error {
	return &Error{Type: ErrorTypeInvalidQuery, Message: fmt.Sprintf(format, args...)}
}

// DataMissingf builds a data-missing error.
func DataMissingf(format string, args ...any) *Error {
	return &Error{Type: ErrorTypeDataMissing, Message: fmt.Sprintf(format, args...)}
}

// DataAbnormalf builds a data-abnormal error.
func DataAbnormalf(format string, args ...any) *Error {
	return &Error{Type: ErrorTypeDataAbnormal, Message: fmt.Sprintf(format, args...)}
}

// NotImplementedf builds a not-implemented error.
func NotImplementedf(format string, args ...any) *Error {
	return &Error{Type: ErrorTypeNotImplemented, Message: fmt.Sprintf(format, args...)}
}

// Configurationf builds a configuration error.
func Configurationf(format string, args ...any) *Error {
	return &Error{Type: ErrorTypeConfiguration, Message: fmt.Sprintf(format, args...)}
}

// TypeOf returns the ErrorType of err, or "" if err is not a validation
// error.
func TypeOf(err error) ErrorType {
	var ve *Error
	if stderrors.As(err, &ve) {
		return ve.Type
	}
	return ""
}

// IsInvalidQuery reports whether err is an invalid-query error.
func IsInvalidQuery(err error) bool { return TypeOf(err) == ErrorTypeInvalidQuery }

// IsDataMissing reports whether err is a data-missing error.
func IsDataMissing(err error) bool { return TypeOf(err) == ErrorTypeDataMissing }

// IsDataAbnormal reports whether err is a data-abnormal error.
func IsDataAbnormal(err error) bool { return TypeOf(err) == ErrorTypeDataAbnormal }

// IsNotImplemented reports whether err is a not-implemented error.
func IsNotImplemented(err error) bool { return TypeOf(err) == ErrorTypeNotImplemented }

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return TypeOf(err) == ErrorTypeConfiguration }
