package engine

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned when events are submitted to a closed session.
var ErrSessionClosed = errors.New("engine: session closed")

// RuntimeError represents an event or evaluation that cannot be applied.
//
// Runtime errors include:
//   - Unknown param: the event names a param the chart does not declare
//   - Invalid value: the value is outside the param's control
//   - Missing data: a layer reads a dataset with no bound rows
//   - Invalid chart: the chart fails IR validation
//
// A failed event leaves the session state unchanged.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Param identifies the affected param, if any.
	Param string

	// Seq is the logical time of the failed event, if any.
	Seq int64
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownParam indicates the event targets an undeclared param.
	ErrCodeUnknownParam RuntimeErrorCode = "UNKNOWN_PARAM"

	// ErrCodeInvalidValue indicates a value the param's control cannot produce.
	ErrCodeInvalidValue RuntimeErrorCode = "INVALID_VALUE"

	// ErrCodeInvalidEvent indicates an event that does not fit the param kind.
	ErrCodeInvalidEvent RuntimeErrorCode = "INVALID_EVENT"

	// ErrCodeMissingData indicates a layer reads a dataset with no rows bound.
	ErrCodeMissingData RuntimeErrorCode = "MISSING_DATA"

	// ErrCodeInvalidChart indicates the chart fails IR validation.
	ErrCodeInvalidChart RuntimeErrorCode = "INVALID_CHART"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	switch {
	case e.Param != "" && e.Seq > 0:
		return fmt.Sprintf("%s: %s (param=%s, seq=%d)", e.Code, e.Message, e.Param, e.Seq)
	case e.Param != "":
		return fmt.Sprintf("%s: %s (param=%s)", e.Code, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnknownParam returns true if err is an unknown-param error.
// Uses errors.As to handle wrapped errors.
func IsUnknownParam(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeUnknownParam
	}
	return false
}

// IsInvalidValue returns true if err is an invalid-value error.
func IsInvalidValue(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeInvalidValue
	}
	return false
}

func unknownParam(name string) *RuntimeError {
	return &RuntimeError{Code: ErrCodeUnknownParam, Message: "param is not declared by the chart", Param: name}
}

func invalidValue(name, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: ErrCodeInvalidValue, Message: fmt.Sprintf(format, args...), Param: name}
}

func invalidEvent(name, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: ErrCodeInvalidEvent, Message: fmt.Sprintf(format, args...), Param: name}
}
