// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Configuration errors (100-199): Bad pair configs, schema violations, invalid date ranges
//   - Pipeline construction errors (200-299): Dependency cycles, missing dependencies, event collisions
//   - Registry lookup errors (300-399): Unknown broker, strategy or indicator names
//   - Trading/ledger errors (400-499): Broker limit violations, duplicate trades
//   - Trigger errors (500-599): Invalid trigger transitions
//   - Indicator errors (600-699): Indicator calculation failures
//   - Storage errors (700-799): Candle storage and query failures
//   - Run errors (800-899): Runtime and finalize failures
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidConfiguration, "invalid configuration")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeUnknownBroker, "broker %s not registered", name)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeQueryFailed, "failed to execute query", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeDuplicateTrade) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IndicatorError represents a failure inside a named indicator. The
// indicator name is carried so callers can report which indicator failed
// without parsing the message.
type IndicatorError struct {
	Indicator string
	Message   string
	Cause     error
}

// NewIndicatorError creates a new IndicatorError for the given indicator name.
func NewIndicatorError(indicator, message string, cause error) *IndicatorError {
	return &IndicatorError{
		Indicator: indicator,
		Message:   message,
		Cause:     cause,
	}
}

// Error implements the error interface.
func (e *IndicatorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("indicator %s: %s: %v", e.Indicator, e.Message, e.Cause)
	}

	return fmt.Sprintf("indicator %s: %s", e.Indicator, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *IndicatorError) Unwrap() error {
	return e.Cause
}

// IsIndicatorError checks if an error is an IndicatorError.
// It uses errors.As to check the error chain.
func IsIndicatorError(err error) bool {
	var indicatorErr *IndicatorError

	return errors.As(err, &indicatorErr)
}
