// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Code identifies a backtest failure class. Codes are stable strings
// surfaced to callers in run results.
type Code string

const (
	CodeInsufficientData    Code = "INSUFFICIENT_DATA"
	CodeUnknownStrategy     Code = "UNKNOWN_STRATEGY"
	CodeMissingIndicator    Code = "MISSING_INDICATOR"
	CodeInvalidStopDistance Code = "INVALID_STOP_DISTANCE"
	CodeInvalidDateRange    Code = "INVALID_DATE_RANGE"
	CodeInvalidBalance      Code = "INVALID_BALANCE"
)

// Standard sentinel errors
var (
	ErrInsufficientData    = errors.New("insufficient data")
	ErrUnknownStrategy     = errors.New("unknown strategy")
	ErrMissingIndicator    = errors.New("missing indicator")
	ErrInvalidStopDistance = errors.New("invalid stop distance")
	ErrInvalidDateRange    = errors.New("invalid date range")
	ErrInvalidBalance      = errors.New("invalid initial balance")
	ErrDataNotFound        = errors.New("data not found")
	ErrDatabaseError       = errors.New("database error")
	ErrConfigInvalid       = errors.New("invalid configuration")
)

var sentinels = map[Code]error{
	CodeInsufficientData:    ErrInsufficientData,
	CodeUnknownStrategy:     ErrUnknownStrategy,
	CodeMissingIndicator:    ErrMissingIndicator,
	CodeInvalidStopDistance: ErrInvalidStopDistance,
	CodeInvalidDateRange:    ErrInvalidDateRange,
	CodeInvalidBalance:      ErrInvalidBalance,
}

// RunError is a failure of a backtest run, carrying its taxonomy code.
type RunError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *RunError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backtest error [%s]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("backtest error [%s]: %s", e.Code, e.Message)
}

func (e *RunError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return sentinels[e.Code]
}

// NewRunError creates a new RunError with a formatted message.
func NewRunError(code Code, format string, args ...interface{}) *RunError {
	return &RunError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// CodeOf returns the taxonomy code of err, or "" if err carries none.
func CodeOf(err error) Code {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a data-related error.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
