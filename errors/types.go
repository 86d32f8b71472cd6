package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies a failure. HTTP handlers and the CLI map codes to
// status codes and messages.
type ErrorCode string

const (
	// Team data errors
	ErrCodeNotFound    ErrorCode = "NOT_FOUND"
	ErrCodeParseError  ErrorCode = "PARSE_ERROR"
	ErrCodeLockTimeout ErrorCode = "LOCK_TIMEOUT"

	// Request errors
	ErrCodeValidation ErrorCode = "VALIDATION"

	// Streaming errors
	ErrCodeCapacity  ErrorCode = "CAPACITY"
	ErrCodeTransport ErrorCode = "TRANSPORT"

	// Configuration errors
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"

	// General errors
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// TeamboardError is a coded error with optional details and cause.
type TeamboardError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *TeamboardError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap implements the errors.Unwrap interface
func (e *TeamboardError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *TeamboardError) WithDetail(key string, value interface{}) *TeamboardError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *TeamboardError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new TeamboardError
func New(code ErrorCode, message string) *TeamboardError {
	return &TeamboardError{
		Code:    code,
		Message: message,
	}
}

// Wrap attaches code and message to err.
func Wrap(err error, code ErrorCode, message string) *TeamboardError {
	e := New(code, message)
	e.Cause = err
	return e
}

// Is reports whether any error in err's chain is a TeamboardError with code.
func Is(err error, code ErrorCode) bool {
	return GetCode(err) == code && code != ""
}

// GetCode returns the code of the first TeamboardError in err's chain, or ""
// when there is none.
func GetCode(err error) ErrorCode {
	var tbErr *TeamboardError
	if stderrors.As(err, &tbErr) {
		return tbErr.Code
	}
	return ""
}
