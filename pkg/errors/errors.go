package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Configuration errors
	ErrConfigLoad     ErrorCode = "CONFIG_LOAD"
	ErrConfigParse    ErrorCode = "CONFIG_PARSE"
	ErrConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"

	// Schema document errors
	ErrSchemaInvalid ErrorCode = "SCHEMA_INVALID"
	ErrSchemaParse   ErrorCode = "SCHEMA_PARSE"

	// Credential errors
	ErrCredentialRead ErrorCode = "CREDENTIAL_READ"

	// Database errors
	ErrDBConnect  ErrorCode = "DB_CONNECT"
	ErrDBSettings ErrorCode = "DB_SETTINGS"

	// Replication errors
	ErrReplSlotCreate  ErrorCode = "REPL_SLOT_CREATE"
	ErrReplSlotDrop    ErrorCode = "REPL_SLOT_DROP"
	ErrReplSlotMissing ErrorCode = "REPL_SLOT_MISSING"

	// Trigger errors
	ErrTriggerSetup    ErrorCode = "TRIGGER_SETUP"
	ErrTriggerTeardown ErrorCode = "TRIGGER_TEARDOWN"

	// Checkpoint errors
	ErrCheckpointAccess   ErrorCode = "CHECKPOINT_ACCESS"
	ErrCheckpointValue    ErrorCode = "CHECKPOINT_VALUE"
	ErrCheckpointTeardown ErrorCode = "CHECKPOINT_TEARDOWN"
)

// PgmirrorError represents a structured error with code and details
type PgmirrorError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *PgmirrorError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *PgmirrorError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *PgmirrorError) Is(target error) bool {
	var targetErr *PgmirrorError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new PgmirrorError with the given code and message
func New(code ErrorCode, message string) *PgmirrorError {
	return &PgmirrorError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new PgmirrorError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *PgmirrorError {
	return &PgmirrorError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a PgmirrorError
func Wrap(err error, code ErrorCode, message string) *PgmirrorError {
	if err == nil {
		return nil
	}
	return &PgmirrorError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *PgmirrorError {
	if err == nil {
		return nil
	}
	return &PgmirrorError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *PgmirrorError) WithDetail(key string, value interface{}) *PgmirrorError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var perr *PgmirrorError
	if errors.As(err, &perr) {
		return perr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a PgmirrorError
func GetErrorCode(err error) ErrorCode {
	var perr *PgmirrorError
	if errors.As(err, &perr) {
		return perr.Code
	}
	return ErrUnknown
}
