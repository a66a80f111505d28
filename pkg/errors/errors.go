// Package errors provides structured error handling for ossl.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/mrz1836/ossl/pkg/osslerr"
)

// Exit codes.
const (
	ExitSuccess     = 0 // Successful execution
	ExitGeneral     = 1 // General/unknown error
	ExitInput       = 2 // Invalid input
	ExitBackend     = 3 // The cryptography backend reported failure
	ExitNotFound    = 4 // Resource not found
	ExitUnsupported = 5 // Backend lacks the requested capability
)

// OsslError is the structured error type for ossl.
type OsslError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *OsslError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *OsslError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for OsslError.
func (e *OsslError) Is(target error) bool {
	var t *OsslError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &OsslError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &OsslError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrNotFound = &OsslError{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	ErrBackend = &OsslError{
		Code:     "BACKEND_ERROR",
		Message:  "the cryptography backend reported an error",
		ExitCode: ExitBackend,
	}

	ErrUnsupported = &OsslError{
		Code:     "UNSUPPORTED",
		Message:  "operation not supported by this backend",
		ExitCode: ExitUnsupported,
	}

	// Error code lookup errors.
	ErrUnknownLibrary = &OsslError{
		Code:     "UNKNOWN_LIBRARY",
		Message:  "unknown library",
		ExitCode: ExitNotFound,
	}

	ErrInvalidCode = &OsslError{
		Code:     "INVALID_CODE",
		Message:  "invalid error code",
		ExitCode: ExitInput,
	}

	// Random output errors.
	ErrInvalidEncoding = &OsslError{
		Code:     "INVALID_ENCODING",
		Message:  "invalid output encoding",
		ExitCode: ExitInput,
	}

	ErrInvalidSize = &OsslError{
		Code:     "INVALID_SIZE",
		Message:  "invalid byte count",
		ExitCode: ExitInput,
	}

	// Config-specific errors.
	ErrConfigNotFound = &OsslError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigExists = &OsslError{
		Code:     "CONFIG_EXISTS",
		Message:  "configuration already exists (use --force to overwrite)",
		ExitCode: ExitInput,
	}

	ErrConfigInvalid = &OsslError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	ErrUnknownConfigKey = &OsslError{
		Code:     "UNKNOWN_CONFIG_KEY",
		Message:  "unknown config key",
		ExitCode: ExitInput,
	}

	ErrInvalidValue = &OsslError{
		Code:     "INVALID_VALUE",
		Message:  "invalid value",
		ExitCode: ExitInput,
	}
)

// New creates a new OsslError with the given code and message.
func New(code, message string) *OsslError {
	return &OsslError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var oe *OsslError
	if errors.As(err, &oe) {
		return &OsslError{
			Code:       oe.Code,
			Message:    fmt.Sprintf("%s: %s", msg, oe.Message),
			Details:    oe.Details,
			Suggestion: oe.Suggestion,
			Cause:      err,
			ExitCode:   oe.ExitCode,
		}
	}

	return &OsslError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var oe *OsslError
	if errors.As(err, &oe) {
		return &OsslError{
			Code:       oe.Code,
			Message:    oe.Message,
			Details:    details,
			Suggestion: oe.Suggestion,
			Cause:      oe.Cause,
			ExitCode:   oe.ExitCode,
		}
	}

	return &OsslError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithCause records cause as the underlying error of err, keeping its code.
func WithCause(err, cause error) error {
	if err == nil {
		return nil
	}

	var oe *OsslError
	if errors.As(err, &oe) {
		return &OsslError{
			Code:       oe.Code,
			Message:    oe.Message,
			Details:    oe.Details,
			Suggestion: oe.Suggestion,
			Cause:      cause,
			ExitCode:   oe.ExitCode,
		}
	}

	return &OsslError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Cause:    cause,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var oe *OsslError
	if errors.As(err, &oe) {
		return &OsslError{
			Code:       oe.Code,
			Message:    oe.Message,
			Details:    oe.Details,
			Suggestion: suggestion,
			Cause:      oe.Cause,
			ExitCode:   oe.ExitCode,
		}
	}

	return &OsslError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// FromBackend classifies errors coming out of the backend bindings. A
// drained error stack becomes a BACKEND_ERROR carrying the stack as its
// cause; a missing capability becomes UNSUPPORTED. Anything else, including
// errors that are already structured, is returned unchanged.
func FromBackend(err error) error {
	if err == nil {
		return nil
	}

	var oe *OsslError
	if errors.As(err, &oe) {
		return err
	}

	var stack *osslerr.ErrorStack
	if errors.As(err, &stack) {
		return &OsslError{
			Code:       ErrBackend.Code,
			Message:    ErrBackend.Message,
			Details:    map[string]string{"records": strconv.Itoa(stack.Len())},
			Suggestion: "Run 'ossl doctor' to check the backend",
			Cause:      err,
			ExitCode:   ExitBackend,
		}
	}

	if errors.Is(err, errors.ErrUnsupported) {
		return &OsslError{
			Code:     ErrUnsupported.Code,
			Message:  ErrUnsupported.Message,
			Cause:    err,
			ExitCode: ExitUnsupported,
		}
	}

	return err
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var oe *OsslError
	if errors.As(err, &oe) {
		return oe.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var oe *OsslError
	if errors.As(err, &oe) {
		return oe.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
