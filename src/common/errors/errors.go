// Package errors provides a structured error system for kbuild.
// Every failure in the orchestration sequence is described by a domain
// (which step failed), a code (what kind of failure), and the process
// exit status the failure maps to, since the exit code is the only
// machine-readable output of the tool.
package errors

import (
	"errors"
	"fmt"
)

// Code represents a unique error code within a domain
type Code string

// Domain represents an error domain, one per orchestration step
type Domain string

// Orchestration step domains
const (
	DomainConfig  Domain = "config"
	DomainEnv     Domain = "env"
	DomainArch    Domain = "arch"
	DomainRepo    Domain = "repo"
	DomainKconfig Domain = "kconfig"
	DomainPatch   Domain = "patch"
	DomainBuild   Domain = "build"
	DomainHistory Domain = "history"
	DomainStorage Domain = "storage"
)

// Error represents a structured error with domain, code, and exit status
type Error struct {
	// Domain names the orchestration step that failed
	Domain Domain

	// Code is a unique identifier within the domain (e.g., "tool_missing")
	Code Code

	// Message is a human-readable error message
	Message string

	// ExitStatus is the process exit code this failure maps to
	ExitStatus int

	// cause is the underlying error if this error wraps another
	cause error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is and errors.As support
func (e *Error) Unwrap() error {
	return e.cause
}

// Is implements error comparison for errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Domain == t.Domain && e.Code == t.Code
}

// WithCause returns a new error with the underlying cause attached
func (e *Error) WithCause(cause error) *Error {
	return &Error{
		Domain:     e.Domain,
		Code:       e.Code,
		Message:    e.Message,
		ExitStatus: e.ExitStatus,
		cause:      cause,
	}
}

// WithMessage returns a new error with a custom message
func (e *Error) WithMessage(message string) *Error {
	return &Error{
		Domain:     e.Domain,
		Code:       e.Code,
		Message:    message,
		ExitStatus: e.ExitStatus,
		cause:      e.cause,
	}
}

// WithMessagef returns a new error with a formatted custom message
func (e *Error) WithMessagef(format string, args ...interface{}) *Error {
	return &Error{
		Domain:     e.Domain,
		Code:       e.Code,
		Message:    fmt.Sprintf(format, args...),
		ExitStatus: e.ExitStatus,
		cause:      e.cause,
	}
}

// New creates a new Error with the given parameters
func New(domain Domain, code Code, message string) *Error {
	return &Error{
		Domain:     domain,
		Code:       code,
		Message:    message,
		ExitStatus: 1,
	}
}

// Wrap wraps an existing error with an Error
func Wrap(err error, domain Domain, code Code, message string) *Error {
	return &Error{
		Domain:     domain,
		Code:       code,
		Message:    message,
		ExitStatus: 1,
		cause:      err,
	}
}

// GetExitStatus returns the exit status for an error.
// A nil error maps to 0; any error that is not an *Error maps to 1.
func GetExitStatus(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.ExitStatus
	}
	return 1
}

// GetCode returns the error code if the error is an *Error, otherwise empty string
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetDomain returns the error domain if the error is an *Error, otherwise empty string
func GetDomain(err error) Domain {
	var e *Error
	if errors.As(err, &e) {
		return e.Domain
	}
	return ""
}

// Is checks if an error matches a target error (delegates to errors.Is)
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target (delegates to errors.As)
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
