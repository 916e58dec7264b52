// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling for the troupe orchestration
// core. The codes mirror the failure taxonomy: registry misconfiguration is
// fatal, scoring failures are recovered locally, execution failures propagate.
package errors

import "fmt"

// ErrorCode classifies troupe errors for handling and observability.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeDuplicateName indicates a worker name was registered twice.
	// Startup-time misconfiguration, never retried.
	CodeDuplicateName ErrorCode = "DUPLICATE_NAME"

	// CodeNotFound indicates an unknown worker name was requested.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeScoringFailure indicates a worker's Score call failed. Recovered
	// locally as score 0.0 and never surfaced to the caller.
	CodeScoringFailure ErrorCode = "SCORING_FAILURE"

	// CodeExecutionFailure indicates a worker's Run, Revise, Review or Merge
	// call failed. Propagated to the caller unchanged.
	CodeExecutionFailure ErrorCode = "EXECUTION_FAILURE"

	// CodeInvalidWorker indicates a worker does not satisfy the contract its
	// configured role requires (e.g. a critic without Review).
	CodeInvalidWorker ErrorCode = "INVALID_WORKER"
)

// Error is a typed error carrying the troupe error code and, where relevant,
// the worker it concerns. It can be unwrapped with errors.As/errors.Is.
type Error struct {
	Code        ErrorCode
	Message     string
	Err         error
	Worker      string
	Recoverable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Worker != "" {
		msg = fmt.Sprintf("worker %q: %s", e.Worker, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *Error {
	return &Error{
		Code:        code,
		Message:     msg,
		Err:         cause,
		Recoverable: code == CodeScoringFailure,
	}
}

// Newf creates a new Error with a formatted message and no cause.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// WithWorker attaches the worker name the error concerns.
// Returns the error for method chaining.
func (e *Error) WithWorker(name string) *Error {
	e.Worker = name
	return e
}

// CodeOf returns the troupe error code of err, or CodeInternal when err is
// not a troupe error.
func CodeOf(err error) ErrorCode {
	if te, ok := err.(*Error); ok {
		return te.Code
	}
	return CodeInternal
}

// HasCode reports whether err is a troupe error with the given code,
// searching the unwrap chain.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if te, ok := err.(*Error); ok && te.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
