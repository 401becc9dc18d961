// Package hystrixerr defines the closed set of error kinds the command
// execution pipeline can produce. Every error carries enough structured
// context (command key, elapsed time, cause) to be logged or inspected
// without string parsing.
package hystrixerr

import (
	"errors"
	"fmt"
	"time"
)

// Code identifies one of the fixed error kinds the pipeline can raise.
type Code string

const (
	// CodeConfig indicates invalid construction, e.g. a rolling window
	// whose length does not divide evenly into its bucket count. Fatal at
	// construction; there is no recovery path.
	CodeConfig Code = "CONFIG_ERROR"

	// CodeTypeMismatch indicates a counter operation was attempted on a
	// max-updater event kind, or vice versa. Always a programmer error.
	CodeTypeMismatch Code = "TYPE_MISMATCH"

	// CodePoolRejected indicates the worker pool declined admission
	// (saturated, queue full). Recovered via the fallback path.
	CodePoolRejected Code = "POOL_REJECTED"

	// CodeSemaphoreRejected indicates semaphore-isolation admission was
	// declined. Recovered via the fallback path.
	CodeSemaphoreRejected Code = "SEMAPHORE_REJECTED"

	// CodeExecutionFailure indicates run() returned an error.
	CodeExecutionFailure Code = "EXECUTION_FAILURE"

	// CodeExecutionTimeout indicates run() exceeded the execution timeout.
	CodeExecutionTimeout Code = "EXECUTION_TIMEOUT"

	// CodeShortCircuited indicates the circuit breaker refused admission.
	CodeShortCircuited Code = "SHORT_CIRCUITED"

	// CodeFallbackRejection indicates the fallback semaphore declined
	// admission. Terminal.
	CodeFallbackRejection Code = "FALLBACK_REJECTION"

	// CodeFallbackFailure indicates fallback() itself returned an error.
	// Terminal.
	CodeFallbackFailure Code = "FALLBACK_FAILURE"

	// CodeFallbackNotImplemented indicates no fallback was supplied for a
	// command whose primary path failed. Terminal.
	CodeFallbackNotImplemented Code = "FALLBACK_NOT_IMPLEMENTED"

	// CodeBadRequest indicates a user-input error. It bypasses the
	// breaker's error-percentage accounting but still records latency.
	CodeBadRequest Code = "BAD_REQUEST"
)

// Error is the concrete type behind every error this module returns.
type Error struct {
	Code       Code
	CommandKey string
	Elapsed    time.Duration
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("hystrix: %s", e.Code)
	if e.CommandKey != "" {
		msg += fmt.Sprintf(" command=%s", e.CommandKey)
	}
	if e.Elapsed > 0 {
		msg += fmt.Sprintf(" elapsed=%s", e.Elapsed)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return msg
}

// Unwrap exposes the chained cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithCommandKey returns a copy of e tagged with the given command key.
func (e *Error) WithCommandKey(key string) *Error {
	dup := *e
	dup.CommandKey = key
	return &dup
}

// WithElapsed returns a copy of e tagged with the given elapsed duration.
func (e *Error) WithElapsed(d time.Duration) *Error {
	dup := *e
	dup.Elapsed = d
	return &dup
}

// WithCause returns a copy of e chained to the given cause.
func (e *Error) WithCause(cause error) *Error {
	dup := *e
	dup.Cause = cause
	return &dup
}

// Is reports whether err is a *Error with the given Code, unwrapping as
// needed.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// NewConfigError reports an invalid RollingNumber/RollingPercentile
// construction.
func NewConfigError(message string) *Error {
	return &Error{Code: CodeConfig, Message: message}
}

// NewTypeMismatch reports a counter/max-updater kind mismatch at a call
// site.
func NewTypeMismatch(message string) *Error {
	return &Error{Code: CodeTypeMismatch, Message: message}
}

// NewPoolRejected reports that the worker pool declined admission for
// commandKey.
func NewPoolRejected(commandKey string) *Error {
	return &Error{Code: CodePoolRejected, CommandKey: commandKey, Message: "thread pool rejected execution"}
}

// NewSemaphoreRejected reports that semaphore-isolation admission was
// declined for commandKey.
func NewSemaphoreRejected(commandKey string) *Error {
	return &Error{Code: CodeSemaphoreRejected, CommandKey: commandKey, Message: "semaphore rejected execution"}
}

// NewExecutionFailure wraps the error returned by run().
func NewExecutionFailure(commandKey string, elapsed time.Duration, cause error) *Error {
	return &Error{Code: CodeExecutionFailure, CommandKey: commandKey, Elapsed: elapsed, Cause: cause, Message: "run failed"}
}

// NewExecutionTimeout reports that run() exceeded its execution timeout.
func NewExecutionTimeout(commandKey string, elapsed time.Duration) *Error {
	return &Error{Code: CodeExecutionTimeout, CommandKey: commandKey, Elapsed: elapsed, Message: "execution timed out"}
}

// NewShortCircuited reports that the circuit breaker refused admission.
func NewShortCircuited(commandKey string) *Error {
	return &Error{Code: CodeShortCircuited, CommandKey: commandKey, Message: "circuit breaker open"}
}

// NewFallbackRejection reports that fallback-isolation admission was
// declined.
func NewFallbackRejection(commandKey string, cause error) *Error {
	return &Error{Code: CodeFallbackRejection, CommandKey: commandKey, Cause: cause, Message: "fallback rejected"}
}

// NewFallbackFailure reports that fallback() itself failed, chained to the
// original cause that triggered the fallback path.
func NewFallbackFailure(commandKey string, cause error) *Error {
	return &Error{Code: CodeFallbackFailure, CommandKey: commandKey, Cause: cause, Message: "fallback failed"}
}

// NewFallbackNotImplemented reports that no fallback was available for a
// failed primary path.
func NewFallbackNotImplemented(commandKey string, cause error) *Error {
	return &Error{Code: CodeFallbackNotImplemented, CommandKey: commandKey, Cause: cause, Message: "fallback not implemented"}
}

// NewBadRequest reports a user-input error that should not count toward the
// breaker's error percentage.
func NewBadRequest(commandKey string, cause error) *Error {
	return &Error{Code: CodeBadRequest, CommandKey: commandKey, Cause: cause, Message: "bad request"}
}
