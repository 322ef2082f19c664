// Package errors defines the coded errors spatialbench returns across
// package boundaries.
//
// Every error a caller may want to branch on carries a [Code]: bad flags
// and record files are INVALID_*, a sampler that gave up is
// CAPACITY_EXCEEDED or RETRY_EXHAUSTED, model endpoint failures are
// NETWORK_ERROR, RATE_LIMITED or UNAUTHORIZED. Everything else is wrapped
// with fmt.Errorf and %w.
//
// An infeasible placement region is not an error: the region solver
// returns ok=false and the sampler tries another relation.
//
//	err := errors.New(errors.ErrCodeInvalidMode, "unknown mode %q", name)
//	if errors.Is(err, errors.ErrCodeInvalidMode) { ... }
//
//	err = errors.Wrap(errors.ErrCodeNetwork, err, "model call for %s", img)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code is a machine-readable error class.
type Code string

// Input errors. [Code.IsInput] reports true for these.
const (
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidMode     Code = "INVALID_MODE"
	ErrCodeInvalidRelation Code = "INVALID_RELATION"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
)

// Sampling errors.
const (
	ErrCodeCapacityExceeded Code = "CAPACITY_EXCEEDED"
	ErrCodeRetryExhausted   Code = "RETRY_EXHAUSTED"
)

const (
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Model endpoint errors.
	ErrCodeNetwork      Code = "NETWORK_ERROR"
	ErrCodeRateLimited  Code = "RATE_LIMITED"
	ErrCodeUnauthorized Code = "UNAUTHORIZED"

	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// IsInput reports whether c blames the caller's input rather than the
// environment.
func (c Code) IsInput() bool {
	return strings.HasPrefix(string(c), "INVALID_")
}

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an error with code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap is New with a cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	if e, ok := asError(err); ok {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of the outermost *Error without code or
// cause, or err.Error() for uncoded errors.
func UserMessage(err error) string {
	if e, ok := asError(err); ok {
		return e.Message
	}
	return err.Error()
}

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
