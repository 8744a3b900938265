// Package gust structured error types for better error handling
package gust

import (
	"errors"
	"fmt"
)

// ErrorType represents categories of errors
type ErrorType int

const (
	// Device/session not initialized
	ErrTypeNotInitialized ErrorType = iota
	// Null or unrecognized buffer handle
	ErrTypeInvalidBuffer
	// Device rejected a buffer request
	ErrTypeAllocation
	// Async read/write/launch reported device-level failure
	ErrTypeTransfer
	// Invalid argument errors
	ErrTypeInvalidArg
	// Declared-but-unbuilt operation variant
	ErrTypeNotImplemented
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Op      string // Operation that failed
	Message string // Human-readable message
	Err     error  // Underlying error if any
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gust %s error in %s: %s (caused by: %v)",
			e.Type.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("gust %s error in %s: %s",
		e.Type.String(), e.Op, e.Message)
}

// Unwrap allows error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// String returns the error type as a string
func (t ErrorType) String() string {
	switch t {
	case ErrTypeNotInitialized:
		return "NotInitialized"
	case ErrTypeInvalidBuffer:
		return "InvalidBuffer"
	case ErrTypeAllocation:
		return "Allocation"
	case ErrTypeTransfer:
		return "Transfer"
	case ErrTypeInvalidArg:
		return "InvalidArgument"
	case ErrTypeNotImplemented:
		return "NotImplemented"
	default:
		return "Unknown"
	}
}

// Common error constructors

// NewNotInitializedError reports use of a device that has not been initialized
func NewNotInitializedError(op string) error {
	return &Error{
		Type:    ErrTypeNotInitialized,
		Op:      op,
		Message: "device not initialized",
	}
}

// NewInvalidBufferError creates a bad buffer handle error
func NewInvalidBufferError(op string, message string) error {
	return &Error{
		Type:    ErrTypeInvalidBuffer,
		Op:      op,
		Message: message,
	}
}

// NewAllocationError creates an allocation failure error
func NewAllocationError(op string, message string, err error) error {
	return &Error{
		Type:    ErrTypeAllocation,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewTransferError creates a device-level transfer/launch error
func NewTransferError(op string, message string, err error) error {
	return &Error{
		Type:    ErrTypeTransfer,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewInvalidArgError creates an invalid argument error
func NewInvalidArgError(op string, message string) error {
	return &Error{
		Type:    ErrTypeInvalidArg,
		Op:      op,
		Message: message,
	}
}

// NewNotImplementedError reports a declared operation variant that has no
// working implementation. Callers must never treat it as silent success.
func NewNotImplementedError(op string, message string) error {
	return &Error{
		Type:    ErrTypeNotImplemented,
		Op:      op,
		Message: message,
	}
}

// Type predicates

// IsNotInitializedError checks if an error is a not-initialized error
func IsNotInitializedError(err error) bool {
	return isType(err, ErrTypeNotInitialized)
}

// IsInvalidBufferError checks if an error is an invalid buffer handle error
func IsInvalidBufferError(err error) bool {
	return isType(err, ErrTypeInvalidBuffer)
}

// IsAllocationError checks if an error is an allocation error
func IsAllocationError(err error) bool {
	return isType(err, ErrTypeAllocation)
}

// IsTransferError checks if an error is a transfer error
func IsTransferError(err error) bool {
	return isType(err, ErrTypeTransfer)
}

// IsInvalidArgError checks if an error is an invalid argument error
func IsInvalidArgError(err error) bool {
	return isType(err, ErrTypeInvalidArg)
}

// IsNotImplementedError checks if an error is a not-implemented error
func IsNotImplementedError(err error) bool {
	return isType(err, ErrTypeNotImplemented)
}

func isType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}
