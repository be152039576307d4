package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the classification of errors for callers that must
// decide between failing and continuing with a fallback.
type ErrorType int

const (
	// ErrorTypePermanent - the operation cannot produce a result
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeDegraded - can continue with reduced functionality
	ErrorTypeDegraded
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeDegraded:
		return "degraded"
	default:
		return "permanent"
	}
}

// PermanentError represents an error that has no fallback
type PermanentError struct {
	Err     error
	Message string // User-facing message
}

func (e *PermanentError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("permanent error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// DegradedError represents an error where processing continues with a
// fallback value instead of the full result.
type DegradedError struct {
	Err             error
	FallbackContent string // Alternative content to return
	Message         string
}

func (e *DegradedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("degraded error: %v", e.Err)
}

func (e *DegradedError) Unwrap() error {
	return e.Err
}

// NewPermanentError creates a permanent error with a message
func NewPermanentError(err error, message string) *PermanentError {
	return &PermanentError{Err: err, Message: message}
}

// NewDegradedError creates a degraded error carrying the fallback content
func NewDegradedError(err error, message, fallback string) *DegradedError {
	return &DegradedError{Err: err, Message: message, FallbackContent: fallback}
}

// IsPermanent checks if an error is explicitly marked permanent
func IsPermanent(err error) bool {
	var permanentErr *PermanentError
	return errors.As(err, &permanentErr)
}

// IsDegraded checks if an error allows degraded service
func IsDegraded(err error) bool {
	var degradedErr *DegradedError
	return errors.As(err, &degradedErr)
}

// FallbackContent returns the fallback carried by a DegradedError in err's chain.
func FallbackContent(err error) (string, bool) {
	var degradedErr *DegradedError
	if errors.As(err, &degradedErr) {
		return degradedErr.FallbackContent, true
	}
	return "", false
}

// GetErrorType classifies an error
func GetErrorType(err error) ErrorType {
	if IsDegraded(err) {
		return ErrorTypeDegraded
	}
	return ErrorTypePermanent
}
