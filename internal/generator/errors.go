package generator

import (
	"errors"
	"fmt"
)

// ErrorCategory is the normalized failure taxonomy of the generation service.
type ErrorCategory string

const (
	// ErrorUnavailable covers network failures and non-2xx responses.
	ErrorUnavailable ErrorCategory = "service_unavailable"

	// ErrorBadResponse indicates a payload that could not be decoded.
	ErrorBadResponse ErrorCategory = "bad_response"

	// ErrorTimeout indicates the call exceeded its deadline.
	ErrorTimeout ErrorCategory = "timeout"
)

// ServiceError wraps a failed generation call.
type ServiceError struct {
	Category   ErrorCategory
	StatusCode int
	Message    string
	Underlying error
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("generation service [%s]: %s", e.Category, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Underlying != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Underlying)
	}
	return msg
}

func (e *ServiceError) Unwrap() error {
	return e.Underlying
}

// NewServiceError creates a categorized generation failure.
func NewServiceError(category ErrorCategory, message string, underlying error) *ServiceError {
	return &ServiceError{Category: category, Message: message, Underlying: underlying}
}

// IsServiceError reports whether err came from a failed generation call.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}

// GetCategory extracts the error category, or "" if err is not a ServiceError.
func GetCategory(err error) ErrorCategory {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Category
	}
	return ""
}
