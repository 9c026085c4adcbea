package provider

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode classifies adapter failures. Only Server, RateLimit and Timeout
// count toward the circuit breaker.
type ErrorCode string

const (
	ErrCodeRateLimit   ErrorCode = "rate_limit"
	ErrCodeAuth        ErrorCode = "auth"
	ErrCodeServer      ErrorCode = "server"
	ErrCodeTimeout     ErrorCode = "timeout"
	ErrCodeNotFound    ErrorCode = "not_found"
	ErrCodeParse       ErrorCode = "parse"
	ErrCodeCancelled   ErrorCode = "cancelled"
	ErrCodeCircuitOpen ErrorCode = "circuit_open"
)

// ProviderError is the single error type crossing the adapter boundary.
// Provider-specific exceptions never escape the adapter that produced them.
type ProviderError struct {
	Provider string
	Code     ErrorCode
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Code)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewError builds a ProviderError for the named provider.
func NewError(provider string, code ErrorCode, msg string) *ProviderError {
	return &ProviderError{Provider: provider, Code: code, Message: msg}
}

// WrapError classifies an underlying error, mapping context cancellation and
// deadline expiry onto their dedicated codes.
func WrapError(provider string, code ErrorCode, err error) *ProviderError {
	switch {
	case errors.Is(err, context.Canceled):
		code = ErrCodeCancelled
	case errors.Is(err, context.DeadlineExceeded):
		code = ErrCodeTimeout
	}
	return &ProviderError{Provider: provider, Code: code, Err: err}
}

// CodeOf extracts the error class, defaulting to Server for untyped errors so
// unexpected failures still count toward the breaker.
func CodeOf(err error) ErrorCode {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	if errors.Is(err, context.Canceled) {
		return ErrCodeCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}
	return ErrCodeServer
}

// IsCircuitOpen reports whether err signals a rejected call on an open breaker.
func IsCircuitOpen(err error) bool { return CodeOf(err) == ErrCodeCircuitOpen }

// IsCancelled reports whether err is a clean cancellation abort.
func IsCancelled(err error) bool { return CodeOf(err) == ErrCodeCancelled }

// CountsTowardBreaker reports whether the error class trips breaker failure
// accounting. Client errors, missing data and cancellations never do.
func CountsTowardBreaker(err error) bool {
	switch CodeOf(err) {
	case ErrCodeServer, ErrCodeRateLimit, ErrCodeTimeout:
		return true
	default:
		return false
	}
}
