// Package errhandling provides error classification and retry utilities
// for the record sources. Classification determines whether a transport
// failure is worth retrying before the pipeline degrades the collection
// to empty.
package errhandling

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrorCategory represents the type/category of an error.
type ErrorCategory string

// Error categories for classification.
const (
	// CategoryNetwork represents network-related errors (timeout, connection
	// refused, DNS). Typically transient and retryable.
	CategoryNetwork ErrorCategory = "network"

	// CategoryRateLimit represents rate limiting errors (429). Retryable with backoff.
	CategoryRateLimit ErrorCategory = "rate_limit"

	// CategoryServer represents server errors (5xx). Typically transient and retryable.
	CategoryServer ErrorCategory = "server"

	// CategoryClient represents client errors (4xx other than 429).
	// The request is malformed or unauthorized; never retried.
	CategoryClient ErrorCategory = "client"

	// CategoryData represents malformed data errors (bad records, bad filters).
	// Caller or upstream data problems; never retried.
	CategoryData ErrorCategory = "data"

	// CategoryUnknown represents unclassified errors. Retryable by default
	// (transient more likely than permanent).
	CategoryUnknown ErrorCategory = "unknown"
)

// ClassifiedError wraps an error with classification metadata.
type ClassifiedError struct {
	// Category is the error classification category.
	Category ErrorCategory

	// Retryable indicates whether the error is transient and can be retried.
	Retryable bool

	// StatusCode is the HTTP status code (0 if not an HTTP error).
	StatusCode int

	// Message is a human-readable error message.
	Message string

	// OriginalErr is the underlying error that was classified.
	OriginalErr error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Category, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Category, e.Message)
}

// Unwrap returns the original error for use with errors.Is and errors.As.
func (e *ClassifiedError) Unwrap() error {
	return e.OriginalErr
}

// ClassifyHTTPStatus classifies an HTTP error based on status code.
//
// Classification rules:
//   - 429: rate limit (retryable)
//   - 5xx: server errors (retryable)
//   - other 4xx: client errors (not retryable)
//   - anything else: unknown (retryable by default)
func ClassifyHTTPStatus(statusCode int, message string) *ClassifiedError {
	switch {
	case statusCode == 429:
		return &ClassifiedError{
			Category:   CategoryRateLimit,
			Retryable:  true,
			StatusCode: statusCode,
			Message:    "rate limited",
		}
	case statusCode >= 500:
		return &ClassifiedError{
			Category:   CategoryServer,
			Retryable:  true,
			StatusCode: statusCode,
			Message:    "server error",
		}
	case statusCode >= 400:
		return &ClassifiedError{
			Category:   CategoryClient,
			Retryable:  false,
			StatusCode: statusCode,
			Message:    "client error",
		}
	default:
		return &ClassifiedError{
			Category:   CategoryUnknown,
			Retryable:  true,
			StatusCode: statusCode,
			Message:    message,
		}
	}
}

// ClassifyError classifies any error into a ClassifiedError.
// Already-classified errors pass through; context and network errors get
// the network category; everything else is unknown (retryable by default).
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return &ClassifiedError{
			Category:  CategoryUnknown,
			Retryable: false,
			Message:   "nil error",
		}
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &ClassifiedError{
			Category:    CategoryNetwork,
			Retryable:   true,
			Message:     "request timeout",
			OriginalErr: err,
		}
	}

	// User initiated; retrying a canceled context is pointless.
	if errors.Is(err, context.Canceled) {
		return &ClassifiedError{
			Category:    CategoryNetwork,
			Retryable:   false,
			Message:     "context canceled",
			OriginalErr: err,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &ClassifiedError{
			Category:    CategoryNetwork,
			Retryable:   true,
			Message:     fmt.Sprintf("network error: %s %s", opErr.Op, opErr.Net),
			OriginalErr: err,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &ClassifiedError{
			Category:    CategoryNetwork,
			Retryable:   true,
			Message:     fmt.Sprintf("DNS error: %s", dnsErr.Name),
			OriginalErr: err,
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &ClassifiedError{
			Category:    CategoryNetwork,
			Retryable:   true,
			Message:     fmt.Sprintf("URL error: %s %s", urlErr.Op, urlErr.URL),
			OriginalErr: err,
		}
	}

	return &ClassifiedError{
		Category:    CategoryUnknown,
		Retryable:   true,
		Message:     err.Error(),
		OriginalErr: err,
	}
}

// IsRetryable returns true if the error is classified as retryable.
// Nil errors return false.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return ClassifyError(err).Retryable
}

// NewDataError creates a ClassifiedError for malformed data
// (bad records, bad filters). Data errors are never retried.
func NewDataError(message string, originalErr error) *ClassifiedError {
	return &ClassifiedError{
		Category:    CategoryData,
		Retryable:   false,
		Message:     message,
		OriginalErr: originalErr,
	}
}
