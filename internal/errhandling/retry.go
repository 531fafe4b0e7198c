// Package errhandling provides error classification and retry utilities.
// This file defines retry configuration and the retry executor used by
// the HTTP record source.
package errhandling

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/blogfeed/aggregator/pkg/blog"
)

// Default retry configuration values
const (
	DefaultMaxAttempts       = 3
	DefaultDelayMs           = 1000
	DefaultBackoffMultiplier = 2.0
	DefaultMaxDelayMs        = 30000
	MaxRetryAttempts         = 10
	MinBackoffMultiplier     = 1.0
)

// RetryConfig holds retry configuration for a record source.
// It determines how transient transport errors are handled with automatic
// retries before the pipeline falls back to an empty collection.
type RetryConfig struct {
	// MaxAttempts is the maximum number of retry attempts (0 = no retry).
	// Default: 3, Max: 10
	MaxAttempts int `json:"maxAttempts"`

	// DelayMs is the initial delay between retries in milliseconds.
	// Default: 1000
	DelayMs int `json:"delayMs"`

	// BackoffMultiplier is the multiplier for exponential backoff.
	// Default: 2.0, Min: 1.0
	BackoffMultiplier float64 `json:"backoffMultiplier"`

	// MaxDelayMs is the maximum delay between retries in milliseconds.
	// Default: 30000
	MaxDelayMs int `json:"maxDelayMs"`
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       DefaultMaxAttempts,
		DelayMs:           DefaultDelayMs,
		BackoffMultiplier: DefaultBackoffMultiplier,
		MaxDelayMs:        DefaultMaxDelayMs,
	}
}

// Validate validates the retry configuration.
// Returns an error if any value is out of valid range.
func (c RetryConfig) Validate() error {
	if c.MaxAttempts < 0 {
		return errors.New("maxAttempts must be >= 0")
	}
	if c.MaxAttempts > MaxRetryAttempts {
		return fmt.Errorf("maxAttempts must be <= %d", MaxRetryAttempts)
	}
	if c.DelayMs < 0 {
		return errors.New("delayMs must be >= 0")
	}
	if c.BackoffMultiplier < MinBackoffMultiplier {
		return fmt.Errorf("backoffMultiplier must be >= %v", MinBackoffMultiplier)
	}
	if c.MaxDelayMs < 0 {
		return errors.New("maxDelayMs must be >= 0")
	}
	return nil
}

// CalculateDelay calculates the retry delay for a given attempt using
// exponential backoff: min(delayMs * (backoffMultiplier ^ attempt), maxDelayMs).
func (c RetryConfig) CalculateDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delayMs := float64(c.DelayMs) * math.Pow(c.BackoffMultiplier, float64(attempt))
	if delayMs > float64(c.MaxDelayMs) {
		delayMs = float64(c.MaxDelayMs)
	}

	return time.Duration(delayMs) * time.Millisecond
}

// FetchFunc is a record-fetching function that can be retried.
type FetchFunc func(ctx context.Context) ([]blog.Record, error)

// RetryInfo contains information about retry attempts.
type RetryInfo struct {
	// TotalAttempts is the total number of attempts made.
	TotalAttempts int

	// RetryCount is the number of retries (TotalAttempts - 1).
	RetryCount int

	// TotalDuration is the total time spent including retries.
	TotalDuration time.Duration

	// Errors is the list of errors encountered during retries.
	Errors []error
}

// RetryExecutor executes fetch functions with retry logic.
type RetryExecutor struct {
	config    RetryConfig
	retryInfo RetryInfo
}

// NewRetryExecutor creates a new retry executor with the given configuration.
func NewRetryExecutor(config RetryConfig) *RetryExecutor {
	return &RetryExecutor{config: config}
}

// Execute runs the given fetch function with retry logic.
// It retries on transient errors up to MaxAttempts times, honoring
// context cancellation both before an attempt and while waiting.
func (e *RetryExecutor) Execute(ctx context.Context, fn FetchFunc) ([]blog.Record, error) {
	startTime := time.Now()
	e.retryInfo = RetryInfo{}

	var lastErr error
	maxAttempts := e.config.MaxAttempts + 1 // initial attempt + retries

	for attempt := 0; attempt < maxAttempts; attempt++ {
		e.retryInfo.TotalAttempts = attempt + 1

		select {
		case <-ctx.Done():
			e.retryInfo.TotalDuration = time.Since(startTime)
			return nil, ClassifyError(ctx.Err())
		default:
		}

		records, err := fn(ctx)
		if err == nil {
			e.retryInfo.RetryCount = attempt
			e.retryInfo.TotalDuration = time.Since(startTime)
			return records, nil
		}

		lastErr = err
		e.retryInfo.Errors = append(e.retryInfo.Errors, err)

		if !IsRetryable(err) {
			e.retryInfo.TotalDuration = time.Since(startTime)
			return nil, err
		}

		if attempt >= e.config.MaxAttempts {
			break
		}

		delay := e.config.CalculateDelay(attempt)
		select {
		case <-ctx.Done():
			e.retryInfo.TotalDuration = time.Since(startTime)
			return nil, ClassifyError(ctx.Err())
		case <-time.After(delay):
		}
	}

	e.retryInfo.RetryCount = e.retryInfo.TotalAttempts - 1
	e.retryInfo.TotalDuration = time.Since(startTime)
	return nil, lastErr
}

// GetRetryInfo returns information about the last Execute call.
func (e *RetryExecutor) GetRetryInfo() RetryInfo {
	return e.retryInfo
}
