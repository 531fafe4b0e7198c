// Package source provides record sources for the pipeline.
// This file implements the HTTP source, which fetches a JSON collection
// of records from an endpoint with bounded retries.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/blogfeed/aggregator/internal/errhandling"
	"github.com/blogfeed/aggregator/internal/logger"
	"github.com/blogfeed/aggregator/pkg/blog"
)

// Default configuration values
const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "Blogfeed-Aggregator/1.0"
)

// Error types for the HTTP source
var (
	ErrMissingEndpoint = errors.New("endpoint is required in source configuration")
	ErrHTTPRequest     = errors.New("http request failed")
	ErrJSONParse       = errors.New("failed to parse JSON response")
	ErrInvalidPayload  = errors.New("response does not contain an array of records")
)

// HTTPError represents an HTTP error with status code and context.
type HTTPError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error %d (%s) from %s: %s", e.StatusCode, e.Status, e.Endpoint, e.Message)
}

// HTTPConfig configures an HTTP source.
type HTTPConfig struct {
	// Name identifies the collection ("posts", "comments") in logs
	Name string

	// Endpoint is the HTTP endpoint URL (required)
	Endpoint string

	// Headers are custom HTTP headers applied to every request
	Headers map[string]string

	// Timeout is the per-request timeout (default 30s)
	Timeout time.Duration

	// DataField is the JSON field containing the record array when the
	// response is an object instead of a bare array
	DataField string

	// Retry configures retries for transient transport failures
	Retry errhandling.RetryConfig
}

// HTTP fetches a collection of records from a JSON endpoint.
type HTTP struct {
	name      string
	endpoint  string
	headers   map[string]string
	dataField string
	retry     errhandling.RetryConfig
	client    *http.Client
}

// NewHTTP creates an HTTP source from configuration.
func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	if cfg.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	retry := cfg.Retry
	if err := retry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry configuration: %w", err)
	}

	h := &HTTP{
		name:      cfg.Name,
		endpoint:  cfg.Endpoint,
		headers:   cfg.Headers,
		dataField: cfg.DataField,
		retry:     retry,
		client:    &http.Client{Timeout: timeout},
	}

	logger.Debug("http source created",
		"source", h.name,
		"endpoint", h.endpoint,
		"timeout", timeout.String(),
		"max_attempts", retry.MaxAttempts,
	)

	return h, nil
}

// Fetch retrieves the collection, retrying transient failures per the
// retry configuration.
func (h *HTTP) Fetch(ctx context.Context) ([]blog.Record, error) {
	startTime := time.Now()
	log := logger.WithSource(h.name, h.endpoint)

	log.Info("fetch started")

	executor := errhandling.NewRetryExecutor(h.retry)
	records, err := executor.Execute(ctx, h.fetchOnce)

	duration := time.Since(startTime)
	info := executor.GetRetryInfo()

	if err != nil {
		log.Error("fetch failed",
			"duration", duration,
			"attempts", info.TotalAttempts,
			"error", err.Error(),
		)
		return nil, err
	}

	log.Info("fetch completed",
		"record_count", len(records),
		"duration", duration,
		"retries", info.RetryCount,
	)

	return records, nil
}

// fetchOnce executes a single HTTP GET request and parses the records.
func (h *HTTP) fetchOnce(ctx context.Context) ([]blog.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating http request: %w", err)
	}

	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/json")
	for key, value := range h.headers {
		req.Header.Set(key, value)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHTTPRequest, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("failed to close response body",
				"endpoint", h.endpoint,
				"error", closeErr.Error(),
			)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		// Truncate response body for the error message (max 500 chars)
		bodySnippet := string(body)
		if len(bodySnippet) > 500 {
			bodySnippet = bodySnippet[:500] + "..."
		}

		httpErr := &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Endpoint:   h.endpoint,
			Message:    bodySnippet,
		}
		classified := errhandling.ClassifyHTTPStatus(resp.StatusCode, httpErr.Message)
		classified.OriginalErr = httpErr
		return nil, classified
	}

	return h.parseResponse(body)
}

// parseResponse parses the JSON response and extracts records.
// Accepts either a bare array or an object holding the array under
// the configured data field.
func (h *HTTP) parseResponse(body []byte) ([]blog.Record, error) {
	var arrayResult []blog.Record
	if err := json.Unmarshal(body, &arrayResult); err == nil {
		return arrayResult, nil
	}

	var objectResult map[string]json.RawMessage
	if err := json.Unmarshal(body, &objectResult); err != nil {
		return nil, errhandling.NewDataError("response is not valid JSON", fmt.Errorf("%w: %w", ErrJSONParse, err))
	}

	if h.dataField == "" {
		return nil, errhandling.NewDataError("object response requires a dataField", ErrInvalidPayload)
	}

	raw, ok := objectResult[h.dataField]
	if !ok {
		return nil, errhandling.NewDataError(
			fmt.Sprintf("field %q not found in response", h.dataField), ErrInvalidPayload,
		)
	}
	if err := json.Unmarshal(raw, &arrayResult); err != nil {
		return nil, errhandling.NewDataError(
			fmt.Sprintf("field %q does not contain an array", h.dataField),
			fmt.Errorf("%w: %w", ErrInvalidPayload, err),
		)
	}
	return arrayResult, nil
}

// Verify interface compliance at compile time
var _ Source = (*HTTP)(nil)
