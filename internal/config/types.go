// Package config provides functionality for parsing and validating
// feed configuration files (JSON/YAML) and building pipeline components
// from them.
package config

import (
	"fmt"
	"strings"

	"github.com/blogfeed/aggregator/internal/errhandling"
	"github.com/blogfeed/aggregator/pkg/blog"
)

// Config is the fully typed feed configuration.
type Config struct {
	SchemaVersion string
	Feed          Feed
}

// Feed describes one aggregation run: the two record sources, optional
// caching, and the ordered filter list.
type Feed struct {
	Name        string
	Description string
	Sources     Sources
	Cache       CacheConfig
	Filters     []FilterConfig
}

// Sources holds the posts and comments source configurations.
type Sources struct {
	Posts    SourceConfig
	Comments SourceConfig
}

// SourceConfig configures a single record source.
// Type is "http" or "static"; the HTTP fields apply only to the former
// and Records only to the latter.
type SourceConfig struct {
	Type      string
	Endpoint  string
	Headers   map[string]string
	TimeoutMs int
	DataField string
	Retry     errhandling.RetryConfig
	Records   []blog.Record
}

// CacheConfig enables TTL memoization of the sources within a run.
type CacheConfig struct {
	Enabled    bool
	TTLSeconds int
}

// FilterConfig is one entry of the ordered filter list.
// Type selects the predicate kind: "compare" uses Key/Operator/Value,
// "condition" uses Expression, "script" uses Source.
type FilterConfig struct {
	Type       string
	Key        string
	Operator   string
	Value      interface{}
	Expression string
	Source     string
}

// ParseResult contains the result of parsing a configuration file.
type ParseResult struct {
	// Data contains the parsed configuration as a map
	Data map[string]interface{}
	// Errors contains any parsing errors encountered
	Errors []ParseError
	// FilePath is the path to the parsed file (empty if parsed from string)
	FilePath string
	// Format indicates the detected format (json, yaml)
	Format string
}

// IsValid returns true if no parsing errors occurred.
func (r *ParseResult) IsValid() bool {
	return len(r.Errors) == 0
}

// ParseError represents a parsing error with location information.
type ParseError struct {
	// Path is the file path where the error occurred
	Path string
	// Line is the line number (1-based, 0 if unknown)
	Line int
	// Column is the column number (1-based, 0 if unknown)
	Column int
	// Offset is the byte offset in the file (0 if unknown)
	Offset int64
	// Message is the error message
	Message string
	// Type categorizes the error (syntax, io, format)
	Type string
}

// Error implements the error interface.
func (e ParseError) Error() string {
	var sb strings.Builder
	if e.Path != "" {
		sb.WriteString(e.Path)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d", e.Line))
		if e.Column > 0 {
			sb.WriteString(fmt.Sprintf(", column %d", e.Column))
		}
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	return sb.String()
}

// ValidationResult contains the result of validating a configuration.
type ValidationResult struct {
	// Valid indicates whether the configuration is valid
	Valid bool
	// Errors contains validation errors
	Errors []ValidationError
}

// ValidationError represents a schema validation error.
type ValidationError struct {
	// Path is the JSON path where the error occurred (e.g., "/feed/sources/posts")
	Path string
	// Type is the error type (required, type, format, enum, etc.)
	Type string
	// Message is the error message
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// Result contains the combined result of parsing and validation.
type Result struct {
	// Data contains the parsed and validated configuration
	Data map[string]interface{}
	// ParseErrors contains parsing errors
	ParseErrors []ParseError
	// ValidationErrors contains validation errors
	ValidationErrors []ValidationError
	// FilePath is the path to the configuration file
	FilePath string
	// Format is the detected format (json, yaml)
	Format string
}

// IsValid returns true if no errors occurred.
func (r *Result) IsValid() bool {
	return len(r.ParseErrors) == 0 && len(r.ValidationErrors) == 0
}

// AllErrors returns all errors (parsing and validation) as a single slice.
func (r *Result) AllErrors() []error {
	errors := make([]error, 0, len(r.ParseErrors)+len(r.ValidationErrors))
	for _, e := range r.ParseErrors {
		errors = append(errors, e)
	}
	for _, e := range r.ValidationErrors {
		errors = append(errors, e)
	}
	return errors
}

// FormatErrorType constants for categorizing parse errors.
const (
	ErrorTypeIO     = "io"
	ErrorTypeSyntax = "syntax"
	ErrorTypeFormat = "format"
)
