package config

import (
	"fmt"
	"time"

	"github.com/blogfeed/aggregator/internal/cache"
	"github.com/blogfeed/aggregator/internal/errhandling"
	"github.com/blogfeed/aggregator/internal/filter"
	"github.com/blogfeed/aggregator/internal/source"
)

// Source type identifiers accepted in configuration.
const (
	SourceTypeHTTP   = "http"
	SourceTypeStatic = "static"
)

// Filter type identifiers accepted in configuration.
const (
	FilterTypeCompare   = "compare"
	FilterTypeCondition = "condition"
	FilterTypeScript    = "script"
)

// BuildSources constructs the posts and comments sources from the
// configuration, wrapping both in a TTL cache when caching is enabled.
func BuildSources(cfg *Config) (posts, comments source.Source, err error) {
	posts, err = buildSource("posts", cfg.Feed.Sources.Posts)
	if err != nil {
		return nil, nil, err
	}
	comments, err = buildSource("comments", cfg.Feed.Sources.Comments)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Feed.Cache.Enabled {
		ttl := time.Duration(cfg.Feed.Cache.TTLSeconds) * time.Second
		posts = cache.Wrap(posts, ttl)
		comments = cache.Wrap(comments, ttl)
	}

	return posts, comments, nil
}

func buildSource(name string, cfg SourceConfig) (source.Source, error) {
	switch cfg.Type {
	case SourceTypeHTTP:
		if cfg.Retry == (errhandling.RetryConfig{}) {
			cfg.Retry = errhandling.DefaultRetryConfig()
		}
		return source.NewHTTP(source.HTTPConfig{
			Name:      name,
			Endpoint:  cfg.Endpoint,
			Headers:   cfg.Headers,
			Timeout:   time.Duration(cfg.TimeoutMs) * time.Millisecond,
			DataField: cfg.DataField,
			Retry:     cfg.Retry,
		})
	case SourceTypeStatic:
		return source.NewStatic(cfg.Records), nil
	default:
		return nil, fmt.Errorf("unknown source type %q for %s source", cfg.Type, name)
	}
}

// BuildPredicates constructs the ordered predicate list from the
// configuration's filter entries. Construction fails fast on the first
// invalid entry.
func BuildPredicates(cfg *Config) ([]filter.Predicate, error) {
	preds := make([]filter.Predicate, 0, len(cfg.Feed.Filters))
	for i, entry := range cfg.Feed.Filters {
		pred, err := buildPredicate(entry)
		if err != nil {
			return nil, fmt.Errorf("filter at index %d: %w", i, err)
		}
		preds = append(preds, pred)
	}
	return preds, nil
}

func buildPredicate(entry FilterConfig) (filter.Predicate, error) {
	switch entry.Type {
	case FilterTypeCompare:
		op, err := filter.ParseOperator(entry.Operator)
		if err != nil {
			return nil, err
		}
		value, err := buildValue(op, entry.Value)
		if err != nil {
			return nil, err
		}
		return filter.New(entry.Key, op, value)
	case FilterTypeCondition:
		return filter.NewExpr(entry.Expression)
	case FilterTypeScript:
		return filter.NewScript(entry.Source)
	default:
		return nil, fmt.Errorf("unknown filter type %q", entry.Type)
	}
}

// buildValue maps a raw configuration value to the discriminated filter
// value: between takes a two-element array, every other operator a scalar.
func buildValue(op filter.Operator, raw interface{}) (filter.Value, error) {
	if op == filter.OpBetween {
		vals, ok := raw.([]interface{})
		if !ok {
			return filter.Value{}, fmt.Errorf("between requires an array value, got %T", raw)
		}
		return filter.RangeFromSlice(vals)
	}
	if _, isSlice := raw.([]interface{}); isSlice {
		return filter.Value{}, fmt.Errorf("operator %s requires a scalar value, got array", op)
	}
	return filter.Scalar(raw), nil
}
