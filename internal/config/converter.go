package config

import (
	"fmt"

	"github.com/blogfeed/aggregator/internal/errhandling"
	"github.com/blogfeed/aggregator/pkg/blog"
)

// ConvertToConfig converts parsed configuration data to a typed Config.
// The input data should have been validated against the schema before
// calling this function.
//
// The configuration is expected to have this structure:
//
//	{
//	  "schemaVersion": "1.0.0",
//	  "feed": {
//	    "name": "...",
//	    "sources": {"posts": {...}, "comments": {...}},
//	    "cache": {...},
//	    "filters": [...]
//	  }
//	}
func ConvertToConfig(data map[string]interface{}) (*Config, error) {
	if data == nil {
		return nil, fmt.Errorf("configuration data is nil")
	}

	cfg := &Config{}

	if version, ok := data["schemaVersion"].(string); ok {
		cfg.SchemaVersion = version
	} else {
		return nil, fmt.Errorf("missing required field 'schemaVersion'")
	}

	feedData, ok := data["feed"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'feed' section")
	}

	if name, okName := feedData["name"].(string); okName {
		cfg.Feed.Name = name
	} else {
		return nil, fmt.Errorf("missing required field 'feed.name'")
	}
	if description, okDesc := feedData["description"].(string); okDesc {
		cfg.Feed.Description = description
	}

	sourcesData, ok := feedData["sources"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'feed.sources' section")
	}

	postsData, ok := sourcesData["posts"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'feed.sources.posts' section")
	}
	posts, err := convertSourceConfig(postsData)
	if err != nil {
		return nil, fmt.Errorf("invalid posts source: %w", err)
	}
	cfg.Feed.Sources.Posts = *posts

	commentsData, ok := sourcesData["comments"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'feed.sources.comments' section")
	}
	comments, err := convertSourceConfig(commentsData)
	if err != nil {
		return nil, fmt.Errorf("invalid comments source: %w", err)
	}
	cfg.Feed.Sources.Comments = *comments

	if cacheData, okCache := feedData["cache"].(map[string]interface{}); okCache {
		cfg.Feed.Cache = convertCacheConfig(cacheData)
	}

	if filtersData, okFilters := feedData["filters"].([]interface{}); okFilters {
		for i, filterData := range filtersData {
			filterMap, isMap := filterData.(map[string]interface{})
			if !isMap {
				return nil, fmt.Errorf("invalid filter at index %d", i)
			}
			filterCfg, convertErr := convertFilterConfig(filterMap)
			if convertErr != nil {
				return nil, fmt.Errorf("invalid filter at index %d: %w", i, convertErr)
			}
			cfg.Feed.Filters = append(cfg.Feed.Filters, *filterCfg)
		}
	}

	return cfg, nil
}

// convertSourceConfig converts a raw source configuration map to SourceConfig.
func convertSourceConfig(data map[string]interface{}) (*SourceConfig, error) {
	sourceType, ok := data["type"].(string)
	if !ok {
		return nil, fmt.Errorf("missing required field 'type'")
	}

	cfg := &SourceConfig{
		Type:  sourceType,
		Retry: errhandling.DefaultRetryConfig(),
	}

	if endpoint, okEndpoint := data["endpoint"].(string); okEndpoint {
		cfg.Endpoint = endpoint
	}
	if dataField, okField := data["dataField"].(string); okField {
		cfg.DataField = dataField
	}
	if timeout, okTimeout := asInt(data["timeoutMs"]); okTimeout {
		cfg.TimeoutMs = timeout
	}

	if headers, okHeaders := data["headers"].(map[string]interface{}); okHeaders {
		cfg.Headers = make(map[string]string, len(headers))
		for key, value := range headers {
			strValue, okStr := value.(string)
			if !okStr {
				return nil, fmt.Errorf("invalid header value for key %q: expected string, got %T", key, value)
			}
			cfg.Headers[key] = strValue
		}
	}

	if retryData, okRetry := data["retry"].(map[string]interface{}); okRetry {
		if maxAttempts, okVal := asInt(retryData["maxAttempts"]); okVal {
			cfg.Retry.MaxAttempts = maxAttempts
		}
		if delayMs, okVal := asInt(retryData["delayMs"]); okVal {
			cfg.Retry.DelayMs = delayMs
		}
		if multiplier, okVal := asFloat(retryData["backoffMultiplier"]); okVal {
			cfg.Retry.BackoffMultiplier = multiplier
		}
		if maxDelayMs, okVal := asInt(retryData["maxDelayMs"]); okVal {
			cfg.Retry.MaxDelayMs = maxDelayMs
		}
	}

	if recordsData, okRecords := data["records"].([]interface{}); okRecords {
		cfg.Records = make([]blog.Record, 0, len(recordsData))
		for i, recordData := range recordsData {
			recordMap, isMap := recordData.(map[string]interface{})
			if !isMap {
				return nil, fmt.Errorf("invalid record at index %d: expected object, got %T", i, recordData)
			}
			cfg.Records = append(cfg.Records, blog.Record(recordMap))
		}
	}

	return cfg, nil
}

// convertCacheConfig converts a raw cache configuration map to CacheConfig.
func convertCacheConfig(data map[string]interface{}) CacheConfig {
	cfg := CacheConfig{}
	if enabled, ok := data["enabled"].(bool); ok {
		cfg.Enabled = enabled
	}
	if ttl, ok := asInt(data["ttlSeconds"]); ok {
		cfg.TTLSeconds = ttl
	}
	return cfg
}

// convertFilterConfig converts a raw filter entry map to FilterConfig.
func convertFilterConfig(data map[string]interface{}) (*FilterConfig, error) {
	filterType, ok := data["type"].(string)
	if !ok {
		return nil, fmt.Errorf("missing required field 'type'")
	}

	cfg := &FilterConfig{Type: filterType}

	if key, okKey := data["key"].(string); okKey {
		cfg.Key = key
	}
	if operator, okOp := data["operator"].(string); okOp {
		cfg.Operator = operator
	}
	if value, okValue := data["value"]; okValue {
		cfg.Value = value
	}
	if expression, okExpr := data["expression"].(string); okExpr {
		cfg.Expression = expression
	}
	if src, okSrc := data["source"].(string); okSrc {
		cfg.Source = src
	}

	return cfg, nil
}

// asInt coerces a configuration value to int. JSON decoding yields float64
// and YAML decoding yields int, so both are accepted.
func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

// asFloat coerces a configuration value to float64.
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
