package config

import (
	"strings"
	"testing"
)

func parsedConfig(t *testing.T, content string) map[string]interface{} {
	t.Helper()
	result := ParseJSONString(content)
	if !result.IsValid() {
		t.Fatalf("fixture does not parse: %v", result.Errors)
	}
	return result.Data
}

func TestValidateConfig_Valid(t *testing.T) {
	data := parsedConfig(t, `{
		"schemaVersion": "1.0.0",
		"feed": {
			"name": "blog-feed",
			"sources": {
				"posts": {"type": "http", "endpoint": "https://api.example.com/posts"},
				"comments": {"type": "static", "records": [{"id": 1, "postId": 1}]}
			},
			"cache": {"enabled": true, "ttlSeconds": 120},
			"filters": [
				{"type": "compare", "key": "userId", "operator": "equals", "value": 1},
				{"type": "condition", "expression": "userId == 1"}
			]
		}
	}`)

	result := ValidateConfig(data)
	if !result.Valid {
		t.Errorf("expected valid configuration, got errors: %v", result.Errors)
	}
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		pathContains string
	}{
		{
			name:         "missing feed section",
			content:      `{"schemaVersion": "1.0.0"}`,
			pathContains: "/",
		},
		{
			name: "bad schema version",
			content: `{"schemaVersion": "one", "feed": {"name": "x", "sources": {
				"posts": {"type": "static"}, "comments": {"type": "static"}}}}`,
			pathContains: "schemaVersion",
		},
		{
			name: "http source without endpoint",
			content: `{"schemaVersion": "1.0.0", "feed": {"name": "x", "sources": {
				"posts": {"type": "http"}, "comments": {"type": "static"}}}}`,
			pathContains: "posts",
		},
		{
			name: "unknown filter type",
			content: `{"schemaVersion": "1.0.0", "feed": {"name": "x", "sources": {
				"posts": {"type": "static"}, "comments": {"type": "static"}},
				"filters": [{"type": "regex"}]}}`,
			pathContains: "filters",
		},
		{
			name: "unknown operator",
			content: `{"schemaVersion": "1.0.0", "feed": {"name": "x", "sources": {
				"posts": {"type": "static"}, "comments": {"type": "static"}},
				"filters": [{"type": "compare", "key": "id", "operator": "~", "value": 1}]}}`,
			pathContains: "filters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateConfig(parsedConfig(t, tt.content))
			if result.Valid {
				t.Fatal("expected validation errors, got none")
			}
			found := false
			for _, e := range result.Errors {
				if strings.Contains(e.Path, tt.pathContains) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("no error path contains %q: %v", tt.pathContains, result.Errors)
			}
		})
	}
}

func TestValidateConfig_Empty(t *testing.T) {
	result := ValidateConfig(nil)
	if result.Valid {
		t.Fatal("expected invalid result for nil data")
	}
	if result.Errors[0].Type != "required" {
		t.Errorf("expected required error, got %q", result.Errors[0].Type)
	}
}

func TestGetEmbeddedSchema(t *testing.T) {
	schema := GetEmbeddedSchema()
	if len(schema) == 0 {
		t.Fatal("embedded schema is empty")
	}
	if !strings.Contains(string(schema), "Blogfeed Aggregator Configuration") {
		t.Error("embedded schema missing title")
	}
}
