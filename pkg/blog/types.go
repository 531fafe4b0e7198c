// Package blog provides the public record types shared by every pipeline stage.
// This package is intended to be importable by external projects that need
// to consume the aggregator's joined blog content.
package blog

import (
	"bytes"
	"encoding/json"
	"sort"
)

// CommentsKey is the record key holding the joined comments of a post.
const CommentsKey = "comments"

// canonicalKeys is the serialization order for composite record fields.
// Keys not listed here are appended in sorted order.
var canonicalKeys = []string{"id", "userId", "title", "body", "created_at", CommentsKey}

// Record is a single key-value record as fetched from a remote source.
// Posts, comments, and joined composite records all share this shape;
// a composite record additionally carries a "comments" key with the
// post's comments as []Record in source order.
type Record map[string]interface{}

// Field returns the value stored under key and whether the key is present.
func (r Record) Field(key string) (interface{}, bool) {
	v, ok := r[key]
	return v, ok
}

// Comments returns the joined comments of a composite record.
// Returns nil for records that have not been through the join stage.
func (r Record) Comments() []Record {
	if v, ok := r[CommentsKey].([]Record); ok {
		return v
	}
	return nil
}

// Clone returns a shallow copy of the record. Nested values are shared.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// MarshalJSON serializes the record with a deterministic key order:
// the canonical composite fields (id, userId, title, body, created_at,
// comments) first, in that order, followed by any remaining keys sorted
// alphabetically. Nested comment records marshal the same way.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	writeField := func(key string) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false

		kb, err := json.Marshal(key)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')

		vb, err := json.Marshal(r[key])
		if err != nil {
			return err
		}
		buf.Write(vb)
		return nil
	}

	seen := make(map[string]bool, len(canonicalKeys))
	for _, key := range canonicalKeys {
		seen[key] = true
		if _, ok := r[key]; !ok {
			continue
		}
		if err := writeField(key); err != nil {
			return nil, err
		}
	}

	rest := make([]string, 0, len(r))
	for key := range r {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		if err := writeField(key); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SourceStatus describes the outcome of fetching one collection.
type SourceStatus struct {
	// Name identifies the collection ("posts" or "comments")
	Name string `json:"name"`

	// Records is the number of records fetched (0 when degraded)
	Records int `json:"records"`

	// Degraded is true when the fetch failed and the collection was
	// replaced with an empty one
	Degraded bool `json:"degraded"`

	// Error is the failure reason when Degraded is true
	Error string `json:"error,omitempty"`
}

// FetchReport is the per-retrieve result wrapper. It lets callers
// distinguish "zero posts" from "posts fetch failed but degraded to empty".
type FetchReport struct {
	Posts    SourceStatus `json:"posts"`
	Comments SourceStatus `json:"comments"`
}

// Degraded returns true if either source fetch failed.
func (r *FetchReport) Degraded() bool {
	return r.Posts.Degraded || r.Comments.Degraded
}
