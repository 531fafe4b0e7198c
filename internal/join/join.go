// Package join merges comment records into their owning post records by
// foreign key, producing one composite record per distinct post id.
package join

import (
	"fmt"
	"log/slog"

	"github.com/blogfeed/aggregator/internal/logger"
	"github.com/blogfeed/aggregator/pkg/blog"
)

// Error codes for join failures
const (
	ErrCodeMissingID     = "MISSING_ID"
	ErrCodeMissingPostID = "MISSING_POST_ID"
)

// Record keys used by the join.
const (
	idKey     = "id"
	postIDKey = "postId"
)

// InvalidRecordError indicates a malformed record encountered during the
// join: a post without an id, or a comment without a postId. It signals
// upstream data corruption and is not recoverable locally.
type InvalidRecordError struct {
	Code        string
	Message     string
	RecordIndex int
	Field       string
}

func (e *InvalidRecordError) Error() string {
	return e.Message
}

func newInvalidRecordError(code, field string, recordIdx int) *InvalidRecordError {
	return &InvalidRecordError{
		Code:        code,
		Message:     fmt.Sprintf("record %d is missing required field %q", recordIdx, field),
		RecordIndex: recordIdx,
		Field:       field,
	}
}

// Join merges comments into posts by matching comment postId against post id.
//
// The result contains exactly one composite record per distinct post id, in
// first-occurrence order; a later post with a duplicate id is ignored. Every
// matching comment is appended to its post's "comments" key in the comments
// collection's original order. A post with zero matching comments still
// appears, with an empty comments slice. Inputs are not mutated.
//
// A post missing "id" fails with *InvalidRecordError. A comment missing
// "postId" fails with *InvalidRecordError; an empty comments collection is
// fine.
func Join(posts, comments []blog.Record) ([]blog.Record, error) {
	// Index comments by postId up front. The scan keeps per-post comment
	// order because appends happen in collection order.
	byPost := make(map[interface{}][]blog.Record, len(posts))
	for i, comment := range comments {
		fk, ok := comment[postIDKey]
		if !ok {
			return nil, newInvalidRecordError(ErrCodeMissingPostID, postIDKey, i)
		}
		key := joinKey(fk)
		byPost[key] = append(byPost[key], comment)
	}

	result := make([]blog.Record, 0, len(posts))
	seen := make(map[interface{}]bool, len(posts))

	for i, post := range posts {
		id, ok := post[idKey]
		if !ok {
			return nil, newInvalidRecordError(ErrCodeMissingID, idKey, i)
		}

		key := joinKey(id)
		if seen[key] {
			// First occurrence wins.
			logger.Debug("duplicate post id ignored",
				slog.Int("record_index", i),
				slog.Any("id", id),
			)
			continue
		}
		seen[key] = true

		composite := post.Clone()
		matched := byPost[key]
		commentsCopy := make([]blog.Record, len(matched))
		copy(commentsCopy, matched)
		composite[blog.CommentsKey] = commentsCopy

		result = append(result, composite)
	}

	logger.Debug("join completed",
		slog.Int("posts", len(posts)),
		slog.Int("comments", len(comments)),
		slog.Int("composite_records", len(result)),
	)

	return result, nil
}

// joinKey normalizes an id value for map lookup so that a post id and a
// comment postId match even when one was decoded as float64 and the other
// as int. JSON decoding yields float64 for all numbers, but static sources
// may carry native ints.
func joinKey(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}
