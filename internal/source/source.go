// Package source provides record sources for the pipeline.
// A source supplies one raw collection of key-value records.
package source

import (
	"context"

	"github.com/blogfeed/aggregator/pkg/blog"
)

// Source supplies a raw collection of records from a remote or local origin.
type Source interface {
	// Fetch retrieves the collection. A transport failure is returned as
	// an error; the pipeline decides whether to degrade to empty.
	Fetch(ctx context.Context) ([]blog.Record, error)
}

// Static is an in-memory source, used by tests and the "static"
// config source type.
type Static struct {
	records []blog.Record
	err     error
}

// NewStatic creates a source that always returns the given records.
func NewStatic(records []blog.Record) *Static {
	return &Static{records: records}
}

// NewStaticError creates a source that always fails with err.
func NewStaticError(err error) *Static {
	return &Static{err: err}
}

// Fetch implements the Source interface.
func (s *Static) Fetch(ctx context.Context) ([]blog.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if s.err != nil {
		return nil, s.err
	}
	out := make([]blog.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Verify interface compliance at compile time
var _ Source = (*Static)(nil)
