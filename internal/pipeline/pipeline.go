// Package pipeline orchestrates the blog aggregation stages: retrieve both
// collections, join comments into posts, apply filter rules, sort, and
// serialize the resulting composite dataset.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/blogfeed/aggregator/internal/filter"
	"github.com/blogfeed/aggregator/internal/join"
	"github.com/blogfeed/aggregator/internal/logger"
	"github.com/blogfeed/aggregator/internal/source"
	"github.com/blogfeed/aggregator/pkg/blog"
)

// Pipeline runs one aggregation pass over a posts source and a comments
// source. A Pipeline is single-use state for one invocation: create a new
// one per run rather than sharing an instance across runs.
type Pipeline struct {
	posts    source.Source
	comments source.Source

	dataset   []blog.Record
	retrieved bool
}

// New creates a pipeline over the given posts and comments sources.
func New(posts, comments source.Source) *Pipeline {
	return &Pipeline{
		posts:    posts,
		comments: comments,
	}
}

// Retrieve fetches both collections sequentially and joins comments into
// posts. A failed fetch degrades that collection to empty rather than
// aborting the run; the returned report records which sources degraded.
// Join errors (records missing their id or postId) abort the run.
func (p *Pipeline) Retrieve(ctx context.Context) (*blog.FetchReport, error) {
	report := &blog.FetchReport{
		Posts:    blog.SourceStatus{Name: "posts"},
		Comments: blog.SourceStatus{Name: "comments"},
	}

	posts := p.fetchCollection(ctx, p.posts, &report.Posts)
	comments := p.fetchCollection(ctx, p.comments, &report.Comments)

	joined, err := join.Join(posts, comments)
	if err != nil {
		return report, fmt.Errorf("joining collections: %w", err)
	}

	p.dataset = joined
	p.retrieved = true

	logger.Debug("retrieve completed",
		"posts", report.Posts.Records,
		"comments", report.Comments.Records,
		"composites", len(joined),
		"degraded", report.Degraded(),
	)
	return report, nil
}

func (p *Pipeline) fetchCollection(ctx context.Context, src source.Source, status *blog.SourceStatus) []blog.Record {
	records, err := src.Fetch(ctx)
	if err != nil {
		status.Degraded = true
		status.Error = err.Error()
		logger.Warn("fetch failed, continuing with empty collection",
			"source", status.Name,
			"error", err.Error(),
		)
		return nil
	}
	status.Records = len(records)
	return records
}

// Filter keeps the composite records that have at least one comment and
// satisfy every given predicate. Predicates combine with AND and evaluation
// short-circuits on the first false. The dataset is only replaced when the
// whole pass succeeds, so a predicate error leaves it untouched.
func (p *Pipeline) Filter(preds []filter.Predicate) error {
	if !p.retrieved {
		return fmt.Errorf("filter called before retrieve")
	}

	kept := make([]blog.Record, 0, len(p.dataset))
	for _, rec := range p.dataset {
		if len(rec.Comments()) == 0 {
			continue
		}

		keep := true
		for _, pred := range preds {
			ok, err := pred.Evaluate(rec)
			if err != nil {
				return fmt.Errorf("evaluating filter: %w", err)
			}
			if !ok {
				keep = false
				break
			}
		}
		if keep {
			kept = append(kept, rec)
		}
	}

	logger.Debug("filter completed",
		"input", len(p.dataset),
		"kept", len(kept),
		"rules", len(preds),
	)
	p.dataset = kept
	return nil
}

// Sort orders the dataset by numeric post id, ascending. Records whose id
// does not coerce to a number sort after all numeric ids. The sort is
// stable, so equal ids keep their join order.
func (p *Pipeline) Sort() {
	sort.SliceStable(p.dataset, func(i, j int) bool {
		a, aok := recordID(p.dataset[i])
		b, bok := recordID(p.dataset[j])
		if aok != bok {
			return aok
		}
		if !aok {
			return false
		}
		return a < b
	})
}

func recordID(rec blog.Record) (float64, bool) {
	v, ok := rec["id"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Serialize returns the dataset as a JSON array. Each record marshals with
// the canonical key order; an empty dataset serializes as "[]".
func (p *Pipeline) Serialize() (string, error) {
	if len(p.dataset) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(p.dataset)
	if err != nil {
		return "", fmt.Errorf("serializing dataset: %w", err)
	}
	return string(data), nil
}

// Dataset returns the current composite records. The slice is shared with
// the pipeline; callers that mutate it see the effect in later stages.
func (p *Pipeline) Dataset() []blog.Record {
	return p.dataset
}

// Result bundles the output of a full pipeline run.
type Result struct {
	Output   string
	Records  int
	Report   *blog.FetchReport
	Duration time.Duration
}

// Run executes all stages in order: retrieve, filter, sort, serialize.
func (p *Pipeline) Run(ctx context.Context, preds []filter.Predicate) (*Result, error) {
	start := time.Now()
	log := logger.WithStage("pipeline")

	report, err := p.Retrieve(ctx)
	if err != nil {
		return nil, err
	}

	if err := p.Filter(preds); err != nil {
		return nil, err
	}

	p.Sort()

	output, err := p.Serialize()
	if err != nil {
		return nil, err
	}

	result := &Result{
		Output:   output,
		Records:  len(p.dataset),
		Report:   report,
		Duration: time.Since(start),
	}
	log.Info("run completed",
		"records", result.Records,
		"degraded", report.Degraded(),
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}
