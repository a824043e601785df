package search

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/productbazar/searchd/internal/history"
	"github.com/productbazar/searchd/internal/metrics"
)

// Coordinator fans a search out to the entity indexes, decorates the
// hits, shapes the response envelope and records executed queries to
// history. It is the only writer of history for a given identity.
type Coordinator struct {
	Indexes    map[Kind]EntityIndex
	Spelling   *SpellingIndex
	Categories *CategoryResolver
	History    history.Store
	Composer   *Composer

	MinQueryLength int
	DefaultLimit   int
	MaxLimit       int
	SearchTimeout  time.Duration
	SuggestTimeout time.Duration
	IndexTimeout   time.Duration

	Logger *log.Logger
}

// Request is one search or suggestions invocation.
type Request struct {
	Query string
	Type  Kind
	Limit int
	// NaturalLanguage is accepted for wire compatibility and ignored:
	// ranking stays on the deterministic lexical path.
	NaturalLanguage bool
}

// Response is the shaped search envelope. Results holds one entry per
// requested kind; a kind whose index failed or returned nothing maps to
// an empty slice.
type Response struct {
	Results   map[string]any
	Truncated bool
}

// NewCoordinator wires a coordinator with defaults where the caller
// left zero values.
func NewCoordinator(indexes map[Kind]EntityIndex, spelling *SpellingIndex, categories *CategoryResolver, hist history.Store, logger *log.Logger) *Coordinator {
	c := &Coordinator{
		Indexes:        indexes,
		Spelling:       spelling,
		Categories:     categories,
		History:        hist,
		MinQueryLength: 2,
		DefaultLimit:   DefaultLimit,
		MaxLimit:       50,
		SearchTimeout:  time.Second,
		SuggestTimeout: 500 * time.Millisecond,
		IndexTimeout:   250 * time.Millisecond,
		Logger:         logger,
	}
	c.Composer = &Composer{
		Indexes:  indexes,
		History:  hist,
		Spelling: spelling,
		Max:      DefaultMaxSuggest,
		Logger:   logger,
	}
	return c
}

// Search normalizes the query, fans out to the indexes for the
// requested kinds, gathers and decorates the hits, and records the
// executed query to history best-effort. A failed index degrades to an
// empty result set for that kind; a blown deadline returns whatever was
// gathered with Truncated set.
func (c *Coordinator) Search(ctx context.Context, req Request, identity string) (Response, error) {
	started := time.Now()
	n := Normalize(req.Query)
	if n.Length < c.MinQueryLength {
		return Response{Results: map[string]any{}}, nil
	}

	limit := req.Limit
	if limit <= 0 {
		limit = c.DefaultLimit
	}
	if limit > c.MaxLimit {
		limit = c.MaxLimit
	}

	kinds := req.Type.Expand()
	metrics.SearchRequestsTotal.WithLabelValues(string(req.Type), "lexical").Inc()

	runCtx, cancel := context.WithTimeout(ctx, c.SearchTimeout)
	defer cancel()

	type gathered struct {
		hits []Hit
		err  error
	}
	results := make([]gathered, len(kinds))

	var g errgroup.Group
	for i, kind := range kinds {
		idx, ok := c.Indexes[kind]
		if !ok {
			continue
		}
		g.Go(func() error {
			lookupCtx, lookupCancel := context.WithTimeout(runCtx, c.IndexTimeout)
			defer lookupCancel()
			hits, err := idx.Lookup(lookupCtx, n.Canonical, limit)
			results[i] = gathered{hits: hits, err: err}
			return nil
		})
	}
	_ = g.Wait()

	truncated := false
	total := 0
	envelope := make(map[string]any, len(kinds))
	for i, kind := range kinds {
		res := results[i]
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) || errors.Is(res.err, context.Canceled) {
				truncated = true
			}
			metrics.IndexErrorsTotal.WithLabelValues(string(kind)).Inc()
			c.logf("search: %s index unavailable: %v", kind, res.err)
			envelope[string(kind)] = []any{}
			continue
		}
		payloads := make([]any, 0, len(res.hits))
		for _, hit := range res.hits {
			payloads = append(payloads, c.decorate(hit))
		}
		envelope[string(kind)] = payloads
		total += len(payloads)
	}

	metrics.SearchDuration.WithLabelValues(string(req.Type)).Observe(time.Since(started).Seconds())

	// Zero-hit queries are recorded too: they feed suggestion
	// personalization. A canceled request must never reach history.
	if identity != "" && c.History != nil && ctx.Err() == nil {
		c.recordHistory(identity, n.Canonical, req.Type, total)
	}

	return Response{Results: envelope, Truncated: truncated}, nil
}

// Suggestions composes completion, history and spelling suggestions
// for the query. Cancellation yields an empty list without error: the
// caller has already superseded this query.
func (c *Coordinator) Suggestions(ctx context.Context, req Request, identity string) ([]Suggestion, error) {
	n := Normalize(req.Query)
	if n.Length < c.MinQueryLength {
		return []Suggestion{}, nil
	}

	runCtx, cancel := context.WithTimeout(ctx, c.SuggestTimeout)
	defer cancel()

	suggestions := c.Composer.Compose(runCtx, n, req.Type, identity)
	if ctx.Err() != nil {
		return []Suggestion{}, nil
	}
	for _, s := range suggestions {
		metrics.SuggestionsTotal.WithLabelValues(string(s.Source)).Inc()
	}
	return suggestions, nil
}

// decorate attaches cross-entity metadata to a hit; today that is
// category-name resolution for products and projects. Payloads are
// copied before mutation: the originals live in the shared index
// snapshot.
func (c *Coordinator) decorate(hit Hit) any {
	if c.Categories == nil {
		return hit.Payload
	}
	switch p := hit.Payload.(type) {
	case *ProductHit:
		if p.CategoryName == "" {
			cp := *p
			cp.CategoryName = c.Categories.Name(cp.Category)
			return &cp
		}
	case *ProjectHit:
		if p.CategoryName == "" {
			cp := *p
			cp.CategoryName = c.Categories.Name(cp.Category)
			return &cp
		}
	}
	return hit.Payload
}

// recordHistory appends at-most-once and swallows failures: history is
// an enrichment, never a reason to fail a search.
func (c *Coordinator) recordHistory(identity, canonical string, kind Kind, resultCount int) {
	writeCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := c.History.Append(writeCtx, identity, history.Entry{
		Query:       canonical,
		Kind:        string(kind),
		ResultCount: resultCount,
	})
	if err != nil {
		metrics.HistoryAppendsTotal.WithLabelValues("error").Inc()
		c.logf("search: history append dropped: %v", err)
		return
	}
	metrics.HistoryAppendsTotal.WithLabelValues("ok").Inc()
}

func (c *Coordinator) logf(format string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
	}
}
