package index

import (
	"context"
	"fmt"

	"keysearch/internal/domain"
	"keysearch/internal/logger"
	"keysearch/internal/normalize"
)

// QueryEntry is one normalized query. Query.Terms holds the normalized terms.
type QueryEntry struct {
	Query domain.Query
	Vectors
}

// QuerySet holds the queries and their statistics. Query IDF is computed
// over the queries themselves, independent of the document IDF space.
type QuerySet struct {
	entries []QueryEntry
}

// BuildQueries normalizes queries and computes their statistics. Queries
// that normalize to nothing are kept; they score zero against every
// document.
func BuildQueries(ctx context.Context, queries []domain.Query, n *normalize.Normalizer, opts Options) (*QuerySet, error) {
	if len(queries) == 0 {
		return nil, ErrNoQueries
	}
	raw := make([][]string, len(queries))
	for i, q := range queries {
		raw[i] = q.Terms
	}
	terms, err := n.NormalizeAll(ctx, raw, opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("normalizing queries: %w", err)
	}
	vectors, err := computeVectors(terms, opts.IDF)
	if err != nil {
		return nil, fmt.Errorf("query statistics: %w", err)
	}
	set := &QuerySet{entries: make([]QueryEntry, len(queries))}
	empty := 0
	for i, q := range queries {
		q.Terms = terms[i]
		if len(q.Terms) == 0 {
			empty++
		}
		set.entries[i] = QueryEntry{Query: q, Vectors: vectors[i]}
	}
	logger.WithComponent("index").Info("queries built", "queries", len(queries), "empty", empty)
	return set, nil
}

func (s *QuerySet) Len() int { return len(s.entries) }

// Entries returns the queries in input order. Callers must not modify them.
func (s *QuerySet) Entries() []QueryEntry { return s.entries }
