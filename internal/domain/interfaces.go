package domain

import (
	"context"
	"errors"
)

// ErrEmptyQuery is returned when a free-text query has no term left after
// normalization.
var ErrEmptyQuery = errors.New("query has no indexable terms")

// Document is a single article parsed from the corpus file.
// Body holds raw tokens until the index normalizes them.
type Document struct {
	ID    uint32
	Title string
	Body  []string
}

// Query is a single information need parsed from the query file.
type Query struct {
	ID    uint32
	Terms []string
}

// TermVector maps a term to a TF, IDF or TF-IDF weight.
type TermVector map[string]float64

// SimilarityResult is the cosine score of one document for one query.
type SimilarityResult struct {
	DocumentID uint32
	Score      float64
}

// RankedResult is one line of a top-K answer.
type RankedResult struct {
	Rank       int
	DocumentID uint32
	Title      string
	Score      float64
}

// QueryResults groups the ranked answer for a single query.
type QueryResults struct {
	QueryID uint32
	Results []RankedResult
}

// Stemmer reduces a lowercased term to its stem.
type Stemmer interface {
	Name() string
	Stem(term string) string
}

// SearchService defines the operations exposed to the front-ends.
type SearchService interface {
	Search(ctx context.Context, text string) ([]RankedResult, error)
}
