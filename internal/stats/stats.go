// Package stats computes term and document frequency statistics.
package stats

import (
	"math"

	"keysearch/internal/domain"
)

// TermFrequencies maps each distinct term to count/len(terms).
// Empty input yields an empty vector.
func TermFrequencies(terms []string) domain.TermVector {
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		counts[t]++
	}
	tf := make(domain.TermVector, len(counts))
	if len(terms) == 0 {
		return tf
	}
	total := float64(len(terms))
	for t, c := range counts {
		tf[t] = float64(c) / total
	}
	return tf
}

// DocumentFrequencies counts, for every term, how many documents contain it
// at least once.
func DocumentFrequencies(docs [][]string) map[string]int {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, t := range doc {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}
	return df
}

// IDFScores returns, per document, ln(N/df(t)) for each distinct term of that
// document. The global table is computed once and shared by all documents.
func IDFScores(docs [][]string) []domain.TermVector {
	df := DocumentFrequencies(docs)
	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for t, c := range df {
		idf[t] = math.Log(n / float64(c))
	}
	out := make([]domain.TermVector, len(docs))
	for i, doc := range docs {
		v := make(domain.TermVector)
		for _, t := range doc {
			if _, ok := v[t]; ok {
				continue
			}
			v[t] = idf[t]
		}
		out[i] = v
	}
	return out
}
