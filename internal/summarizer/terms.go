// Package summarizer describes an indexed corpus by its heaviest terms.
package summarizer

import (
	"fmt"
	"sort"
	"strings"

	"keysearch/internal/index"
)

// TermWeight is a term with its weight relative to the heaviest term.
type TermWeight struct {
	Term   string
	Weight float64
}

// Summary is a one-line description of an index.
type Summary struct {
	Documents  int
	Vocabulary int
	TopTerms   []TermWeight
}

// Summarize ranks terms by their TF-IDF weight summed over all documents
// and keeps the best n. Weights are normalized so the first term is 1.
// Terms present in every document weigh 0 and never make the list.
func Summarize(idx *index.Index, n int) Summary {
	s := Summary{Documents: idx.Len(), Vocabulary: idx.Vocabulary()}
	if n <= 0 {
		return s
	}
	total := map[string]float64{}
	for _, e := range idx.Entries() {
		for t, tf := range e.TF {
			total[t] += tf * e.IDF[t]
		}
	}
	terms := make([]TermWeight, 0, len(total))
	maxW := 0.0
	for t, w := range total {
		if w <= 0 {
			continue
		}
		terms = append(terms, TermWeight{Term: t, Weight: w})
		maxW = max(maxW, w)
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Weight != terms[j].Weight {
			return terms[i].Weight > terms[j].Weight
		}
		return terms[i].Term < terms[j].Term
	})
	if len(terms) > n {
		terms = terms[:n]
	}
	for i := range terms {
		terms[i].Weight /= maxW
	}
	s.TopTerms = terms
	return s
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d documents, %d distinct terms", s.Documents, s.Vocabulary)
	if len(s.TopTerms) > 0 {
		names := make([]string, len(s.TopTerms))
		for i, t := range s.TopTerms {
			names[i] = t.Term
		}
		b.WriteString("; top terms: ")
		b.WriteString(strings.Join(names, ", "))
	}
	return b.String()
}
