// Package index assembles the read-only corpus structure consumed by the
// ranker. Each entry owns its document together with its normalized terms
// and TF and IDF vectors, so positions never drift between parallel slices.
package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"keysearch/internal/domain"
	"keysearch/internal/logger"
	"keysearch/internal/normalize"
	"keysearch/internal/stats"
)

var (
	ErrEmptyCorpus = errors.New("corpus has no documents with indexable terms")
	ErrNoQueries   = errors.New("no queries to rank")
)

// Handle addresses an entry by its position in corpus order.
type Handle int

// IDFFunc computes one IDF vector per term list, index-aligned.
type IDFFunc func(terms [][]string) ([]domain.TermVector, error)

// Options controls how an index is assembled.
type Options struct {
	// MaxDocuments caps the corpus before normalization; 0 means no cap.
	MaxDocuments int
	// Workers bounds normalization parallelism; values below 2 run serially.
	Workers int
	// IDF overrides the IDF computation, e.g. to go through a cache.
	IDF IDFFunc
}

// Vectors are the statistics of one normalized term sequence.
type Vectors struct {
	Terms []string
	TF    domain.TermVector
	IDF   domain.TermVector
}

// Entry is one indexed document. Document.Body holds the normalized terms.
type Entry struct {
	Document domain.Document
	Vectors
}

// Index is immutable after Build and safe for concurrent readers.
type Index struct {
	entries []Entry
	byID    map[uint32]Handle
	idf     domain.TermVector
}

// Build normalizes docs and computes their statistics. Documents whose body
// normalizes to nothing are left out.
func Build(ctx context.Context, docs []domain.Document, n *normalize.Normalizer, opts Options) (*Index, error) {
	log := logger.WithComponent("index")
	start := time.Now()
	if opts.MaxDocuments > 0 && len(docs) > opts.MaxDocuments {
		docs = docs[:opts.MaxDocuments]
	}
	raw := make([][]string, len(docs))
	for i, d := range docs {
		raw[i] = d.Body
	}
	normalized, err := n.NormalizeAll(ctx, raw, opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("normalizing documents: %w", err)
	}
	kept := make([]domain.Document, 0, len(docs))
	terms := make([][]string, 0, len(docs))
	for i, d := range docs {
		if len(normalized[i]) == 0 {
			log.Debug("document dropped, empty after normalization", "doc_id", d.ID)
			continue
		}
		d.Body = normalized[i]
		kept = append(kept, d)
		terms = append(terms, normalized[i])
	}
	if len(kept) == 0 {
		return nil, ErrEmptyCorpus
	}
	vectors, err := computeVectors(terms, opts.IDF)
	if err != nil {
		return nil, fmt.Errorf("document statistics: %w", err)
	}
	idx := &Index{
		entries: make([]Entry, len(kept)),
		byID:    make(map[uint32]Handle, len(kept)),
		idf:     make(domain.TermVector),
	}
	for i, d := range kept {
		idx.entries[i] = Entry{Document: d, Vectors: vectors[i]}
		idx.byID[d.ID] = Handle(i)
		for t, v := range vectors[i].IDF {
			idx.idf[t] = v
		}
	}
	log.Info("index built",
		"documents", len(kept),
		"dropped", len(docs)-len(kept),
		"duration", time.Since(start),
	)
	return idx, nil
}

func (x *Index) Len() int { return len(x.entries) }

// Entry returns the entry at h. It panics if h is out of range.
func (x *Index) Entry(h Handle) *Entry { return &x.entries[h] }

// Entries returns the entries in corpus order. Callers must not modify them.
func (x *Index) Entries() []Entry { return x.entries }

// Lookup finds the handle of a document id.
func (x *Index) Lookup(id uint32) (Handle, bool) {
	h, ok := x.byID[id]
	return h, ok
}

// Vocabulary is the number of distinct terms in the corpus.
func (x *Index) Vocabulary() int { return len(x.idf) }

// AdHocQuery builds vectors for a single free-text query weighted by the
// corpus IDF. A lone query has no query collection to take IDF from, and
// ln(1/1) would zero every weight. Terms unseen in the corpus weigh 0.
func (x *Index) AdHocQuery(terms []string) Vectors {
	idf := make(domain.TermVector, len(terms))
	for _, t := range terms {
		idf[t] = x.idf[t]
	}
	return Vectors{Terms: terms, TF: stats.TermFrequencies(terms), IDF: idf}
}

func computeVectors(terms [][]string, idfFn IDFFunc) ([]Vectors, error) {
	if idfFn == nil {
		idfFn = func(t [][]string) ([]domain.TermVector, error) { return stats.IDFScores(t), nil }
	}
	idf, err := idfFn(terms)
	if err != nil {
		return nil, err
	}
	if len(idf) != len(terms) {
		return nil, fmt.Errorf("idf vectors cover %d term lists, want %d", len(idf), len(terms))
	}
	out := make([]Vectors, len(terms))
	for i, t := range terms {
		out[i] = Vectors{Terms: t, TF: stats.TermFrequencies(t), IDF: idf[i]}
	}
	return out, nil
}
