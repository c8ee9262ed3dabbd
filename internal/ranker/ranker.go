// Package ranker scores documents against a query with TF-IDF cosine
// similarity and extracts the top K.
package ranker

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"keysearch/internal/domain"
	"keysearch/internal/index"
	"keysearch/internal/logger"
)

// DefaultTopK is the number of results kept per query.
const DefaultTopK = 10

// Options configures a Ranker.
type Options struct {
	TopK int
	// Workers splits scoring of one query across goroutines; values below 2
	// score serially.
	Workers int
}

// Ranker scores queries against an immutable index. It is safe for
// concurrent use.
type Ranker struct {
	index   *index.Index
	topK    int
	workers int
	logger  *slog.Logger
}

func New(idx *index.Index, opts Options) *Ranker {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &Ranker{
		index:   idx,
		topK:    opts.TopK,
		workers: opts.Workers,
		logger:  logger.WithComponent("ranker"),
	}
}

// Score returns one result per indexed document, in corpus order.
func (r *Ranker) Score(ctx context.Context, q index.Vectors) ([]domain.SimilarityResult, error) {
	qw := queryWeights(q)
	entries := r.index.Entries()
	out := make([]domain.SimilarityResult, len(entries))
	scoreRange := func(lo, hi int) {
		dw := make([]float64, 0, len(q.Terms))
		for i := lo; i < hi; i++ {
			e := &entries[i]
			dw = documentWeights(q.Terms, e, dw)
			out[i] = domain.SimilarityResult{DocumentID: e.Document.ID, Score: Cosine(qw, dw)}
		}
	}
	if r.workers < 2 || len(entries) < 2*r.workers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scoreRange(0, len(entries))
		return out, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	chunk := (len(entries) + r.workers - 1) / r.workers
	for lo := 0; lo < len(entries); lo += chunk {
		hi := min(lo+chunk, len(entries))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scoreRange(lo, hi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Rank scores q and returns up to TopK results, best first, ranks from 1.
func (r *Ranker) Rank(ctx context.Context, q index.Vectors) ([]domain.RankedResult, error) {
	scores, err := r.Score(ctx, q)
	if err != nil {
		return nil, err
	}
	best := TopK(scores, r.topK)
	out := make([]domain.RankedResult, len(best))
	for i, s := range best {
		title := ""
		if h, ok := r.index.Lookup(s.DocumentID); ok {
			title = r.index.Entry(h).Document.Title
		}
		out[i] = domain.RankedResult{Rank: i + 1, DocumentID: s.DocumentID, Title: title, Score: s.Score}
	}
	r.logger.Debug("query ranked", "terms", len(q.Terms), "documents", len(scores), "results", len(out))
	return out, nil
}
