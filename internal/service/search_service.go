// Package service wires parsing, indexing, caching and ranking into the
// operations the front-ends call.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"keysearch/internal/corpus"
	"keysearch/internal/domain"
	"keysearch/internal/index"
	"keysearch/internal/logger"
	"keysearch/internal/metrics"
	"keysearch/internal/normalize"
	"keysearch/internal/ranker"
	"keysearch/internal/statcache"
	"keysearch/internal/stats"
)

const (
	articleCacheFile = "article_idf.bin"
	queryCacheFile   = "query_idf.bin"
)

type Options struct {
	MaxDocuments int
	TopK         int
	// Workers bounds every worker pool; 0 uses GOMAXPROCS.
	Workers int
	// CacheDir holds IDF snapshots; "" disables the cache.
	CacheDir string
	Stemmer  domain.Stemmer
	Metrics  *metrics.Metrics
}

// SearchService owns an index built once and ranks queries against it.
type SearchService struct {
	normalizer  *normalize.Normalizer
	index       *index.Index
	batch       *ranker.Ranker
	interactive *ranker.Ranker
	cache       *statcache.Cache
	opts        Options
	logger      *slog.Logger
}

// Batch is the ranked answer for a whole query file.
type Batch struct {
	Results []domain.QueryResults
	// QueryText is the raw text of each query, keyed by id.
	QueryText map[uint32]string
}

// Open parses the article file and builds the service over it.
func Open(ctx context.Context, articlesPath string, opts Options) (*SearchService, error) {
	start := time.Now()
	c, err := corpus.LoadArticles(articlesPath)
	if err != nil {
		return nil, err
	}
	opts.Metrics.Stage("parse", time.Since(start))
	return New(ctx, c.Documents(), opts)
}

// New normalizes docs and computes their statistics, going through the IDF
// cache when one is configured.
func New(ctx context.Context, docs []domain.Document, opts Options) (*SearchService, error) {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	s := &SearchService{
		normalizer: normalize.New(opts.Stemmer),
		cache:      statcache.New(),
		opts:       opts,
		logger:     logger.WithComponent("service"),
	}
	start := time.Now()
	idx, err := index.Build(ctx, docs, s.normalizer, index.Options{
		MaxDocuments: opts.MaxDocuments,
		Workers:      opts.Workers,
		IDF:          s.cachedIDF("articles", articleCacheFile),
	})
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}
	opts.Metrics.Stage("index", time.Since(start))
	opts.Metrics.IndexBuilt(idx.Len(), idx.Vocabulary())

	s.index = idx
	// queries run side by side in batch mode, so each scores serially
	s.batch = ranker.New(idx, ranker.Options{TopK: opts.TopK, Workers: 1})
	s.interactive = ranker.New(idx, ranker.Options{TopK: opts.TopK, Workers: opts.Workers})
	return s, nil
}

func (s *SearchService) Index() *index.Index { return s.index }

// RunBatch parses the query file and ranks every query.
func (s *SearchService) RunBatch(ctx context.Context, queriesPath string) (*Batch, error) {
	set, err := corpus.LoadQueries(queriesPath)
	if err != nil {
		return nil, err
	}
	queries := set.Queries()
	text := make(map[uint32]string, len(queries))
	for _, q := range queries {
		text[q.ID] = strings.Join(q.Terms, " ")
	}
	qs, err := s.PrepareQueries(ctx, queries)
	if err != nil {
		return nil, err
	}
	results, err := s.RankAll(ctx, qs)
	if err != nil {
		return nil, err
	}
	return &Batch{Results: results, QueryText: text}, nil
}

// PrepareQueries normalizes queries and computes their statistics in the
// query collection's own IDF space.
func (s *SearchService) PrepareQueries(ctx context.Context, queries []domain.Query) (*index.QuerySet, error) {
	start := time.Now()
	qs, err := index.BuildQueries(ctx, queries, s.normalizer, index.Options{
		Workers: s.opts.Workers,
		IDF:     s.cachedIDF("queries", queryCacheFile),
	})
	if err != nil {
		return nil, fmt.Errorf("building queries: %w", err)
	}
	s.opts.Metrics.Stage("queries", time.Since(start))
	return qs, nil
}

// RankAll ranks every query of qs concurrently. Results come back in the
// order of qs regardless of which query finishes first.
func (s *SearchService) RankAll(ctx context.Context, qs *index.QuerySet) ([]domain.QueryResults, error) {
	start := time.Now()
	entries := qs.Entries()
	out := make([]domain.QueryResults, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i := range entries {
		e := &entries[i]
		g.Go(func() error {
			t := time.Now()
			res, err := s.batch.Rank(gctx, e.Vectors)
			if err != nil {
				s.opts.Metrics.QueryRanked("batch", "error", 0)
				return fmt.Errorf("ranking query %d: %w", e.Query.ID, err)
			}
			outcome := "ok"
			if len(e.Terms) == 0 {
				outcome = "empty"
			}
			s.opts.Metrics.QueryRanked("batch", outcome, time.Since(t))
			out[i] = domain.QueryResults{QueryID: e.Query.ID, Results: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.opts.Metrics.Stage("rank", time.Since(start))
	s.logger.Info("queries ranked", "queries", len(out), "duration", time.Since(start))
	return out, nil
}

// Search ranks one line of free text against the corpus. A query with no
// indexable terms returns domain.ErrEmptyQuery.
func (s *SearchService) Search(ctx context.Context, text string) ([]domain.RankedResult, error) {
	start := time.Now()
	terms := s.normalizer.Normalize(normalize.Tokenize(text))
	if len(terms) == 0 {
		s.opts.Metrics.QueryRanked("interactive", "empty", time.Since(start))
		return nil, domain.ErrEmptyQuery
	}
	res, err := s.interactive.Rank(ctx, s.index.AdHocQuery(terms))
	if err != nil {
		s.opts.Metrics.QueryRanked("interactive", "error", 0)
		return nil, err
	}
	s.opts.Metrics.QueryRanked("interactive", "ok", time.Since(start))
	s.logger.Debug("interactive query", "terms", terms, "results", len(res))
	return res, nil
}

// CacheStats reports IDF cache hits and misses so far.
func (s *SearchService) CacheStats() (hits, misses int64) {
	return s.cache.Stats()
}

// cachedIDF routes the IDF pass through the snapshot CacheDir/file. The
// snapshot is keyed by the normalizer rules and the normalized terms, so a
// changed corpus or rule set is recomputed.
func (s *SearchService) cachedIDF(collection, file string) index.IDFFunc {
	return func(terms [][]string) ([]domain.TermVector, error) {
		path := ""
		if s.opts.CacheDir != "" {
			path = filepath.Join(s.opts.CacheDir, file)
		}
		fp := statcache.NewFingerprint(s.normalizer.Describe(), terms)
		df := stats.DocumentFrequencies(terms)
		maxDF := 0
		for _, n := range df {
			maxDF = max(maxDF, n)
		}
		s.logger.Debug("idf statistics",
			"collection", collection,
			"fingerprint", fmt.Sprintf("%016x", uint64(fp)),
			"documents", len(terms),
			"distinct_terms", len(df),
			"max_df", maxDF,
		)
		vectors, hit, err := s.cache.LoadOrCompute(path, fp, func() ([]domain.TermVector, error) {
			return stats.IDFScores(terms), nil
		})
		if err != nil {
			return nil, err
		}
		if path != "" {
			s.opts.Metrics.CacheLookup(collection, hit)
		}
		return vectors, nil
	}
}
