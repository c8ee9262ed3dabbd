// Package normalize turns raw whitespace-delimited tokens into index terms.
package normalize

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"keysearch/internal/domain"
)

// Normalizer filters and folds tokens. It holds no mutable state, so one
// value may be shared across goroutines.
type Normalizer struct {
	stemmer domain.Stemmer
}

// New creates a Normalizer. A nil stemmer disables stemming.
func New(stemmer domain.Stemmer) *Normalizer {
	return &Normalizer{stemmer: stemmer}
}

// Describe identifies the normalization rules in effect. Statistics built
// with different rules are not interchangeable.
func (n *Normalizer) Describe() string {
	name := "none"
	if n.stemmer != nil {
		name = n.stemmer.Name()
	}
	return "stopwords=" + stopListVersion + ";stemmer=" + name
}

// Tokenize splits free text on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// Normalize applies the filter pipeline to tokens, keeping order and
// duplicates.
func (n *Normalizer) Normalize(tokens []string) []string {
	// a Caser is stateful, so each call gets its own
	lower := cases.Lower(language.Und)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, ok := punctuation[tok]; ok {
			continue
		}
		if hasASCIIDigit(tok) {
			continue
		}
		tok = stripPunctuation(tok)
		if tok == "" {
			continue
		}
		if _, ok := stopwords[tok]; ok {
			continue
		}
		tok = strings.ReplaceAll(tok, "--", "-")
		if !strings.Contains(tok, "-") {
			out = append(out, n.fold(lower, tok))
			continue
		}
		for _, part := range strings.Split(tok, "-") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			out = append(out, n.fold(lower, part))
		}
	}
	return out
}

// NormalizeAll normalizes each token list concurrently. The result is
// index-aligned with the input.
func (n *Normalizer) NormalizeAll(ctx context.Context, lists [][]string, workers int) ([][]string, error) {
	out := make([][]string, len(lists))
	if workers <= 1 {
		for i, l := range lists {
			out[i] = n.Normalize(l)
		}
		return out, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range lists {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = n.Normalize(lists[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (n *Normalizer) fold(lower cases.Caser, tok string) string {
	tok = lower.String(tok)
	if n.stemmer != nil {
		tok = n.stemmer.Stem(tok)
	}
	return tok
}

func hasASCIIDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return true
		}
	}
	return false
}

func stripPunctuation(s string) string {
	if !strings.ContainsAny(s, punctuationChars) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(punctuationChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
