// Package corpus reads article and query collections in the dot-marker
// format:
//
//	.I 12
//	.T
//	title line
//	.W
//	body text ...
//
// Other single-letter section markers (.A, .B, ...) end the current
// section and their contents are ignored.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"keysearch/internal/domain"
	"keysearch/internal/logger"
	"keysearch/internal/normalize"
)

const maxLineSize = 1 << 20

type section int

const (
	sectionNone section = iota
	sectionTitle
	sectionBody
)

// LoadArticles parses the article file at path.
func LoadArticles(path string) (*domain.Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening articles: %w", err)
	}
	defer f.Close()
	c, err := ParseArticles(f)
	if err != nil {
		return nil, fmt.Errorf("reading articles %s: %w", path, err)
	}
	return c, nil
}

// LoadQueries parses the query file at path.
func LoadQueries(path string) (*domain.QuerySet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening queries: %w", err)
	}
	defer f.Close()
	s, err := ParseQueries(f)
	if err != nil {
		return nil, fmt.Errorf("reading queries %s: %w", path, err)
	}
	return s, nil
}

type articleBuilder struct {
	id      uint32
	hasID   bool
	title   []string
	body    []string
	skipped int
}

func (b *articleBuilder) reset(id uint32, ok bool) {
	b.id, b.hasID = id, ok
	b.title = nil
	b.body = nil
}

func (b *articleBuilder) flush(c *domain.Corpus) {
	if !b.hasID && b.title == nil && b.body == nil {
		return
	}
	if !b.hasID || b.title == nil || len(b.body) == 0 {
		b.skipped++
		return
	}
	c.Add(domain.Document{ID: b.id, Title: strings.Join(b.title, " "), Body: b.body})
}

// ParseArticles reads records until EOF. Records without a numeric id, a
// title or a non-empty body are skipped.
func ParseArticles(r io.Reader) (*domain.Corpus, error) {
	log := logger.WithComponent("corpus")
	c := domain.NewCorpus()
	var b articleBuilder
	sec := sectionNone
	sc := newScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if id, ok, isRecord := parseRecordStart(line); isRecord {
			b.flush(c)
			b.reset(id, ok)
			if !ok {
				log.Debug("record without numeric id", "line", line)
			}
			sec = sectionNone
			continue
		}
		switch marker := strings.TrimSpace(line); {
		case marker == ".T":
			sec = sectionTitle
			continue
		case marker == ".W":
			sec = sectionBody
			continue
		case isSectionMarker(marker):
			sec = sectionNone
			continue
		}
		switch sec {
		case sectionTitle:
			if t := strings.TrimSpace(line); t != "" {
				b.title = append(b.title, t)
			}
		case sectionBody:
			b.body = append(b.body, normalize.Tokenize(line)...)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	b.flush(c)
	log.Info("articles parsed", "documents", c.Len(), "skipped", b.skipped)
	return c, nil
}

// ParseQueries reads query records until EOF. Every text line of a record
// adds to that query's terms.
func ParseQueries(r io.Reader) (*domain.QuerySet, error) {
	log := logger.WithComponent("corpus")
	s := domain.NewQuerySet()
	var (
		id      uint32
		hasID   bool
		terms   []string
		skipped int
	)
	flush := func() {
		if hasID && len(terms) > 0 {
			s.Add(domain.Query{ID: id, Terms: terms})
		}
	}
	sc := newScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if qid, ok, isRecord := parseRecordStart(line); isRecord {
			flush()
			id, hasID, terms = qid, ok, nil
			if !ok {
				skipped++
				log.Debug("query without numeric id", "line", line)
			}
			continue
		}
		if isSectionMarker(strings.TrimSpace(line)) || !hasID {
			continue
		}
		terms = append(terms, normalize.Tokenize(line)...)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	log.Info("queries parsed", "queries", s.Len(), "skipped", skipped)
	return s, nil
}

// parseRecordStart recognizes ".I <id>". ok is false when the id is missing
// or not an unsigned integer.
func parseRecordStart(line string) (id uint32, ok bool, isRecord bool) {
	if !strings.HasPrefix(line, ".I ") && line != ".I" {
		return 0, false, false
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, false, true
	}
	v, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return 0, false, true
	}
	return uint32(v), true, true
}

func isSectionMarker(s string) bool {
	return len(s) == 2 && s[0] == '.' && s[1] >= 'A' && s[1] <= 'Z'
}

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return sc
}
