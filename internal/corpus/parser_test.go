package corpus

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const articles = `.I 1
.T
experimental investigation of the aerodynamics of a wing
.A
brenckman,m.
.B
j. ae. scs. 25, 1958, 324.
.W
experimental investigation of the
aerodynamics of a wing in a slipstream .
.I 2
.W
a record with no title is skipped .
.I x9
.T
bad id
.W
skipped because the id is not numeric .
.I 3
.T
simple shear flow
past a flat plate
.W
simple shear flow past a flat plate in an
incompressible fluid of small viscosity .
.I 4
.T
title without body
.W
.I 5
.T
last one
.W
boundary layer
`

func TestParseArticles(t *testing.T) {
	c, err := ParseArticles(strings.NewReader(articles))
	if err != nil {
		t.Fatalf("ParseArticles() error: %v", err)
	}
	docs := c.Documents()
	var ids []uint32
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	if want := []uint32{1, 3, 5}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	first := docs[0]
	if first.Title != "experimental investigation of the aerodynamics of a wing" {
		t.Errorf("title = %q", first.Title)
	}
	wantBody := []string{"experimental", "investigation", "of", "the",
		"aerodynamics", "of", "a", "wing", "in", "a", "slipstream", "."}
	if !reflect.DeepEqual(first.Body, wantBody) {
		t.Errorf("body = %q, want %q", first.Body, wantBody)
	}
	if docs[1].Title != "simple shear flow past a flat plate" {
		t.Errorf("multi-line title = %q", docs[1].Title)
	}
	if got := docs[2].Body; !reflect.DeepEqual(got, []string{"boundary", "layer"}) {
		t.Errorf("last record body = %q", got)
	}
}

func TestParseArticlesMissingTitleDoesNotInheritPrevious(t *testing.T) {
	in := ".I 1\n.T\nfirst\n.W\nalpha\n.I 2\n.W\nbeta\n.I 3\n.T\nthird\n.W\ngamma\n"
	c, err := ParseArticles(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(2); ok {
		t.Error("record 2 has no title and should be skipped")
	}
	if d, ok := c.Get(3); !ok || d.Title != "third" {
		t.Errorf("record 3 = %+v, %v", d, ok)
	}
}

func TestParseArticlesEmpty(t *testing.T) {
	c, err := ParseArticles(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

const queries = `.I 001
.W
what similarity laws must be obeyed when constructing aeroelastic models
.I 002
.W
what are the structural and aeroelastic problems
associated with flight of high speed aircraft
.I abc
.W
ignored
.I 004
.W
`

func TestParseQueries(t *testing.T) {
	s, err := ParseQueries(strings.NewReader(queries))
	if err != nil {
		t.Fatalf("ParseQueries() error: %v", err)
	}
	qs := s.Queries()
	if len(qs) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(qs), qs)
	}
	if qs[0].ID != 1 || len(qs[0].Terms) != 10 {
		t.Errorf("query 1 = %+v", qs[0])
	}
	if qs[1].ID != 2 || qs[1].Terms[len(qs[1].Terms)-1] != "aircraft" {
		t.Errorf("query 2 = %+v, want terms spanning both lines", qs[1])
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	ap := filepath.Join(dir, "articles.txt")
	qp := filepath.Join(dir, "queries.qry")
	if err := os.WriteFile(ap, []byte(articles), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(qp, []byte(queries), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadArticles(ap)
	if err != nil || c.Len() != 3 {
		t.Errorf("LoadArticles() = %v, %v", c, err)
	}
	s, err := LoadQueries(qp)
	if err != nil || s.Len() != 2 {
		t.Errorf("LoadQueries() = %v, %v", s, err)
	}
	if _, err := LoadArticles(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing article file")
	}
	if _, err := LoadQueries(filepath.Join(dir, "missing.qry")); err == nil {
		t.Error("expected error for missing query file")
	}
}

func TestParseRecordStart(t *testing.T) {
	tests := []struct {
		line         string
		id           uint32
		ok, isRecord bool
	}{
		{".I 12", 12, true, true},
		{".I 007", 7, true, true},
		{".I", 0, false, true},
		{".I -1", 0, false, true},
		{".It 3", 0, false, false},
		{"text", 0, false, false},
	}
	for _, tt := range tests {
		id, ok, isRecord := parseRecordStart(tt.line)
		if id != tt.id || ok != tt.ok || isRecord != tt.isRecord {
			t.Errorf("parseRecordStart(%q) = %d, %v, %v; want %d, %v, %v",
				tt.line, id, ok, isRecord, tt.id, tt.ok, tt.isRecord)
		}
	}
}
