package domain

// Corpus is an id -> Document mapping that remembers first-seen order.
// Re-adding an existing id replaces the record in its original position.
type Corpus struct {
	order []uint32
	docs  map[uint32]Document
}

// NewCorpus returns an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{docs: make(map[uint32]Document)}
}

// Add inserts or replaces a document.
func (c *Corpus) Add(doc Document) {
	if _, ok := c.docs[doc.ID]; !ok {
		c.order = append(c.order, doc.ID)
	}
	c.docs[doc.ID] = doc
}

// Get returns the document with the given id.
func (c *Corpus) Get(id uint32) (Document, bool) {
	d, ok := c.docs[id]
	return d, ok
}

func (c *Corpus) Len() int { return len(c.order) }

// Documents returns the documents in first-seen order.
func (c *Corpus) Documents() []Document {
	out := make([]Document, len(c.order))
	for i, id := range c.order {
		out[i] = c.docs[id]
	}
	return out
}

// QuerySet is the query-side counterpart of Corpus.
type QuerySet struct {
	order   []uint32
	queries map[uint32]Query
}

// NewQuerySet returns an empty query set.
func NewQuerySet() *QuerySet {
	return &QuerySet{queries: make(map[uint32]Query)}
}

// Add inserts or replaces a query.
func (s *QuerySet) Add(q Query) {
	if _, ok := s.queries[q.ID]; !ok {
		s.order = append(s.order, q.ID)
	}
	s.queries[q.ID] = q
}

// Get returns the query with the given id.
func (s *QuerySet) Get(id uint32) (Query, bool) {
	q, ok := s.queries[id]
	return q, ok
}

func (s *QuerySet) Len() int { return len(s.order) }

// Queries returns the queries in first-seen order.
func (s *QuerySet) Queries() []Query {
	out := make([]Query, len(s.order))
	for i, id := range s.order {
		out[i] = s.queries[id]
	}
	return out
}
