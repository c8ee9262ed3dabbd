// Package eval scores a ranking against relevance judgements.
package eval

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"keysearch/internal/domain"
)

// Qrels maps a query id to its set of relevant document ids.
type Qrels map[uint32]map[uint32]struct{}

// LoadQrels reads a judgement file. Two layouts are accepted per line:
// "query doc" and the four-column "query iter doc relevance", where only
// a positive relevance counts.
func LoadQrels(path string) (Qrels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening qrels: %w", err)
	}
	defer f.Close()
	q, err := ParseQrels(f)
	if err != nil {
		return nil, fmt.Errorf("reading qrels %s: %w", path, err)
	}
	return q, nil
}

func ParseQrels(r io.Reader) (Qrels, error) {
	q := Qrels{}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		var qs, ds string
		switch len(fields) {
		case 0:
			continue
		case 2:
			qs, ds = fields[0], fields[1]
		case 4:
			rel, err := strconv.Atoi(fields[3])
			if err != nil {
				return nil, fmt.Errorf("line %d: relevance: %w", lineNo, err)
			}
			if rel <= 0 {
				continue
			}
			qs, ds = fields[0], fields[2]
		default:
			return nil, fmt.Errorf("line %d: want 2 or 4 fields, got %d", lineNo, len(fields))
		}
		qid, err := strconv.ParseUint(qs, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: query id: %w", lineNo, err)
		}
		doc, err := strconv.ParseUint(ds, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: document id: %w", lineNo, err)
		}
		set, ok := q[uint32(qid)]
		if !ok {
			set = map[uint32]struct{}{}
			q[uint32(qid)] = set
		}
		set[uint32(doc)] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return q, nil
}

// QueryScore holds the cutoff metrics of one query.
type QueryScore struct {
	QueryID   uint32
	Retrieved int
	Relevant  int
	Precision float64
	Recall    float64
	F1        float64
}

// Report aggregates per-query scores. Queries without judgements are
// counted in Unjudged and left out of the means.
type Report struct {
	Cutoff        int
	Queries       []QueryScore
	Unjudged      int
	MeanPrecision float64
	MeanRecall    float64
	MeanF1        float64
}

// Evaluate computes precision, recall and F1 at cutoff for every judged
// query. Precision divides by the cutoff, not by the number retrieved.
func Evaluate(results []domain.QueryResults, qrels Qrels, cutoff int) Report {
	rep := Report{Cutoff: cutoff}
	if cutoff <= 0 {
		return rep
	}
	for _, qr := range results {
		relevant, ok := qrels[qr.QueryID]
		if !ok || len(relevant) == 0 {
			rep.Unjudged++
			continue
		}
		s := QueryScore{QueryID: qr.QueryID}
		for i, r := range qr.Results {
			if i == cutoff {
				break
			}
			s.Retrieved++
			if _, hit := relevant[r.DocumentID]; hit {
				s.Relevant++
			}
		}
		s.Precision = float64(s.Relevant) / float64(cutoff)
		s.Recall = float64(s.Relevant) / float64(len(relevant))
		if s.Precision+s.Recall > 0 {
			s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
		}
		rep.Queries = append(rep.Queries, s)
	}
	sort.Slice(rep.Queries, func(i, j int) bool { return rep.Queries[i].QueryID < rep.Queries[j].QueryID })
	if n := float64(len(rep.Queries)); n > 0 {
		for _, s := range rep.Queries {
			rep.MeanPrecision += s.Precision
			rep.MeanRecall += s.Recall
			rep.MeanF1 += s.F1
		}
		rep.MeanPrecision /= n
		rep.MeanRecall /= n
		rep.MeanF1 /= n
	}
	return rep
}

// Write prints one line per judged query followed by the means.
func (r Report) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, s := range r.Queries {
		fmt.Fprintf(bw, "%03d precision@%d=%.4f recall@%d=%.4f f1=%.4f\n",
			s.QueryID, r.Cutoff, s.Precision, r.Cutoff, s.Recall, s.F1)
	}
	fmt.Fprintf(bw, "mean precision@%d=%.4f recall@%d=%.4f f1=%.4f queries=%d unjudged=%d\n",
		r.Cutoff, r.MeanPrecision, r.Cutoff, r.MeanRecall, r.MeanF1, len(r.Queries), r.Unjudged)
	return bw.Flush()
}
