package ranker

import (
	"math"

	"keysearch/internal/index"
)

// queryWeights builds the query vector: one dimension per query term,
// duplicates included, weighted tf*idf.
func queryWeights(q index.Vectors) []float64 {
	w := make([]float64, len(q.Terms))
	for i, t := range q.Terms {
		w[i] = q.TF[t] * q.IDF[t]
	}
	return w
}

// documentWeights projects a document onto the query's dimensions. Terms
// the document lacks weigh 0.
func documentWeights(terms []string, e *index.Entry, dst []float64) []float64 {
	dst = dst[:0]
	for _, t := range terms {
		tf, ok := e.TF[t]
		if !ok {
			dst = append(dst, 0)
			continue
		}
		dst = append(dst, tf*e.IDF[t])
	}
	return dst
}

// Cosine returns the cosine similarity of a and b. A zero-norm operand or a
// NaN result yields 0.
func Cosine(a, b []float64) float64 {
	na := norm(a)
	nb := norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	s := dot(a, b) / (na * nb)
	if math.IsNaN(s) {
		return 0
	}
	return s
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}
