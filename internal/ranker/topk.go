package ranker

import (
	"sort"

	"keysearch/internal/domain"
)

// better orders results by descending score, then ascending document id.
// Document ids are unique, so this is a total order and equal scores come
// out the same way on every run.
func better(a, b domain.SimilarityResult) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.DocumentID < b.DocumentID
}

// TopK returns the k best results in descending order without sorting the
// whole input. The input slice is not modified.
func TopK(results []domain.SimilarityResult, k int) []domain.SimilarityResult {
	if k <= 0 || len(results) == 0 {
		return nil
	}
	buf := make([]domain.SimilarityResult, len(results))
	copy(buf, results)
	if k < len(buf) {
		selectK(buf, k)
		buf = buf[:k]
	}
	sort.Slice(buf, func(i, j int) bool { return better(buf[i], buf[j]) })
	return buf
}

// selectK partially orders a so that a[:k] holds the k best elements, in
// no particular order. Average O(len(a)).
func selectK(a []domain.SimilarityResult, k int) {
	lo, hi := 0, len(a)-1
	for lo < hi {
		p := partition(a, lo, hi)
		switch {
		case p == k-1:
			return
		case p < k-1:
			lo = p + 1
		default:
			hi = p - 1
		}
	}
}

func partition(a []domain.SimilarityResult, lo, hi int) int {
	mid := lo + (hi-lo)/2
	// median of three, moved to hi as the pivot
	if better(a[mid], a[lo]) {
		a[mid], a[lo] = a[lo], a[mid]
	}
	if better(a[hi], a[lo]) {
		a[hi], a[lo] = a[lo], a[hi]
	}
	if better(a[mid], a[hi]) {
		a[mid], a[hi] = a[hi], a[mid]
	}
	pivot := a[hi]
	store := lo
	for i := lo; i < hi; i++ {
		if better(a[i], pivot) {
			a[i], a[store] = a[store], a[i]
			store++
		}
	}
	a[store], a[hi] = a[hi], a[store]
	return store
}
