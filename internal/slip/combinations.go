package slip

import (
	"container/heap"
	"iter"
	"sort"
)

// Combinations yields every k-subset of [0, n) as ascending indices, in lexicographic order.
// The yielded slice is reused between iterations; copy it to retain. Each range over the
// returned sequence starts from the beginning.
func Combinations(n, k int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		if k <= 0 || k > n {
			return
		}
		idx := make([]int, k)
		for i := range idx {
			idx[i] = i
		}
		for {
			if !yield(idx) {
				return
			}
			i := k - 1
			for i >= 0 && idx[i] == n-k+i {
				i--
			}
			if i < 0 {
				return
			}
			idx[i]++
			for j := i + 1; j < k; j++ {
				idx[j] = idx[j-1] + 1
			}
		}
	}
}

// combinationsFrom yields the k-subsets of [0, n) whose smallest index is first
func combinationsFrom(first, n, k int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		if k <= 0 || first < 0 || first+k > n {
			return
		}
		combo := make([]int, k)
		combo[0] = first
		if k == 1 {
			yield(combo)
			return
		}
		for rest := range Combinations(n-first-1, k-1) {
			for i, r := range rest {
				combo[i+1] = first + 1 + r
			}
			if !yield(combo) {
				return
			}
		}
	}
}

// scored is one evaluated combination
type scored struct {
	ev       float64
	sizeRank int
	idx      []int
}

// better is the total order used for ranking: EV descending, then requested size order, then
// lexicographic leg indices.
func better(a, b scored) bool {
	if a.ev != b.ev {
		return a.ev > b.ev
	}
	if a.sizeRank != b.sizeRank {
		return a.sizeRank < b.sizeRank
	}
	for i := 0; i < len(a.idx) && i < len(b.idx); i++ {
		if a.idx[i] != b.idx[i] {
			return a.idx[i] < b.idx[i]
		}
	}
	return len(a.idx) < len(b.idx)
}

// worstFirst is a heap with the lowest-ranked entry on top
type worstFirst []scored

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(i, j int) bool { return better(h[j], h[i]) }
func (h worstFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *worstFirst) Push(x any)        { *h = append(*h, x.(scored)) }
func (h *worstFirst) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topK keeps the k best entries offered to it
type topK struct {
	k int
	h worstFirst
}

func newTopK(k int) *topK {
	return &topK{k: k, h: make(worstFirst, 0, k)}
}

// offer considers s; s.idx is copied when retained
func (t *topK) offer(s scored) {
	if t.k <= 0 {
		return
	}
	if len(t.h) < t.k {
		s.idx = append([]int(nil), s.idx...)
		heap.Push(&t.h, s)
		return
	}
	if better(s, t.h[0]) {
		s.idx = append([]int(nil), s.idx...)
		t.h[0] = s
		heap.Fix(&t.h, 0)
	}
}

// merge reduces partition results into the k best overall, best first
func merge(k int, parts ...[]scored) []scored {
	top := newTopK(k)
	for _, part := range parts {
		for _, s := range part {
			top.offer(s)
		}
	}
	return top.sorted()
}

// sorted returns the retained entries best first
func (t *topK) sorted() []scored {
	out := append([]scored(nil), t.h...)
	sortScored(out)
	return out
}

func sortScored(s []scored) {
	sort.Slice(s, func(i, j int) bool { return better(s[i], s[j]) })
}
