package query

import "container/heap"

// topK selects the k best results with a bounded min-heap, avoiding a full
// sort when only a small slice of a large candidate set is wanted. Ordering
// matches Search: descending score, then ascending document ID.
func topK(results []Result, k int) []Result {
	h := make(resultHeap, 0, k+1)
	heap.Init(&h)
	for _, r := range results {
		heap.Push(&h, r)
		if h.Len() > k {
			heap.Pop(&h)
		}
	}
	out := make([]Result, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(Result)
	}
	return out
}

// resultHeap is a min-heap on the Search ordering: the root is the worst
// result currently retained.
type resultHeap []Result

func (h resultHeap) Len() int { return len(h) }

func (h resultHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].DocumentID > h[j].DocumentID
}

func (h resultHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *resultHeap) Push(x interface{}) {
	*h = append(*h, x.(Result))
}

func (h *resultHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
