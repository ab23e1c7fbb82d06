package fairqueue

// entry is one (priority, bucket) pair on the heap. seq breaks ties between
// equal priorities by insertion order, which keeps the service order
// deterministic under coarse clocks and constant priority callbacks.
type entry[K comparable] struct {
	prio float64
	seq  uint64
	key  K
}

type bucketHeap[K comparable] []entry[K]

func (h bucketHeap[K]) Len() int { return len(h) }

func (h bucketHeap[K]) Less(i, j int) bool {
	if h[i].prio != h[j].prio {
		return h[i].prio < h[j].prio
	}
	return h[i].seq < h[j].seq
}

func (h bucketHeap[K]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *bucketHeap[K]) Push(x any) { *h = append(*h, x.(entry[K])) }

func (h *bucketHeap[K]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
