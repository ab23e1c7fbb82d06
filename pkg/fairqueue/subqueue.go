package fairqueue

// SubQueue is the mutable FIFO of payloads for one bucket. LookupBucket
// returns the live handle, so callers can reorder or truncate pending items
// in place without affecting the bucket's priority. Emptying a sub-queue
// through its handle does not remove the bucket immediately; the queue
// notices the next time a removal touches the bucket.
type SubQueue[V any] struct {
	items []V
}

// Len returns the number of pending payloads.
func (s *SubQueue[V]) Len() int { return len(s.items) }

// Items returns the backing slice. Mutating elements in place is visible to
// the queue; use Set or Clear to change the length.
func (s *SubQueue[V]) Items() []V { return s.items }

// At returns the payload at position i, head first.
func (s *SubQueue[V]) At(i int) V { return s.items[i] }

// Set replaces the pending payloads.
func (s *SubQueue[V]) Set(items []V) { s.items = items }

// Clear drops all pending payloads.
func (s *SubQueue[V]) Clear() { s.items = nil }

func (s *SubQueue[V]) push(v V) { s.items = append(s.items, v) }

func (s *SubQueue[V]) popFront() V {
	v := s.items[0]
	s.items = s.items[1:]
	return v
}
