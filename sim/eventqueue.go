package sim

import "container/heap"

// eventQueue holds pending events in one FIFO bucket per cycle. The cycles
// that have a bucket are kept in a min-heap, so events pop in cycle order and
// events of the same cycle pop in the order they were pushed.
type eventQueue struct {
	buckets map[VTimeInCycle][]Event
	cycles  cycleHeap
	size    int
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		buckets: make(map[VTimeInCycle][]Event),
	}
}

func (q *eventQueue) push(evt Event) {
	t := evt.Time()

	bucket, ok := q.buckets[t]
	if !ok {
		heap.Push(&q.cycles, t)
	}

	q.buckets[t] = append(bucket, evt)
	q.size++
}

// pop removes the earliest event. It must not be called on an empty queue.
func (q *eventQueue) pop() Event {
	t := q.cycles[0]
	bucket := q.buckets[t]
	evt := bucket[0]

	if len(bucket) == 1 {
		delete(q.buckets, t)
		heap.Pop(&q.cycles)
	} else {
		bucket[0] = nil
		q.buckets[t] = bucket[1:]
	}

	q.size--

	return evt
}

// nextCycle returns the cycle of the earliest event.
func (q *eventQueue) nextCycle() (VTimeInCycle, bool) {
	if q.size == 0 {
		return 0, false
	}

	return q.cycles[0], true
}

func (q *eventQueue) len() int {
	return q.size
}

type cycleHeap []VTimeInCycle

func (h cycleHeap) Len() int           { return len(h) }
func (h cycleHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h cycleHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *cycleHeap) Push(x any) {
	*h = append(*h, x.(VTimeInCycle))
}

func (h *cycleHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	*h = old[:n-1]

	return t
}
