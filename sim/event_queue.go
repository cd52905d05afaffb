package sim

import "container/heap"

// queueEntry pairs an event with its insertion sequence number.
type queueEntry struct {
	event Event
	seq   uint64
}

// eventHeap implements heap.Interface with deterministic ordering.
// Order by: time → insertion sequence.
type eventHeap []queueEntry

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	ti, tj := h[i].event.Time(), h[j].event.Time()
	if ti != tj {
		return ti < tj
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(queueEntry))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = queueEntry{} // drop the reference so the event can be collected
	*h = old[0 : n-1]
	return item
}

// EventQueue is the time-ordered schedule of pending events.
// Events with equal times pop in insertion order, which keeps runs reproducible.
//
// Thread-safety: NOT thread-safe. All calls happen on the simulation goroutine,
// including inserts made while an event is being processed.
type EventQueue struct {
	events  eventHeap
	nextSeq uint64
}

// NewEventQueue creates an empty queue.
func NewEventQueue() *EventQueue {
	q := &EventQueue{events: make(eventHeap, 0)}
	heap.Init(&q.events)
	return q
}

// Insert adds an event in O(log n).
func (q *EventQueue) Insert(e Event) {
	if e == nil {
		panic("EventQueue.Insert: event must not be nil")
	}
	heap.Push(&q.events, queueEntry{event: e, seq: q.nextSeq})
	q.nextSeq++
}

// PopMin removes and returns the earliest event.
// Returns nil when the queue is empty (end of schedule).
func (q *EventQueue) PopMin() Event {
	if q.events.Len() == 0 {
		return nil
	}
	return heap.Pop(&q.events).(queueEntry).event
}

// Peek returns the earliest event without removing it, or nil.
func (q *EventQueue) Peek() Event {
	if q.events.Len() == 0 {
		return nil
	}
	return q.events[0].event
}

// PeekTime returns the time of the earliest event. ok is false when empty.
func (q *EventQueue) PeekTime() (t float64, ok bool) {
	if q.events.Len() == 0 {
		return 0, false
	}
	return q.events[0].event.Time(), true
}

// Len returns the number of pending events.
func (q *EventQueue) Len() int {
	return q.events.Len()
}
