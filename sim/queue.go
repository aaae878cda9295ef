package sim

import "container/heap"

// eventEntry wraps an Event with an insertion sequence number for
// deterministic FIFO tie-breaking when fire times are equal, and a canceled
// flag so Cancel never has to search the heap.
type eventEntry struct {
	ev       *Event
	seq      uint64
	canceled bool
}

// EventHandle identifies a scheduled event for cancellation.
type EventHandle struct {
	entry *eventEntry
}

// eventHeap is a min-heap ordered by (fire time, insertion seq).
// Implements heap.Interface.
type eventHeap []*eventEntry

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].ev.Time != h[j].ev.Time {
		return h[i].ev.Time < h[j].ev.Time
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*eventEntry))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// EventQueue is the time-ordered queue driving one simulation run. It owns
// the simulation clock and nothing else: no protocol state, no node state.
//
// Ordering is strict ascending fire time, ties broken FIFO by insertion
// sequence, which makes the event order fully deterministic for a fixed
// seed and replayable across runs.
type EventQueue struct {
	entries eventHeap
	now     float64
	nextSeq uint64
}

// NewEventQueue creates an empty queue with the clock at zero.
func NewEventQueue() *EventQueue {
	q := &EventQueue{entries: make(eventHeap, 0)}
	heap.Init(&q.entries)
	return q
}

// Now returns the current simulation clock.
func (q *EventQueue) Now() float64 {
	return q.now
}

// Len returns the number of pending (non-canceled) events.
func (q *EventQueue) Len() int {
	n := 0
	for _, e := range q.entries {
		if !e.canceled {
			n++
		}
	}
	return n
}

// Schedule inserts an event. Scheduling strictly before the current clock is
// rejected with a LogicError: the caller scheduled into the past, which is
// an engine bug.
func (q *EventQueue) Schedule(ev *Event) (*EventHandle, error) {
	if ev.Time < q.now {
		return nil, &LogicError{
			Op:     "Schedule",
			Reason: "event time precedes current clock",
		}
	}
	entry := &eventEntry{ev: ev, seq: q.nextSeq}
	q.nextSeq++
	heap.Push(&q.entries, entry)
	return &EventHandle{entry: entry}, nil
}

// Cancel removes a scheduled event. Canceling an already-fired (or
// already-canceled) event is a no-op.
func (q *EventQueue) Cancel(h *EventHandle) {
	if h == nil || h.entry == nil {
		return
	}
	h.entry.canceled = true
}

// PopNext removes and returns the next event, advancing the clock to its
// fire time. Returns nil when the queue is exhausted.
func (q *EventQueue) PopNext() *Event {
	for q.entries.Len() > 0 {
		entry := heap.Pop(&q.entries).(*eventEntry)
		if entry.canceled {
			continue
		}
		q.now = entry.ev.Time
		return entry.ev
	}
	return nil
}

// AdvanceTo moves the clock forward to t without firing anything, for bulk
// skips when no engine-relevant events remain. Moving backward is rejected
// with a LogicError.
func (q *EventQueue) AdvanceTo(t float64) error {
	if t < q.now {
		return &LogicError{
			Op:     "AdvanceTo",
			Reason: "target time precedes current clock",
		}
	}
	q.now = t
	return nil
}
