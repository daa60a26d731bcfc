package eventqueue

import "sort"

// entry pairs a queued event with its insertion sequence number. FIFO order
// for exact time ties (§4.5, §5) comes from Add inserting after every
// existing entry of equal time; seq only records the insertion order.
type entry struct {
	event Event
	seq   int64
}

// NodeQueue is the time-ordered event queue owned by a single simulated
// node (§4.5). Insertion keeps the queue sorted by time; equal-time events
// preserve insertion order.
type NodeQueue struct {
	entries []entry
	nextSeq int64

	notified map[int]bool // failure ids already notified via Notification/NotificationHS
	found    map[int]bool // failure ids already notified via FindingPath
}

// NewNodeQueue returns an empty queue.
func NewNodeQueue() *NodeQueue {
	return &NodeQueue{
		notified: make(map[int]bool),
		found:    make(map[int]bool),
	}
}

// Add inserts event in time order, applying the Notification/FindingPath
// dedup rule: a node that already received one for a given failure id drops
// the duplicate silently rather than queuing it.
func (q *NodeQueue) Add(event Event) {
	if fe, ok := event.(FrameEvent); ok && fe.Name.isDedup() {
		switch fe.Name {
		case Notification, NotificationHS:
			if q.notified[fe.EventID()] {
				return
			}
			q.notified[fe.EventID()] = true
		case FindingPath:
			if q.found[fe.EventID()] {
				return
			}
			q.found[fe.EventID()] = true
		}
	}

	e := entry{event: event, seq: q.nextSeq}
	q.nextSeq++

	idx := sort.Search(len(q.entries), func(i int) bool {
		return q.entries[i].event.Time() > event.Time()
	})
	q.entries = append(q.entries, entry{})
	copy(q.entries[idx+1:], q.entries[idx:])
	q.entries[idx] = e
}

// MarkFound records that this node has already been reached by a
// FindingPath broadcast for failureID, without queuing an event -- used
// when a node originates the broadcast itself.
func (q *NodeQueue) MarkFound(failureID int) {
	q.found[failureID] = true
}

// Peek returns the earliest queued event without removing it, and whether
// the queue is non-empty.
func (q *NodeQueue) Peek() (Event, bool) {
	if len(q.entries) == 0 {
		return nil, false
	}
	return q.entries[0].event, true
}

// Pop removes and returns the earliest queued event.
func (q *NodeQueue) Pop() Event {
	e := q.entries[0]
	q.entries = q.entries[1:]
	return e.event
}

// Len returns the number of queued events.
func (q *NodeQueue) Len() int { return len(q.entries) }
