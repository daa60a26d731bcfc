package eventqueue

import "testing"

func TestNodeQueueOrdersByTime(t *testing.T) {
	q := NewNodeQueue()
	e1, _ := NewInternalEvent(1, LinkFailure, 500)
	e2, _ := NewInternalEvent(2, LinkFailure, 100)
	q.Add(e1)
	q.Add(e2)

	first, ok := q.Peek()
	if !ok {
		t.Fatalf("expected a queued event")
	}
	if first.EventID() != 2 {
		t.Fatalf("Peek() = event %d, want event 2 (earlier time)", first.EventID())
	}
}

func TestNodeQueueDedupsNotification(t *testing.T) {
	q := NewNodeQueue()
	fe, _ := NewFrameEvent(7, NotificationHS, 10, 100, []int{1, 2})
	q.Add(fe)
	if q.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", q.Len())
	}
	dup, _ := NewFrameEvent(7, NotificationHS, 20, 100, []int{1, 2})
	q.Add(dup)
	if q.Len() != 1 {
		t.Fatalf("Len() = %d after duplicate notification, want 1 (deduped)", q.Len())
	}
}

func TestNodeQueueDedupsFindingPathIndependentlyOfNotification(t *testing.T) {
	q := NewNodeQueue()
	notif, _ := NewFrameEvent(7, NotificationHS, 10, 100, []int{1, 2})
	finding, _ := NewFrameEvent(7, FindingPath, 10, 50, []int{1, 2})
	q.Add(notif)
	q.Add(finding)
	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (distinct frame names do not dedup each other)", q.Len())
	}
}

func TestNetworkQueuesPopNextBreaksTiesByNodeID(t *testing.T) {
	net := NewNetworkQueues()
	e10, _ := NewInternalEvent(1, LinkFailure, 100)
	e20, _ := NewInternalEvent(2, LinkFailure, 100)
	net.At(5).Add(e20)
	net.At(3).Add(e10)

	ev, node, ok := net.PopNext()
	if !ok {
		t.Fatalf("expected a pending event")
	}
	if node != 3 {
		t.Fatalf("PopNext selected node %d, want node 3 (lower node ID wins a time tie)", node)
	}
	if ev.EventID() != e10.EventID() {
		t.Fatalf("PopNext returned the wrong event")
	}
}

func TestNetworkQueuesEmpty(t *testing.T) {
	net := NewNetworkQueues()
	if !net.Empty() {
		t.Fatalf("a fresh NetworkQueues should be empty")
	}
	e, _ := NewInternalEvent(1, LinkFailure, 0)
	net.At(1).Add(e)
	if net.Empty() {
		t.Fatalf("NetworkQueues should not be empty after adding an event")
	}
	net.PopNext()
	if !net.Empty() {
		t.Fatalf("NetworkQueues should be empty after popping its only event")
	}
}
