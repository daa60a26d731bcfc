package eventqueue

// NetworkQueues owns one NodeQueue per node and implements the global
// next-event selection rule in §4.6: smallest time, ties broken by node ID
// ascending, then by insertion order within that node's queue.
type NetworkQueues struct {
	byNode map[int]*NodeQueue
}

// NewNetworkQueues returns an empty registry.
func NewNetworkQueues() *NetworkQueues {
	return &NetworkQueues{byNode: make(map[int]*NodeQueue)}
}

// At returns the queue for nodeID, creating it on first use.
func (n *NetworkQueues) At(nodeID int) *NodeQueue {
	q, ok := n.byNode[nodeID]
	if !ok {
		q = NewNodeQueue()
		n.byNode[nodeID] = q
	}
	return q
}

// Empty reports whether every node's queue is empty.
func (n *NetworkQueues) Empty() bool {
	for _, q := range n.byNode {
		if q.Len() > 0 {
			return false
		}
	}
	return true
}

// PopNext selects and removes the globally earliest-pending event across
// all node queues, returning it alongside the node it was popped from.
// Returns ok=false once every queue is empty.
func (n *NetworkQueues) PopNext() (event Event, nodeID int, ok bool) {
	// Each node contributes at most one candidate (its own queue head), so
	// ties across nodes at the same time are broken purely by node ID;
	// insertion order only disambiguates events already within one node's
	// queue, which NodeQueue.Add has arranged for at insertion time.
	bestNode := -1
	var bestTime int64

	for id, q := range n.byNode {
		ev, has := q.Peek()
		if !has {
			continue
		}
		switch {
		case bestNode == -1:
			bestNode, bestTime = id, ev.Time()
		case ev.Time() < bestTime:
			bestNode, bestTime = id, ev.Time()
		case ev.Time() == bestTime && id < bestNode:
			bestNode, bestTime = id, ev.Time()
		}
	}

	if bestNode == -1 {
		return nil, 0, false
	}
	return n.byNode[bestNode].Pop(), bestNode, true
}
