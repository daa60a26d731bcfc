// Package eventqueue implements the three tagged event variants the
// simulator dispatches (§3, §9) and the per-node ordered queue that holds
// them (§4.5). Variants are a sum type expressed as an interface with a type
// switch at the dispatch site, not inheritance: each variant carries only
// the fields its own semantics need.
package eventqueue

import "fmt"

// Event is the common shape shared by every event variant: an identifier
// and the simulated time it fires at.
type Event interface {
	EventID() int
	Time() int64
}

type base struct {
	id   int
	time int64
}

func (b base) EventID() int { return b.id }
func (b base) Time() int64  { return b.time }

// InternalName enumerates internal event kinds.
type InternalName string

const (
	LinkFailure InternalName = "LinkFailure"
)

// InternalEvent models simulator-internal occurrences, currently only a
// link failure.
type InternalEvent struct {
	base
	Name InternalName
}

// NewInternalEvent constructs an InternalEvent, validating id and time.
func NewInternalEvent(id int, name InternalName, time int64) (InternalEvent, error) {
	if id < 0 {
		return InternalEvent{}, fmt.Errorf("eventqueue: event id must be non-negative, got %d", id)
	}
	if time < 0 {
		return InternalEvent{}, fmt.Errorf("eventqueue: event time must be non-negative, got %d", time)
	}
	return InternalEvent{base: base{id: id, time: time}, Name: name}, nil
}

// FrameName enumerates the wire-transmission event kinds. The earlier SHP
// revision's broadcast variants (Notification, FindingPath, NotifyPath,
// Membership) coexist with the ISHP variants (NotificationHS,
// DistributeSchedulePatch, DistributeScheduleOptimize); which subset is
// legal for a given run is a runtime choice, not a compile-time one (§9).
type FrameName string

const (
	Notification              FrameName = "Notification"
	FindingPath                FrameName = "FindingPath"
	NotifyPath                 FrameName = "NotifyPath"
	Membership                 FrameName = "Membership"
	NotificationHS              FrameName = "NotificationHS"
	DistributeSchedulePatch     FrameName = "DistributeSchedulePatch"
	DistributeScheduleOptimize  FrameName = "DistributeScheduleOptimize"
)

// FrameEvent models a wire transmission hopping along an explicit node path.
// Path holds the remaining hops, including the current node as Path[0];
// hopping consumes the head of Path and re-emits at the next node.
type FrameEvent struct {
	base
	Name FrameName
	Size int64 // bits on the wire for this hop
	Path []int
}

// NewFrameEvent constructs a FrameEvent.
func NewFrameEvent(id int, name FrameName, time, size int64, path []int) (FrameEvent, error) {
	if id < 0 {
		return FrameEvent{}, fmt.Errorf("eventqueue: event id must be non-negative, got %d", id)
	}
	if time < 0 {
		return FrameEvent{}, fmt.Errorf("eventqueue: event time must be non-negative, got %d", time)
	}
	if size < 0 {
		return FrameEvent{}, fmt.Errorf("eventqueue: frame size must be non-negative, got %d", size)
	}
	return FrameEvent{base: base{id: id, time: time}, Name: name, Size: size, Path: path}, nil
}

// AtDestination reports whether this frame event has reached the last node
// on its path.
func (f FrameEvent) AtDestination() bool { return len(f.Path) <= 1 }

// Hop returns a copy of f advanced to the next node, with time advanced by
// hopDuration. Calling Hop on an event already at its destination panics;
// callers must check AtDestination first.
func (f FrameEvent) Hop(hopDuration int64) FrameEvent {
	if f.AtDestination() {
		panic("eventqueue: Hop called on a frame event already at its destination")
	}
	next := f
	next.time = f.time + hopDuration
	next.Path = f.Path[1:]
	return next
}

// CurrentNode returns the node this event is presently at.
func (f FrameEvent) CurrentNode() int { return f.Path[0] }

// NextNode returns the node this event will hop to.
func (f FrameEvent) NextNode() int { return f.Path[1] }

// isDedup reports whether name participates in per-node receive
// deduplication (§4.5): a node drops a second Notification/NotificationHS
// or FindingPath for the same failure id rather than re-queuing it.
func (n FrameName) isDedup() bool {
	switch n {
	case Notification, NotificationHS, FindingPath:
		return true
	default:
		return false
	}
}

// ExecutionName enumerates local leader computations.
type ExecutionName string

const (
	Patch    ExecutionName = "Patch"
	Optimize ExecutionName = "Optimize"
)

// ExecutionEvent models a synchronous local computation at the leader node.
type ExecutionEvent struct {
	base
	Name     ExecutionName
	FailureID int
}

// NewExecutionEvent constructs an ExecutionEvent.
func NewExecutionEvent(id int, name ExecutionName, time int64, failureID int) (ExecutionEvent, error) {
	if id < 0 {
		return ExecutionEvent{}, fmt.Errorf("eventqueue: event id must be non-negative, got %d", id)
	}
	if time < 0 {
		return ExecutionEvent{}, fmt.Errorf("eventqueue: event time must be non-negative, got %d", time)
	}
	return ExecutionEvent{base: base{id: id, time: time}, Name: name, FailureID: failureID}, nil
}
