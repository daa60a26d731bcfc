package schedule

import "fmt"

// Frame is a time-triggered application message: one sender, one or more
// receivers, and the timing parameters that bound its transmissions (§3).
type Frame struct {
	ID         int
	senderID   int
	receivers  []int
	period     int64 // ns
	deadline   int64 // ns
	size       int64 // bytes
	startingAt int64 // ns
	endToEnd   int64 // ns

	paths   map[int][]int // receiver -> ordered link IDs
	offsets map[int]*Offset
}

// NewFrame constructs a Frame, applying the same defaulting rules as the
// setters below: deadline 0 means deadline = period, end-to-end 0 means
// end-to-end = deadline (§8 boundary behaviors).
func NewFrame(id, senderID int, receivers []int, period, deadline, size, startingAt, endToEnd int64) (*Frame, error) {
	f := &Frame{
		ID:      id,
		paths:   make(map[int][]int),
		offsets: make(map[int]*Offset),
	}
	if err := f.SetSenderAndReceivers(senderID, receivers); err != nil {
		return nil, err
	}
	if err := f.SetPeriod(period); err != nil {
		return nil, err
	}
	if err := f.SetDeadline(deadline); err != nil {
		return nil, err
	}
	if err := f.SetSize(size); err != nil {
		return nil, err
	}
	if err := f.SetStartingTime(startingAt); err != nil {
		return nil, err
	}
	if err := f.SetEndToEnd(endToEnd); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Frame) SenderID() int      { return f.senderID }
func (f *Frame) Receivers() []int   { return f.receivers }
func (f *Frame) Period() int64      { return f.period }
func (f *Frame) Deadline() int64    { return f.deadline }
func (f *Frame) Size() int64        { return f.size }
func (f *Frame) StartingTime() int64 { return f.startingAt }
func (f *Frame) EndToEnd() int64    { return f.endToEnd }

// SetSenderAndReceivers sets the sender and receiver set together, since the
// validity of one depends on the other (sender must not also be a receiver).
func (f *Frame) SetSenderAndReceivers(senderID int, receivers []int) error {
	for _, r := range receivers {
		if r == senderID {
			return fmt.Errorf("schedule: frame %d receiver %d cannot equal its own sender", f.ID, r)
		}
	}
	f.senderID = senderID
	f.receivers = receivers
	return nil
}

func (f *Frame) SetPeriod(period int64) error {
	if period <= 0 {
		return fmt.Errorf("schedule: frame %d period must be positive, got %d", f.ID, period)
	}
	f.period = period
	return nil
}

// SetDeadline sets the deadline. A value of 0 means "deadline = period".
func (f *Frame) SetDeadline(deadline int64) error {
	if deadline < 0 {
		return fmt.Errorf("schedule: frame %d deadline must be non-negative, got %d", f.ID, deadline)
	}
	if deadline > f.period {
		return fmt.Errorf("schedule: frame %d deadline %d cannot exceed period %d", f.ID, deadline, f.period)
	}
	if deadline == 0 {
		f.deadline = f.period
	} else {
		f.deadline = deadline
	}
	return nil
}

func (f *Frame) SetSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("schedule: frame %d size must be positive, got %d", f.ID, size)
	}
	f.size = size
	return nil
}

func (f *Frame) SetStartingTime(startingAt int64) error {
	if startingAt < 0 {
		return fmt.Errorf("schedule: frame %d starting time must be non-negative, got %d", f.ID, startingAt)
	}
	if startingAt >= f.deadline {
		return fmt.Errorf("schedule: frame %d starting time %d must be less than its deadline %d", f.ID, startingAt, f.deadline)
	}
	f.startingAt = startingAt
	return nil
}

// SetEndToEnd sets the end-to-end delay. A value of 0 means "end-to-end =
// deadline".
func (f *Frame) SetEndToEnd(endToEnd int64) error {
	if endToEnd < 0 {
		return fmt.Errorf("schedule: frame %d end-to-end must be non-negative, got %d", f.ID, endToEnd)
	}
	if endToEnd > f.deadline {
		return fmt.Errorf("schedule: frame %d end-to-end %d cannot exceed its deadline %d", f.ID, endToEnd, f.deadline)
	}
	if endToEnd == 0 {
		f.endToEnd = f.deadline
	} else {
		f.endToEnd = endToEnd
	}
	return nil
}

// GetPath returns the ordered link IDs from sender to receiver.
func (f *Frame) GetPath(receiver int) ([]int, error) {
	if !containsInt(f.receivers, receiver) {
		return nil, fmt.Errorf("%w: frame %d, receiver %d", ErrUnknownReceiver, f.ID, receiver)
	}
	path, ok := f.paths[receiver]
	if !ok {
		return nil, fmt.Errorf("%w: frame %d, receiver %d", ErrNoPath, f.ID, receiver)
	}
	return path, nil
}

// Paths returns the full receiver -> path map. Callers must not mutate the
// returned slices directly; use SetPath/ExchangePath.
func (f *Frame) Paths() map[int][]int { return f.paths }

// Offsets returns the full link ID -> Offset map.
func (f *Frame) Offsets() map[int]*Offset { return f.offsets }

// GetOffsetByLink returns the frame's offset on linkID, or nil if the frame
// has no transmission on that link.
func (f *Frame) GetOffsetByLink(linkID int) *Offset {
	return f.offsets[linkID]
}

// LinkInPath reports whether linkID appears in any receiver's path.
func (f *Frame) LinkInPath(linkID int) bool {
	for _, path := range f.paths {
		if containsInt(path, linkID) {
			return true
		}
	}
	return false
}

// SetPath installs the path to receiver and lazily creates an Offset entry
// for every link newly introduced by it.
func (f *Frame) SetPath(receiver int, linkPath []int) error {
	if !containsInt(f.receivers, receiver) {
		return fmt.Errorf("%w: frame %d, receiver %d", ErrUnknownReceiver, f.ID, receiver)
	}
	f.paths[receiver] = linkPath
	for _, link := range linkPath {
		if _, ok := f.offsets[link]; !ok {
			f.offsets[link] = NewOffset()
		}
	}
	return nil
}

// ExchangePath replaces the first occurrence of `link` in each receiver path
// that contains it with the ordered links of newPath, splicing it in place (§4.2, §4.6). It
// does not create or remove Offset entries; callers are expected to follow
// up with RemoveUnusedOffsets and install offsets for newly introduced
// links separately, mirroring the two-step shape of the repair pipeline.
func (f *Frame) ExchangePath(link int, newPath []int) {
	for receiver, path := range f.paths {
		idx := indexOfInt(path, link)
		if idx < 0 {
			continue
		}
		spliced := make([]int, 0, len(path)-1+len(newPath))
		spliced = append(spliced, path[:idx]...)
		spliced = append(spliced, newPath...)
		spliced = append(spliced, path[idx+1:]...)
		f.paths[receiver] = spliced
	}
}

// RemoveUnusedOffsets deletes every Offset entry whose link is no longer
// referenced by any receiver path (§4.2, invariant 8 in §8).
func (f *Frame) RemoveUnusedOffsets() (removed int) {
	for linkID := range f.offsets {
		if !f.LinkInPath(linkID) {
			delete(f.offsets, linkID)
			removed++
		}
	}
	return removed
}

// AddOffset creates a fresh, unprepared Offset for linkID, overwriting any
// existing one.
func (f *Frame) AddOffset(linkID int) {
	f.offsets[linkID] = NewOffset()
}

// PrepareLinkOffset prepares the offset matrices on linkID for the given
// instance/replica counts.
func (f *Frame) PrepareLinkOffset(linkID, numInstances, numReplicas int) error {
	o, ok := f.offsets[linkID]
	if !ok {
		return fmt.Errorf("schedule: frame %d has no offset for link %d", f.ID, linkID)
	}
	return o.Prepare(numInstances, numReplicas)
}

// SetOffsetTransmissionTime sets the transmission time of the offset on
// linkID for the given instance/replica.
func (f *Frame) SetOffsetTransmissionTime(linkID, instance, replica int, time int64) error {
	o, ok := f.offsets[linkID]
	if !ok {
		return fmt.Errorf("schedule: frame %d has no offset for link %d", f.ID, linkID)
	}
	return o.SetTransmissionTime(instance, replica, time)
}

// SetOffsetEndingTime sets the ending time of the offset on linkID for the
// given instance/replica.
func (f *Frame) SetOffsetEndingTime(linkID, instance, replica int, time int64) error {
	o, ok := f.offsets[linkID]
	if !ok {
		return fmt.Errorf("schedule: frame %d has no offset for link %d", f.ID, linkID)
	}
	return o.SetEndingTime(instance, replica, time)
}

// NumInstances returns hyperperiod/period, the number of times this frame
// repeats within one hyperperiod.
func (f *Frame) NumInstances(hyperperiod int64) int {
	if f.period == 0 {
		return 0
	}
	return int(hyperperiod / f.period)
}

func containsInt(list []int, v int) bool {
	return indexOfInt(list, v) >= 0
}

func indexOfInt(list []int, v int) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}
