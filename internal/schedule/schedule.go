package schedule

import "sort"

// Schedule owns the full frame set plus the hyperperiod and time-slot size
// that the external solver and XML interfaces (§6) express offsets in (§3).
type Schedule struct {
	Hyperperiod  int64 // ns
	TimeSlot     int64 // ns, the solver's quantum σ
	frames       map[int]*Frame
}

// New returns an empty Schedule for the given hyperperiod and time-slot
// size.
func New(hyperperiod, timeSlot int64) *Schedule {
	return &Schedule{
		Hyperperiod: hyperperiod,
		TimeSlot:    timeSlot,
		frames:      make(map[int]*Frame),
	}
}

// AddFrame registers f under its own ID.
func (s *Schedule) AddFrame(f *Frame) {
	s.frames[f.ID] = f
}

// Frame returns the frame with the given ID, or nil.
func (s *Schedule) Frame(id int) *Frame { return s.frames[id] }

// Frames returns every frame, sorted by ID for deterministic iteration.
func (s *Schedule) Frames() []*Frame {
	out := make([]*Frame, 0, len(s.frames))
	for _, f := range s.frames {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FrameOffset pairs a frame with its offset on a specific link, the element
// type returned by OffsetsByLink.
type FrameOffset struct {
	FrameID int
	Frame   *Frame
	Offset  *Offset
}

// OffsetsByLink returns every (frame, offset) pair whose offset table
// contains linkID, sorted by frame ID (§4.2).
func (s *Schedule) OffsetsByLink(linkID int) []FrameOffset {
	var out []FrameOffset
	for _, f := range s.Frames() {
		if o := f.GetOffsetByLink(linkID); o != nil {
			out = append(out, FrameOffset{FrameID: f.ID, Frame: f, Offset: o})
		}
	}
	return out
}

// NumOffsets sums offset.NumInstances() over every frame that transmits on
// linkID (§4.2).
func (s *Schedule) NumOffsets(linkID int) int {
	total := 0
	for _, fo := range s.OffsetsByLink(linkID) {
		total += fo.Offset.NumInstances()
	}
	return total
}

// ExchangePath delegates to every frame whose path contains link, splicing
// newPath in as described in Frame.ExchangePath.
func (s *Schedule) ExchangePath(link int, newPath []int) {
	for _, f := range s.Frames() {
		if f.LinkInPath(link) {
			f.ExchangePath(link, newPath)
		}
	}
}

// RemoveUnusedOffsets runs Frame.RemoveUnusedOffsets across every frame and
// returns the total number of offsets removed.
func (s *Schedule) RemoveUnusedOffsets() int {
	total := 0
	for _, f := range s.Frames() {
		total += f.RemoveUnusedOffsets()
	}
	return total
}
