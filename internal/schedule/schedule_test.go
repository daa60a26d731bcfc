package schedule

import "testing"

func TestFrameDeadlineDefaultsToPeriod(t *testing.T) {
	f, err := NewFrame(1, 1, []int{2}, 1000, 0, 125, 0, 0)
	if err != nil {
		t.Fatalf("NewFrame returned error: %v", err)
	}
	if f.Deadline() != 1000 {
		t.Fatalf("Deadline() = %d, want 1000 (deadline defaults to period)", f.Deadline())
	}
	if f.EndToEnd() != 1000 {
		t.Fatalf("EndToEnd() = %d, want 1000 (end-to-end defaults to deadline)", f.EndToEnd())
	}
}

func TestFrameSenderCannotBeReceiver(t *testing.T) {
	if _, err := NewFrame(1, 1, []int{1}, 1000, 0, 125, 0, 0); err == nil {
		t.Fatalf("expected an error when the sender is also a receiver")
	}
}

func TestSetPathCreatesOffsets(t *testing.T) {
	f, err := NewFrame(1, 1, []int{2}, 1000, 0, 125, 0, 0)
	if err != nil {
		t.Fatalf("NewFrame returned error: %v", err)
	}
	if err := f.SetPath(2, []int{10, 11}); err != nil {
		t.Fatalf("SetPath returned error: %v", err)
	}
	if f.GetOffsetByLink(10) == nil || f.GetOffsetByLink(11) == nil {
		t.Fatalf("expected offsets for both links on the installed path")
	}
	if !f.LinkInPath(10) {
		t.Fatalf("expected link 10 to be reported in path")
	}
}

func TestExchangePathSplicesInPlace(t *testing.T) {
	f, err := NewFrame(1, 1, []int{2}, 1000, 0, 125, 0, 0)
	if err != nil {
		t.Fatalf("NewFrame returned error: %v", err)
	}
	if err := f.SetPath(2, []int{10, 11, 12}); err != nil {
		t.Fatalf("SetPath returned error: %v", err)
	}
	f.ExchangePath(11, []int{20, 21})
	path, err := f.GetPath(2)
	if err != nil {
		t.Fatalf("GetPath returned error: %v", err)
	}
	want := []int{10, 20, 21, 12}
	if len(path) != len(want) {
		t.Fatalf("ExchangePath result = %v, want %v", path, want)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("ExchangePath result = %v, want %v", path, want)
		}
	}
}

func TestRemoveUnusedOffsetsInvariant8(t *testing.T) {
	f, err := NewFrame(1, 1, []int{2}, 1000, 0, 125, 0, 0)
	if err != nil {
		t.Fatalf("NewFrame returned error: %v", err)
	}
	if err := f.SetPath(2, []int{10, 11}); err != nil {
		t.Fatalf("SetPath returned error: %v", err)
	}
	f.AddOffset(99) // simulate a stale offset left over from a prior path
	removed := f.RemoveUnusedOffsets()
	if removed != 1 {
		t.Fatalf("RemoveUnusedOffsets removed %d offsets, want 1", removed)
	}
	if f.GetOffsetByLink(99) != nil {
		t.Fatalf("expected the unused offset on link 99 to be gone")
	}
}

func TestOffsetOverwriteOnlyWithIdenticalValue(t *testing.T) {
	o := NewOffset()
	if err := o.Prepare(2, 0); err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if err := o.SetTransmissionTime(0, 0, 500); err != nil {
		t.Fatalf("SetTransmissionTime returned error: %v", err)
	}
	if err := o.SetTransmissionTime(0, 0, 500); err != nil {
		t.Fatalf("re-setting with the identical value should succeed, got: %v", err)
	}
	if err := o.SetTransmissionTime(0, 0, 600); err == nil {
		t.Fatalf("expected an error when overwriting with a different value")
	}
}

func TestNumOffsetsSumsInstances(t *testing.T) {
	s := New(2000, 10)
	f1, _ := NewFrame(1, 1, []int{2}, 1000, 0, 125, 0, 0)
	_ = f1.SetPath(2, []int{10})
	_ = f1.PrepareLinkOffset(10, f1.NumInstances(s.Hyperperiod), 0)
	f2, _ := NewFrame(2, 3, []int{4}, 2000, 0, 125, 0, 0)
	_ = f2.SetPath(4, []int{10})
	_ = f2.PrepareLinkOffset(10, f2.NumInstances(s.Hyperperiod), 0)
	s.AddFrame(f1)
	s.AddFrame(f2)

	if got := s.NumOffsets(10); got != 3 { // 2 instances + 1 instance
		t.Fatalf("NumOffsets(10) = %d, want 3", got)
	}
}
