package window

import (
	"testing"

	"github.com/FPozo/SelfHealingProtocol/internal/timemodel"
)

func TestPlaceSplitsAcrossWindowS3(t *testing.T) {
	// pi = 100us, tau = 80us (in ns).
	planner, err := NewPlanner(Protocol{Period: 100_000, Duration: 80_000})
	if err != nil {
		t.Fatalf("NewPlanner returned error: %v", err)
	}

	// 150 byte frame at 100 MB/s (188 ns) starting 100 ns before the
	// window closes at tau; it spills past tau and must be split into two
	// usages.
	d := timemodel.WindowDurationNanos(150, 100)
	free, err := planner.Place(1, "TT", 79_900, d, 0)
	if err != nil {
		t.Fatalf("Place returned error: %v", err)
	}

	usages := planner.Usages(1)
	if len(usages) != 2 {
		t.Fatalf("got %d usage fragments, want 2: %+v", len(usages), usages)
	}
	if usages[0].Start != 79_900 || usages[0].End != 80_000 {
		t.Fatalf("first fragment = %+v, want [79900, 80000)", usages[0])
	}
	// The second fragment must start exactly at the next window (100us)
	// and the two fragments are separated by exactly tau's complement:
	// [80000, 100000), the part of the period outside the protocol
	// window, i.e. 20us.
	if usages[1].Start != 100_000 {
		t.Fatalf("second fragment start = %d, want 100000 (separated by 20us protocol gap)", usages[1].Start)
	}
	if !planner.NoUsageStraddlesWindow(1) {
		t.Fatalf("a usage interval straddles the protocol reservation window")
	}
	if free != usages[1].End {
		t.Fatalf("returned free time %d, want the last fragment end %d (no processing delay)", free, usages[1].End)
	}
}

func TestPlaceAdvancesStartOutsideWindow(t *testing.T) {
	planner, err := NewPlanner(Protocol{Period: 100_000, Duration: 80_000})
	if err != nil {
		t.Fatalf("NewPlanner returned error: %v", err)
	}
	// Starting at 90000 is outside the protocol window part of the period
	// (80000..100000); must
	// advance to the next window start, 100000.
	free, err := planner.Place(1, "TT", 90_000, 1_000, 0)
	if err != nil {
		t.Fatalf("Place returned error: %v", err)
	}
	usages := planner.Usages(1)
	if usages[0].Start != 100_000 {
		t.Fatalf("usage start = %d, want 100000", usages[0].Start)
	}
	if free != 101_000 {
		t.Fatalf("free = %d, want 101000", free)
	}
}

func TestPlaceAvoidsCollisionWithPriorUsage(t *testing.T) {
	planner, err := NewPlanner(Protocol{Period: 100_000, Duration: 80_000})
	if err != nil {
		t.Fatalf("NewPlanner returned error: %v", err)
	}
	if _, err := planner.Place(1, "A", 0, 10_000, 0); err != nil {
		t.Fatalf("Place returned error: %v", err)
	}
	free, err := planner.Place(1, "B", 5_000, 1_000, 0)
	if err != nil {
		t.Fatalf("Place returned error: %v", err)
	}
	usages := planner.Usages(1)
	if usages[1].Start != 10_000 {
		t.Fatalf("second usage start = %d, want 10000 (pushed past the first transmission)", usages[1].Start)
	}
	if free != 11_000 {
		t.Fatalf("free = %d, want 11000", free)
	}
}
