package sim

import (
	"testing"

	"github.com/FPozo/SelfHealingProtocol/internal/schedule"
	"github.com/FPozo/SelfHealingProtocol/internal/topology"
)

func TestBelongsToLeaderOwnSwitch(t *testing.T) {
	cfg := Config{HighPerformanceSwitches: map[int][]int{2: {1, 3}}}
	if got := belongsToLeader(cfg, 2); got != 2 {
		t.Fatalf("belongsToLeader(2) = %d, want 2", got)
	}
}

func TestBelongsToLeaderMember(t *testing.T) {
	cfg := Config{HighPerformanceSwitches: map[int][]int{2: {1, 3}}}
	if got := belongsToLeader(cfg, 3); got != 2 {
		t.Fatalf("belongsToLeader(3) = %d, want 2", got)
	}
}

func TestBelongsToLeaderFallsBackToSelf(t *testing.T) {
	cfg := Config{HighPerformanceSwitches: map[int][]int{2: {1, 3}}}
	if got := belongsToLeader(cfg, 9); got != 9 {
		t.Fatalf("belongsToLeader(9) = %d, want 9 (fallback to self)", got)
	}
}

func TestReverseInts(t *testing.T) {
	got := reverseInts([]int{1, 2, 3})
	want := []int{3, 2, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("reverseInts = %v, want %v", got, want)
		}
	}
}

func TestCeilDiv(t *testing.T) {
	cases := []struct{ a, b, want int64 }{
		{10, 5, 2},
		{11, 5, 3},
		{0, 5, 0},
		{5, 1, 5},
	}
	for _, c := range cases {
		if got := ceilDiv(c.a, c.b); got != c.want {
			t.Fatalf("ceilDiv(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func buildLinearTopology() *topology.Topology {
	topo := topology.New()
	topo.AddNode(topology.NewNode(1, topology.EndSystem))
	topo.AddNode(topology.NewNode(2, topology.Switch))
	topo.AddNode(topology.NewNode(3, topology.Switch))
	topo.AddNode(topology.NewNode(4, topology.EndSystem))
	topo.AddLink(&topology.Link{ID: 10, From: 1, To: 2, SpeedMBs: 1000})
	topo.AddLink(&topology.Link{ID: 11, From: 2, To: 3, SpeedMBs: 1000})
	topo.AddLink(&topology.Link{ID: 12, From: 3, To: 4, SpeedMBs: 1000})
	return topo
}

func TestEliminateLoopsNoLoop(t *testing.T) {
	topo := buildLinearTopology()
	out, err := eliminateLoops(topo, []int{10, 11, 12})
	if err != nil {
		t.Fatalf("eliminateLoops returned error: %v", err)
	}
	want := []int{10, 11, 12}
	if len(out) != len(want) {
		t.Fatalf("eliminateLoops = %v, want %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("eliminateLoops = %v, want %v", out, want)
		}
	}
}

func TestEliminateLoopsRemovesRevisitedNode(t *testing.T) {
	topo := topology.New()
	topo.AddNode(topology.NewNode(1, topology.Switch))
	topo.AddNode(topology.NewNode(2, topology.Switch))
	topo.AddNode(topology.NewNode(3, topology.Switch))
	topo.AddNode(topology.NewNode(4, topology.EndSystem))
	topo.AddLink(&topology.Link{ID: 1, From: 1, To: 2, SpeedMBs: 1000})
	topo.AddLink(&topology.Link{ID: 2, From: 2, To: 3, SpeedMBs: 1000})
	topo.AddLink(&topology.Link{ID: 3, From: 3, To: 1, SpeedMBs: 1000})
	topo.AddLink(&topology.Link{ID: 4, From: 1, To: 4, SpeedMBs: 1000})

	// Path 1->2->3->1->4 revisits node 1; the loop 2->3 should be
	// excised, leaving just the direct 1->4 hop.
	out, err := eliminateLoops(topo, []int{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("eliminateLoops returned error: %v", err)
	}
	if len(out) != 1 || out[0] != 4 {
		t.Fatalf("eliminateLoops = %v, want [4]", out)
	}
}

func TestLinkUtilizationSumsOccupiedTime(t *testing.T) {
	sched := schedule.New(1000, 10)
	f, err := schedule.NewFrame(1, 1, []int{2}, 500, 0, 100, 0, 0)
	if err != nil {
		t.Fatalf("NewFrame returned error: %v", err)
	}
	if err := f.SetPath(2, []int{10}); err != nil {
		t.Fatalf("SetPath returned error: %v", err)
	}
	if err := f.PrepareLinkOffset(10, 2, 0); err != nil {
		t.Fatalf("PrepareLinkOffset returned error: %v", err)
	}
	for k := int64(0); k < 2; k++ {
		if err := f.SetOffsetTransmissionTime(10, int(k), 0, k*500+50); err != nil {
			t.Fatalf("SetOffsetTransmissionTime returned error: %v", err)
		}
		if err := f.SetOffsetEndingTime(10, int(k), 0, k*500+100); err != nil {
			t.Fatalf("SetOffsetEndingTime returned error: %v", err)
		}
	}
	sched.AddFrame(f)

	// Two 50ns occupied instances within a 1000ns hyperperiod.
	got := linkUtilization(sched, 10)
	if want := 0.1; got != want {
		t.Fatalf("linkUtilization = %v, want %v", got, want)
	}
}

func TestPathUtilizationEmptyPathIsZero(t *testing.T) {
	sched := schedule.New(1000, 10)
	if got := pathUtilization(sched, nil); got != 0 {
		t.Fatalf("pathUtilization(nil) = %v, want 0", got)
	}
}
