package topology

import "testing"

func lineNetwork() *Topology {
	// ES1(1) -- SW(2) -- ES2(3)
	topo := New()
	topo.AddNode(NewNode(1, EndSystem))
	topo.AddNode(NewNode(2, Switch))
	topo.AddNode(NewNode(3, EndSystem))
	topo.AddLink(&Link{ID: 1, From: 1, To: 2, SpeedMBs: 100})
	topo.AddLink(&Link{ID: 2, From: 2, To: 1, SpeedMBs: 100})
	topo.AddLink(&Link{ID: 3, From: 2, To: 3, SpeedMBs: 100})
	topo.AddLink(&Link{ID: 4, From: 3, To: 2, SpeedMBs: 100})
	return topo
}

func diamondNetwork() *Topology {
	// ES1(1) -- SW_A(2) -- SW_B(3) -- ES2(4), and ES1(1) -- SW_C(5) -- SW_B(3)
	topo := New()
	topo.AddNode(NewNode(1, EndSystem))
	topo.AddNode(NewNode(2, Switch))
	topo.AddNode(NewNode(3, Switch))
	topo.AddNode(NewNode(4, EndSystem))
	topo.AddNode(NewNode(5, Switch))
	add := func(id, from, to int) {
		topo.AddLink(&Link{ID: id, From: from, To: to, SpeedMBs: 100})
	}
	add(1, 1, 2)
	add(2, 2, 1)
	add(3, 2, 3)
	add(4, 3, 2)
	add(5, 3, 4)
	add(6, 4, 3)
	add(7, 1, 5)
	add(8, 5, 1)
	add(9, 5, 3)
	add(10, 3, 5)
	return topo
}

func TestShortestPath(t *testing.T) {
	topo := diamondNetwork()
	path, err := topo.ShortestPath(1, 4)
	if err != nil {
		t.Fatalf("ShortestPath returned error: %v", err)
	}
	if len(path) != 4 {
		t.Fatalf("ShortestPath(1, 4) = %v, want a 4-node path", path)
	}
	if path[0] != 1 || path[len(path)-1] != 4 {
		t.Fatalf("ShortestPath(1, 4) = %v, want endpoints 1 and 4", path)
	}
}

func TestShortestPathRemovedLinkHasNoDetourS1(t *testing.T) {
	topo := lineNetwork()
	if err := topo.RemoveLink(1); err != nil {
		t.Fatalf("RemoveLink returned error: %v", err)
	}
	if _, err := topo.ShortestPathNoEndSystems(1, 2, DefaultCutoff); err == nil {
		t.Fatalf("expected NoPath after removing the only ES1->SW link")
	}
}

func TestShortestPathNoEndSystemsFindsDetourS2(t *testing.T) {
	topo := diamondNetwork()
	if err := topo.RemoveLink(1); err != nil { // ES1 -> SW_A
		t.Fatalf("RemoveLink returned error: %v", err)
	}
	path, err := topo.ShortestPathNoEndSystems(1, 2, DefaultCutoff)
	if err != nil {
		t.Fatalf("ShortestPathNoEndSystems returned error: %v", err)
	}
	want := []int{1, 5, 3, 2}
	if !equalInts(path, want) {
		t.Fatalf("ShortestPathNoEndSystems(1, 2) = %v, want %v", path, want)
	}
}

func TestShortestPathNoEndSystemsRejectsEndSystemInterior(t *testing.T) {
	topo := New()
	topo.AddNode(NewNode(1, EndSystem))
	topo.AddNode(NewNode(2, EndSystem))
	topo.AddNode(NewNode(3, Switch))
	topo.AddNode(NewNode(4, EndSystem))
	topo.AddLink(&Link{ID: 1, From: 1, To: 2, SpeedMBs: 100})
	// 1 -> 4 -> 2 has the same length as 1 -> 3 -> 2 and lower link IDs, so
	// it is enumerated first; node 4 is an EndSystem and must be rejected.
	topo.AddLink(&Link{ID: 2, From: 1, To: 4, SpeedMBs: 100})
	topo.AddLink(&Link{ID: 3, From: 4, To: 2, SpeedMBs: 100})
	topo.AddLink(&Link{ID: 4, From: 1, To: 3, SpeedMBs: 100})
	topo.AddLink(&Link{ID: 5, From: 3, To: 2, SpeedMBs: 100})
	if err := topo.RemoveLink(1); err != nil {
		t.Fatalf("RemoveLink returned error: %v", err)
	}
	path, err := topo.ShortestPathNoEndSystems(1, 2, DefaultCutoff)
	if err != nil {
		t.Fatalf("ShortestPathNoEndSystems returned error: %v", err)
	}
	want := []int{1, 3, 2}
	if !equalInts(path, want) {
		t.Fatalf("ShortestPathNoEndSystems(1, 2) = %v, want %v", path, want)
	}
}

func TestPathNodesToLinks(t *testing.T) {
	topo := diamondNetwork()
	links, err := topo.PathNodesToLinks([]int{1, 5, 3, 2})
	if err != nil {
		t.Fatalf("PathNodesToLinks returned error: %v", err)
	}
	want := []int{7, 9, 4}
	if !equalInts(links, want) {
		t.Fatalf("PathNodesToLinks = %v, want %v", links, want)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
