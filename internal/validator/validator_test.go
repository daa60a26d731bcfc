package validator

import (
	"testing"

	"github.com/FPozo/SelfHealingProtocol/internal/schedule"
	"github.com/FPozo/SelfHealingProtocol/internal/topology"
	"github.com/FPozo/SelfHealingProtocol/internal/window"
)

func validFrame(t *testing.T) *schedule.Frame {
	t.Helper()
	f, err := schedule.NewFrame(1, 1, []int{2}, 1000, 0, 125, 0, 0)
	if err != nil {
		t.Fatalf("NewFrame returned error: %v", err)
	}
	if err := f.SetPath(2, []int{10}); err != nil {
		t.Fatalf("SetPath returned error: %v", err)
	}
	if err := f.PrepareLinkOffset(10, 1, 0); err != nil {
		t.Fatalf("PrepareLinkOffset returned error: %v", err)
	}
	if err := f.SetOffsetTransmissionTime(10, 0, 0, 285); err != nil {
		t.Fatalf("SetOffsetTransmissionTime returned error: %v", err)
	}
	if err := f.SetOffsetEndingTime(10, 0, 0, 295); err != nil {
		t.Fatalf("SetOffsetEndingTime returned error: %v", err)
	}
	return f
}

func TestValidateCleanSchedule(t *testing.T) {
	sched := schedule.New(1000, 1)
	sched.AddFrame(validFrame(t))
	topo := topology.New()

	report, err := Validate(Params{
		Schedule:    sched,
		Topology:    topo,
		Protocol:    window.Protocol{Period: 100, Duration: 80},
		SwitchDelay: 5,
	})
	if err != nil {
		t.Fatalf("Validate returned error on a clean schedule: %v, violations: %+v", err, report.Violations)
	}
}

func TestValidateDetectsProtocolWindowViolation(t *testing.T) {
	f, err := schedule.NewFrame(1, 1, []int{2}, 1000, 0, 125, 0, 0)
	if err != nil {
		t.Fatalf("NewFrame returned error: %v", err)
	}
	if err := f.SetPath(2, []int{10}); err != nil {
		t.Fatalf("SetPath returned error: %v", err)
	}
	if err := f.PrepareLinkOffset(10, 1, 0); err != nil {
		t.Fatalf("PrepareLinkOffset returned error: %v", err)
	}
	// Placed squarely inside the reserved window [0, 80).
	if err := f.SetOffsetTransmissionTime(10, 0, 0, 40); err != nil {
		t.Fatalf("SetOffsetTransmissionTime returned error: %v", err)
	}
	if err := f.SetOffsetEndingTime(10, 0, 0, 45); err != nil {
		t.Fatalf("SetOffsetEndingTime returned error: %v", err)
	}

	sched := schedule.New(1000, 1)
	sched.AddFrame(f)
	report, err := Validate(Params{
		Schedule:    sched,
		Topology:    topology.New(),
		Protocol:    window.Protocol{Period: 100, Duration: 80},
		SwitchDelay: 5,
	})
	if err == nil {
		t.Fatalf("expected an invariant violation")
	}
	found := false
	for _, v := range report.Violations {
		if v.Rule == "protocol-window" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a protocol-window violation, got: %+v", report.Violations)
	}
}

func TestValidateDetectsLinkCollision(t *testing.T) {
	f1, _ := schedule.NewFrame(1, 1, []int{2}, 1000, 0, 125, 0, 0)
	_ = f1.SetPath(2, []int{10})
	_ = f1.PrepareLinkOffset(10, 1, 0)
	_ = f1.SetOffsetTransmissionTime(10, 0, 0, 10)
	_ = f1.SetOffsetEndingTime(10, 0, 0, 20)

	f2, _ := schedule.NewFrame(2, 3, []int{4}, 1000, 0, 125, 0, 0)
	_ = f2.SetPath(4, []int{10})
	_ = f2.PrepareLinkOffset(10, 1, 0)
	_ = f2.SetOffsetTransmissionTime(10, 0, 0, 15) // overlaps f1's [10,20)
	_ = f2.SetOffsetEndingTime(10, 0, 0, 25)

	sched := schedule.New(1000, 1)
	sched.AddFrame(f1)
	sched.AddFrame(f2)
	_, err := Validate(Params{
		Schedule: sched,
		Topology: topology.New(),
		Protocol: window.Protocol{Period: 100, Duration: 80},
	})
	if err == nil {
		t.Fatalf("expected a link-mutual-exclusion violation")
	}
}
