package sim

import (
	"github.com/FPozo/SelfHealingProtocol/internal/logging"
	"github.com/FPozo/SelfHealingProtocol/internal/metrics"
	"github.com/FPozo/SelfHealingProtocol/internal/observability"
	"github.com/FPozo/SelfHealingProtocol/internal/solverbridge"
	"github.com/FPozo/SelfHealingProtocol/internal/window"
)

// Algorithm selects which subset of Frame event variants, and which
// patch-completion detection strategy, a run uses (§9 Design Notes,
// Open Questions: "repair strategy" trait). SHP is the earlier broadcast
// revision; ISHP is the newer DistributeSchedulePatch/Optimize-arrival
// based one. This core only implements ISHP's event shapes (§4.6 only
// names NotificationHS/DistributeSchedulePatch/DistributeScheduleOptimize),
// but the field is kept so a caller's configuration round-trips and so a
// future SHP-variant dispatcher has a place to switch on.
type Algorithm string

const (
	SHP  Algorithm = "SHP"
	ISHP Algorithm = "ISHP"
)

// Config bundles every run-wide constant the repair pipeline needs.
type Config struct {
	Algorithm Algorithm

	// HighPerformanceSwitches maps a high-performance switch's node ID to
	// the node IDs it leads repairs on behalf of (§6 SpecialNodes).
	HighPerformanceSwitches map[int][]int

	// TimeClassificationNanos partitions a healed instance into "fast"
	// (Classification 1) vs "slow" (Classification 2) in MetricsSink (§6).
	TimeClassificationNanos int64

	SwitchDelayNanos int64 // sigma_switch
	SizeFrameBytes   int64 // SIZE_FRAME
	SizeLinkBytes    int64 // SIZE_LINK

	Protocol   window.Protocol
	PathCutoff int // 0 selects topology.DefaultCutoff

	PatchSolverPath    string
	OptimizeSolverPath string
	ScratchDir         string

	Logger    logging.Logger
	Metrics   *metrics.Sink
	Collector *observability.RepairCollector

	// Codec overrides the wire format SolverBridge uses to talk to the
	// Patch/Optimize solvers. Nil keeps solverbridge.NewBridge's default
	// of solverbridge.JSONCodec{} (§9 DOMAIN STACK); a caller only sets
	// this to swap in a different Codec implementation for testing or
	// for a solver that speaks a different wire format.
	Codec solverbridge.Codec
}
