package sim

// FailureSeed schedules one link-failure event at the node that receives
// that link, per §4.6's Internal/LinkFailure dispatch. The failure's own
// identity (for dedup and state lookup) is the link ID itself, mirroring
// how the reference Simulation XML keys failures by the broken Link's ID
// (§6).
type FailureSeed struct {
	LinkID int
	Time   int64
}

// FailureState is the simulator state tracked per failure instance (§3):
// leader, activator, new path, per-link timings, and terminal outcome.
type FailureState struct {
	ID        int // == LinkID
	LinkID    int
	Activator int // A_i: receiver of the broken link
	Leader    int // L_i: high-performance switch running patch/optimize

	NewPathNodes []int
	NewPathLinks []int

	PatchingTime  map[int]int64 // link -> solver execution time, ns
	OptimizeTime  map[int]int64

	Category Category
	Healed   bool

	TimeDetected  int64
	TimePatched   int64
	TimeOptimized int64

	// Baseline utilization/offset counts snapshotted at detection time
	// (§4.6: "Snapshot baseline utilization and offset counts ... to
	// MetricsSink"), before the broken link's offsets are exchanged away
	// during a successful repair.
	BaselineBrokenUtilization float64
	BaselinePathUtilization   float64
	BaselineTotalUtilization  float64
	BaselineBrokenOffsets     int
	BaselinePathOffsets       int
	BaselineTotalOffsets      int
}

func newFailureState(linkID int, detectedAt int64) *FailureState {
	return &FailureState{
		ID:           linkID,
		LinkID:       linkID,
		PatchingTime: make(map[int]int64),
		OptimizeTime: make(map[int]int64),
		TimeDetected: detectedAt,
	}
}

func maxInt64(values map[int]int64) int64 {
	var max int64
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max
}
