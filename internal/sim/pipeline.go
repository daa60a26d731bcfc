package sim

import (
	"fmt"

	"github.com/FPozo/SelfHealingProtocol/internal/atr"
	"github.com/FPozo/SelfHealingProtocol/internal/schedule"
	"github.com/FPozo/SelfHealingProtocol/internal/solverbridge"
	"github.com/FPozo/SelfHealingProtocol/internal/topology"
)

// belongsToLeader returns the high-performance switch responsible for node
// n: n itself if n is a switch entry, the switch owning n as a member, or n
// itself as a fallback when no membership was configured for it (a node
// that is its own leader repairs on its own behalf).
func belongsToLeader(cfg Config, n int) int {
	if _, ok := cfg.HighPerformanceSwitches[n]; ok {
		return n
	}
	for leader, members := range cfg.HighPerformanceSwitches {
		for _, m := range members {
			if m == n {
				return leader
			}
		}
	}
	return n
}

func reverseInts(in []int) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

func ceilDiv(a, b int64) int64 {
	if b == 0 {
		return a
	}
	q := a / b
	if a%b != 0 && (a < 0) == (b < 0) {
		q++
	}
	return q
}

// linkUtilization is the fraction of the hyperperiod occupied by
// transmissions on linkID, summed across every frame's offset there. §6
// names "Broken Link Utilization" / "Path Utilization" / "Total
// Utilization" columns without defining the formula; this ratio is the
// natural reading given the Offset/Hyperperiod data model in §3.
func linkUtilization(sched *schedule.Schedule, linkID int) float64 {
	if sched.Hyperperiod <= 0 {
		return 0
	}
	var occupied int64
	for _, fo := range sched.OffsetsByLink(linkID) {
		n := fo.Offset.NumInstances()
		for k := 0; k < n; k++ {
			t, errT := fo.Offset.TransmissionTime(k, 0)
			e, errE := fo.Offset.EndingTime(k, 0)
			if errT != nil || errE != nil || t == schedule.Unset || e == schedule.Unset {
				continue
			}
			occupied += e - t
		}
	}
	return float64(occupied) / float64(sched.Hyperperiod)
}

func pathUtilization(sched *schedule.Schedule, links []int) float64 {
	if len(links) == 0 {
		return 0
	}
	var sum float64
	for _, l := range links {
		sum += linkUtilization(sched, l)
	}
	return sum / float64(len(links))
}

// eliminateLoops excises a repeated node from a spliced link path (§4.6,
// S6): if the node sequence implied by links revisits a node, the links
// between the first and second visit are redundant and removed, leaving
// each link in the path at most once.
func eliminateLoops(topo *topology.Topology, links []int) ([]int, error) {
	if len(links) == 0 {
		return links, nil
	}
	nodes := make([]int, 0, len(links)+1)
	first, err := topo.SenderOf(links[0])
	if err != nil {
		return nil, err
	}
	nodes = append(nodes, first)
	for _, l := range links {
		to, err := topo.ReceiverOf(l)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, to)
	}

	seen := map[int]int{nodes[0]: 0}
	dedupedNodes := []int{nodes[0]}
	for i := 1; i < len(nodes); i++ {
		n := nodes[i]
		if firstIdx, ok := seen[n]; ok {
			dedupedNodes = dedupedNodes[:firstIdx+1]
			// Re-seed seen from the truncated prefix so any loop nested
			// further back is still detected on a later iteration.
			seen = make(map[int]int, len(dedupedNodes))
			for idx, v := range dedupedNodes {
				seen[v] = idx
			}
			continue
		}
		seen[n] = len(dedupedNodes)
		dedupedNodes = append(dedupedNodes, n)
	}

	return topo.PathNodesToLinks(dedupedNodes)
}

// buildRequest assembles a Patch/Optimize request for one link of the new
// path (§4.3, §4.6, §6): ATR-derived candidate ranges for every rerouted
// frame, plus the fixed traffic already occupying that link.
func buildRequest(
	kind solverbridge.Kind,
	sched *schedule.Schedule,
	topo *topology.Topology,
	linkID int,
	reroutedFrames []*schedule.Frame,
	atrParams atr.Params,
	hopIndex int,
) (solverbridge.Request, error) {
	link, err := topo.GetLink(linkID)
	if err != nil {
		return solverbridge.Request{}, err
	}

	rerouted := make(map[int]bool, len(reroutedFrames))
	for _, f := range reroutedFrames {
		rerouted[f.ID] = true
	}

	req := solverbridge.Request{
		Kind:           kind,
		LinkID:         linkID,
		LinkSpeedMBs:   link.SpeedMBs,
		ProtocolPeriod: atrParams.TimeSlot,
		ProtocolTime:   atrParams.TimeSlot,
		Hyperperiod:    sched.Hyperperiod / sched.TimeSlot,
	}

	for _, fo := range sched.OffsetsByLink(linkID) {
		if rerouted[fo.FrameID] {
			continue
		}
		var offsets []solverbridge.InstanceOffset
		n := fo.Offset.NumInstances()
		for k := 0; k < n; k++ {
			t, errT := fo.Offset.TransmissionTime(k, 0)
			e, errE := fo.Offset.EndingTime(k, 0)
			if errT != nil || errE != nil {
				continue
			}
			offsets = append(offsets, solverbridge.InstanceOffset{
				Instance:         k,
				TransmissionSlot: t / sched.TimeSlot,
				EndingSlot:       e / sched.TimeSlot,
			})
		}
		req.FixedTraffic = append(req.FixedTraffic, solverbridge.FixedFrame{FrameID: fo.FrameID, Offsets: offsets})
	}

	for _, f := range reroutedFrames {
		params := atrParams
		params.Frame = f
		ranges, err := atr.Compute(params, hopIndex)
		if err != nil {
			return solverbridge.Request{}, failWith(NoSchedule, fmt.Errorf("atr for frame %d on link %d: %w", f.ID, linkID, err))
		}
		slotRanges := make([]solverbridge.InstanceRange, len(ranges))
		for k, r := range ranges {
			slotRanges[k] = solverbridge.InstanceRange{Instance: k, Min: r.Lower, Max: r.Upper}
		}
		req.Traffic = append(req.Traffic, solverbridge.NewFrame{
			FrameID:      f.ID,
			Period:       f.Period(),
			Deadline:     f.Deadline(),
			Size:         f.Size(),
			StartingTime: f.StartingTime(),
			EndToEnd:     f.EndToEnd(),
			Ranges:       slotRanges,
		})
	}
	return req, nil
}

// applyResult installs a solver's returned per-instance offsets onto
// linkID, converting from time-slot units back to nanoseconds (§6).
func applyResult(sched *schedule.Schedule, linkID int, result solverbridge.Result) error {
	for frameID, offsets := range result.Frames {
		f := sched.Frame(frameID)
		if f == nil {
			return fmt.Errorf("sim: solver result references unknown frame %d", frameID)
		}
		if f.GetOffsetByLink(linkID) == nil {
			f.AddOffset(linkID)
		}
		if err := f.PrepareLinkOffset(linkID, len(offsets), 0); err != nil {
			return err
		}
		for _, o := range offsets {
			if err := f.SetOffsetTransmissionTime(linkID, o.Instance, 0, o.TransmissionSlot*sched.TimeSlot); err != nil {
				return err
			}
			if err := f.SetOffsetEndingTime(linkID, o.Instance, 0, o.EndingSlot*sched.TimeSlot); err != nil {
				return err
			}
		}
	}
	return nil
}

// rollbackLinkOffsets discards any offset installed on linkID for the given
// frames, used when a later link in the same repair fails and the pipeline
// must undo partially-installed state (§7 NoSchedule).
func rollbackLinkOffsets(frames []*schedule.Frame, linkID int) {
	for _, f := range frames {
		delete(f.Offsets(), linkID)
	}
}

func reroutedFrames(sched *schedule.Schedule, brokenLink int) []*schedule.Frame {
	var out []*schedule.Frame
	for _, f := range sched.Frames() {
		if f.LinkInPath(brokenLink) {
			out = append(out, f)
		}
	}
	return out
}
