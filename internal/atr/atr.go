// Package atr computes the Available Transmission Range for a frame's
// transmission on each hop of a replacement path (§4.3): the per-instance
// interval within which the frame may start transmitting on that hop
// without violating hyperperiod bounds, path precedence, the deadline, or
// (once split proportionally across the new path's hops) the other new
// hops' own budgets.
package atr

import (
	"fmt"

	"github.com/FPozo/SelfHealingProtocol/internal/schedule"
	"github.com/FPozo/SelfHealingProtocol/internal/timemodel"
	"github.com/FPozo/SelfHealingProtocol/internal/topology"
)

// Interval is an inclusive [Lower, Upper] range of candidate start times, in
// time-slot units.
type Interval struct {
	Lower int64
	Upper int64
}

// Params bundles the inputs that are constant across every instance and hop
// of a single ATR computation.
type Params struct {
	Frame         *schedule.Frame
	BrokenLink    int
	NewPathLinks  []int // P_i^L, ordered sender to receiver
	Topology      *topology.Topology
	SwitchDelay   int64 // sigma_switch, ns
	Hyperperiod   int64 // H, ns
	TimeSlot      int64 // sigma, ns
}

// Compute returns, for the hop at hopIndex within params.NewPathLinks, the
// per-instance ATR in time-slot units.
func Compute(params Params, hopIndex int) ([]Interval, error) {
	if hopIndex < 0 || hopIndex >= len(params.NewPathLinks) {
		return nil, fmt.Errorf("atr: hop index %d out of range for new path of length %d", hopIndex, len(params.NewPathLinks))
	}
	f := params.Frame
	numInstances := f.NumInstances(params.Hyperperiod)
	if numInstances <= 0 {
		return nil, fmt.Errorf("atr: frame %d has no instances in hyperperiod %d", f.ID, params.Hyperperiod)
	}

	currentLink := params.NewPathLinks[hopIndex]
	lastLink := params.NewPathLinks[len(params.NewPathLinks)-1]
	lastLinkData, err := params.Topology.GetLink(lastLink)
	if err != nil {
		return nil, fmt.Errorf("atr: %w", err)
	}
	currentLinkData, err := params.Topology.GetLink(currentLink)
	if err != nil {
		return nil, fmt.Errorf("atr: %w", err)
	}
	ttxLastHop := timemodel.TransmissionNanos(f.Size(), lastLinkData.SpeedMBs)
	ttxCurrentHop := timemodel.TransmissionNanos(f.Size(), currentLinkData.SpeedMBs)

	ranges := make([]Interval, numInstances)
	for k := range ranges {
		ranges[k] = Interval{Lower: 0, Upper: params.Hyperperiod}
	}

	for receiver, path := range f.Paths() {
		idx := indexOf(path, params.BrokenLink)
		if idx < 0 {
			continue
		}
		_ = receiver

		for k := 0; k < numInstances; k++ {
			var lower, upper int64

			switch {
			case idx == 0 && idx == len(path)-1:
				// The broken link was the receiver's entire path: no
				// neighboring offset constrains either side.
				lower = int64(k) * f.Period()
				upper = f.Deadline() + int64(k)*f.Period()
			case idx == 0:
				nextOffset := f.GetOffsetByLink(path[idx+1])
				ttxNext, err := offsetStart(nextOffset, k)
				if err != nil {
					return nil, fmt.Errorf("atr: %w", err)
				}
				lower = int64(k) * f.Period()
				upper = ttxNext - params.SwitchDelay
			case idx == len(path)-1:
				prevOffset := f.GetOffsetByLink(path[idx-1])
				endPrev, err := offsetEnd(prevOffset, k)
				if err != nil {
					return nil, fmt.Errorf("atr: %w", err)
				}
				lower = endPrev + params.SwitchDelay
				upper = f.Deadline() + int64(k)*f.Period()
			default:
				prevOffset := f.GetOffsetByLink(path[idx-1])
				nextOffset := f.GetOffsetByLink(path[idx+1])
				endPrev, err := offsetEnd(prevOffset, k)
				if err != nil {
					return nil, fmt.Errorf("atr: %w", err)
				}
				ttxNext, err := offsetStart(nextOffset, k)
				if err != nil {
					return nil, fmt.Errorf("atr: %w", err)
				}
				lower = endPrev + params.SwitchDelay
				upper = ttxNext - params.SwitchDelay
			}

			// Reserve transmission time on the final new hop.
			upper -= ttxLastHop

			if lower > ranges[k].Lower {
				ranges[k].Lower = lower
			}
			if upper < ranges[k].Upper {
				ranges[k].Upper = upper
			}
			if ranges[k].Lower > ranges[k].Upper {
				return nil, fmt.Errorf("%w: frame %d instance %d collapses to an empty range", ErrScheduleInconsistent, f.ID, k)
			}
		}
	}

	n := int64(len(params.NewPathLinks))
	out := make([]Interval, numInstances)
	for k := 0; k < numInstances; k++ {
		lower, upper := ranges[k].Lower, ranges[k].Upper
		length := upper - lower
		j := int64(hopIndex)

		hopLower := j*length/n + lower + params.SwitchDelay
		hopUpper := (j+1)*length/n + lower

		if hopIndex > 0 {
			prevLink := params.NewPathLinks[hopIndex-1]
			if f.LinkInPath(prevLink) {
				if prevOffset := f.GetOffsetByLink(prevLink); prevOffset != nil {
					if end, err := offsetEnd(prevOffset, k); err == nil {
						hopLower = end + params.SwitchDelay
					}
				}
			}
		}
		if hopIndex < len(params.NewPathLinks)-1 {
			nextLink := params.NewPathLinks[hopIndex+1]
			if f.LinkInPath(nextLink) {
				if nextOffset := f.GetOffsetByLink(nextLink); nextOffset != nil {
					if start, err := offsetStart(nextOffset, k); err == nil {
						hopUpper = start - ttxCurrentHop - params.SwitchDelay
					}
				}
			}
		}

		if hopLower > hopUpper {
			return nil, fmt.Errorf("%w: frame %d instance %d hop %d collapses to an empty range",
				ErrScheduleInconsistent, f.ID, k, hopIndex)
		}

		out[k] = Interval{
			Lower: floorDiv(hopLower, params.TimeSlot),
			Upper: floorDiv(hopUpper, params.TimeSlot),
		}
	}
	return out, nil
}

func offsetStart(o *schedule.Offset, instance int) (int64, error) {
	if o == nil {
		return 0, fmt.Errorf("no neighboring offset installed")
	}
	v, err := o.TransmissionTime(instance, 0)
	if err != nil {
		return 0, err
	}
	if v == schedule.Unset {
		return 0, fmt.Errorf("neighboring offset instance %d is unset", instance)
	}
	return v, nil
}

func offsetEnd(o *schedule.Offset, instance int) (int64, error) {
	if o == nil {
		return 0, fmt.Errorf("no neighboring offset installed")
	}
	v, err := o.EndingTime(instance, 0)
	if err != nil {
		return 0, err
	}
	if v == schedule.Unset {
		return 0, fmt.Errorf("neighboring offset instance %d is unset", instance)
	}
	return v, nil
}

func floorDiv(a, b int64) int64 {
	if b == 0 {
		return a
	}
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func indexOf(list []int, v int) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}
