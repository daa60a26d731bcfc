// Package window places frame transmissions on a link under a periodic
// bandwidth-reservation window reserved for self-healing protocol control
// traffic (§3, §4.4). In every period π the interval [kπ, kπ+τ) is reserved;
// TT traffic may only use [kπ+τ, (k+1)π). The Planner places protocol
// transmissions inside [kπ, kπ+τ]; a transmission that would run past kπ+τ
// continues at the next period start.
package window

import "fmt"

// Protocol describes the periodic reservation window.
type Protocol struct {
	Period   int64 // π, ns
	Duration int64 // τ, ns; must be < Period
}

// Usage is a placed transmission interval on a link: [Start, End) plus the
// frame-event name it belongs to, kept for diagnostics.
type Usage struct {
	Name  string
	Start int64
	End   int64
}

// Planner places transmissions on links, tracking prior usage per link so
// later placements avoid colliding with earlier ones.
type Planner struct {
	protocol Protocol
	usage    map[int][]Usage // linkID -> usages, kept sorted by Start
}

// NewPlanner returns a Planner for the given protocol window.
func NewPlanner(protocol Protocol) (*Planner, error) {
	if protocol.Period <= 0 {
		return nil, fmt.Errorf("window: protocol period must be positive, got %d", protocol.Period)
	}
	if protocol.Duration < 0 || protocol.Duration >= protocol.Period {
		return nil, fmt.Errorf("window: protocol duration %d must be in [0, %d)", protocol.Duration, protocol.Period)
	}
	return &Planner{protocol: protocol, usage: make(map[int][]Usage)}, nil
}

// nextWindowStart returns the smallest kπ strictly greater than t's current
// window start, i.e. the boundary of the next period.
func (p *Planner) nextWindowStart(t int64) int64 {
	k := t / p.protocol.Period
	return (k + 1) * p.protocol.Period
}

// endsAtWindowBoundary reports whether b is exactly kπ+τ for some k --
// i.e. the interval was truncated by the protocol reservation rather than
// ending because the transmission itself finished.
func (p *Planner) endsAtWindowBoundary(b int64) bool {
	return b%p.protocol.Period == p.protocol.Duration
}

// Place schedules a transmission of duration d starting no earlier than t on
// linkID, fragmenting it across protocol windows as needed (§4.4). It
// returns the time the link becomes free for the next transmission, i.e.
// the end of the last fragment plus processingDelay.
func (p *Planner) Place(linkID int, name string, t, d, processingDelay int64) (int64, error) {
	if d < 0 {
		return 0, fmt.Errorf("window: duration must be non-negative, got %d", d)
	}

	// Step 1: if starting outside the usable part of the current window,
	// advance to the next window start.
	if t%p.protocol.Period > p.protocol.Duration {
		t = p.nextWindowStart(t)
	}

	// Step 2: scan existing usage in order, nudging t past collisions.
	for _, u := range p.usage[linkID] {
		if u.Start > t {
			break
		}
		if p.endsAtWindowBoundary(u.End) {
			if u.Start <= t && t < u.End {
				t = p.nextWindowStart(t)
			}
		} else {
			if u.Start <= t && t < u.End {
				t = u.End
			}
		}
	}

	remaining := d
	// Step 3: fragment across window boundaries while the tail would land
	// outside the usable window.
	for (t+remaining)%p.protocol.Period > p.protocol.Duration {
		windowStart := (t / p.protocol.Period) * p.protocol.Period
		cut := windowStart + p.protocol.Duration
		if cut > t {
			p.appendUsage(linkID, Usage{Name: name, Start: t, End: cut})
			remaining -= cut - t
		}
		t = p.nextWindowStart(t)
	}

	// Step 4: the final fragment fits entirely within its window.
	p.appendUsage(linkID, Usage{Name: name, Start: t, End: t + remaining})

	return t + remaining + processingDelay, nil
}

func (p *Planner) appendUsage(linkID int, u Usage) {
	list := p.usage[linkID]
	idx := len(list)
	for i, existing := range list {
		if u.Start < existing.Start {
			idx = i
			break
		}
	}
	list = append(list, Usage{})
	copy(list[idx+1:], list[idx:])
	list[idx] = u
	p.usage[linkID] = list
}

// Usages returns a copy of the placed usage list for linkID.
func (p *Planner) Usages(linkID int) []Usage {
	src := p.usage[linkID]
	out := make([]Usage, len(src))
	copy(out, src)
	return out
}

// NoUsageStraddlesWindow verifies the guarantee promised in §4.4: no usage
// interval crosses a protocol reservation boundary.
func (p *Planner) NoUsageStraddlesWindow(linkID int) bool {
	for _, u := range p.usage[linkID] {
		if u.Start%p.protocol.Period > p.protocol.Duration {
			return false
		}
		if u.End%p.protocol.Period > p.protocol.Duration {
			return false
		}
	}
	return true
}
