// Package sim implements the Scheduler (§4.6): the core discrete-event
// loop that dispatches Internal/Frame/Execution events and drives the
// repair pipeline from failure detection through patch, optimize, and
// schedule distribution.
package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/FPozo/SelfHealingProtocol/internal/atr"
	"github.com/FPozo/SelfHealingProtocol/internal/eventqueue"
	"github.com/FPozo/SelfHealingProtocol/internal/logging"
	"github.com/FPozo/SelfHealingProtocol/internal/metrics"
	"github.com/FPozo/SelfHealingProtocol/internal/schedule"
	"github.com/FPozo/SelfHealingProtocol/internal/solverbridge"
	"github.com/FPozo/SelfHealingProtocol/internal/timemodel"
	"github.com/FPozo/SelfHealingProtocol/internal/topology"
	"github.com/FPozo/SelfHealingProtocol/internal/validator"
	"github.com/FPozo/SelfHealingProtocol/internal/window"
)

// Scheduler owns the topology, schedule, and per-node queues for a single
// simulation run and drives the repair pipeline to completion (§4.6, §5).
type Scheduler struct {
	topo   *topology.Topology
	sched  *schedule.Schedule
	queues *eventqueue.NetworkQueues
	cfg    Config

	patchBridge    *solverbridge.Bridge
	optimizeBridge *solverbridge.Bridge
	windows        map[int]*window.Planner

	failures map[int]*FailureState
	log      logging.Logger
}

// New constructs a Scheduler over the given topology and schedule.
func New(topo *topology.Topology, sched *schedule.Schedule, cfg Config) *Scheduler {
	log := cfg.Logger
	if log == nil {
		log = logging.Noop()
	}
	patchBridge := solverbridge.NewBridge(cfg.PatchSolverPath, cfg.ScratchDir)
	optimizeBridge := solverbridge.NewBridge(cfg.OptimizeSolverPath, cfg.ScratchDir)
	if cfg.Codec != nil {
		patchBridge.Codec = cfg.Codec
		optimizeBridge.Codec = cfg.Codec
	}
	return &Scheduler{
		topo:           topo,
		sched:          sched,
		queues:         eventqueue.NewNetworkQueues(),
		cfg:            cfg,
		patchBridge:    patchBridge,
		optimizeBridge: optimizeBridge,
		windows:        make(map[int]*window.Planner),
		failures:       make(map[int]*FailureState),
		log:            log,
	}
}

func (s *Scheduler) planner(linkID int) (*window.Planner, error) {
	if p, ok := s.windows[linkID]; ok {
		return p, nil
	}
	p, err := window.NewPlanner(s.cfg.Protocol)
	if err != nil {
		return nil, err
	}
	s.windows[linkID] = p
	return p, nil
}

// Run seeds a link failure at the node that receives each link in seeds,
// then drains every node queue in global time order until empty (§4.6,
// §5). It returns the terminal state of every failure instance processed.
// A non-nil error is always one of ErrScheduleInvariantViolation or
// ErrSolverIO (§7): both are fatal and stop the run immediately. Any other
// pipeline failure (NoPath, NoSchedule, NoTransmission) is captured per
// instance and never returned here.
func (s *Scheduler) Run(seeds []FailureSeed) ([]*FailureState, error) {
	ctx := context.Background()

	for _, seed := range seeds {
		receiver, err := s.topo.ReceiverOf(seed.LinkID)
		if err != nil {
			return nil, fmt.Errorf("%w: seed link %d: %v", ErrSolverIO, seed.LinkID, err)
		}
		ev, err := eventqueue.NewInternalEvent(seed.LinkID, eventqueue.LinkFailure, seed.Time)
		if err != nil {
			return nil, fmt.Errorf("%w: seed link %d: %v", ErrSolverIO, seed.LinkID, err)
		}
		s.queues.At(receiver).Add(ev)
	}

	for {
		ev, nodeID, ok := s.queues.PopNext()
		if !ok {
			break
		}
		if err := s.dispatch(ctx, ev, nodeID); err != nil {
			if errors.Is(err, ErrScheduleInvariantViolation) || errors.Is(err, ErrSolverIO) {
				return s.orderedFailures(), err
			}
			// Any other error is a pipelineError already recorded onto the
			// relevant FailureState by the handler that produced it.
		}
	}

	return s.orderedFailures(), nil
}

func (s *Scheduler) orderedFailures() []*FailureState {
	out := make([]*FailureState, 0, len(s.failures))
	for _, f := range s.failures {
		out = append(out, f)
	}
	return out
}

func (s *Scheduler) dispatch(ctx context.Context, ev eventqueue.Event, nodeID int) error {
	switch e := ev.(type) {
	case eventqueue.InternalEvent:
		return s.handleLinkFailure(ctx, e, nodeID)
	case eventqueue.FrameEvent:
		return s.handleFrame(ctx, e, nodeID)
	case eventqueue.ExecutionEvent:
		return s.handleExecution(ctx, e, nodeID)
	default:
		return fmt.Errorf("sim: unknown event type %T", ev)
	}
}

// handleLinkFailure implements Internal/LinkFailure at the node that
// receives the broken link (§4.6).
func (s *Scheduler) handleLinkFailure(ctx context.Context, ev eventqueue.InternalEvent, nodeID int) error {
	linkID := ev.EventID()
	ctx = logging.ContextWithFailureID(ctx, linkID)
	log := logging.WithFailureLogger(ctx, s.log)

	state := newFailureState(linkID, ev.Time())
	state.Activator = nodeID
	state.Leader = belongsToLeader(s.cfg, nodeID)
	s.failures[linkID] = state

	link, err := s.topo.GetLink(linkID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSolverIO, err)
	}
	if err := s.topo.RemoveLink(linkID); err != nil {
		return fmt.Errorf("%w: %v", ErrSolverIO, err)
	}

	if s.sched.NumOffsets(linkID) == 0 {
		state.Category = NoTransmission
		log.Info(ctx, "link carried no transmissions, nothing to heal", logging.Int("link_id", linkID))
		s.cfg.Collector.IncFailure("no_transmission")
		s.recordMetrics(state, false)
		return nil
	}

	state.BaselineBrokenUtilization = linkUtilization(s.sched, linkID)
	state.BaselineBrokenOffsets = s.sched.NumOffsets(linkID)

	cutoff := s.cfg.PathCutoff
	if cutoff <= 0 {
		cutoff = topology.DefaultCutoff
	}
	newPathNodes, err := s.topo.ShortestPathNoEndSystems(link.From, link.To, cutoff)
	if err != nil {
		state.Category = NoPath
		s.cfg.Collector.IncFailure("no_path")
		s.recordMetrics(state, false)
		log.Warn(ctx, "no replacement path for broken link", logging.Int("link_id", linkID))
		return failWith(NoPath, err)
	}
	newPathLinks, err := s.topo.PathNodesToLinks(newPathNodes)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSolverIO, err)
	}
	state.NewPathNodes = newPathNodes
	state.NewPathLinks = newPathLinks

	totalLinks := append([]int{linkID}, newPathLinks...)
	state.BaselinePathUtilization = pathUtilization(s.sched, newPathLinks)
	state.BaselineTotalUtilization = pathUtilization(s.sched, totalLinks)
	state.BaselinePathOffsets = sumOffsets(s.sched, newPathLinks)
	state.BaselineTotalOffsets = sumOffsets(s.sched, totalLinks)

	notifyPath, err := s.topo.ShortestPath(state.Leader, nodeID)
	if err != nil {
		state.Category = NoPath
		s.cfg.Collector.IncFailure("no_path")
		s.recordMetrics(state, false)
		log.Warn(ctx, "no notification route to leader", logging.Int("leader", state.Leader), logging.Int("activator", nodeID))
		return failWith(NoPath, err)
	}
	reversed := reverseInts(notifyPath)

	hops := len(reversed) - 1
	sizeBytes := s.cfg.SizeFrameBytes
	if hops > 1 {
		sizeBytes += s.cfg.SizeLinkBytes * int64(hops-1)
	}

	s.cfg.Collector.SetLinkUtilization(linkUtilization(s.sched, linkID))

	if hops <= 0 {
		// The activator is itself the leader: skip wire transmission and
		// go straight to patching.
		return s.enqueueExecution(nodeID, eventqueue.Patch, ev.Time(), linkID)
	}

	frameEv, err := eventqueue.NewFrameEvent(linkID, eventqueue.NotificationHS, ev.Time(), sizeBytes*8, reversed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSolverIO, err)
	}
	s.queues.At(nodeID).Add(frameEv)
	log.Info(ctx, "notification dispatched", logging.Int("leader", state.Leader), logging.Int("hops", hops))
	return nil
}

// handleFrame hops a wire transmission toward its destination, or, on
// arrival, triggers the next pipeline step per its FrameName (§4.6).
func (s *Scheduler) handleFrame(ctx context.Context, ev eventqueue.FrameEvent, nodeID int) error {
	ctx = logging.ContextWithFailureID(ctx, ev.EventID())
	log := logging.WithFailureLogger(ctx, s.log)

	if !ev.AtDestination() {
		link, err := s.topo.LinkData(ev.CurrentNode(), ev.NextNode())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSolverIO, err)
		}
		planner, err := s.planner(link.ID)
		if err != nil {
			return err
		}
		sizeBytes := ev.Size / 8
		duration := timemodel.WindowDurationNanos(sizeBytes, link.SpeedMBs)
		end, err := planner.Place(link.ID, string(ev.Name), ev.Time(), duration, 0)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSolverIO, err)
		}
		hopped := ev.Hop(end - ev.Time())
		s.queues.At(hopped.CurrentNode()).Add(hopped)
		return nil
	}

	switch ev.Name {
	case eventqueue.NotificationHS:
		return s.enqueueExecution(nodeID, eventqueue.Patch, ev.Time(), ev.EventID())
	case eventqueue.DistributeSchedulePatch:
		state := s.failures[ev.EventID()]
		if state == nil {
			return nil
		}
		boundary := ceilDiv(ev.Time(), s.cfg.Protocol.Period) * s.cfg.Protocol.Period
		if boundary > state.TimePatched {
			state.TimePatched = boundary
		}
		log.Info(ctx, "patched schedule reached node", logging.Int("node", nodeID))
	case eventqueue.DistributeScheduleOptimize:
		state := s.failures[ev.EventID()]
		if state == nil {
			return nil
		}
		boundary := ceilDiv(ev.Time(), s.cfg.Protocol.Period) * s.cfg.Protocol.Period
		if boundary > state.TimeOptimized {
			state.TimeOptimized = boundary
		}
		log.Info(ctx, "optimized schedule reached node", logging.Int("node", nodeID))
	}
	return nil
}

func (s *Scheduler) enqueueExecution(nodeID int, name eventqueue.ExecutionName, t int64, failureID int) error {
	ev, err := eventqueue.NewExecutionEvent(failureID, name, t, failureID)
	if err != nil {
		return err
	}
	s.queues.At(nodeID).Add(ev)
	return nil
}

func (s *Scheduler) handleExecution(ctx context.Context, ev eventqueue.ExecutionEvent, nodeID int) error {
	ctx = logging.ContextWithFailureID(ctx, ev.FailureID)
	log := logging.WithFailureLogger(ctx, s.log)

	state := s.failures[ev.FailureID]
	if state == nil {
		return fmt.Errorf("sim: execution event for unknown failure %d", ev.FailureID)
	}

	switch ev.Name {
	case eventqueue.Patch:
		return s.runPatch(ctx, log, nodeID, ev.Time(), state)
	case eventqueue.Optimize:
		return s.runOptimize(ctx, log, nodeID, ev.Time(), state)
	default:
		return fmt.Errorf("sim: unknown execution name %q", ev.Name)
	}
}

func (s *Scheduler) atrParams(state *FailureState) atr.Params {
	return atr.Params{
		BrokenLink:   state.LinkID,
		NewPathLinks: state.NewPathLinks,
		Topology:     s.topo,
		SwitchDelay:  s.cfg.SwitchDelayNanos,
		Hyperperiod:  s.sched.Hyperperiod,
		TimeSlot:     s.sched.TimeSlot,
	}
}

func (s *Scheduler) runPatch(ctx context.Context, log logging.Logger, nodeID int, t int64, state *FailureState) error {
	frames := reroutedFrames(s.sched, state.LinkID)
	params := s.atrParams(state)

	for hopIndex, linkID := range state.NewPathLinks {
		req, err := buildRequest(solverbridge.PatchKind, s.sched, s.topo, linkID, frames, params, hopIndex)
		if err != nil {
			s.rollback(state, frames)
			return s.abortNoSchedule(state, err)
		}
		result, execNanos, err := s.patchBridge.Invoke(req)
		if err != nil {
			s.rollback(state, frames)
			return s.abortNoSchedule(state, fmt.Errorf("patch solver on link %d: %w", linkID, err))
		}
		if err := applyResult(s.sched, linkID, result); err != nil {
			s.rollback(state, frames)
			return s.abortNoSchedule(state, err)
		}
		state.PatchingTime[linkID] = execNanos
		s.cfg.Collector.ObservePatch(float64(execNanos) / 1e9)
	}

	maxPatch := maxInt64(state.PatchingTime)
	s.distributeSchedule(eventqueue.DistributeSchedulePatch, state, nodeID, t+maxPatch)

	log.Info(ctx, "patch complete", logging.Int("links", len(state.NewPathLinks)))
	return s.enqueueExecution(nodeID, eventqueue.Optimize, t+maxPatch, state.LinkID)
}

func (s *Scheduler) runOptimize(ctx context.Context, log logging.Logger, nodeID int, t int64, state *FailureState) error {
	frames := reroutedFrames(s.sched, state.LinkID)
	params := s.atrParams(state)

	for hopIndex, linkID := range state.NewPathLinks {
		req, err := buildRequest(solverbridge.OptimizeKind, s.sched, s.topo, linkID, frames, params, hopIndex)
		if err != nil {
			s.rollback(state, frames)
			return s.abortNoSchedule(state, err)
		}
		result, execNanos, err := s.optimizeBridge.Invoke(req)
		if err != nil {
			s.rollback(state, frames)
			return s.abortNoSchedule(state, fmt.Errorf("optimize solver on link %d: %w", linkID, err))
		}
		if err := applyResult(s.sched, linkID, result); err != nil {
			s.rollback(state, frames)
			return s.abortNoSchedule(state, err)
		}
		state.OptimizeTime[linkID] = execNanos
		s.cfg.Collector.ObserveOptimize(float64(execNanos) / 1e9)
	}

	for _, f := range frames {
		f.ExchangePath(state.LinkID, state.NewPathLinks)
		for receiver, path := range f.Paths() {
			deduped, err := eliminateLoops(s.topo, path)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrSolverIO, err)
			}
			f.Paths()[receiver] = deduped
		}
	}
	removed := s.sched.RemoveUnusedOffsets()
	s.cfg.Collector.IncOffsetsGC(removed)

	report, err := validator.Validate(validator.Params{
		Schedule:    s.sched,
		Topology:    s.topo,
		Protocol:    s.cfg.Protocol,
		SwitchDelay: s.cfg.SwitchDelayNanos,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrScheduleInvariantViolation, err)
	}
	for _, w := range report.Warnings {
		log.Warn(ctx, "end-to-end delay warning", logging.Int("frame_id", w.FrameID), logging.String("detail", w.Detail))
	}

	state.Healed = true
	maxOptimize := maxInt64(state.OptimizeTime)
	s.distributeSchedule(eventqueue.DistributeScheduleOptimize, state, nodeID, t+maxOptimize)
	s.recordMetrics(state, true)
	s.cfg.Collector.IncFailure("healed")

	log.Info(ctx, "optimize complete, schedule healed", logging.Int("links", len(state.NewPathLinks)))
	return nil
}

func (s *Scheduler) rollback(state *FailureState, frames []*schedule.Frame) {
	for _, linkID := range state.NewPathLinks {
		rollbackLinkOffsets(frames, linkID)
	}
}

func (s *Scheduler) abortNoSchedule(state *FailureState, cause error) error {
	state.Category = NoSchedule
	s.cfg.Collector.IncFailure("no_schedule")
	s.recordMetrics(state, false)
	return failWith(NoSchedule, cause)
}

func (s *Scheduler) distributeSchedule(name eventqueue.FrameName, state *FailureState, leader int, t int64) {
	destinations := map[int]bool{}
	for _, linkID := range state.NewPathLinks {
		if from, err := s.topo.SenderOf(linkID); err == nil {
			destinations[from] = true
		}
		if to, err := s.topo.ReceiverOf(linkID); err == nil {
			destinations[to] = true
		}
	}
	delete(destinations, leader)

	sizeBits := (s.cfg.SizeFrameBytes + s.cfg.SizeLinkBytes*int64(len(state.NewPathLinks))) * 8
	for dest := range destinations {
		path, err := s.topo.ShortestPath(leader, dest)
		if err != nil || len(path) == 0 {
			continue
		}
		ev, err := eventqueue.NewFrameEvent(state.LinkID, name, t, sizeBits, path)
		if err != nil {
			continue
		}
		s.queues.At(leader).Add(ev)
	}
}

func (s *Scheduler) recordMetrics(state *FailureState, successful bool) {
	if s.cfg.Metrics == nil {
		return
	}
	var classification metrics.Classification
	switch {
	case !successful:
		classification = metrics.ClassificationFailed
	case maxInt64(state.OptimizeTime) <= s.cfg.TimeClassificationNanos:
		classification = metrics.ClassificationHealedWithinLimit
	default:
		classification = metrics.ClassificationHealedAboveLimit
	}

	s.cfg.Metrics.Record(metrics.Row{
		Instance:              state.ID,
		BrokenLinkUtilization: state.BaselineBrokenUtilization,
		PathUtilization:       state.BaselinePathUtilization,
		TotalUtilization:      state.BaselineTotalUtilization,
		BrokenLinkOffsets:     state.BaselineBrokenOffsets,
		PathOffsets:           state.BaselinePathOffsets,
		TotalOffsets:          state.BaselineTotalOffsets,
		Successful:            successful,
		PatchingTimeNanos:     maxInt64(state.PatchingTime),
		OptimizationTimeNanos: maxInt64(state.OptimizeTime),
		Classification:        classification,
	})
}

func sumOffsets(sched *schedule.Schedule, links []int) int {
	total := 0
	for _, l := range links {
		total += sched.NumOffsets(l)
	}
	return total
}
