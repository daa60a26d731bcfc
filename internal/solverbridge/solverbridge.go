// Package solverbridge externalizes the Patch/Optimize solver calls (§4.7,
// §6): write a request file describing the link's fixed and new traffic,
// spawn the solver binary, read back the patched offsets and its reported
// execution time, and guarantee the scratch files are removed on both the
// success and the error path (§5, "Resource scoping").
//
// The wire format the real solvers speak is XML (§6), but XML marshaling
// for that protocol is one of this core's declared out-of-scope interfaces
// (§1): callers supply a Codec that knows how to serialize a Request and
// parse a Result, and production wiring can plug in an XML codec without
// this package changing. JSONCodec below is the default used by tests and
// by the bundled cmd/simulator driver, mirroring how the teacher's own
// scenario loader favors JSON over XML for its own configuration surface.
package solverbridge

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Kind distinguishes the two solver invocations the repair pipeline makes.
type Kind string

const (
	PatchKind    Kind = "Patch"
	OptimizeKind Kind = "Optimize"
)

// InstanceOffset is one (instance, transmission, ending) row, in time-slot
// units, as exchanged with the solver.
type InstanceOffset struct {
	Instance         int   `json:"instance"`
	TransmissionSlot int64 `json:"transmission_slot"`
	EndingSlot       int64 `json:"ending_slot"`
}

// FixedFrame describes a frame already scheduled on the target link, given
// to the solver as context it must not disturb.
type FixedFrame struct {
	FrameID int              `json:"frame_id"`
	Offsets []InstanceOffset `json:"offsets"`
}

// InstanceRange is the ATR-derived [min, max] candidate window for one
// instance of a new frame, in time-slot units.
type InstanceRange struct {
	Instance int   `json:"instance"`
	Min      int64 `json:"min_transmission_slot"`
	Max      int64 `json:"max_transmission_slot"`
}

// NewFrame describes a frame the solver must place on the target link.
type NewFrame struct {
	FrameID       int             `json:"frame_id"`
	Period        int64           `json:"period"`
	Deadline      int64           `json:"deadline"`
	Size          int64           `json:"size"`
	StartingTime  int64           `json:"starting_time"`
	EndToEnd      int64           `json:"end_to_end"`
	Ranges        []InstanceRange `json:"ranges"`
	TimeSlotsUsed int64           `json:"time_slots_used"` // transmission length, in slots
}

// Request is the Patch/Optimize request written to disk for the solver to
// read (§6): fixed traffic plus new traffic for exactly one link.
type Request struct {
	Kind           Kind         `json:"kind"`
	LinkID         int          `json:"link_id"`
	LinkSpeedMBs   int64        `json:"link_speed_mbs"`
	ProtocolPeriod int64        `json:"protocol_period_slots"`
	ProtocolTime   int64        `json:"protocol_time_slots"`
	Hyperperiod    int64        `json:"hyperperiod_slots"`
	FixedTraffic   []FixedFrame `json:"fixed_traffic"`
	Traffic        []NewFrame   `json:"traffic"`
}

// Result is the patched/optimized schedule the solver writes back.
type Result struct {
	LinkID int                        `json:"link_id"`
	Frames map[int][]InstanceOffset   `json:"frames"` // frame id -> offsets
}

// Codec serializes requests and parses results, decoupling this package
// from any one wire format (see package doc).
type Codec interface {
	EncodeRequest(Request) ([]byte, error)
	DecodeResult([]byte) (Result, error)
}

// JSONCodec is the default Codec, used wherever the real XML protocol isn't
// required.
type JSONCodec struct{}

func (JSONCodec) EncodeRequest(r Request) ([]byte, error) { return json.MarshalIndent(r, "", "  ") }
func (JSONCodec) DecodeResult(b []byte) (Result, error) {
	var r Result
	err := json.Unmarshal(b, &r)
	return r, err
}

// Bridge spawns the external solver binary against a scratch directory.
type Bridge struct {
	SolverPath string
	ScratchDir string
	Codec      Codec
}

// NewBridge returns a Bridge using JSONCodec by default.
func NewBridge(solverPath, scratchDir string) *Bridge {
	return &Bridge{SolverPath: solverPath, ScratchDir: scratchDir, Codec: JSONCodec{}}
}

// Invoke writes the request, runs the solver, and reads back the result and
// its reported execution time in nanoseconds. The scratch files created for
// this call are removed before Invoke returns, whether it succeeds or not.
//
// Absence of the output file after the solver exits signals solver failure
// (§6, §7 NoSchedule), reported as ErrSolverFailed rather than a Go error
// from the subprocess itself, since a solver may legitimately exit non-zero
// on "no solution found".
func (b *Bridge) Invoke(req Request) (result Result, executionNanos int64, err error) {
	requestPath := filepath.Join(b.ScratchDir, fmt.Sprintf("%s_%d_request", req.Kind, req.LinkID))
	resultPath := filepath.Join(b.ScratchDir, fmt.Sprintf("%s_%d_result", req.Kind, req.LinkID))
	execPath := filepath.Join(b.ScratchDir, fmt.Sprintf("%s_%d_exectime", req.Kind, req.LinkID))

	defer func() {
		os.Remove(requestPath)
		os.Remove(resultPath)
		os.Remove(execPath)
	}()

	encoded, err := b.Codec.EncodeRequest(req)
	if err != nil {
		return Result{}, 0, fmt.Errorf("%w: encoding request: %v", ErrSolverIO, err)
	}
	if err := os.WriteFile(requestPath, encoded, 0o644); err != nil {
		return Result{}, 0, fmt.Errorf("%w: writing request: %v", ErrSolverIO, err)
	}

	cmd := exec.Command(b.SolverPath, string(req.Kind), requestPath, resultPath, execPath)
	if err := cmd.Run(); err != nil {
		if _, statErr := os.Stat(resultPath); statErr != nil {
			return Result{}, 0, fmt.Errorf("%w: %v", ErrSolverFailed, err)
		}
		// Solver exited non-zero but still produced output; fall through
		// and trust the output file, matching the reference's "absence of
		// the file signals failure" rule rather than the exit code.
	}

	resultBytes, err := os.ReadFile(resultPath)
	if err != nil {
		return Result{}, 0, fmt.Errorf("%w: %v", ErrSolverFailed, err)
	}
	result, err = b.Codec.DecodeResult(resultBytes)
	if err != nil {
		return Result{}, 0, fmt.Errorf("%w: decoding result: %v", ErrSolverIO, err)
	}

	execNanos, err := readExecutionTime(execPath)
	if err != nil {
		return Result{}, 0, fmt.Errorf("%w: %v", ErrSolverIO, err)
	}

	return result, execNanos, nil
}

type executionTimeFile struct {
	ExecutionTimeNanos int64 `json:"execution_time_ns"`
}

func readExecutionTime(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var payload executionTimeFile
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, err
	}
	return payload.ExecutionTimeNanos, nil
}
