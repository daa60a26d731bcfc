package solverbridge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// writeFakeSolver writes a tiny script that behaves like a solver binary:
// it ignores the request and writes a canned result plus execution time
// file at the paths given in argv[3] and argv[4].
func writeFakeSolver(t *testing.T, dir string, succeed bool) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake solver script assumes a POSIX shell")
	}
	scriptPath := filepath.Join(dir, "fake_solver.sh")
	script := `#!/bin/sh
resultPath="$3"
execPath="$4"
`
	if succeed {
		script += `echo '{"link_id":1,"frames":{"5":[{"instance":0,"transmission_slot":10,"ending_slot":20}]}}' > "$resultPath"
echo '{"execution_time_ns":123456}' > "$execPath"
exit 0
`
	} else {
		script += `exit 1
`
	}
	if err := os.WriteFile(scriptPath, []byte(script), 0o755); err != nil {
		t.Fatalf("failed writing fake solver script: %v", err)
	}
	return scriptPath
}

func TestInvokeSuccess(t *testing.T) {
	dir := t.TempDir()
	solver := writeFakeSolver(t, dir, true)
	bridge := NewBridge(solver, dir)

	req := Request{Kind: PatchKind, LinkID: 1, LinkSpeedMBs: 100}
	result, execNanos, err := bridge.Invoke(req)
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if execNanos != 123456 {
		t.Fatalf("execNanos = %d, want 123456", execNanos)
	}
	if len(result.Frames[5]) != 1 || result.Frames[5][0].EndingSlot != 20 {
		t.Fatalf("unexpected result: %+v", result)
	}

	// Scratch files must be cleaned up regardless of outcome.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir returned error: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "fake_solver.sh" {
			t.Fatalf("scratch file %q was not cleaned up", e.Name())
		}
	}
}

func TestInvokeSolverFailureNoOutputFile(t *testing.T) {
	dir := t.TempDir()
	solver := writeFakeSolver(t, dir, false)
	bridge := NewBridge(solver, dir)

	req := Request{Kind: OptimizeKind, LinkID: 1}
	if _, _, err := bridge.Invoke(req); err == nil {
		t.Fatalf("expected an error when the solver produces no output file")
	}
}

func TestJSONCodecRoundTrip(t *testing.T) {
	var codec JSONCodec
	req := Request{
		Kind:   PatchKind,
		LinkID: 7,
		Traffic: []NewFrame{
			{FrameID: 1, Period: 1000, Ranges: []InstanceRange{{Instance: 0, Min: 1, Max: 9}}},
		},
	}
	encoded, err := codec.EncodeRequest(req)
	if err != nil {
		t.Fatalf("EncodeRequest returned error: %v", err)
	}
	var decoded Request
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if decoded.LinkID != 7 || len(decoded.Traffic) != 1 {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}
