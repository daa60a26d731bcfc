package sim

import "errors"

// Category classifies how a single failure instance's repair pipeline
// concluded (§3 Simulator state, §7).
type Category int

const (
	// None means the instance healed cleanly; the zero value so a fresh
	// FailureState reads as "not yet failed".
	None Category = iota
	NoTransmission
	NoPath
	NoSchedule
)

func (c Category) String() string {
	switch c {
	case NoTransmission:
		return "NoTransmission"
	case NoPath:
		return "NoPath"
	case NoSchedule:
		return "NoSchedule"
	default:
		return "None"
	}
}

// ErrScheduleInvariantViolation and ErrSolverIO are the two fatal error
// kinds of §7: both propagate out of Run rather than being attributed to a
// single failure instance, since both indicate a bug rather than bad
// input data.
var (
	ErrScheduleInvariantViolation = errors.New("sim: schedule invariant violation")
	ErrSolverIO                   = errors.New("sim: solver I/O failure")
)

// pipelineError is the internal, per-failure-instance error returned by the
// repair pipeline's own steps (ATR collapse, no replacement path, solver
// rejection). Run() catches these, attributes them to the failing
// instance's Category, and continues with the next event rather than
// propagating them (§4.9, §7 "Propagation policy").
type pipelineError struct {
	category Category
	err      error
}

func (e *pipelineError) Error() string { return e.category.String() + ": " + e.err.Error() }
func (e *pipelineError) Unwrap() error { return e.err }

func failWith(category Category, err error) *pipelineError {
	return &pipelineError{category: category, err: err}
}
