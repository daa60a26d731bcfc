package solverbridge

import "errors"

// ErrSolverFailed means the solver ran but produced no usable schedule
// (absence of the output file, §6), corresponding to NoSchedule in §7.
var ErrSolverFailed = errors.New("solverbridge: solver produced no schedule")

// ErrSolverIO is fatal: the solver subprocess could not be invoked, or it
// emitted unreadable files (§7).
var ErrSolverIO = errors.New("solverbridge: solver I/O error")
