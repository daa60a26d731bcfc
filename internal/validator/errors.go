package validator

import "errors"

// ErrInvariantViolation is fatal: it surfaces out of sim.Scheduler.Run per §7.
var ErrInvariantViolation = errors.New("validator: schedule invariant violation")
