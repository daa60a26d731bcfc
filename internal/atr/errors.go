package atr

import "errors"

// ErrScheduleInconsistent is raised when an available transmission range
// collapses (lower bound exceeds upper bound) at any instance, corresponding
// to the NoSchedule error category in §7.
var ErrScheduleInconsistent = errors.New("atr: schedule inconsistency, no valid transmission range")
