package schedule

import "errors"

// ErrAlreadySet is returned when an Offset slot already holds a different
// value than the one being written.
var ErrAlreadySet = errors.New("schedule: offset slot already set to a different value")

// ErrNoPath is returned when a frame has no installed path to a receiver.
var ErrNoPath = errors.New("schedule: no path to receiver")

// ErrUnknownReceiver is returned when a receiver ID is not part of a frame.
var ErrUnknownReceiver = errors.New("schedule: receiver is not part of this frame")
