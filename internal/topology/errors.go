package topology

import "errors"

// ErrNotFound is returned when a node or link ID is unknown to the topology.
var ErrNotFound = errors.New("topology: not found")

// ErrNoPath is returned when no path satisfies the requested constraints.
var ErrNoPath = errors.New("topology: no path")
