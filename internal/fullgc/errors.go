package fullgc

import "errors"

// ErrNilHeap is returned when FullGC is asked to collect a nil heap.
var ErrNilHeap = errors.New("fullgc: heap is nil")

// ErrAlreadyRunning is returned if FullGC is re-entered while a prior call
// on the same Driver has not returned; full GC is defined as STW and
// single-threaded at the driver level, so this can only indicate a caller
// bug, not a concurrency hazard worth tolerating.
var ErrAlreadyRunning = errors.New("fullgc: a full GC is already in progress on this driver")
