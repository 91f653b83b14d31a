// Package heap implements the region-based heap model that the full-GC
// sliding compactor operates over: fixed-size regions, an external mark
// bitmap, and the forwarding header embedded ahead of every object.
package heap

import "fmt"

// RegionState classifies the contents of a Region.
type RegionState int

const (
	StateRegular RegionState = iota
	StateHumongousStart
	StateHumongousContinuation
	StateCset
	StateTrash
	StateEmptyCommitted
	StateEmptyUncommitted
	StatePinned
)

func (s RegionState) String() string {
	switch s {
	case StateRegular:
		return "regular"
	case StateHumongousStart:
		return "humongous_start"
	case StateHumongousContinuation:
		return "humongous_continuation"
	case StateCset:
		return "cset"
	case StateTrash:
		return "trash"
	case StateEmptyCommitted:
		return "empty_committed"
	case StateEmptyUncommitted:
		return "empty_uncommitted"
	case StatePinned:
		return "pinned"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// AllocStats tracks simple per-region allocation bookkeeping, mirroring the
// small counters the teacher keeps per mspan/region (allocation count and
// bytes handed out since the region was last reset).
type AllocStats struct {
	Allocations uint64
	BytesAlloc  uint64
}

// Region is a fixed-size, contiguous slice of the heap's address range.
//
// Invariant: Bottom <= Top <= End always. After Phase 2, Bottom <= NewTop <=
// End. After Phase 4, Top == NewTop.
type Region struct {
	ID    int
	Bottom uintptr
	End    uintptr

	Top    uintptr
	NewTop uintptr

	State  RegionState
	Bypass bool // true if promoted regular-bypass from empty_uncommitted during Prepare

	// pinnedFrom remembers the state a region held before Pin moved it to
	// StatePinned, so Unpin can restore it.
	pinnedFrom RegionState

	LiveDataBytes uint64
	Stats         AllocStats

	// ConcurrentIterationSafeLimit bounds how far a concurrent walker may
	// read into this region without racing the allocator: Prepare sets it
	// to Top before marking starts (spec.md §4.1 step 5), mirroring the
	// original's ShenandoahHeapRegion::set_concurrent_iteration_safe_limit.
	ConcurrentIterationSafeLimit uintptr

	// HumongousOf, for a humongous_continuation region, names the region ID
	// of the humongous_start region whose object tail it holds. Unused
	// otherwise.
	HumongousOf int
}

// Used returns the number of bytes currently occupied in the region.
func (r *Region) Used() uintptr { return r.Top - r.Bottom }

// Capacity returns the region's total addressable size.
func (r *Region) Capacity() uintptr { return r.End - r.Bottom }

// IsMoveAllowed reports whether this region's live contents may be slid by
// the planner: regular and cset regions, unless pinned. Humongous regions
// are never move-allowed; trash/empty/pinned regions carry no live data to
// plan, or must not be moved.
func (r *Region) IsMoveAllowed() bool {
	return r.State == StateRegular || r.State == StateCset
}

// Pin moves the region into the pinned state, preventing Phase 2 from
// sliding its contents, remembering the state it held so Unpin can restore
// it.
func (r *Region) Pin() {
	if r.State != StatePinned {
		r.pinnedFrom = r.State
		r.State = StatePinned
	}
}

// Unpin restores the state the region held before Pin was called.
func (r *Region) Unpin() {
	if r.State == StatePinned {
		r.State = r.pinnedFrom
	}
}

// IsHumongousStart reports whether this region is the head of a (possibly
// multi-region) humongous object.
func (r *Region) IsHumongousStart() bool { return r.State == StateHumongousStart }

// IsHumongousContinuation reports whether this region is a tail region of a
// humongous object; it carries no object header of its own.
func (r *Region) IsHumongousContinuation() bool { return r.State == StateHumongousContinuation }

// IsAllocationAllowed reports whether the region may host new allocations
// once the collector is done with it: ordinary regular regions and
// recycled-empty regions, but not humongous, trash, or pinned regions.
func (r *Region) IsAllocationAllowed() bool {
	return r.State == StateRegular || r.State == StateEmptyCommitted
}

// Recycle releases a trashed region's backing storage conceptually and
// returns it to a pristine, empty, committed state.
func (r *Region) Recycle() {
	r.State = StateEmptyCommitted
	r.Top = r.Bottom
	r.NewTop = r.Bottom
	r.LiveDataBytes = 0
	r.Bypass = false
}

// MakeTrash marks the region as trash, to be returned to empty by Recycle.
func (r *Region) MakeTrash() { r.State = StateTrash }

// MakeRegularBypass promotes an uncommitted-empty region straight to
// regular so it can host slid data without going through a commit step
// first (Prepare's "bypass" path).
func (r *Region) MakeRegularBypass() {
	r.State = StateRegular
	r.Bypass = true
}

// MakeRegular demotes a region (typically a cset region with surviving
// live data) back to a plain regular region.
func (r *Region) MakeRegular() { r.State = StateRegular }

// ResetMarkData resets the per-region bookkeeping Prepare performs ahead of
// a fresh mark pass.
func (r *Region) ResetMarkData() {
	r.LiveDataBytes = 0
	r.Stats = AllocStats{}
}

// SetConcurrentIterationSafeLimit records the highest address a concurrent
// walker may read from this region, the way the original's
// ShenandoahHeapRegion::set_concurrent_iteration_safe_limit does.
func (r *Region) SetConcurrentIterationSafeLimit(limit uintptr) {
	r.ConcurrentIterationSafeLimit = limit
}
