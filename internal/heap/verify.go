package heap

import (
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Verify checks the structural invariants §8 requires of a heap at rest:
// every region's bounds are ordered, used() is internally consistent, and
// the free set holds exactly the allocation-allowed empty regions. It is
// the optional post-GC verification hook the driver runs when verification
// is enabled; VerifyBounds below is the pre-GC one.
func Verify(h *Heap) error {
	var totalUsed uintptr
	for _, r := range h.regions {
		if !(r.Bottom <= r.Top && r.Top <= r.End) {
			return fmt.Errorf("heap: region %d violates bottom<=top<=end (%d,%d,%d)", r.ID, r.Bottom, r.Top, r.End)
		}
		if r.Used() != r.Top-r.Bottom {
			return fmt.Errorf("heap: region %d used() mismatch", r.ID)
		}
		wantFree := r.IsAllocationAllowed() && r.Used() == 0
		if h.IsInFreeSet(r.ID) != wantFree {
			return fmt.Errorf("heap: region %d free-set membership is %v, want %v", r.ID, h.IsInFreeSet(r.ID), wantFree)
		}
		totalUsed += r.Used()
	}
	if totalUsed != h.used {
		return fmt.Errorf("heap: heap.used=%d does not equal sum of region used() = %d", h.used, totalUsed)
	}
	if h.CollectionSetSize() != 0 {
		return fmt.Errorf("heap: collection set is not empty after GC")
	}
	return nil
}

// VerifyBounds checks only the bounds invariant that holds at every point
// in the GC cycle, including before Prepare has had a chance to recycle
// trash or reclassify cancelled-cset regions. It is the pre-GC
// verification hook; the fuller Verify above is for after the cycle.
func VerifyBounds(h *Heap) error {
	for _, r := range h.regions {
		if !(r.Bottom <= r.Top && r.Top <= r.End) {
			return fmt.Errorf("heap: region %d violates bottom<=top<=end (%d,%d,%d)", r.ID, r.Bottom, r.Top, r.End)
		}
	}
	return nil
}

// Digest returns a content digest of the object at addr: its payload bytes
// only, i.e. everything after the reference table. It excludes the
// forwarding word and reference table (both legitimately change across a
// full GC, since referents move) and the object header's own
// TotalSize/NumRefs fields (layout, not content, though they are in
// practice invariant across a move too). It is used by tests to check the
// reachability round-trip law: that an object's payload survives
// compaction unchanged even though its address (and its reference table's
// target addresses) do not.
func Digest(a *Arena, addr uintptr) [blake2b.Size256]byte {
	lo, hi := PayloadRange(a, addr)
	sum := blake2b.Sum256(a.Slice(lo, hi))
	return sum
}
