package fullgc

import (
	"context"

	"github.com/itstack-org/shenandoah-go/internal/gang"
	"github.com/itstack-org/shenandoah-go/internal/heap"
)

// runCompact implements §4.5, Phase 4: physically slide every live object
// to the address Phase 2 planned for it, then reclassify every region's
// state from the move it just performed (or didn't).
func (d *Driver) runCompact(ctx context.Context) {
	d.Pool.Run(gang.TaskFunc(func(workerID int) {
		slice := d.slices[workerID]
		for _, r := range slice.fromRegions {
			compactRegion(d.H, r)
		}
	}))

	d.H.Lock()
	d.stats.RegionsReclaimed = postCompact(d.H)
	d.H.Unlock()
}

// compactRegion moves every live object in r to the address its forwarding
// word names, in ascending source-address order. Sliding never reorders
// objects relative to one another, and the planner only ever slides an
// object to an address <= its own (within a from-region's own slice,
// addresses only ever decrease or stay put), so a plain copy is safe even
// when source and destination overlap: Go's copy() is defined for
// overlapping slices backed by the same underlying array.
func compactRegion(h *heap.Heap, r *heap.Region) {
	h.LiveObjects(r, func(addr uintptr) bool {
		target := heap.FwdGet(h.Arena, addr)
		if target != addr {
			moveObject(h, addr, target)
		}
		// Re-self-forward: once the object lives at target, its forwarding
		// word must read back target == address_of(object), the no-double-move
		// invariant Phase 3 of the next concurrent cycle depends on.
		heap.FwdSet(h.Arena, target, target)
		return true
	})
}

// moveObject physically relocates the object at src to dst, header,
// reference table, and payload together, as a single contiguous copy.
func moveObject(h *heap.Heap, src, dst uintptr) {
	size := heap.TotalSize(h.Arena, src)
	srcBytes := h.Arena.Slice(src, src+size)
	dstBytes := h.Arena.Slice(dst, dst+size)
	copy(dstBytes, srcBytes)
}

// postCompact implements §4.5's single-threaded region bookkeeping: every
// region's complete-top-at-mark-start resets to its bottom, its Top catches
// up to the NewTop the planner computed, cset regions that still hold
// survivors return to regular, anything left with no live data is trashed
// and recycled on the spot into the free set, and the heap-wide used counter and
// free/collection sets are rebuilt from scratch.
func postCompact(h *heap.Heap) int {
	h.ClearFreeSet()
	h.ClearCollectionSet()

	var used uintptr
	var reclaimed int
	for _, r := range h.Regions() {
		h.SetCompleteTAMS(r.ID, r.Bottom)

		switch r.State {
		case heap.StateHumongousStart, heap.StateHumongousContinuation:
			used += r.Used()
			continue
		case heap.StateEmptyCommitted, heap.StateEmptyUncommitted:
			h.AddToFreeSet(r.ID)
			continue
		}

		r.Top = r.NewTop

		if r.Top == r.Bottom {
			r.MakeTrash()
			r.Recycle()
			h.AddToFreeSet(r.ID)
			reclaimed++
			continue
		}

		if r.State == heap.StateCset {
			r.MakeRegular()
		}
		used += r.Used()
	}

	h.ResetCompleteMarkBitmap()
	h.ResetNextMarkBitmap()
	h.SetUsed(used)
	h.SetConcurrentCancelled(false)
	return reclaimed
}
