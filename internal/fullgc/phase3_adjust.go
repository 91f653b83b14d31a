package fullgc

import (
	"context"

	"github.com/itstack-org/shenandoah-go/internal/gang"
	"github.com/itstack-org/shenandoah-go/internal/heap"
)

// runAdjust implements §4.4, Phase 3: first every root slot, then every
// reference field of every live heap object, gets rewritten from its
// current address to its forwardee. Objects themselves haven't moved yet —
// Phase 4 does that — so this pass reads the from-space layout and writes
// only forwarding-derived values, never touching object bytes.
func (d *Driver) runAdjust(ctx context.Context) {
	d.Pool.Run(gang.TaskFunc(func(workerID int) {
		d.Roots.ProcessAll(d.strongRoots, d.weakRoots, d.cldRoots, d.codeRoots, workerID, d.Pool.Size(), func(slotIndex int) {
			adjustRoot(d.H, slotIndex)
		})
	}))

	d.H.ResetClaimCursor()
	d.Pool.Run(gang.TaskFunc(func(int) {
		for {
			r, ok := d.H.ClaimNextRegion()
			if !ok {
				return
			}
			adjustRegion(d.H, r)
		}
	}))
}

// adjustRoot rewrites a single root slot to its forwardee, leaving null
// roots untouched.
func adjustRoot(h *heap.Heap, slotIndex int) {
	addr := h.Roots()[slotIndex]
	if addr == 0 {
		return
	}
	h.SetRoot(slotIndex, heap.FwdGet(h.Arena, addr))
}

// adjustRegion rewrites every reference field of every live object in r.
// Humongous continuations carry no object header of their own and are
// skipped; their head object's reference table lives entirely in the
// humongous_start region and gets adjusted when that region is claimed.
func adjustRegion(h *heap.Heap, r *heap.Region) {
	if r.IsHumongousContinuation() {
		return
	}
	h.LiveObjects(r, func(addr uintptr) bool {
		n := heap.NumRefs(h.Arena, addr)
		for i := 0; i < n; i++ {
			ref := heap.RefAt(h.Arena, addr, i)
			if ref == 0 {
				continue
			}
			heap.SetRefAt(h.Arena, addr, i, heap.FwdGet(h.Arena, ref))
		}
		return true
	})
}
