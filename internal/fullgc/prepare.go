package fullgc

import (
	"context"

	"github.com/itstack-org/shenandoah-go/internal/heap"
)

// prepare implements §4.1 step 5: tolerate any prior GC state, reset the
// next mark bitmap, abandon partial reference discovery, and bring every
// region to an active state under the heap lock.
func (d *Driver) prepare(ctx context.Context) {
	if d.concurrentMarkingActive {
		d.Marker.Cancel()
		d.concurrentMarkingActive = false
	}
	if d.evacuationActive {
		d.evacuationActive = false
	}

	d.H.ResetNextMarkBitmap()

	d.RefProc.DisableDiscovery()
	d.RefProc.AbandonPartialDiscovery()

	d.H.Lock()
	ensureRegionsActive(d.H)
	for _, r := range d.H.Regions() {
		d.H.SetNextTAMS(r.ID, r.Top)
		r.SetConcurrentIterationSafeLimit(r.Top)
		r.ResetMarkData()
	}
	d.H.Unlock()
}

// ensureRegionsActive recycles trash and promotes uncommitted-empty
// regions to regular-bypass so they can host slid data, then asserts every
// region is now in an active state. Called from Prepare and again from the
// humongous sweep at the start of Phase 2, since trashing a humongous
// object's backing regions during the sweep makes them legal sliding
// targets only once this pass has run again.
func ensureRegionsActive(h *heap.Heap) {
	for _, r := range h.Regions() {
		switch r.State {
		case heap.StateTrash:
			r.Recycle()
		case heap.StateEmptyUncommitted:
			r.MakeRegularBypass()
		}
	}
	for _, r := range h.Regions() {
		heap.Assertf(r.State != heap.StateTrash && r.State != heap.StateEmptyUncommitted,
			"region %d is not active after ensureRegionsActive (state=%s)", r.ID, r.State)
	}
}
