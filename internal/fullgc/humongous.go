package fullgc

import "github.com/itstack-org/shenandoah-go/internal/heap"

// humongousSweep implements §4.3's single-threaded, heap-locked first step
// of Phase 2: any humongous object whose head object wasn't marked
// reachable is dead, so every region backing it is trashed. Phase 1's mark
// pass never visits humongous_continuation regions on its own — only the
// head object's reference scan would have reached into it indirectly via
// pointers stored past the first region, which this simplified object
// model never does — so checking only the head's mark bit is sufficient to
// decide the whole object's liveness.
func humongousSweep(h *heap.Heap) {
	for _, start := range h.Regions() {
		if !start.IsHumongousStart() {
			continue
		}
		head := start.Bottom + heap.FwdHeaderSize
		if h.CompleteBitmap().IsMarked(head) {
			continue
		}
		trashHumongous(h, start)
	}
	ensureRegionsActive(h)
}

// trashHumongous marks start and every continuation region backing the
// same humongous object as trash, in one shot, so the ensureRegionsActive
// pass that follows the sweep recycles the whole run together.
func trashHumongous(h *heap.Heap, start *heap.Region) {
	start.MakeTrash()
	for _, r := range h.Regions() {
		if r.IsHumongousContinuation() && r.HumongousOf == start.ID {
			r.MakeTrash()
		}
	}
}
