package fullgc

import (
	"context"

	"github.com/itstack-org/shenandoah-go/internal/gang"
	"github.com/itstack-org/shenandoah-go/internal/heap"
)

// planSlice is a worker's mutable, ordered set of regions claimed during
// Phase 2: the "worker slice" of §3/§4.3. emptyPool holds from-regions this
// slice has already fully drained and can therefore reuse as a later
// target; it is consulted (and pushed to) in claim order, so it behaves as
// a simple stack.
type planSlice struct {
	fromRegions []*heap.Region

	toRegion     *heap.Region
	compactPoint uintptr

	emptyPool []*heap.Region

	// selfCompactCount counts genuine self-compaction fallbacks: times the
	// planner had to slide a region's tail into itself because no drained
	// region was available anywhere else in the slice yet. It excludes the
	// trivial case of a from-region merely starting out as its own slice's
	// first target.
	selfCompactCount int
}

func newPlanSlice() *planSlice { return &planSlice{} }

func (s *planSlice) pushEmpty(r *heap.Region) { s.emptyPool = append(s.emptyPool, r) }

func (s *planSlice) popEmpty() *heap.Region {
	if len(s.emptyPool) == 0 {
		return nil
	}
	r := s.emptyPool[len(s.emptyPool)-1]
	s.emptyPool = s.emptyPool[:len(s.emptyPool)-1]
	return r
}

// runPlan implements §4.3: the humongous sweep, then parallel sliding
// planning over every move-allowed region, one worker slice per pool
// worker.
func (d *Driver) runPlan(ctx context.Context) {
	d.H.Lock()
	humongousSweep(d.H)
	d.H.Unlock()

	d.H.ResetClaimCursor()
	d.Pool.Run(gang.TaskFunc(func(workerID int) {
		slice := d.slices[workerID]
		for {
			r, ok := d.H.ClaimNextRegion()
			if !ok {
				break
			}
			if !r.IsMoveAllowed() {
				continue
			}
			slice.fromRegions = append(slice.fromRegions, r)
			if slice.toRegion == nil {
				slice.toRegion = r
				slice.compactPoint = r.Bottom
			}
			planRegion(d.H, slice, r)
		}
		if slice.toRegion != nil {
			slice.toRegion.NewTop = slice.compactPoint
		}
	}))

	for _, slice := range d.slices {
		d.stats.RegionsSelfCompacted += slice.selfCompactCount
	}
}

// planRegion runs the sliding planner over every live object of r, in
// ascending address order, per the per-object placement rule of §4.3.
func planRegion(h *heap.Heap, slice *planSlice, r *heap.Region) {
	selfTargeted := slice.toRegion == r

	h.LiveObjects(r, func(addr uintptr) bool {
		size := heap.Footprint(h.Arena, addr)

		if slice.compactPoint+size > slice.toRegion.End {
			old := slice.toRegion
			old.NewTop = slice.compactPoint

			next := slice.popEmpty()
			if next == nil {
				// No slack anywhere in the slice yet: fall back to
				// compacting this region into itself. Sliding preserves
				// address order, so compact_point <= address_of(p) holds
				// throughout and this is race- and overlap-safe.
				next = r
				slice.selfCompactCount++
			}
			heap.Assertf(next != old, "phase2: planner could not find a target region distinct from region %d", old.ID)

			slice.toRegion = next
			slice.compactPoint = next.Bottom
			if next == r {
				selfTargeted = true
			}
		}

		target := slice.compactPoint + heap.FwdHeaderSize
		heap.FwdSet(h.Arena, addr, target)
		slice.compactPoint += size
		return true
	})

	// r is fully drained (none of its own objects stayed in it) only if it
	// never served as its own target during this scan, and isn't the
	// still-active target some later region's objects are being written
	// into right now.
	if !selfTargeted && slice.toRegion != r {
		r.NewTop = r.Bottom
		slice.pushEmpty(r)
	}
}
