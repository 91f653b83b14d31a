package heap

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Heap owns an ordered sequence of regions, a collection set left over from
// any cancelled concurrent cycle, a free set, two mark bitmaps, and two
// top-at-mark-start arrays indexed by region. The heap is the sole owner of
// regions; workers hold shared, read-mostly references during a phase and
// mutate only the regions they have exclusively claimed.
type Heap struct {
	Arena      *Arena
	RegionSize uintptr

	mu sync.Mutex

	regions []*Region

	// completeBitmap ("current/complete") is authoritative for liveness once
	// Phase 1 swaps it in; nextBitmap accumulates marks for the concurrent
	// cycle that resumes after this full GC.
	completeBitmap *Bitmap
	nextBitmap     *Bitmap

	nextTAMS     []uintptr
	completeTAMS []uintptr

	freeSet       map[int]bool
	collectionSet map[int]bool

	cursor atomic.Int64

	roots []uintptr

	used                 uintptr
	concurrentCancelled  bool
	workers              int
}

// NewHeap reserves an arena of numRegions*regionSize bytes and initializes
// every region as empty and committed.
func NewHeap(regionSize uintptr, numRegions, workers int) (*Heap, error) {
	if regionSize == 0 || regionSize%WordSize != 0 {
		return nil, fmt.Errorf("heap: region size must be a non-zero multiple of %d", WordSize)
	}
	if numRegions <= 0 {
		return nil, fmt.Errorf("heap: numRegions must be > 0")
	}
	if workers <= 0 {
		workers = 1
	}

	arena, err := NewArena(regionSize * uintptr(numRegions))
	if err != nil {
		return nil, err
	}

	h := &Heap{
		Arena:         arena,
		RegionSize:    regionSize,
		freeSet:       make(map[int]bool),
		collectionSet: make(map[int]bool),
		workers:       workers,
	}
	h.regions = make([]*Region, numRegions)
	h.nextTAMS = make([]uintptr, numRegions)
	h.completeTAMS = make([]uintptr, numRegions)
	for i := 0; i < numRegions; i++ {
		bottom := uintptr(i) * regionSize
		h.regions[i] = &Region{
			ID:     i,
			Bottom: bottom,
			End:    bottom + regionSize,
			Top:    bottom,
			NewTop: bottom,
			State:  StateEmptyCommitted,
		}
		h.freeSet[i] = true
	}
	h.completeBitmap = NewBitmap(0, arena.Size())
	h.nextBitmap = NewBitmap(0, arena.Size())
	return h, nil
}

func (h *Heap) Lock()   { h.mu.Lock() }
func (h *Heap) Unlock() { h.mu.Unlock() }

// Workers returns the active worker-pool size policy selected this cycle.
func (h *Heap) Workers() int { return h.workers }

// Regions returns every region, in address order. Callers must not mutate
// the slice itself; regions are still shared, read-mostly state outside of
// the single-threaded sections a caller holds the heap lock for.
func (h *Heap) Regions() []*Region { return h.regions }

// NumRegions returns the number of regions in the heap.
func (h *Heap) NumRegions() int { return len(h.regions) }

// RegionAt returns the region with the given id.
func (h *Heap) RegionAt(id int) *Region { return h.regions[id] }

// RegionForAddr returns the region containing addr. Regions are uniform in
// size and laid out contiguously, so this is a direct division rather than
// a search.
func (h *Heap) RegionForAddr(addr uintptr) *Region {
	return h.regions[int(addr/h.RegionSize)]
}

// ResetClaimCursor rewinds the atomic region-claim cursor used by Phase 2
// and Phase 3's heap-adjust pass to hand out regions to workers one at a
// time without per-region locking.
func (h *Heap) ResetClaimCursor() { h.cursor.Store(0) }

// ClaimNextRegion performs the single contended operation of the parallel
// phases: an atomic fetch-add over the shared region list. It returns the
// claimed region and true, or (nil, false) once every region has been
// claimed.
func (h *Heap) ClaimNextRegion() (*Region, bool) {
	idx := h.cursor.Add(1) - 1
	if idx >= int64(len(h.regions)) {
		return nil, false
	}
	return h.regions[idx], true
}

// CompleteBitmap returns the authoritative liveness bitmap Phase 2-4
// consult to enumerate live objects.
func (h *Heap) CompleteBitmap() *Bitmap { return h.completeBitmap }

// NextBitmap returns the bitmap the concurrent marker accumulates into;
// full GC swaps it into CompleteBitmap at the end of Phase 1.
func (h *Heap) NextBitmap() *Bitmap { return h.nextBitmap }

// SwapMarkBitmaps makes what was the "next" bitmap the new "complete"
// bitmap, the hand-off point between Phase 1 and Phase 2.
func (h *Heap) SwapMarkBitmaps() {
	h.completeBitmap, h.nextBitmap = h.nextBitmap, h.completeBitmap
}

// ResetNextMarkBitmap clears the bitmap the next concurrent cycle will mark
// into, asserting it comes up clear the way Prepare requires.
func (h *Heap) ResetNextMarkBitmap() {
	h.nextBitmap.ClearAll()
	Assertf(h.nextBitmap.IsClear(), "next mark bitmap not clear after reset")
}

// ResetCompleteMarkBitmap clears the complete/current bitmap, required
// before Post-Compact's size-based region walk.
func (h *Heap) ResetCompleteMarkBitmap() { h.completeBitmap.ClearAll() }

// NextTAMS / CompleteTAMS are the two "top-at-mark-start" pointer arrays,
// indexed by region id.
func (h *Heap) NextTAMS(id int) uintptr        { return h.nextTAMS[id] }
func (h *Heap) SetNextTAMS(id int, v uintptr)  { h.nextTAMS[id] = v }
func (h *Heap) CompleteTAMS(id int) uintptr       { return h.completeTAMS[id] }
func (h *Heap) SetCompleteTAMS(id int, v uintptr) { h.completeTAMS[id] = v }

// --- free set / collection set -------------------------------------------------

func (h *Heap) ClearFreeSet() { h.freeSet = make(map[int]bool) }
func (h *Heap) AddToFreeSet(id int)    { h.freeSet[id] = true }
func (h *Heap) RemoveFromFreeSet(id int) { delete(h.freeSet, id) }
func (h *Heap) IsInFreeSet(id int) bool  { return h.freeSet[id] }
func (h *Heap) FreeSetSize() int         { return len(h.freeSet) }

func (h *Heap) ClearCollectionSet()          { h.collectionSet = make(map[int]bool) }
func (h *Heap) AddToCollectionSet(id int)    { h.collectionSet[id] = true }
func (h *Heap) IsInCollectionSet(id int) bool { return h.collectionSet[id] }
func (h *Heap) CollectionSetSize() int       { return len(h.collectionSet) }
func (h *Heap) CollectionSetIDs() []int {
	ids := make([]int, 0, len(h.collectionSet))
	for id := range h.collectionSet {
		ids = append(ids, id)
	}
	return ids
}

// --- misc heap-wide state -------------------------------------------------

func (h *Heap) Used() uintptr        { return h.used }
func (h *Heap) SetUsed(v uintptr)    { h.used = v }

func (h *Heap) ConcurrentCancelled() bool     { return h.concurrentCancelled }
func (h *Heap) SetConcurrentCancelled(v bool) { h.concurrentCancelled = v }

// --- roots ------------------------------------------------------------------

// Roots returns the flat slice of root slots. Each element is itself a
// mutable slot holding an object address (zero for null); Phase 3's root
// adjust pass rewrites these in place.
func (h *Heap) Roots() []uintptr { return h.roots }

// AddRoot appends a new root slot pointing at addr (which may be zero).
func (h *Heap) AddRoot(addr uintptr) int {
	h.roots = append(h.roots, addr)
	return len(h.roots) - 1
}

func (h *Heap) SetRoot(i int, addr uintptr) { h.roots[i] = addr }

// --- TLAB parsability stand-ins --------------------------------------------

// FlushAllocBuffers makes any outstanding thread-local allocation buffers
// parsable by filling and retiring them. This heap model never hands out
// TLABs of its own (allocation only happens through Allocate and
// AllocateHumongous, synchronously), so this is a deliberate no-op kept for parity with
// the driver's sequencing contract.
func (h *Heap) FlushAllocBuffers() {}

// ResizeAllocBuffers is the matching post-GC policy hook; likewise a no-op
// here.
func (h *Heap) ResizeAllocBuffers() {}

// LiveObjects calls fn with the address of every object the complete
// bitmap marks live within [r.Bottom, r.Top), in ascending order.
func (h *Heap) LiveObjects(r *Region, fn func(addr uintptr) bool) {
	h.completeBitmap.Iterate(r.Bottom, r.Top, fn)
}
