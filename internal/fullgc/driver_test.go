package fullgc

import (
	"context"
	"testing"

	"github.com/itstack-org/shenandoah-go/internal/config"
	"github.com/itstack-org/shenandoah-go/internal/heap"
	"github.com/itstack-org/shenandoah-go/internal/roots"
)

func newTestDriver(t *testing.T, regionSize uintptr, numRegions, workers int) (*Driver, *heap.Heap) {
	t.Helper()
	h, err := heap.NewHeap(regionSize, numRegions, workers)
	if err != nil {
		t.Fatalf("NewHeap: %v", err)
	}
	cfg := config.Default()
	cfg.EnableVerification = true
	d := New(h, cfg, nil)
	return d, h
}

// scenario 1: all-empty heap.
func TestFullGCAllEmptyHeap(t *testing.T) {
	d, h := newTestDriver(t, 4096, 8, 2)
	d.SetRoots(roots.Slots{}, roots.Slots{}, roots.Slots{}, roots.Slots{})

	if err := d.FullGC(context.Background(), SystemGC); err != nil {
		t.Fatalf("FullGC: %v", err)
	}

	if h.Used() != 0 {
		t.Fatalf("Used() = %d, want 0", h.Used())
	}
	if got := h.FreeSetSize(); got != h.NumRegions() {
		t.Fatalf("FreeSetSize() = %d, want %d (every region alloc-allowed and empty)", got, h.NumRegions())
	}
	if h.CollectionSetSize() != 0 {
		t.Fatalf("collection set not empty after GC")
	}
	if !h.CompleteBitmap().IsClear() || !h.NextBitmap().IsClear() {
		t.Fatalf("both bitmaps must be clear after GC")
	}
}

// scenario 2: single large live object filling most of one region.
func TestFullGCSingleLargeLiveObject(t *testing.T) {
	d, h := newTestDriver(t, 4096, 4, 2)
	r := h.RegionAt(0)
	addr, err := h.Allocate(r, 0, 4096-FwdHeaderSizeMinusHeader())
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	digestBefore := heap.Digest(h.Arena, addr)
	rootIdx := h.AddRoot(addr)
	d.SetRoots(roots.Slots{Kind: roots.Strong, Indices: []int{rootIdx}}, roots.Slots{}, roots.Slots{}, roots.Slots{})

	if err := d.FullGC(context.Background(), SystemGC); err != nil {
		t.Fatalf("FullGC: %v", err)
	}

	survivor := h.Roots()[rootIdx]
	if survivor == 0 {
		t.Fatalf("root to the single live object was cleared")
	}
	if got := heap.FwdGet(h.Arena, survivor); got != survivor {
		t.Fatalf("no-double-move violated: fwd_get(survivor) = %d, want %d", got, survivor)
	}
	if got := heap.Digest(h.Arena, survivor); got != digestBefore {
		t.Fatalf("object content changed across compaction")
	}
}

// scenario 3: fully fragmented heap, every other minimal (header-only)
// object live.
func TestFullGCFragmentedHeapPacksTarget(t *testing.T) {
	d, h := newTestDriver(t, 65536, 4, 1)
	r := h.RegionAt(0)

	var roots_ []int
	const n = 200
	for i := 0; i < n; i++ {
		addr, err := h.Allocate(r, 0, 0)
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}
		if i%2 == 0 {
			roots_ = append(roots_, h.AddRoot(addr))
		}
	}

	d.SetRoots(roots.Slots{Kind: roots.Strong, Indices: roots_}, roots.Slots{}, roots.Slots{}, roots.Slots{})
	if err := d.FullGC(context.Background(), SystemGC); err != nil {
		t.Fatalf("FullGC: %v", err)
	}

	for _, idx := range roots_ {
		addr := h.Roots()[idx]
		if addr == 0 {
			t.Fatalf("a live root was cleared")
		}
		if got := heap.FwdGet(h.Arena, addr); got != addr {
			t.Fatalf("no-double-move violated for surviving object %d", addr)
		}
	}

	// The survivors are packed densely from the region's bottom: one
	// forwarding word plus a two-word header each.
	wantTop := r.Bottom + uintptr(n/2)*(heap.FwdHeaderSize+2*heap.WordSize)
	if r.Top != wantTop {
		t.Fatalf("region 0 Top = %d after compaction, want %d (densely packed survivors)", r.Top, wantTop)
	}
}

// scenario 4: unreachable humongous object spanning three regions.
func TestFullGCUnreachableHumongousObjectTrashed(t *testing.T) {
	d, h := newTestDriver(t, 4096, 6, 1)
	regions := h.Regions()[3:6]
	_, err := h.AllocateHumongous(regions, 0, 4096*3-256)
	if err != nil {
		t.Fatalf("AllocateHumongous: %v", err)
	}
	// No root ever points at it: it is unreachable from the start.
	d.SetRoots(roots.Slots{}, roots.Slots{}, roots.Slots{}, roots.Slots{})

	if err := d.FullGC(context.Background(), SystemGC); err != nil {
		t.Fatalf("FullGC: %v", err)
	}

	for _, r := range regions {
		if r.State != heap.StateEmptyCommitted {
			t.Fatalf("region %d state = %v after collecting an unreachable humongous object, want %v", r.ID, r.State, heap.StateEmptyCommitted)
		}
		if !h.IsInFreeSet(r.ID) {
			t.Fatalf("region %d not in free set after being recycled", r.ID)
		}
	}
}

// scenario 4b: a reachable humongous object survives and is never
// mistaken for move-allowed.
func TestFullGCReachableHumongousObjectSurvivesInPlace(t *testing.T) {
	d, h := newTestDriver(t, 4096, 6, 1)
	regions := h.Regions()[0:3]
	addr, err := h.AllocateHumongous(regions, 0, 4096*3-256)
	if err != nil {
		t.Fatalf("AllocateHumongous: %v", err)
	}
	rootIdx := h.AddRoot(addr)
	d.SetRoots(roots.Slots{Kind: roots.Strong, Indices: []int{rootIdx}}, roots.Slots{}, roots.Slots{}, roots.Slots{})

	if err := d.FullGC(context.Background(), SystemGC); err != nil {
		t.Fatalf("FullGC: %v", err)
	}

	if h.Roots()[rootIdx] != addr {
		t.Fatalf("reachable humongous object moved: address changed from %d to %d", addr, h.Roots()[rootIdx])
	}
	if regions[0].State != heap.StateHumongousStart {
		t.Fatalf("humongous_start region reclassified to %v after GC", regions[0].State)
	}
}

// scenario 5: a cancelled concurrent cycle left a mixed live/dead cset.
func TestFullGCCancelledConcurrentCycle(t *testing.T) {
	d, h := newTestDriver(t, 4096, 4, 2)
	r := h.RegionAt(1)
	live, err := h.Allocate(r, 0, 32)
	if err != nil {
		t.Fatalf("Allocate live: %v", err)
	}
	if _, err := h.Allocate(r, 0, 32); err != nil {
		t.Fatalf("Allocate dead: %v", err)
	}

	d.SimulateCancelledConcurrentCycle([]int{1})
	rootIdx := h.AddRoot(live)
	d.SetRoots(roots.Slots{Kind: roots.Strong, Indices: []int{rootIdx}}, roots.Slots{}, roots.Slots{}, roots.Slots{})

	if err := d.FullGC(context.Background(), SystemGC); err != nil {
		t.Fatalf("FullGC: %v", err)
	}

	if h.CollectionSetSize() != 0 {
		t.Fatalf("collection set not empty after GC: %v", h.CollectionSetIDs())
	}
	if h.Roots()[rootIdx] == 0 {
		t.Fatalf("live object in the cancelled cset did not survive")
	}
}

// scenario 6: worker count 1 vs N yields identical post-conditions.
func TestFullGCWorkerCountDoesNotChangePostConditions(t *testing.T) {
	build := func(workers int) (uintptr, int) {
		d, h := newTestDriver(t, 4096, 8, workers)
		r0, r1 := h.RegionAt(0), h.RegionAt(2)
		var rootIdxs []int
		for i := 0; i < 5; i++ {
			a, err := h.Allocate(r0, 0, 16)
			if err != nil {
				t.Fatalf("Allocate: %v", err)
			}
			rootIdxs = append(rootIdxs, h.AddRoot(a))
		}
		for i := 0; i < 5; i++ {
			if _, err := h.Allocate(r1, 0, 16); err != nil {
				t.Fatalf("Allocate: %v", err)
			}
		}
		d.SetRoots(roots.Slots{Kind: roots.Strong, Indices: rootIdxs}, roots.Slots{}, roots.Slots{}, roots.Slots{})
		if err := d.FullGC(context.Background(), SystemGC); err != nil {
			t.Fatalf("FullGC: %v", err)
		}
		return h.Used(), h.FreeSetSize()
	}

	usedOne, freeOne := build(1)
	usedMany, freeMany := build(6)

	if usedOne != usedMany {
		t.Fatalf("Used() differs by worker count: 1 worker=%d, 6 workers=%d", usedOne, usedMany)
	}
	if freeOne != freeMany {
		t.Fatalf("FreeSetSize() differs by worker count: 1 worker=%d, 6 workers=%d", freeOne, freeMany)
	}
}

// law 1: idempotence of two back-to-back cycles on an otherwise-idle heap.
func TestFullGCIdempotentOnIdleHeap(t *testing.T) {
	d, h := newTestDriver(t, 4096, 4, 2)
	addr, err := h.Allocate(h.RegionAt(0), 0, 16)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	rootIdx := h.AddRoot(addr)
	d.SetRoots(roots.Slots{Kind: roots.Strong, Indices: []int{rootIdx}}, roots.Slots{}, roots.Slots{}, roots.Slots{})

	if err := d.FullGC(context.Background(), SystemGC); err != nil {
		t.Fatalf("first FullGC: %v", err)
	}
	usedAfterFirst := h.Used()
	layoutAfterFirst := snapshotLayout(h)

	if err := d.FullGC(context.Background(), SystemGC); err != nil {
		t.Fatalf("second FullGC: %v", err)
	}
	if h.Used() != usedAfterFirst {
		t.Fatalf("Used() changed on second idle GC: %d -> %d", usedAfterFirst, h.Used())
	}
	if got := snapshotLayout(h); got != layoutAfterFirst {
		t.Fatalf("region layout changed on second idle GC: %q -> %q", layoutAfterFirst, got)
	}
}

func snapshotLayout(h *heap.Heap) string {
	s := ""
	for _, r := range h.Regions() {
		s += r.State.String() + ":"
	}
	return s
}

func TestFullGCRejectsNilHeap(t *testing.T) {
	d := New(nil, config.Default(), nil)
	if err := d.FullGC(context.Background(), SystemGC); err != ErrNilHeap {
		t.Fatalf("FullGC(nil heap) = %v, want ErrNilHeap", err)
	}
}

func TestFullGCRejectsReentrantCall(t *testing.T) {
	d, _ := newTestDriver(t, 4096, 2, 1)
	d.running = true
	if err := d.FullGC(context.Background(), SystemGC); err != ErrAlreadyRunning {
		t.Fatalf("FullGC while already running = %v, want ErrAlreadyRunning", err)
	}
}

// FwdHeaderSizeMinusHeader sizes a payload so a single object fills (almost)
// exactly one 4096-byte region with zero reference fields.
func FwdHeaderSizeMinusHeader() uintptr {
	return heap.FwdHeaderSize + 2*heap.WordSize
}
