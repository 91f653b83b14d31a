package mark

import (
	"context"
	"testing"

	"github.com/itstack-org/shenandoah-go/internal/heap"
	"github.com/itstack-org/shenandoah-go/internal/refproc"
	"github.com/itstack-org/shenandoah-go/internal/roots"
)

func newTestHeap(t *testing.T) *heap.Heap {
	t.Helper()
	h, err := heap.NewHeap(4096, 4, 1)
	if err != nil {
		t.Fatalf("NewHeap: %v", err)
	}
	return h
}

func TestFinishMarkFromRootsReachesWholeChain(t *testing.T) {
	h := newTestHeap(t)
	r := h.RegionAt(0)

	tail, err := h.Allocate(r, 0, 8)
	if err != nil {
		t.Fatalf("Allocate tail: %v", err)
	}
	mid, err := h.Allocate(r, 1, 8)
	if err != nil {
		t.Fatalf("Allocate mid: %v", err)
	}
	heap.SetRefAt(h.Arena, mid, 0, tail)
	head, err := h.Allocate(r, 1, 8)
	if err != nil {
		t.Fatalf("Allocate head: %v", err)
	}
	heap.SetRefAt(h.Arena, head, 0, mid)

	// An allocated-but-unreferenced object: must stay unmarked.
	dead, err := h.Allocate(r, 0, 8)
	if err != nil {
		t.Fatalf("Allocate dead: %v", err)
	}

	rootIdx := h.AddRoot(head)

	m := New(h, roots.New(), refproc.New())
	m.SetRoots(roots.Slots{Kind: roots.Strong, Indices: []int{rootIdx}}, roots.Slots{}, roots.Slots{}, roots.Slots{})
	m.MarkRoots("test")
	if err := m.FinishMarkFromRoots(context.Background(), true); err != nil {
		t.Fatalf("FinishMarkFromRoots: %v", err)
	}

	for _, addr := range []uintptr{head, mid, tail} {
		if !h.NextBitmap().IsMarked(addr) {
			t.Fatalf("address %d reachable from root but not marked", addr)
		}
	}
	if h.NextBitmap().IsMarked(dead) {
		t.Fatalf("unreachable object got marked")
	}
}

func TestFinishMarkFromRootsHonorsCancellation(t *testing.T) {
	h := newTestHeap(t)
	r := h.RegionAt(0)
	addr, err := h.Allocate(r, 0, 8)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	rootIdx := h.AddRoot(addr)

	m := New(h, roots.New(), refproc.New())
	m.SetRoots(roots.Slots{Kind: roots.Strong, Indices: []int{rootIdx}}, roots.Slots{}, roots.Slots{}, roots.Slots{})
	m.MarkRoots("test")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.FinishMarkFromRoots(ctx, true); err == nil {
		t.Fatalf("FinishMarkFromRoots did not observe a cancelled context")
	}
}

func TestMarkRootsSkipsNullSlots(t *testing.T) {
	h := newTestHeap(t)
	rootIdx := h.AddRoot(0)

	m := New(h, roots.New(), refproc.New())
	m.SetRoots(roots.Slots{Kind: roots.Strong, Indices: []int{rootIdx}}, roots.Slots{}, roots.Slots{}, roots.Slots{})
	m.MarkRoots("test")
	if err := m.FinishMarkFromRoots(context.Background(), true); err != nil {
		t.Fatalf("FinishMarkFromRoots: %v", err)
	}
	if !h.NextBitmap().IsClear() {
		t.Fatalf("marking a null root marked something")
	}
}
