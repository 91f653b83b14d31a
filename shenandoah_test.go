package shenandoah

import (
	"context"
	"testing"

	"github.com/itstack-org/shenandoah-go/internal/heap"
)

func TestCollectorFullGCSurvivesRootedChain(t *testing.T) {
	h, err := NewHeap(4096, 6, 2)
	if err != nil {
		t.Fatalf("NewHeap: %v", err)
	}

	const chainLen = 10
	var head uintptr
	var prev uintptr
	for i := 0; i < chainLen; i++ {
		addr, err := h.Allocate(h.RegionAt(i%2), 1, 16)
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}
		if prev != 0 {
			heap.SetRefAt(h.Arena, prev, 0, addr)
		} else {
			head = addr
		}
		prev = addr
	}
	rootIdx := h.AddRoot(head)

	c := New(h, DefaultConfig(), nil)
	c.SetRoots([]int{rootIdx}, nil, nil, nil)

	if err := c.FullGC(context.Background(), SystemGC); err != nil {
		t.Fatalf("FullGC: %v", err)
	}

	newHead := h.Roots()[rootIdx]
	if newHead == 0 {
		t.Fatalf("rooted chain did not survive a full GC")
	}

	// Walk the chain via its own (non-root) reference fields, the links
	// Phase 3's adjustRegion is responsible for rewriting to each
	// referent's post-compaction address. Every live object is
	// self-forwarded after Phase 4 (law 3: fwd_get(o) == address_of(o)),
	// so if adjustRegion left any link pointing at a stale pre-compaction
	// address, FwdGet at that address would not equal the address itself.
	addr := newHead
	links := 1
	for {
		if got := heap.FwdGet(h.Arena, addr); got != addr {
			t.Fatalf("chain node %d at %d is not self-forwarded after full GC: fwd_get = %d", links, addr, got)
		}
		if heap.NumRefs(h.Arena, addr) != 1 {
			t.Fatalf("chain node %d at %d has %d ref slots, want 1", links, addr, heap.NumRefs(h.Arena, addr))
		}
		next := heap.RefAt(h.Arena, addr, 0)
		if next == 0 {
			break
		}
		addr = next
		links++
		if links > chainLen {
			t.Fatalf("chain has more than %d live links after full GC, possible cycle or corruption", chainLen)
		}
	}
	if links != chainLen {
		t.Fatalf("chain has %d live links after full GC, want %d: Phase 3 dropped or mis-rewrote an interior reference", links, chainLen)
	}

	stats := c.Stats()
	if stats.Cause != SystemGC {
		t.Fatalf("Stats().Cause = %v, want %v", stats.Cause, SystemGC)
	}
}

func TestCollectorSimulatedCancelledConcurrentCycle(t *testing.T) {
	h, err := NewHeap(4096, 4, 1)
	if err != nil {
		t.Fatalf("NewHeap: %v", err)
	}
	c := New(h, DefaultConfig(), nil)
	c.SimulateCancelledConcurrentCycle([]int{1})
	c.SetRoots(nil, nil, nil, nil)

	if err := c.FullGC(context.Background(), LastDitch); err != nil {
		t.Fatalf("FullGC: %v", err)
	}
}
