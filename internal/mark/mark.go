// Package mark implements the concurrent marker, reused in STW mode as the
// full GC's Phase 1. The design notes this as an external collaborator:
// the driver only needs cancel/update-roots/mark-roots/drain plus a couple
// of tuning setters. This package's Marker is the one concrete
// implementation, driving real reachability marking over the heap's
// reference graph into the "next" bitmap.
package mark

import (
	"context"
	"fmt"

	"github.com/itstack-org/shenandoah-go/internal/heap"
	"github.com/itstack-org/shenandoah-go/internal/refproc"
	"github.com/itstack-org/shenandoah-go/internal/roots"
)

// Marker is the contract §6 lists for the concurrent marker collaborator.
type Marker interface {
	Cancel()
	SetRoots(strong, weak, cld, code roots.Slots)
	UpdateRoots(phaseTag string)
	MarkRoots(phaseTag string)
	FinishMarkFromRoots(ctx context.Context, fullGC bool) error
	SetProcessReferences(enabled bool)
	SetUnloadClasses(enabled bool)
}

// BitmapMarker marks live objects into h.NextBitmap() by walking the
// reference graph from a fixed root set, starting wherever MarkRoots seeded
// the work stack.
type BitmapMarker struct {
	h          *heap.Heap
	rootsProc  roots.Processor
	refProc    refproc.Processor
	strong, weak, cld, code roots.Slots

	processReferences bool
	unloadClasses     bool
	cancelled         bool

	stack []uintptr
}

// New returns a marker over h, using rp to shard root slots and refp as the
// reference-processor collaborator whose discovery state Phase 1 drives.
func New(h *heap.Heap, rp roots.Processor, refp refproc.Processor) *BitmapMarker {
	return &BitmapMarker{h: h, rootsProc: rp, refProc: refp}
}

// SetRoots installs the four root categories the next MarkRoots call seeds
// the mark stack from.
func (m *BitmapMarker) SetRoots(strong, weak, cld, code roots.Slots) {
	m.strong, m.weak, m.cld, m.code = strong, weak, cld, code
}

func (m *BitmapMarker) Cancel()                          { m.cancelled = true }
func (m *BitmapMarker) Cancelled() bool                  { return m.cancelled }
func (m *BitmapMarker) SetProcessReferences(enabled bool) { m.processReferences = enabled }
func (m *BitmapMarker) SetUnloadClasses(enabled bool)     { m.unloadClasses = enabled }

// UpdateRoots is where a real marker would re-walk mutator stacks to
// refresh its notion of the root set before scanning it; this module's
// roots are a fixed slice the heap owns, so there is nothing to refresh.
// Kept as an explicit call so the driver's sequencing matches §4.2 exactly.
func (m *BitmapMarker) UpdateRoots(phaseTag string) {}

// MarkRoots seeds the mark stack from every non-null root slot. The root
// processor shards slots by worker id; a real concurrent marker would hand
// each shard to its own gang worker, but root marking only ever feeds a
// sequential stack here, so this walks every shard in turn on the calling
// goroutine rather than spinning up a gang task just to funnel pushes back
// through a lock.
func (m *BitmapMarker) MarkRoots(phaseTag string) {
	numWorkers := maxInt(m.h.Workers(), 1)
	for w := 0; w < numWorkers; w++ {
		m.rootsProc.ProcessAll(m.strong, m.weak, m.cld, m.code, w, numWorkers, func(slotIndex int) {
			m.push(m.h.Roots()[slotIndex])
		})
	}
}

func (m *BitmapMarker) push(addr uintptr) {
	if addr == 0 {
		return
	}
	if m.h.NextBitmap().Mark(addr) {
		return // already claimed by a prior push
	}
	m.stack = append(m.stack, addr)
	m.h.RegionForAddr(addr).LiveDataBytes += uint64(heap.Footprint(m.h.Arena, addr))
}

// FinishMarkFromRoots drains the mark stack to completion: every object
// reachable from a seeded root gets its bit set in the next bitmap, and
// every one of its non-null reference fields gets pushed in turn.
// fullGC is accepted for interface parity with the concurrent entry point;
// a full GC always marks to completion regardless of its value.
func (m *BitmapMarker) FinishMarkFromRoots(ctx context.Context, fullGC bool) error {
	for len(m.stack) > 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("mark: drain interrupted: %w", err)
		}
		addr := m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]

		n := heap.NumRefs(m.h.Arena, addr)
		for i := 0; i < n; i++ {
			ref := heap.RefAt(m.h.Arena, addr, i)
			m.push(ref)
		}
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
