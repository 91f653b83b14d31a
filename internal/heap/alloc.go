package heap

import "fmt"

// Allocate bump-allocates a new object in region r: a payloadSize-byte
// object with numRefs null reference slots, self-forwarded (the steady
// state for a live object outside of GC). It is used to populate a heap
// before a full GC runs, or by the demo CLI to build a synthetic heap; the
// collector itself never allocates.
func (h *Heap) Allocate(r *Region, numRefs int, payloadSize uintptr) (uintptr, error) {
	total := objHeaderSize + uintptr(numRefs)*WordSize + payloadSize
	need := FwdHeaderSize + total
	if r.Top+need > r.End {
		return 0, fmt.Errorf("heap: region %d has no room for a %d-byte object", r.ID, total)
	}

	fwdSlot := r.Top
	addr := fwdSlot + FwdHeaderSize

	setTotalSize(h.Arena, addr, total)
	setNumRefs(h.Arena, addr, numRefs)
	for i := 0; i < numRefs; i++ {
		SetRefAt(h.Arena, addr, i, 0)
	}
	FwdSet(h.Arena, addr, addr)

	r.Top += need
	r.NewTop = r.Top
	r.Stats.Allocations++
	r.Stats.BytesAlloc += uint64(need)

	if r.State == StateEmptyCommitted || r.State == StateEmptyUncommitted {
		r.State = StateRegular
	}
	return addr, nil
}

// AllocateHumongous lays out a humongous object starting at region
// start.Bottom and spanning as many following regions as its size
// requires. The caller must supply start and its contiguous successors via
// regions (in address order, starting at start); it marks start as
// humongous_start and every other supplied region as
// humongous_continuation, including any region the object does not reach
// (such a region is left with Top == Bottom).
func (h *Heap) AllocateHumongous(regions []*Region, numRefs int, payloadSize uintptr) (uintptr, error) {
	if len(regions) == 0 {
		return 0, fmt.Errorf("heap: AllocateHumongous needs at least one region")
	}
	start := regions[0]
	total := objHeaderSize + uintptr(numRefs)*WordSize + payloadSize
	need := FwdHeaderSize + total
	capacity := uintptr(0)
	for _, r := range regions {
		capacity += r.Capacity()
	}
	if need > capacity {
		return 0, fmt.Errorf("heap: humongous object of %d bytes does not fit in %d supplied regions", need, len(regions))
	}

	fwdSlot := start.Bottom
	addr := fwdSlot + FwdHeaderSize

	setTotalSize(h.Arena, addr, total)
	setNumRefs(h.Arena, addr, numRefs)
	for i := 0; i < numRefs; i++ {
		SetRefAt(h.Arena, addr, i, 0)
	}
	FwdSet(h.Arena, addr, addr)

	start.State = StateHumongousStart
	start.Top = start.End
	start.NewTop = start.End
	remaining := need - start.Capacity()
	for _, r := range regions[1:] {
		r.State = StateHumongousContinuation
		r.HumongousOf = start.ID
		if remaining >= r.Capacity() {
			r.Top = r.End
			remaining -= r.Capacity()
		} else {
			r.Top = r.Bottom + remaining
			remaining = 0
		}
		r.NewTop = r.Top
	}
	return addr, nil
}
