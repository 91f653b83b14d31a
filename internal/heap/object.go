package heap

import "encoding/binary"

// WordSize is the machine word used throughout the heap model: the
// granularity of the bitmap, the size of the forwarding header, and the
// size of each reference slot.
const WordSize = 8

// FwdHeaderSize is the number of bytes reserved immediately before every
// object for its forwarding word (the "Brooks pointer" of the design
// notes). fwd_get/fwd_set index from the object's base by this constant
// negative offset.
const FwdHeaderSize = WordSize

// objHeaderSize is the size, in bytes, of the two housekeeping fields
// (TotalSize, NumRefs) that precede an object's reference table.
const objHeaderSize = 2 * WordSize

// FwdGet reads the forwarding word preceding the object at addr: the
// address at which the object will be, or has been, placed after
// compaction. Self-forwarding (target == addr) is the steady state for a
// live object outside of a full GC.
func FwdGet(a *Arena, addr uintptr) uintptr {
	b := a.Slice(addr-FwdHeaderSize, addr)
	return uintptr(binary.LittleEndian.Uint64(b))
}

// FwdSet overwrites the forwarding word preceding the object at addr.
func FwdSet(a *Arena, addr uintptr, target uintptr) {
	b := a.Slice(addr-FwdHeaderSize, addr)
	binary.LittleEndian.PutUint64(b, uint64(target))
}

// TotalSize returns the size, in bytes, of the object at addr: its header,
// reference table, and payload, excluding the forwarding word.
func TotalSize(a *Arena, addr uintptr) uintptr {
	return uintptr(binary.LittleEndian.Uint64(a.Slice(addr, addr+WordSize)))
}

// setTotalSize is used only by the allocator when laying out a new object.
func setTotalSize(a *Arena, addr uintptr, size uintptr) {
	binary.LittleEndian.PutUint64(a.Slice(addr, addr+WordSize), uint64(size))
}

// NumRefs returns the number of reference slots the object at addr carries.
func NumRefs(a *Arena, addr uintptr) int {
	return int(binary.LittleEndian.Uint64(a.Slice(addr+WordSize, addr+2*WordSize)))
}

func setNumRefs(a *Arena, addr uintptr, n int) {
	binary.LittleEndian.PutUint64(a.Slice(addr+WordSize, addr+2*WordSize), uint64(n))
}

// RefAt returns the i'th reference field's current value (zero means null).
func RefAt(a *Arena, addr uintptr, i int) uintptr {
	off := addr + objHeaderSize + uintptr(i)*WordSize
	return uintptr(binary.LittleEndian.Uint64(a.Slice(off, off+WordSize)))
}

// SetRefAt rewrites the i'th reference field.
func SetRefAt(a *Arena, addr uintptr, i int, target uintptr) {
	off := addr + objHeaderSize + uintptr(i)*WordSize
	binary.LittleEndian.PutUint64(a.Slice(off, off+WordSize), uint64(target))
}

// Footprint returns the total number of bytes the object at addr occupies
// including its forwarding header: fwd_header_size + object_size(p), the
// quantity the sliding planner uses to decide whether an object fits in the
// current target region.
func Footprint(a *Arena, addr uintptr) uintptr {
	return FwdHeaderSize + TotalSize(a, addr)
}

// PayloadRange returns the byte range of an object's content beyond its
// header and reference table, used by verification helpers that digest
// object content to confirm it survived compaction unchanged.
func PayloadRange(a *Arena, addr uintptr) (lo, hi uintptr) {
	lo = addr + objHeaderSize + uintptr(NumRefs(a, addr))*WordSize
	hi = addr + TotalSize(a, addr)
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
