package heap

// Arena is the contiguous backing store for the whole heap's address range.
// On unix targets it is mmap-backed anonymous memory (see arena_unix.go),
// the same way a real region-based collector reserves its heap outside of
// the host language's own allocator; elsewhere it falls back to a plain
// byte slice (see arena_other.go).
type Arena struct {
	bytes []byte
	close func() error
}

// Size returns the arena's total length in bytes.
func (a *Arena) Size() uintptr { return uintptr(len(a.bytes)) }

// Bytes exposes the raw backing storage. Callers index it with addresses
// returned by the heap (which are byte offsets from the arena's base, not
// real process addresses).
func (a *Arena) Bytes() []byte { return a.bytes }

// Close releases the arena's backing storage.
func (a *Arena) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

// Slice returns a[lo:hi), bounds-checked the way heap code expects: a
// zero-length result for lo==hi, never a panic for addresses the heap
// itself produced.
func (a *Arena) Slice(lo, hi uintptr) []byte { return a.bytes[lo:hi] }
