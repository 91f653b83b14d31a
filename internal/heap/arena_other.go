//go:build !unix

package heap

import "fmt"

// NewArena allocates size bytes of ordinary Go memory. Non-unix targets
// have no anonymous mmap to reach for, so the arena is just a slice; the
// region/bitmap/forwarding model above it is identical either way.
func NewArena(size uintptr) (*Arena, error) {
	if size == 0 {
		return nil, fmt.Errorf("heap: arena size must be > 0")
	}
	return &Arena{bytes: make([]byte, size)}, nil
}
