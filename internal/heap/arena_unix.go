//go:build unix

package heap

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// NewArena reserves size bytes of anonymous, zero-filled memory via mmap,
// matching how a real region-based heap reserves its address range outside
// the runtime allocator rather than through ordinary slice growth.
func NewArena(size uintptr) (*Arena, error) {
	if size == 0 {
		return nil, fmt.Errorf("heap: arena size must be > 0")
	}
	b, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("heap: mmap arena of %d bytes: %w", size, err)
	}
	return &Arena{
		bytes: b,
		close: func() error { return unix.Munmap(b) },
	}, nil
}
