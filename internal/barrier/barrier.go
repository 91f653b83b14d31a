// Package barrier models the process-wide barrier set as a single mutable
// slot holding the active strategy, the way the design notes describe:
// other subsystems dispatch read barriers through whatever is
// currently installed, and the full-GC driver swaps in a no-op set for the
// duration of compaction because the forwarding header transiently points
// at a future location during Phase 2/3.
package barrier

import (
	"sync/atomic"

	"github.com/itstack-org/shenandoah-go/internal/heap"
)

// Set is a barrier strategy: how a reference is resolved when read. Write
// barriers are not modeled.
type Set interface {
	Name() string
	ReadBarrier(a *heap.Arena, addr uintptr) uintptr
}

// forwarding is the normal, outside-of-full-GC barrier set: resolving a
// reference means following its forwarding word, which is a self-pointer
// for any object not currently being relocated.
type forwarding struct{}

func (forwarding) Name() string { return "forwarding" }
func (forwarding) ReadBarrier(a *heap.Arena, addr uintptr) uintptr {
	if addr == 0 {
		return 0
	}
	return heap.FwdGet(a, addr)
}

// noop is installed for the duration of a full GC: the forwarding word is
// being rewritten explicitly by the compactor's own phases, so a barrier
// that tried to resolve it mid-flight would read a target that isn't valid
// yet. The identity read barrier sidesteps that entirely.
type noop struct{}

func (noop) Name() string { return "noop" }
func (noop) ReadBarrier(_ *heap.Arena, addr uintptr) uintptr { return addr }

// Forwarding is the default, concurrent-collector barrier set.
var Forwarding Set = forwarding{}

// Noop is the barrier set the full-GC driver installs for its duration.
var Noop Set = noop{}

// box gives atomic.Value a single concrete type to store, since Set
// implementations (forwarding, noop) are distinct concrete types and
// atomic.Value panics if consecutive Store calls disagree on that.
type box struct{ s Set }

var active atomic.Value // holds box

func init() { active.Store(box{Forwarding}) }

// Current returns the currently installed barrier set.
func Current() Set { return active.Load().(box).s }

// Swap installs next and returns whatever was previously installed, so the
// caller can restore it later. This is the only mutator of the process-wide
// slot; it is safe to call concurrently but full GC only ever calls it from
// the single VM-thread-equivalent driving the collection.
func Swap(next Set) Set {
	old := active.Load().(box).s
	active.Store(box{next})
	return old
}
