// Package fullgc is the driver: the only component with control-flow
// logic, sequencing Prepare, Mark, Plan, Adjust, Compact and Post-Compact
// around the four-phase parallel sliding compactor described in §4.
package fullgc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/itstack-org/shenandoah-go/internal/barrier"
	"github.com/itstack-org/shenandoah-go/internal/config"
	"github.com/itstack-org/shenandoah-go/internal/gang"
	"github.com/itstack-org/shenandoah-go/internal/heap"
	"github.com/itstack-org/shenandoah-go/internal/mark"
	"github.com/itstack-org/shenandoah-go/internal/refproc"
	"github.com/itstack-org/shenandoah-go/internal/roots"
)

// Driver owns everything a full GC cycle needs: the heap it collects, the
// worker pool it schedules gang tasks on, and the three out-of-scope
// collaborators (marker, reference processor, root processor) it drives
// through their contracts.
type Driver struct {
	H       *heap.Heap
	Pool    *gang.Pool
	Marker  mark.Marker
	RefProc refproc.Processor
	Roots   roots.Processor
	Config  config.Config
	Log     *slog.Logger

	session Session
	running bool

	fullGCInProgress     bool
	fullGCMoveInProgress bool
	needUpdateRefs       bool

	// concurrentMarkingActive/evacuationActive simulate a concurrent cycle
	// that full GC preempted, so Prepare's "tolerate any prior GC state"
	// branch has something real to cancel. A fresh Driver starts with both
	// false, the common case of a full GC invoked with no concurrent cycle
	// in flight.
	concurrentMarkingActive bool
	evacuationActive        bool

	slices []*planSlice

	strongRoots, weakRoots, cldRoots, codeRoots roots.Slots

	stats Stats
}

// SetRoots installs the four root categories both the marker (Phase 1) and
// the root-adjust pass (Phase 3) walk. Tests and the demo call this once,
// after populating the heap's root slots with heap.AddRoot.
func (d *Driver) SetRoots(strong, weak, cld, code roots.Slots) {
	d.strongRoots, d.weakRoots, d.cldRoots, d.codeRoots = strong, weak, cld, code
	d.Marker.SetRoots(strong, weak, cld, code)
}

// New builds a driver over h with the given configuration. It wires up the
// default marker/reference-processor/root-processor implementations; tests
// that want to exercise a specific root layout call SetRoots (or replace
// d.Marker/d.Roots/d.RefProc outright, since they're plain interface
// fields).
func New(h *heap.Heap, cfg config.Config, log *slog.Logger) *Driver {
	if log == nil {
		log = slog.Default()
	}
	rp := roots.New()
	rfp := refproc.New()
	workers := 1
	if h != nil {
		workers = h.Workers()
	}
	d := &Driver{
		H:       h,
		Pool:    gang.New(workers),
		Marker:  mark.New(h, rp, rfp),
		RefProc: rfp,
		Roots:   rp,
		Config:  cfg,
		Log:     log,
	}
	return d
}

// SimulateCancelledConcurrentCycle marks the driver as having a concurrent
// marking/evacuation cycle in flight, with csetRegions already selected as
// a collection set, so the next FullGC call exercises Prepare's cancellation
// path (boundary scenario 5).
func (d *Driver) SimulateCancelledConcurrentCycle(csetRegions []int) {
	d.concurrentMarkingActive = true
	d.evacuationActive = true
	for _, id := range csetRegions {
		r := d.H.RegionAt(id)
		r.State = heap.StateCset
		d.H.AddToCollectionSet(id)
	}
}

// FullGC runs the full-GC cycle to completion for the given cause. It is
// non-cancellable: cancelling ctx does not stop the cycle, and the mark
// drain runs detached from ctx's cancellation, matching §4.1's "failure
// semantics: the driver is non-cancellable."
func (d *Driver) FullGC(ctx context.Context, cause Cause) (err error) {
	if d.H == nil {
		return ErrNilHeap
	}
	if d.running {
		return ErrAlreadyRunning
	}
	d.running = true
	defer func() { d.running = false }()

	defer func() {
		if r := recover(); r != nil {
			if f, ok := r.(*heap.Fatal); ok {
				d.Log.Error("full gc: fatal invariant violation", "cause", cause.String(), "error", f.Error())
				panic(f)
			}
			panic(r)
		}
	}()

	start := time.Now()
	d.session.Begin(d.Log, cause)
	d.Log.Info("full gc start", "cause", cause.String())

	if d.Config.EnableVerification {
		if err := heap.VerifyBounds(d.H); err != nil {
			return fmt.Errorf("fullgc: pre-verification failed: %w", err)
		}
	}

	d.fullGCInProgress = true
	d.stats = Stats{Cause: cause, UsedBefore: d.sumUsed(), RegionsTotal: d.H.NumRegions()}

	d.preDump()

	d.prepare(ctx)

	saved := barrier.Swap(barrier.Noop)
	d.H.FlushAllocBuffers()
	d.codeCachePrologue()
	d.needUpdateRefs = true

	t1 := time.Now()
	d.runMark(ctx)
	d.stats.Phase1 = time.Since(t1)

	d.fullGCMoveInProgress = true
	d.slices = make([]*planSlice, d.Pool.Size())
	for i := range d.slices {
		d.slices[i] = newPlanSlice()
	}

	t2 := time.Now()
	d.runPlan(ctx)
	d.stats.Phase2 = time.Since(t2)

	t3 := time.Now()
	d.runAdjust(ctx)
	d.stats.Phase3 = time.Since(t3)

	t4 := time.Now()
	d.runCompact(ctx)
	d.stats.Phase4 = time.Since(t4)

	d.codeCacheEpilogue()

	d.needUpdateRefs = false
	d.fullGCInProgress = false
	d.fullGCMoveInProgress = false

	if d.Config.EnableVerification {
		if err := heap.Verify(d.H); err != nil {
			return fmt.Errorf("fullgc: post-verification failed: %w", err)
		}
	}

	d.stats.UsedAfter = d.H.Used()
	d.stats.Total = time.Since(start)
	d.Log.Info("full gc end", "summary", d.stats.Summary())
	d.postDump()
	d.H.ResizeAllocBuffers()

	barrier.Swap(saved)
	d.session.End()
	return nil
}

// Stats returns the most recently completed cycle's timing and occupancy
// report.
func (d *Driver) Stats() Stats { return d.stats }

func (d *Driver) sumUsed() uintptr {
	var total uintptr
	for _, r := range d.H.Regions() {
		total += r.Used()
	}
	return total
}

// preDump/postDump/codeCachePrologue/codeCacheEpilogue stand in for the
// heap-dump and code-cache collaborators §1 places out of scope. They are
// kept as explicit, named no-ops so the driver's step sequence matches
// §4.1 one-for-one rather than silently collapsing steps.
func (d *Driver) preDump()           {}
func (d *Driver) postDump()          {}
func (d *Driver) codeCachePrologue() {}
func (d *Driver) codeCacheEpilogue() {}
