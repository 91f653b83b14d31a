// Package shenandoah is the public entry point over the internal full-GC
// driver, the way std's runtime.GC() is a thin wrapper over internal
// collector machinery. Build a Heap, optionally wire roots with SetRoots,
// then call FullGC.
package shenandoah

import (
	"context"
	"log/slog"

	"github.com/itstack-org/shenandoah-go/internal/config"
	"github.com/itstack-org/shenandoah-go/internal/fullgc"
	"github.com/itstack-org/shenandoah-go/internal/heap"
	"github.com/itstack-org/shenandoah-go/internal/roots"
)

// Re-exported types so callers never need to import internal/... directly.
type (
	Heap   = heap.Heap
	Region = heap.Region
	Config = config.Config
	Cause  = fullgc.Cause
	Stats  = fullgc.Stats
)

const (
	AllocationFailure = fullgc.AllocationFailure
	SystemGC          = fullgc.SystemGC
	MetadataGC        = fullgc.MetadataGC
	LastDitch         = fullgc.LastDitch
	HeapDump          = fullgc.HeapDump
)

// NewHeap reserves a region-based heap of numRegions*regionSize bytes.
func NewHeap(regionSize uint64, numRegions, workers int) (*Heap, error) {
	return heap.NewHeap(uintptr(regionSize), numRegions, workers)
}

// DefaultConfig returns the tuning knobs a full GC runs with absent an
// explicit config file.
func DefaultConfig() Config { return config.Default() }

// LoadConfig reads tuning knobs from a YAML file at path.
func LoadConfig(path string) (Config, error) { return config.Load(path) }

// Collector drives repeated full-GC cycles over a single heap, matching
// the lifetime of a real collector's driver: build once, call FullGC as
// many times as the caller needs.
type Collector struct {
	driver *fullgc.Driver
}

// New builds a collector over h with the given configuration and logger. A
// nil logger falls back to slog.Default().
func New(h *Heap, cfg Config, log *slog.Logger) *Collector {
	return &Collector{driver: fullgc.New(h, cfg, log)}
}

// SetRoots installs the heap's strong/weak/class-loader-data/code root
// slots, by index into h.Roots(). Every FullGC call walks these.
func (c *Collector) SetRoots(strong, weak, classLoaderData, code []int) {
	c.driver.SetRoots(
		roots.Slots{Kind: roots.Strong, Indices: strong},
		roots.Slots{Kind: roots.Weak, Indices: weak},
		roots.Slots{Kind: roots.ClassLoaderData, Indices: classLoaderData},
		roots.Slots{Kind: roots.Code, Indices: code},
	)
}

// SimulateCancelledConcurrentCycle is a test/demo hook: it marks the
// collector as having a concurrent marking and evacuation cycle in flight
// with csetRegions already selected, so the next FullGC call exercises the
// "full GC preempted a concurrent cycle" path.
func (c *Collector) SimulateCancelledConcurrentCycle(csetRegions []int) {
	c.driver.SimulateCancelledConcurrentCycle(csetRegions)
}

// FullGC runs one full, stop-the-world, sliding mark-compact cycle for the
// given cause. It returns an error for caller mistakes (nil heap,
// re-entrant call) and, when Config.EnableVerification is set, for a heap
// that fails the pre-GC bounds check or the post-GC verification; invariant
// violations discovered mid-cycle panic with *heap.Fatal rather than
// returning an error, per the fatal-assertion contract.
func (c *Collector) FullGC(ctx context.Context, cause Cause) error {
	return c.driver.FullGC(ctx, cause)
}

// Stats returns the most recently completed cycle's timing and occupancy
// report.
func (c *Collector) Stats() Stats { return c.driver.Stats() }
