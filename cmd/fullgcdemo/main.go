// Command fullgcdemo builds a small synthetic heap with a mix of reachable
// and dead objects, a humongous object, and a fragmented
// allocation pattern, then runs one full GC cycle and reports the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-colorable"

	"github.com/itstack-org/shenandoah-go"
	"github.com/itstack-org/shenandoah-go/internal/heap"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults to built-in defaults)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(colorable.NewColorableStdout(), nil))

	cfg := shenandoah.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = shenandoah.LoadConfig(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	h, err := shenandoah.NewHeap(cfg.RegionSizeBytes, cfg.NumRegions, workers)
	if err != nil {
		log.Error("failed to build heap", "error", err)
		os.Exit(1)
	}

	strongRoots := buildSyntheticHeap(h)

	c := shenandoah.New(h, cfg, log)
	c.SetRoots(strongRoots, nil, nil, nil)

	if err := c.FullGC(context.Background(), shenandoah.LastDitch); err != nil {
		log.Error("full gc failed", "error", err)
		os.Exit(1)
	}

	fmt.Println(c.Stats().Summary())
}

// buildSyntheticHeap populates h with a linked list (kept alive from a
// root), a set of unlinked unreachable objects, a humongous object, and enough fragmentation
// that compaction actually has slack to slide. It returns the root slot
// indices for the objects that must survive.
func buildSyntheticHeap(h *shenandoah.Heap) []int {
	regions := h.Regions()

	const chainLen = 50
	var head uintptr
	var prev uintptr
	for i := 0; i < chainLen; i++ {
		r := regions[i%len(regions)]
		addr, err := h.Allocate(r, 1, 64)
		if err != nil {
			continue
		}
		if prev != 0 {
			heap.SetRefAt(h.Arena, prev, 0, addr)
		} else {
			head = addr
		}
		prev = addr
	}

	for i := 0; i < chainLen; i++ {
		r := regions[(i+len(regions)/2)%len(regions)]
		_, _ = h.Allocate(r, 0, 32) // unreachable: no root ever points at these
	}

	if len(regions) >= 2 {
		_, _ = h.AllocateHumongous(regions[len(regions)-2:], 0, h.RegionSize*2-256)
	}

	rootIdx := h.AddRoot(head)
	return []int{rootIdx}
}
