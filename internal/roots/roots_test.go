package roots

import (
	"sort"
	"testing"
)

func TestDefaultProcessAllShardsAcrossWorkers(t *testing.T) {
	strong := Slots{Kind: Strong, Indices: []int{0, 1, 2, 3, 4, 5, 6, 7}}
	weak := Slots{Kind: Weak, Indices: []int{10, 11}}

	const numWorkers = 3
	p := New()

	seen := make(map[int][]int)
	for w := 0; w < numWorkers; w++ {
		w := w
		p.ProcessAll(strong, weak, Slots{}, Slots{}, w, numWorkers, func(slotIndex int) {
			seen[w] = append(seen[w], slotIndex)
		})
	}

	var all []int
	for _, v := range seen {
		all = append(all, v...)
	}
	sort.Ints(all)

	want := append(append([]int{}, strong.Indices...), weak.Indices...)
	sort.Ints(want)

	if len(all) != len(want) {
		t.Fatalf("ProcessAll visited %d slots total across workers, want %d", len(all), len(want))
	}
	for i := range want {
		if all[i] != want[i] {
			t.Fatalf("ProcessAll did not partition every slot exactly once: got %v, want %v", all, want)
		}
	}
}

func TestDefaultProcessAllSkipsEmptySlots(t *testing.T) {
	called := false
	New().ProcessAll(Slots{}, Slots{}, Slots{}, Slots{}, 0, 1, func(int) { called = true })
	if called {
		t.Fatalf("ProcessAll invoked fn with no root slots configured")
	}
}
