// Command uheap-bench drives the uheap allocator through a mixed
// allocate/free workload and reports the resulting block-list
// statistics. It exists to exercise the allocator under something
// closer to real traffic than a unit test, the way a hand-run
// benchmark would.
package main

import (
	"fmt"
	"unsafe"

	"github.com/orizon-lang/uheap/malloc"
)

func main() {
	const rounds = 4096

	ptrs := make([]unsafe.Pointer, 0, rounds)

	for i := 0; i < rounds; i++ {
		size := uintptr(16 + (i%37)*8)

		var ptr unsafe.Pointer
		if i%5 == 0 {
			ptr = malloc.AllocateZeroed(uintptr(i%4+1), size)
		} else {
			ptr = malloc.Allocate(size)
		}

		ptrs = append(ptrs, ptr)

		if i%3 == 0 && len(ptrs) > 1 {
			victim := ptrs[len(ptrs)/2]
			malloc.Free(victim)
			ptrs[len(ptrs)/2] = nil
		}

		if i%7 == 0 && ptr != nil {
			ptrs[len(ptrs)-1] = malloc.Reallocate(ptr, size*2)
		}
	}

	for _, p := range ptrs {
		malloc.Free(p)
	}

	stats := malloc.Stats()
	fmt.Printf("allocations:     %d\n", stats.AllocationCount)
	fmt.Printf("frees:           %d\n", stats.FreeCount)
	fmt.Printf("heap blocks:     %d (free: %d)\n", stats.HeapBlocks, stats.FreeBlocks)
	fmt.Printf("mapped blocks:   %d\n", stats.MappedBlocks)
	fmt.Printf("bytes on heap:   %d\n", stats.BytesOnHeap)
	fmt.Printf("bytes mapped:    %d\n", stats.BytesMapped)
}
