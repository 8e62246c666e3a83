// Package malloc is the public entry point to the allocator: thin,
// allocation-shaped wrappers around a single process-wide heap.Heap,
// in the spirit of the C standard library functions this module
// reimplements in Go. Callers needing an isolated heap instead of the
// shared default should construct one with New and call its methods
// directly.
package malloc

import (
	"unsafe"

	"github.com/orizon-lang/uheap/internal/heap"
)

// New constructs an independent allocator instance, separate from the
// package-wide default.
func New(opts ...heap.Option) *heap.Heap {
	return heap.New(opts...)
}

// Allocate returns a pointer to at least size bytes of uninitialized
// memory from the default heap, or nil if size is zero.
func Allocate(size uintptr) unsafe.Pointer {
	return heap.Default().Allocate(size)
}

// AllocateZeroed returns a pointer to n*size zeroed bytes from the
// default heap, or nil if n or size is zero.
func AllocateZeroed(n, size uintptr) unsafe.Pointer {
	return heap.Default().AllocateZeroed(n, size)
}

// Free releases a pointer previously returned by Allocate,
// AllocateZeroed, or Reallocate on the default heap.
func Free(ptr unsafe.Pointer) {
	heap.Default().Free(ptr)
}

// Reallocate resizes the allocation at ptr to size bytes on the
// default heap.
func Reallocate(ptr unsafe.Pointer, size uintptr) unsafe.Pointer {
	return heap.Default().Reallocate(ptr, size)
}

// Stats reports the default heap's bookkeeping counters.
func Stats() heap.Stats {
	return heap.Default().Stats()
}
