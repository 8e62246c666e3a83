package heap

import (
	"testing"
	"unsafe"
)

func TestHeapAllocate(t *testing.T) {
	h := New()

	t.Run("FreshAllocate", func(t *testing.T) {
		ptrs := make([]unsafe.Pointer, 100)
		for i := range ptrs {
			ptrs[i] = h.Allocate(64)
			if ptrs[i] == nil {
				t.Fatalf("allocation %d failed", i)
			}
		}

		for i, ptr := range ptrs {
			data := unsafe.Slice((*byte)(ptr), 64)
			for j := range data {
				data[j] = byte(i)
			}
		}

		for i, ptr := range ptrs {
			data := unsafe.Slice((*byte)(ptr), 64)
			for j, v := range data {
				if v != byte(i) {
					t.Fatalf("corruption in block %d at byte %d", i, j)
				}
			}
		}

		if err := h.Validate(); err != nil {
			t.Fatalf("invariant violation: %v", err)
		}

		for _, ptr := range ptrs {
			h.Free(ptr)
		}

		if err := h.Validate(); err != nil {
			t.Fatalf("invariant violation after freeing: %v", err)
		}
	})

	t.Run("ZeroSizeReturnsNil", func(t *testing.T) {
		if ptr := h.Allocate(0); ptr != nil {
			t.Error("Allocate(0) should return nil")
		}
	})
}

func TestHeapFreeCoalescesToSingleBlock(t *testing.T) {
	h := New()

	a := h.Allocate(128)
	b := h.Allocate(128)
	c := h.Allocate(128)

	h.Free(a)
	h.Free(b)
	h.Free(c)

	if err := h.Validate(); err != nil {
		t.Fatalf("invariant violation: %v", err)
	}

	stats := h.Stats()
	if stats.HeapBlocks != 1 {
		t.Fatalf("want a single coalesced heap block, got %d (free=%d)", stats.HeapBlocks, stats.FreeBlocks)
	}
}

func TestHeapLargeAllocationIsMapped(t *testing.T) {
	h := New()

	size := h.config.AllocateThreshold

	ptr := h.Allocate(size)
	if ptr == nil {
		t.Fatal("large allocation failed")
	}

	stats := h.Stats()
	if stats.MappedBlocks != 1 {
		t.Fatalf("want 1 mapped block, got %d", stats.MappedBlocks)
	}

	data := unsafe.Slice((*byte)(ptr), int(size))
	for i := range data {
		data[i] = 0x5a
	}

	for _, v := range data {
		if v != 0x5a {
			t.Fatal("data corruption in mapped block")
		}
	}

	h.Free(ptr)

	stats = h.Stats()
	if stats.MappedBlocks != 0 {
		t.Fatalf("want mapped block released, got %d remaining", stats.MappedBlocks)
	}
}

func TestHeapAllocateZeroedZeroesPayload(t *testing.T) {
	h := New()

	ptr := h.AllocateZeroed(16, 32)
	if ptr == nil {
		t.Fatal("calloc failed")
	}

	data := unsafe.Slice((*byte)(ptr), 16*32)
	for i := range data {
		data[i] = 0xff
	}

	h.Free(ptr)

	ptr2 := h.AllocateZeroed(16, 32)
	data2 := unsafe.Slice((*byte)(ptr2), 16*32)

	for i, v := range data2 {
		if v != 0 {
			t.Fatalf("byte %d not zeroed: %#x", i, v)
		}
	}
}

func TestMulOverflow(t *testing.T) {
	if _, overflow := mulOverflow(0, 5); overflow {
		t.Error("0*n should never overflow")
	}

	if product, overflow := mulOverflow(4, 8); overflow || product != 32 {
		t.Errorf("4*8: got (%d, %v), want (32, false)", product, overflow)
	}

	if _, overflow := mulOverflow(^uintptr(0), 2); !overflow {
		t.Error("max*2 should overflow")
	}
}

func TestHeapReallocateShrinkPreservesIdentity(t *testing.T) {
	h := New()

	ptr := h.Allocate(256)
	data := unsafe.Slice((*byte)(ptr), 256)
	for i := range data {
		data[i] = byte(i)
	}

	shrunk := h.Reallocate(ptr, 64)
	if shrunk == nil {
		t.Fatal("shrink realloc failed")
	}

	if shrunk != ptr {
		t.Fatalf("in-place shrink should preserve address: got %p want %p", shrunk, ptr)
	}

	small := unsafe.Slice((*byte)(shrunk), 64)
	for i, v := range small {
		if v != byte(i) {
			t.Fatalf("byte %d corrupted after shrink: want %d got %d", i, byte(i), v)
		}
	}

	if err := h.Validate(); err != nil {
		t.Fatalf("invariant violation: %v", err)
	}

	h.Free(shrunk)
}

func TestHeapReallocateGrowTailRefits(t *testing.T) {
	// A preallocation with room for exactly one 64-byte payload makes the
	// first allocation the unsplit tail block.
	h := New(WithPreallocSize(descriptorStride + 64))

	ptr := h.Allocate(64)

	data := unsafe.Slice((*byte)(ptr), 64)
	for i := range data {
		data[i] = byte(i)
	}

	grown := h.Reallocate(ptr, 512)
	if grown == nil {
		t.Fatal("grow realloc failed")
	}

	if grown != ptr {
		t.Fatalf("tail refit should preserve address: got %p want %p", grown, ptr)
	}

	big := unsafe.Slice((*byte)(grown), 512)
	for i := 0; i < 64; i++ {
		if big[i] != byte(i) {
			t.Fatalf("byte %d corrupted after tail refit: want %d got %d", i, byte(i), big[i])
		}
	}

	h.Free(grown)
}

func TestHeapReallocateOnFreedBlockFails(t *testing.T) {
	h := New()

	ptr := h.Allocate(128)
	h.Free(ptr)

	if out := h.Reallocate(ptr, 64); out != nil {
		t.Fatal("Reallocate on an already-freed pointer should return nil, not revive the block")
	}

	if err := h.Validate(); err != nil {
		t.Fatalf("invariant violation: %v", err)
	}
}

func TestHeapPlaceExpandsFreeTailInPlace(t *testing.T) {
	// A 256-byte preallocation leaves a 160-byte FREE tail once tail is
	// freed, too small for the 512-byte request, so best-fit misses.
	h := New(WithPreallocSize(descriptorStride + 256))

	a := h.Allocate(64)
	tail := h.Allocate(64)
	h.Free(tail)

	before := h.Stats()

	grown := h.Allocate(512)
	if grown == nil {
		t.Fatal("allocation into an undersized FREE tail failed")
	}

	after := h.Stats()
	if after.HeapBlocks != before.HeapBlocks {
		t.Fatalf("top-expansion of a FREE tail should not add a new descriptor: before=%d after=%d", before.HeapBlocks, after.HeapBlocks)
	}

	if err := h.Validate(); err != nil {
		t.Fatalf("invariant violation: %v", err)
	}

	h.Free(a)
	h.Free(grown)
}

func TestHeapReallocateNilBehavesLikeAllocate(t *testing.T) {
	h := New()

	ptr := h.Reallocate(nil, 128)
	if ptr == nil {
		t.Fatal("Reallocate(nil, size) should behave like Allocate")
	}

	h.Free(ptr)
}

func TestHeapReallocateZeroSizeBehavesLikeFree(t *testing.T) {
	h := New()

	ptr := h.Allocate(128)

	out := h.Reallocate(ptr, 0)
	if out != nil {
		t.Error("Reallocate(ptr, 0) should return nil")
	}

	stats := h.Stats()
	if stats.FreeCount == 0 {
		t.Error("Reallocate(ptr, 0) should count as a free")
	}
}

func TestHeapStatsTracksCounts(t *testing.T) {
	h := New()

	ptrs := make([]unsafe.Pointer, 10)
	for i := range ptrs {
		ptrs[i] = h.Allocate(32)
	}

	mid := h.Stats()
	if mid.AllocationCount < 10 {
		t.Errorf("allocation count not updated: %d", mid.AllocationCount)
	}

	for _, ptr := range ptrs {
		h.Free(ptr)
	}

	final := h.Stats()
	if final.FreeCount < 10 {
		t.Errorf("free count not updated: %d", final.FreeCount)
	}
}

func TestDefaultIsASingleton(t *testing.T) {
	a := Default()
	b := Default()

	if a != b {
		t.Fatal("Default() should return the same Heap instance every call")
	}
}
