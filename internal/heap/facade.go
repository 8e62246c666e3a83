package heap

import "unsafe"

// Allocate returns a pointer to at least size bytes, or nil if size is
// zero. Requests whose total block size meets or exceeds the heap's
// AllocateThreshold are satisfied by an anonymous mapping instead of
// the block list.
func (h *Heap) Allocate(size uintptr) unsafe.Pointer {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.allocateLocked(size, h.config.AllocateThreshold)
}

// allocateLocked assumes h.mu is already held; Reallocate uses this to
// avoid reentrant locking.
func (h *Heap) allocateLocked(size, threshold uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}

	aligned := alignUp(size, AlignmentUnit)

	var b *Block
	if descriptorStride+aligned >= threshold {
		b = h.placeMapped(size)
	} else {
		b = h.place(size)
	}

	h.allocCount++

	return b.payload()
}

// AllocateZeroed returns a pointer to n*size zeroed bytes, or nil if
// either n or size is zero. Overflow in n*size is treated the same way
// the underlying allocation failure is: fatal, since there is no
// recoverable error path in this model. Unlike Allocate, the mapping
// threshold here is the system page size, and the payload is always
// memset even when backed by a fresh (already kernel-zeroed) mapping —
// mirroring the explicit zero-fill the allocator this is grounded on
// always performs regardless of origin.
func (h *Heap) AllocateZeroed(n, size uintptr) unsafe.Pointer {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n == 0 || size == 0 {
		return nil
	}

	total, overflow := mulOverflow(n, size)
	if overflow {
		fatalf("calloc(%d, %d) overflows", n, size)
	}

	ptr := h.allocateLocked(total, h.config.ZeroedThreshold)
	if ptr == nil {
		return nil
	}

	zeroPayload(ptr, total)

	return ptr
}

// Free releases a pointer previously returned by Allocate,
// AllocateZeroed, or Reallocate. Freeing nil is a no-op.
func (h *Heap) Free(ptr unsafe.Pointer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.freeLocked(ptr)
}

func (h *Heap) freeLocked(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	b := blockAt(ptr)

	if b.status == StatusMapped {
		h.list.remove(b)
		unmapAnon(b.address(), descriptorStride+b.size)
		h.freeCount++

		return
	}

	b.status = StatusFree
	h.list.join(b, true)
	h.freeCount++
}

// Reallocate resizes the allocation at ptr to size bytes, preserving
// its contents up to the smaller of the old and new sizes, and
// returns the (possibly moved) pointer. Reallocate(nil, size) behaves
// like Allocate(size); Reallocate(ptr, 0) behaves like Free(ptr) and
// returns nil.
//
// Per the allocator this is grounded on, resizing always tests against
// the Allocate mapping threshold, never the smaller AllocateZeroed
// threshold, even for a block originally produced by AllocateZeroed.
func (h *Heap) Reallocate(ptr unsafe.Pointer, size uintptr) unsafe.Pointer {
	if size == 0 {
		h.Free(ptr)

		return nil
	}

	if ptr == nil {
		return h.Allocate(size)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	b := blockAt(ptr)
	if b.status == StatusFree {
		return nil
	}

	aligned := alignUp(size, AlignmentUnit)

	if b.status == StatusMapped || descriptorStride+aligned >= h.config.AllocateThreshold {
		newPtr := h.allocateLocked(size, h.config.AllocateThreshold)
		copyPayload(newPtr, ptr, minUintptr(b.size, aligned))
		h.freeLocked(ptr)

		return newPtr
	}

	// Refit: the block is the tail and growing, so the break can move
	// to enlarge it in place without a new descriptor.
	if b == h.list.tail && aligned > b.size {
		growBreak(aligned - b.size)
		b.size = aligned

		return b.payload()
	}

	if aligned <= b.size {
		if rem := h.list.split(b, aligned); rem != nil {
			h.list.join(rem, false)
		}

		return b.payload()
	}

	// A growing non-tail block: try absorbing FREE forward neighbours
	// and re-splitting, falling back to relocation.
	b.status = StatusFree
	joined := h.list.join(b, false)
	joined.status = StatusAllocated

	if joined.size >= aligned {
		if rem := h.list.split(joined, aligned); rem != nil {
			h.list.join(rem, false)
		}

		return joined.payload()
	}

	newPtr := h.allocateLocked(size, h.config.AllocateThreshold)
	copyPayload(newPtr, joined.payload(), minUintptr(joined.size, aligned))
	h.freeLocked(joined.payload())

	return newPtr
}

func mulOverflow(a, b uintptr) (uintptr, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}

	product := a * b
	if product/a != b {
		return 0, true
	}

	return product, false
}

func minUintptr(a, b uintptr) uintptr {
	if a < b {
		return a
	}

	return b
}

func copyPayload(dst, src unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}

	d := unsafe.Slice((*byte)(dst), int(n))
	s := unsafe.Slice((*byte)(src), int(n))
	copy(d, s)
}

func zeroPayload(ptr unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}

	clear(unsafe.Slice((*byte)(ptr), int(n)))
}
