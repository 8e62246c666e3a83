package heap

// preallocate performs the one-shot 128 KiB program-break acquisition
// described in spec §3.4/§4.3: the first heap-touching request moves
// the break forward once and records the whole region as a single
// FREE block. Guarded by h.preallocated rather than list emptiness,
// since a MAPPED block prepended ahead of any heap activity would
// otherwise make the list non-empty without the heap ever having been
// touched.
func (h *Heap) preallocate() {
	if h.preallocated {
		return
	}

	addr := growBreak(h.config.PreallocSize)
	block := newBlock(addr, h.config.PreallocSize-descriptorStride, StatusFree)
	h.list.insert(block)
	h.preallocated = true
}

// place satisfies a heap-resident request of aligned(requested) bytes:
// it preallocates on first use, finds the best-fitting FREE block
// (splitting it if there's enough remainder to justify a new
// descriptor), or else grows the break: an undersized FREE tail is
// enlarged in place and marked ALLOCATED, otherwise a fresh ALLOCATED
// block is added at the tail. It never considers mapping; threshold routing happens
// one level up, in facade.go.
func (h *Heap) place(requested uintptr) *Block {
	h.preallocate()

	aligned := alignUp(requested, AlignmentUnit)

	if b := h.list.findBestFit(aligned); b != nil {
		if rem := h.list.split(b, aligned); rem != nil {
			h.list.join(rem, false)
		}

		b.status = StatusAllocated

		return b
	}

	if tail := h.list.tail; tail != nil && tail.status == StatusFree && tail.size < aligned {
		growBreak(aligned - tail.size)
		tail.size = aligned
		tail.status = StatusAllocated

		return tail
	}

	addr := growBreak(descriptorStride + aligned)
	b := newBlock(addr, aligned, StatusAllocated)
	h.list.insert(b)

	return b
}

// placeMapped satisfies a request via a fresh anonymous mapping,
// recording it as a MAPPED block ahead of every heap-resident block
// (invariant I5).
func (h *Heap) placeMapped(requested uintptr) *Block {
	aligned := alignUp(requested, AlignmentUnit)

	addr := mapAnon(descriptorStride + aligned)
	b := newBlock(addr, aligned, StatusMapped)
	h.list.insert(b)

	return b
}
