package heap

import "fmt"

// List is the doubly linked, insertion-ordered chain of every live
// block (heap-resident or mapped) described in spec §4.1. Its methods
// assume the caller already holds the owning Heap's mutex; List itself
// does no locking.
type List struct {
	head, tail *Block
	count      int
}

// insert places b according to its status: MAPPED blocks are spatially
// unrelated to the heap and go at the head, everything else is
// heap-resident and goes at the tail so the tail is always the
// topmost, growable heap block. insert is never used for mid-chain
// placement; that happens only inside split via insertAt.
func (l *List) insert(b *Block) {
	if b.status == StatusMapped {
		l.prepend(b)

		return
	}

	l.append(b)
}

func (l *List) append(b *Block) {
	b.prev = l.tail
	b.next = nil

	if l.tail != nil {
		l.tail.next = b
	} else {
		l.head = b
	}

	l.tail = b
	l.count++
}

func (l *List) prepend(b *Block) {
	b.next = l.head
	b.prev = nil

	if l.head != nil {
		l.head.prev = b
	} else {
		l.tail = b
	}

	l.head = b
	l.count++
}

// remove unlinks b, fixing head/tail as needed. It does not touch
// b.size or b.status; the caller owns the descriptor afterwards.
func (l *List) remove(b *Block) {
	if b.prev != nil {
		b.prev.next = b.next
	} else {
		l.head = b.next
	}

	if b.next != nil {
		b.next.prev = b.prev
	} else {
		l.tail = b.prev
	}

	b.prev = nil
	b.next = nil
	l.count--
}

// positionOf returns the 0-based index of b in list order, or -1 if b
// is not in the list. Used only to compute the insertion slot for a
// split remainder.
func (l *List) positionOf(target *Block) int {
	idx := 0
	for b := l.head; b != nil; b = b.next {
		if b == target {
			return idx
		}

		idx++
	}

	return -1
}

// insertAt inserts b immediately after the block currently at index
// afterIndex, mirroring the original allocator's index-based
// mid-chain insertion. Only split calls this.
func (l *List) insertAt(b *Block, afterIndex int) {
	it := l.head
	for i := 0; i < afterIndex; i++ {
		it = it.next
	}

	b.prev = it
	b.next = it.next

	if it.next != nil {
		it.next.prev = b
	} else {
		l.tail = b
	}

	it.next = b
	l.count++
}

// findBestFit returns the FREE block with the smallest size at least
// aligned(requested), or nil. Ties keep whichever block was found
// first, which makes the scan deterministic.
func (l *List) findBestFit(requested uintptr) *Block {
	aligned := alignUp(requested, AlignmentUnit)

	var best *Block

	minSize := ^uintptr(0) // largest representable uintptr; see spec Design Notes.

	for b := l.head; b != nil; b = b.next {
		if b.status == StatusFree && b.size >= aligned && b.size < minSize {
			minSize = b.size
			best = b
		}
	}

	return best
}

// split carves an ALLOCATED block of aligned(requested) bytes out of
// the FREE block b, inserting a FREE remainder immediately after b in
// list order. It is a no-op, returning nil, when the remainder would
// have fewer than AlignmentUnit bytes of payload beyond its own
// descriptor.
func (l *List) split(b *Block, requested uintptr) *Block {
	aligned := alignUp(requested, AlignmentUnit)
	if b.size < AlignmentUnit+aligned+descriptorStride {
		return nil
	}

	remAddr := b.address() + descriptorStride + aligned
	remSize := b.size - aligned - descriptorStride
	rem := newBlock(remAddr, remSize, StatusFree)

	pos := l.positionOf(b)

	b.size = aligned
	b.status = StatusAllocated

	l.insertAt(rem, pos)

	return rem
}

// join coalesces b with its FREE forward neighbours, absorbing each
// into b and removing it from the list. If checkPrev is set, join
// first walks backward to the earliest FREE predecessor and coalesces
// from there. It returns the surviving block, whose address is always
// the address of the earliest block in the merged run.
func (l *List) join(b *Block, checkPrev bool) *Block {
	it := b

	if checkPrev {
		for it.prev != nil && it.prev.status == StatusFree {
			it = it.prev
		}
	}

	for it != l.tail && it.next.status == StatusFree {
		if it.next.address() != it.end() {
			fatalf("join: list order does not match address order between blocks at %#x and %#x", it.address(), it.next.address())

			return nil
		}

		absorbed := it.next
		it.size += descriptorStride + absorbed.size

		l.remove(absorbed)
	}

	return it
}

func rangesOverlap(aStart, aEnd, bStart, bEnd uintptr) bool {
	return aStart < bEnd && bStart < aEnd
}

// validate walks the list and checks invariants I1-I7 (equivalently,
// properties P1-P5). It is O(n^2) and is exercised only by tests; no
// production path pays this cost.
func (l *List) validate() error {
	seen := 0
	sawHeapResident := false

	for b := l.head; b != nil; b = b.next {
		seen++

		if b.status != StatusFree && b.status != StatusAllocated && b.status != StatusMapped {
			return fmt.Errorf("block at %#x: invalid status %d", b.address(), b.status)
		}

		if b.size == 0 || b.size%AlignmentUnit != 0 {
			return fmt.Errorf("block at %#x: size %d is not a positive multiple of %d", b.address(), b.size, AlignmentUnit)
		}

		if b.status == StatusFree && b.next != nil && b.next.status == StatusFree {
			return fmt.Errorf("block at %#x: adjacent FREE blocks violate I2", b.address())
		}

		if b.status != StatusMapped {
			if b.next != nil && b.next.status != StatusMapped && b.next.address() != b.end() {
				return fmt.Errorf("block at %#x: non-contiguous heap successor at %#x, want %#x", b.address(), b.next.address(), b.end())
			}
		}

		if b.status == StatusMapped {
			if sawHeapResident {
				return fmt.Errorf("block at %#x: MAPPED block follows heap-resident block, violates I5", b.address())
			}
		} else {
			sawHeapResident = true
		}
	}

	if seen != l.count {
		return fmt.Errorf("list count %d does not match walked length %d", l.count, seen)
	}

	for a := l.head; a != nil; a = a.next {
		for c := a.next; c != nil; c = c.next {
			if rangesOverlap(a.address(), a.end(), c.address(), c.end()) {
				return fmt.Errorf("blocks at %#x and %#x overlap", a.address(), c.address())
			}
		}
	}

	return nil
}
