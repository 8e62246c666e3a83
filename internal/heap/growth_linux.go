//go:build linux

package heap

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// rawBrk asks the kernel to set the program break to addr, or merely
// queries the current break when addr is 0, and returns the break in
// effect afterward.
func rawBrk(addr uintptr) uintptr {
	r1, _, errno := unix.Syscall(unix.SYS_BRK, addr, 0, 0)
	if errno != 0 {
		fatalf("brk(%#x) failed: %v", addr, errno)
	}

	return r1
}

// growBreak moves the program break forward by delta bytes and returns
// the address of the newly added region. Linux's brk syscall never
// signals failure through errno; a request the kernel cannot satisfy
// simply comes back with the break unchanged, which this function
// detects by comparing the returned break against the one requested.
func growBreak(delta uintptr) uintptr {
	current := rawBrk(0)
	wanted := current + delta

	got := rawBrk(wanted)
	if got < wanted {
		fatalf("sbrk(%d) failed: program break stuck at %#x", delta, got)
	}

	return current
}

// mapAnon acquires a private anonymous mapping of size bytes and
// returns its address.
func mapAnon(size uintptr) uintptr {
	region, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		fatalf("mmap(%d) failed: %v", size, err)
	}

	return uintptr(unsafe.Pointer(unsafe.SliceData(region)))
}

// unmapAnon releases a mapping previously returned by mapAnon.
func unmapAnon(addr, size uintptr) {
	region := unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(size))
	if err := unix.Munmap(region); err != nil {
		fatalf("munmap(%#x, %d) failed: %v", addr, size, err)
	}
}

func systemPageSize() uintptr {
	return uintptr(unix.Getpagesize())
}
