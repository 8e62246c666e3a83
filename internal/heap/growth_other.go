//go:build !linux

package heap

import "runtime"

// On platforms other than Linux there is no portable program-break
// primitive reachable without cgo, and the allocator this engine is
// grounded on (original_source/src/osmem.c) is itself Linux/POSIX
// specific. These stubs keep the package buildable everywhere and fail
// loudly, at first use, rather than silently doing nothing.

func growBreak(delta uintptr) uintptr {
	fatalf("program-break allocation is only supported on linux (GOOS=%s)", runtime.GOOS)

	return 0
}

func mapAnon(size uintptr) uintptr {
	fatalf("anonymous mapping is only supported on linux (GOOS=%s)", runtime.GOOS)

	return 0
}

func unmapAnon(addr, size uintptr) {
	fatalf("anonymous mapping is only supported on linux (GOOS=%s)", runtime.GOOS)
}

func systemPageSize() uintptr {
	return 4096
}
