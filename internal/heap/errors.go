package heap

import (
	"fmt"
	"os"
)

// fatalf reports an unrecoverable condition — an OS primitive failure
// or an internal invariant violation — and terminates the process.
// Per spec §7, neither kind of failure can be papered over: with no
// backing memory available, or with the block list already corrupted,
// returning a partial result to the caller would only corrupt it
// further. This mirrors the DIE() abort macro in the allocator
// osmem.c/memlist.c were distilled from.
func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "uheap: fatal: "+format+"\n", args...)
	os.Exit(2)
}
