package heap

import "sync"

const (
	// AllocateThreshold is the default mapping threshold for Allocate:
	// a request whose total block size (descriptor + aligned payload)
	// meets or exceeds this is satisfied by an anonymous mapping
	// instead of the heap.
	AllocateThreshold uintptr = 128 * 1024

	// PreallocSize is the size of the one-shot heap preallocation
	// performed by the first heap-touching allocation in the process.
	PreallocSize uintptr = 128 * 1024
)

// Config holds a Heap's tunables. Use DefaultConfig or New's
// functional options; the zero Config is not valid.
type Config struct {
	AllocateThreshold uintptr
	ZeroedThreshold   uintptr
	PreallocSize      uintptr
}

// Option configures a Config.
type Option func(*Config)

// DefaultConfig returns the spec-mandated defaults: a 128 KiB mapping
// threshold and preallocation size for Allocate, and the system page
// size as the (smaller) mapping threshold for AllocateZeroed.
func DefaultConfig() *Config {
	return &Config{
		AllocateThreshold: AllocateThreshold,
		ZeroedThreshold:   systemPageSize(),
		PreallocSize:      PreallocSize,
	}
}

// WithAllocateThreshold overrides the mapping threshold Allocate uses.
func WithAllocateThreshold(n uintptr) Option {
	return func(c *Config) { c.AllocateThreshold = n }
}

// WithZeroedThreshold overrides the mapping threshold AllocateZeroed
// uses; it defaults to the system page size.
func WithZeroedThreshold(n uintptr) Option {
	return func(c *Config) { c.ZeroedThreshold = n }
}

// WithPreallocSize overrides the one-shot heap preallocation size.
func WithPreallocSize(n uintptr) Option {
	return func(c *Config) { c.PreallocSize = n }
}

// Stats reports a Heap's bookkeeping counters.
type Stats struct {
	HeapBlocks      int
	FreeBlocks      int
	MappedBlocks    int
	BytesOnHeap     uintptr
	BytesMapped     uintptr
	AllocationCount uint64
	FreeCount       uint64
}

// Heap is the process-wide block-management engine: one Block list,
// one "heap preallocated" flag, and the configuration governing
// thresholds. Per spec §5 the engine itself is single-threaded: List
// and the placement code do no locking of their own. Every exported
// method holds the mutex for the whole operation, block-list changes
// included, so calls on one Heap from several goroutines are
// serialized through it.
type Heap struct {
	mu           sync.Mutex
	list         List
	config       *Config
	preallocated bool
	allocCount   uint64
	freeCount    uint64
}

// New constructs an independent Heap with its own block list.
func New(opts ...Option) *Heap {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Heap{config: cfg}
}

var (
	defaultOnce sync.Once
	defaultHeap *Heap
)

// Default returns the package-wide singleton Heap described by spec
// §3.4: one block list and one preallocated flag, persisting for the
// life of the process.
func Default() *Heap {
	defaultOnce.Do(func() {
		defaultHeap = New()
	})

	return defaultHeap
}

// Stats returns a snapshot of the heap's bookkeeping counters.
func (h *Heap) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	var s Stats

	s.AllocationCount = h.allocCount
	s.FreeCount = h.freeCount

	for b := h.list.head; b != nil; b = b.next {
		switch b.status {
		case StatusMapped:
			s.MappedBlocks++
			s.BytesMapped += b.size
		case StatusFree:
			s.HeapBlocks++
			s.FreeBlocks++
			s.BytesOnHeap += b.size
		case StatusAllocated:
			s.HeapBlocks++
			s.BytesOnHeap += b.size
		}
	}

	return s
}

// Validate walks the block list and checks invariants I1-I7. It is
// intended for tests, not the allocation hot path.
func (h *Heap) Validate() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.list.validate()
}
