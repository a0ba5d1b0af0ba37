package asyncfile

import (
	"github.com/go-kit/log"
)

// HeaderSize is the fixed-size, zero-initialized prefix reserved at the
// start of every backing file. It is opaque to this package; the core
// never reads or writes it beyond zero-initializing it once at
// create/open time. All logical offsets passed to Read/Write/AllocateSpace
// are relative to the end of this prefix.
const HeaderSize = 64

// AllocationThreshold is the gap between size and committedSize below
// which AllocateSpace skips physical zero-fill preallocation entirely.
const AllocationThreshold = 1 << 20 // 1 MiB

// defaultWorkers is the default size of the goroutine pool backing the
// asynchronous channel.
const defaultWorkers = 8

// defaultZeroChunkSize bounds a single physical zero-fill write. It stays
// well under typical pwrite(2) practical limits while keeping the number
// of syscalls per zero-fill call small.
const defaultZeroChunkSize = 1 << 20 // 1 MiB

// Option configures a [File] at construction time.
type Option func(*options)

type options struct {
	logger              log.Logger
	workers             int
	allocationThreshold int64
	zeroChunkSize       int
}

func defaultOptions() options {
	return options{
		logger:              log.NewNopLogger(),
		workers:             defaultWorkers,
		allocationThreshold: AllocationThreshold,
		zeroChunkSize:       defaultZeroChunkSize,
	}
}

// WithLogger sets the logger used to report non-fatal operational
// conditions, currently only a single warn-level emission on Synch
// failure. The default is a no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithWorkers sets the size of the goroutine pool backing the
// asynchronous read/write channel. The default is 8. Panics at
// construction time if n <= 0.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n <= 0 {
			panic("asyncfile: WithWorkers: n must be > 0")
		}
		o.workers = n
	}
}

// WithAllocationThreshold overrides [AllocationThreshold] for a single
// instance. Intended for tests that want to exercise the physical
// zero-fill path without allocating a full mebibyte. Panics if n < 0.
func WithAllocationThreshold(n int64) Option {
	return func(o *options) {
		if n < 0 {
			panic("asyncfile: WithAllocationThreshold: n must be >= 0")
		}
		o.allocationThreshold = n
	}
}

// WithZeroChunkSize overrides the chunk size used when physically
// zero-filling newly committed space, for tests that want to exercise
// the zero-fill loop with more iterations than a 1 MiB default chunk
// would produce. Panics if n <= 0. Values above [defaultZeroChunkSize]
// are clamped to it internally, since the fallback write loop slices
// from a fixed-size shared zero buffer.
func WithZeroChunkSize(n int) Option {
	return func(o *options) {
		if n <= 0 {
			panic("asyncfile: WithZeroChunkSize: n must be > 0")
		}
		o.zeroChunkSize = n
	}
}
