package asyncfile

import (
	"context"
	"fmt"
)

// AllocateSpace atomically grows the logical size by n bytes and returns
// the start offset of the newly reserved range [start, start+n).
// Concurrent callers observe disjoint ranges.
//
// If the gap between the new size and the committed (physically
// zero-initialized) size stays within [AllocationThreshold], the call
// returns immediately without touching disk. Otherwise the caller tries a
// compare-and-swap of the committed size up to the new size; the winner
// physically zero-fills the newly committed range before returning. A
// caller that loses the swap re-reads the committed size and returns
// without physical work once the gap is within the threshold, or else
// retries the swap. A caller that returns this way does not wait for
// another caller's zero-fill to finish.
//
// AllocateSpace takes the shared lock; it may run concurrently with other
// data-plane operations.
func (f *File) AllocateSpace(ctx context.Context, n int64) (int64, error) {
	if n <= 0 {
		panic("asyncfile: AllocateSpace: n must be > 0")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.channel == nil {
		return 0, fmt.Errorf("asyncfile: allocate_space %q: %w", f.path, ErrClosed)
	}

	channel := f.channel

	newSize := f.size.Add(n)
	start := newSize - n

	for {
		committed := f.committedSize.Load()

		if newSize-committed <= f.opts.allocationThreshold {
			return start, nil
		}

		if f.committedSize.CompareAndSwap(committed, newSize) {
			if err := f.zeroFillLocked(ctx, channel, committed, newSize); err != nil {
				return start, fmt.Errorf("asyncfile: allocate_space %q: %w", f.path, err)
			}

			return start, nil
		}
	}
}

// zeroFillLocked physically zero-initializes logical bytes [from, to) on
// disk. It first tries a single FALLOC_FL_ZERO_RANGE fallocate call; on
// any failure (including ENOTSUP on filesystems that don't implement it)
// it falls back to writing from the package-level zero buffer in chunks.
// Callers must hold f.mu (shared is sufficient, since the zeroed range
// [committed, size) was exclusively claimed via CompareAndSwap).
func (f *File) zeroFillLocked(ctx context.Context, channel *asyncChannel, from, to int64) error {
	if err := channel.fallocateZeroRange(from+HeaderSize, to-from); err == nil {
		return nil
	}

	// zeroSlice only ever hands back a view into the package-level
	// zeroBuf, so the chunk size used here can never exceed its capacity
	// regardless of what WithZeroChunkSize was configured with.
	chunkSize := int64(f.opts.zeroChunkSize)
	if chunkSize > int64(len(zeroBuf)) {
		chunkSize = int64(len(zeroBuf))
	}

	pos := from

	for pos < to {
		chunk := to - pos
		if chunk > chunkSize {
			chunk = chunkSize
		}

		buf := zeroSlice(int(chunk))
		written := int64(0)

		for written < chunk {
			future := channel.submitWrite(pos+HeaderSize+written, buf[written:])

			n, err := future.await(ctx)
			written += int64(n)

			if err != nil {
				return fmt.Errorf("zero-filling [%d, %d): %w", from, to, err)
			}
		}

		pos += chunk
	}

	return nil
}

// Shrink truncates the physical file to newSize+HeaderSize and resets
// both size and committedSize to 0 (not to newSize — this reset-to-zero
// semantic is intentional: the next AllocateSpace call establishes the
// new logical size from scratch).
//
// Shrink takes the exclusive lock, draining in-flight data-plane work
// first.
func (f *File) Shrink(newSize int64) error {
	if newSize < 0 {
		panic("asyncfile: Shrink: newSize must be >= 0")
	}

	f.beginExclusive()
	defer f.endExclusive()

	if f.channel == nil {
		return fmt.Errorf("asyncfile: shrink %q: %w", f.path, ErrClosed)
	}

	if err := f.channel.truncate(newSize + HeaderSize); err != nil {
		return fmt.Errorf("asyncfile: shrink %q: %w", f.path, err)
	}

	f.size.Store(0)
	f.committedSize.Store(0)

	return nil
}
