package asyncfile

import (
	"context"
	"fmt"
	"sync"
)

// WritePair is one (offset, buffer) entry in a [File.WriteBatch] call.
// Callers must not submit pairs with overlapping offset ranges within the
// same batch; ordering between pairs is not guaranteed, only the
// per-pair write sequence (offset, then offset+n, ...) is sequential.
type WritePair struct {
	Offset int64
	Buffer []byte
}

// IOResult is a joinable handle returned by [File.WriteBatch]. Call
// [IOResult.Await] to block until every pair in the batch has completed
// and to observe the first failure, if any.
type IOResult struct {
	done chan struct{}

	mu  sync.Mutex
	err error
}

func newIOResult() *IOResult {
	return &IOResult{done: make(chan struct{})}
}

func (r *IOResult) recordFailure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err == nil {
		r.err = err
	}
}

// Await blocks until the latch backing this result reaches zero, then
// re-raises the first failure observed across all pairs, if any. It also
// observes ctx cancellation.
func (r *IOResult) Await(ctx context.Context) error {
	select {
	case <-r.done:
		r.mu.Lock()
		defer r.mu.Unlock()

		return r.err
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// WriteBatch submits a vector of (offset, buffer) pairs for asynchronous
// writing and returns a joinable [IOResult] immediately; validation
// (open, offset range) happens synchronously at submission, before any
// pair is dispatched.
//
// Each pair's dispatch-wait-redispatch sequence runs on its own goroutine,
// taking and releasing the shared lock once per chunk rather than holding
// it across the whole batch. This lets a concurrent Close drain
// outstanding batches without the per-chunk redispatch deadlocking
// against it; see [File.beginExclusive].
func (f *File) WriteBatch(ctx context.Context, pairs []WritePair) (*IOResult, error) {
	f.mu.RLock()

	if f.channel == nil {
		f.mu.RUnlock()
		return nil, fmt.Errorf("asyncfile: write_batch %q: %w", f.path, ErrClosed)
	}

	size := f.size.Load()
	for _, p := range pairs {
		if p.Offset < 0 || p.Offset >= size {
			f.mu.RUnlock()
			return nil, fmt.Errorf("asyncfile: write_batch %q: offset %d: %w", f.path, p.Offset, ErrOutOfRange)
		}
	}

	result := newIOResult()

	if len(pairs) == 0 {
		f.mu.RUnlock()
		close(result.done)
		return result, nil
	}

	// Admission (checking closing, then registering with batchWG) must be
	// serialized against beginExclusive's Store-then-Wait sequence via the
	// same mutex, or an Add here could land after a concurrent Wait has
	// already seen the counter at zero. See the closing/batchAdmitMu doc
	// on File.
	f.batchAdmitMu.Lock()
	if f.closing.Load() {
		f.batchAdmitMu.Unlock()
		f.mu.RUnlock()
		return nil, fmt.Errorf("asyncfile: write_batch %q: %w", f.path, ErrClosing)
	}
	f.batchWG.Add(1)
	f.batchAdmitMu.Unlock()

	f.mu.RUnlock()

	var latch sync.WaitGroup
	latch.Add(len(pairs))

	for _, pair := range pairs {
		go f.dispatchBatchPair(ctx, pair, result, &latch)
	}

	go func() {
		latch.Wait()
		close(result.done)
		f.batchWG.Done()
	}()

	return result, nil
}

// dispatchBatchPair drains one WritePair, reacquiring the shared lock for
// each chunk dispatch rather than holding it for the pair's full
// duration.
func (f *File) dispatchBatchPair(ctx context.Context, pair WritePair, result *IOResult, latch *sync.WaitGroup) {
	defer latch.Done()

	written := 0
	for written < len(pair.Buffer) {
		f.mu.RLock()
		channel := f.channel
		if channel == nil {
			f.mu.RUnlock()
			result.recordFailure(fmt.Errorf("asyncfile: write_batch %q: %w", f.path, ErrClosed))
			return
		}

		future := channel.submitWrite(pair.Offset+HeaderSize+int64(written), pair.Buffer[written:])
		f.mu.RUnlock()

		n, err := future.await(ctx)
		written += n

		if err != nil {
			result.recordFailure(fmt.Errorf("asyncfile: write_batch %q: %w", f.path, err))
			return
		}
	}

	f.dirtyCounter.Add(1)
}
