package asyncfile

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/calvinalkan/asyncfile/pkg/fs"
)

// ioFuture is a joinable handle for a single dispatched positional I/O
// operation. It is the unit the asynchronous channel completes out of
// band; callers block on [ioFuture.await] at the point they actually need
// the result.
type ioFuture struct {
	done chan struct{}
	n    int
	err  error
}

func newIOFuture() *ioFuture {
	return &ioFuture{done: make(chan struct{})}
}

func (f *ioFuture) complete(n int, err error) {
	f.n = n
	f.err = err
	close(f.done)
}

// await blocks until the future completes or ctx is canceled, whichever
// happens first.
func (f *ioFuture) await(ctx context.Context) (int, error) {
	select {
	case <-f.done:
		return f.n, f.err
	case <-ctx.Done():
		return 0, context.Cause(ctx)
	}
}

// asyncChannel is the internal abstraction over an asynchronous file
// capable of positional read and write. It is backed by a bounded
// goroutine pool wrapping blocking fs.File.ReadAt/WriteAt calls, which
// stands in for a true kernel io_uring/AIO binding while preserving the
// "dispatch, complete out of order" contract the rest of the package is
// built against.
//
// I/O is dispatched through the fs.File interface rather than directly
// against a raw file descriptor, so a File implementation (such as
// fs.Chaos's) can intercept and fault-inject every read/write the core
// performs. Fallocate is the one exception: it has no fs.File method,
// so the fast zero-fill path still reaches through Fd() directly; its
// fallback (the zero-buffer write loop) goes through WriteAt like any
// other write and is just as interceptable.
type asyncChannel struct {
	file fs.File
	fd   int

	jobs chan func()

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newAsyncChannel(file fs.File, workers int) *asyncChannel {
	c := &asyncChannel{
		file: file,
		fd:   int(file.Fd()),
		jobs: make(chan func(), workers),
	}

	for range workers {
		c.wg.Add(1)
		go c.worker()
	}

	return c
}

func (c *asyncChannel) worker() {
	defer c.wg.Done()

	for job := range c.jobs {
		job()
	}
}

// submitRead dispatches a positional read of len(buf) bytes starting at
// off and returns a future for its completion. A short read (n <
// len(buf)) with a nil error is a legitimate partial result the core
// retries; a short read that leaves no further progress possible is
// reported as io.EOF so callers don't spin.
func (c *asyncChannel) submitRead(off int64, buf []byte) *ioFuture {
	future := newIOFuture()

	c.jobs <- func() {
		n, err := c.file.ReadAt(buf, off)
		if err != nil {
			future.complete(n, err)
			return
		}
		if n == 0 && len(buf) > 0 {
			future.complete(n, io.EOF)
			return
		}
		future.complete(n, nil)
	}

	return future
}

// submitWrite dispatches a positional write of buf starting at off and
// returns a future for its completion. A short write (n < len(buf))
// with a nil error is a legitimate partial result the core retries.
func (c *asyncChannel) submitWrite(off int64, buf []byte) *ioFuture {
	future := newIOFuture()

	c.jobs <- func() {
		n, err := c.file.WriteAt(buf, off)
		future.complete(n, err)
	}

	return future
}

// sync issues the channel's durability barrier (fsync).
func (c *asyncChannel) sync() error {
	return c.file.Sync()
}

// truncate changes the physical length of the backing file.
func (c *asyncChannel) truncate(size int64) error {
	return c.file.Truncate(size)
}

// close stops accepting new work, waits for in-flight jobs to finish, and
// closes the underlying file descriptor. Callers must ensure no further
// submit* calls happen concurrently with close.
func (c *asyncChannel) close() error {
	var err error

	c.closeOnce.Do(func() {
		close(c.jobs)
		c.wg.Wait()
		err = c.file.Close()
	})

	return err
}

// fallocateZeroRange attempts to zero-fill [off, off+n) using
// FALLOC_FL_ZERO_RANGE, extending the file size to off+n if it was
// shorter. Returns unix.ENOTSUP or unix.EOPNOTSUPP (wrapped detection left
// to the caller) if the underlying filesystem does not support it;
// callers fall back to the zero-buffer write loop in that case.
func (c *asyncChannel) fallocateZeroRange(off, n int64) error {
	return unix.Fallocate(c.fd, unix.FALLOC_FL_ZERO_RANGE, off, n)
}
