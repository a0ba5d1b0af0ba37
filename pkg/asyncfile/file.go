package asyncfile

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/calvinalkan/asyncfile/pkg/fs"
)

// File is a durable, header-offset, async block-addressed single-file
// storage primitive. One instance corresponds to one backing path.
//
// Data-plane operations (Read, Write, WriteBatch, AllocateSpace, Synch)
// take a shared lock and may run concurrently with one another.
// Control-plane operations (Create, Open, Close, Delete, RenameTo,
// ReplaceContentWith, Shrink) take an exclusive lock, draining in-flight
// data-plane work first.
//
// A File is safe for concurrent use by multiple goroutines.
type File struct {
	mu      sync.RWMutex
	flushMu sync.Mutex

	fsys   fs.FS
	locker *fs.Locker
	opts   options

	// Guarded by mu.
	path     string
	channel  *asyncChannel
	procLock *fs.Lock

	// Atomic: logical size, zero-filled (committed) size, and pending
	// dirty marks awaiting Synch.
	size          atomic.Int64
	committedSize atomic.Int64
	dirtyCounter  atomic.Int64

	// batchWG tracks in-flight WriteBatch submissions. Close drains it
	// before tearing down the channel, so an exclusive acquirer can never
	// be stuck behind a shared acquisition that hasn't happened yet.
	batchWG sync.WaitGroup

	// closing is set for the duration of beginExclusive/endExclusive so
	// that WriteBatch, whose per-pair goroutines reacquire mu between
	// chunks rather than holding it for the whole call, can reject new
	// submissions instead of racing batchWG's drain in beginExclusive.
	//
	// batchAdmitMu serializes every read of closing against every
	// admission (checking closing, then batchWG.Add(1)) so that an
	// Add can never land after a concurrent Wait has already observed
	// the counter at zero — sync.WaitGroup requires that a call to Add
	// with a positive delta happen-before the Wait call that counts it,
	// and two independent atomics (closing and the WaitGroup's internal
	// counter) can't establish that ordering by themselves.
	batchAdmitMu sync.Mutex
	closing      atomic.Bool
}

// beginExclusive drains all in-flight WriteBatch submissions and then
// takes the exclusive lock. Draining must happen before the lock is
// taken: WriteBatch's per-pair goroutines take mu.RLock() between chunks
// rather than across the whole call, so waiting on batchWG while already
// holding mu.Lock() would deadlock against them.
func (f *File) beginExclusive() {
	f.batchAdmitMu.Lock()
	f.closing.Store(true)
	f.batchAdmitMu.Unlock()

	f.batchWG.Wait()
	f.mu.Lock()
}

// endExclusive releases the exclusive lock taken by beginExclusive.
func (f *File) endExclusive() {
	f.closing.Store(false)
	f.mu.Unlock()
}

// New constructs an unopened File for path on fsys. Call Create or Open
// before using any data-plane operation.
func New(path string, fsys fs.FS, opt ...Option) *File {
	if fsys == nil {
		panic("asyncfile: New: fsys is nil")
	}

	o := defaultOptions()
	for _, apply := range opt {
		apply(&o)
	}

	return &File{
		fsys:   fsys,
		locker: fs.NewLocker(fsys),
		opts:   o,
		path:   path,
	}
}

func (f *File) lockPath() string {
	return f.path + ".lock"
}

// Create creates the backing file and opens it for read/write. Fails with
// [ErrAlreadyOpen] if this instance is already open.
func (f *File) Create() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.channel != nil {
		return fmt.Errorf("asyncfile: create %q: %w", f.path, ErrAlreadyOpen)
	}

	procLock, err := f.locker.TryLock(f.lockPath())
	if err != nil {
		return fmt.Errorf("asyncfile: create %q: acquiring process lock: %w", f.path, err)
	}

	file, err := f.fsys.OpenFile(f.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		_ = procLock.Close()
		return fmt.Errorf("asyncfile: create %q: %w", f.path, err)
	}

	if err := f.finishOpenLocked(file, procLock); err != nil {
		return fmt.Errorf("asyncfile: create %q: %w", f.path, err)
	}

	return nil
}

// Open opens an existing backing file for read/write. Fails with
// [ErrAlreadyOpen] if this instance is already open.
func (f *File) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.channel != nil {
		return fmt.Errorf("asyncfile: open %q: %w", f.path, ErrAlreadyOpen)
	}

	procLock, err := f.locker.TryLock(f.lockPath())
	if err != nil {
		return fmt.Errorf("asyncfile: open %q: acquiring process lock: %w", f.path, err)
	}

	file, err := f.fsys.OpenFile(f.path, os.O_RDWR, 0o644)
	if err != nil {
		_ = procLock.Close()
		return fmt.Errorf("asyncfile: open %q: %w", f.path, err)
	}

	if err := f.finishOpenLocked(file, procLock); err != nil {
		return fmt.Errorf("asyncfile: open %q: %w", f.path, err)
	}

	return nil
}

// finishOpenLocked wires up the channel, locks and runs header/size
// initialization. Callers must hold f.mu exclusively.
func (f *File) finishOpenLocked(file fs.File, procLock *fs.Lock) error {
	if err := f.initSizeLocked(file); err != nil {
		_ = file.Close()
		_ = procLock.Close()
		return err
	}

	f.channel = newAsyncChannel(file, f.opts.workers)
	f.procLock = procLock

	return nil
}

// initSizeLocked ensures the header prefix is zero-initialized and
// derives size/committedSize from the physical file length. Callers must
// hold f.mu exclusively; file must not yet be wrapped in f.channel.
func (f *File) initSizeLocked(file fs.File) error {
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	physicalSize := info.Size()

	if physicalSize < HeaderSize {
		if err := writeHeaderLocked(file, physicalSize); err != nil {
			return err
		}
		f.dirtyCounter.Add(1)
		physicalSize = HeaderSize
	}

	logicalSize := physicalSize - HeaderSize
	f.size.Store(logicalSize)
	f.committedSize.Store(logicalSize)

	return nil
}

// writeHeaderLocked zero-fills the header prefix starting at the current
// physical end of file, retrying with advanced offset and decreasing
// remainder until the whole header is persisted.
func writeHeaderLocked(file fs.File, from int64) error {
	remaining := HeaderSize - from

	for remaining > 0 {
		chunk := remaining
		if chunk > int64(len(zeroBuf)) {
			chunk = int64(len(zeroBuf))
		}

		n, err := file.WriteAt(zeroSlice(int(chunk)), from)
		if err != nil {
			return fmt.Errorf("writing header: %w", err)
		}

		from += int64(n)
		remaining -= int64(n)
	}

	return nil
}

// Close tears down the channel and releases the process lock. Drains all
// in-flight WriteBatch submissions first. Idempotent: closing an already
// closed file is a no-op.
func (f *File) Close() error {
	f.beginExclusive()
	defer f.endExclusive()

	return f.closeLocked()
}

func (f *File) closeLocked() error {
	if f.channel == nil {
		return nil
	}

	closeErr := f.channel.close()
	f.channel = nil

	var lockErr error
	if f.procLock != nil {
		lockErr = f.procLock.Close()
		f.procLock = nil
	}

	if closeErr != nil {
		return fmt.Errorf("asyncfile: close %q: %w", f.path, closeErr)
	}
	if lockErr != nil {
		return fmt.Errorf("asyncfile: close %q: releasing process lock: %w", f.path, lockErr)
	}

	return nil
}

// Delete closes the file (if open) and removes it from the backing
// filesystem.
func (f *File) Delete() error {
	f.beginExclusive()
	defer f.endExclusive()

	if err := f.closeLocked(); err != nil {
		return err
	}

	if err := f.fsys.Remove(f.path); err != nil {
		return fmt.Errorf("asyncfile: delete %q: %w", f.path, err)
	}

	return nil
}

// RenameTo closes the file, moves it on disk to newPath, updates the
// path, and reopens it. size and committedSize are re-derived from the
// (unchanged) physical length after reopen.
func (f *File) RenameTo(newPath string) error {
	f.beginExclusive()
	defer f.endExclusive()

	wasOpen := f.channel != nil

	if err := f.closeLocked(); err != nil {
		return err
	}

	if err := f.fsys.Rename(f.path, newPath); err != nil {
		return fmt.Errorf("asyncfile: rename %q to %q: %w", f.path, newPath, err)
	}

	f.path = newPath

	if !wasOpen {
		return nil
	}

	procLock, err := f.locker.TryLock(f.lockPath())
	if err != nil {
		return fmt.Errorf("asyncfile: rename %q: reopening: acquiring process lock: %w", f.path, err)
	}

	file, err := f.fsys.OpenFile(f.path, os.O_RDWR, 0o644)
	if err != nil {
		_ = procLock.Close()
		return fmt.Errorf("asyncfile: rename %q: reopening: %w", f.path, err)
	}

	if err := f.finishOpenLocked(file, procLock); err != nil {
		return fmt.Errorf("asyncfile: rename %q: reopening: %w", f.path, err)
	}

	return nil
}

// ReplaceContentWith closes the file, overwrites its content with the
// content of srcPath, and reopens it. size and committedSize are
// re-derived from the new physical length after reopen.
func (f *File) ReplaceContentWith(srcPath string) error {
	f.beginExclusive()
	defer f.endExclusive()

	wasOpen := f.channel != nil

	if err := f.closeLocked(); err != nil {
		return err
	}

	if err := f.fsys.CopyFile(f.path, srcPath); err != nil {
		return fmt.Errorf("asyncfile: replace content of %q with %q: %w", f.path, srcPath, err)
	}

	if !wasOpen {
		return nil
	}

	procLock, err := f.locker.TryLock(f.lockPath())
	if err != nil {
		return fmt.Errorf("asyncfile: replace content of %q: reopening: acquiring process lock: %w", f.path, err)
	}

	file, err := f.fsys.OpenFile(f.path, os.O_RDWR, 0o644)
	if err != nil {
		_ = procLock.Close()
		return fmt.Errorf("asyncfile: replace content of %q: reopening: %w", f.path, err)
	}

	if err := f.finishOpenLocked(file, procLock); err != nil {
		return fmt.Errorf("asyncfile: replace content of %q: reopening: %w", f.path, err)
	}

	return nil
}

// Exists reports whether the backing path currently exists on the
// filesystem, independent of whether this instance is open.
func (f *File) Exists() (bool, error) {
	f.mu.RLock()
	path := f.path
	f.mu.RUnlock()

	return f.fsys.Exists(path)
}

// IsOpen reports whether the file currently has an open channel.
func (f *File) IsOpen() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.channel != nil
}

// FileSize returns the current logical size (payload bytes, excluding the
// header prefix).
func (f *File) FileSize() int64 {
	return f.size.Load()
}

// Name returns the current backing path.
func (f *File) Name() string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.path
}
