// Package fs provides a narrow filesystem abstraction over [os] so that
// callers needing positional, descriptor-level I/O (pread/pwrite, fsync,
// flock, ftruncate) can be tested against fault-injecting fakes instead of
// the real filesystem.
//
// The main types are:
//   - [FS]: interface for filesystem operations
//   - [File]: interface for open files (satisfied by [os.File])
//   - [Real]: production implementation using [os] package
//   - [Chaos]: testing implementation that injects random I/O failures
//   - [Locker]: advisory cross-process file locking built on flock(2)
//
// Example usage:
//
//	fsys := fs.NewReal()
//	f, err := fsys.OpenFile("data.bin", os.O_RDWR|os.O_CREATE, 0o644)
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	_, err = f.WriteAt([]byte("hello"), 64)
package fs

import (
	"io"
	"os"
)

// File represents an OS-backed open file descriptor.
//
// This interface is satisfied by [os.File]. Unlike a plain [io.ReadWriteCloser],
// it exposes positional I/O ([File.ReadAt], [File.WriteAt]) so that many
// goroutines can address the same descriptor concurrently without racing on
// a shared seek cursor, plus the descriptor-level operations ([File.Fd],
// [File.Sync], [File.Truncate]) a storage primitive needs.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type File interface {
	io.Closer

	// ReadAt reads len(b) bytes starting at off. See [os.File.ReadAt].
	ReadAt(b []byte, off int64) (int, error)

	// WriteAt writes len(b) bytes starting at off. See [os.File.WriteAt].
	WriteAt(b []byte, off int64) (int, error)

	// Fd returns the file descriptor. Used for low-level operations like
	// flock and fallocate. See [os.File.Fd].
	Fd() uintptr

	// Stat returns the [os.FileInfo] for this file. See [os.File.Stat].
	Stat() (os.FileInfo, error)

	// Sync commits the file's contents to disk. See [os.File.Sync].
	Sync() error

	// Truncate changes the size of the file. See [os.File.Truncate].
	Truncate(size int64) error
}

// FS defines filesystem operations needed to create, open, and manage files
// by path.
//
// Implementations in this package include:
//   - [Real]: production use, wraps [os] package
//   - [Chaos]: testing use, injects random failures
//
// Paths use OS semantics (like the os package and path/filepath), not the
// slash-separated paths used by the standard library io/fs package.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type FS interface {
	// OpenFile opens a file with specified flags and permissions. See [os.OpenFile].
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a file or directory exists.
	Exists(path string) (bool, error)

	// Remove deletes a file. See [os.Remove].
	Remove(path string) error

	// Rename moves/renames a file. See [os.Rename]. Atomic on the same filesystem.
	Rename(oldpath, newpath string) error

	// CopyFile copies the entire contents of src to dst, creating or
	// truncating dst, and fsyncs dst before returning.
	CopyFile(dst, src string) error
}

// Compile-time interface check.
var _ File = (*os.File)(nil)
