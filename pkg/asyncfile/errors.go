package asyncfile

import "errors"

// Error classification sentinels.
//
// Implementations wrap these with additional context (file path, offset).
// Callers MUST classify errors using errors.Is.
var (
	// ErrClosed indicates an operation was attempted against a file that
	// is not open.
	ErrClosed = errors.New("asyncfile: closed")

	// ErrAlreadyOpen indicates Create or Open was called against a file
	// that is already open.
	ErrAlreadyOpen = errors.New("asyncfile: already open")

	// ErrOutOfRange indicates an offset fell outside [0, size).
	ErrOutOfRange = errors.New("asyncfile: offset out of range")

	// ErrEOF indicates a read with throwOnEOF=true reached end of file
	// before filling the buffer.
	ErrEOF = errors.New("asyncfile: unexpected eof")

	// ErrClosing indicates an operation was rejected because the file is
	// in the middle of being closed.
	ErrClosing = errors.New("asyncfile: closing")
)
