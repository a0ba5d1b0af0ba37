// Package testutil provides small helpers shared by asyncfile's tests:
// collision-free scratch paths and fixed-pattern byte buffers for
// round-trip assertions.
package testutil

import (
	"path/filepath"

	"github.com/google/uuid"
)

// ScratchPath returns a path under dir guaranteed not to collide with any
// other call, using a random UUID as the file name.
func ScratchPath(dir string) string {
	return filepath.Join(dir, uuid.NewString()+".bin")
}

// FilledBuffer returns a buffer of n bytes, each set to b.
func FilledBuffer(n int, b byte) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = b
	}
	return buf
}

// SequentialBuffer returns a buffer of n bytes containing
// 0, 1, 2, ... wrapping at 256, useful for detecting torn or
// misaligned reads that a uniform fill would hide.
func SequentialBuffer(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i)
	}
	return buf
}
