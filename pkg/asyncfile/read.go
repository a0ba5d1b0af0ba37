package asyncfile

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Read fills buffer with bytes starting at the logical offset, issuing
// positional reads against the channel until buffer is full or the
// channel reports end-of-file.
//
// If the channel reaches EOF before buffer is full: when throwOnEOF is
// true, Read returns [ErrEOF]; otherwise Read returns nil with buffer
// partially filled from its start.
//
// Read takes the shared lock; it may run concurrently with other
// data-plane operations.
func (f *File) Read(ctx context.Context, offset int64, buffer []byte, throwOnEOF bool) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.channel == nil {
		return fmt.Errorf("asyncfile: read %q: %w", f.path, ErrClosed)
	}

	if offset < 0 || offset >= f.size.Load() {
		return fmt.Errorf("asyncfile: read %q: offset %d: %w", f.path, offset, ErrOutOfRange)
	}

	channel := f.channel
	done := 0

	for done < len(buffer) {
		future := channel.submitRead(offset+HeaderSize+int64(done), buffer[done:])

		n, err := future.await(ctx)
		done += n

		if err != nil {
			if errors.Is(err, io.EOF) {
				if throwOnEOF {
					return fmt.Errorf("asyncfile: read %q: %w", f.path, ErrEOF)
				}
				return nil
			}

			return fmt.Errorf("asyncfile: read %q: %w", f.path, err)
		}
	}

	return nil
}
