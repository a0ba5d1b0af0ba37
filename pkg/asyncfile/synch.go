package asyncfile

import (
	"github.com/go-kit/log/level"
)

// Synch coalesces outstanding dirty marks into a single durability
// barrier (fsync). It is a no-op if the dirty counter is zero at entry.
//
// Synch never returns an error. If the underlying fsync fails, it logs a
// warning and leaves the dirty counter unchanged, so the next Synch call
// retries.
//
// Synch takes the shared lock, then a dedicated flush mutex so that at
// most one fsync runs at a time and the dirty-counter reset is atomic
// with respect to observation.
func (f *File) Synch() {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.channel == nil {
		return
	}

	channel := f.channel

	f.flushMu.Lock()
	defer f.flushMu.Unlock()

	dirty := f.dirtyCounter.Load()
	if dirty == 0 {
		return
	}

	if err := channel.sync(); err != nil {
		level.Warn(f.opts.logger).Log(
			"msg", "synch: fsync failed",
			"path", f.path,
			"err", err,
		)
		return
	}

	f.dirtyCounter.Add(-dirty)
}
