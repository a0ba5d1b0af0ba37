package fs

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"sync"
)

// ChaosConfig controls the failure rates injected by [Chaos].
//
// Each rate is a probability in [0, 1] checked independently per call. A
// zero value (the default) never injects that failure.
type ChaosConfig struct {
	// ReadFailRate is the probability that ReadAt returns an I/O error.
	ReadFailRate float64

	// PartialReadRate is the probability that ReadAt returns fewer bytes
	// than requested without an error, simulating a short read.
	PartialReadRate float64

	// WriteFailRate is the probability that WriteAt returns an I/O error
	// before touching the underlying file.
	WriteFailRate float64

	// ShortWriteRate is the probability that WriteAt writes fewer bytes
	// than requested and returns io.ErrShortWrite.
	ShortWriteRate float64

	// SyncFailRate is the probability that Sync returns an I/O error
	// without actually flushing.
	SyncFailRate float64

	// OpenFailRate is the probability that OpenFile fails.
	OpenFailRate float64

	// Seed seeds the PRNG driving fault decisions. Two [Chaos] values
	// constructed with the same seed and config inject the same faults
	// given the same call sequence.
	Seed int64
}

// Chaos wraps an [FS] and randomly injects I/O faults according to its
// [ChaosConfig]. It is intended for exercising error-handling paths that are
// otherwise nearly impossible to provoke against a real filesystem.
//
// Chaos is safe for concurrent use.
type Chaos struct {
	underlying FS
	cfg        ChaosConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewChaos wraps underlying with a fault injector configured by cfg.
func NewChaos(underlying FS, cfg ChaosConfig) *Chaos {
	return &Chaos{
		underlying: underlying,
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
	}
}

func (c *Chaos) roll(rate float64) bool {
	if rate <= 0 {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rng.Float64() < rate
}

// OpenFile injects OpenFailRate, otherwise delegates and wraps the returned
// File in a chaosFile.
func (c *Chaos) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	if c.roll(c.cfg.OpenFailRate) {
		return nil, fmt.Errorf("chaos: injected open failure: %s", path)
	}

	f, err := c.underlying.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}

	return &chaosFile{underlying: f, chaos: c}, nil
}

func (c *Chaos) MkdirAll(path string, perm os.FileMode) error {
	return c.underlying.MkdirAll(path, perm)
}

func (c *Chaos) Stat(path string) (os.FileInfo, error) {
	return c.underlying.Stat(path)
}

func (c *Chaos) Exists(path string) (bool, error) {
	return c.underlying.Exists(path)
}

func (c *Chaos) Remove(path string) error {
	return c.underlying.Remove(path)
}

func (c *Chaos) Rename(oldpath, newpath string) error {
	return c.underlying.Rename(oldpath, newpath)
}

func (c *Chaos) CopyFile(dst, src string) error {
	return c.underlying.CopyFile(dst, src)
}

type chaosFile struct {
	underlying File
	chaos      *Chaos
}

func (f *chaosFile) ReadAt(b []byte, off int64) (int, error) {
	if f.chaos.roll(f.chaos.cfg.ReadFailRate) {
		return 0, fmt.Errorf("chaos: injected read failure at offset %d", off)
	}

	if f.chaos.roll(f.chaos.cfg.PartialReadRate) && len(b) > 1 {
		short := make([]byte, len(b)/2)
		n, err := f.underlying.ReadAt(short, off)
		copy(b, short[:n])

		return n, err
	}

	return f.underlying.ReadAt(b, off)
}

func (f *chaosFile) WriteAt(b []byte, off int64) (int, error) {
	if f.chaos.roll(f.chaos.cfg.WriteFailRate) {
		return 0, fmt.Errorf("chaos: injected write failure at offset %d", off)
	}

	if f.chaos.roll(f.chaos.cfg.ShortWriteRate) && len(b) > 1 {
		short := b[:len(b)/2]
		n, err := f.underlying.WriteAt(short, off)
		if err != nil {
			return n, err
		}

		return n, io.ErrShortWrite
	}

	return f.underlying.WriteAt(b, off)
}

func (f *chaosFile) Sync() error {
	if f.chaos.roll(f.chaos.cfg.SyncFailRate) {
		return fmt.Errorf("chaos: injected sync failure")
	}

	return f.underlying.Sync()
}

func (f *chaosFile) Close() error {
	return f.underlying.Close()
}

func (f *chaosFile) Fd() uintptr {
	return f.underlying.Fd()
}

func (f *chaosFile) Stat() (os.FileInfo, error) {
	return f.underlying.Stat()
}

func (f *chaosFile) Truncate(size int64) error {
	return f.underlying.Truncate(size)
}

// Compile-time interface checks.
var (
	_ FS   = (*Chaos)(nil)
	_ File = (*chaosFile)(nil)
)
