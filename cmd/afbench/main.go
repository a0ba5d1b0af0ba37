// afbench is a load generator for asyncfile.File. It opens (or creates) a
// file, runs a configurable mix of concurrent allocate/write/read/synch
// operations against it, and prints elapsed time, operation counts and
// throughput.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/asyncfile/internal/config"
	"github.com/calvinalkan/asyncfile/pkg/asyncfile"
	"github.com/calvinalkan/asyncfile/pkg/fs"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "afbench: error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flagSet := flag.NewFlagSet("afbench", flag.ContinueOnError)

	path := flagSet.StringP("file", "f", "", "path to the file under test (required)")
	configPath := flagSet.String("config", "", "optional JSONC config file (workers, allocationThreshold, zeroChunkSize)")
	clients := flagSet.IntP("clients", "c", 8, "number of concurrent client goroutines")
	opsPerClient := flagSet.IntP("ops", "n", 1000, "operations (reads and writes) per client")
	blockSize := flagSet.IntP("block-size", "b", 4096, "size in bytes of each write")
	readRatio := flagSet.Float64P("read-ratio", "r", 0.5, "fraction of ops that are reads instead of writes (0.0-1.0)")
	synchEvery := flagSet.Int("synch-every", 100, "call Synch after every N writes per client (0 disables)")
	fresh := flagSet.Bool("fresh", false, "remove and recreate the file before running")

	flagSet.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: afbench --file <path> [options]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if *path == "" {
		flagSet.Usage()
		return errors.New("--file is required")
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	fsys := fs.NewReal()

	if *fresh {
		_ = fsys.Remove(*path)
	}

	file := asyncfile.New(*path, fsys,
		asyncfile.WithWorkers(cfg.Workers),
		asyncfile.WithAllocationThreshold(cfg.AllocationThreshold),
		asyncfile.WithZeroChunkSize(cfg.ZeroChunkSize),
	)

	// Create opens with O_CREATE, so it works whether or not path exists
	// already; it only fails if the file cannot be opened at all.
	if err := file.Create(); err != nil {
		return fmt.Errorf("opening %q: %w", *path, err)
	}
	defer file.Close()

	result := runWorkload(file, workloadConfig{
		clients:      *clients,
		opsPerClient: *opsPerClient,
		blockSize:    *blockSize,
		readRatio:    *readRatio,
		synchEvery:   *synchEvery,
	})

	result.print(os.Stdout)

	return nil
}

type workloadConfig struct {
	clients      int
	opsPerClient int
	blockSize    int
	readRatio    float64
	synchEvery   int
}

type workloadResult struct {
	writes     int64
	reads      int64
	errorCount int64
	elapsed    time.Duration
}

func (r workloadResult) print(w *os.File) {
	total := r.writes + r.reads
	rate := float64(total) / r.elapsed.Seconds()

	fmt.Fprintf(w, "elapsed:   %v\n", r.elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "writes:    %d\n", r.writes)
	fmt.Fprintf(w, "reads:     %d\n", r.reads)
	fmt.Fprintf(w, "errors:    %d\n", r.errorCount)
	fmt.Fprintf(w, "throughput: %.0f ops/sec\n", rate)
}

func runWorkload(file *asyncfile.File, cfg workloadConfig) workloadResult {
	ctx := context.Background()

	// Preallocate one region per client so reads have somewhere to land
	// before any writes have happened.
	regions := make([]int64, cfg.clients)
	for i := range regions {
		off, err := file.AllocateSpace(ctx, int64(cfg.blockSize*cfg.opsPerClient))
		if err != nil {
			off = 0
		}
		regions[i] = off
	}

	var writes, reads, errorCount int64

	var wg sync.WaitGroup
	start := time.Now()

	for c := range cfg.clients {
		wg.Add(1)
		go func(clientIdx int) {
			defer wg.Done()

			rng := rand.New(rand.NewSource(int64(clientIdx) + 1))
			buf := make([]byte, cfg.blockSize)

			writesSinceSynch := 0

			for i := range cfg.opsPerClient {
				offset := regions[clientIdx] + int64(i*cfg.blockSize)

				if rng.Float64() < cfg.readRatio {
					if err := file.Read(ctx, offset, buf, false); err != nil {
						atomic.AddInt64(&errorCount, 1)
						continue
					}
					atomic.AddInt64(&reads, 1)
					continue
				}

				for j := range buf {
					buf[j] = byte(rng.Intn(256))
				}

				if err := file.Write(ctx, offset, buf); err != nil {
					atomic.AddInt64(&errorCount, 1)
					continue
				}
				atomic.AddInt64(&writes, 1)

				writesSinceSynch++
				if cfg.synchEvery > 0 && writesSinceSynch >= cfg.synchEvery {
					file.Synch()
					writesSinceSynch = 0
				}
			}

			file.Synch()
		}(c)
	}

	wg.Wait()

	return workloadResult{
		writes:     atomic.LoadInt64(&writes),
		reads:      atomic.LoadInt64(&reads),
		errorCount: atomic.LoadInt64(&errorCount),
		elapsed:    time.Since(start),
	}
}
