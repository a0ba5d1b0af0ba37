package asyncfile_test

import (
	"bytes"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/asyncfile/pkg/asyncfile"
	"github.com/calvinalkan/asyncfile/pkg/fs"
)

// Test_EndToEnd_Allocate_Write_Synch_Close_Reopen_Read exercises scenario
// #1: create empty file, allocate 4096, write a filled buffer, synch,
// close, reopen, read back the same bytes.
func Test_EndToEnd_Allocate_Write_Synch_Close_Reopen_Read(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.bin")
	f := asyncfile.New(path, fs.NewReal())
	require.NoError(t, f.Create())

	ctx := t.Context()

	start, err := f.AllocateSpace(ctx, 4096)
	require.NoError(t, err)
	require.Equal(t, int64(0), start)

	want := bytes.Repeat([]byte{0xAB}, 4096)
	require.NoError(t, f.Write(ctx, start, want))

	f.Synch()
	require.NoError(t, f.Close())
	require.NoError(t, f.Open())
	defer f.Close()

	got := make([]byte, 4096)
	require.NoError(t, f.Read(ctx, 0, got, true))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("read-back bytes differ after close/reopen (-want +got):\n%s", diff)
	}
}

// Test_EndToEnd_Concurrent_Allocations_Partition_The_Address_Space
// exercises scenario #2: 64 parallel goroutines each allocate 1024
// bytes once; the collected starts are a permutation of
// {0, 1024, ..., 64512}, and the final size is 65536.
func Test_EndToEnd_Concurrent_Allocations_Partition_The_Address_Space(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.bin")
	f := asyncfile.New(path, fs.NewReal())
	require.NoError(t, f.Create())
	defer f.Close()

	ctx := t.Context()

	const n = 64
	const width = 1024

	starts := make(chan int64, n)
	var wg sync.WaitGroup

	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()

			start, err := f.AllocateSpace(ctx, width)
			require.NoError(t, err)
			starts <- start
		}()
	}

	wg.Wait()
	close(starts)

	seen := make(map[int64]bool, n)
	for start := range starts {
		require.False(t, seen[start], "duplicate start offset %d", start)
		seen[start] = true
	}

	for i := range n {
		require.True(t, seen[int64(i*width)], "missing expected start offset %d", i*width)
	}

	require.Equal(t, int64(n*width), f.FileSize())
}

// Test_EndToEnd_Allocation_Above_Threshold_Reads_Back_Zero exercises
// scenario #3: allocating past the threshold physically zero-fills the
// committed range, so any byte in it reads back as zero.
func Test_EndToEnd_Allocation_Above_Threshold_Reads_Back_Zero(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.bin")
	f := asyncfile.New(path, fs.NewReal(), asyncfile.WithAllocationThreshold(1<<20))
	require.NoError(t, f.Create())
	defer f.Close()

	ctx := t.Context()

	start, err := f.AllocateSpace(ctx, 2<<20)
	require.NoError(t, err)
	require.Equal(t, int64(0), start)

	buf := make([]byte, 4096)
	require.NoError(t, f.Read(ctx, (1<<20)+100, buf, true))

	want := make([]byte, 4096)
	require.Equal(t, want, buf)
}

// Test_EndToEnd_WriteBatch_Writes_Disjoint_Pairs_Independently exercises
// scenario #4.
func Test_EndToEnd_WriteBatch_Writes_Disjoint_Pairs_Independently(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.bin")
	f := asyncfile.New(path, fs.NewReal())
	require.NoError(t, f.Create())
	defer f.Close()

	ctx := t.Context()

	_, err := f.AllocateSpace(ctx, 200)
	require.NoError(t, err)

	result, err := f.WriteBatch(ctx, []asyncfile.WritePair{
		{Offset: 0, Buffer: bytes.Repeat([]byte{1}, 10)},
		{Offset: 100, Buffer: bytes.Repeat([]byte{2}, 10)},
	})
	require.NoError(t, err)
	require.NoError(t, result.Await(ctx))

	got0 := make([]byte, 10)
	require.NoError(t, f.Read(ctx, 0, got0, true))
	require.Equal(t, bytes.Repeat([]byte{1}, 10), got0)

	got100 := make([]byte, 10)
	require.NoError(t, f.Read(ctx, 100, got100, true))
	require.Equal(t, bytes.Repeat([]byte{2}, 10), got100)
}

// Test_EndToEnd_Concurrent_Writes_To_Same_Region_Last_Writer_Wins
// exercises scenario #5: two concurrent writes to the same region settle
// on one of the two buffers, never torn content.
func Test_EndToEnd_Concurrent_Writes_To_Same_Region_Last_Writer_Wins(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.bin")
	f := asyncfile.New(path, fs.NewReal())
	require.NoError(t, f.Create())
	defer f.Close()

	ctx := t.Context()

	start, err := f.AllocateSpace(ctx, 64)
	require.NoError(t, err)

	bufA := bytes.Repeat([]byte{0xAA}, 64)
	bufB := bytes.Repeat([]byte{0xBB}, 64)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		require.NoError(t, f.Write(ctx, start, bufA))
	}()
	go func() {
		defer wg.Done()
		require.NoError(t, f.Write(ctx, start, bufB))
	}()

	wg.Wait()
	f.Synch()

	got := make([]byte, 64)
	require.NoError(t, f.Read(ctx, start, got, true))

	require.True(t, bytes.Equal(got, bufA) || bytes.Equal(got, bufB), "expected last-writer-wins content, got neither buffer intact")
}

// Test_EndToEnd_Shrink_Resets_Address_Space exercises scenario #6.
func Test_EndToEnd_Shrink_Resets_Address_Space(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.bin")
	f := asyncfile.New(path, fs.NewReal())
	require.NoError(t, f.Create())
	defer f.Close()

	ctx := t.Context()

	start, err := f.AllocateSpace(ctx, 100)
	require.NoError(t, err)
	require.NoError(t, f.Write(ctx, start, bytes.Repeat([]byte{1}, 100)))

	require.NoError(t, f.Shrink(100))

	// size and committedSize were reset to 0 by Shrink (not to newSize):
	// the file remains open, but every previously valid offset is out of
	// range again until the next AllocateSpace call.
	buf := make([]byte, 100)
	err = f.Read(ctx, 0, buf, true)
	require.ErrorIs(t, err, asyncfile.ErrOutOfRange)
	require.Equal(t, int64(0), f.FileSize())
}
