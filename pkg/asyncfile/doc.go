// Package asyncfile provides a durable, header-offset, async
// block-addressed single-file storage primitive.
//
// An [File] reserves a fixed-size, compile-time header prefix at the start
// of its backing file and exposes a logical address space starting at 0
// just past that prefix. Callers read and write at arbitrary logical
// offsets; the package translates offsets, batches writes through an
// asynchronous worker-pool-backed channel, preallocates space in large
// zero-filled extents to avoid write amplification, and coalesces fsync
// calls behind a dirty counter.
//
// Data-plane operations (Read, Write, WriteBatch, AllocateSpace, Synch) run
// under a shared lock and may proceed concurrently with one another.
// Control-plane operations (Create, Open, Close, Delete, RenameTo,
// ReplaceContentWith, Shrink) run under an exclusive lock and drain all
// in-flight data-plane work first.
package asyncfile
