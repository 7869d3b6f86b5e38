// Package rollsum provides rolling checksums and content-defined chunking.
//
// A RollingHash digests the last few bytes fed into it, so that a boundary
// found by testing the digest depends only on local content. Inserting bytes
// into a stream moves only the boundaries near the edit.
//
// Engines:
//   - Bup: the windowed checksum of bup, compatible with go4.org/rollsum.
//   - Gear: one shift and one add per byte, effective window of 64 bytes.
//   - Rabin: Rabin fingerprint over an irreducible polynomial.
//
// Chunkers:
//   - RollingHashChunker cuts where the digest has all mask bits cleared.
//   - FastCDC is Gear with normalized chunking and hard size limits.
//
// A Chunker is fed consecutive slices of a stream and keeps its state between
// calls, so boundaries do not depend on how the stream was sliced:
//
//	c, _ := rollsum.NewFastCDC()
//	tail := c.ForEachChunkEnd(data, func(chunk []byte) {
//	    // Process chunk
//	})
//	// tail belongs to a chunk which is still open
//
// Splitter drives a Chunker over an io.Reader and also ends the last chunk.
//
// Instances are not safe for concurrent use. Different instances share only
// read-only tables.
package rollsum
