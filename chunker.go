package rollsum

const (
	KiB = 1024
	MiB = 1024 * 1024
)

// Digest is the set of types a rolling hash can produce.
type Digest interface {
	~uint32 | ~uint64
}

// RollingHash is a rolling checksum engine.
type RollingHash[D Digest] interface {
	// RollByte feeds one byte into the engine.
	RollByte(b byte)
	// Roll feeds every byte of buf, in order.
	Roll(buf []byte)
	// Digest returns the current digest. It does not change the state.
	Digest() D
	// Reset restores the state of a freshly constructed engine.
	Reset()
	// FindChunkEdgeCond feeds bytes from buf until cond reports true for the
	// current digest. Then the engine is reset and the number of consumed
	// bytes is returned (at least 1). If buf is exhausted first, ok is false
	// and the state is kept, so the search can continue with the next slice.
	FindChunkEdgeCond(buf []byte, cond func(D) bool) (n int, ok bool)
}

// Chunker finds chunk boundaries in a stream fed as consecutive slices.
type Chunker interface {
	// ChunkEnd returns the length of the prefix of buf which completes
	// the current chunk. If ok is false, all of buf belongs to the current
	// chunk and the next call continues it.
	ChunkEnd(buf []byte) (n int, ok bool)
	// ForEachChunkEnd calls fn for every chunk completed in buf and
	// returns the tail which belongs to a chunk that is still open.
	ForEachChunkEnd(buf []byte, fn func(chunk []byte)) []byte
	// Reset drops the current chunk state.
	Reset()
}

// RollingHashChunker cuts a stream where the digest of an engine has all mask bits cleared.
type RollingHashChunker[D Digest] struct {
	rh   RollingHash[D]
	mask D
}

var (
	_ Chunker = (*RollingHashChunker[uint32])(nil)
	_ Chunker = (*FastCDC)(nil)
)

// NewRollingHashChunker returns chunker which uses rh and splits on digest&mask == 0.
// With mask of k low bits set, chunks are 2^k bytes long on average.
func NewRollingHashChunker[D Digest](rh RollingHash[D], mask D) *RollingHashChunker[D] {
	return &RollingHashChunker[D]{
		rh:   rh,
		mask: mask,
	}
}

// ChunkEnd implements Chunker interface.
func (c *RollingHashChunker[D]) ChunkEnd(buf []byte) (int, bool) {
	mask := c.mask
	return c.rh.FindChunkEdgeCond(buf, func(d D) bool { return d&mask == 0 })
}

// ForEachChunkEnd implements Chunker interface.
func (c *RollingHashChunker[D]) ForEachChunkEnd(buf []byte, fn func([]byte)) []byte {
	return forEachChunkEnd(c, buf, fn)
}

// Reset implements Chunker interface.
func (c *RollingHashChunker[D]) Reset() {
	c.rh.Reset()
}

// Mask returns the boundary mask.
func (c *RollingHashChunker[D]) Mask() D {
	return c.mask
}

func forEachChunkEnd(c Chunker, buf []byte, fn func([]byte)) []byte {
	for {
		n, ok := c.ChunkEnd(buf)
		if !ok {
			return buf
		}

		fn(buf[:n])
		buf = buf[n:]
	}
}

type byteRoller interface {
	RollByte(b byte)
}

// rollWindowed feeds only the last window bytes of buf: anything older
// is shifted out of the engine anyway.
func rollWindowed(r byteRoller, window int, buf []byte) {
	if len(buf) > window {
		buf = buf[len(buf)-window:]
	}

	for _, b := range buf {
		r.RollByte(b)
	}
}

type digester[D Digest] interface {
	byteRoller
	Digest() D
}

// findEdge is the plain search loop. It does not reset the engine.
func findEdge[D Digest](e digester[D], buf []byte, cond func(D) bool) (int, bool) {
	for i, b := range buf {
		e.RollByte(b)

		if cond(e.Digest()) {
			return i + 1, true
		}
	}

	return 0, false
}
